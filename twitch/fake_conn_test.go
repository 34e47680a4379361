package twitch

import (
	"context"
	"io"
	"net"
	"sync"
)

type fakeConn struct {
	mu        sync.Mutex
	written   []string
	frames    chan string
	closed    chan struct{}
	closeOnce sync.Once
}

func newFakeConn(frames ...string) *fakeConn {
	c := &fakeConn{
		frames: make(chan string, len(frames)+1),
		closed: make(chan struct{}),
	}
	for _, f := range frames {
		c.frames <- f
	}
	return c
}

// endStream makes ReadFrame return io.EOF once buffered frames are drained.
func (c *fakeConn) endStream() *fakeConn {
	close(c.frames)
	return c
}

func (c *fakeConn) ReadFrame() (string, error) {
	select {
	case f, ok := <-c.frames:
		if !ok {
			return "", io.EOF
		}
		return f, nil
	case <-c.closed:
		return "", net.ErrClosed
	}
}

func (c *fakeConn) WriteLine(line string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.written = append(c.written, line)
	return nil
}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) lines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.written...)
}

func (c *fakeConn) count(line string) int {
	n := 0
	for _, l := range c.lines() {
		if l == line {
			n++
		}
	}
	return n
}

type fakeDialer struct {
	conn *fakeConn
	err  error
	url  string
}

func (d *fakeDialer) Dial(_ context.Context, url string) (Conn, error) {
	d.url = url
	if d.err != nil {
		return nil, d.err
	}
	return d.conn, nil
}
