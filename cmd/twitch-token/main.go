package main

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"twitch-chat-client/tokens"
)

func main() {
	if len(os.Args) < 2 || os.Args[1] != "save" {
		fmt.Fprintln(os.Stderr, "usage: twitch-token save [ttl]")
		os.Exit(1)
	}

	access := strings.TrimSpace(os.Getenv("TWITCH_OAUTH_TOKEN"))
	if access == "" {
		log.Fatal("TWITCH_OAUTH_TOKEN is required")
	}
	if !strings.HasPrefix(access, "oauth:") {
		access = "oauth:" + access
	}

	token := tokens.Token{Access: access}
	if len(os.Args) > 2 {
		ttl, err := time.ParseDuration(os.Args[2])
		if err != nil {
			log.Fatalf("parse ttl: %v", err)
		}
		token.ExpiresAt = time.Now().Add(ttl)
	}

	store := tokens.FileTokenStore{Path: strings.TrimSpace(os.Getenv("TWITCH_TOKEN_FILE"))}
	if err := store.SaveChatToken(token); err != nil {
		log.Fatalf("save chat token: %v", err)
	}

	if token.ExpiresAt.IsZero() {
		fmt.Println("ok, no expiry")
		return
	}
	fmt.Printf("ok, expires at %s\n", token.ExpiresAt.Format(time.RFC3339))
}
