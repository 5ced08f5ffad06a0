package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/yourorg/testnet-trader/internal/auth"
	"github.com/yourorg/testnet-trader/internal/config"
)

// mint-token prints a bearer token for the gateway, signed with JWT_SECRET.
func main() {
	name := flag.String("name", "dashboard", "client name embedded in the token")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if cfg.JWT.Secret == "" {
		fmt.Fprintln(os.Stderr, "Error: JWT_SECRET is not set")
		os.Exit(1)
	}

	clientID := uuid.New()
	token, err := auth.NewJWTService(cfg.JWT.Secret, *ttl).Sign(clientID, *name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error signing: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Client ID: %s\n", clientID)
	fmt.Println(token)
}
