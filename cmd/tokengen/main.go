package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/aravinth-krishna/learnit-scheduler/pkg/auth"
	"github.com/aravinth-krishna/learnit-scheduler/pkg/config"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: tokengen <userID> [email]")
		os.Exit(1)
	}

	userID, err := strconv.ParseUint(os.Args[1], 10, 64)
	if err != nil || userID == 0 {
		fmt.Printf("Error: invalid user id %q\n", os.Args[1])
		os.Exit(1)
	}
	email := ""
	if len(os.Args) > 2 {
		email = os.Args[2]
	}

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	token, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL).CreateToken(uint(userID), email)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Bearer token for user %d (valid %s):\n%s\n", userID, cfg.Auth.TokenTTL, token)
}
