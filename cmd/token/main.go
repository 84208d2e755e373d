package main

import (
	"address_book/internal/config" // Custom import path (Config)
	"address_book/internal/utils"  // Token utility functions
	"flag"                         // Command line flags
	"fmt"                          // Printing the token
	"time"                         // Token lifetime

	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// Main entry point for minting a service token for the write API
func main() {
	service := flag.String("service", "", "name of the calling service or operator")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	if *service == "" {
		logrus.Fatal("a -service name is required") // Tokens must name their caller
	}
	cfg := config.LoadConfig() // Load configuration
	if cfg.AppSecret == "" {
		logrus.Fatal("APP_SECRET is not set") // Cannot sign without a secret
	}
	token, err := utils.GenerateToken(*service, cfg.AppSecret, *ttl) // Mint the token
	if err != nil {
		logrus.Fatalf("failed to generate token: %v", err)
	}
	fmt.Println(token) // Print the token to stdout
}
