package main

import (
	"log"

	"github.com/joho/godotenv"

	"billing/cmd"
	"billing/internal/logger"
)

func main() {
	// Secrets such as BILLING_SMTP_PASSWORD may come from a .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	// Replaced by the workspace settings once a command loads them
	if err := logger.Setup(logger.DefaultConfig()); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	cmd.Execute()
}
