package main

import (
	"log"
	"os"

	"modelcompare/cmd/server"
)

func main() {
	// Set default port if not provided
	if os.Getenv("PORT") == "" {
		os.Setenv("PORT", "8080")
	}

	if err := server.Run(); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
