package main

import (
	"log"
	"os"

	"flashmind-student/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		log.Printf("flashmind: %v", err)
		os.Exit(1)
	}
}
