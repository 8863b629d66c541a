package main

import (
	"log"

	"github.com/karar-git/VibeHiring/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
