package main

import (
	"os"

	"github.com/aryangodara/client_rate_limiter/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
