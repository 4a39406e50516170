package main

import (
	"github.com/joho/godotenv"
)

func main() {
	// Best-effort: a .env next to the binary may carry VIDPULL_* overrides.
	_ = godotenv.Load()

	Execute()
}
