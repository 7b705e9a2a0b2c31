package main

import (
	"github.com/MeKo-Tech/labelscan/cmd/labelscan/cmd"
	"github.com/joho/godotenv"
)

func main() {
	// Local .env overrides are optional.
	_ = godotenv.Load()

	cmd.Execute()
}
