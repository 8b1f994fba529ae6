package bootstrap

import (
	"log"

	"github.com/joho/godotenv"
)

// Loadenv loads .env into the process environment. Runs before the fx app is
// built, so the structured logger is not available yet.
func Loadenv() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}
}
