package config

import (
	"os"

	"github.com/joho/godotenv"
)

var envFiles = []string{".env", ".env.local"}

// loadEnvFiles loads .env and .env.local when present. Variables already set in
// the process environment are left untouched, and the earlier file wins.
func loadEnvFiles() ([]string, error) {
	var found []string
	for _, name := range envFiles {
		if _, err := os.Stat(name); err == nil {
			found = append(found, name)
		}
	}
	if len(found) == 0 {
		return nil, nil
	}
	if err := godotenv.Load(found...); err != nil {
		return nil, err
	}
	return found, nil
}
