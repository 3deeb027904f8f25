package util

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

func GenerateUUID() string {
	return uuid.NewString()
}

// GenerateToken returns a random token made of two version 4 UUIDs without
// separators.
func GenerateToken() (string, error) {
	var b strings.Builder
	for i := 0; i < 2; i++ {
		id, err := uuid.NewRandom()
		if err != nil {
			return "", fmt.Errorf("failed to generate token: %w", err)
		}
		b.WriteString(strings.ReplaceAll(id.String(), "-", ""))
	}
	return b.String(), nil
}
