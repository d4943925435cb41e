package testutil

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// RandomEmail returns a unique email address for test fixtures.
func RandomEmail() string {
	return fmt.Sprintf("user-%s@example.com", randomSuffix())
}

// RandomName returns a unique human-readable name for test fixtures.
func RandomName(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, randomSuffix())
}

func randomSuffix() string {
	return strings.ToLower(uuid.New().String()[:8])
}
