package utils

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// GenerateID returns a unique identifier with a type prefix, e.g. "bid_4f2c...".
func GenerateID(prefix string) string {
	id := strings.ReplaceAll(uuid.New().String(), "-", "")
	return fmt.Sprintf("%s_%s", prefix, id)
}
