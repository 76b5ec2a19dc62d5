// internal/utils/ids.go
// ID generation helpers, carried from the teacher's
// internal/utils/helpers.go.

package utils

import (
	"fmt"

	"github.com/google/uuid"
)

// GenerateUUID generates a new UUID.
func GenerateUUID() string {
	return uuid.New().String()
}

// GenerateRequestID generates a unique request ID for request tracing.
func GenerateRequestID() string {
	return fmt.Sprintf("req_%s", GenerateUUID())
}

// StringPtr returns a pointer to a string.
func StringPtr(s string) *string {
	return &s
}
