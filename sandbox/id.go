package sandbox

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewBackendId returns an opaque id unique per backend instance, format
// <provider>-<millis>-<6-char-random>.
func NewBackendId(provider string) string {
	return fmt.Sprintf("%s-%d-%s", provider, time.Now().UnixMilli(), uuid.NewString()[:6])
}
