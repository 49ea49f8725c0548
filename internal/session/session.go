// Package session mints and validates the opaque session identifiers that
// scope customer-facing order access.
package session

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"
)

const prefix = "session_"

// New returns a fresh session identifier of the form
// session_<millis base36>_<random base36>.
func New() string {
	ts := strconv.FormatInt(time.Now().UnixMilli(), 36)
	return fmt.Sprintf("%s%s_%s", prefix, ts, strconv.FormatUint(rand.Uint64(), 36))
}

// Valid reports whether id looks like an identifier minted by New. It is a
// shape check only; possession of a well-formed id is what grants access.
func Valid(id string) bool {
	if !strings.HasPrefix(id, prefix) {
		return false
	}
	rest := strings.TrimPrefix(id, prefix)
	parts := strings.Split(rest, "_")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return false
	}
	if _, err := strconv.ParseInt(parts[0], 36, 64); err != nil {
		return false
	}
	return true
}
