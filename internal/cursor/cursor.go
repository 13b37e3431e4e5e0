// Package cursor encodes the continuation tokens handed out by paged job listings.
//
// A token carries the sort key of the last row of a page, (updated_at, id);
// the next page starts strictly after it.
package cursor

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidToken is returned when a token cannot be decoded.
var ErrInvalidToken = errors.New("invalid continuation token")

const sep = "!"

// Key is the composite sort key of a job row.
type Key struct {
	ID        string
	UpdatedAt time.Time
}

// Encode returns the opaque token for k.
func Encode(k Key) string {
	raw := k.ID + sep + k.UpdatedAt.UTC().Format(time.RFC3339Nano)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// Decode parses a token produced by Encode.
func Decode(token string) (Key, error) {
	b, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Key{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	// ids never contain the separator; split on the last one anyway
	i := strings.LastIndex(string(b), sep)
	if i <= 0 {
		return Key{}, ErrInvalidToken
	}
	ts, err := time.Parse(time.RFC3339Nano, string(b[i+1:]))
	if err != nil {
		return Key{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return Key{ID: string(b[:i]), UpdatedAt: ts}, nil
}
