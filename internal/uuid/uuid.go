// Package uuid issues the string identifiers used for rows, tokens and
// request IDs.
package uuid

import (
	googleuuid "github.com/google/uuid"
)

// New returns a time-ordered UUIDv7, or a random v4 if the v7 generator
// cannot read the clock.
func New() string {
	if id, err := googleuuid.NewV7(); err == nil {
		return id.String()
	}
	return googleuuid.NewString()
}

// Parse returns s in canonical lowercase form.
func Parse(s string) (string, error) {
	id, err := googleuuid.Parse(s)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// IsValid reports whether s is a UUID in any of the accepted encodings.
func IsValid(s string) bool {
	return googleuuid.Validate(s) == nil
}

// Version returns the UUID version of s, or 0 when s is not a UUID.
func Version(s string) int {
	id, err := googleuuid.Parse(s)
	if err != nil {
		return 0
	}
	return int(id.Version())
}
