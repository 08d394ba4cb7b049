// Package utils provides general-purpose helper utilities
// used across different parts of the application.
// Includes tools for working with context, type-safe keys, hashing,
// identifier generation, and other common operations.
package utils

import "github.com/google/uuid"

// UUIDGenerator produces the external identifiers attached to members,
// circles and data records.
type UUIDGenerator struct {
}

func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

// Generate returns a new UUID string. Version 7 identifiers are preferred
// because they sort by creation time; plain random UUIDs are the fallback
// when V7 generation fails.
func (g *UUIDGenerator) Generate() string {
	v7, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return v7.String()
}
