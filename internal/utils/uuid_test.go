// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Olga Voronova

package utils

import (
	"testing"

	"github.com/google/uuid"
)

func TestUUIDGenerator_Generate(t *testing.T) {
	g := NewUUIDGenerator()

	id := g.Generate()
	if id == "" {
		t.Fatal("expected non-empty identifier")
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		t.Fatalf("generated identifier is not a valid UUID: %v", err)
	}
	if parsed.Version() != 7 && parsed.Version() != 4 {
		t.Errorf("expected UUID version 7 (or fallback 4), got %d", parsed.Version())
	}
}

func TestUUIDGenerator_Unique(t *testing.T) {
	g := NewUUIDGenerator()

	seen := make(map[string]bool, 1000)
	for n := 0; n < 1000; n++ {
		id := g.Generate()
		if seen[id] {
			t.Fatalf("duplicate identifier generated: %s", id)
		}
		seen[id] = true
	}
}

func TestUUIDGenerator_SortableByCreation(t *testing.T) {
	g := NewUUIDGenerator()

	// V7 identifiers embed a millisecond timestamp, so a later ID never
	// sorts before one generated earlier.
	prev := g.Generate()
	for n := 0; n < 50; n++ {
		next := g.Generate()
		if next < prev {
			t.Fatalf("identifier %s sorts before earlier one %s", next, prev)
		}
		prev = next
	}
}
