package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveStableKey_Deterministic(t *testing.T) {
	a := DeriveStableKey("Orientation", "Sign NDA")
	b := DeriveStableKey("Orientation", "Sign NDA")
	assert.Equal(t, a, b)
	assert.Len(t, a, 64) // hex sha256
}

func TestDeriveStableKey_SeparatorPreventsBoundaryCollisions(t *testing.T) {
	// Without a separator these would concatenate to the same string.
	assert.NotEqual(t,
		DeriveStableKey("Orientation A", "Task"),
		DeriveStableKey("Orientation", " ATask"),
	)
	assert.NotEqual(t,
		DeriveStableKey("ab", "c"),
		DeriveStableKey("a", "bc"),
	)
}

func TestDeriveStableKey_TitleRenameChangesIdentity(t *testing.T) {
	old := DeriveStableKey("Orientation", "Sign NDA")
	renamed := DeriveStableKey("Orientation", "Sign Confidentiality Agreement")
	assert.NotEqual(t, old, renamed)

	// Section rename also changes identity.
	moved := DeriveStableKey("Week One", "Sign NDA")
	assert.NotEqual(t, old, moved)
}
