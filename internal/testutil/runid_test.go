package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequentialRunIDs_Generate(t *testing.T) {
	gen := NewSequentialRunIDs("test")
	assert.Equal(t, "test-0001", gen.Generate())
	assert.Equal(t, "test-0002", gen.Generate())
}

func TestSequentialRunIDs_DefaultPrefix(t *testing.T) {
	gen := NewSequentialRunIDs("")
	assert.Equal(t, "run-0001", gen.Generate())
}
