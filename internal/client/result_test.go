package client

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResult_States(t *testing.T) {
	some := Some([]int{1, 2})
	assert.True(t, some.IsSome())
	assert.False(t, some.IsEmpty())
	assert.False(t, some.IsErr())
	v, ok := some.Value()
	assert.True(t, ok)
	assert.Equal(t, []int{1, 2}, v)

	empty := Empty[[]int]()
	assert.True(t, empty.IsEmpty())
	_, ok = empty.Value()
	assert.False(t, ok)
	assert.NoError(t, empty.Err())

	cause := errors.New("boom")
	failed := Failed[[]int](cause)
	assert.True(t, failed.IsErr())
	assert.ErrorIs(t, failed.Err(), cause)
}

func TestResult_ZeroValueIsEmpty(t *testing.T) {
	var r Result[string]
	assert.True(t, r.IsEmpty())
}
