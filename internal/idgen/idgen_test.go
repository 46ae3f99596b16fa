package idgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewWithPrefix(t *testing.T) {
	prev := NewFunc
	defer func() { NewFunc = prev }()
	NewFunc = func() string { return "abc" }

	assert.Equal(t, "abc", New())
	assert.Equal(t, "snapshot-abc", NewWithPrefix("snapshot"))
	assert.Equal(t, "snapshot-abc", NewWithPrefix("snapshot-"))
	assert.Equal(t, "abc", NewWithPrefix(""))
}

func TestNew_Unique(t *testing.T) {
	assert.NotEqual(t, New(), New())
}
