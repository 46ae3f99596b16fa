package idgen

import (
	"strings"

	"github.com/google/uuid"
)

// New returns a new globally unique identifier as string. It is implemented
// as a thin wrapper so tests can stub it.

var NewFunc = func() string { return uuid.New().String() }

func New() string { return NewFunc() }

// NewWithPrefix returns prefix + "-" + New(); an empty prefix yields New().
func NewWithPrefix(prefix string) string {
	prefix = strings.TrimSuffix(prefix, "-")
	if prefix == "" {
		return New()
	}
	return prefix + "-" + New()
}
