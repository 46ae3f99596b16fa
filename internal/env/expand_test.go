package env

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpand(t *testing.T) {
	testCases := []struct {
		description string
		env         map[string]string
		input       string
		expected    string
	}{
		{description: "no expressions", input: "capacity: 64", expected: "capacity: 64"},
		{description: "single expression", env: map[string]string{"PROCSCHED_DIR": "/var/lib/ps"}, input: "baseURL: ${env.PROCSCHED_DIR}/snapshots", expected: "baseURL: /var/lib/ps/snapshots"},
		{description: "repeated expressions", env: map[string]string{"A": "1", "B": "2"}, input: "${env.A}-${env.B}-${env.A}", expected: "1-2-1"},
		{description: "unset variable", input: "mode=${env.PROCSCHED_UNSET}-end", expected: "mode=-end"},
		{description: "missing closing brace", env: map[string]string{"X": "x"}, input: "start ${env.X and ${env.Y} end", expected: "start ${env.X and  end"},
		{description: "empty key", input: "oops ${env.} done", expected: "oops  done"},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			for k, v := range testCase.env {
				t.Setenv(k, v)
			}
			assert.Equal(t, testCase.expected, Expand(testCase.input))
		})
	}
}

func TestExpandWith(t *testing.T) {
	lookup := func(key string) string { return "<" + key + ">" }
	assert.Equal(t, "<LEVELS>", ExpandWith("${env.LEVELS}", lookup))
}
