package policy

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/procsched/runtime/process"
)

func TestPolicy_Admit(t *testing.T) {
	testCases := []struct {
		description string
		policy      *Policy
		priority    process.Priority
		expect      process.Priority
		expectErr   bool
	}{
		{description: "in range", policy: &Policy{Mode: ModeReject}, priority: 4, expect: 4},
		{description: "nil policy rejects", policy: nil, priority: 10, expectErr: true},
		{description: "reject negative", policy: &Policy{Mode: ModeReject}, priority: -1, expectErr: true},
		{description: "clamp high", policy: &Policy{Mode: ModeClamp}, priority: 42, expect: 9},
		{description: "clamp low", policy: &Policy{Mode: "CLAMP"}, priority: -3, expect: 0},
		{description: "upper bound", policy: nil, priority: 9, expect: 9},
	}
	for _, testCase := range testCases {
		actual, err := testCase.policy.Admit(testCase.priority, 10)
		if testCase.expectErr {
			assert.True(t, errors.Is(err, process.ErrInvalidPriority), testCase.description)
			continue
		}
		assert.NoError(t, err, testCase.description)
		assert.Equal(t, testCase.expect, actual, testCase.description)
	}
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, (*Config)(nil).Validate())
	assert.NoError(t, (&Config{}).Validate())
	assert.NoError(t, (&Config{Mode: ModeClamp}).Validate())
	assert.Error(t, (&Config{Mode: "wrap"}).Validate())
}

func TestContext(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))
	p := &Policy{Mode: ModeClamp}
	ctx := WithPolicy(context.Background(), p)
	assert.Same(t, p, FromContext(ctx))

	config := ToConfig(p)
	assert.Equal(t, ModeClamp, config.Mode)
	assert.True(t, FromConfig(config).IsClamp())
	assert.Nil(t, FromConfig(nil))
}
