package criteria

import (
	"errors"
	"fmt"
	"time"

	"github.com/viant/procsched/runtime/process"
	"github.com/viant/procsched/service/dao"
)

// Supported parameter names
const (
	ParameterState = "State"
	ParameterSince = "Since"
)

// ErrInvalidParameter is returned for unknown parameter names or values
var ErrInvalidParameter = errors.New("invalid filter parameter")

// Validate checks that every parameter is known and carries a usable value.
func Validate(parameters []*dao.Parameter) error {
	for _, parameter := range parameters {
		if parameter == nil {
			continue
		}
		switch parameter.Name {
		case ParameterState:
			if err := validateStates(parameter.Value); err != nil {
				return err
			}
		case ParameterSince:
			if err := validateSince(parameter.Value); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: unknown name %q", ErrInvalidParameter, parameter.Name)
		}
	}
	return nil
}

func validateStates(value interface{}) error {
	var states []string
	switch actual := value.(type) {
	case string:
		states = []string{actual}
	case []string:
		states = actual
	default:
		return fmt.Errorf("%w: State has unsupported type %T", ErrInvalidParameter, value)
	}
	for _, state := range states {
		if !process.State(state).IsValid() {
			return fmt.Errorf("%w: unknown state %q", ErrInvalidParameter, state)
		}
	}
	return nil
}

func validateSince(value interface{}) error {
	switch actual := value.(type) {
	case time.Time:
		return nil
	case string:
		if _, err := time.Parse(time.RFC3339, actual); err != nil {
			return fmt.Errorf("%w: Since %q is not RFC3339", ErrInvalidParameter, actual)
		}
		return nil
	}
	return fmt.Errorf("%w: Since has unsupported type %T", ErrInvalidParameter, value)
}
