package transform

import (
	"strings"

	"github.com/dyne/rot13/internal/rot13"
)

// Transformer rewrites a single value. Values come from sqlite columns, so
// implementations must tolerate nil and non-string input; every built-in
// passes those through unchanged.
type Transformer interface {
	Name() string
	Transform(value any) (any, error)
}

// Rot13 applies the letter-substitution cipher to string values.
type Rot13 struct{}

func (t *Rot13) Name() string { return "Rot13" }

func (t *Rot13) Transform(value any) (any, error) {
	s, ok := value.(string)
	if !ok {
		return value, nil
	}
	return rot13.Transform(s), nil
}

// Upper and Lower fold string case. They exist for batch cleanup pipelines
// that normalize columns alongside the rotation.
type Upper struct{}

func (t *Upper) Name() string { return "Upper" }

func (t *Upper) Transform(value any) (any, error) {
	s, ok := value.(string)
	if !ok {
		return value, nil
	}
	return strings.ToUpper(s), nil
}

type Lower struct{}

func (t *Lower) Name() string { return "Lower" }

func (t *Lower) Transform(value any) (any, error) {
	s, ok := value.(string)
	if !ok {
		return value, nil
	}
	return strings.ToLower(s), nil
}
