package transform

import (
	"fmt"
	"strings"

	"github.com/dyne/rot13/internal/config"
)

// Build resolves a config entry to a transformer. Plugin registrations take
// precedence over built-ins of the same name.
func Build(cfg *config.TransformConfig) (Transformer, error) {
	if cfg == nil {
		return nil, nil
	}
	key := strings.ToLower(cfg.Type)
	if factory, ok := registry[key]; ok {
		return factory(cfg)
	}
	switch key {
	case "rot13":
		return &Rot13{}, nil
	case "upper":
		return &Upper{}, nil
	case "lower":
		return &Lower{}, nil
	default:
		return nil, fmt.Errorf("unknown transformer type: %s", cfg.Type)
	}
}
