package transform

import (
	"fmt"
	"strings"

	"github.com/dyne/rot13/internal/config"
)

// PluginFunc is the shape plugins export: value plus the column's config
// rendered as a plain map, so plugin binaries need no import of this module.
type PluginFunc func(value any, cfg map[string]any) (any, error)

type Factory func(cfg *config.TransformConfig) (Transformer, error)

var registry = map[string]Factory{}

func Register(name string, factory Factory) {
	if name == "" || factory == nil {
		return
	}
	registry[strings.ToLower(name)] = factory
}

func registerPlugin(name string, fn PluginFunc) {
	Register(name, func(cfg *config.TransformConfig) (Transformer, error) {
		return &PluginTransformer{name: name, fn: fn, cfg: cfg}, nil
	})
}

type PluginTransformer struct {
	name string
	fn   PluginFunc
	cfg  *config.TransformConfig
}

func (t *PluginTransformer) Name() string { return t.name }

func (t *PluginTransformer) Transform(value any) (any, error) {
	if t.fn == nil {
		return nil, fmt.Errorf("plugin transformer %s not initialized", t.name)
	}
	return t.fn(value, cfgMap(t.cfg))
}

func cfgMap(cfg *config.TransformConfig) map[string]any {
	out := map[string]any{"type": "", "params": map[string]any{}}
	if cfg == nil {
		return out
	}
	out["type"] = cfg.Type
	if cfg.Params != nil {
		out["params"] = cfg.Params
	}
	return out
}
