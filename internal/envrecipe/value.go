// Package envrecipe implements env resolver: turning a declared map of
// env value recipes into a plain string map, either for a child process's
// environment or for HTTP header values.
package envrecipe

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// SpecialDir names one of the fixed named directories a {special: K} recipe
// may reference.
type SpecialDir string

const (
	SpecialHome      SpecialDir = "home"
	SpecialConfig    SpecialDir = "config"
	SpecialCache     SpecialDir = "cache"
	SpecialData      SpecialDir = "data"
	SpecialLog       SpecialDir = "log"
	SpecialTemp      SpecialDir = "temp"
	SpecialWorkspace SpecialDir = "workspace"
)

// Value is the tagged-union env value recipe: exactly one of its
// fields is populated, determined at decode time by which shape the YAML/JSON
// node took — a bare scalar is a literal template string; a one-key mapping
// selects the pass/special/command/string variant: a one-key-mapping
// validity check generalized from "exactly one of two fields" to "exactly
// one of five."
type Value struct {
	Literal string     // bare string, or {string: TEMPLATE}
	Pass    string     // {pass: NAME}
	Special SpecialDir // {special: KEY}
	Command string     // {command: SHELLCMD}

	kind kind
}

type kind int

const (
	kindLiteral kind = iota
	kindPass
	kindSpecial
	kindCommand
)

// UnmarshalYAML implements yaml.Unmarshaler, dispatching on node shape.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		v.Literal = node.Value
		v.kind = kindLiteral
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("env value recipe must be a scalar or a single-key mapping, got %v", node.Kind)
	}
	var raw map[string]string
	if err := node.Decode(&raw); err != nil {
		return fmt.Errorf("decode env value recipe: %w", err)
	}
	if len(raw) != 1 {
		return fmt.Errorf("env value recipe mapping must have exactly one key, got %d", len(raw))
	}
	for key, value := range raw {
		switch key {
		case "pass":
			v.Pass, v.kind = value, kindPass
		case "special":
			v.Special, v.kind = SpecialDir(value), kindSpecial
		case "command":
			v.Command, v.kind = value, kindCommand
		case "string":
			v.Literal, v.kind = value, kindLiteral
		default:
			return fmt.Errorf("unknown env value recipe key %q", key)
		}
	}
	return nil
}

// MarshalYAML implements yaml.Marshaler for round-tripping.
func (v Value) MarshalYAML() (interface{}, error) {
	switch v.kind {
	case kindPass:
		return map[string]string{"pass": v.Pass}, nil
	case kindSpecial:
		return map[string]string{"special": string(v.Special)}, nil
	case kindCommand:
		return map[string]string{"command": v.Command}, nil
	default:
		return v.Literal, nil
	}
}
