package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/artpar/fndeploy/internal/core/domain"
)

// =============================================================================
// Formats
// =============================================================================

type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// =============================================================================
// Manifest
// =============================================================================

// Manifest is the declarative list of deployable functions.
//
//	[[functions]]
//	name = "api"
//	bundle = "dist/index.js"
type Manifest struct {
	Functions []domain.DeployableFunction `toml:"functions" yaml:"functions" json:"functions"`
}

// Parse decodes and validates a manifest.
func Parse(data []byte, format Format) (*Manifest, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyInput
	}

	var m Manifest
	var err error
	switch format {
	case FormatTOML:
		err = toml.Unmarshal(data, &m)
	case FormatYAML:
		err = yaml.Unmarshal(data, &m)
	case FormatJSON:
		err = json.Unmarshal(data, &m)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, NewParseError("", fmt.Sprintf("decode %s: %v", format, err), ErrInvalidSyntax)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks every declared function and rejects duplicate names.
func (m *Manifest) Validate() error {
	if len(m.Functions) == 0 {
		return ErrNoFunctions
	}

	seen := make(map[string]int, len(m.Functions))
	for i, fn := range m.Functions {
		field := fmt.Sprintf("functions[%d]", i)
		if err := fn.Validate(); err != nil {
			return NewParseError(field, err.Error(), fmt.Errorf("%w: %w", ErrInvalidFunctionDef, err))
		}
		if first, dup := seen[fn.Name]; dup {
			return NewParseError(field+".name",
				fmt.Sprintf("%q already declared at functions[%d]", fn.Name, first),
				ErrDuplicateFunction)
		}
		seen[fn.Name] = i
	}
	return nil
}

// Find returns the function with the given name.
func (m *Manifest) Find(name string) (domain.DeployableFunction, error) {
	for _, fn := range m.Functions {
		if fn.Name == name {
			return fn, nil
		}
	}
	return domain.DeployableFunction{}, fmt.Errorf("%w: %q", ErrFunctionNotFound, name)
}

// Names returns the declared function names in manifest order.
func (m *Manifest) Names() []string {
	names := make([]string, 0, len(m.Functions))
	for _, fn := range m.Functions {
		names = append(names, fn.Name)
	}
	return names
}
