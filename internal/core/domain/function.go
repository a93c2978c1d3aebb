// Package domain holds the value types shared by the deploy workflow.
// This is part of the Functional Core - no I/O, no side effects.
package domain

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// Function Errors
// =============================================================================

var (
	ErrEmptyFunctionName   = errors.New("function name is empty")
	ErrInvalidFunctionName = errors.New("function name must not contain " + MarkerSeparator)
	ErrEmptyBundlePath     = errors.New("bundle path is empty")
)

// =============================================================================
// Deployable Function
// =============================================================================

// DeployableFunction is a function declared in the manifest. It is immutable
// for the duration of one invocation.
type DeployableFunction struct {
	Name       string `toml:"name" yaml:"name" json:"name"`
	BundlePath string `toml:"bundle" yaml:"bundle" json:"bundle"`
}

// Validate checks that the function can be deployed and later identified by
// its ledger markers.
func (f DeployableFunction) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return ErrEmptyFunctionName
	}
	if strings.Contains(f.Name, MarkerSeparator) {
		return fmt.Errorf("%w: %q", ErrInvalidFunctionName, f.Name)
	}
	if strings.TrimSpace(f.BundlePath) == "" {
		return fmt.Errorf("%w: function %q", ErrEmptyBundlePath, f.Name)
	}
	return nil
}
