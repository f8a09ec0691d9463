// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package component

import (
	"fmt"

	"github.com/z5labs/otelcompose/config/key"
)

// DuplicateRegistrationError occurs when a provider is registered
// under a (category, name) pair which already has a provider.
type DuplicateRegistrationError struct {
	Category Category
	Name     string
}

// Error implements the error interface.
func (e DuplicateRegistrationError) Error() string {
	return fmt.Sprintf("component already registered: %s/%s", e.Category, e.Name)
}

// ComponentNotFoundError occurs when configuration references
// a component which has not been registered.
type ComponentNotFoundError struct {
	Category Category
	Name     string
	Path     key.Chain
}

// Error implements the error interface.
func (e ComponentNotFoundError) Error() string {
	if len(e.Path) == 0 {
		return fmt.Sprintf("component not found: %s/%s", e.Category, e.Name)
	}
	return fmt.Sprintf("component not found: %s/%s referenced at %s", e.Category, e.Name, e.Path.Key())
}

// InvalidComponentConfigError occurs when a configuration node
// does not have the shape required to resolve components from it.
type InvalidComponentConfigError struct {
	Category Category
	Path     key.Chain
	Reason   string
}

// Error implements the error interface.
func (e InvalidComponentConfigError) Error() string {
	return fmt.Sprintf("invalid %s config at %s: %s", e.Category, e.Path.Key(), e.Reason)
}

// CreateError wraps a failure returned by a component factory.
type CreateError struct {
	Category Category
	Name     string
	Path     key.Chain
	Cause    error
}

// Error implements the error interface.
func (e CreateError) Error() string {
	return fmt.Sprintf("failed to create %s/%s at %s: %s", e.Category, e.Name, e.Path.Key(), e.Cause)
}

// Unwrap implements the implicit interface for usage with errors.Is and errors.As.
func (e CreateError) Unwrap() error {
	return e.Cause
}

// UnexpectedComponentTypeError occurs when a factory returns an
// instance which is not of the type its category requires.
type UnexpectedComponentTypeError struct {
	Category Category
	Name     string
	Expected string
	Actual   any
}

// Error implements the error interface.
func (e UnexpectedComponentTypeError) Error() string {
	return fmt.Sprintf("component %s/%s must be a %s but got: %T", e.Category, e.Name, e.Expected, e.Actual)
}

// MaxResolveDepthError occurs when components resolve each other
// deeper than allowed, which usually means they form a cycle.
type MaxResolveDepthError struct {
	Category Category
	Name     string
	Depth    int
}

// Error implements the error interface.
func (e MaxResolveDepthError) Error() string {
	return fmt.Sprintf("max resolve depth of %d exceeded while resolving %s/%s", e.Depth, e.Category, e.Name)
}
