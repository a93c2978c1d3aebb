package domain

import (
	"errors"
	"fmt"
	"strings"
)

// MarkerSeparator splits a marker into function name and version.
const MarkerSeparator = "@"

var ErrInvalidMarker = errors.New("invalid version marker")

// VersionMarker is a ledger entry asserting that Version of FunctionName was
// deployed from the commit the marker points at. On disk it is the tag
// "name@version"; everywhere else it travels in this parsed form.
type VersionMarker struct {
	FunctionName string `json:"function_name"`
	Version      string `json:"version"`
}

// NewVersionMarker builds a marker, rejecting values that would not survive a
// round trip through ParseVersionMarker.
func NewVersionMarker(functionName, version string) (VersionMarker, error) {
	if functionName == "" || strings.Contains(functionName, MarkerSeparator) {
		return VersionMarker{}, fmt.Errorf("%w: function name %q", ErrInvalidMarker, functionName)
	}
	if version == "" {
		return VersionMarker{}, fmt.Errorf("%w: empty version for %q", ErrInvalidMarker, functionName)
	}
	return VersionMarker{FunctionName: functionName, Version: version}, nil
}

// ParseVersionMarker splits a tag name at the first separator. Tags without a
// separator, or with an empty side, are not markers.
func ParseVersionMarker(tag string) (VersionMarker, error) {
	name, version, ok := strings.Cut(tag, MarkerSeparator)
	if !ok || name == "" || version == "" {
		return VersionMarker{}, fmt.Errorf("%w: %q", ErrInvalidMarker, tag)
	}
	return VersionMarker{FunctionName: name, Version: version}, nil
}

// String returns the tag form "name@version".
func (m VersionMarker) String() string {
	return m.FunctionName + MarkerSeparator + m.Version
}
