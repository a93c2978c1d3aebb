package domain

import (
	"regexp"
	"time"
)

// LatestAlias is the runtime's mutable pointer to unpublished code.
const LatestAlias = "$LATEST"

var numericVersion = regexp.MustCompile(`^[0-9]+$`)

// IsNumericVersion reports whether v is a generation id assigned by publish,
// as opposed to a symbolic alias such as $LATEST.
func IsNumericVersion(v string) bool {
	return numericVersion.MatchString(v)
}

// PublishedVersion is one version of a function as enumerated by the runtime.
type PublishedVersion struct {
	Version      string    `json:"version"`
	LastModified time.Time `json:"last_modified"`
}

// IsNumeric reports whether the version may be garbage collected at all.
func (v PublishedVersion) IsNumeric() bool {
	return IsNumericVersion(v.Version)
}

// PublishedFunction is what the runtime reports back after a publish.
type PublishedFunction struct {
	FunctionName string `json:"function_name"`
	Version      string `json:"version"`
	CodeSha256   string `json:"code_sha256,omitempty"`
}

// Marker returns the ledger entry that records this publish.
func (p PublishedFunction) Marker() (VersionMarker, error) {
	return NewVersionMarker(p.FunctionName, p.Version)
}
