// Package render projects registry entries into the client-facing payload,
// applying the redaction rule and the wire field name each client generation
// expects for position.
package render

import (
	"fmt"
	"strings"
)

// ProtocolVersion selects the wire convention a client renders.
// This is a domain primitive: only ParseProtocolVersion produces valid values.
type ProtocolVersion string

// Supported protocol versions.
const (
	// ProtocolLegacy is the first-generation client, which reads position as "guide"
	ProtocolLegacy ProtocolVersion = "legacy"

	// ProtocolCurrent is the current client, which reads position as "v1"
	ProtocolCurrent ProtocolVersion = "current"
)

// positionFields is the only mapping from protocol version to the wire name of position.
var positionFields = map[ProtocolVersion]string{
	ProtocolLegacy:  "guide",
	ProtocolCurrent: "v1",
}

// UnsupportedProtocolVersionError is returned for a version this build does not know.
// Rendering fails closed rather than guess a field name.
type UnsupportedProtocolVersionError struct {
	Version string
}

func (e *UnsupportedProtocolVersionError) Error() string {
	return fmt.Sprintf("unsupported protocol version: %q (supported: %s)", e.Version, strings.Join(supportedNames(), ", "))
}

// ParseProtocolVersion validates and returns a ProtocolVersion.
func ParseProtocolVersion(s string) (ProtocolVersion, error) {
	v := ProtocolVersion(s)
	if _, ok := positionFields[v]; !ok {
		return "", &UnsupportedProtocolVersionError{Version: s}
	}
	return v, nil
}

// DefaultVersion is served when a client does not ask for a version.
func DefaultVersion() ProtocolVersion {
	return ProtocolCurrent
}

// SupportedVersions returns all currently supported protocol versions.
func SupportedVersions() []ProtocolVersion {
	return []ProtocolVersion{ProtocolLegacy, ProtocolCurrent}
}

// String returns the string representation of the protocol version.
func (v ProtocolVersion) String() string {
	return string(v)
}

// PositionField returns the wire name for position under this version.
func (v ProtocolVersion) PositionField() (string, error) {
	field, ok := positionFields[v]
	if !ok {
		return "", &UnsupportedProtocolVersionError{Version: string(v)}
	}
	return field, nil
}

func supportedNames() []string {
	names := make([]string, 0, len(positionFields))
	for _, v := range SupportedVersions() {
		names = append(names, v.String())
	}
	return names
}
