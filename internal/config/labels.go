package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dyluth/roster/pkg/roster"
)

// LabelsVersion is the only labels file version this build reads.
const LabelsVersion = "1.0"

// DefaultRedactionMarker is shown in place of a redacted entry's name and status.
const DefaultRedactionMarker = "[REDACTED]"

// labelsFile is the on-disk shape of the labels YAML.
type labelsFile struct {
	Version         string            `yaml:"version"`
	RedactionMarker string            `yaml:"redaction_marker,omitempty"`
	Statuses        map[string]string `yaml:"statuses,omitempty"`
}

// Labels maps statuses to display text for human-facing output. It is
// loaded once at startup and cannot be changed afterwards.
type Labels struct {
	marker   string
	statuses map[roster.Status]string
}

// DefaultLabels returns the built-in labels.
func DefaultLabels() *Labels {
	return &Labels{
		marker: DefaultRedactionMarker,
		statuses: map[roster.Status]string{
			roster.StatusActive:       "Active",
			roster.StatusDeceased:     "Deceased",
			roster.StatusIncarcerated: "Incarcerated",
			roster.StatusCaptured:     "Captured",
			roster.StatusRedacted:     "Redacted",
		},
	}
}

// Status returns the display label for s, or s itself when unknown.
func (l *Labels) Status(s roster.Status) string {
	if label, ok := l.statuses[s]; ok {
		return label
	}
	return string(s)
}

// RedactionMarker returns the text shown for redacted entries.
func (l *Labels) RedactionMarker() string {
	return l.marker
}

// Validate performs strict validation on the labels file
func (f *labelsFile) Validate() error {
	if f.Version != LabelsVersion {
		return fmt.Errorf("unsupported version: %s (expected: %s)", f.Version, LabelsVersion)
	}

	for key, label := range f.Statuses {
		if err := roster.Status(key).Validate(); err != nil {
			return fmt.Errorf("statuses: %w", err)
		}
		if label == "" {
			return fmt.Errorf("statuses: label for '%s' cannot be empty", key)
		}
	}

	return nil
}

// ParseLabels parses and validates labels YAML. Statuses the file does not
// mention keep their default label.
func ParseLabels(data []byte) (*Labels, error) {
	var f labelsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("invalid labels: %w", err)
	}

	labels := DefaultLabels()
	if f.RedactionMarker != "" {
		labels.marker = f.RedactionMarker
	}
	for key, label := range f.Statuses {
		labels.statuses[roster.Status(key)] = label
	}
	return labels, nil
}

// LoadLabels reads labels from path, or returns the defaults when path is empty.
func LoadLabels(path string) (*Labels, error) {
	if path == "" {
		return DefaultLabels(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read labels: %w", err)
	}
	return ParseLabels(data)
}
