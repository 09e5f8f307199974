// Package scaffold writes editable copies of the schema definition, display
// labels and environment settings so a deployment can customise them.
package scaffold

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dyluth/roster/internal/config"
	"github.com/dyluth/roster/internal/schema"
)

//go:embed templates/*
var templatesFS embed.FS

// Files written by Initialize, relative to the target directory.
const (
	SchemaFile = "entry.v1.yaml"
	LabelsFile = "labels.yaml"
	EnvFile    = "roster.env"
)

// FileInfo represents a file to be created during initialization
type FileInfo struct {
	Path        string
	Content     []byte
	Permissions os.FileMode
}

// Initialize writes the configuration files into dir, creating it if needed.
// If force is true, existing files are overwritten.
// Returns the paths written.
func Initialize(dir string, force bool) ([]string, error) {
	if !force {
		if err := CheckExisting(dir); err != nil {
			return nil, err
		}
	}

	files, err := getTemplateFiles(dir)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	paths := make([]string, 0, len(files))
	for _, file := range files {
		if err := os.WriteFile(file.Path, file.Content, file.Permissions); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", file.Path, err)
		}
		paths = append(paths, file.Path)
	}

	if err := validateCreatedFiles(dir); err != nil {
		return nil, err
	}

	return paths, nil
}

// getTemplateFiles reads and processes all template files
func getTemplateFiles(dir string) ([]FileInfo, error) {
	labels, err := templatesFS.ReadFile("templates/labels.yaml.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to read labels template: %w", err)
	}

	env, err := templatesFS.ReadFile("templates/roster.env.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to read env template: %w", err)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", dir, err)
	}
	env = []byte(strings.ReplaceAll(string(env), "{{dir}}", abs))

	return []FileInfo{
		{Path: filepath.Join(dir, SchemaFile), Content: schema.DefaultSource(), Permissions: 0644},
		{Path: filepath.Join(dir, LabelsFile), Content: labels, Permissions: 0644},
		{Path: filepath.Join(dir, EnvFile), Content: env, Permissions: 0644},
	}, nil
}

// validateCreatedFiles loads the written files the way the server does.
func validateCreatedFiles(dir string) error {
	if _, err := schema.Load(filepath.Join(dir, SchemaFile)); err != nil {
		return fmt.Errorf("created %s is invalid: %w", SchemaFile, err)
	}
	if _, err := config.LoadLabels(filepath.Join(dir, LabelsFile)); err != nil {
		return fmt.Errorf("created %s is invalid: %w", LabelsFile, err)
	}
	return nil
}
