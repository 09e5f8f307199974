package scaffold

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCheckExisting(t *testing.T) {
	tests := []struct {
		name     string
		existing []string
		wantErr  bool
		errMsgs  []string
	}{
		{
			name: "no existing files",
		},
		{
			name:     "existing schema only",
			existing: []string{SchemaFile},
			wantErr:  true,
			errMsgs:  []string{"Found existing: entry.v1.yaml"},
		},
		{
			name:     "several existing files",
			existing: []string{LabelsFile, EnvFile},
			wantErr:  true,
			errMsgs:  []string{"  - labels.yaml", "  - roster.env", "roster init --force"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for _, name := range tt.existing {
				if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
					t.Fatal(err)
				}
			}

			err := CheckExisting(dir)

			if (err != nil) != tt.wantErr {
				t.Errorf("CheckExisting() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			for _, msg := range tt.errMsgs {
				if !strings.Contains(err.Error(), msg) {
					t.Errorf("CheckExisting() error = %q, want it to contain %q", err, msg)
				}
			}
		})
	}
}

func TestCheckExisting_MissingDirectory(t *testing.T) {
	if err := CheckExisting(filepath.Join(t.TempDir(), "absent")); err != nil {
		t.Errorf("CheckExisting() on a missing directory = %v, want nil", err)
	}
}
