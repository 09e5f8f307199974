package scaffold

import (
	"fmt"
	"os"
	"path/filepath"
)

// CheckExisting returns an error naming every file Initialize would
// overwrite in dir, or nil if there are none.
func CheckExisting(dir string) error {
	var existingFiles []string

	for _, name := range []string{SchemaFile, LabelsFile, EnvFile} {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			existingFiles = append(existingFiles, name)
		}
	}

	if len(existingFiles) > 0 {
		errMsg := "configuration already initialized\n\nFound existing"
		if len(existingFiles) == 1 {
			errMsg += fmt.Sprintf(": %s\n", existingFiles[0])
		} else {
			errMsg += " files:\n"
			for _, file := range existingFiles {
				errMsg += fmt.Sprintf("  - %s\n", file)
			}
		}
		errMsg += "\nUse 'roster init --force' to overwrite them"

		return fmt.Errorf("%s", errMsg)
	}

	return nil
}
