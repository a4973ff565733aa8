package config

import (
	_ "embed"
	"os"
	"path/filepath"
)

//go:embed config_template.yaml
var defaultConfigTemplate string

// WriteDefaultIfMissing writes the embedded default config to path when no
// file exists there yet, the same auto-provisioning idiom as the teacher's
// HeaderConfigLoader.EnsureConfigExists.
func WriteDefaultIfMissing(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, []byte(defaultConfigTemplate), 0o644)
}
