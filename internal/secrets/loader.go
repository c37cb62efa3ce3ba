// Package secrets resolves sensitive configuration values — the Gemini
// API key and the MongoDB connection string — from files or inline
// config, keeping them out of flags and checked-in YAML.
package secrets

import (
	"fmt"
	"os"
	"strings"
)

// Source points at one secret. File wins over Value when both are set.
// Name only shapes error messages.
type Source struct {
	Name  string
	Value string
	File  string
}

// Load resolves the source to a trimmed, non-empty secret value.
func Load(src Source) (string, error) {
	name := strings.TrimSpace(src.Name)
	if name == "" {
		name = "secret"
	}

	if file := strings.TrimSpace(src.File); file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading %s from file %q: %w", name, file, err)
		}
		secret := strings.TrimSpace(string(data))
		if secret == "" {
			return "", fmt.Errorf("%s file %q is empty", name, file)
		}
		return secret, nil
	}

	secret := strings.TrimSpace(src.Value)
	if secret == "" {
		return "", fmt.Errorf("%s is not configured", name)
	}
	return secret, nil
}
