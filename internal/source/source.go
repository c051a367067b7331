// Package source resolves configuration text that may be given inline or in a
// file, such as the welcome guidelines or a job description.
package source

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/spigell/interview-practice/internal/backend"
)

// Source describes where a piece of text comes from.
type Source struct {
	// Name is used in error messages.
	Name string
	// Value is inline text from configuration or flags.
	Value string
	// File takes precedence over Value when set.
	File string
}

// Load returns the trimmed text. An empty result is not an error; callers
// decide whether the text is required.
func Load(src Source) (string, error) {
	name := strings.TrimSpace(src.Name)
	if name == "" {
		name = "text"
	}

	if file := strings.TrimSpace(src.File); file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading %s from file %q: %w", name, file, err)
		}
		return strings.TrimSpace(string(data)), nil
	}

	return strings.TrimSpace(src.Value), nil
}

// Require is Load for text that must be present.
func Require(src Source) (string, error) {
	text, err := Load(src)
	if err != nil {
		return "", err
	}
	if text == "" {
		name := strings.TrimSpace(src.Name)
		if name == "" {
			name = "text"
		}
		if src.File != "" {
			return "", fmt.Errorf("%s file %q is empty", name, src.File)
		}
		return "", fmt.Errorf("%s is not configured", name)
	}
	return text, nil
}

// JobDescription reads an inline job description from a YAML (or JSON) file.
func JobDescription(file string) (*backend.JobDescription, error) {
	text, err := Require(Source{Name: "job description", File: file})
	if err != nil {
		return nil, err
	}

	var jd backend.JobDescription
	if err := yaml.Unmarshal([]byte(text), &jd); err != nil {
		return nil, fmt.Errorf("parsing job description %q: %w", file, err)
	}
	if strings.TrimSpace(jd.Title) == "" {
		return nil, fmt.Errorf("job description %q has no title", file)
	}
	return &jd, nil
}
