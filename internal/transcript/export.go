package transcript

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Document is the exported form of a finished interview.
type Document struct {
	SessionID       string        `json:"session_id" yaml:"session_id"`
	CurrentQuestion int           `json:"current_question" yaml:"current_question"`
	TotalQuestions  int           `json:"total_questions" yaml:"total_questions"`
	Elapsed         time.Duration `json:"elapsed" yaml:"elapsed"`
	Messages        []Message     `json:"messages" yaml:"messages"`
}

// History returns the role/content pairs the report endpoint expects.
func (d *Document) History() []Turn {
	turns := make([]Turn, 0, len(d.Messages))
	for _, m := range d.Messages {
		turns = append(turns, Turn{Role: string(m.Role), Content: m.Content})
	}
	return turns
}

type Turn struct {
	Role    string `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
}

// WriteFile dumps the document into dir as interview_<session>.<format>.
// An empty dir means the system temp directory.
func (d *Document) WriteFile(dir, format string) (string, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = FormatJSON
	}

	var (
		data []byte
		err  error
	)
	switch format {
	case FormatJSON:
		data, err = json.MarshalIndent(d, "", "  ")
	case FormatYAML:
		data, err = yaml.Marshal(d)
	default:
		return "", fmt.Errorf("unsupported transcript format: %s", format)
	}
	if err != nil {
		return "", fmt.Errorf("encode transcript: %w", err)
	}

	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	id := d.SessionID
	if id == "" {
		id = "unstarted"
	}
	name := filepath.Join(dir, fmt.Sprintf("interview_%s.%s", id, format))
	if err := os.WriteFile(name, data, 0o644); err != nil {
		return "", err
	}
	return name, nil
}

// ReadFile loads a document written by WriteFile. The format follows the
// file extension.
func ReadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc Document
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &doc)
	default:
		err = json.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, fmt.Errorf("decode transcript %s: %w", path, err)
	}
	return &doc, nil
}
