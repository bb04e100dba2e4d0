// Package ingest imports crawler output into the program store
package ingest

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Format is the encoding of an import file
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat parses a format name
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown import format: %s (want json or yaml)", s)
	}
}

// FormatFromPath infers the format from a file extension
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", fmt.Errorf("cannot infer import format of %s", path)
	}
	return ParseFormat(ext)
}

// Record is one announcement as written by the crawlers. Structured
// departments and grades take precedence over their free-text forms.
type Record struct {
	Title             string   `json:"title" yaml:"title"`
	Link              string   `json:"link" yaml:"link"`
	Content           string   `json:"content" yaml:"content"`
	Source            string   `json:"source" yaml:"source"`
	Categories        []string `json:"categories" yaml:"categories"`
	Departments       []string `json:"departments" yaml:"departments"`
	Grades            []int    `json:"grades" yaml:"grades"`
	TargetDepartment  string   `json:"target_department" yaml:"target_department"`
	TargetGrade       string   `json:"target_grade" yaml:"target_grade"`
	ApplicationStart  string   `json:"application_start" yaml:"application_start"`
	ApplicationEnd    string   `json:"application_end" yaml:"application_end"`
	ApplicationPeriod string   `json:"application_period" yaml:"application_period"` // "2025-11-07 10:00:00 ~ 2025-11-14 23:59:00"
	PostedDate        string   `json:"posted_date" yaml:"posted_date"`
}

// Decode reads an array of records
func Decode(r io.Reader, format Format) ([]Record, error) {
	var records []Record

	switch format {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&records); err != nil {
			return nil, fmt.Errorf("failed to decode JSON records: %w", err)
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&records); err != nil {
			if errors.Is(err, io.EOF) {
				return []Record{}, nil
			}
			return nil, fmt.Errorf("failed to decode YAML records: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown import format: %s", format)
	}

	if records == nil {
		records = []Record{}
	}
	return records, nil
}

// ReadFile reads records from path, inferring the format from its extension
func ReadFile(path string) ([]Record, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open import file: %w", err)
	}
	defer f.Close()

	return Decode(f, format)
}
