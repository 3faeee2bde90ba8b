package record

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/mvp-joe/docharvest/internal/atomicfile"
)

// Format is an on-disk encoding of the interchange record.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

var (
	// ErrUnsupportedFormat indicates a record path with an unknown extension.
	ErrUnsupportedFormat = errors.New("unsupported record format")
)

// FormatFor picks the encoding from the file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", errors.WithHint(
			errors.Wrapf(ErrUnsupportedFormat, "%s", path),
			"use a .json, .yaml or .yml extension for the record path")
	}
}

// Encode serialises the record. JSON output is indented with two spaces,
// does not escape HTML characters and ends with a newline, so the same record
// always encodes to the same bytes.
func Encode(rec *HarvestRecord, format Format) ([]byte, error) {
	normalized := *rec
	normalized.normalize()
	rec = &normalized

	switch format {
	case FormatJSON:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rec); err != nil {
			return nil, errors.Wrap(err, "failed to encode record as JSON")
		}
		return buf.Bytes(), nil
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(rec); err != nil {
			return nil, errors.Wrap(err, "failed to encode record as YAML")
		}
		if err := enc.Close(); err != nil {
			return nil, errors.Wrap(err, "failed to flush YAML encoder")
		}
		return buf.Bytes(), nil
	default:
		return nil, errors.Wrapf(ErrUnsupportedFormat, "%q", format)
	}
}

// legacyRecord covers files written by the original python_docs.json
// harvester, which used python_version and math_module.
type legacyRecord struct {
	PythonVersion string           `json:"python_version"`
	MathModule    []CompletionItem `json:"math_module"`
}

// Decode parses a record in the given format.
func Decode(data []byte, format Format) (*HarvestRecord, error) {
	rec := &HarvestRecord{}

	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, rec); err != nil {
			return nil, errors.Wrap(err, "failed to decode JSON record")
		}
		if rec.RuntimeVersion == "" {
			var legacy legacyRecord
			if err := json.Unmarshal(data, &legacy); err == nil && legacy.PythonVersion != "" {
				rec.RuntimeVersion = legacy.PythonVersion
				if rec.ModuleCompletions == nil {
					rec.ModuleCompletions = legacy.MathModule
					rec.Module = "math"
				}
			}
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, rec); err != nil {
			return nil, errors.Wrap(err, "failed to decode YAML record")
		}
	default:
		return nil, errors.Wrapf(ErrUnsupportedFormat, "%q", format)
	}

	rec.normalize()
	if rec.Module == "" {
		rec.Module = inferModule(rec.ModuleCompletions)
	}
	return rec, nil
}

// inferModule recovers the module name from qualified item names ("math.pi").
func inferModule(items []CompletionItem) string {
	for _, item := range items {
		if i := strings.Index(item.Name, "."); i > 0 {
			return item.Name[:i]
		}
	}
	return ""
}

// Load reads a record from disk. Any failure here is fatal for the caller.
func Load(path string) (*HarvestRecord, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read record %s", path)
	}

	rec, err := Decode(data, format)
	if err != nil {
		return nil, errors.Wrapf(err, "record %s", path)
	}
	return rec, nil
}

// Save writes the record atomically, replacing any previous record.
func Save(path string, rec *HarvestRecord) error {
	format, err := FormatFor(path)
	if err != nil {
		return err
	}

	data, err := Encode(rec, format)
	if err != nil {
		return err
	}

	if err := atomicfile.WriteFile(path, data); err != nil {
		return errors.Wrapf(err, "failed to write record %s", path)
	}
	return nil
}
