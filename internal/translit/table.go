package translit

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// Table is a rule file.
type Table struct {
	Name        string `toml:"name" yaml:"name" json:"name"`
	Description string `toml:"description,omitempty" yaml:"description,omitempty" json:"description,omitempty"`
	Rules       []Rule `toml:"rule" yaml:"rule" json:"rule"`
}

// Rule maps one romanized pattern to its output.
type Rule struct {
	Find    string  `toml:"find" yaml:"find" json:"find"`
	Replace string  `toml:"replace" yaml:"replace" json:"replace"`
	Kind    string  `toml:"kind,omitempty" yaml:"kind,omitempty" json:"kind,omitempty"`
	Kar     *string `toml:"kar,omitempty" yaml:"kar,omitempty" json:"kar,omitempty"`
}

// Format is a rule file encoding.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ErrUnknownFormat is returned for rule files with an unrecognized extension.
var ErrUnknownFormat = errors.New("unknown rule file format")

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownFormat, path)
}

//go:embed default.toml
var defaultRules []byte

//go:embed schema.json
var schemaJSON []byte

// Default returns the built-in Bangla phonetic table.
func Default() *Table {
	t, err := Parse(defaultRules, FormatTOML)
	if err != nil {
		panic("translit: built-in rules: " + err.Error())
	}
	return t
}

// DefaultEngine compiles Default.
func DefaultEngine() *Engine {
	e, err := New(Default())
	if err != nil {
		panic("translit: built-in rules: " + err.Error())
	}
	return e
}

// Load reads and validates a rule file.
func Load(path string) (*Table, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	t, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// LoadEngine reads a rule file and compiles it. An empty path selects the
// built-in table.
func LoadEngine(path string) (*Engine, error) {
	if path == "" {
		return DefaultEngine(), nil
	}
	t, err := Load(path)
	if err != nil {
		return nil, err
	}
	return New(t)
}

// Parse decodes a rule document and validates it against the rule schema.
func Parse(data []byte, format Format) (*Table, error) {
	var raw any
	switch format {
	case FormatTOML:
		var m map[string]any
		if _, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&m); err != nil {
			return nil, fmt.Errorf("parse toml: %w", err)
		}
		raw = m
	case FormatYAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	case FormatJSON:
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}

	// Normalize to the JSON data model the validator expects.
	doc, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("normalize rules: %w", err)
	}
	var normalized any
	if err := json.Unmarshal(doc, &normalized); err != nil {
		return nil, fmt.Errorf("normalize rules: %w", err)
	}

	schema, err := compiledSchema()
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(normalized); err != nil {
		return nil, fmt.Errorf("invalid rules: %w", err)
	}

	var t Table
	if err := json.Unmarshal(doc, &t); err != nil {
		return nil, fmt.Errorf("decode rules: %w", err)
	}
	return &t, nil
}

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource("rules.json", bytes.NewReader(schemaJSON)); err != nil {
			schemaErr = fmt.Errorf("load rule schema: %w", err)
			return
		}
		schema, schemaErr = c.Compile("rules.json")
	})
	return schema, schemaErr
}

// Marshal encodes a table in the given format.
func Marshal(t *Table, format Format) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case FormatTOML:
		if err := toml.NewEncoder(&buf).Encode(t); err != nil {
			return nil, err
		}
	case FormatYAML:
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(t); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
	case FormatJSON:
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(t); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
	return buf.Bytes(), nil
}
