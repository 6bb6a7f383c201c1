// Package schedule turns schedule documents into slot tables. A Document
// lists keyed entries; a Board keeps a live timeslot.Table in step with
// those entries the way a calendar keeps its grid in step with its records.
package schedule

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// Document errors.
var (
	ErrInvalidDocument = errors.New("invalid schedule document")
	ErrDuplicateKey    = errors.New("duplicate entry key")
	ErrEmptyKey        = errors.New("entry key is empty")
	ErrReversedEntry   = errors.New("entry ends before it starts")
)

//go:embed schema.json
var schemaJSON []byte

var schemaLoader = gojsonschema.NewBytesLoader(schemaJSON)

// Entry is one keyed record of a schedule. Key identifies the record across
// reloads; Label and Group are free-form display data.
type Entry struct {
	Key   string   `json:"key"             yaml:"key"`
	Label string   `json:"label,omitempty" yaml:"label,omitempty"`
	Group string   `json:"group,omitempty" yaml:"group,omitempty"`
	Start Position `json:"start"           yaml:"start"`
	End   Position `json:"end"             yaml:"end"`
}

// Document is a schedule file: an optional title and its entries.
type Document struct {
	Title string  `json:"title,omitempty" yaml:"title,omitempty"`
	Slots []Entry `json:"slots"           yaml:"slots"`
}

// SchemaError lists every schema violation found in a document.
type SchemaError struct {
	Problems []string
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	return fmt.Sprintf("%d schema violation(s): %s", len(e.Problems), strings.Join(e.Problems, "; "))
}

// Unwrap returns ErrInvalidDocument.
func (e *SchemaError) Unwrap() error {
	return ErrInvalidDocument
}

// Validate checks raw YAML or JSON against the schedule schema. Schema
// violations are reported as a *SchemaError; unparsable input wraps
// ErrInvalidDocument.
func Validate(raw []byte) error {
	var tree any

	err := yaml.Unmarshal(raw, &tree)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewGoLoader(tree))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, verr := range result.Errors() {
		problems = append(problems, verr.Field()+": "+verr.Description())
	}

	return &SchemaError{Problems: problems}
}

// Parse validates raw YAML or JSON and decodes it into a Document.
func Parse(raw []byte) (*Document, error) {
	err := Validate(raw)
	if err != nil {
		return nil, err
	}

	var doc Document

	err = yaml.Unmarshal(raw, &doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	err = doc.Check()
	if err != nil {
		return nil, err
	}

	return &doc, nil
}

// Load reads and parses a document from r.
func Load(r io.Reader) (*Document, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read schedule: %w", err)
	}

	return Parse(raw)
}

// LoadFile reads and parses a document from path; "-" reads stdin.
func LoadFile(path string) (*Document, error) {
	if path == "-" {
		return Load(os.Stdin)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schedule %s: %w", path, err)
	}

	doc, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return doc, nil
}

// Check enforces the rules the schema cannot express: unique keys and
// start <= end. Every problem is reported.
func (d *Document) Check() error {
	var errs []error

	seen := make(map[string]int, len(d.Slots))

	for i, e := range d.Slots {
		if err := e.Check(); err != nil {
			errs = append(errs, fmt.Errorf("slots[%d]: %w", i, err))
		}

		if first, dup := seen[e.Key]; dup {
			errs = append(errs, fmt.Errorf("slots[%d]: %w %q (first at slots[%d])", i, ErrDuplicateKey, e.Key, first))

			continue
		}

		seen[e.Key] = i
	}

	if len(errs) == 0 {
		return nil
	}

	return fmt.Errorf("%w: %w", ErrInvalidDocument, errors.Join(errs...))
}

// Check validates a single entry.
func (e Entry) Check() error {
	if e.Key == "" {
		return ErrEmptyKey
	}

	if e.End < e.Start {
		return fmt.Errorf("%w: %q [%d, %d)", ErrReversedEntry, e.Key, e.Start, e.End)
	}

	return nil
}

// Encode writes the document as YAML.
func (d *Document) Encode(w io.Writer) error {
	var buf bytes.Buffer

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)

	err := enc.Encode(d)
	if err != nil {
		return fmt.Errorf("encode schedule: %w", err)
	}

	err = enc.Close()
	if err != nil {
		return fmt.Errorf("encode schedule: %w", err)
	}

	_, err = w.Write(buf.Bytes())
	if err != nil {
		return fmt.Errorf("write schedule: %w", err)
	}

	return nil
}
