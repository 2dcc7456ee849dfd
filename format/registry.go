package format

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// ErrUnknownFormat is returned when no registered format matches a name.
var ErrUnknownFormat = errors.New("unknown format")

// Registry holds registered formats.
type Registry struct {
	formats map[string]Format
}

// DefaultRegistry is the global format registry.
var DefaultRegistry = NewRegistry()

// NewRegistry creates a new format registry.
func NewRegistry() *Registry {
	return &Registry{
		formats: make(map[string]Format),
	}
}

// Register adds a format to the registry.
func (r *Registry) Register(f Format) {
	r.formats[strings.ToLower(f.Name())] = f
}

// Get retrieves a format by name.
func (r *Registry) Get(name string) (Format, bool) {
	f, ok := r.formats[strings.ToLower(name)]
	return f, ok
}

// GetParser retrieves a parser by name.
func (r *Registry) GetParser(name string) (Parser, error) {
	f, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w %q (parsers: %s)", ErrUnknownFormat, name, strings.Join(r.Parsers(), ", "))
	}
	p, ok := f.(Parser)
	if !ok {
		return nil, fmt.Errorf("format %s is output-only (parsers: %s)", name, strings.Join(r.Parsers(), ", "))
	}
	return p, nil
}

// GetSerializer retrieves a serializer by name.
func (r *Registry) GetSerializer(name string) (Serializer, error) {
	f, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w %q (serializers: %s)", ErrUnknownFormat, name, strings.Join(r.Serializers(), ", "))
	}
	s, ok := f.(Serializer)
	if !ok {
		return nil, fmt.Errorf("format %s does not support serialization", name)
	}
	return s, nil
}

// List returns all registered format names, sorted.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.formats))
	for name := range r.formats {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Parsers returns the sorted names of formats that can be read.
func (r *Registry) Parsers() []string {
	var names []string
	for _, name := range r.List() {
		if _, ok := r.formats[name].(Parser); ok {
			names = append(names, name)
		}
	}
	return names
}

// Serializers returns the sorted names of formats that can be written.
func (r *Registry) Serializers() []string {
	var names []string
	for _, name := range r.List() {
		if _, ok := r.formats[name].(Serializer); ok {
			names = append(names, name)
		}
	}
	return names
}

// DetectFormat picks a parser from the file extension, falling back to
// the content.
func (r *Registry) DetectFormat(filename string, peek []byte) (Parser, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if ext != "" {
		for _, name := range r.Parsers() {
			for _, fext := range r.formats[name].Extensions() {
				if ext == fext {
					return r.formats[name].(Parser), nil
				}
			}
		}
	}

	if len(bytes.TrimSpace(peek)) > 0 {
		return r.DetectFromContent(peek)
	}

	return nil, fmt.Errorf("could not detect format for %s", filename)
}

// DetectFromContent picks the first parser, in name order, that accepts peek.
func (r *Registry) DetectFromContent(peek []byte) (Parser, error) {
	peek = bytes.TrimSpace(peek)

	for _, name := range r.Parsers() {
		if f := r.formats[name]; f.CanParse(peek) {
			return f.(Parser), nil
		}
	}

	return nil, fmt.Errorf("could not detect format from content")
}

// Register adds a format to the default registry.
func Register(f Format) {
	DefaultRegistry.Register(f)
}

// Get retrieves a format from the default registry.
func Get(name string) (Format, bool) {
	return DefaultRegistry.Get(name)
}

// GetParser retrieves a parser from the default registry.
func GetParser(name string) (Parser, error) {
	return DefaultRegistry.GetParser(name)
}

// GetSerializer retrieves a serializer from the default registry.
func GetSerializer(name string) (Serializer, error) {
	return DefaultRegistry.GetSerializer(name)
}

// Serializers lists the writable formats of the default registry.
func Serializers() []string {
	return DefaultRegistry.Serializers()
}

// DetectFormat detects the input format using the default registry.
func DetectFormat(filename string, peek []byte) (Parser, error) {
	return DefaultRegistry.DetectFormat(filename, peek)
}
