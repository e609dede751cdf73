package resolve

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/xqbatch/internal/item"
)

// Resolver loads the document a reference names.
type Resolver interface {
	Resolve(ref, baseURI string) (item.Sequence, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ref, baseURI string) (item.Sequence, error)

func (f ResolverFunc) Resolve(ref, baseURI string) (item.Sequence, error) {
	return f(ref, baseURI)
}

// Format is an input document syntax.
type Format string

const (
	FormatXML  Format = "xml"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFor picks the format from the file extension. Unknown extensions
// are read as XML.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	default:
		return FormatXML
	}
}

// FileResolver loads documents from the local filesystem.
type FileResolver struct{}

// NewFileResolver creates a file resolver.
func NewFileResolver() *FileResolver {
	return &FileResolver{}
}

// Resolve loads ref. Relative references are resolved against baseURI when it
// is a file URI, and against the process working directory otherwise.
func (r *FileResolver) Resolve(ref, baseURI string) (item.Sequence, error) {
	path, err := r.Locate(ref, baseURI)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", ref, err)
	}
	defer f.Close()

	items, err := Decode(f, FormatFor(path))
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", ref, err)
	}
	return item.Slice(items...), nil
}

// Locate returns the filesystem path for ref.
func (r *FileResolver) Locate(ref, baseURI string) (string, error) {
	if HasScheme(ref) || filepath.IsAbs(ref) {
		return PathFromURI(ref)
	}
	if strings.HasPrefix(baseURI, "file:") {
		uri, err := ResolveURI(baseURI, ref)
		if err != nil {
			return "", err
		}
		return PathFromURI(uri)
	}
	return ref, nil
}

// Decode reads a document in the given format.
func Decode(r io.Reader, format Format) ([]item.Item, error) {
	switch format {
	case FormatJSON:
		return decodeJSON(r)
	case FormatYAML:
		return decodeYAML(r)
	case FormatTOML:
		return decodeTOML(r)
	case FormatXML:
		return decodeXML(r)
	default:
		return nil, fmt.Errorf("unsupported document format %q", format)
	}
}
