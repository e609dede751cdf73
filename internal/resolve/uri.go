// Package resolve locates query sources and input documents, and resolves
// base URIs against the working directory.
package resolve

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// ErrNoWorkingDir is returned when no working directory is available.
var ErrNoWorkingDir = errors.New("working directory unavailable")

// WorkingDirProvider supplies the directory that relative query sources are
// resolved against.
type WorkingDirProvider interface {
	WorkingDir() (string, error)
}

// WorkingDirFunc adapts a function to WorkingDirProvider.
type WorkingDirFunc func() (string, error)

func (f WorkingDirFunc) WorkingDir() (string, error) { return f() }

// OSWorkingDir reports the process working directory.
type OSWorkingDir struct{}

func (OSWorkingDir) WorkingDir() (string, error) {
	return os.Getwd()
}

// StaticWorkingDir always reports the same directory. An empty value reports
// ErrNoWorkingDir.
type StaticWorkingDir string

func (d StaticWorkingDir) WorkingDir() (string, error) {
	if d == "" {
		return "", ErrNoWorkingDir
	}
	return string(d), nil
}

var schemeRE = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.\-]+:`)

// HasScheme reports whether ref is an absolute URI. Single-letter schemes are
// treated as drive letters.
func HasScheme(ref string) bool {
	return schemeRE.MatchString(ref)
}

// BaseURI resolves ref against the directory wd and returns an absolute
// file URI.
func BaseURI(wd, ref string) (string, error) {
	if wd == "" {
		return "", ErrNoWorkingDir
	}
	dir := filepath.ToSlash(wd)
	if !strings.HasSuffix(dir, "/") {
		dir += "/"
	}
	if !strings.HasPrefix(dir, "/") {
		dir = "/" + dir
	}
	base := &url.URL{Scheme: "file", Path: dir}
	r, err := parseRef(ref)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(r).String(), nil
}

// ResolveURI resolves ref against base. A ref that is already absolute is
// returned unchanged.
func ResolveURI(base, ref string) (string, error) {
	if HasScheme(ref) {
		return ref, nil
	}
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base URI %q: %w", base, err)
	}
	r, err := parseRef(ref)
	if err != nil {
		return "", err
	}
	return b.ResolveReference(r).String(), nil
}

// FileURI returns the file URI for path, made absolute first.
func FileURI(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	p := filepath.ToSlash(path)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return (&url.URL{Scheme: "file", Path: p}).String()
}

// PathFromURI returns the filesystem path a file URI or plain path names.
func PathFromURI(ref string) (string, error) {
	if !HasScheme(ref) {
		return ref, nil
	}
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parse URI %q: %w", ref, err)
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("unsupported URI scheme %q in %q", u.Scheme, ref)
	}
	return filepath.FromSlash(u.Path), nil
}

func parseRef(ref string) (*url.URL, error) {
	if HasScheme(ref) {
		u, err := url.Parse(ref)
		if err != nil {
			return nil, fmt.Errorf("parse URI %q: %w", ref, err)
		}
		return u, nil
	}
	return &url.URL{Path: filepath.ToSlash(ref)}, nil
}

// ReadSource reads a query document named by a path or file URI. It returns
// the filename used for diagnostics together with the contents.
func ReadSource(ref string) (string, []byte, error) {
	path, err := PathFromURI(ref)
	if err != nil {
		return ref, nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return path, nil, err
	}
	return path, data, nil
}
