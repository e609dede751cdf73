// Package sink delivers evaluation results: either discarded after being
// fully computed, or serialized to a file or standard output.
package sink

import (
	"io"
	"log/slog"
	"os"

	"github.com/roach88/xqbatch/internal/diag"
	"github.com/roach88/xqbatch/internal/item"
	"github.com/roach88/xqbatch/internal/serialize"
)

// Sink consumes result sequences.
type Sink interface {
	// Emit consumes seq completely and returns the number of items read.
	Emit(seq item.Sequence) (int, error)
	Close() error
}

// Quiet drains sequences and discards the items. Draining forces lazy
// results to be fully evaluated.
type Quiet struct{}

// NewQuiet creates a discarding sink.
func NewQuiet() *Quiet {
	return &Quiet{}
}

func (*Quiet) Emit(seq item.Sequence) (int, error) {
	n := 0
	for seq.Next() {
		n++
	}
	return n, seq.Err()
}

func (*Quiet) Close() error { return nil }

// Serializing writes items as XML. The destination is opened on the first
// Emit and stays open until Close, so a file is truncated once per batch.
type Serializing struct {
	path   string
	stdout io.Writer
	logger *slog.Logger

	file    *os.File
	handler serialize.Handler
}

// NewFile creates a sink writing to the file at path.
func NewFile(path string, logger *slog.Logger) *Serializing {
	if logger == nil {
		logger = slog.Default()
	}
	return &Serializing{path: path, logger: logger}
}

// NewWriter creates a sink writing to w, typically standard output.
func NewWriter(w io.Writer, logger *slog.Logger) *Serializing {
	if logger == nil {
		logger = slog.Default()
	}
	return &Serializing{stdout: w, logger: logger}
}

func (s *Serializing) open() error {
	if s.handler != nil {
		return nil
	}
	w := s.stdout
	if s.path != "" {
		f, err := os.Create(s.path)
		if err != nil {
			return diag.Wrap(diag.Location{File: s.path}, err)
		}
		s.file = f
		w = f
		s.logger.Debug("output opened", "path", s.path)
	}
	s.handler = serialize.NewNSFixup(serialize.NewSerializer(w))
	return nil
}

// Emit serializes every item of seq. Whatever was serialized before a
// failure is flushed.
func (s *Serializing) Emit(seq item.Sequence) (n int, err error) {
	if err := s.open(); err != nil {
		return 0, err
	}
	defer func() {
		if ferr := s.handler.Flush(); ferr != nil && err == nil {
			err = ferr
		}
	}()

	for seq.Next() {
		if err := serialize.Emit(s.handler, seq.Item()); err != nil {
			return n, err
		}
		n++
	}
	return n, seq.Err()
}

// Close releases the output file, if one was opened.
func (s *Serializing) Close() error {
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	s.handler = nil
	s.logger.Debug("output closed", "path", s.path)
	return err
}
