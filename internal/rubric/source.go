package rubric

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sync"
)

//go:embed rubric.yaml
var defaultDocument []byte

// Source supplies a raw rubric document.
type Source interface {
	// Name identifies the source in errors and logs.
	Name() string
	Read(ctx context.Context) ([]byte, error)
}

// FileSource reads a rubric from the local filesystem.
type FileSource struct {
	Path string
}

func (s FileSource) Name() string { return s.Path }

func (s FileSource) Read(_ context.Context) ([]byte, error) {
	return os.ReadFile(s.Path)
}

// BytesSource serves an in-memory document.
type BytesSource struct {
	Label string
	Data  []byte
}

func (s BytesSource) Name() string { return s.Label }

func (s BytesSource) Read(_ context.Context) ([]byte, error) {
	if len(s.Data) == 0 {
		return nil, errors.New("empty document")
	}
	return s.Data, nil
}

// DefaultSource returns the rubric compiled into the binary.
func DefaultSource() Source {
	return BytesSource{Label: "embedded:rubric.yaml", Data: defaultDocument}
}

// Load reads and parses a rubric from src. Every failure is a *ConfigError
// carrying the source name.
func Load(ctx context.Context, src Source) (*Rubric, error) {
	data, err := src.Read(ctx)
	if err != nil {
		return nil, &ConfigError{Source: src.Name(), Err: fmt.Errorf("read: %w", err)}
	}
	r, err := Parse(data)
	if err != nil {
		var ce *ConfigError
		if errors.As(err, &ce) {
			ce.Source = src.Name()
			return nil, ce
		}
		return nil, &ConfigError{Source: src.Name(), Err: err}
	}
	return r, nil
}

var loadDefault = sync.OnceValues(func() (*Rubric, error) {
	return Load(context.Background(), DefaultSource())
})

// Default returns the embedded rubric, parsed once per process.
func Default() (*Rubric, error) {
	return loadDefault()
}
