package bank

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"

	"ecoquest-service/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed quizzes.yaml
var defaultAsset []byte

type document struct {
	Quizzes []domain.Quiz `yaml:"quizzes"`
}

// Bank is the read-only question bank, kept in asset order.
type Bank struct {
	quizzes []domain.Quiz
}

// Default returns the bank shipped with the binary.
func Default() (*Bank, error) {
	return Parse(bytes.NewReader(defaultAsset))
}

// Load reads a bank from path, or the embedded default when path is empty.
func Load(path string) (*Bank, error) {
	if path == "" {
		return Default()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open question bank: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes and validates a YAML bank. Unknown fields and duplicate ids are rejected.
func Parse(r io.Reader) (*Bank, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode question bank: %w", err)
	}

	seen := make(map[string]struct{}, len(doc.Quizzes))
	for _, q := range doc.Quizzes {
		if err := q.Validate(); err != nil {
			return nil, err
		}
		if _, dup := seen[q.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %s", domain.ErrInvalidQuiz, q.ID)
		}
		seen[q.ID] = struct{}{}
	}
	return &Bank{quizzes: doc.Quizzes}, nil
}

// Quizzes returns the bank contents in asset order.
func (b *Bank) Quizzes() []domain.Quiz {
	return append([]domain.Quiz(nil), b.quizzes...)
}
