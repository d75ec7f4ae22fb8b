// Package nodename generates human-readable random node names of the form
// adjective-noun-NNNN.
package nodename

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"unicode/utf8"
)

const (
	// MaxLength is the exclusive upper bound on a name's character count.
	MaxLength = 64
	// MaxAttempts bounds the number of candidates drawn before giving up.
	MaxAttempts = 1000
)

// ErrNameGenerationExhausted is returned when no candidate fit within MaxAttempts.
var ErrNameGenerationExhausted = errors.New("node name generation exhausted")

// Source produces name candidates.
type Source func() string

// Generator draws candidates from Source until one is short enough.
type Generator struct {
	Source      Source
	MaxAttempts int
}

// New returns a Generator backed by the system's secure random source.
func New() *Generator {
	return &Generator{Source: Candidate, MaxAttempts: MaxAttempts}
}

// Generate returns the first candidate shorter than MaxLength characters.
func (g *Generator) Generate() (string, error) {
	src := g.Source
	if src == nil {
		src = Candidate
	}
	attempts := g.MaxAttempts
	if attempts <= 0 {
		attempts = MaxAttempts
	}

	for i := 0; i < attempts; i++ {
		name := src()
		if utf8.RuneCountInString(name) < MaxLength {
			return name, nil
		}
	}
	return "", fmt.Errorf("%w after %d attempts", ErrNameGenerationExhausted, attempts)
}

// Generate returns a random valid node name.
func Generate() (string, error) {
	return New().Generate()
}

// Candidate builds one adjective-noun-NNNN name. It panics if the system
// random source is unavailable.
func Candidate() string {
	return fmt.Sprintf("%s-%s-%04d",
		adjectives[randIndex(len(adjectives))],
		nouns[randIndex(len(nouns))],
		randIndex(10000),
	)
}

func randIndex(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic(fmt.Sprintf("secure random source unavailable: %v", err))
	}
	return int(v.Int64())
}
