package nodename

import (
	"regexp"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var namePattern = regexp.MustCompile(`^[a-z]+-[a-z]+-\d{4}$`)

func TestGenerate(t *testing.T) {
	for i := 0; i < 200; i++ {
		name, err := Generate()
		require.NoError(t, err)
		assert.Less(t, utf8.RuneCountInString(name), MaxLength)
		assert.Regexp(t, namePattern, name)
	}
}

func TestGeneratorRetriesLongCandidates(t *testing.T) {
	tests := []struct {
		name       string
		candidates []string
		want       string
	}{
		{
			name:       "first fits",
			candidates: []string{"short-name-0001"},
			want:       "short-name-0001",
		},
		{
			name:       "skips 64 chars",
			candidates: []string{strings.Repeat("a", 64), "ok-name-0002"},
			want:       "ok-name-0002",
		},
		{
			name:       "63 chars fits",
			candidates: []string{strings.Repeat("b", 63)},
			want:       strings.Repeat("b", 63),
		},
		{
			name:       "counts characters not bytes",
			candidates: []string{strings.Repeat("é", 63)},
			want:       strings.Repeat("é", 63),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			i := 0
			g := &Generator{Source: func() string {
				c := tt.candidates[i]
				i++
				return c
			}}
			got, err := g.Generate()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGeneratorExhausted(t *testing.T) {
	calls := 0
	g := &Generator{
		Source: func() string {
			calls++
			return strings.Repeat("x", 100)
		},
		MaxAttempts: 5,
	}

	_, err := g.Generate()
	require.ErrorIs(t, err, ErrNameGenerationExhausted)
	assert.Equal(t, 5, calls)
}

func TestGeneratorDefaultAttempts(t *testing.T) {
	calls := 0
	g := &Generator{Source: func() string {
		calls++
		return strings.Repeat("x", MaxLength)
	}}

	_, err := g.Generate()
	require.ErrorIs(t, err, ErrNameGenerationExhausted)
	assert.Equal(t, MaxAttempts, calls)
}

func TestWordListsAreLowercaseWords(t *testing.T) {
	word := regexp.MustCompile(`^[a-z]+$`)
	for _, w := range append(append([]string{}, adjectives...), nouns...) {
		assert.Regexp(t, word, w)
	}
}
