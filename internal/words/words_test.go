package words

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/party-room/internal/testutil"
)

func TestParsePair(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		a, b    string
		wantErr bool
	}{
		{name: "plain", input: `["ทะเล", "น้ำตก"]`, a: "ทะเล", b: "น้ำตก"},
		{name: "fenced", input: "```json\n[\"cat\", \"tiger\"]\n```", a: "cat", b: "tiger"},
		{name: "trims", input: `[" cat ", "tiger"]`, a: "cat", b: "tiger"},
		{name: "empty", input: "  ", wantErr: true},
		{name: "three words", input: `["a","b","c"]`, wantErr: true},
		{name: "same word", input: `["a","a"]`, wantErr: true},
		{name: "blank word", input: `["a",""]`, wantErr: true},
		{name: "prose", input: `Sure! Here you go`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			a, b, err := ParsePair(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.a, a)
			assert.Equal(t, tt.b, b)
		})
	}
}

func TestParseTrait(t *testing.T) {
	t.Parallel()

	w, err := ParseTrait("  \"ขี้เซา\"\nextra line")
	require.NoError(t, err)
	assert.Equal(t, "ขี้เซา", w)

	_, err = ParseTrait("```\n```")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestBank(t *testing.T) {
	t.Parallel()

	b := NewBank(rand.New(rand.NewPCG(1, 2)))
	for _, c := range append(b.Categories(), "unknown category") {
		a, w, err := b.WordPair(context.Background(), c)
		require.NoError(t, err)
		assert.NotEmpty(t, a)
		assert.NotEmpty(t, w)
		assert.NotEqual(t, a, w)
	}

	trait, err := b.TraitWord(context.Background())
	require.NoError(t, err)
	assert.Contains(t, builtinTraits, trait)
}

func TestService_Generated(t *testing.T) {
	t.Parallel()

	gen := &testutil.StubGenerator{Pair: [2]string{"sea", "waterfall"}, Trait: "sleepy"}
	s := NewService(gen, Options{Timeout: time.Second})

	pair := s.WordPair(context.Background(), "places")
	assert.Equal(t, SourceGenerated, pair.Source)
	assert.ElementsMatch(t, []string{"sea", "waterfall"}, pair.Value[:])
	assert.NoError(t, pair.Err)

	trait := s.TraitWord(context.Background())
	assert.Equal(t, SourceGenerated, trait.Source)
	assert.Equal(t, "sleepy", trait.Value)
	assert.Equal(t, 2, gen.Calls())
}

func TestService_FallbackOnError(t *testing.T) {
	t.Parallel()

	gen := &testutil.StubGenerator{Err: errors.New("quota exceeded")}
	s := NewService(gen, Options{})

	pair := s.WordPair(context.Background(), "places")
	assert.Equal(t, SourceFallback, pair.Source)
	assert.Equal(t, [2]string{DefaultFallbackA, DefaultFallbackB}, pair.Value)
	assert.Error(t, pair.Err)

	trait := s.TraitWord(context.Background())
	assert.Equal(t, SourceFallback, trait.Source)
	assert.Equal(t, DefaultFallbackTrait, trait.Value)
	assert.Equal(t, "fallback", trait.Source.String())
}

func TestService_FallbackOnEmptyValues(t *testing.T) {
	t.Parallel()

	s := NewService(&testutil.StubGenerator{}, Options{
		FallbackPair:  [2]string{"x", "y"},
		FallbackTrait: "z",
	})

	assert.Equal(t, [2]string{"x", "y"}, s.WordPair(context.Background(), "").Value)
	assert.Equal(t, "z", s.TraitWord(context.Background()).Value)
}

type blockingGenerator struct{}

func (blockingGenerator) WordPair(context.Context, string) (string, string, error) {
	time.Sleep(time.Second)
	return "late", "late", nil
}

func (blockingGenerator) TraitWord(ctx context.Context) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

type panickingGenerator struct{}

func (panickingGenerator) WordPair(context.Context, string) (string, string, error) {
	panic("bad response")
}

func (panickingGenerator) TraitWord(context.Context) (string, error) {
	panic("bad response")
}

func TestService_FallbackOnTimeout(t *testing.T) {
	t.Parallel()

	s := NewService(blockingGenerator{}, Options{Timeout: 20 * time.Millisecond})

	start := time.Now()
	pair := s.WordPair(context.Background(), "places")
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, SourceFallback, pair.Source)
	assert.ErrorIs(t, pair.Err, context.DeadlineExceeded)

	trait := s.TraitWord(context.Background())
	assert.Equal(t, SourceFallback, trait.Source)
}

func TestService_FallbackOnPanic(t *testing.T) {
	t.Parallel()

	s := NewService(panickingGenerator{}, Options{Timeout: time.Second})

	assert.Equal(t, SourceFallback, s.WordPair(context.Background(), "x").Source)
	assert.Equal(t, SourceFallback, s.TraitWord(context.Background()).Source)
}
