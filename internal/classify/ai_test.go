package classify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/knowledge-vault/constants"
)

type fakeCompleter struct {
	reply  string
	err    error
	block  bool
	prompt string
}

func (f *fakeCompleter) Name() string { return "fake" }

func (f *fakeCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	f.prompt = prompt
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.reply, f.err
}

func TestMatchCategory(t *testing.T) {
	cats := []string{"Mathematical Principles", "Ideas & Concepts", "Program Implementation"}
	tests := []struct {
		reply string
		want  string
		ok    bool
	}{
		{"Program Implementation", "Program Implementation", true},
		{"  \"Ideas & Concepts\".\n", "Ideas & Concepts", true},
		{"The answer is: mathematical principles", "Mathematical Principles", true},
		{"program", "Program Implementation", true},
		{"Cooking", "", false},
		{"   ", "", false},
	}
	for _, tt := range tests {
		got, ok := MatchCategory(tt.reply, cats)
		assert.Equal(t, tt.ok, ok, tt.reply)
		assert.Equal(t, tt.want, got, tt.reply)
	}
}

func TestBuildPromptTruncatesText(t *testing.T) {
	long := strings.Repeat("é", MaxPromptChars+50)
	p := BuildPrompt(long, []string{"A", "B"})
	assert.True(t, strings.HasPrefix(p, "Classify the following text into one of these categories: A, B\n\nText: "))
	assert.True(t, strings.HasSuffix(p, "\n\nRespond with only the category name, nothing else."))
	assert.Equal(t, MaxPromptChars, strings.Count(p, "é"))
}

func TestClassifyWithAI(t *testing.T) {
	fc := &fakeCompleter{reply: "program implementation"}
	e := newEngine(t, DefaultRules(), nil, WithArbiter(NewArbiter(fc, time.Second, nil)))

	res, ok := e.ClassifyWithAI(context.Background(), "some snippet")
	require.True(t, ok)
	assert.Equal(t, constants.ProgramImplementation, res.CategoryName)
	assert.Equal(t, AIConfidence, res.Confidence)
	assert.Equal(t, SourceAI, res.Source)
	assert.Contains(t, fc.prompt, strings.Join(constants.AsStringSlice(), ", "))
}

func TestAIDegradesToNoOpinion(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled", func(t *testing.T) {
		e := newEngine(t, DefaultRules(), nil)
		_, ok := e.ClassifyWithAI(ctx, "text")
		assert.False(t, ok)
		assert.False(t, e.AIEnabled())

		_, ok = NewArbiter(nil, 0, nil).Arbitrate(ctx, "text", []string{"A"})
		assert.False(t, ok)
	})

	t.Run("endpoint error", func(t *testing.T) {
		a := NewArbiter(&fakeCompleter{err: errors.New("503 service unavailable")}, time.Second, nil)
		_, ok := a.Arbitrate(ctx, "text", []string{"A"})
		assert.False(t, ok)
	})

	t.Run("timeout", func(t *testing.T) {
		a := NewArbiter(&fakeCompleter{block: true}, 20*time.Millisecond, nil)
		start := time.Now()
		_, ok := a.Arbitrate(ctx, "text", []string{"A"})
		assert.False(t, ok)
		assert.Less(t, time.Since(start), 2*time.Second)
	})

	t.Run("unknown category", func(t *testing.T) {
		a := NewArbiter(&fakeCompleter{reply: "Gardening"}, time.Second, nil)
		_, ok := a.Arbitrate(ctx, "text", []string{"Cooking"})
		assert.False(t, ok)
	})
}
