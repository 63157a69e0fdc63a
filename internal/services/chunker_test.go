package services

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitShortTextIsOnePassage(t *testing.T) {
	splitter := NewPassageSplitter()

	passages := splitter.Split("A single short paragraph.", 1000, 200)
	require.Len(t, passages, 1)
	assert.Equal(t, "A single short paragraph.", passages[0])
}

func TestSplitEmptyTextHasNoPassages(t *testing.T) {
	splitter := NewPassageSplitter()

	assert.Empty(t, splitter.Split("", 1000, 200))
	assert.Empty(t, splitter.Split("\n\n  \n\n", 1000, 200))
}

func TestSplitGroupsParagraphsUpToLimit(t *testing.T) {
	splitter := NewPassageSplitter()

	text := strings.Join([]string{
		strings.Repeat("alpha ", 30),
		strings.Repeat("beta ", 30),
		strings.Repeat("gamma ", 30),
	}, "\n\n")

	passages := splitter.Split(text, 200, 0)
	require.Greater(t, len(passages), 1)
	for _, passage := range passages {
		assert.LessOrEqual(t, utf8.RuneCountInString(passage), 200)
	}
}

func TestSplitBreaksOversizedParagraphAtSentences(t *testing.T) {
	splitter := NewPassageSplitter()

	var b strings.Builder
	for i := 0; i < 40; i++ {
		b.WriteString("This sentence pads out one very long paragraph. ")
	}

	passages := splitter.Split(b.String(), 300, 0)
	require.Greater(t, len(passages), 1)
	for _, passage := range passages {
		assert.NotEmpty(t, strings.TrimSpace(passage))
	}
}

func TestSplitCarriesOverlapBetweenPassages(t *testing.T) {
	splitter := NewPassageSplitter()

	text := strings.Repeat("first block content here ", 10) + "\n\n" + strings.Repeat("second block content here ", 10)

	passages := splitter.Split(text, 250, 50)
	require.Greater(t, len(passages), 1)

	// Each later passage starts with the tail of the one before it.
	tail := lastRunes(passages[0], 50)
	assert.True(t, strings.HasPrefix(passages[1], tail))
}
