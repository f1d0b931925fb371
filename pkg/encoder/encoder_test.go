package encoder

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wordTokenizer maps every whitespace-separated word to a stable fake ID
// starting above the special-token range.
type wordTokenizer struct {
	vocab map[string]int
}

func newWordTokenizer() *wordTokenizer {
	return &wordTokenizer{vocab: make(map[string]int)}
}

func (w *wordTokenizer) Encode(text string) []int {
	var ids []int
	for _, word := range strings.Fields(text) {
		id, ok := w.vocab[word]
		if !ok {
			id = 10 + len(w.vocab)
			w.vocab[word] = id
		}
		ids = append(ids, id)
	}
	return ids
}

func TestEncodePairsLayout(t *testing.T) {
	enc := New(newWordTokenizer(), DefaultConfig(32))

	batch, err := enc.EncodePairs([]string{"chess game"}, []string{"chess online"})
	require.NoError(t, err)

	require.Equal(t, 1, batch.Rows)
	// [CLS] chess game [SEP] chess online [SEP]
	require.Equal(t, 7, batch.Cols)
	assert.Equal(t, []int64{0, 10, 11, 2, 10, 12, 2}, batch.InputIDs)
	assert.Equal(t, []int64{1, 1, 1, 1, 1, 1, 1}, batch.AttentionMask)
}

func TestEncodePairsPadsToLongestRow(t *testing.T) {
	enc := New(newWordTokenizer(), DefaultConfig(32))

	batch, err := enc.EncodePairs(
		[]string{"a", "a b c d"},
		[]string{"x", "x y z"},
	)
	require.NoError(t, err)

	require.Equal(t, 2, batch.Rows)
	// Longest row: [CLS] a b c d [SEP] x y z [SEP] = 10 tokens.
	require.Equal(t, 10, batch.Cols)

	// Short row is padded with PadID and zero mask.
	short := batch.InputIDs[:10]
	mask := batch.AttentionMask[:10]
	assert.Equal(t, int64(1), short[5], "expected pad token after the short row ends")
	assert.Equal(t, int64(0), mask[5])
	assert.Equal(t, int64(1), mask[4], "closing separator must stay attended")
}

func TestEncodePairsTruncates(t *testing.T) {
	enc := New(newWordTokenizer(), DefaultConfig(8))

	long := strings.Repeat("word ", 50)
	batch, err := enc.EncodePairs([]string{long}, []string{long})
	require.NoError(t, err)

	require.Equal(t, 8, batch.Cols)
	assert.Equal(t, int64(0), batch.InputIDs[0], "row must keep its CLS")
	assert.Equal(t, int64(2), batch.InputIDs[7], "truncated row must end in SEP")
	for _, m := range batch.AttentionMask {
		assert.Equal(t, int64(1), m)
	}
}

func TestEncodePairsStripsTokenizerSpecials(t *testing.T) {
	// A tokenizer that wraps its output in CLS/SEP on its own; assembly must
	// not end up with doubled specials.
	tok := tokenizerFunc(func(text string) []int {
		return []int{0, 42, 2}
	})
	enc := New(tok, DefaultConfig(32))

	batch, err := enc.EncodePairs([]string{"q"}, []string{"t"})
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 42, 2, 42, 2}, batch.InputIDs)
}

func TestEncodePairsLengthMismatch(t *testing.T) {
	enc := New(newWordTokenizer(), DefaultConfig(32))
	_, err := enc.EncodePairs([]string{"a"}, []string{"x", "y"})
	require.Error(t, err)
}

type tokenizerFunc func(text string) []int

func (f tokenizerFunc) Encode(text string) []int { return f(text) }
