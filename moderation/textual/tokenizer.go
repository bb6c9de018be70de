package textual

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// WordPieceTokenizer is a minimal BERT-style tokenizer: whitespace split,
// lower-casing, greedy longest-match subword lookup with "##" continuations.
// It only needs to be faithful enough to feed the toxicity net the same IDs
// its training tokenizer would produce for ordinary text.
type WordPieceTokenizer struct {
	vocab map[string]int64
	clsID int64
	sepID int64
	padID int64
	unkID int64
}

// LoadWordPieceTokenizer builds the tokenizer from a vocab.txt file, one
// token per line, line number = token ID.
func LoadWordPieceTokenizer(path string) (*WordPieceTokenizer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vocab: %w", err)
	}
	defer f.Close()

	vocab := make(map[string]int64)
	sc := bufio.NewScanner(f)
	var idx int64
	for sc.Scan() {
		token := strings.TrimSpace(sc.Text())
		if token == "" {
			continue
		}
		vocab[token] = idx
		idx++
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan vocab: %w", err)
	}

	return &WordPieceTokenizer{
		vocab: vocab,
		clsID: vocab["[CLS]"],
		sepID: vocab["[SEP]"],
		padID: vocab["[PAD]"],
		unkID: vocab["[UNK]"],
	}, nil
}

// Encode converts text into token IDs and an attention mask of length seqLen,
// truncating long inputs and padding short ones.
func (t *WordPieceTokenizer) Encode(text string, seqLen int) ([]int64, []int64) {
	if seqLen <= 0 {
		return nil, nil
	}

	tokens := []int64{t.clsID}
	for _, w := range strings.Fields(strings.ToLower(text)) {
		tokens = append(tokens, t.wordPiece(w)...)
		if len(tokens) >= seqLen-1 {
			tokens = tokens[:seqLen-1]
			break
		}
	}
	tokens = append(tokens, t.sepID)

	attn := make([]int64, seqLen)
	for i := 0; i < len(tokens); i++ {
		attn[i] = 1
	}
	for len(tokens) < seqLen {
		tokens = append(tokens, t.padID)
	}
	return tokens, attn
}

// wordPiece greedily matches the longest vocab entry at each position; a word
// with any unmatchable remainder collapses to a single [UNK].
func (t *WordPieceTokenizer) wordPiece(word string) []int64 {
	if id, ok := t.vocab[word]; ok {
		return []int64{id}
	}

	var pieces []int64
	start := 0
	for start < len(word) {
		matched := false
		for end := len(word); end > start; end-- {
			sub := word[start:end]
			if start > 0 {
				sub = "##" + sub
			}
			if id, ok := t.vocab[sub]; ok {
				pieces = append(pieces, id)
				start = end
				matched = true
				break
			}
		}
		if !matched {
			return []int64{t.unkID}
		}
	}
	return pieces
}
