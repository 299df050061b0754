package pipeline

import "github.com/ymylive/translator/mask"

// Unit is one extracted string carried through the pipeline: the original
// text as it appears in the project, its masked form, and the tokens
// needed to undo the masking after translation.
type Unit struct {
	Original string
	Masked   string
	Tokens   []mask.Token
}

// NewUnit masks text and wraps it as a pipeline unit.
func NewUnit(text string) Unit {
	masked, tokens := mask.Apply(text)
	return Unit{Original: text, Masked: masked, Tokens: tokens}
}

// Batch is one group of units sent to a backend in a single request.
type Batch []Unit

// chars returns the batch's request payload size, measured on the masked
// text since that is what goes over the wire.
func (b Batch) chars() int {
	n := 0
	for _, u := range b {
		n += len(u.Masked)
	}
	return n
}

// SplitBatches packs units greedily into batches of at most maxCount units
// and maxChars masked characters. A single unit longer than maxChars still
// forms its own batch; it is never dropped. Order is preserved.
func SplitBatches(units []Unit, maxCount, maxChars int) []Batch {
	if maxCount <= 0 {
		maxCount = 1
	}
	var (
		batches []Batch
		cur     Batch
		chars   int
	)
	for _, u := range units {
		overCount := len(cur) >= maxCount
		overChars := maxChars > 0 && len(cur) > 0 && chars+len(u.Masked) > maxChars
		if overCount || overChars {
			batches = append(batches, cur)
			cur, chars = nil, 0
		}
		cur = append(cur, u)
		chars += len(u.Masked)
	}
	if len(cur) > 0 {
		batches = append(batches, cur)
	}
	return batches
}

// bisect splits a failing batch into two halves for retry. The caller
// guarantees len(b) >= 2.
func bisect(b Batch) (Batch, Batch) {
	mid := len(b) / 2
	return b[:mid], b[mid:]
}
