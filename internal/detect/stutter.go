package detect

import (
	"strings"
	"unicode"

	"github.com/mgpai22/fillercut/internal/transcript"
)

// DefaultStutterGapMs is the largest silence, exclusive, between two equal
// words that still counts as a stutter.
const DefaultStutterGapMs = 200

// NormalizeStutter keeps letters, digits and hyphens, lower-cased.
func NormalizeStutter(text string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' {
			return unicode.ToLower(r)
		}
		return -1
	}, text)
}

// StutterClassifier flags a word immediately repeated by the next one.
// The first of the pair is flagged; the repetition is what stays.
type StutterClassifier struct {
	GapMs int // DefaultStutterGapMs when zero
}

func (c StutterClassifier) Classify(words []transcript.Word, i int) (string, bool) {
	if i+1 >= len(words) {
		return "", false
	}
	a, b := words[i], words[i+1]

	cleanA := NormalizeStutter(a.Text)
	if Excluded(cleanA) {
		return "", false
	}
	if cleanA == "" || cleanA != NormalizeStutter(b.Text) {
		return "", false
	}

	gap := c.GapMs
	if gap == 0 {
		gap = DefaultStutterGapMs
	}
	if b.StartMs-a.EndMs >= gap {
		return "", false
	}
	return "STUTTER: " + cleanA, true
}

// FindStutters returns the first word of every quickly repeated pair.
func FindStutters(words []transcript.Word) []Detection {
	return Run(words, KindStutter, StutterClassifier{})
}
