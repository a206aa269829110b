package detect

import (
	"strings"
	"unicode"

	"github.com/mgpai22/fillercut/internal/transcript"
)

// DefaultFillers is the built-in filler list. It stays conservative so that
// short everyday words are never removed by accident.
var DefaultFillers = []string{
	"um", "uh", "er", "hmm", "mhm", "uh-huh", "um-hum", "umm", "uhh", "erm", "ooh",
}

// words never removed by the filler lookup or the stutter check
var exclusions = map[string]bool{
	"a":   true,
	"and": true,
	"the": true,
}

// Excluded reports whether a normalized word is protected from removal.
func Excluded(normalized string) bool {
	return exclusions[normalized]
}

// NormalizeFiller keeps letters and digits only, lower-cased.
func NormalizeFiller(text string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return -1
	}, text)
}

// ParseWordList splits a comma-separated override list into words.
// Blank entries are dropped; nil means the text held no words.
func ParseWordList(text string) []string {
	var words []string
	for _, part := range strings.Split(text, ",") {
		if w := strings.ToLower(strings.TrimSpace(part)); w != "" {
			words = append(words, w)
		}
	}
	return words
}

// FillerClassifier flags words found in a filler set.
type FillerClassifier struct {
	fillers map[string]bool
}

// NewFillerClassifier builds a lookup over words, or DefaultFillers when
// words is empty. Entries are normalized like transcript words, so
// "uh-huh" matches a spoken "uh-huh".
func NewFillerClassifier(words []string) *FillerClassifier {
	if len(words) == 0 {
		words = DefaultFillers
	}
	set := make(map[string]bool, len(words))
	for _, w := range words {
		if n := NormalizeFiller(w); n != "" {
			set[n] = true
		}
	}
	return &FillerClassifier{fillers: set}
}

func (c *FillerClassifier) Classify(words []transcript.Word, i int) (string, bool) {
	clean := NormalizeFiller(words[i].Text)
	if Excluded(clean) {
		return "", false
	}
	if !c.fillers[clean] {
		return "", false
	}
	return clean, true
}

// FindFillers returns every word in the filler set (DefaultFillers when
// fillers is empty), skipping excluded words.
func FindFillers(words []transcript.Word, fillers []string) []Detection {
	return Run(words, KindFiller, NewFillerClassifier(fillers))
}
