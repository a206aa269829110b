// Package detect decides which transcript words should be removed.
package detect

import (
	"github.com/mgpai22/fillercut/internal/splice"
	"github.com/mgpai22/fillercut/internal/transcript"
)

// how a word came to be marked for removal
type Kind string

const (
	KindFiller     Kind = "filler"
	KindStutter    Kind = "stutter"
	KindSelected   Kind = "selected"
	KindContextual Kind = "contextual"
)

// one word marked for removal
type Detection struct {
	Index int             `json:"index"`
	Word  transcript.Word `json:"word"`
	Kind  Kind            `json:"kind"`
	Label string          `json:"label"`
}

// span of the detected word itself, before any padding
func (d Detection) Interval() splice.Interval {
	return splice.Interval{StartMs: d.Word.StartMs, EndMs: d.Word.EndMs}
}

// WordClassifier judges words[i] with the rest of the sequence as context.
// ok reports a match; label describes it for status output and reports.
type WordClassifier interface {
	Classify(words []transcript.Word, i int) (label string, ok bool)
}

// ClassifierFunc adapts a plain function to WordClassifier.
type ClassifierFunc func(words []transcript.Word, i int) (string, bool)

func (f ClassifierFunc) Classify(words []transcript.Word, i int) (string, bool) {
	return f(words, i)
}

// Run applies c to every word in order and returns the matches as kind.
func Run(words []transcript.Word, kind Kind, c WordClassifier) []Detection {
	var found []Detection
	for i, w := range words {
		label, ok := c.Classify(words, i)
		if !ok {
			continue
		}
		found = append(found, Detection{Index: i, Word: w, Kind: kind, Label: label})
	}
	return found
}

// Combine concatenates detection lists and drops repeats of a word index
// already seen, so a word flagged by two strategies is counted and cut once.
func Combine(lists ...[]Detection) []Detection {
	seen := make(map[int]bool)
	var out []Detection
	for _, list := range lists {
		for _, d := range list {
			if seen[d.Index] {
				continue
			}
			seen[d.Index] = true
			out = append(out, d)
		}
	}
	return out
}

// raw removal intervals in detection order
func Intervals(detections []Detection) []splice.Interval {
	out := make([]splice.Interval, 0, len(detections))
	for _, d := range detections {
		out = append(out, d.Interval())
	}
	return out
}

// detections of the given kind
func OfKind(detections []Detection, kind Kind) []Detection {
	var out []Detection
	for _, d := range detections {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}
