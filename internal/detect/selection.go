package detect

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/mgpai22/fillercut/internal/transcript"
)

var ErrMalformedSelection = errors.New("malformed selection")

// ParseSelection reads word indices from a JSON array ("[1, 4]") or a comma
// list ("1,4"). Blank text selects nothing. The result is sorted without
// repeats.
func ParseSelection(text string) ([]int, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	var indices []int
	if strings.HasPrefix(text, "[") {
		var raw []any
		if err := json.Unmarshal([]byte(text), &raw); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedSelection, err)
		}
		for _, v := range raw {
			i, err := selectionIndex(v)
			if err != nil {
				return nil, err
			}
			indices = append(indices, i)
		}
	} else {
		for _, part := range strings.Split(text, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			i, err := strconv.Atoi(part)
			if err != nil {
				return nil, fmt.Errorf("%w: %q is not a word index", ErrMalformedSelection, part)
			}
			indices = append(indices, i)
		}
	}

	for _, i := range indices {
		if i < 0 {
			return nil, fmt.Errorf("%w: negative index %d", ErrMalformedSelection, i)
		}
	}
	slices.Sort(indices)
	return slices.Compact(indices), nil
}

func selectionIndex(v any) (int, error) {
	switch x := v.(type) {
	case float64:
		if x != math.Trunc(x) {
			return 0, fmt.Errorf("%w: %v is not a word index", ErrMalformedSelection, x)
		}
		return int(x), nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not a word index", ErrMalformedSelection, x)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("%w: unexpected value %v", ErrMalformedSelection, v)
	}
}

// Select turns explicit word indices into detections with no classification.
// Every index must address a word.
func Select(words []transcript.Word, indices []int) ([]Detection, error) {
	found, err := FromIndices(words, indices, KindSelected)
	if err != nil {
		return nil, err
	}
	for i := range found {
		found[i].Label = found[i].Word.Text
	}
	return found, nil
}

// FromIndices builds detections of kind for the given word indices, in
// ascending index order. Labels are the normalized words.
func FromIndices(words []transcript.Word, indices []int, kind Kind) ([]Detection, error) {
	sorted := slices.Clone(indices)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	found := make([]Detection, 0, len(sorted))
	for _, i := range sorted {
		if i < 0 || i >= len(words) {
			return nil, fmt.Errorf(
				"%w: index %d out of range (transcript has %d words)",
				ErrMalformedSelection,
				i,
				len(words),
			)
		}
		found = append(found, Detection{
			Index: i,
			Word:  words[i],
			Kind:  kind,
			Label: NormalizeFiller(words[i].Text),
		})
	}
	return found, nil
}
