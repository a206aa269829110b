package review

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/mgpai22/fillercut/internal/transcript"
)

// single transcript word sent for review
type WordItem struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// word the model judged to be a filler
type Finding struct {
	Index  int    `json:"index"`
	Reason string `json:"reason,omitempty"`
}

// Reviewer flags words that are fillers only in context, such as a
// hesitating "like" as opposed to "I like it".
type Reviewer interface {
	Review(ctx context.Context, words []transcript.Word) ([]Finding, error)
}

// review service provider
type Provider string

const (
	ProviderGemini    Provider = "gemini"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

const (
	DefaultBatchSize   = 200
	DefaultConcurrency = 3
)

// discourse markers that are only sometimes fillers
var DefaultCandidates = []string{
	"like", "so", "well", "right", "okay", "actually", "basically", "literally",
	"you know", "I mean", "kind of", "sort of",
}

type Options struct {
	Model       string
	Prompt      string
	Candidates  []string // DefaultCandidates when empty
	BatchSize   int      // words per API request (default 200)
	Concurrency int      // parallel requests (default 3)
}

func (o Options) batchSize() int {
	if o.BatchSize > 0 {
		return o.BatchSize
	}
	return DefaultBatchSize
}

func (o Options) concurrency() int {
	if o.Concurrency > 0 {
		return o.Concurrency
	}
	return DefaultConcurrency
}

// creates Reviewer based on provider
func Factory(
	ctx context.Context,
	provider Provider,
	apiKey string,
	opts Options,
) (Reviewer, error) {
	switch provider {
	case ProviderGemini:
		return NewGeminiReviewer(ctx, apiKey, opts)
	case ProviderOpenAI:
		return NewOpenAIReviewer(ctx, apiKey, opts)
	case ProviderAnthropic:
		return NewAnthropicReviewer(ctx, apiKey, opts)
	default:
		return nil, fmt.Errorf("unsupported review provider: %s", provider)
	}
}

// BuildPrompt creates the review prompt for LLM providers
func BuildPrompt(opts Options, items []WordItem) string {
	candidates := opts.Candidates
	if len(candidates) == 0 {
		candidates = DefaultCandidates
	}

	var sb strings.Builder

	sb.WriteString("The following JSON array is a word-by-word transcript of spoken audio. ")
	sb.WriteString("Find the words that are verbal fillers or hesitations in this context and can be cut ")
	sb.WriteString("from the recording without changing the meaning.\n\n")

	sb.WriteString("IMPORTANT INSTRUCTIONS:\n")
	sb.WriteString(fmt.Sprintf(
		"1. Typical candidates are: %s. Flag them ONLY when they carry no meaning in the sentence.\n",
		strings.Join(candidates, ", "),
	))
	sb.WriteString("2. For multi-word fillers, flag every word of the phrase.\n")
	sb.WriteString("3. Never flag words that are needed for the sentence to make sense.\n")
	sb.WriteString("4. Return ONLY a JSON array of objects with 'index' and 'reason' fields.\n")
	sb.WriteString("5. The 'index' values must be taken from the input exactly.\n")
	sb.WriteString("6. Return [] when nothing should be cut.\n")
	sb.WriteString("7. Do not add any explanation or markdown formatting.\n\n")

	if opts.Prompt != "" {
		sb.WriteString(
			fmt.Sprintf("Additional instructions: %s\n\n", opts.Prompt),
		)
	}

	sb.WriteString("Input JSON:\n")

	inputJSON, _ := json.Marshal(items)
	sb.Write(inputJSON)

	sb.WriteString("\n\nOutput the JSON array only:")

	return sb.String()
}

// splits words into indexed batches of at most size
func batchWords(words []transcript.Word, size int) [][]WordItem {
	var batches [][]WordItem
	for i := 0; i < len(words); i += size {
		end := min(i+size, len(words))
		batch := make([]WordItem, 0, end-i)
		for j := i; j < end; j++ {
			batch = append(batch, WordItem{Index: j, Text: words[j].Text})
		}
		batches = append(batches, batch)
	}
	return batches
}

// sends one batch prompt and returns the raw model text
type completeFunc func(ctx context.Context, prompt string) (string, error)

// reviewWords batches words, runs up to concurrency requests at once and
// returns the findings sorted by index. Workers pull batches from a shared
// queue; the first failure cancels the rest.
func reviewWords(
	ctx context.Context,
	words []transcript.Word,
	opts Options,
	complete completeFunc,
) ([]Finding, error) {
	if len(words) == 0 {
		return []Finding{}, nil
	}

	batches := batchWords(words, opts.batchSize())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type batchResult struct {
		Index    int
		Findings []Finding
		Error    error
	}

	workChan := make(chan int)
	resultChan := make(chan batchResult, len(batches))

	var wg sync.WaitGroup
	for i := 0; i < opts.concurrency() && i < len(batches); i++ {
		wg.Go(func() {
			for {
				select {
				case <-ctx.Done():
					return
				case batchIdx, ok := <-workChan:
					if !ok {
						return
					}
					if ctx.Err() != nil {
						return
					}

					findings, err := reviewBatch(ctx, opts, batches[batchIdx], complete)
					if err != nil {
						cancel()
					}
					resultChan <- batchResult{
						Index:    batchIdx,
						Findings: findings,
						Error:    err,
					}
				}
			}
		})
	}

	go func() {
		defer close(workChan)
		for i := range batches {
			select {
			case <-ctx.Done():
				return
			case workChan <- i:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	var (
		all      []Finding
		done     int
		firstErr error
	)
	for result := range resultChan {
		if result.Error != nil && firstErr == nil {
			firstErr = fmt.Errorf(
				"batch %d failed: %w",
				result.Index,
				result.Error,
			)
			cancel()
		}
		if result.Error == nil {
			done++
			all = append(all, result.Findings...)
		}
	}

	if firstErr != nil {
		return nil, firstErr
	}
	if done < len(batches) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].Index < all[j].Index
	})

	return all, nil
}

func reviewBatch(
	ctx context.Context,
	opts Options,
	batch []WordItem,
	complete completeFunc,
) ([]Finding, error) {
	text, err := complete(ctx, BuildPrompt(opts, batch))
	if err != nil {
		return nil, fmt.Errorf("review failed: %w", err)
	}
	if text == "" {
		return nil, fmt.Errorf("no text in response")
	}

	findings, err := extractFindings(cleanJSONResponse(text))
	if err != nil {
		return nil, fmt.Errorf(
			"failed to parse JSON response: %w (response: %s)",
			err,
			truncateString(text, 200),
		)
	}

	return keepBatchFindings(findings, batch), nil
}

// drops findings that point outside the batch and repeated indices
func keepBatchFindings(findings []Finding, batch []WordItem) []Finding {
	if len(batch) == 0 {
		return nil
	}
	lo, hi := batch[0].Index, batch[len(batch)-1].Index
	seen := make(map[int]bool)

	var kept []Finding
	for _, f := range findings {
		if f.Index < lo || f.Index > hi || seen[f.Index] {
			continue
		}
		seen[f.Index] = true
		kept = append(kept, f)
	}
	return kept
}

var jsonBlockRegex = regexp.MustCompile("```(?:json)?\\s*")

// removes markdown formatting from the response
func cleanJSONResponse(s string) string {
	s = strings.TrimSpace(s)
	s = jsonBlockRegex.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// extractFindings takes the first JSON value that decodes as a finding list,
// either a bare array or an array under a wrapper key.
func extractFindings(text string) ([]Finding, error) {
	for i := 0; i < len(text); i++ {
		if text[i] != '[' && text[i] != '{' {
			continue
		}
		decoder := json.NewDecoder(strings.NewReader(text[i:]))
		var raw json.RawMessage
		if err := decoder.Decode(&raw); err != nil {
			continue
		}
		if findings, ok := tryExtractFindings(raw); ok {
			return findings, nil
		}
		i += int(decoder.InputOffset()) - 1
	}
	return nil, fmt.Errorf("no valid findings JSON in response")
}

func tryExtractFindings(raw json.RawMessage) ([]Finding, bool) {
	if findings, ok := decodeFindings(raw); ok {
		return findings, true
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil, false
	}

	for _, key := range []string{"fillers", "findings", "results", "data", "items"} {
		if fieldRaw, exists := wrapper[key]; exists {
			if findings, ok := decodeFindings(fieldRaw); ok {
				return findings, true
			}
		}
	}
	return nil, false
}

// accepts [{"index": 3, ...}] and plain index arrays like [3, 7]
func decodeFindings(raw json.RawMessage) ([]Finding, bool) {
	var objects []struct {
		Index  *int   `json:"index"`
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal(raw, &objects); err == nil {
		findings := make([]Finding, 0, len(objects))
		for _, o := range objects {
			if o.Index == nil {
				return nil, false
			}
			findings = append(findings, Finding{Index: *o.Index, Reason: o.Reason})
		}
		return findings, true
	}

	var indices []int
	if err := json.Unmarshal(raw, &indices); err == nil {
		findings := make([]Finding, 0, len(indices))
		for _, i := range indices {
			findings = append(findings, Finding{Index: i})
		}
		return findings, true
	}
	return nil, false
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// indices of the findings, for building detections
func Indices(findings []Finding) []int {
	out := make([]int, len(findings))
	for i, f := range findings {
		out[i] = f.Index
	}
	return out
}
