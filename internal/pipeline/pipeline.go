// Package pipeline runs one recording through transcription, detection and
// reassembly and reports what it did.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/mgpai22/fillercut/internal/audio"
	"github.com/mgpai22/fillercut/internal/detect"
	"github.com/mgpai22/fillercut/internal/logging"
	"github.com/mgpai22/fillercut/internal/report"
	"github.com/mgpai22/fillercut/internal/review"
	"github.com/mgpai22/fillercut/internal/splice"
	"github.com/mgpai22/fillercut/internal/transcribe"
	"github.com/mgpai22/fillercut/internal/transcript"
)

var (
	// the recognizer failed or could not read the input; nothing was written
	ErrTranscription = errors.New("transcription failed")
	// the input could not be decoded for splicing
	ErrAudioLoad = errors.New("failed to load audio")
	// an explicit selection could not be parsed or addressed missing words
	ErrMalformedSelection = detect.ErrMalformedSelection
)

const (
	StatusNoDisfluencies = "No disfluencies found."
	StatusNoSelection    = "No words were selected for removal. Original audio logic applied (though no changes were made)."
	beepHint             = "(Audio has beeps over detected words. Run again with --mode cut to actually remove them.)"
)

type Options struct {
	Fillers      []string // DefaultFillers when empty
	StutterGapMs int      // detect.DefaultStutterGapMs when zero
	LookbackMs   int
	PaddingMs    int
	CrossfadeMs  int
	Mode         splice.Mode

	OutputPath string // exact output file; generated when empty
	OutputDir  string // directory for generated names; the input's when empty
	ReportPath string // detection report (.srt, .vtt or .json), none when empty
}

// outcome of one run
type Result struct {
	InputPath  string
	OutputPath string
	// no changes were needed; OutputPath is the input
	Unchanged bool

	Words      []transcript.Word
	Detections []detect.Detection
	Cuts       []splice.Interval

	Fillers    int
	Stutters   int
	Contextual int
	Selected   int

	DurationMs       int
	OutputDurationMs int
	Status           string
}

// Processor runs recordings one at a time per call; concurrent calls share
// nothing but the configured collaborators.
type Processor struct {
	transcriber transcribe.Transcriber
	reviewer    review.Reviewer
	logger      *logging.Logger
	opts        Options
}

func New(t transcribe.Transcriber, opts Options, logger *logging.Logger) *Processor {
	if logger == nil {
		logger = logging.Nop()
	}
	if opts.Mode == "" {
		opts.Mode = splice.ModeBeep
	}
	return &Processor{transcriber: t, logger: logger, opts: opts}
}

// WithReviewer adds an LLM pass for fillers that depend on context.
func (p *Processor) WithReviewer(r review.Reviewer) *Processor {
	p.reviewer = r
	return p
}

// Transcribe runs the recognizer as a background job and waits for it.
// Cancelling ctx abandons the job.
func (p *Processor) Transcribe(ctx context.Context, inputPath string) ([]transcript.Word, error) {
	if p.transcriber == nil {
		return nil, fmt.Errorf("%w: no transcriber configured", ErrTranscription)
	}

	p.logger.Infow("Step 1/3: transcribing", "input", inputPath)

	job := transcribe.Start(ctx, p.transcriber, inputPath)
	defer job.Cancel()

	result, err := job.Wait(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTranscription, err)
	}

	p.logger.Debugw("transcription finished",
		"words", len(result.Words),
		"language", result.Language,
		"duration", result.Duration,
	)
	return result.Words, nil
}

// Clean transcribes inputPath, detects fillers and stutters (plus contextual
// fillers when a reviewer is set) and writes the beeped or cut audio.
func (p *Processor) Clean(ctx context.Context, inputPath string) (*Result, error) {
	words, err := p.Transcribe(ctx, inputPath)
	if err != nil {
		return nil, err
	}

	fillers := detect.Run(words, detect.KindFiller, detect.NewFillerClassifier(p.opts.Fillers))
	stutters := detect.Run(words, detect.KindStutter, detect.StutterClassifier{GapMs: p.opts.StutterGapMs})
	contextual := p.reviewWords(ctx, words)

	res := &Result{
		InputPath:  inputPath,
		Words:      words,
		Detections: detect.Combine(fillers, stutters, contextual),
		Fillers:    len(fillers),
		Stutters:   len(stutters),
	}
	// only reviewer findings no lexical strategy already caught
	res.Contextual = len(detect.OfKind(res.Detections, detect.KindContextual))

	if len(res.Detections) == 0 {
		p.logger.Infow(StatusNoDisfluencies, "input", inputPath)
		return p.unchanged(res, StatusNoDisfluencies)
	}

	found := fmt.Sprintf("Found %d fillers and %d stutters.", res.Fillers, res.Stutters)
	if res.Contextual > 0 {
		found += fmt.Sprintf(" The reviewer flagged %d more.", res.Contextual)
	}
	p.logger.Infow(fmt.Sprintf("%s Step 2/3: %s audio...", found, actionVerb(p.opts.Mode)))

	if err := p.render(ctx, res, "_cleaned_"+uuid.NewString()[:8]); err != nil {
		return nil, err
	}

	res.Status = found + "\n" + fmt.Sprintf(
		"Done! %s %d total disfluencies.",
		actionVerb(p.opts.Mode),
		len(res.Detections),
	)
	if p.opts.Mode == splice.ModeBeep {
		res.Status += " " + beepHint
	}

	return res, p.writeReport(res)
}

// Edit removes exactly the words named by selection, a JSON array or comma
// list of word indices. Words are transcribed when nil.
func (p *Processor) Edit(
	ctx context.Context,
	inputPath string,
	words []transcript.Word,
	selection string,
) (*Result, error) {
	indices, err := detect.ParseSelection(selection)
	if err != nil {
		return nil, err
	}

	if words == nil {
		if words, err = p.Transcribe(ctx, inputPath); err != nil {
			return nil, err
		}
	}

	selected, err := detect.Select(words, indices)
	if err != nil {
		return nil, err
	}

	res := &Result{
		InputPath:  inputPath,
		Words:      words,
		Detections: selected,
		Selected:   len(selected),
	}
	if len(selected) == 0 {
		p.logger.Infow(StatusNoSelection, "input", inputPath)
		return p.unchanged(res, StatusNoSelection)
	}

	p.logger.Infow("Step 2/3: removing selected words", "count", len(selected))

	if err := p.render(ctx, res, "_edited"); err != nil {
		return nil, err
	}

	removed := make([]string, len(selected))
	for i, d := range selected {
		removed[i] = d.Word.Text
	}
	res.Status = "Successfully removed the following segments (words selected by user): " +
		strings.Join(removed, ", ")

	return res, p.writeReport(res)
}

// contextual fillers from the reviewer; failures are logged and skipped
func (p *Processor) reviewWords(ctx context.Context, words []transcript.Word) []detect.Detection {
	if p.reviewer == nil || len(words) == 0 {
		return nil
	}

	findings, err := p.reviewer.Review(ctx, words)
	if err != nil {
		p.logger.Warnw("contextual review failed, continuing without it", "error", err)
		return nil
	}

	found, err := detect.FromIndices(words, review.Indices(findings), detect.KindContextual)
	if err != nil {
		p.logger.Warnw("reviewer returned unusable indices", "error", err)
		return nil
	}
	return slices.DeleteFunc(found, func(d detect.Detection) bool {
		return detect.Excluded(detect.NormalizeFiller(d.Word.Text))
	})
}

func (p *Processor) unchanged(res *Result, status string) (*Result, error) {
	res.Unchanged = true
	res.OutputPath = res.InputPath
	res.Status = status
	return res, p.writeReport(res)
}

// render loads the input, cuts or beeps the detections and exports the result
// next to the input with suffix added to its name.
func (p *Processor) render(ctx context.Context, res *Result, suffix string) error {
	tempDir, err := os.MkdirTemp("", "fillercut-run-*")
	if err != nil {
		return fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	container := audio.Identify(res.InputPath)
	p.logger.Debugw("loading audio", "input", res.InputPath, "container", container.Extension)

	buf, err := audio.Load(ctx, res.InputPath, tempDir)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAudioLoad, err)
	}

	res.DurationMs = buf.DurationMs()
	res.Cuts = splice.Plan(
		detect.Intervals(res.Detections),
		splice.PlanOptions{LookbackMs: p.opts.LookbackMs, PaddingMs: p.opts.PaddingMs},
		res.DurationMs,
	)

	p.logger.Debugw("planned cuts",
		"cuts", len(res.Cuts),
		"cut_ms", splice.TotalDuration(res.Cuts),
		"duration_ms", res.DurationMs,
	)

	out, err := splice.Reassemble(buf, res.Cuts, splice.Options{
		Mode:        p.opts.Mode,
		CrossfadeMs: p.opts.CrossfadeMs,
	})
	if err != nil {
		return fmt.Errorf("failed to reassemble audio: %w", err)
	}
	res.OutputDurationMs = out.DurationMs()

	format := audio.OutputFormatFor(res.InputPath)
	res.OutputPath = p.outputPath(res.InputPath, suffix, format)

	p.logger.Infow("Step 3/3: exporting", "output", res.OutputPath, "format", format)

	if err := audio.Export(ctx, out, res.OutputPath, format); err != nil {
		return fmt.Errorf("failed to export audio: %w", err)
	}
	return nil
}

func (p *Processor) outputPath(inputPath, suffix string, format audio.Format) string {
	if p.opts.OutputPath != "" {
		return p.opts.OutputPath
	}
	return OutputPath(inputPath, p.opts.OutputDir, suffix, format)
}

// OutputPath names a generated file: dir/<input base><suffix><format ext>,
// with dir defaulting to the input's directory.
func OutputPath(inputPath, dir, suffix string, format audio.Format) string {
	if dir == "" {
		dir = filepath.Dir(inputPath)
	}
	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	return filepath.Join(dir, base+suffix+format.Extension())
}

func (p *Processor) writeReport(res *Result) error {
	if p.opts.ReportPath == "" {
		return nil
	}

	r := &report.Report{
		Input:      res.InputPath,
		Output:     res.OutputPath,
		Mode:       p.opts.Mode,
		DurationMs: res.DurationMs,
		Detections: res.Detections,
		Cuts:       res.Cuts,
		Status:     res.Status,
	}
	if err := report.WriteFile(r, p.opts.ReportPath); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	p.logger.Infow("wrote detection report", "path", p.opts.ReportPath)
	return nil
}

func actionVerb(mode splice.Mode) string {
	if mode == splice.ModeCut {
		return "CUTTING"
	}
	return "BEEPING"
}
