package config

import (
	"errors"
	"fmt"
	"slices"
)

var (
	modes               = []string{"beep", "cut", "debug"}
	devices             = []string{"auto", "cpu", "cuda"}
	transcribeProviders = []string{"whisper", "openai", "gemini", "file"}
	reviewProviders     = []string{"anthropic", "openai", "gemini"}
)

// Validate ensures the configuration is usable. Missing API keys are
// reported when a provider is actually used.
func (c *Config) Validate() error {
	if err := c.validateDetection(); err != nil {
		return err
	}
	if err := c.validateOutput(); err != nil {
		return err
	}
	if err := c.validateTranscription(); err != nil {
		return err
	}
	return c.validateReview()
}

func (c *Config) validateDetection() error {
	if c.Detection.StutterGapMs <= 0 {
		return errors.New("detection.stutter_gap_ms must be positive")
	}
	if c.Detection.LookbackMs < 0 {
		return errors.New("detection.lookback_ms must not be negative")
	}
	if c.Detection.PaddingMs < 0 {
		return errors.New("detection.padding_ms must not be negative")
	}
	return nil
}

func (c *Config) validateOutput() error {
	if !slices.Contains(modes, c.Output.Mode) {
		return fmt.Errorf("output.mode must be beep or cut, got %q", c.Output.Mode)
	}
	if c.Output.CrossfadeMs < 0 {
		return errors.New("output.crossfade_ms must not be negative")
	}
	return nil
}

func (c *Config) validateTranscription() error {
	if !slices.Contains(transcribeProviders, c.Transcription.Provider) {
		return fmt.Errorf("transcription.provider %q is not one of %v", c.Transcription.Provider, transcribeProviders)
	}
	if !slices.Contains(devices, c.Transcription.Device) {
		return fmt.Errorf("transcription.device %q is not one of %v", c.Transcription.Device, devices)
	}
	if c.Transcription.ChunkMinutes <= 0 {
		return errors.New("transcription.chunk_minutes must be positive")
	}
	if c.Transcription.Concurrency <= 0 {
		return errors.New("transcription.concurrency must be positive")
	}
	return nil
}

func (c *Config) validateReview() error {
	if !c.Review.Enabled {
		return nil
	}
	if !slices.Contains(reviewProviders, c.Review.Provider) {
		return fmt.Errorf("review.provider %q is not one of %v", c.Review.Provider, reviewProviders)
	}
	if c.Review.BatchSize <= 0 {
		return errors.New("review.batch_size must be positive")
	}
	return nil
}
