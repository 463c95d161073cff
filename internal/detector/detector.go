package detector

import (
	"time"

	"gocv.io/x/gocv"
)

// Detector defines the interface for hand detection implementations.
type Detector interface {
	// Detect analyzes a video frame and returns detected hand landmarks,
	// best score first. Returns an empty slice if no hands are detected.
	Detect(frame *gocv.Mat) ([]HandLandmarks, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for hand detection.
type Config struct {
	// MaxHands is the maximum number of hands to report (default: 1).
	MaxHands int

	// MinConfidence drops hands scoring below it (0.0-1.0).
	MinConfidence float64

	// ScriptPath overrides the MediaPipe service script location.
	ScriptPath string

	// IdleTimeout stops the MediaPipe process after this long without frames.
	IdleTimeout time.Duration
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxHands:      1,
		MinConfidence: 0.5,
		IdleTimeout:   30 * time.Second,
	}
}

// filterHands drops low-confidence hands and caps the count.
func filterHands(hands []HandLandmarks, cfg Config) []HandLandmarks {
	out := hands[:0]
	for _, h := range hands {
		if h.Score >= cfg.MinConfidence {
			out = append(out, h)
		}
	}
	if cfg.MaxHands > 0 && len(out) > cfg.MaxHands {
		out = out[:cfg.MaxHands]
	}
	return out
}
