package capture

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/log"
	"github.com/ayusman/mudra/internal/pose"
)

// LandmarkSensor is a pose.Sensor fed by a camera and a hand detector. A
// background loop reads frames at the camera rate, runs detection on frames
// that moved and keeps the pose of the first detected hand.
type LandmarkSensor struct {
	camera   Camera
	detector detector.Detector
	motion   *MotionDetector

	mu      sync.RWMutex
	sample  pose.Sample
	present bool
	lastErr error

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewLandmarkSensor creates a stopped sensor. A nil motion detector runs
// hand detection on every frame.
func NewLandmarkSensor(cam Camera, det detector.Detector, motion *MotionDetector) *LandmarkSensor {
	return &LandmarkSensor{
		camera:   cam,
		detector: det,
		motion:   motion,
	}
}

// Current implements pose.Sensor.
func (s *LandmarkSensor) Current() (pose.Sample, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sample, s.present
}

// IsTracked implements pose.Sensor.
func (s *LandmarkSensor) IsTracked() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.present && s.sample.Tracked
}

// Err returns the error from the most recent poll, if any.
func (s *LandmarkSensor) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Poll reads one frame and updates the current pose. Frames without motion
// keep the previous pose. Any error drops tracking.
func (s *LandmarkSensor) Poll() error {
	frame, err := s.camera.ReadFrame()
	if err != nil {
		s.lose(err)
		return err
	}
	defer frame.Close()

	if s.motion != nil && !s.motion.ShouldDetect(frame) {
		return nil
	}

	hands, err := s.detector.Detect(frame)
	if err != nil {
		s.lose(err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = nil
	if len(hands) == 0 {
		s.sample = pose.Sample{}
		s.present = false
		return nil
	}
	s.sample = hands[0].Pose()
	s.present = true
	return nil
}

func (s *LandmarkSensor) lose(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sample = pose.Sample{}
	s.present = false
	s.lastErr = err
}

// Start opens the camera and launches the polling loop.
func (s *LandmarkSensor) Start(ctx context.Context) error {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	if s.cancel != nil {
		return nil
	}
	if err := s.camera.Open(); err != nil {
		return err
	}
	if s.motion != nil {
		s.motion.Reset()
	}

	fps := s.camera.FPS()
	if fps <= 0 {
		fps = DefaultFPS
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.run(runCtx, time.Second/time.Duration(fps), s.done)
	log.Info("landmark sensor started", "fps", fps)
	return nil
}

// Stop ends the polling loop, closes the camera and drops tracking.
func (s *LandmarkSensor) Stop() error {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	if s.cancel == nil {
		return nil
	}
	s.cancel()
	<-s.done
	s.cancel = nil
	s.done = nil

	s.lose(nil)
	log.Info("landmark sensor stopped")
	return s.camera.Close()
}

func (s *LandmarkSensor) run(ctx context.Context, interval time.Duration, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var failing bool
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := s.Poll()
			switch {
			case err != nil && !failing:
				log.Warn("pose poll failed", "error", err)
				failing = true
			case err == nil && failing:
				log.Info("pose poll recovered")
				failing = false
			}
			if errors.Is(err, ErrCameraNotOpen) {
				return
			}
		}
	}
}
