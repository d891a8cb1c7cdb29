// Package app wires capture, recognition and dictation into one service.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"go.aimuz.me/voxtype/audiocapture"
	"go.aimuz.me/voxtype/config"
	"go.aimuz.me/voxtype/dictation"
	"go.aimuz.me/voxtype/history"
	"go.aimuz.me/voxtype/stt"
)

// Service runs the dictation pipeline for the lifetime of the process.
type Service struct {
	cfg     *config.Config
	capture *audiocapture.Capture
	engine  stt.Engine
	pipe    *dictation.Pipeline
	store   *history.Store
}

// New builds a service from the configuration. The speech engine must be
// ready before capture starts, so a missing model fails here rather than
// after the microphone is opened.
func New(cfg *config.Config) (*Service, error) {
	engine, err := newEngine(cfg)
	if err != nil {
		return nil, err
	}
	if !engine.IsReady() {
		engine.Close()
		return nil, fmt.Errorf("speech engine %q is not ready, check model path and credentials", cfg.Engine)
	}

	capture, err := audiocapture.New()
	if err != nil {
		engine.Close()
		return nil, fmt.Errorf("init audio capture: %w", err)
	}

	var store *history.Store
	if cfg.History {
		store, err = openHistory()
		if err != nil {
			slog.Error("open history, continuing without it", "error", err)
			store = nil
		}
	}

	svc := &Service{
		cfg:     cfg,
		capture: capture,
		engine:  engine,
		store:   store,
	}

	pipe, err := dictation.NewPipeline(dictation.PipelineConfig{
		Engine:  engine,
		Text:    newTextSink(cfg.InputMethod),
		Preview: logPreview{},
		State:   notifySink{},
		OnFinal: svc.recordFinal,
		Options: pipelineOptions(cfg),
	})
	if err != nil {
		svc.Close()
		return nil, err
	}
	svc.pipe = pipe

	return svc, nil
}

// Run starts capture and dictation, then blocks until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if err := s.capture.Start(); err != nil {
		return fmt.Errorf("start audio capture: %w", err)
	}
	if err := s.pipe.Start(ctx, s.capture.Frames()); err != nil {
		s.capture.Stop()
		return fmt.Errorf("start dictation: %w", err)
	}

	slog.Info("voxtype running",
		"engine", s.engine.Name(),
		"listening", s.cfg.Listening,
		"word_limit", s.cfg.WordLimit)

	<-ctx.Done()
	return nil
}

// Reload applies a freshly loaded configuration to the running pipeline.
// Engine and input method changes need a restart and are only logged.
func (s *Service) Reload(cfg *config.Config) {
	if cfg.Engine != s.cfg.Engine {
		slog.Warn("engine change requires restart", "current", s.cfg.Engine, "new", cfg.Engine)
	}
	if cfg.InputMethod != s.cfg.InputMethod {
		slog.Warn("input method change requires restart", "current", s.cfg.InputMethod, "new", cfg.InputMethod)
	}
	s.cfg = cfg
	s.pipe.SetOptions(pipelineOptions(cfg))
	slog.Info("configuration reloaded", "word_limit", cfg.WordLimit, "listening", cfg.Listening)
}

// Close releases all resources. Capture stops first so the recognizer
// sees end of stream and flushes before the pipeline is stopped.
func (s *Service) Close() {
	if s.capture != nil {
		if err := s.capture.Close(); err != nil && !errors.Is(err, audiocapture.ErrNotCapturing) {
			slog.Error("close audio capture", "error", err)
		}
	}
	if s.pipe != nil {
		if err := s.pipe.Stop(); err != nil {
			slog.Error("stop dictation", "error", err)
		}
	}
	if s.engine != nil {
		if err := s.engine.Close(); err != nil {
			slog.Error("close speech engine", "error", err)
		}
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			slog.Error("close history", "error", err)
		}
	}
}

func (s *Service) recordFinal(text string) {
	if s.store == nil {
		return
	}
	if err := s.store.Add(text); err != nil {
		slog.Error("record history entry", "error", err)
	}
}

func newEngine(cfg *config.Config) (stt.Engine, error) {
	sttCfg := stt.Config{
		Engine:           stt.EngineType(cfg.Engine),
		VoskModelPath:    cfg.VoskModelPath,
		WhisperModelPath: cfg.WhisperModelPath,
		Language:         cfg.Language,
		APIKey:           cfg.APIKey,
		APIBaseURL:       cfg.APIBaseURL,
		APIModel:         cfg.APIModel,
	}

	// Fall back to the stock model location when no path is configured.
	if sttCfg.VoskModelPath == "" {
		if dir, err := config.ModelDir(); err == nil {
			sttCfg.VoskModelPath = filepath.Join(dir, "vosk-model-small-en-us-0.15")
		}
	}

	engine, err := stt.New(sttCfg)
	if err != nil {
		return nil, fmt.Errorf("init speech engine: %w", err)
	}
	return engine, nil
}

func openHistory() (*history.Store, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("get config dir: %w", err)
	}
	return history.Open(filepath.Join(dir, "voxtype", "history"))
}

func pipelineOptions(cfg *config.Config) dictation.Options {
	return dictation.Options{
		SleepPhrases: cfg.SleepPhrases,
		WakePhrases:  cfg.WakePhrases,
		WordLimit:    cfg.WordLimit,
		Listening:    cfg.Listening,
	}
}
