// Package handlers implements the HTTP surface of the voice-cloning
// service: clone submission, job lifecycle, artifact retrieval, catalog
// endpoints, and operational probes.
package handlers

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Yass5002/Lyrebird/pkg/jobregistry"
	"github.com/Yass5002/Lyrebird/pkg/synth"
)

// Engine is the slice of the synthesis engine the handlers need for
// status reporting.
type Engine interface {
	Device() string
	HealthCheck(ctx context.Context) error
}

// ServiceConfig carries the handler-level settings.
type ServiceConfig struct {
	ModelName           string
	OutputRoot          string
	TempDir             string
	ExampleDir          string
	MaxUploadBytes      int64
	JobListLimit        int
	PunctuatorAvailable bool
}

// Service binds the domain components to the HTTP handlers. One Service
// instance backs the whole API.
type Service struct {
	cfg        ServiceConfig
	cloner     *synth.Cloner
	engine     Engine
	registry   *jobregistry.Registry
	retention  *jobregistry.Retention
	dispatcher *jobregistry.Dispatcher
	started    time.Time
	log        *zap.Logger
}

// NewService wires the handler layer.
func NewService(
	cfg ServiceConfig,
	cloner *synth.Cloner,
	engine Engine,
	registry *jobregistry.Registry,
	retention *jobregistry.Retention,
	dispatcher *jobregistry.Dispatcher,
	log *zap.Logger,
) *Service {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = synth.MaxReferenceAudioBytes
	}
	if cfg.JobListLimit <= 0 {
		cfg.JobListLimit = 50
	}
	return &Service{
		cfg:        cfg,
		cloner:     cloner,
		engine:     engine,
		registry:   registry,
		retention:  retention,
		dispatcher: dispatcher,
		started:    time.Now(),
		log:        log,
	}
}
