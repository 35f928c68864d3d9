package costing

import (
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/flockcare/internal/observability/metrics"
	"github.com/mamadbah2/flockcare/internal/repository"
)

const (
	defaultChunkSize   = 50
	defaultConcurrency = 4
)

// Store is the storage the aggregator and attribution engine need.
type Store interface {
	repository.BatchStore
	repository.CostStore
	repository.DeathStore
	repository.ExitStore
}

// Options tunes bulk recalculation.
type Options struct {
	// ChunkSize bounds how many death records one page of a bulk pass loads.
	ChunkSize int
	// Concurrency bounds how many records of a page are valued in parallel.
	Concurrency int
	Location    *time.Location
}

// Service aggregates batch costs into per-head components and values deaths and exits.
type Service struct {
	store       Store
	chunkSize   int
	concurrency int
	loc         *time.Location
	metrics     *metrics.Metrics
	logger      *zap.Logger
	now         func() time.Time
}

func NewService(store Store, opts Options, m *metrics.Metrics, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = defaultChunkSize
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Service{
		store:       store,
		chunkSize:   opts.ChunkSize,
		concurrency: opts.Concurrency,
		loc:         opts.Location,
		metrics:     m,
		logger:      logger,
		now:         time.Now,
	}
}
