package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/sfmc-extract/internal/core/domain"
	"github.com/custodia-labs/sfmc-extract/internal/core/ports/driven"
	"github.com/custodia-labs/sfmc-extract/internal/core/ports/driving"
	"github.com/custodia-labs/sfmc-extract/internal/logger"
)

// Ensure ExtractionOrchestrator implements the interface.
var _ driving.Extractor = (*ExtractionOrchestrator)(nil)

// DefaultBatchSize is the number of records handed to the sink per write.
const DefaultBatchSize = 500

// OrchestratorOptions tunes how object types are extracted.
type OrchestratorOptions struct {
	// BatchSize is the number of records per sink write.
	BatchSize int
	// Parallelism is the number of object types extracted at once.
	// Values below 2 extract object types strictly in order.
	Parallelism int
}

// ExtractionOrchestrator extracts configured object types, isolating each
// type's failures from the others.
type ExtractionOrchestrator struct {
	source     driven.ObjectSource
	normaliser driven.RecordNormaliser
	runStore   driven.RunStore
	opts       OrchestratorOptions
	now        func() time.Time
}

// NewExtractionOrchestrator creates an orchestrator.
func NewExtractionOrchestrator(
	source driven.ObjectSource,
	normaliser driven.RecordNormaliser,
	opts OrchestratorOptions,
) *ExtractionOrchestrator {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Parallelism < 1 {
		opts.Parallelism = 1
	}
	return &ExtractionOrchestrator{
		source:     source,
		normaliser: normaliser,
		opts:       opts,
		now:        time.Now,
	}
}

// SetRunStore sets an optional store for run reports.
func (o *ExtractionOrchestrator) SetRunStore(store driven.RunStore) {
	o.runStore = store
}

// Streams returns one lazy, labelled record stream per spec, in order.
// Nothing is fetched until a stream's Next is called.
func (o *ExtractionOrchestrator) Streams(specs []domain.ObjectTypeSpec) ([]*ObjectTypeStream, error) {
	streams := make([]*ObjectTypeStream, 0, len(specs))
	for _, spec := range specs {
		if err := spec.Validate(); err != nil {
			return nil, err
		}
		streams = append(streams, newObjectTypeStream(spec, o.source, o.normaliser, o.now))
	}
	return streams, nil
}

// RunAll drains every spec's stream into sink and reports per-type outcomes.
// The returned error is non-nil only for run-level failures; the report is
// returned in every case once streams have been created.
func (o *ExtractionOrchestrator) RunAll(
	ctx context.Context, specs []domain.ObjectTypeSpec, sink driven.RecordSink,
) (*domain.RunReport, error) {
	streams, err := o.Streams(specs)
	if err != nil {
		return nil, err
	}

	report := &domain.RunReport{
		RunID:     uuid.NewString(),
		StartedAt: o.now(),
	}
	logger.Info("run %s: extracting %d object types", report.RunID, len(streams))

	runErr := o.drainAll(ctx, streams, sink)

	report.FinishedAt = o.now()
	for _, s := range streams {
		report.Outcomes = append(report.Outcomes, s.Outcome())
	}

	if o.runStore != nil {
		if err := o.runStore.SaveReport(context.WithoutCancel(ctx), report); err != nil {
			logger.Warn("run %s: failed to save run report: %v", report.RunID, err)
		}
	}

	return report, runErr
}

func (o *ExtractionOrchestrator) drainAll(ctx context.Context, streams []*ObjectTypeStream, sink driven.RecordSink) error {
	if o.opts.Parallelism <= 1 {
		for _, s := range streams {
			if err := o.drain(ctx, s, sink); err != nil {
				return err
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.opts.Parallelism)
	for _, s := range streams {
		g.Go(func() error {
			return o.drain(gctx, s, sink)
		})
	}
	return g.Wait()
}

// drain writes one stream to the sink in batches. Sink failures end the
// stream as failed; only run-level stream errors are returned.
func (o *ExtractionOrchestrator) drain(ctx context.Context, s *ObjectTypeStream, sink driven.RecordSink) error {
	desc := s.Descriptor()
	batch := make([]domain.NormalizedRecord, 0, o.opts.BatchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := sink.WriteBatch(ctx, desc, batch); err != nil {
			return fmt.Errorf("write %s batch: %w", desc.Table, err)
		}
		batch = make([]domain.NormalizedRecord, 0, o.opts.BatchSize)
		return nil
	}

	var runErr error
	sinkFailed := false
	for {
		record, err := s.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			runErr = err
			break
		}

		batch = append(batch, record)
		if len(batch) >= o.opts.BatchSize {
			if err := flush(); err != nil {
				s.Abort(err)
				sinkFailed = true
				break
			}
		}
	}

	// Records produced before a retrieval failure are still delivered.
	if !sinkFailed {
		if err := flush(); err != nil {
			s.Abort(err)
		}
	}
	if err := sink.CloseStream(context.WithoutCancel(ctx), desc, s.Outcome().Status); err != nil {
		s.Abort(fmt.Errorf("close %s stream: %w", desc.Table, err))
	}

	out := s.Outcome()
	logger.Info("%s: %s (%d records, %d skipped, %d pages)",
		desc.ObjectType, out.Status, out.Emitted, out.Skipped, out.Pages)
	return runErr
}
