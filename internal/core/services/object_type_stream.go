package services

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/custodia-labs/sfmc-extract/internal/core/domain"
	"github.com/custodia-labs/sfmc-extract/internal/core/ports/driven"
	"github.com/custodia-labs/sfmc-extract/internal/logger"
	"github.com/custodia-labs/sfmc-extract/internal/normalisers/soapobject"
)

// ObjectTypeStream is the lazy record stream for one object type.
// It runs retrieval, normalisation and key assignment on demand and absorbs
// failures: a failing object type ends its stream early with io.EOF and
// records the failure in Outcome.
type ObjectTypeStream struct {
	spec       domain.ObjectTypeSpec
	source     driven.ObjectSource
	normaliser driven.RecordNormaliser
	now        func() time.Time

	iter    driven.ObjectIterator
	outcome domain.ObjectTypeOutcome
	done    bool
	fatal   error
}

func newObjectTypeStream(
	spec domain.ObjectTypeSpec,
	source driven.ObjectSource,
	normaliser driven.RecordNormaliser,
	now func() time.Time,
) *ObjectTypeStream {
	return &ObjectTypeStream{
		spec:       spec,
		source:     source,
		normaliser: normaliser,
		now:        now,
		outcome: domain.ObjectTypeOutcome{
			Stream: spec.Descriptor(),
			Status: domain.OutcomePending,
		},
	}
}

// Descriptor labels the stream for the loading layer.
func (s *ObjectTypeStream) Descriptor() domain.StreamDescriptor {
	return s.outcome.Stream
}

// Spec returns the object type spec the stream extracts.
func (s *ObjectTypeStream) Spec() domain.ObjectTypeSpec {
	return s.spec
}

// Outcome returns the stream's current outcome.
func (s *ObjectTypeStream) Outcome() domain.ObjectTypeOutcome {
	return s.outcome
}

// Next returns the next keyed record or io.EOF.
//
// Records that fail normalisation are skipped. Retrieval failures end the
// stream. Only run-level failures are returned: an authentication failure on
// the initial token exchange, or cancellation of ctx.
func (s *ObjectTypeStream) Next(ctx context.Context) (domain.NormalizedRecord, error) {
	if s.done {
		if s.fatal != nil {
			return nil, s.fatal
		}
		return nil, io.EOF
	}

	if s.iter == nil {
		s.outcome.StartedAt = s.now()
		iter, err := s.source.Open(ctx, s.spec)
		if err != nil {
			return nil, s.fail(ctx, err, errors.Is(err, domain.ErrAuthFailure))
		}
		s.iter = iter
	}

	for {
		raw, err := s.iter.Next(ctx)
		if errors.Is(err, io.EOF) {
			s.finish()
			return nil, io.EOF
		}
		if err != nil {
			return nil, s.fail(ctx, err, false)
		}

		record, err := s.normaliser.Normalise(raw, s.spec.Properties)
		if err != nil {
			s.outcome.Skipped++
			logger.Warn("%s: skipping record: %v", s.spec.ObjectType, err)
			continue
		}

		record = soapobject.AssignKey(record, s.spec.ObjectType, s.spec.KeyField(), s.now())
		s.outcome.Emitted++
		return record, nil
	}
}

// Abort ends the stream with err, e.g. when the sink rejects its records.
func (s *ObjectTypeStream) Abort(err error) {
	if s.done && s.outcome.Status == domain.OutcomeFailed {
		return
	}
	s.markFailed(err)
}

// fail records err and returns what Next should return: io.EOF for
// failures local to the object type, or err itself for run-level failures.
// Only the initial token exchange (runLevel) and cancellation of ctx stop
// the run; authentication errors met later belong to the object type.
func (s *ObjectTypeStream) fail(ctx context.Context, err error, runLevel bool) error {
	s.markFailed(err)
	if runLevel || ctx.Err() != nil {
		s.fatal = err
		return err
	}
	return io.EOF
}

func (s *ObjectTypeStream) markFailed(err error) {
	s.done = true
	s.outcome.Status = domain.OutcomeFailed
	s.outcome.Error = err.Error()
	s.outcome.FinishedAt = s.now()
	if s.outcome.StartedAt.IsZero() {
		s.outcome.StartedAt = s.outcome.FinishedAt
	}

	pages, continuation := 0, ""
	if s.iter != nil {
		pages, continuation = s.iter.Pages(), s.iter.ContinuationID()
	}
	s.outcome.Pages = pages

	logger.Errorw("object type extraction failed",
		"object_type", s.spec.ObjectType,
		"table", s.outcome.Stream.Table,
		"emitted", s.outcome.Emitted,
		"skipped", s.outcome.Skipped,
		"pages", pages,
		"continuation_id", continuation,
		"full_load", s.spec.FullLoad,
		"error", err,
	)
}

func (s *ObjectTypeStream) finish() {
	s.done = true
	s.outcome.FinishedAt = s.now()
	s.outcome.Pages = s.iter.Pages()
	s.outcome.Status = domain.OutcomeSucceeded
	if s.outcome.Skipped > 0 {
		s.outcome.Status = domain.OutcomePartial
	}
}
