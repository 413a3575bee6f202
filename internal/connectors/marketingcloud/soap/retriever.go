package soap

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/custodia-labs/sfmc-extract/internal/core/domain"
	"github.com/custodia-labs/sfmc-extract/internal/logger"
)

// Retriever drives the Retrieve/Continue cycle for object types.
type Retriever struct {
	client *Client
	auth   *Authenticator
	now    func() time.Time
}

// NewRetriever creates a retriever that signs requests through auth.
func NewRetriever(client *Client, auth *Authenticator) *Retriever {
	return &Retriever{
		client: client,
		auth:   auth,
		now:    time.Now,
	}
}

// Retrieve starts a fresh retrieval session for spec.
// No request is sent until the first call to Next.
func (r *Retriever) Retrieve(spec domain.ObjectTypeSpec) *ObjectIterator {
	return &ObjectIterator{
		retriever: r,
		spec:      spec,
		session:   &RetrieveSession{ObjectType: spec.ObjectType},
	}
}

// buildInitialRequest builds the first Retrieve of a session.
func buildInitialRequest(spec domain.ObjectTypeSpec, now time.Time) *RetrieveRequest {
	req := &RetrieveRequest{
		ObjectType: spec.ObjectType,
		Properties: append([]string(nil), spec.Properties...),
	}
	if spec.UsesFilter() {
		since := now.AddDate(0, 0, -spec.DaysBack)
		req.Filter = NewDateFilter(spec.FilterProperty, spec.Operator(), since)
	}
	return req
}

// buildContinueRequest builds a continuation Retrieve. The server remembers
// the original properties and filter.
func buildContinueRequest(objectType, requestID string) *RetrieveRequest {
	return &RetrieveRequest{
		ObjectType:      objectType,
		ContinueRequest: requestID,
	}
}

// describeScope names what an initial request retrieves.
func describeScope(spec domain.ObjectTypeSpec) string {
	switch {
	case spec.FullLoad:
		return fmt.Sprintf("all %s objects (full load)", spec.ObjectType)
	case !spec.UsesFilter():
		return fmt.Sprintf("all %s objects (no filter)", spec.ObjectType)
	default:
		return fmt.Sprintf("%s objects from the last %d days", spec.ObjectType, spec.DaysBack)
	}
}

// ObjectIterator yields the raw objects of one retrieval session lazily.
// Pages are fetched strictly in order; it is not safe for concurrent use.
type ObjectIterator struct {
	retriever *Retriever
	spec      domain.ObjectTypeSpec
	session   *RetrieveSession
	pending   []domain.RawObject
	started   bool
	done      bool
	err       error
}

// Next returns the next raw object, fetching another page when needed.
// It returns io.EOF once the session is exhausted. After an error every
// subsequent call returns the same error.
func (it *ObjectIterator) Next(ctx context.Context) (domain.RawObject, error) {
	for {
		if len(it.pending) > 0 {
			obj := it.pending[0]
			it.pending[0] = nil
			it.pending = it.pending[1:]
			return obj, nil
		}
		if it.err != nil {
			return nil, it.err
		}
		if it.done {
			return nil, io.EOF
		}
		if err := ctx.Err(); err != nil {
			it.err = err
			return nil, err
		}
		if err := it.fetch(ctx); err != nil {
			it.err = err
			return nil, err
		}
	}
}

// Session returns a snapshot of the cursor state.
func (it *ObjectIterator) Session() RetrieveSession {
	return *it.session
}

func (it *ObjectIterator) fetch(ctx context.Context) error {
	objectType := it.spec.ObjectType

	var req *RetrieveRequest
	switch {
	case !it.started:
		it.started = true
		req = buildInitialRequest(it.spec, it.retriever.now())
		logger.Info("fetching %s", describeScope(it.spec))
	case it.session.HasMore():
		logger.Info("fetching more %s data (retrieved %d so far)", objectType, it.session.Retrieved)
		req = buildContinueRequest(objectType, it.session.RequestID)
	default:
		it.done = true
		logger.Info("retrieved %d %s records in total", it.session.Retrieved, objectType)
		return nil
	}

	resp, err := it.retriever.auth.Execute(ctx, func(ctx context.Context, token string) Result {
		return it.retriever.client.Retrieve(ctx, token, req)
	})
	if err != nil {
		return fmt.Errorf("retrieve %s page %d: %w", objectType, it.session.Pages+1, err)
	}

	it.session.Advance(resp)
	it.pending = resp.Objects

	logger.Debug("soap: %s page %d: %d objects, status=%s, requestID=%s",
		objectType, it.session.Pages, len(resp.Objects), resp.OverallStatus, resp.RequestID)
	return nil
}

// Pages returns the number of completed round trips.
func (it *ObjectIterator) Pages() int {
	return it.session.Pages
}

// ContinuationID returns the latest continuation identifier.
func (it *ObjectIterator) ContinuationID() string {
	return it.session.RequestID
}
