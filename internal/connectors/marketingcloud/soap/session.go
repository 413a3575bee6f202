package soap

// RetrieveSession is the cursor state of one retrieval run.
// It lives only for the run; continuation ids are not valid across runs.
type RetrieveSession struct {
	ObjectType string
	// RequestID is the continuation identifier from the latest response.
	RequestID string
	// MoreData is true when the latest response reported MoreDataAvailable.
	MoreData bool
	// Retrieved is the cumulative number of objects returned.
	Retrieved int
	// Pages is the number of completed round trips.
	Pages int
}

// Advance records a response.
func (s *RetrieveSession) Advance(resp *RetrieveResponse) {
	s.Pages++
	s.Retrieved += len(resp.Objects)
	s.RequestID = resp.RequestID
	s.MoreData = resp.MoreData()
}

// HasMore reports whether a Continue request should be issued.
// Both the more-data flag and a continuation identifier are required.
func (s *RetrieveSession) HasMore() bool {
	return s.MoreData && s.RequestID != ""
}
