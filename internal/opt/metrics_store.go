package opt

import "sync"

// ReportStore keeps the latest RoundReport of every session in process. It
// backs the lastReport field of the session lookup.
type ReportStore struct {
	mu      sync.Mutex
	reports map[string]RoundReport
}

func NewReportStore() *ReportStore {
	return &ReportStore{reports: map[string]RoundReport{}}
}

func (s *ReportStore) Record(sessionID string, r RoundReport) {
	s.mu.Lock()
	s.reports[sessionID] = r
	s.mu.Unlock()
}

func (s *ReportStore) Last(sessionID string) (RoundReport, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[sessionID]
	return r, ok
}

func (s *ReportStore) Forget(sessionID string) {
	s.mu.Lock()
	delete(s.reports, sessionID)
	s.mu.Unlock()
}
