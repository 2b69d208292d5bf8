package client

import "sync"

// SequenceGuard drops stale search responses. The debounced directory
// filter fires overlapping requests; without cancellation a slow earlier
// response could overwrite a faster later one, so each request takes a
// ticket and only the latest ticket's response is applied.
type SequenceGuard struct {
	mu      sync.Mutex
	issued  uint64
	applied uint64
}

// Next reserves a ticket for an outgoing request.
func (g *SequenceGuard) Next() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.issued++
	return g.issued
}

// Accept reports whether the response for the given ticket should be
// applied. Responses older than one already applied, or superseded by a
// newer ticket, are dropped.
func (g *SequenceGuard) Accept(ticket uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if ticket != g.issued || ticket <= g.applied {
		return false
	}
	g.applied = ticket
	return true
}
