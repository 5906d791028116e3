package mqtt

import (
	"sync"

	coremetrics "github.com/kilianp07/sitesim/core/metrics"
)

// MockPublisher records published step events; used in tests.
type MockPublisher struct {
	mu     sync.Mutex
	Events []coremetrics.StepEvent
}

// NewMockPublisher creates an empty MockPublisher.
func NewMockPublisher() *MockPublisher { return &MockPublisher{} }

// PublishStep stores the event.
func (m *MockPublisher) PublishStep(ev coremetrics.StepEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, ev)
	return nil
}

// Close is a no-op.
func (m *MockPublisher) Close() {}

// Published returns a copy of the recorded events.
func (m *MockPublisher) Published() []coremetrics.StepEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]coremetrics.StepEvent, len(m.Events))
	copy(out, m.Events)
	return out
}
