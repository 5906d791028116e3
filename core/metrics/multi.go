package metrics

import "errors"

// MultiSink fans events out to several sinks, collecting their errors.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink combines the given sinks into one.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// RecordStep forwards the event to every sink.
func (m *MultiSink) RecordStep(ev StepEvent) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.RecordStep(ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordRun forwards the event to every sink.
func (m *MultiSink) RecordRun(ev RunEvent) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.RecordRun(ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
