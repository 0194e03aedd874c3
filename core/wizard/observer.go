package wizard

import "time"

// Navigation actions & submission statuses reported to an Observer.
const (
	ActionNext   = "next"
	ActionBack   = "back"
	ActionJump   = "jump"
	ActionChange = "change"

	StatusSuccess    = "success"
	StatusIncomplete = "incomplete"
	StatusFailed     = "failed"
)

// Observer is notified of wizard activity, eg. to export metrics.
type Observer interface {
	ObserveTransition(flow, action, outcome string)
	ObserveSubmission(flow, status string, elapsed time.Duration)
}

// NopObserver ignores everything.
type NopObserver struct{}

func (NopObserver) ObserveTransition(string, string, string)        {}
func (NopObserver) ObserveSubmission(string, string, time.Duration) {}
