package session

// MaxRetryTimes is the default consecutive-failure tolerance before the
// policy escalates.
const MaxRetryTimes = 3

// Decision is the retry policy verdict after a retryable failure.
type Decision int

const (
	Continue Decision = iota
	Escalate
)

// RetryPolicy counts consecutive retryable failures for one connected run.
// Timing is not its concern; the Engine owns all waits. Not safe for
// concurrent use; ownership is exclusive to one Engine.
type RetryPolicy struct {
	max         int
	consecutive int
}

func NewRetryPolicy(max int) *RetryPolicy {
	if max <= 0 {
		max = MaxRetryTimes
	}
	return &RetryPolicy{max: max}
}

// OnSuccess resets the consecutive-failure counter.
func (p *RetryPolicy) OnSuccess() {
	p.consecutive = 0
}

// OnFailure records one retryable failure and reports whether the run has
// exceeded tolerance. The failure that pushes the counter past max is the
// one that escalates.
func (p *RetryPolicy) OnFailure() Decision {
	p.consecutive++
	if p.consecutive > p.max {
		return Escalate
	}
	return Continue
}

// Reset clears the counter for a new connected run, decoupling long-run
// accounting from single endpoint flakiness.
func (p *RetryPolicy) Reset() {
	p.consecutive = 0
}

// Failures returns the current consecutive-failure count.
func (p *RetryPolicy) Failures() int {
	return p.consecutive
}
