package queue

// Decision is the retry policy's verdict on a failed upload attempt.
type Decision int

const (
	// DecisionRetry sends the entry back to pending for the next pass.
	DecisionRetry Decision = iota

	// DecisionGiveUp fails the entry permanently.
	DecisionGiveUp
)

// Decide is the retry policy. Pure: the caller applies the verdict.
//
// The policy computes no backoff delay of its own; retried entries wait
// for the next connectivity-restoration trigger, which is the natural
// pacing — the queue is never drained more often than the network comes
// back.
func Decide(retryCount, maxRetries int) Decision {
	if retryCount+1 < maxRetries {
		return DecisionRetry
	}
	return DecisionGiveUp
}
