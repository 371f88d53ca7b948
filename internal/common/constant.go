package common

// DefaultMaxRetries bounds upload attempts per queue entry.
//
// The background worker and any inspection code (read model, CLI) must use
// the same cutoff; if two code paths disagree, an entry can bounce between
// "one more retry" and "exhausted" forever.
const DefaultMaxRetries = 3

// MaxRetriesExceededReason is the terminal LastError value set when the
// retry policy gives up on an entry.
const MaxRetriesExceededReason = "Max retries exceeded"
