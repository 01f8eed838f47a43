package domain

import "context"

// SyncOutcome represents the batch-level result of one sync run
type SyncOutcome string

const (
	OutcomeUpdated   SyncOutcome = "updated"
	OutcomeNoChanges SyncOutcome = "no_changes"
	OutcomeFailed    SyncOutcome = "failed"
)

// TransferResult is one repository's completion notification from the
// transfer engine. Results arrive in arbitrary order, so consumers must
// key on URI, never on position.
type TransferResult struct {
	URI         string
	LocalPath   string
	ChangeToken string
	Err         error
}

// TransferCallback receives one TransferResult per target, from any
// goroutine, in any order.
type TransferCallback func(result TransferResult)

// TransferEngine downloads a batch of repository archives concurrently.
type TransferEngine interface {
	// FetchAll downloads every target, firing onComplete once per target,
	// and blocks until the whole batch has completed. It returns an error
	// if any target failed to download.
	FetchAll(ctx context.Context, targets []string, onComplete TransferCallback) error
}

// TokenProbe retrieves the current change-token for a repository without
// transferring its body.
type TokenProbe interface {
	// CurrentToken returns the repository's current change-token, or an
	// error if the probe failed.
	CurrentToken(ctx context.Context, uri string) (string, error)
}

// Reporter receives user-facing progress and messages. Both methods are
// fire-and-forget and must tolerate high-frequency calls.
type Reporter interface {
	// Progress reports a percentage for the given label
	Progress(percent int, label string)

	// Message reports a human-readable status line
	Message(text string)
}
