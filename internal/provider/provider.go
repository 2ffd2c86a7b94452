// Package provider contains the clients for the remote generation APIs and
// the category-agnostic status shape the task poller consumes. Each provider
// speaks its own wire format; the mapping into Status lives next to the
// client so the poller never sees provider payloads.
package provider

import "context"

// Phase is the provider-neutral lifecycle phase of a remote job.
type Phase string

const (
	PhaseQueued     Phase = "queued"
	PhaseProcessing Phase = "processing"
	PhaseSucceeded  Phase = "succeeded"
	PhaseFailed     Phase = "failed"
)

// Terminal reports whether no further phase change can occur.
func (p Phase) Terminal() bool {
	return p == PhaseSucceeded || p == PhaseFailed
}

// Status is the normalized answer to a status check.
type Status struct {
	Phase Phase
	// Output carries the result location (e.g. a URL) once Phase is
	// PhaseSucceeded.
	Output string
	// Progress is a provider-supplied progress label ("42%", "rendering").
	// Empty when the provider reports none.
	Progress string
	// Reason carries the provider's failure description when Phase is
	// PhaseFailed.
	Reason string
}

// Request is a generation request forwarded to a remote provider.
type Request struct {
	Prompt string
	UserID int64
}

// GenerationAPI is the narrow contract a remote asynchronous generation
// provider must satisfy. Submit returns the remote task id; CheckStatus maps
// the provider's payload into the neutral Status shape.
type GenerationAPI interface {
	Submit(ctx context.Context, req Request) (string, error)
	CheckStatus(ctx context.Context, remoteTaskID string) (Status, error)
}
