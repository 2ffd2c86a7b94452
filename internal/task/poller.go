package task

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"app/internal/provider"
)

// State is the lifecycle state of a generation task. Succeeded, Failed and
// TimedOut are terminal: once reached, polling stops and the task is
// discarded.
type State string

const (
	StateSubmitted State = "submitted"
	StatePolling   State = "polling"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
	StateTimedOut  State = "timed_out"
)

// Terminal reports whether the state absorbs all further transitions.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed || s == StateTimedOut
}

// transientErrorLimit is how many failed status checks are tolerated before
// the task is declared failed outright.
const transientErrorLimit = 5

// Job describes one remote generation run: how to submit it, how to check
// on it, and the polling budget. Interval * MaxAttempts caps the total wait;
// there is no hidden grace period.
type Job struct {
	UserID   int64
	Category Category

	Submit func(ctx context.Context) (string, error)
	Check  func(ctx context.Context, remoteTaskID string) (provider.Status, error)

	// OnStatus receives intermediate progress values, at most once per
	// distinct value. Optional.
	OnStatus func(progress string)

	Interval    time.Duration
	MaxAttempts int
}

// Result is the single terminal outcome of a run.
type Result struct {
	State        State
	RemoteTaskID string
	Output       string
	Reason       string
	Attempts     int
}

// Poller drives remote asynchronous jobs from submission to a terminal
// state. One Run per task; concurrent runs share nothing.
type Poller struct {
	logger zerolog.Logger
}

// NewPoller creates a poller with a scoped logger.
func NewPoller(logger zerolog.Logger) *Poller {
	return &Poller{logger: logger.With().Str("component", "poller").Logger()}
}

// Run submits the job and polls it until a terminal state is reached. The
// terminal Result is returned exactly once; the submit failure path returns
// synchronously without a single poll tick. Ticks are strictly sequential:
// the next one is not scheduled until the previous status check resolved.
func (p *Poller) Run(ctx context.Context, job Job) Result {
	taskID := uuid.New()
	log := p.logger.With().
		Str("task_id", taskID.String()).
		Int64("user_id", job.UserID).
		Str("category", string(job.Category)).
		Logger()

	remoteID, err := job.Submit(ctx)
	if err != nil || remoteID == "" {
		if err != nil {
			log.Error().Err(err).Msg("Submission failed")
			return Result{State: StateFailed, Reason: err.Error()}
		}
		log.Error().Msg("Provider accepted submission but returned no task id")
		return Result{State: StateFailed, Reason: "provider returned no task id"}
	}
	log.Info().Str("remote_task_id", remoteID).Msg("Task submitted, polling")

	timer := time.NewTimer(job.Interval)
	defer timer.Stop()

	attempts := 0
	transientErrors := 0
	lastProgress := ""

	for {
		select {
		case <-ctx.Done():
			log.Warn().Str("remote_task_id", remoteID).Msg("Polling aborted by context")
			return Result{State: StateFailed, RemoteTaskID: remoteID, Reason: ctx.Err().Error(), Attempts: attempts}
		case <-timer.C:
		}

		status, err := job.Check(ctx, remoteID)
		if err != nil {
			// Transient failures have their own budget and never
			// consume a poll attempt.
			transientErrors++
			log.Warn().Err(err).Int("transient_errors", transientErrors).Msg("Status check failed")
			if transientErrors >= transientErrorLimit {
				return Result{
					State:        StateFailed,
					RemoteTaskID: remoteID,
					Reason:       "status check failing repeatedly",
					Attempts:     attempts,
				}
			}
			timer.Reset(job.Interval)
			continue
		}

		switch status.Phase {
		case provider.PhaseSucceeded:
			log.Info().Str("remote_task_id", remoteID).Int("attempts", attempts).Msg("Task succeeded")
			return Result{State: StateSucceeded, RemoteTaskID: remoteID, Output: status.Output, Attempts: attempts}
		case provider.PhaseFailed:
			log.Warn().Str("remote_task_id", remoteID).Str("reason", status.Reason).Msg("Task failed remotely")
			return Result{State: StateFailed, RemoteTaskID: remoteID, Reason: status.Reason, Attempts: attempts}
		}

		if status.Progress != "" && status.Progress != lastProgress {
			lastProgress = status.Progress
			if job.OnStatus != nil {
				job.OnStatus(status.Progress)
			}
		}

		attempts++
		if attempts >= job.MaxAttempts {
			log.Warn().Str("remote_task_id", remoteID).Int("attempts", attempts).Msg("Task timed out")
			return Result{State: StateTimedOut, RemoteTaskID: remoteID, Attempts: attempts}
		}
		timer.Reset(job.Interval)
	}
}
