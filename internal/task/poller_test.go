package task

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"app/internal/provider"
)

func testJob(script func(call int) (provider.Status, error)) (*Job, *int) {
	calls := new(int)
	job := &Job{
		UserID:   1,
		Category: CategoryImage,
		Submit: func(ctx context.Context) (string, error) {
			return "remote-1", nil
		},
		Check: func(ctx context.Context, id string) (provider.Status, error) {
			*calls++
			return script(*calls)
		},
		Interval:    time.Millisecond,
		MaxAttempts: 10,
	}
	return job, calls
}

func TestRunFailsSynchronouslyWhenSubmitErrors(t *testing.T) {
	p := NewPoller(zerolog.Nop())
	checks := 0
	job := Job{
		UserID:   1,
		Category: CategoryImage,
		Submit: func(ctx context.Context) (string, error) {
			return "", errors.New("provider down")
		},
		Check: func(ctx context.Context, id string) (provider.Status, error) {
			checks++
			return provider.Status{}, nil
		},
		Interval:    time.Millisecond,
		MaxAttempts: 10,
	}

	res := p.Run(context.Background(), job)
	if res.State != StateFailed {
		t.Fatalf("state = %s, want %s", res.State, StateFailed)
	}
	if checks != 0 {
		t.Fatalf("%d poll ticks ran after a failed submission, want 0", checks)
	}
}

func TestRunFailsWhenSubmitReturnsNoTaskID(t *testing.T) {
	p := NewPoller(zerolog.Nop())
	job := Job{
		UserID:      1,
		Category:    CategoryVideo,
		Submit:      func(ctx context.Context) (string, error) { return "", nil },
		Check:       func(ctx context.Context, id string) (provider.Status, error) { return provider.Status{}, nil },
		Interval:    time.Millisecond,
		MaxAttempts: 10,
	}

	res := p.Run(context.Background(), job)
	if res.State != StateFailed {
		t.Fatalf("state = %s, want %s", res.State, StateFailed)
	}
}

func TestRunTimesOutAfterExactlyMaxAttempts(t *testing.T) {
	p := NewPoller(zerolog.Nop())
	job, calls := testJob(func(call int) (provider.Status, error) {
		return provider.Status{Phase: provider.PhaseProcessing}, nil
	})
	job.MaxAttempts = 7

	res := p.Run(context.Background(), *job)
	if res.State != StateTimedOut {
		t.Fatalf("state = %s, want %s", res.State, StateTimedOut)
	}
	if *calls != 7 {
		t.Fatalf("%d status checks ran, want exactly 7", *calls)
	}
	if res.Attempts != 7 {
		t.Fatalf("attempts = %d, want 7", res.Attempts)
	}
}

func TestRunSucceedsAndCarriesOutput(t *testing.T) {
	p := NewPoller(zerolog.Nop())
	job, calls := testJob(func(call int) (provider.Status, error) {
		if call < 3 {
			return provider.Status{Phase: provider.PhaseProcessing}, nil
		}
		return provider.Status{Phase: provider.PhaseSucceeded, Output: "https://cdn.example/img.png"}, nil
	})

	res := p.Run(context.Background(), *job)
	if res.State != StateSucceeded {
		t.Fatalf("state = %s, want %s", res.State, StateSucceeded)
	}
	if res.Output != "https://cdn.example/img.png" {
		t.Fatalf("output = %q", res.Output)
	}
	if *calls != 3 {
		t.Fatalf("%d status checks ran, want 3", *calls)
	}
}

func TestRunStopsOnRemoteFailure(t *testing.T) {
	p := NewPoller(zerolog.Nop())
	job, calls := testJob(func(call int) (provider.Status, error) {
		if call == 1 {
			return provider.Status{Phase: provider.PhaseQueued}, nil
		}
		return provider.Status{Phase: provider.PhaseFailed, Reason: "nsfw content"}, nil
	})

	res := p.Run(context.Background(), *job)
	if res.State != StateFailed {
		t.Fatalf("state = %s, want %s", res.State, StateFailed)
	}
	if res.Reason != "nsfw content" {
		t.Fatalf("reason = %q", res.Reason)
	}
	if *calls != 2 {
		t.Fatalf("%d status checks ran, want 2", *calls)
	}
}

func TestTransientErrorsDoNotConsumeAttempts(t *testing.T) {
	p := NewPoller(zerolog.Nop())
	job, calls := testJob(func(call int) (provider.Status, error) {
		// Four network blips, then success. The transient budget (5)
		// is never reached and no attempt is consumed by a blip.
		if call <= 4 {
			return provider.Status{}, errors.New("connection reset")
		}
		return provider.Status{Phase: provider.PhaseSucceeded, Output: "out"}, nil
	})
	job.MaxAttempts = 1

	res := p.Run(context.Background(), *job)
	if res.State != StateSucceeded {
		t.Fatalf("state = %s, want %s", res.State, StateSucceeded)
	}
	if *calls != 5 {
		t.Fatalf("%d status checks ran, want 5", *calls)
	}
	if res.Attempts != 0 {
		t.Fatalf("attempts = %d, want 0", res.Attempts)
	}
}

func TestRepeatedTransientErrorsFailTheTask(t *testing.T) {
	p := NewPoller(zerolog.Nop())
	job, calls := testJob(func(call int) (provider.Status, error) {
		return provider.Status{}, errors.New("upstream 502")
	})

	res := p.Run(context.Background(), *job)
	if res.State != StateFailed {
		t.Fatalf("state = %s, want %s", res.State, StateFailed)
	}
	if res.Reason != "status check failing repeatedly" {
		t.Fatalf("reason = %q", res.Reason)
	}
	if *calls != 5 {
		t.Fatalf("%d status checks ran before giving up, want 5", *calls)
	}
}

func TestProgressNotifiedOncePerDistinctValue(t *testing.T) {
	p := NewPoller(zerolog.Nop())
	progresses := []string{"10%", "10%", "10%", "50%", "50%", "90%"}
	job, _ := testJob(func(call int) (provider.Status, error) {
		if call <= len(progresses) {
			return provider.Status{Phase: provider.PhaseProcessing, Progress: progresses[call-1]}, nil
		}
		return provider.Status{Phase: provider.PhaseSucceeded, Output: "out"}, nil
	})

	var notified []string
	job.OnStatus = func(progress string) { notified = append(notified, progress) }

	res := p.Run(context.Background(), *job)
	if res.State != StateSucceeded {
		t.Fatalf("state = %s, want %s", res.State, StateSucceeded)
	}
	want := []string{"10%", "50%", "90%"}
	if len(notified) != len(want) {
		t.Fatalf("notified %v, want %v", notified, want)
	}
	for i := range want {
		if notified[i] != want[i] {
			t.Fatalf("notified %v, want %v", notified, want)
		}
	}
}

func TestRunReachesExactlyOneTerminalState(t *testing.T) {
	// A messy but realistic sequence: queued, blip, processing with
	// progress, blip, then success. Exactly one terminal result.
	p := NewPoller(zerolog.Nop())
	job, calls := testJob(func(call int) (provider.Status, error) {
		switch call {
		case 1:
			return provider.Status{Phase: provider.PhaseQueued}, nil
		case 2:
			return provider.Status{}, errors.New("timeout")
		case 3:
			return provider.Status{Phase: provider.PhaseProcessing, Progress: "30%"}, nil
		case 4:
			return provider.Status{}, errors.New("timeout")
		default:
			return provider.Status{Phase: provider.PhaseSucceeded, Output: "done"}, nil
		}
	})

	res := p.Run(context.Background(), *job)
	if res.State != StateSucceeded {
		t.Fatalf("state = %s, want %s", res.State, StateSucceeded)
	}
	if *calls != 5 {
		t.Fatalf("%d status checks ran, want 5", *calls)
	}
	if !res.State.Terminal() {
		t.Fatal("result state is not terminal")
	}
}
