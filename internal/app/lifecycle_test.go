package app

import (
	"sync"
	"testing"
	"time"

	"github.com/bft-labs/savesync/internal/domain"
	"github.com/bft-labs/savesync/pkg/lifecycle"
)

type stateChangeEvent struct {
	previous lifecycle.State
	current  lifecycle.State
	reason   string
}

// recordingEmitter tracks state change events.
type recordingEmitter struct {
	mu     sync.Mutex
	events []stateChangeEvent
}

func (r *recordingEmitter) OnStateChange(previous, current lifecycle.State, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, stateChangeEvent{previous, current, reason})
}

func (r *recordingEmitter) Events() []stateChangeEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]stateChangeEvent{}, r.events...)
}

func TestNewLifecycle(t *testing.T) {
	l := NewLifecycle(nil, nil)

	if l.State() != lifecycle.StateStopped {
		t.Errorf("initial state = %v, want Stopped", l.State())
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state lifecycle.State
		want  string
	}{
		{lifecycle.StateStopped, "Stopped"},
		{lifecycle.StateStarting, "Starting"},
		{lifecycle.StateRunning, "Running"},
		{lifecycle.StateStopping, "Stopping"},
		{lifecycle.StateFailed, "Failed"},
		{lifecycle.State(99), "Unknown"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %s, want %s", tt.state, got, tt.want)
		}
	}
}

func TestLifecycle_TransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		from    lifecycle.State
		to      lifecycle.State
		wantErr error
	}{
		{"stopped to starting", lifecycle.StateStopped, lifecycle.StateStarting, nil},
		{"starting to running", lifecycle.StateStarting, lifecycle.StateRunning, nil},
		{"starting to stopping", lifecycle.StateStarting, lifecycle.StateStopping, nil},
		{"starting to failed", lifecycle.StateStarting, lifecycle.StateFailed, nil},
		{"running to stopping", lifecycle.StateRunning, lifecycle.StateStopping, nil},
		{"stopping to stopped", lifecycle.StateStopping, lifecycle.StateStopped, nil},
		{"failed to starting", lifecycle.StateFailed, lifecycle.StateStarting, nil},
		{"stopped to running", lifecycle.StateStopped, lifecycle.StateRunning, domain.ErrNotRunning},
		{"stopped to stopping", lifecycle.StateStopped, lifecycle.StateStopping, domain.ErrNotRunning},
		{"failed to stopped", lifecycle.StateFailed, lifecycle.StateStopped, domain.ErrNotRunning},
		{"running to starting", lifecycle.StateRunning, lifecycle.StateStarting, domain.ErrAlreadyRunning},
		{"running to stopped", lifecycle.StateRunning, lifecycle.StateStopped, domain.ErrAlreadyRunning},
		{"stopping to running", lifecycle.StateStopping, lifecycle.StateRunning, domain.ErrAlreadyRunning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLifecycle(nil, nil)
			l.state = tt.from

			err := l.TransitionTo(tt.to, "test")
			if err != tt.wantErr {
				t.Fatalf("TransitionTo() error = %v, want %v", err, tt.wantErr)
			}

			want := tt.to
			if tt.wantErr != nil {
				want = tt.from
			}
			if l.State() != want {
				t.Errorf("state = %v, want %v", l.State(), want)
			}
		})
	}
}

func TestLifecycle_TransitionTo_EmitsEvents(t *testing.T) {
	emitter := &recordingEmitter{}
	l := NewLifecycle(nil, emitter)

	_ = l.TransitionTo(lifecycle.StateStarting, "start")
	_ = l.TransitionTo(lifecycle.StateRunning, "ready")
	_ = l.TransitionTo(lifecycle.StateStarting, "refused")

	want := []stateChangeEvent{
		{lifecycle.StateStopped, lifecycle.StateStarting, "start"},
		{lifecycle.StateStarting, lifecycle.StateRunning, "ready"},
	}
	got := emitter.Events()
	if len(got) != len(want) {
		t.Fatalf("got %d events, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestLifecycle_CanStartCanStop(t *testing.T) {
	tests := []struct {
		state     lifecycle.State
		wantStart bool
		wantStop  bool
	}{
		{lifecycle.StateStopped, true, false},
		{lifecycle.StateStarting, false, true},
		{lifecycle.StateRunning, false, true},
		{lifecycle.StateStopping, false, false},
		{lifecycle.StateFailed, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			l := NewLifecycle(nil, nil)
			l.state = tt.state

			if got := l.CanStart(); got != tt.wantStart {
				t.Errorf("CanStart() = %v, want %v", got, tt.wantStart)
			}
			if got := l.CanStop(); got != tt.wantStop {
				t.Errorf("CanStop() = %v, want %v", got, tt.wantStop)
			}
		})
	}
}

func TestLifecycle_WaitWithTimeout_Success(t *testing.T) {
	l := NewLifecycle(nil, nil)

	l.Go(func() { time.Sleep(10 * time.Millisecond) })

	if err := l.WaitWithTimeout(time.Second); err != nil {
		t.Errorf("WaitWithTimeout() = %v, want nil", err)
	}
}

func TestLifecycle_WaitWithTimeout_Timeout(t *testing.T) {
	l := NewLifecycle(nil, nil)
	release := make(chan struct{})
	defer close(release)

	l.Go(func() { <-release })

	if err := l.WaitWithTimeout(10 * time.Millisecond); err != domain.ErrShutdownTimeout {
		t.Errorf("WaitWithTimeout() = %v, want ErrShutdownTimeout", err)
	}
}

func TestLifecycle_Concurrency(t *testing.T) {
	l := NewLifecycle(nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = l.State()
				_ = l.CanStart()
				_ = l.CanStop()
			}
		}()
	}
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.TransitionTo(lifecycle.StateStarting, "test")
			_ = l.TransitionTo(lifecycle.StateRunning, "test")
		}()
	}
	wg.Wait()

	if l.State() != lifecycle.StateRunning {
		t.Errorf("state = %v, want Running", l.State())
	}
}
