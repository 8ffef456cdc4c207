package savesync_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/bft-labs/savesync/pkg/lifecycle"
	"github.com/bft-labs/savesync/pkg/log"
	"github.com/bft-labs/savesync/pkg/savesync"
	"github.com/bft-labs/savesync/pkg/state"
	"github.com/bft-labs/savesync/pkg/timefmt"
)

// recordingHandler captures session events.
type recordingHandler struct {
	savesync.BaseEventHandler

	mu     sync.Mutex
	states []savesync.StateChangeEvent
	loads  []savesync.LoadEvent
	saves  []savesync.SaveEvent
}

func (h *recordingHandler) OnStateChange(e savesync.StateChangeEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.states = append(h.states, e)
}

func (h *recordingHandler) OnLoad(e savesync.LoadEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.loads = append(h.loads, e)
}

func (h *recordingHandler) OnSave(e savesync.SaveEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.saves = append(h.saves, e)
}

// trackingPlugin records Initialize and Shutdown calls.
type trackingPlugin struct {
	name      string
	order     *[]string
	initError error
	host      savesync.Host
}

func (p *trackingPlugin) Name() string { return p.name }

func (p *trackingPlugin) Initialize(ctx context.Context, cfg savesync.PluginConfig) error {
	if p.initError != nil {
		return p.initError
	}
	p.host = cfg.Host
	*p.order = append(*p.order, "init:"+p.name)
	return nil
}

func (p *trackingPlugin) Shutdown(ctx context.Context) error {
	*p.order = append(*p.order, "shutdown:"+p.name)
	return nil
}

func testSave(name string) savesync.Save {
	return savesync.Save{
		Nfo: savesync.Nfo{SaveName: name, AreaName: "Ebon Hawk", TimePlayed: 65},
		Globals: savesync.Globals{
			Booleans: []savesync.BooleanGlobal{{Name: "G_HAWK_LANDED", Value: true}},
		},
		PartyTable: savesync.PartyTable{Credits: 99},
	}
}

func newSession(t *testing.T, cfg savesync.Config, opts ...savesync.Option) *savesync.Session {
	t.Helper()
	s, err := savesync.New(cfg, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s
}

func TestNew_InvalidCommitOrder(t *testing.T) {
	_, err := savesync.New(savesync.Config{CommitOrder: "sometimes"})
	if !errors.Is(err, savesync.ErrInvalidConfig) {
		t.Errorf("New() error = %v, want ErrInvalidConfig", err)
	}
}

func TestSession_SaveAndLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "000002 - Game1")
	handler := &recordingHandler{}
	s := newSession(t, savesync.Config{}, savesync.WithEventHandler(handler))
	ctx := context.Background()

	sub := s.Subscribe()
	defer s.Unsubscribe(sub.ID)

	if err := s.SaveToDirectory(ctx, dir, testSave("Hawk")); err != nil {
		t.Fatalf("SaveToDirectory() error = %v", err)
	}
	if snap := s.Snapshot(); snap.Loaded {
		t.Fatalf("SaveToDirectory changed the active save: %+v", snap)
	}

	if err := s.LoadFromDirectory(ctx, dir); err != nil {
		t.Fatalf("LoadFromDirectory() error = %v", err)
	}
	snap := s.Snapshot()
	if snap.Path != dir {
		t.Errorf("Path = %q, want %q", snap.Path, dir)
	}
	if diff := cmp.Diff(testSave("Hawk"), snap.Save); diff != "" {
		t.Errorf("loaded save mismatch (-want +got):\n%s", diff)
	}

	select {
	case got := <-sub.C:
		if got.Path != dir || got.Revision != snap.Revision {
			t.Errorf("published snapshot = %+v, want %+v", got, snap)
		}
	case <-time.After(time.Second):
		t.Fatal("no snapshot published")
	}

	if len(handler.saves) != 1 || handler.saves[0].Err != nil || handler.saves[0].ID == "" {
		t.Errorf("save events = %+v, want one successful event with an ID", handler.saves)
	}
	if len(handler.loads) != 1 || handler.loads[0].Err != nil {
		t.Errorf("load events = %+v, want one successful event", handler.loads)
	}
}

func TestSession_FailedLoadKeepsActiveSave(t *testing.T) {
	root := t.TempDir()
	good := filepath.Join(root, "good")
	handler := &recordingHandler{}
	s := newSession(t, savesync.Config{}, savesync.WithEventHandler(handler))
	ctx := context.Background()

	if err := s.SaveToDirectory(ctx, good, testSave("Good")); err != nil {
		t.Fatalf("SaveToDirectory() error = %v", err)
	}
	if err := s.LoadFromDirectory(ctx, good); err != nil {
		t.Fatalf("LoadFromDirectory() error = %v", err)
	}
	before := s.Snapshot()

	err := s.LoadFromDirectory(ctx, filepath.Join(root, "missing"))
	if savesync.KindOf(err) != savesync.ErrNotFound {
		t.Fatalf("LoadFromDirectory() error = %v, want ErrNotFound", err)
	}
	if diff := cmp.Diff(before, s.Snapshot()); diff != "" {
		t.Errorf("active save changed on failed load:\n%s", diff)
	}
	if last := handler.loads[len(handler.loads)-1]; last.Err == nil {
		t.Error("failed load reported without error")
	}
}

func TestSession_SaveCurrentAndReset(t *testing.T) {
	dir := t.TempDir()
	s := newSession(t, savesync.Config{})
	ctx := context.Background()

	if err := s.SaveCurrent(ctx); !errors.Is(err, savesync.ErrNoSave) {
		t.Fatalf("SaveCurrent() error = %v, want ErrNoSave", err)
	}

	if err := s.SaveToDirectory(ctx, dir, testSave("Current")); err != nil {
		t.Fatalf("SaveToDirectory() error = %v", err)
	}
	if err := s.LoadFromDirectory(ctx, dir); err != nil {
		t.Fatalf("LoadFromDirectory() error = %v", err)
	}
	if err := s.SaveCurrent(ctx); err != nil {
		t.Fatalf("SaveCurrent() error = %v", err)
	}

	s.Reset()
	if snap := s.Snapshot(); snap.Loaded || snap.Path != "" {
		t.Errorf("snapshot after Reset = %+v, want empty", snap)
	}
	if err := s.Refresh(ctx); !errors.Is(err, savesync.ErrNoSave) {
		t.Errorf("Refresh() after Reset = %v, want ErrNoSave", err)
	}
}

func TestSession_Restore(t *testing.T) {
	stateDir := t.TempDir()
	saveDir := filepath.Join(t.TempDir(), "save")
	ctx := context.Background()

	first := newSession(t, savesync.Config{StateDir: stateDir})
	if err := first.Restore(ctx); !errors.Is(err, savesync.ErrNoSave) {
		t.Fatalf("Restore() with no memory = %v, want ErrNoSave", err)
	}
	if err := first.SaveToDirectory(ctx, saveDir, testSave("Remembered")); err != nil {
		t.Fatalf("SaveToDirectory() error = %v", err)
	}
	if err := first.LoadFromDirectory(ctx, saveDir); err != nil {
		t.Fatalf("LoadFromDirectory() error = %v", err)
	}

	second := newSession(t, savesync.Config{StateDir: stateDir})
	last, err := second.LastSession(ctx)
	if err != nil {
		t.Fatalf("LastSession() error = %v", err)
	}
	if last.LastPath != saveDir || last.SaveName != "Remembered" {
		t.Errorf("LastSession() = %+v, want %s / Remembered", last, saveDir)
	}

	if err := second.Restore(ctx); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if snap := second.Snapshot(); snap.Path != saveDir || snap.Save.Nfo.SaveName != "Remembered" {
		t.Errorf("restored snapshot = %+v", snap)
	}
}

func TestSession_PluginLifecycle(t *testing.T) {
	var order []string
	a := &trackingPlugin{name: "a", order: &order}
	b := &trackingPlugin{name: "b", order: &order}
	handler := &recordingHandler{}
	s := newSession(t, savesync.Config{},
		savesync.WithPlugin(a),
		savesync.WithPlugin(b),
		savesync.WithEventHandler(handler),
	)
	ctx := context.Background()

	if s.Status() != savesync.StateStopped {
		t.Fatalf("initial Status() = %v, want Stopped", s.Status())
	}
	if err := s.Stop(); !errors.Is(err, savesync.ErrNotRunning) {
		t.Errorf("Stop() before Start = %v, want ErrNotRunning", err)
	}

	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if s.Status() != savesync.StateRunning {
		t.Errorf("Status() = %v, want Running", s.Status())
	}
	if err := s.Start(ctx); !errors.Is(err, savesync.ErrAlreadyRunning) {
		t.Errorf("second Start() = %v, want ErrAlreadyRunning", err)
	}
	if a.host == nil {
		t.Error("plugin did not receive a host")
	}

	if err := s.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if s.Status() != savesync.StateStopped {
		t.Errorf("Status() after Stop = %v, want Stopped", s.Status())
	}

	want := []string{"init:a", "init:b", "shutdown:b", "shutdown:a"}
	if diff := cmp.Diff(want, order); diff != "" {
		t.Errorf("plugin call order mismatch (-want +got):\n%s", diff)
	}

	var transitions []string
	for _, e := range handler.states {
		transitions = append(transitions, e.Previous.String()+"->"+e.Current.String())
	}
	wantTransitions := []string{
		"Stopped->Starting", "Starting->Running", "Running->Stopping", "Stopping->Stopped",
	}
	if diff := cmp.Diff(wantTransitions, transitions); diff != "" {
		t.Errorf("transitions mismatch (-want +got):\n%s", diff)
	}
}

func TestSession_PluginInitFailure(t *testing.T) {
	var order []string
	initErr := errors.New("boom")
	a := &trackingPlugin{name: "a", order: &order}
	b := &trackingPlugin{name: "b", order: &order, initError: initErr}
	s := newSession(t, savesync.Config{}, savesync.WithPlugin(a), savesync.WithPlugin(b))

	if err := s.Start(context.Background()); !errors.Is(err, initErr) {
		t.Fatalf("Start() error = %v, want %v", err, initErr)
	}
	if s.Status() != savesync.StateFailed {
		t.Errorf("Status() = %v, want Failed", s.Status())
	}
	want := []string{"init:a", "shutdown:a"}
	if diff := cmp.Diff(want, order); diff != "" {
		t.Errorf("plugin call order mismatch (-want +got):\n%s", diff)
	}
}

func TestModuleVersions(t *testing.T) {
	want := map[string]string{
		"savesync":  savesync.Version,
		"state":     state.Version,
		"log":       log.Version,
		"lifecycle": lifecycle.Version,
		"timefmt":   timefmt.Version,
	}
	if diff := cmp.Diff(want, savesync.ModuleVersions()); diff != "" {
		t.Errorf("ModuleVersions() mismatch (-want +got):\n%s", diff)
	}
}

// readOnlyEngine can read and write saves but not list them.
type readOnlyEngine struct{}

func (readOnlyEngine) Read(ctx context.Context, path string) (savesync.Save, error) {
	return savesync.Save{}, nil
}

func (readOnlyEngine) Write(ctx context.Context, path string, save savesync.Save) error {
	return nil
}

func TestSession_ListSaves(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		opts      []savesync.Option
		setup     func(t *testing.T, s *savesync.Session, root string) string
		wantNames []string
		wantErr   error
	}{
		{
			name: "saves sorted by directory",
			setup: func(t *testing.T, s *savesync.Session, root string) string {
				for dir, name := range map[string]string{
					"000003 - Game2":     "Korriban",
					"000000 - QUICKSAVE": "Quick",
					"000001 - Game0":     "Taris",
				} {
					if err := s.SaveToDirectory(ctx, filepath.Join(root, dir), testSave(name)); err != nil {
						t.Fatalf("SaveToDirectory() error = %v", err)
					}
				}
				return root
			},
			wantNames: []string{"Quick", "Taris", "Korriban"},
		},
		{
			name: "missing root",
			setup: func(t *testing.T, s *savesync.Session, root string) string {
				return filepath.Join(root, "missing")
			},
			wantErr: savesync.ErrNotFound,
		},
		{
			name: "engine without listing",
			opts: []savesync.Option{savesync.WithEngine(readOnlyEngine{})},
			setup: func(t *testing.T, s *savesync.Session, root string) string {
				return root
			},
			wantErr: errAny,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSession(t, savesync.Config{}, tt.opts...)
			root := tt.setup(t, s, t.TempDir())

			saves, err := s.ListSaves(ctx, root)
			switch {
			case tt.wantErr == errAny:
				if err == nil {
					t.Fatal("ListSaves() error = nil, want an error")
				}
				return
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ListSaves() error = %v, want %v", err, tt.wantErr)
				}
				return
			case err != nil:
				t.Fatalf("ListSaves() error = %v", err)
			}

			var names []string
			for _, entry := range saves {
				names = append(names, entry.Nfo.SaveName)
			}
			if diff := cmp.Diff(tt.wantNames, names); diff != "" {
				t.Errorf("ListSaves() mismatch (-want +got):\n%s", diff)
			}
			if s.Snapshot().Loaded {
				t.Error("ListSaves() changed the active save")
			}
		})
	}
}

var errAny = errors.New("any error")

func TestSession_ConcurrentLoadsRememberActiveSave(t *testing.T) {
	ctx := context.Background()
	stateDir := t.TempDir()
	root := t.TempDir()
	s := newSession(t, savesync.Config{StateDir: stateDir})

	const loaders = 16
	dirs := make([]string, loaders)
	for i := range dirs {
		dirs[i] = filepath.Join(root, fmt.Sprintf("%06d - Game%d", i, i))
		if err := s.SaveToDirectory(ctx, dirs[i], testSave(fmt.Sprintf("Save %d", i))); err != nil {
			t.Fatalf("SaveToDirectory() error = %v", err)
		}
	}

	for round := 0; round < 10; round++ {
		var wg sync.WaitGroup
		for _, dir := range dirs {
			wg.Add(1)
			go func(dir string) {
				defer wg.Done()
				if err := s.LoadFromDirectory(ctx, dir); err != nil {
					t.Errorf("LoadFromDirectory(%s) error = %v", dir, err)
				}
			}(dir)
		}
		wg.Wait()

		last, err := s.LastSession(ctx)
		if err != nil {
			t.Fatalf("LastSession() error = %v", err)
		}
		active := s.Snapshot()
		if last.LastPath != active.Path || last.SaveName != active.Save.Nfo.SaveName {
			t.Fatalf("round %d: remembered %s (%s), active %s (%s)",
				round, last.LastPath, last.SaveName, active.Path, active.Save.Nfo.SaveName)
		}
	}
}
