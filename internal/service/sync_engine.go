package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"kanban-sync/internal/board"
	"kanban-sync/internal/client"
	"kanban-sync/internal/domain"
	"kanban-sync/internal/metrics"
	"kanban-sync/internal/presence"
	"kanban-sync/internal/repository"
)

// ConnectionState is the last observed reachability of the remote store
type ConnectionState string

const (
	Online  ConnectionState = "online"
	Offline ConnectionState = "offline"
)

// Push kinds and pull triggers used as metric labels
const (
	pushDebounced = "debounced"
	pushOverride  = "override"
	pushForce     = "force"
	pushFlush     = "flush"

	pullInitial   = "initial"
	pullHeartbeat = "heartbeat"
	pullManual    = "manual"
)

// SyncConfig holds the engine timings
type SyncConfig struct {
	Debounce          time.Duration
	GraceWindow       time.Duration
	RequestTimeout    time.Duration
	PresenceRetention time.Duration
}

// SyncStatus is the sync indicator shown to the user
type SyncStatus struct {
	Connection ConnectionState
	Syncing    bool // a save is scheduled or in flight
	Loaded     bool
	LastSave   time.Time
}

// SyncEngine reconciles the local board with the shared remote document for one user session.
//
// State is guarded by mu. Remote calls are always made without holding it.
type SyncEngine struct {
	self    domain.UserID
	store   client.DocumentStore
	local   repository.SnapshotRepository
	cfg     SyncConfig
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time

	mu         sync.Mutex
	state      board.State
	viewing    *string
	connection ConnectionState
	loaded     bool
	pending    bool // save scheduled
	saving     bool // save in flight
	dirty      bool // changed while saving
	stopped    bool
	timer      *time.Timer
	timerGen   uint64
	lastSave   time.Time

	pulling atomic.Bool

	subsMu sync.Mutex
	subs   map[chan struct{}]struct{}
}

// NewSyncEngine creates an engine for the given user. Call Load before using it.
func NewSyncEngine(self domain.UserID, store client.DocumentStore, local repository.SnapshotRepository, cfg SyncConfig, m *metrics.Metrics, logger *zap.Logger) *SyncEngine {
	if cfg.Debounce <= 0 {
		cfg.Debounce = time.Second
	}
	if cfg.GraceWindow <= 0 {
		cfg.GraceWindow = 5 * time.Second
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	if cfg.PresenceRetention <= 0 {
		cfg.PresenceRetention = presence.DefaultRetention
	}
	return &SyncEngine{
		self:       self,
		store:      store,
		local:      local,
		cfg:        cfg,
		metrics:    m,
		logger:     logger.With(zap.Int("user_id", int(self))),
		now:        time.Now,
		state:      board.NewState(nil, nil),
		connection: Offline,
		subs:       make(map[chan struct{}]struct{}),
	}
}

// Self returns the session user
func (e *SyncEngine) Self() domain.UserID {
	return e.self
}

// Now returns the engine clock
func (e *SyncEngine) Now() time.Time {
	return e.now()
}

// State returns a detached copy of the current board
func (e *SyncEngine) State() board.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return board.NewState(e.state.Tasks, e.state.Presence)
}

// Viewing returns the task the local user is looking at
func (e *SyncEngine) Viewing() *string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.viewing == nil {
		return nil
	}
	v := *e.viewing
	return &v
}

// Status returns the sync indicator
func (e *SyncEngine) Status() SyncStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return SyncStatus{
		Connection: e.connection,
		Syncing:    e.pending || e.saving,
		Loaded:     e.loaded,
		LastSave:   e.lastSave,
	}
}

// Subscribe returns a channel that receives a signal after every state change.
// Signals are coalesced; call the returned func to unsubscribe.
func (e *SyncEngine) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	e.subsMu.Lock()
	e.subs[ch] = struct{}{}
	e.subsMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			e.subsMu.Lock()
			delete(e.subs, ch)
			e.subsMu.Unlock()
		})
	}
}

func (e *SyncEngine) notify() {
	e.subsMu.Lock()
	defer e.subsMu.Unlock()
	for ch := range e.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Load runs the initial reconciliation between the remote document and the local backup
func (e *SyncEngine) Load(ctx context.Context) error {
	local, err := e.local.ReadLocal(ctx)
	if err != nil {
		e.logger.Warn("Failed to read local backup", zap.Error(err))
		local = []domain.Task{}
	}

	snap, fetchErr := e.fetch(ctx)
	e.metrics.RecordPull(pullInitial, fetchErr)

	pushNow := false
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return ErrNotReady
	}
	switch {
	case fetchErr != nil:
		tasks := local
		if len(tasks) == 0 {
			tasks = board.PlaceholderTasks(e.now())
		}
		e.state = board.NewState(tasks, nil)
		e.setConnectionLocked(Offline)
		e.logger.Warn("Remote document unavailable, using local data",
			zap.Error(fetchErr),
			zap.Int("tasks", len(tasks)),
		)
	case domain.HasAttachments(local) && !domain.HasAttachments(snap.Tasks):
		// the device copy is presumed more complete, e.g. after the remote was reset
		e.state = board.NewState(local, snap.Presence)
		e.setConnectionLocked(Online)
		pushNow = true
		e.logger.Info("Local backup has media the remote lacks, pushing local tasks", zap.Int("tasks", len(local)))
	case len(snap.Tasks) > 0:
		e.state = board.NewState(snap.Tasks, snap.Presence)
		e.setConnectionLocked(Online)
	case len(local) > 0:
		e.state = board.NewState(local, snap.Presence)
		e.setConnectionLocked(Online)
		e.scheduleLocked()
	default:
		e.state = board.NewState(nil, snap.Presence)
		e.setConnectionLocked(Online)
	}
	e.loaded = true
	e.recordSizeLocked()
	e.mu.Unlock()
	e.notify()

	if pushNow {
		if err := e.flush(ctx, pushOverride); err != nil && !errors.Is(err, ErrSaveInFlight) {
			e.logger.Warn("Initial push of local tasks failed", zap.Error(err))
		}
	}
	return nil
}

// Refresh discards the in-memory board and runs the initial load again
func (e *SyncEngine) Refresh(ctx context.Context) error {
	return e.Load(ctx)
}

// Apply runs a pure mutation on the task list and schedules a save when it succeeds.
// When the mutation removes the task the local user is viewing, viewing is cleared.
func (e *SyncEngine) Apply(mutate func(tasks []domain.Task) ([]domain.Task, error)) error {
	return e.apply(func(tasks []domain.Task) ([]domain.Task, string, error) {
		next, err := mutate(tasks)
		return next, "", err
	})
}

// ApplyAndFocus is Apply for mutations that open a task, e.g. one just created.
// The returned id becomes the viewed task and travels with the same save.
func (e *SyncEngine) ApplyAndFocus(mutate func(tasks []domain.Task) ([]domain.Task, string, error)) error {
	return e.apply(mutate)
}

func (e *SyncEngine) apply(mutate func(tasks []domain.Task) ([]domain.Task, string, error)) error {
	e.mu.Lock()
	if e.stopped || !e.loaded {
		e.mu.Unlock()
		return ErrNotReady
	}
	next, focus, err := mutate(e.state.Tasks)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	switch {
	case focus != "":
		e.viewing = &focus
	case e.viewing != nil && domain.FindTask(e.state.Tasks, *e.viewing) >= 0 && domain.FindTask(next, *e.viewing) < 0:
		e.viewing = nil
	}
	e.state.Tasks = next
	e.recordSizeLocked()
	e.scheduleLocked()
	e.mu.Unlock()
	e.notify()
	return nil
}

// SetViewing records which task the local user looks at. The change travels with the next save.
func (e *SyncEngine) SetViewing(taskID *string) error {
	e.mu.Lock()
	if e.stopped || !e.loaded {
		e.mu.Unlock()
		return ErrNotReady
	}
	if sameViewing(e.viewing, taskID) {
		e.mu.Unlock()
		return nil
	}
	e.viewing = nil
	if taskID != nil {
		v := *taskID
		e.viewing = &v
	}
	e.scheduleLocked()
	e.mu.Unlock()
	e.notify()
	return nil
}

func sameViewing(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// scheduleLocked (re)starts the debounce timer. Caller holds mu.
func (e *SyncEngine) scheduleLocked() {
	if e.saving {
		e.dirty = true
		return
	}
	e.pending = true
	if e.timer != nil {
		e.timer.Stop()
	}
	// a callback that already fired while the timer was re-armed sees a newer generation and returns
	e.timerGen++
	gen := e.timerGen
	e.timer = time.AfterFunc(e.cfg.Debounce, func() {
		e.mu.Lock()
		due := e.pending && e.timerGen == gen
		e.mu.Unlock()
		if !due {
			return
		}
		if err := e.flush(context.Background(), pushDebounced); err != nil && !errors.Is(err, ErrNotReady) {
			e.logger.Debug("Debounced save failed", zap.Error(err))
		}
	})
}

func (e *SyncEngine) stopTimerLocked() {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}

// Flush performs a scheduled save right away. It is a no-op when nothing is pending.
func (e *SyncEngine) Flush(ctx context.Context) error {
	e.mu.Lock()
	pending := e.pending
	e.mu.Unlock()
	if !pending {
		return nil
	}
	return e.flush(ctx, pushFlush)
}

// flush reads the remote presence, merges the local entry and writes the whole document
func (e *SyncEngine) flush(ctx context.Context, kind string) error {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return ErrNotReady
	}
	if e.saving {
		e.dirty = true
		e.mu.Unlock()
		return ErrSaveInFlight
	}
	e.stopTimerLocked()
	e.pending = false
	e.saving = true
	tasks := domain.CloneTasks(e.state.Tasks)
	knownPresence := e.state.Presence.Clone()
	viewing := e.viewing
	e.mu.Unlock()
	e.notify()

	base := knownPresence
	if remote, err := e.fetch(ctx); err == nil {
		base = remote.Presence
	} else if !errors.Is(err, client.ErrNotConfigured) {
		e.logger.Debug("Presence read before save failed, merging into last known presence", zap.Error(err))
	}

	now := e.now()
	merged := presence.Collect(presence.Merge(base, presence.Entry(e.self, viewing, now)), now, e.cfg.PresenceRetention)

	writeErr := e.write(ctx, domain.BoardSnapshot{Tasks: tasks, Presence: merged})
	e.metrics.RecordPush(kind, writeErr)
	e.backup(ctx, tasks)

	e.mu.Lock()
	e.saving = false
	if writeErr == nil {
		e.lastSave = e.now()
		e.state.Presence = merged
		e.setConnectionLocked(Online)
	} else {
		e.setConnectionLocked(Offline)
	}
	if e.dirty && !e.stopped {
		e.dirty = false
		e.scheduleLocked()
	}
	e.mu.Unlock()
	e.notify()

	if writeErr != nil {
		e.logger.Warn("Board save failed", zap.String("kind", kind), zap.Error(writeErr))
	}
	return writeErr
}

// Pull is the heartbeat: fetch the remote document and adopt it when that is safe
func (e *SyncEngine) Pull(ctx context.Context) error {
	return e.pull(ctx, pullHeartbeat)
}

// ManualSync pulls immediately and ignores the grace window
func (e *SyncEngine) ManualSync(ctx context.Context) error {
	return e.pull(ctx, pullManual)
}

func (e *SyncEngine) pull(ctx context.Context, trigger string) error {
	if !e.pulling.CompareAndSwap(false, true) {
		e.metrics.RecordSkip("pull_in_flight")
		return nil
	}
	defer e.pulling.Store(false)

	e.mu.Lock()
	if e.stopped || !e.loaded {
		e.mu.Unlock()
		return ErrNotReady
	}
	if e.saving && trigger == pullHeartbeat {
		e.mu.Unlock()
		e.metrics.RecordSkip("save_in_flight")
		return nil
	}
	e.mu.Unlock()

	snap, err := e.fetch(ctx)
	e.metrics.RecordPull(trigger, err)
	if err != nil {
		e.mu.Lock()
		e.setConnectionLocked(Offline)
		e.mu.Unlock()
		e.notify()
		return err
	}

	var adopted []domain.Task
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return ErrNotReady
	}
	e.state.Presence = snap.Presence.Clone()
	e.setConnectionLocked(Online)

	if reason := e.reconcileLocked(snap.Tasks, trigger); reason != "" {
		e.metrics.RecordSkip(reason)
	} else if !domain.TasksEqual(snap.Tasks, e.state.Tasks) {
		e.state.Tasks = domain.CloneTasks(snap.Tasks)
		e.recordSizeLocked()
		adopted = domain.CloneTasks(snap.Tasks)
	}
	e.mu.Unlock()
	e.notify()

	if adopted != nil {
		e.logger.Debug("Adopted remote tasks", zap.String("trigger", trigger), zap.Int("tasks", len(adopted)))
		e.backup(ctx, adopted)
	}
	return nil
}

// reconcileLocked decides whether remote tasks may replace the local ones.
// It returns a skip reason, or "" when they may.
func (e *SyncEngine) reconcileLocked(remote []domain.Task, trigger string) string {
	if e.saving {
		return "save_in_flight"
	}
	if e.pending && trigger == pullHeartbeat {
		return "save_pending"
	}
	if domain.TasksEqual(remote, e.state.Tasks) {
		return ""
	}
	if len(remote) == 0 {
		// an empty remote never wipes a populated board, the local tasks are re-uploaded instead
		e.scheduleLocked()
		return "empty_remote"
	}
	if trigger == pullHeartbeat && !e.lastSave.IsZero() && e.now().Sub(e.lastSave) < e.cfg.GraceWindow {
		return "grace_window"
	}
	return ""
}

// ForcePush overwrites the remote document with the local board without reading it first
func (e *SyncEngine) ForcePush(ctx context.Context, confirmed bool) error {
	if !confirmed {
		return ErrConfirmationRequired
	}

	e.mu.Lock()
	if e.stopped || !e.loaded {
		e.mu.Unlock()
		return ErrNotReady
	}
	if e.saving {
		e.mu.Unlock()
		return ErrSaveInFlight
	}
	e.stopTimerLocked()
	e.pending = false
	e.saving = true
	tasks := domain.CloneTasks(e.state.Tasks)
	now := e.now()
	merged := presence.Collect(presence.Merge(e.state.Presence, presence.Entry(e.self, e.viewing, now)), now, e.cfg.PresenceRetention)
	e.mu.Unlock()
	e.notify()

	err := e.write(ctx, domain.BoardSnapshot{Tasks: tasks, Presence: merged})
	e.metrics.RecordPush(pushForce, err)
	e.backup(ctx, tasks)

	e.mu.Lock()
	e.saving = false
	if err == nil {
		e.lastSave = e.now()
		e.state.Presence = merged
		e.setConnectionLocked(Online)
	} else {
		e.setConnectionLocked(Offline)
	}
	if e.dirty && !e.stopped {
		e.dirty = false
		e.scheduleLocked()
	}
	e.mu.Unlock()
	e.notify()

	if err != nil {
		e.logger.Warn("Force push failed", zap.Error(err))
		return err
	}
	e.logger.Info("Force pushed local board", zap.Int("tasks", len(tasks)))
	return nil
}

// Stop cancels a scheduled save and detaches the engine. Unsaved changes are dropped.
func (e *SyncEngine) Stop() {
	e.mu.Lock()
	e.stopped = true
	e.pending = false
	e.dirty = false
	e.stopTimerLocked()
	e.mu.Unlock()
	e.notify()
}

func (e *SyncEngine) fetch(ctx context.Context) (domain.BoardSnapshot, error) {
	reqCtx, cancel := context.WithTimeout(ctx, e.cfg.RequestTimeout)
	defer cancel()
	return e.store.FetchDocument(reqCtx)
}

func (e *SyncEngine) write(ctx context.Context, snap domain.BoardSnapshot) error {
	reqCtx, cancel := context.WithTimeout(ctx, e.cfg.RequestTimeout)
	defer cancel()
	return e.store.WriteDocument(reqCtx, snap)
}

func (e *SyncEngine) backup(ctx context.Context, tasks []domain.Task) {
	if err := e.local.WriteLocal(ctx, tasks); err != nil {
		e.logger.Error("Failed to write local backup", zap.Error(err))
	}
}

func (e *SyncEngine) setConnectionLocked(c ConnectionState) {
	e.connection = c
	e.metrics.SetOnline(c == Online)
}

func (e *SyncEngine) recordSizeLocked() {
	e.metrics.SetBoardSize(len(e.state.Tasks), e.state.PayloadSize())
}
