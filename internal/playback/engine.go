// Package playback drives the progressive, speed-controlled replay of a
// player's historical rating/rank series. Snapshot detail is fetched lazily
// in per-tick batches; the engine owns a single session's state machine
// (play / pause / restart / speed) and guarantees that revealed points are a
// gap-free, chronologically ordered prefix of the snapshot index.
package playback

import (
	"context"
	"log"
	"sync"
	"time"

	"cricket-rank-lab/internal/domain"
)

// DefaultInterval is the tick cadence: one batch per interval.
const DefaultInterval = 1 * time.Second

// Point is one snapshot's rating and rank for the session's player.
type Point struct {
	Rating float64
	Rank   int
}

// PointSource fetches one snapshot's point for the session's player.
// A (nil, nil) return means the player is absent from that snapshot; the
// point is dropped, not retried.
type PointSource interface {
	FetchPoint(ctx context.Context, snapshotID string) (*Point, error)
}

// PointSourceFunc adapts a function to the PointSource interface.
type PointSourceFunc func(ctx context.Context, snapshotID string) (*Point, error)

// FetchPoint calls f.
func (f PointSourceFunc) FetchPoint(ctx context.Context, snapshotID string) (*Point, error) {
	return f(ctx, snapshotID)
}

// State is a read-only snapshot of session state for rendering.
type State struct {
	LoadedPoints  []domain.TimelineDataPoint
	Cursor        int // index of the last loaded point, -1 before any load
	Playing       bool
	Loading       bool
	Complete      bool
	Speed         int
	SnapshotCount int
	Dropped       int // points dropped on fetch failure or player absence
}

// Engine is a single-session playback state machine over a fixed,
// pre-known snapshot index. One Engine is exclusively owned by one view
// instance and must not be shared across sessions.
type Engine struct {
	snapshots []domain.SnapshotMetadata
	source    PointSource
	scheduler Scheduler
	interval  time.Duration
	logger    *log.Logger

	// onProgress, when set, is notified of cursor/N whenever playback
	// advances. It is invoked on its own goroutine and never awaited:
	// keeping the bound view scrolled is not state-machine logic.
	onProgress func(float64)

	mu         sync.Mutex
	ctx        context.Context // fetch context, set by Play
	loaded     []domain.TimelineDataPoint
	attempted  int // snapshot indices fetched so far (loaded prefix length incl. drops)
	dropped    int
	cursor     int
	speed      int
	playing    bool
	loading    bool
	complete   bool
	closed     bool
	cancelTick CancelFunc
}

// Options contains configuration for creating an Engine.
type Options struct {
	Snapshots  []domain.SnapshotMetadata // ordered, date-ascending; never reordered
	Source     PointSource
	Scheduler  Scheduler     // defaults to TimerScheduler
	Interval   time.Duration // defaults to DefaultInterval
	OnProgress func(float64)
	Logger     *log.Logger
}

// New creates a playback engine in the idle state (cursor -1, speed 1x).
func New(opts Options) *Engine {
	scheduler := opts.Scheduler
	if scheduler == nil {
		scheduler = TimerScheduler{}
	}

	interval := opts.Interval
	if interval == 0 {
		interval = DefaultInterval
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Engine{
		snapshots:  opts.Snapshots,
		source:     opts.Source,
		scheduler:  scheduler,
		interval:   interval,
		onProgress: opts.OnProgress,
		logger:     logger,
		cursor:     -1,
		speed:      1,
	}
}

// Play starts or resumes playback. Starting fresh loads the first batch
// synchronously (the only synchronous load) before ticking begins. Called
// from Complete it performs a full implicit restart first. Play is rejected
// while a batch load is in flight and is a no-op while already playing.
func (e *Engine) Play(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	if len(e.snapshots) == 0 {
		e.mu.Unlock()
		return ErrNoSnapshots
	}
	if e.loading {
		e.mu.Unlock()
		return ErrLoadInFlight
	}
	if e.playing {
		e.mu.Unlock()
		return nil
	}

	if e.complete {
		e.resetLocked()
	}
	e.ctx = ctx

	if e.attempted == 0 {
		// Fresh session: load the first batch before entering Playing.
		batch := e.takeBatchLocked()
		e.loading = true
		e.mu.Unlock()

		points := e.fetchBatch(ctx, batch)

		e.mu.Lock()
		e.loading = false
		e.applyBatchLocked(batch, points)
		if e.closed {
			e.mu.Unlock()
			return ErrClosed
		}
	}

	e.playing = true
	if e.attempted >= len(e.snapshots) {
		e.completeLocked()
		e.mu.Unlock()
		return nil
	}
	e.scheduleTickLocked()
	e.mu.Unlock()

	e.notifyProgress()
	return nil
}

// Pause cancels the scheduled next tick and retains loaded points and cursor.
// An already in-flight batch fetch is allowed to complete and its results are
// still appended: only future scheduling is suppressed. Idempotent.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.playing = false
	if e.cancelTick != nil {
		e.cancelTick()
		e.cancelTick = nil
	}
}

// Restart clears the session back to idle regardless of current state.
// Rejected while a batch load is in flight.
func (e *Engine) Restart() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrClosed
	}
	if e.loading {
		return ErrLoadInFlight
	}

	e.resetLocked()
	return nil
}

// SetSpeed changes the batch size used by subsequent ticks. Allowed values
// are 1, 2 and 4 points per tick. Rejected while playing or loading.
func (e *Engine) SetSpeed(multiplier int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrClosed
	}
	if e.playing {
		return ErrPlaying
	}
	if e.loading {
		return ErrLoadInFlight
	}
	if multiplier != 1 && multiplier != 2 && multiplier != 4 {
		return ErrInvalidSpeed
	}

	e.speed = multiplier
	return nil
}

// State returns a copy of the current session state for rendering.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	points := make([]domain.TimelineDataPoint, len(e.loaded))
	copy(points, e.loaded)

	return State{
		LoadedPoints:  points,
		Cursor:        e.cursor,
		Playing:       e.playing,
		Loading:       e.loading,
		Complete:      e.complete,
		Speed:         e.speed,
		SnapshotCount: len(e.snapshots),
		Dropped:       e.dropped,
	}
}

// Progress returns the visible-progress fraction (cursor+1)/N.
func (e *Engine) Progress() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.snapshots) == 0 {
		return 0
	}
	return float64(e.cursor+1) / float64(len(e.snapshots))
}

// Close tears the session down, releasing the tick timer so no further state
// mutation happens after the owning view unmounts.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.closed = true
	e.playing = false
	if e.cancelTick != nil {
		e.cancelTick()
		e.cancelTick = nil
	}
}

// scheduleTickLocked schedules the next tick. Callers hold e.mu. At most one
// tick is ever outstanding: ticks are scheduled only here and in tick()
// after the current batch has fully resolved.
func (e *Engine) scheduleTickLocked() {
	e.cancelTick = e.scheduler.Schedule(e.interval, e.tick)
}

// tick loads one batch sized by the current speed, appends the successfully
// resolved points and advances the cursor. The next tick is scheduled only
// after the entire batch has resolved, so batches never overlap.
func (e *Engine) tick() {
	e.mu.Lock()
	if e.closed || !e.playing || e.loading {
		e.mu.Unlock()
		return
	}

	batch := e.takeBatchLocked()
	if len(batch) == 0 {
		e.completeLocked()
		e.mu.Unlock()
		return
	}
	e.loading = true
	ctx := e.ctx
	e.mu.Unlock()

	points := e.fetchBatch(ctx, batch)

	e.mu.Lock()
	e.loading = false
	e.applyBatchLocked(batch, points)
	if e.closed {
		e.mu.Unlock()
		return
	}
	if e.attempted >= len(e.snapshots) {
		e.completeLocked()
		e.mu.Unlock()
		return
	}
	if e.playing {
		e.scheduleTickLocked()
	}
	e.mu.Unlock()

	e.notifyProgress()
}

// takeBatchLocked returns the next unloaded snapshot slice, sized by the
// current speed clamped to the remaining unloaded count. Callers hold e.mu.
func (e *Engine) takeBatchLocked() []domain.SnapshotMetadata {
	remaining := len(e.snapshots) - e.attempted
	size := e.speed
	if size > remaining {
		size = remaining
	}
	if size <= 0 {
		return nil
	}
	return e.snapshots[e.attempted : e.attempted+size]
}

// fetchBatch fetches all points of a batch concurrently (join-all). Failed or
// absent points come back nil: dropped, never retried, never aborting the
// batch.
func (e *Engine) fetchBatch(ctx context.Context, batch []domain.SnapshotMetadata) []*Point {
	points := make([]*Point, len(batch))

	var wg sync.WaitGroup
	for i, snap := range batch {
		wg.Add(1)
		go func(i int, snap domain.SnapshotMetadata) {
			defer wg.Done()
			p, err := e.source.FetchPoint(ctx, snap.SnapshotID)
			if err != nil {
				e.logger.Printf("playback: snapshot %s fetch failed: %v", snap.SnapshotID, err)
				return
			}
			points[i] = p
		}(i, snap)
	}
	wg.Wait()

	return points
}

// applyBatchLocked appends the batch's resolved points in snapshot order and
// advances the cursor by the full batch size (clamped to N-1) even when every
// fetch failed, so a bad batch is a visual no-op step rather than a stall.
// Callers hold e.mu.
func (e *Engine) applyBatchLocked(batch []domain.SnapshotMetadata, points []*Point) {
	for i, p := range points {
		if p == nil {
			e.dropped++
			continue
		}
		e.loaded = append(e.loaded, domain.TimelineDataPoint{
			Date:   batch[i].Date,
			Rating: p.Rating,
			Rank:   p.Rank,
		})
	}

	e.attempted += len(batch)
	e.cursor += len(batch)
	if max := len(e.snapshots) - 1; e.cursor > max {
		e.cursor = max
	}
}

// completeLocked transitions to Complete and stops ticking. Callers hold e.mu.
func (e *Engine) completeLocked() {
	e.complete = true
	e.playing = false
	if e.cancelTick != nil {
		e.cancelTick()
		e.cancelTick = nil
	}
}

// resetLocked clears the session back to idle. Callers hold e.mu.
func (e *Engine) resetLocked() {
	e.loaded = nil
	e.attempted = 0
	e.dropped = 0
	e.cursor = -1
	e.playing = false
	e.complete = false
	if e.cancelTick != nil {
		e.cancelTick()
		e.cancelTick = nil
	}
}

// notifyProgress fires the progress callback without blocking the tick loop.
func (e *Engine) notifyProgress() {
	if e.onProgress == nil {
		return
	}
	go e.onProgress(e.Progress())
}
