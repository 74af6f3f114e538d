// Package host owns a World on a single goroutine: it feeds wall-clock time
// into Simulate, applies commands between ticks, fans out event batches and
// writes periodic saves.
package host

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"gridfactory.ai/internal/logging"
	"gridfactory.ai/internal/persistence/snapshot"
	"gridfactory.ai/internal/sim/catalogs"
	"gridfactory.ai/internal/sim/world"
	"gridfactory.ai/internal/sim/world/terrain/gen"
)

var log = logging.Component("host")

var ErrStopped = errors.New("runner stopped")

// SaveIndex is told about every save file written.
type SaveIndex interface {
	RecordSave(path string, snap snapshot.SnapshotV1)
}

// EventSink receives every non-empty event batch.
type EventSink interface {
	WriteEvents(events []world.Event) error
}

type Config struct {
	// Frame is the wall-clock interval between Simulate calls. Zero means one tick.
	Frame time.Duration
	// SaveDir enables autosave and the final save on shutdown.
	SaveDir string
	// AutosaveEveryTicks counts simulated ticks between saves. Zero disables autosave.
	AutosaveEveryTicks uint64

	Index  SaveIndex
	Events EventSink

	Now func() time.Time
}

// Batch is the ordered events of one Simulate call.
type Batch struct {
	Tick   uint64        `json:"tick"`
	Events []world.Event `json:"events"`
}

// Response is the outcome of a submitted command.
type Response struct {
	Tick   uint64
	Result world.CommandResult
	Err    error
}

type request struct {
	cmd  world.Command
	resp chan Response
}

type query struct {
	fn   func(*world.World)
	done chan struct{}
}

type Runner struct {
	w   *world.World
	cfg Config

	cmds    chan request
	queries chan query
	stopped chan struct{}

	mu         sync.Mutex
	subs       map[uint64]chan Batch
	nextSub    uint64
	subsClosed bool

	last         time.Time
	lastSaveTick uint64
}

func New(w *world.World, cfg Config) *Runner {
	if cfg.Frame <= 0 {
		cfg.Frame = time.Second / time.Duration(w.TickRateHz())
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Runner{
		w:            w,
		cfg:          cfg,
		cmds:         make(chan request, 256),
		queries:      make(chan query, 16),
		stopped:      make(chan struct{}),
		subs:         map[uint64]chan Batch{},
		lastSaveTick: w.CurrentTick(),
	}
}

// Run drives the world until ctx is done. It writes a final save on the way out
// when SaveDir is set.
func (r *Runner) Run(ctx context.Context) error {
	defer close(r.stopped)

	ticker := time.NewTicker(r.cfg.Frame)
	defer ticker.Stop()
	r.last = r.cfg.Now()

	log.WithFields(logrus.Fields{"world_id": r.w.ID(), "tick": r.w.CurrentTick(), "frame": r.cfg.Frame}).Info("runner started")
	for {
		select {
		case <-ctx.Done():
			if r.cfg.SaveDir != "" {
				if _, err := r.save(); err != nil {
					log.WithError(err).Error("final save failed")
				}
			}
			r.closeSubs()
			return ctx.Err()
		case req := <-r.cmds:
			res, err := r.w.Apply(req.cmd)
			req.resp <- Response{Tick: r.w.CurrentTick(), Result: res, Err: err}
		case q := <-r.queries:
			q.fn(r.w)
			close(q.done)
		case <-ticker.C:
			r.frame(r.cfg.Now())
		}
	}
}

// frame simulates the wall-clock time since the previous frame.
func (r *Runner) frame(now time.Time) {
	dt := now.Sub(r.last).Seconds()
	r.last = now
	events := r.w.Simulate(dt)
	if len(events) > 0 {
		r.publish(Batch{Tick: r.w.CurrentTick(), Events: events})
		if r.cfg.Events != nil {
			if err := r.cfg.Events.WriteEvents(events); err != nil {
				log.WithError(err).Warn("event log write failed")
			}
		}
	}
	if r.cfg.SaveDir != "" && r.cfg.AutosaveEveryTicks > 0 &&
		r.w.CurrentTick()-r.lastSaveTick >= r.cfg.AutosaveEveryTicks {
		if _, err := r.save(); err != nil {
			log.WithError(err).Error("autosave failed")
		}
	}
}

func (r *Runner) save() (string, error) {
	snap := r.w.ExportSnapshot()
	snap.Header.SaveID = uuid.NewString()
	path := filepath.Join(r.cfg.SaveDir, fmt.Sprintf("%012d.save.zst", snap.Header.Tick))
	if err := snapshot.WriteSnapshot(path, snap); err != nil {
		return "", err
	}
	r.lastSaveTick = snap.Header.Tick
	if r.cfg.Index != nil {
		r.cfg.Index.RecordSave(path, snap)
	}
	log.WithFields(logrus.Fields{"tick": snap.Header.Tick, "save_id": snap.Header.SaveID, "path": path}).Info("saved")
	return path, nil
}

// Submit applies cmd between ticks and waits for the result.
func (r *Runner) Submit(ctx context.Context, cmd world.Command) (Response, error) {
	req := request{cmd: cmd, resp: make(chan Response, 1)}
	select {
	case r.cmds <- req:
	case <-r.stopped:
		return Response{}, ErrStopped
	case <-ctx.Done():
		return Response{}, ctx.Err()
	}
	select {
	case resp := <-req.resp:
		return resp, nil
	case <-r.stopped:
		return Response{}, ErrStopped
	case <-ctx.Done():
		return Response{}, ctx.Err()
	}
}

// Query runs fn on the owner goroutine. fn must not retain the world.
func (r *Runner) Query(ctx context.Context, fn func(*world.World)) error {
	q := query{fn: fn, done: make(chan struct{})}
	select {
	case r.queries <- q:
	case <-r.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-q.done:
		return nil
	case <-r.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Save writes a save file now and returns its path.
func (r *Runner) Save(ctx context.Context) (string, error) {
	if r.cfg.SaveDir == "" {
		return "", fmt.Errorf("save: no save dir configured")
	}
	var path string
	var err error
	if qerr := r.Query(ctx, func(*world.World) { path, err = r.save() }); qerr != nil {
		return "", qerr
	}
	return path, err
}

// Subscribe returns a channel of event batches and a cancel func. Slow
// subscribers miss batches rather than stall the simulation. The channel is
// closed when the runner stops, or at once if it already has.
func (r *Runner) Subscribe(buf int) (<-chan Batch, func()) {
	if buf <= 0 {
		buf = 16
	}
	ch := make(chan Batch, buf)
	r.mu.Lock()
	if r.subsClosed {
		r.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := r.nextSub
	r.nextSub++
	r.subs[id] = ch
	r.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			r.mu.Lock()
			if _, ok := r.subs[id]; ok {
				delete(r.subs, id)
				close(ch)
			}
			r.mu.Unlock()
		})
	}
}

func (r *Runner) publish(b Batch) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, ch := range r.subs {
		select {
		case ch <- b:
		default:
			log.WithFields(logrus.Fields{"subscriber": id, "tick": b.Tick}).Warn("subscriber behind; batch dropped")
		}
	}
}

func (r *Runner) closeSubs() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subsClosed = true
	for id, ch := range r.subs {
		delete(r.subs, id)
		close(ch)
	}
}

// LoadSave reads a save file written by the runner.
func LoadSave(path string, cats *catalogs.Catalogs, noise gen.NoiseFunc) (*world.World, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return world.Load(data, cats, noise)
}
