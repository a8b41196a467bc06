// Package scheduler decides which tracked feed item holds the shared playback
// resource. All decisions run on the goroutine executing Run; every other
// goroutine talks to it through the posting methods and reads Snapshot.
package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	xlog "autoplay/pkg/log"
	"autoplay/pkg/metrics"
	"autoplay/pkg/performance"
	"autoplay/pkg/playback"
	"autoplay/pkg/sharedTypes"
	"autoplay/pkg/slots"
	"autoplay/pkg/visibility"
)

var errAlreadyRunning = errors.New("scheduler: Run called twice")

// Presenter provides the fullscreen takeover surface.
type Presenter interface {
	Present(id sharedTypes.ItemID) (slots.RenderTarget, error)
	Dismiss(id sharedTypes.ItemID)
}

// PositionSink receives captured playback positions. Record is called on the
// scheduler goroutine and must not block.
type PositionSink interface {
	Record(id sharedTypes.ItemID, pos time.Duration)
}

type Option func(*Scheduler)

func WithPolicy(p Policy) Option {
	return func(s *Scheduler) { s.policy = p }
}

func WithPresenter(p Presenter) Option {
	return func(s *Scheduler) { s.presenter = p }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Scheduler) { s.log = l }
}

// WithResume seeds new identities with stored positions and reports
// captured positions to sink. Either may be nil.
func WithResume(seed map[sharedTypes.ItemID]time.Duration, sink PositionSink) Option {
	return func(s *Scheduler) {
		s.seed = seed
		s.sink = sink
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// fullscreenState remembers the inline slot an item left for the takeover.
type fullscreenState struct {
	item   *slots.Item
	inline slots.RenderTarget
	target slots.RenderTarget
}

type Scheduler struct {
	res       *playback.Resource
	reg       *slots.Registry
	policy    Policy
	presenter Presenter
	sink      PositionSink
	seed      map[sharedTypes.ItemID]time.Duration
	log       zerolog.Logger
	now       func() time.Time

	slotEvents chan any
	ticks      chan struct{}
	taps       chan sharedTypes.SlotID
	dismiss    chan struct{}
	policies   chan Policy
	done       chan struct{}
	running    atomic.Bool

	fs      *fullscreenState
	stats   Stats
	monitor *performance.BindMonitor
	snap    atomic.Pointer[Snapshot]
}

// New builds a scheduler driving res. res is owned by the scheduler from now
// on and is closed when Run returns.
func New(res *playback.Resource, opts ...Option) *Scheduler {
	s := &Scheduler{
		res:        res,
		reg:        slots.NewRegistry(res),
		policy:     DefaultPolicy(),
		log:        xlog.WithComponent("scheduler"),
		now:        time.Now,
		slotEvents: make(chan any, 64),
		ticks:      make(chan struct{}, 1),
		taps:       make(chan sharedTypes.SlotID, 16),
		dismiss:    make(chan struct{}, 1),
		policies:   make(chan Policy, 4),
		done:       make(chan struct{}),
		monitor:    performance.NewBindMonitor(32),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.policy.Validate(); err != nil {
		s.log.Warn().Err(err).Msg("policy: invalid, using defaults")
		s.policy = DefaultPolicy()
	}
	s.publish()
	return s
}

// Snapshot returns the state published after the most recent dispatch.
func (s *Scheduler) Snapshot() *Snapshot {
	return s.snap.Load()
}

// Run owns the scheduler until ctx is cancelled. Lifecycle events are always
// applied before any other pending event.
func (s *Scheduler) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return errAlreadyRunning
	}
	defer s.shutdown()

	s.log.Info().Float64("threshold", s.policy.VisibleThreshold).Msg("scheduler: started")
	for {
		s.drainSlotEvents()
		s.publish()

		var ev any
		select {
		case <-ctx.Done():
			// Lifecycle events posted before cancellation still apply.
			s.drainSlotEvents()
			return nil
		case e := <-s.slotEvents:
			s.dispatch(e)
			continue
		case <-s.ticks:
			ev = tickEvent{}
		case slot := <-s.taps:
			ev = tapEvent{slot: slot}
		case <-s.dismiss:
			ev = dismissEvent{}
		case p := <-s.policies:
			ev = policyEvent{policy: p}
		case c := <-s.res.Completions():
			ev = completionEvent{c: c}
		}
		// A lifecycle event may have raced the one just received.
		s.drainSlotEvents()
		s.dispatch(ev)
	}
}

func (s *Scheduler) drainSlotEvents() {
	for {
		select {
		case ev := <-s.slotEvents:
			s.dispatch(ev)
		default:
			return
		}
	}
}

func (s *Scheduler) dispatch(ev any) {
	switch e := ev.(type) {
	case trackEvent:
		s.handleTrack(e.id, e.source, e.target)
	case untrackEvent:
		s.handleUntrack(e.id)
	case slotAvailableEvent:
		s.log.Debug().Str(xlog.FieldSlot, string(e.slot)).Msg("slot: available")
		s.recompute()
	case slotResizedEvent:
		s.recompute()
	case slotDestroyedEvent:
		s.handleSlotDestroyed(e.slot)
	case tickEvent:
		s.recompute()
	case tapEvent:
		s.handleTap(e.slot)
	case dismissEvent:
		s.dismissFullscreen()
	case policyEvent:
		s.applyPolicy(e.policy)
	case completionEvent:
		s.handleCompletion(e.c)
	default:
		s.log.Warn().Msgf("dispatch: unexpected event %T", ev)
	}
}

func (s *Scheduler) shutdown() {
	close(s.done)
	if owner := s.owner(); owner != nil {
		s.pause(owner, "shutdown")
	}
	if s.fs != nil && s.presenter != nil {
		s.presenter.Dismiss(s.fs.item.ID)
	}
	s.res.Close()
	s.publish()
	s.log.Info().Msg("scheduler: stopped")
}

// publish copies the registry into a fresh snapshot.
func (s *Scheduler) publish() {
	owner := s.owner()
	items := s.reg.Items()
	snap := &Snapshot{
		Items:  make([]ItemView, 0, len(items)),
		Policy: s.policy,
	}
	for _, it := range items {
		v := ItemView{
			ID:         it.ID,
			Slot:       it.Slot(),
			State:      it.State,
			Intent:     it.Intent,
			Position:   it.Position,
			Prepared:   it.Prepared,
			UserPaused: it.UserPaused,
			Fullscreen: it.Fullscreen,
			Failed:     it.Failed,
		}
		if it.LastErr != nil {
			v.Err = it.LastErr.Error()
		}
		if it.Target != nil {
			v.Ratio = visibility.Estimate(slots.Sample(it.Target))
		}
		if it == owner && it.State == slots.Playing {
			v.Position = s.res.Position()
		}
		snap.Items = append(snap.Items, v)
	}
	if owner != nil {
		snap.Owner = owner.ID
	}
	if s.fs != nil {
		snap.Fullscreen = s.fs.item.ID
	}
	report := s.monitor.Report()
	snap.Stats = s.stats
	snap.Stats.BindLatency = report.AvgLatency
	snap.Stats.FailureRate = report.FailureRate
	snap.Stats.Degrading = s.monitor.Degrading()
	s.snap.Store(snap)

	metrics.SetTracked(len(items), owner != nil && owner.State == slots.Playing)
}
