// Package app provides the core business service that implements the
// dependencies required by the HTTP API: the matchmaking engine, its
// trigger pipeline, the notification hub and the persistence store.
package app

import (
	"context"
	"sync"
	"time"

	"github.com/okian/duel/internal/adapters/mq/trigger"
	"github.com/okian/duel/internal/adapters/notify"
	"github.com/okian/duel/internal/adapters/repository"
	"github.com/okian/duel/internal/domain/types"
	"github.com/okian/duel/internal/duel"
	"github.com/okian/duel/pkg/logger"
)

// matcherAdapter adapts the engine's TryMatch to the trigger.Matcher
// contract, which only needs to know whether a pairing happened.
type matcherAdapter struct {
	engine *duel.Engine
}

func (a *matcherAdapter) TryMatch(ctx context.Context, userID int64) (bool, error) {
	outcome, err := a.engine.TryMatch(ctx, userID)
	if err != nil {
		return false, err
	}
	return outcome != nil, nil
}

func (a *matcherAdapter) QueueSnapshot() []int64 {
	return a.engine.QueueSnapshot()
}

// Service wires the matchmaking engine to its collaborators and runs the
// background loops: the matcher worker and the room timer sweep.
type Service struct {
	mu sync.Mutex

	engine   *duel.Engine
	store    repository.Store
	notifier notify.Notifier
	hub      *notify.Hub
	triggers trigger.Queue
	worker   *trigger.Worker

	triggerBuffer int
	scanInterval  time.Duration
	roomDuration  time.Duration
	sweepInterval time.Duration

	started bool
	stopCh  chan struct{}
	cancel  context.CancelFunc

	log logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the persistence store. Defaults to an in-memory store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithNotifier replaces the default websocket hub notifier.
func WithNotifier(n notify.Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithTriggerBuffer bounds the match-trigger queue.
func WithTriggerBuffer(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.triggerBuffer = size
		}
	}
}

// WithScanInterval sets the periodic queue rescan interval.
func WithScanInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.scanInterval = d
		}
	}
}

// WithRoomDuration sets how long a room may stay open before the timer
// sweep ends it.
func WithRoomDuration(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.roomDuration = d
		}
	}
}

// WithSweepInterval sets how often expired rooms are looked for.
func WithSweepInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.sweepInterval = d
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		triggerBuffer: 1024,
		scanInterval:  3 * time.Second,
		roomDuration:  10 * time.Minute,
		sweepInterval: 5 * time.Second,
		stopCh:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.log == nil {
		s.log = logger.Get().Named("app")
	}

	s.log.Info(ctx, "starting matchmaking service...")

	if s.store == nil {
		s.store = repository.NewMemStore()
		s.log.Info(ctx, "using in-memory store")
	}
	if s.notifier == nil {
		s.hub = notify.NewHub()
		s.notifier = s.hub
	}
	s.engine = duel.New(s.store, s.notifier)
	s.triggers = trigger.NewInMemoryQueue(
		trigger.WithBufferSize(s.triggerBuffer),
	)
	s.worker = trigger.NewWorker(s.triggers, &matcherAdapter{engine: s.engine},
		trigger.WithScanInterval(s.scanInterval),
	)

	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	if s.hub != nil {
		go s.hub.Run(runCtx)
	}
	go s.worker.Run(runCtx)
	go s.sweepRooms(runCtx)

	s.started = true
	s.log.Info(ctx, "matchmaking service started",
		logger.Int("trigger_buffer", s.triggerBuffer),
		logger.Any("scan_interval", s.scanInterval),
		logger.Any("room_duration", s.roomDuration),
	)
	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.log.Info(ctx, "stopping matchmaking service...")

	_ = s.triggers.Close()

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.worker.Shutdown(shutdownCtx); err != nil {
		s.log.Warn(ctx, "matcher worker shutdown", logger.Error(err))
	}
	if s.cancel != nil {
		s.cancel()
	}
	if closer, ok := s.store.(interface{ Close() }); ok {
		closer.Close()
	}

	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}

	s.started = false
	s.log.Info(ctx, "matchmaking service stopped")
}

// sweepRooms terminates rooms whose play time has expired. The engine
// itself enforces no timeouts; this loop is the caller responsible for
// invoking the timer ending.
func (s *Service) sweepRooms(ctx context.Context) {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-s.roomDuration)
			for _, room := range s.engine.Rooms() {
				if room.StartedAt.Before(cutoff) {
					if res := s.engine.EndRoomByTimer(ctx, room.RoomID); !res.Success {
						s.log.Debug(ctx, "timer sweep skipped room",
							logger.String("room_id", room.RoomID),
							logger.String("reason", res.Message),
						)
					}
				}
			}
		}
	}
}

// JoinQueue enqueues a user and triggers an immediate match scan.
func (s *Service) JoinQueue(ctx context.Context, userID int64) types.Result {
	res := s.engine.JoinQueue(ctx, userID)
	if res.Success {
		// Best effort; the periodic rescan covers a dropped trigger.
		s.triggers.Enqueue(ctx, userID)
	}
	return res
}

// LeaveQueue removes a user from the wait queue.
func (s *Service) LeaveQueue(ctx context.Context, userID int64) types.Result {
	return s.engine.LeaveQueue(ctx, userID)
}

// QueueSnapshot returns the waiting users in insertion order.
func (s *Service) QueueSnapshot(ctx context.Context) []int64 {
	return s.engine.QueueSnapshot()
}

// LeaveRoom clears the caller's slot and scores a forfeit when an
// opponent remains.
func (s *Service) LeaveRoom(ctx context.Context, userID int64) types.Result {
	return s.engine.LeaveRoom(ctx, userID)
}

// EndRoomByWinner terminates a room with a declared winner.
func (s *Service) EndRoomByWinner(ctx context.Context, roomID string, winnerID int64, score string) types.Result {
	return s.engine.EndRoomByWinner(ctx, roomID, winnerID, score)
}

// EndRoomByTimer terminates a room whose play time has expired.
func (s *Service) EndRoomByTimer(ctx context.Context, roomID string) types.Result {
	return s.engine.EndRoomByTimer(ctx, roomID)
}

// Rooms returns read-only views of every live room.
func (s *Service) Rooms(ctx context.Context) []types.RoomView {
	return s.engine.Rooms()
}

// RoomByUser returns the room a user currently occupies.
func (s *Service) RoomByUser(ctx context.Context, userID int64) (types.RoomView, bool) {
	return s.engine.RoomByUser(userID)
}

// RoomOccupant reports whether a user occupies a room.
func (s *Service) RoomOccupant(ctx context.Context, roomID string, userID int64) bool {
	return s.engine.RoomOccupant(roomID, userID)
}

// DisplayName resolves a user's display name through the store.
func (s *Service) DisplayName(ctx context.Context, userID int64) (string, error) {
	return s.store.DisplayName(ctx, userID)
}

// Stats returns a point-in-time snapshot of engine activity.
func (s *Service) Stats(ctx context.Context) duel.Stats {
	return s.engine.Snapshot()
}

// Hub exposes the websocket hub, nil when a custom notifier is wired.
func (s *Service) Hub() *notify.Hub {
	return s.hub
}
