package duel_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/okian/duel/internal/adapters/notify"
	"github.com/okian/duel/internal/adapters/repository"
	"github.com/okian/duel/internal/domain/model"
	"github.com/okian/duel/internal/duel"
	"github.com/okian/duel/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	_ = logger.Init()
	os.Exit(m.Run())
}

// fixture builds an engine over a seeded memstore, a recording notifier
// and a controllable clock.
type fixture struct {
	engine *duel.Engine
	store  *repository.MemStore
	events *notify.Recorder
	now    time.Time
}

func newFixture() *fixture {
	f := &fixture{
		store:  repository.NewMemStore(),
		events: notify.NewRecorder(),
		now:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	roomSeq := 0
	f.engine = duel.New(f.store, f.events,
		duel.WithClock(func() time.Time { return f.now }),
		duel.WithIDGenerator(func() string {
			roomSeq++
			return fmt.Sprintf("room-%d", roomSeq)
		}),
	)
	// Bronze pool: users 1 and 2. Gold: user 3.
	f.store.SeedUser(1, "alice", 1, 50)
	f.store.SeedUser(2, "bob", 1, 60)
	f.store.SeedUser(3, "carol", 3, 400)
	f.store.SeedPuzzle(model.Puzzle{ID: 100, TierID: 1, Body: "bronze puzzle"})
	f.store.SeedPuzzle(model.Puzzle{ID: 300, TierID: 3, Body: "gold puzzle"})
	return f
}

func (f *fixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

// slipStore wraps a Store and runs hooks around the external lookups the
// matcher performs outside the engine lock, letting tests mutate engine
// state mid-flight.
type slipStore struct {
	repository.Store
	beforeTier func(userID int64)
	beforeDraw func()
}

func (s *slipStore) UserTier(ctx context.Context, userID int64) (model.Tier, error) {
	if s.beforeTier != nil {
		s.beforeTier(userID)
	}
	return s.Store.UserTier(ctx, userID)
}

func (s *slipStore) RandomPuzzle(ctx context.Context, tierID int64) (model.Puzzle, error) {
	if s.beforeDraw != nil {
		s.beforeDraw()
	}
	return s.Store.RandomPuzzle(ctx, tierID)
}

// match pairs users 1 and 2 and returns the committed outcome.
func (f *fixture) match(ctx context.Context) *duel.MatchOutcome {
	f.engine.JoinQueue(ctx, 1)
	f.engine.JoinQueue(ctx, 2)
	outcome, err := f.engine.TryMatch(ctx, 1)
	So(err, ShouldBeNil)
	So(outcome, ShouldNotBeNil)
	return outcome
}

func TestJoinQueue(t *testing.T) {
	ctx := context.Background()

	Convey("Given a fresh engine", t, func() {
		f := newFixture()

		Convey("When a user joins the queue", func() {
			res := f.engine.JoinQueue(ctx, 1)

			Convey("Then the join succeeds and is visible", func() {
				So(res.Success, ShouldBeTrue)
				So(f.engine.InQueue(1), ShouldBeTrue)
			})

			Convey("And joining again fails", func() {
				again := f.engine.JoinQueue(ctx, 1)
				So(again.Success, ShouldBeFalse)
				So(f.engine.QueueSnapshot(), ShouldResemble, []int64{1})
			})
		})

		Convey("When an invalid user id joins", func() {
			Convey("Then the join is rejected", func() {
				So(f.engine.JoinQueue(ctx, 0).Success, ShouldBeFalse)
				So(f.engine.JoinQueue(ctx, -5).Success, ShouldBeFalse)
				So(f.engine.QueueSnapshot(), ShouldBeEmpty)
			})
		})

		Convey("When a user leaves the queue", func() {
			f.engine.JoinQueue(ctx, 1)

			Convey("Then the leave succeeds once", func() {
				So(f.engine.LeaveQueue(ctx, 1).Success, ShouldBeTrue)
				So(f.engine.LeaveQueue(ctx, 1).Success, ShouldBeFalse)
				So(f.engine.InQueue(1), ShouldBeFalse)
			})
		})
	})
}

func TestTryMatch(t *testing.T) {
	ctx := context.Background()

	Convey("Given queued users", t, func() {
		f := newFixture()

		Convey("When only different tiers wait", func() {
			f.engine.JoinQueue(ctx, 1)
			f.engine.JoinQueue(ctx, 3)

			Convey("Then no pairing happens", func() {
				outcome, err := f.engine.TryMatch(ctx, 1)
				So(err, ShouldBeNil)
				So(outcome, ShouldBeNil)
				So(f.engine.QueueSnapshot(), ShouldResemble, []int64{1, 3})
			})
		})

		Convey("When an equal-tier peer waits", func() {
			outcome := f.match(ctx)

			Convey("Then both users move from the queue into one room", func() {
				So(outcome.User1, ShouldEqual, 1)
				So(outcome.User2, ShouldEqual, 2)
				So(outcome.TierID, ShouldEqual, 1)
				So(outcome.Puzzle.ID, ShouldEqual, 100)
				So(f.engine.InQueue(1), ShouldBeFalse)
				So(f.engine.InQueue(2), ShouldBeFalse)

				room, ok := f.engine.RoomByUser(1)
				So(ok, ShouldBeTrue)
				So(room.RoomID, ShouldEqual, outcome.RoomID)
				So(room.State, ShouldEqual, "open")
			})

			Convey("And a match-found event reaches the room", func() {
				found := f.events.ByKind(notify.KindMatchFound)
				So(found, ShouldHaveLength, 1)
				So(found[0].RoomID, ShouldEqual, outcome.RoomID)
				So(found[0].MatchFound.User1, ShouldEqual, 1)
				So(found[0].MatchFound.User2, ShouldEqual, 2)
			})

			Convey("And a roomed user cannot rejoin the queue", func() {
				So(f.engine.JoinQueue(ctx, 1).Success, ShouldBeFalse)
				So(f.engine.InQueue(1), ShouldBeFalse)
			})
		})

		Convey("When the user is not queued at all", func() {
			Convey("Then nothing happens", func() {
				outcome, err := f.engine.TryMatch(ctx, 1)
				So(err, ShouldBeNil)
				So(outcome, ShouldBeNil)
			})
		})

		Convey("When the requester has no ranking row", func() {
			f.store.SeedPuzzle(model.Puzzle{ID: 101, TierID: 1, Body: "extra"})
			f.engine.JoinQueue(ctx, 9)

			Convey("Then the attempt errors and the queue is untouched", func() {
				outcome, err := f.engine.TryMatch(ctx, 9)
				So(err, ShouldNotBeNil)
				So(outcome, ShouldBeNil)
				So(f.engine.InQueue(9), ShouldBeTrue)
			})
		})

		Convey("When the tier has no puzzles", func() {
			f.store.SeedUser(4, "dave", 2, 150)
			f.store.SeedUser(5, "erin", 2, 160)
			f.engine.JoinQueue(ctx, 4)
			f.engine.JoinQueue(ctx, 5)

			Convey("Then the attempt errors and both stay queued", func() {
				outcome, err := f.engine.TryMatch(ctx, 4)
				So(err, ShouldNotBeNil)
				So(outcome, ShouldBeNil)
				So(f.engine.InQueue(4), ShouldBeTrue)
				So(f.engine.InQueue(5), ShouldBeTrue)
			})
		})

		Convey("When several equal-tier peers wait", func() {
			f.store.SeedUser(6, "frank", 1, 10)
			f.engine.JoinQueue(ctx, 1)
			f.engine.JoinQueue(ctx, 6)
			f.engine.JoinQueue(ctx, 2)

			Convey("Then the first in queue order wins", func() {
				outcome, err := f.engine.TryMatch(ctx, 1)
				So(err, ShouldBeNil)
				So(outcome, ShouldNotBeNil)
				So(outcome.User2, ShouldEqual, 6)
				So(f.engine.InQueue(2), ShouldBeTrue)
			})
		})
	})
}

func TestTryMatchRevalidation(t *testing.T) {
	ctx := context.Background()

	Convey("Given lookups that suspend while the queue changes", t, func() {
		mem := repository.NewMemStore()
		mem.SeedUser(1, "alice", 1, 50)
		mem.SeedUser(2, "bob", 1, 60)
		mem.SeedPuzzle(model.Puzzle{ID: 100, TierID: 1, Body: "bronze puzzle"})
		store := &slipStore{Store: mem}
		events := notify.NewRecorder()
		engine := duel.New(store, events)

		engine.JoinQueue(ctx, 1)
		engine.JoinQueue(ctx, 2)

		Convey("When the opponent leaves during the puzzle draw", func() {
			store.beforeDraw = func() {
				engine.LeaveQueue(ctx, 2)
			}
			outcome, err := engine.TryMatch(ctx, 1)

			Convey("Then the pairing is abandoned and the requester stays queued", func() {
				So(err, ShouldBeNil)
				So(outcome, ShouldBeNil)
				So(engine.InQueue(1), ShouldBeTrue)
				So(engine.InQueue(2), ShouldBeFalse)
				So(engine.Rooms(), ShouldBeEmpty)
				So(events.ByKind(notify.KindMatchFound), ShouldBeEmpty)
			})
		})

		Convey("When the requester leaves during their own tier lookup", func() {
			store.beforeTier = func(userID int64) {
				if userID == 1 {
					engine.LeaveQueue(ctx, 1)
				}
			}
			outcome, err := engine.TryMatch(ctx, 1)

			Convey("Then no pairing happens and the opponent keeps waiting", func() {
				So(err, ShouldBeNil)
				So(outcome, ShouldBeNil)
				So(engine.InQueue(1), ShouldBeFalse)
				So(engine.InQueue(2), ShouldBeTrue)
				So(engine.Rooms(), ShouldBeEmpty)
			})
		})
	})
}

func TestLeaveRoom(t *testing.T) {
	ctx := context.Background()

	Convey("Given a live room", t, func() {
		f := newFixture()
		f.match(ctx)

		Convey("When one participant leaves", func() {
			f.advance(2 * time.Minute)
			res := f.engine.LeaveRoom(ctx, 2)

			Convey("Then the remaining user wins by forfeit", func() {
				So(res.Success, ShouldBeTrue)

				results := f.store.Results()
				So(results, ShouldHaveLength, 1)
				So(results[0].Status, ShouldEqual, model.StatusForfeit)
				So(results[0].WinnerID, ShouldEqual, 1)
				So(results[0].LoserID, ShouldEqual, 2)
				So(results[0].DurationSeconds, ShouldEqual, 120)
				So(results[0].WinnerPoints, ShouldEqual, 15)
				So(results[0].LoserPoints, ShouldEqual, 2)
			})

			Convey("And the room is evicted for both users", func() {
				_, ok := f.engine.RoomByUser(1)
				So(ok, ShouldBeFalse)
				_, ok = f.engine.RoomByUser(2)
				So(ok, ShouldBeFalse)
				So(f.engine.Rooms(), ShouldBeEmpty)
			})

			Convey("And the room hears about it", func() {
				So(f.events.ByKind(notify.KindUserLeft), ShouldHaveLength, 1)
				So(f.events.ByKind(notify.KindUserAlone), ShouldHaveLength, 1)
				So(f.events.ByKind(notify.KindChatMessage), ShouldHaveLength, 1)
				ended := f.events.ByKind(notify.KindMatchEnded)
				So(ended, ShouldHaveLength, 1)
				So(ended[0].MatchEnded.WinnerID, ShouldEqual, 1)
				So(ended[0].MatchEnded.Status, ShouldEqual, "forfeit")
			})

			Convey("And rankings move accordingly", func() {
				winner, err := f.store.Ranking(ctx, 1, 1)
				So(err, ShouldBeNil)
				So(winner.Points, ShouldEqual, 65)
				loser, err := f.store.Ranking(ctx, 2, 1)
				So(err, ShouldBeNil)
				So(loser.Points, ShouldEqual, 62)
			})
		})

		Convey("When a non-occupant tries to leave", func() {
			res := f.engine.LeaveRoom(ctx, 3)

			Convey("Then it fails and the room stands", func() {
				So(res.Success, ShouldBeFalse)
				So(f.engine.Rooms(), ShouldHaveLength, 1)
				So(f.store.Results(), ShouldBeEmpty)
			})
		})
	})
}

func TestEndRoomByWinner(t *testing.T) {
	ctx := context.Background()

	Convey("Given a live room", t, func() {
		f := newFixture()
		outcome := f.match(ctx)

		Convey("When a winner is declared after a quick game", func() {
			f.advance(2 * time.Minute)
			res := f.engine.EndRoomByWinner(ctx, outcome.RoomID, 2, "5-3")

			Convey("Then the match completes with scored points", func() {
				So(res.Success, ShouldBeTrue)

				results := f.store.Results()
				So(results, ShouldHaveLength, 1)
				So(results[0].Status, ShouldEqual, model.StatusCompleted)
				So(results[0].WinnerID, ShouldEqual, 2)
				So(results[0].LoserID, ShouldEqual, 1)
				So(results[0].Score, ShouldEqual, "5-3")
				So(results[0].WinnerPoints, ShouldEqual, 15)
				So(results[0].LoserPoints, ShouldEqual, 2)
				So(f.engine.Rooms(), ShouldBeEmpty)
			})
		})

		Convey("When the declared winner is not in the room", func() {
			res := f.engine.EndRoomByWinner(ctx, outcome.RoomID, 99, "5-3")

			Convey("Then the request is rejected and nothing changes", func() {
				So(res.Success, ShouldBeFalse)
				So(f.store.Results(), ShouldBeEmpty)
				So(f.engine.Rooms(), ShouldHaveLength, 1)
				room, ok := f.engine.RoomByUser(1)
				So(ok, ShouldBeTrue)
				So(room.State, ShouldEqual, "open")
			})
		})

		Convey("When the room id is unknown", func() {
			res := f.engine.EndRoomByWinner(ctx, "missing", 1, "1-0")

			Convey("Then the request fails without effects", func() {
				So(res.Success, ShouldBeFalse)
				So(f.store.Results(), ShouldBeEmpty)
			})
		})

		Convey("When the game was suspiciously fast", func() {
			f.advance(30 * time.Second)
			res := f.engine.EndRoomByWinner(ctx, outcome.RoomID, 1, "3-1")

			Convey("Then the loser is penalized with a floor of zero", func() {
				So(res.Success, ShouldBeTrue)

				results := f.store.Results()
				So(results, ShouldHaveLength, 1)
				So(results[0].WinnerPoints, ShouldEqual, 0)
				So(results[0].LoserPoints, ShouldEqual, -10)

				loser, err := f.store.Ranking(ctx, 2, 1)
				So(err, ShouldBeNil)
				So(loser.Points, ShouldEqual, 50)
			})
		})
	})
}

func TestEndRoomByTimer(t *testing.T) {
	ctx := context.Background()

	Convey("Given a live room", t, func() {
		f := newFixture()
		outcome := f.match(ctx)

		// Termination by timer is positional today: the second slot is
		// treated as the winner regardless of progress.
		Convey("When the timer expires", func() {
			f.advance(11 * time.Minute)
			res := f.engine.EndRoomByTimer(ctx, outcome.RoomID)

			Convey("Then the second slot wins positionally", func() {
				So(res.Success, ShouldBeTrue)

				results := f.store.Results()
				So(results, ShouldHaveLength, 1)
				So(results[0].Status, ShouldEqual, model.StatusTimeout)
				So(results[0].WinnerID, ShouldEqual, outcome.User2)
				So(results[0].LoserID, ShouldEqual, outcome.User1)
				So(results[0].DurationSeconds, ShouldEqual, 660)
				So(results[0].WinnerPoints, ShouldEqual, 10)
				So(results[0].LoserPoints, ShouldEqual, 2)
				So(f.engine.Rooms(), ShouldBeEmpty)
			})
		})

		Convey("When the room id is unknown", func() {
			res := f.engine.EndRoomByTimer(ctx, "missing")

			Convey("Then the request fails without effects", func() {
				So(res.Success, ShouldBeFalse)
				So(f.store.Results(), ShouldBeEmpty)
			})
		})
	})
}

func TestApplyRankingDelta(t *testing.T) {
	ctx := context.Background()

	Convey("Given ranked users", t, func() {
		f := newFixture()

		Convey("When a delta keeps the user inside the band", func() {
			err := f.engine.ApplyRankingDelta(ctx, 1, 1, 20)

			Convey("Then only points change", func() {
				So(err, ShouldBeNil)
				rec, err := f.store.Ranking(ctx, 1, 1)
				So(err, ShouldBeNil)
				So(rec.Points, ShouldEqual, 70)
				So(rec.TierID, ShouldEqual, 1)
			})
		})

		Convey("When a delta crosses a band boundary", func() {
			err := f.engine.ApplyRankingDelta(ctx, 2, 1, 50)

			Convey("Then the user is promoted", func() {
				So(err, ShouldBeNil)
				rec, err := f.store.Ranking(ctx, 2, 2)
				So(err, ShouldBeNil)
				So(rec.Points, ShouldEqual, 110)
				So(rec.TierID, ShouldEqual, 2)
			})
		})

		Convey("When a negative delta would go below zero", func() {
			err := f.engine.ApplyRankingDelta(ctx, 1, 1, -80)

			Convey("Then points clamp at zero", func() {
				So(err, ShouldBeNil)
				rec, err := f.store.Ranking(ctx, 1, 1)
				So(err, ShouldBeNil)
				So(rec.Points, ShouldEqual, 0)
			})
		})

		Convey("When the user has no ranking row", func() {
			err := f.engine.ApplyRankingDelta(ctx, 42, 1, 10)

			Convey("Then the failure is reported", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}
