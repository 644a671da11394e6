package repository_test

import (
	"context"
	"testing"

	"github.com/okian/duel/internal/adapters/repository"
	"github.com/okian/duel/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMemStoreRankings(t *testing.T) {
	ctx := context.Background()

	Convey("Given a seeded store", t, func() {
		s := repository.NewMemStore()
		s.SeedUser(1, "alice", 1, 50)

		Convey("When the user's tier is resolved", func() {
			tier, err := s.UserTier(ctx, 1)

			Convey("Then the seeded band comes back", func() {
				So(err, ShouldBeNil)
				So(tier.ID, ShouldEqual, 1)
				So(tier.Name, ShouldEqual, "Bronze")
			})
		})

		Convey("When an unknown user's tier is resolved", func() {
			_, err := s.UserTier(ctx, 99)

			Convey("Then the lookup fails", func() {
				So(err, ShouldEqual, repository.ErrNoRanking)
			})
		})

		Convey("When the ranking row is fetched", func() {
			rec, err := s.Ranking(ctx, 1, 1)

			Convey("Then the seeded points come back", func() {
				So(err, ShouldBeNil)
				So(rec.Points, ShouldEqual, 50)
			})

			Convey("And a tier mismatch fails the lookup", func() {
				_, err := s.Ranking(ctx, 1, 2)
				So(err, ShouldEqual, repository.ErrNoRanking)
			})
		})

		Convey("When a ranking row is written back", func() {
			err := s.SaveRanking(ctx, model.RankingRecord{UserID: 1, TierID: 2, Points: 120})

			Convey("Then the update is visible", func() {
				So(err, ShouldBeNil)
				rec, err := s.Ranking(ctx, 1, 2)
				So(err, ShouldBeNil)
				So(rec.Points, ShouldEqual, 120)
			})
		})

		Convey("When a row for an unknown user is written", func() {
			err := s.SaveRanking(ctx, model.RankingRecord{UserID: 7, TierID: 1, Points: 10})

			Convey("Then the write is rejected", func() {
				So(err, ShouldEqual, repository.ErrNoRanking)
			})
		})
	})
}

func TestMemStoreTiers(t *testing.T) {
	ctx := context.Background()

	Convey("Given the default tier bands", t, func() {
		s := repository.NewMemStore()

		Convey("When the bands are listed", func() {
			tiers, err := s.Tiers(ctx)

			Convey("Then three ascending bands come back", func() {
				So(err, ShouldBeNil)
				So(tiers, ShouldHaveLength, 3)
				So(tiers[0].Contains(0), ShouldBeTrue)
				So(tiers[1].Contains(100), ShouldBeTrue)
				So(tiers[2].Contains(300), ShouldBeTrue)
			})
		})
	})

	Convey("Given custom tier bands", t, func() {
		s := repository.NewMemStore(repository.WithTiers([]model.Tier{
			{ID: 10, Name: "Only", MinPoints: 0, MaxPoints: 999},
		}))

		Convey("When the bands are listed", func() {
			tiers, err := s.Tiers(ctx)

			Convey("Then the override wins", func() {
				So(err, ShouldBeNil)
				So(tiers, ShouldHaveLength, 1)
				So(tiers[0].ID, ShouldEqual, 10)
			})
		})
	})
}

func TestMemStorePuzzles(t *testing.T) {
	ctx := context.Background()

	Convey("Given a store with one puzzle per tier", t, func() {
		s := repository.NewMemStore()
		s.SeedPuzzle(model.Puzzle{ID: 100, TierID: 1, Body: "bronze"})

		Convey("When a puzzle is drawn for the seeded tier", func() {
			p, err := s.RandomPuzzle(ctx, 1)

			Convey("Then the seeded puzzle comes back", func() {
				So(err, ShouldBeNil)
				So(p.ID, ShouldEqual, 100)
			})
		})

		Convey("When a puzzle is drawn for an empty tier", func() {
			_, err := s.RandomPuzzle(ctx, 2)

			Convey("Then the draw fails", func() {
				So(err, ShouldEqual, repository.ErrNoPuzzle)
			})
		})
	})

	Convey("Given two stores with the same seed", t, func() {
		pool := []model.Puzzle{
			{ID: 1, TierID: 1, Body: "a"},
			{ID: 2, TierID: 1, Body: "b"},
			{ID: 3, TierID: 1, Body: "c"},
		}
		a := repository.NewMemStore(repository.WithSeed(7))
		b := repository.NewMemStore(repository.WithSeed(7))
		for _, p := range pool {
			a.SeedPuzzle(p)
			b.SeedPuzzle(p)
		}

		Convey("When both draw repeatedly", func() {
			Convey("Then the draw sequences agree", func() {
				for i := 0; i < 5; i++ {
					pa, err := a.RandomPuzzle(ctx, 1)
					So(err, ShouldBeNil)
					pb, err := b.RandomPuzzle(ctx, 1)
					So(err, ShouldBeNil)
					So(pa.ID, ShouldEqual, pb.ID)
				}
			})
		})
	})
}

func TestMemStoreUsersAndResults(t *testing.T) {
	ctx := context.Background()

	Convey("Given a seeded store", t, func() {
		s := repository.NewMemStore()
		s.SeedUser(1, "alice", 1, 50)

		Convey("When a display name is fetched", func() {
			name, err := s.DisplayName(ctx, 1)

			Convey("Then the seeded name comes back", func() {
				So(err, ShouldBeNil)
				So(name, ShouldEqual, "alice")
			})

			Convey("And an unknown user fails", func() {
				_, err := s.DisplayName(ctx, 99)
				So(err, ShouldEqual, repository.ErrNoUser)
			})
		})

		Convey("When match results are saved", func() {
			So(s.SaveResult(ctx, model.MatchResult{RoomID: "r1", WinnerID: 1}), ShouldBeNil)
			So(s.SaveResult(ctx, model.MatchResult{RoomID: "r2", WinnerID: 2}), ShouldBeNil)

			Convey("Then they are returned oldest first", func() {
				results := s.Results()
				So(results, ShouldHaveLength, 2)
				So(results[0].RoomID, ShouldEqual, "r1")
				So(results[1].RoomID, ShouldEqual, "r2")
			})
		})
	})
}
