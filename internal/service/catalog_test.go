package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/game-list/internal/apperror"
	"github.com/sakif/game-list/internal/model"
)

func game(id int64, title string, released time.Time) model.Game {
	return model.Game{ID: id, Title: title, ReleaseDate: released}
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// =========================================================================
// LANDING
// =========================================================================

func TestLanding_Buckets(t *testing.T) {
	repo := newFakeCatalog(
		game(1, "New Year Day", date(2026, 1, 1)),
		game(2, "Last Day", date(2025, 12, 31)),
		game(3, "Mid 2024", date(2024, 6, 15)),
		game(4, "Too Old", date(2023, 12, 31)),
		game(5, "Future", date(2027, 1, 1)),
	)
	svc := NewCatalogService(repo, repo, discardLogger()).WithClock(fixedClock(date(2026, 3, 10)))

	landing, err := svc.Landing(context.Background())
	require.NoError(t, err)

	titles := func(b YearBucket) []string {
		var out []string
		for _, g := range b.Games {
			out = append(out, g.Title)
		}
		return out
	}

	assert.Equal(t, 2026, landing.Buckets[0].Year)
	assert.Equal(t, []string{"New Year Day"}, titles(landing.Buckets[0]))
	assert.Equal(t, 2025, landing.Buckets[1].Year)
	assert.Equal(t, []string{"Last Day"}, titles(landing.Buckets[1]))
	assert.Equal(t, 2024, landing.Buckets[2].Year)
	assert.Equal(t, []string{"Mid 2024"}, titles(landing.Buckets[2]))
}

func TestLanding_HalfOpenRanges(t *testing.T) {
	repo := newFakeCatalog()
	svc := NewCatalogService(repo, repo, discardLogger()).WithClock(fixedClock(date(2026, 12, 31)))

	_, err := svc.Landing(context.Background())
	require.NoError(t, err)

	require.Len(t, repo.ranges, 3)
	for i, r := range repo.ranges {
		year := 2026 - i
		assert.Equal(t, date(year, 1, 1), r[0])
		assert.Equal(t, date(year+1, 1, 1), r[1])
	}
}

func TestLanding_BucketCap(t *testing.T) {
	var games []model.Game
	for i := int64(1); i <= 15; i++ {
		games = append(games, game(i, "g", date(2026, 2, int(i))))
	}
	repo := newFakeCatalog(games...)
	svc := NewCatalogService(repo, repo, discardLogger()).WithClock(fixedClock(date(2026, 6, 1)))

	landing, err := svc.Landing(context.Background())
	require.NoError(t, err)
	assert.Len(t, landing.Buckets[0].Games, LandingBucketSize)
}

// =========================================================================
// FEED
// =========================================================================

func TestFeed(t *testing.T) {
	repo := newFakeCatalog(
		game(1, "A", date(2020, 1, 1)),
		game(2, "B", date(2020, 1, 1)),
		game(3, "C", date(2020, 1, 1)),
	)
	repo.lists[7] = []int64{3, 1}
	svc := NewCatalogService(repo, repo, discardLogger())

	feed, err := svc.Feed(context.Background(), 7)
	require.NoError(t, err)

	require.Len(t, feed.Saved, 2)
	assert.Equal(t, int64(3), feed.Saved[0].ID, "saved list keeps insertion order")
	assert.Equal(t, int64(1), feed.Saved[1].ID)
	assert.Equal(t, SuggestionCount, repo.limit)
	assert.Len(t, feed.Suggested, 3)
}

func TestFeed_StoreFailure(t *testing.T) {
	repo := newFakeCatalog()
	repo.failWith = errStoreDown
	svc := NewCatalogService(repo, repo, discardLogger())

	_, err := svc.Feed(context.Background(), 1)
	assert.ErrorIs(t, err, errStoreDown)
}

// =========================================================================
// SEARCH
// =========================================================================

func TestSearch(t *testing.T) {
	repo := newFakeCatalog(game(1, "Halo", date(2020, 1, 1)), game(2, "Zelda", date(2020, 1, 1)))
	svc := NewCatalogService(repo, repo, discardLogger())

	games, err := svc.Search(context.Background(), "al")
	require.NoError(t, err)

	assert.Equal(t, "%al%", repo.pattern)
	assert.Equal(t, SearchLimit, repo.limit)
	require.Len(t, games, 1)
	assert.Equal(t, "Halo", games[0].Title)
}

func TestSearch_WildcardsPassThrough(t *testing.T) {
	repo := newFakeCatalog()
	svc := NewCatalogService(repo, repo, discardLogger())

	_, err := svc.Search(context.Background(), "50%_off")
	require.NoError(t, err)
	assert.Equal(t, "%50%_off%", repo.pattern)
}

// =========================================================================
// SAVED LIST
// =========================================================================

func TestParseItemToken(t *testing.T) {
	tests := []struct {
		token   string
		want    int64
		wantErr bool
	}{
		{"game_12", 12, false},
		{"my-game_7", 7, false},
		{"_3", 3, false},
		{"game_-1", -1, false},
		{"game", 0, true},
		{"game_", 0, true},
		{"game_abc", 0, true},
		{"game_1_2", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got, err := ParseItemToken(tt.token)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, apperror.ErrValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAddToList(t *testing.T) {
	repo := newFakeCatalog(game(1, "A", date(2020, 1, 1)))
	svc := NewCatalogService(repo, repo, discardLogger())
	ctx := context.Background()

	id, err := svc.AddToList(ctx, 5, "game_1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	_, err = svc.AddToList(ctx, 5, "game_1")
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, repo.lists[5], "adding twice keeps one entry")
}

func TestAddToList_MissingGameIsNoOp(t *testing.T) {
	repo := newFakeCatalog()
	svc := NewCatalogService(repo, repo, discardLogger())

	id, err := svc.AddToList(context.Background(), 5, "game_99")
	require.NoError(t, err)
	assert.Equal(t, int64(99), id)
	assert.Empty(t, repo.lists[5])
}

func TestAddToList_MalformedToken(t *testing.T) {
	repo := newFakeCatalog()
	svc := NewCatalogService(repo, repo, discardLogger())

	_, err := svc.AddToList(context.Background(), 5, "nonsense")
	assert.True(t, errors.Is(err, apperror.ErrValidation))
}

func TestRemoveFromList(t *testing.T) {
	repo := newFakeCatalog(game(1, "A", date(2020, 1, 1)), game(2, "B", date(2020, 1, 1)))
	repo.lists[5] = []int64{1, 2}
	svc := NewCatalogService(repo, repo, discardLogger())
	ctx := context.Background()

	id, err := svc.RemoveFromList(ctx, 5, "my-game_1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
	assert.Equal(t, []int64{2}, repo.lists[5])

	_, err = svc.RemoveFromList(ctx, 5, "my-game_1")
	require.NoError(t, err, "removing an absent game is a no-op")
	assert.Equal(t, []int64{2}, repo.lists[5])
}
