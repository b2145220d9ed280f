package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/sakif/game-list/internal/apperror"
	"github.com/sakif/game-list/internal/model"
	"github.com/sakif/game-list/internal/repository"
)

const (
	// LandingBucketSize caps each release-year bucket on the landing page.
	LandingBucketSize = 10
	// SuggestionCount is how many random games the feed offers.
	SuggestionCount = 5
	// SearchLimit caps search results.
	SearchLimit = 10
)

// YearBucket is the set of games released in one calendar year.
type YearBucket struct {
	Year  int
	Games []model.Game
}

// Landing is what the anonymous front page shows: this year, last year and
// the year before, newest first.
type Landing struct {
	Buckets [3]YearBucket
}

// Feed is a signed-in user's home page.
type Feed struct {
	Saved     []model.Game
	Suggested []model.Game
}

// CatalogService reads the catalog and edits saved lists.
type CatalogService struct {
	games  repository.GameRepository
	lists  repository.SavedListRepository
	logger *slog.Logger
	now    func() time.Time
}

// NewCatalogService creates a CatalogService that reads the wall clock.
func NewCatalogService(games repository.GameRepository, lists repository.SavedListRepository, logger *slog.Logger) *CatalogService {
	return &CatalogService{games: games, lists: lists, logger: logger, now: time.Now}
}

// WithClock replaces the clock the landing page buckets are computed from.
func (s *CatalogService) WithClock(now func() time.Time) *CatalogService {
	s.now = now
	return s
}

// Landing returns the three release-year buckets. Years are calendar years
// in the clock's location; each bucket is [Jan 1 Y, Jan 1 Y+1), so a game
// lands in exactly one of them.
func (s *CatalogService) Landing(ctx context.Context) (*Landing, error) {
	now := s.now()
	thisYear := now.Year()

	var landing Landing
	for i := range landing.Buckets {
		year := thisYear - i
		from := time.Date(year, time.January, 1, 0, 0, 0, 0, now.Location())
		to := from.AddDate(1, 0, 0)

		games, err := s.games.ReleasedBetween(ctx, from, to, LandingBucketSize)
		if err != nil {
			return nil, fmt.Errorf("loading %d releases: %w", year, err)
		}
		landing.Buckets[i] = YearBucket{Year: year, Games: games}
	}
	return &landing, nil
}

// Feed returns the user's saved list in the order it was built, plus a
// fresh random sample of the catalog. The sample may include saved games.
func (s *CatalogService) Feed(ctx context.Context, userID int64) (*Feed, error) {
	saved, err := s.lists.SavedGames(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading saved list: %w", err)
	}
	suggested, err := s.games.RandomGames(ctx, SuggestionCount)
	if err != nil {
		return nil, fmt.Errorf("loading suggestions: %w", err)
	}
	return &Feed{Saved: saved, Suggested: suggested}, nil
}

// Search returns up to SearchLimit games whose title contains query. LIKE
// wildcards in query are not escaped.
func (s *CatalogService) Search(ctx context.Context, query string) ([]model.Game, error) {
	games, err := s.games.SearchTitles(ctx, "%"+query+"%", SearchLimit)
	if err != nil {
		return nil, fmt.Errorf("searching %q: %w", query, err)
	}
	return games, nil
}

// AddToList parses an item token and adds that game to the user's list.
// A token naming a game that does not exist is not an error: nothing
// changes and the parsed id is still returned.
func (s *CatalogService) AddToList(ctx context.Context, userID int64, token string) (int64, error) {
	gameID, err := ParseItemToken(token)
	if err != nil {
		return 0, err
	}

	if _, err := s.games.GetGame(ctx, gameID); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return gameID, nil
		}
		return 0, fmt.Errorf("adding game %d: %w", gameID, err)
	}

	added, err := s.lists.AddToList(ctx, userID, gameID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return gameID, nil
		}
		return 0, fmt.Errorf("adding game %d: %w", gameID, err)
	}
	if added {
		s.logger.Info("game added to list", slog.Int64("userID", userID), slog.Int64("gameID", gameID))
	}
	return gameID, nil
}

// RemoveFromList parses an item token and removes that game from the
// user's list. Removing a game that is not on the list is a no-op.
func (s *CatalogService) RemoveFromList(ctx context.Context, userID int64, token string) (int64, error) {
	gameID, err := ParseItemToken(token)
	if err != nil {
		return 0, err
	}

	removed, err := s.lists.RemoveFromList(ctx, userID, gameID)
	if err != nil {
		return 0, fmt.Errorf("removing game %d: %w", gameID, err)
	}
	if removed {
		s.logger.Info("game removed from list", slog.Int64("userID", userID), slog.Int64("gameID", gameID))
	}
	return gameID, nil
}

// ParseItemToken extracts the game id from an element id such as "game_12"
// or "my-game_12": everything after the first underscore, in base 10.
func ParseItemToken(token string) (int64, error) {
	_, raw, ok := strings.Cut(token, "_")
	if !ok {
		return 0, apperror.ValidationFailed("response", fmt.Sprintf("malformed item token %q", token))
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperror.ValidationFailed("response", fmt.Sprintf("malformed item token %q", token))
	}
	return id, nil
}
