package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/sakif/game-list/internal/apperror"
	"github.com/sakif/game-list/internal/model"
	"github.com/sakif/game-list/internal/repository"
)

// =========================================================================
// FAKE REPOSITORIES
// =========================================================================
//
// In-memory stand-ins for the sqlite repository. They reproduce the
// contract the services rely on (ErrNotFound on misses, ErrConflict with a
// Field on duplicate inserts, idempotent list mutations) and nothing more.

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var errStoreDown = errors.New("store unavailable")

type fakeUserRepo struct {
	users  map[int64]*model.User
	nextID int64

	// failWith, when set, is returned by every call.
	failWith error
	// beforeCreate runs just before CreateUser checks uniqueness; tests use
	// it to slip in a competing registration.
	beforeCreate func()
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[int64]*model.User{}}
}

func (f *fakeUserRepo) CreateUser(_ context.Context, u *model.User) error {
	if f.failWith != nil {
		return f.failWith
	}
	if f.beforeCreate != nil {
		f.beforeCreate()
	}
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return &apperror.AppError{Err: apperror.ErrConflict, Message: "email already registered", Field: "email"}
		}
		if existing.Username == u.Username {
			return &apperror.AppError{Err: apperror.ErrConflict, Message: "username already taken", Field: "username"}
		}
	}
	f.nextID++
	u.ID = f.nextID
	u.CreatedAt = time.Now()
	stored := *u
	f.users[u.ID] = &stored
	return nil
}

func (f *fakeUserRepo) GetUserByID(_ context.Context, id int64) (*model.User, error) {
	return f.find(func(u *model.User) bool { return u.ID == id }, id)
}

func (f *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	return f.find(func(u *model.User) bool { return u.Email == email }, email)
}

func (f *fakeUserRepo) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	return f.find(func(u *model.User) bool { return u.Username == username }, username)
}

func (f *fakeUserRepo) find(match func(*model.User) bool, key any) (*model.User, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	for _, u := range f.users {
		if match(u) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("user", key)
}

func (f *fakeUserRepo) UpdatePassword(_ context.Context, id int64, hash string) error {
	u, ok := f.users[id]
	if !ok {
		return apperror.NotFound("user", id)
	}
	u.Password = hash
	return nil
}

func (f *fakeUserRepo) SetAdmin(_ context.Context, username string, admin bool) error {
	for _, u := range f.users {
		if u.Username == username {
			u.IsAdmin = admin
			return nil
		}
	}
	return apperror.NotFound("user", username)
}

// fakeCatalog implements both GameRepository and SavedListRepository.
type fakeCatalog struct {
	games map[int64]model.Game
	lists map[int64][]int64

	// Calls recorded for assertions.
	ranges  [][2]time.Time
	pattern string
	limit   int

	failWith error
}

func newFakeCatalog(games ...model.Game) *fakeCatalog {
	f := &fakeCatalog{games: map[int64]model.Game{}, lists: map[int64][]int64{}}
	for _, g := range games {
		f.games[g.ID] = g
	}
	return f
}

func (f *fakeCatalog) GetGame(_ context.Context, id int64) (*model.Game, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	g, ok := f.games[id]
	if !ok {
		return nil, apperror.NotFound("game", id)
	}
	return &g, nil
}

func (f *fakeCatalog) ReleasedBetween(_ context.Context, from, to time.Time, limit int) ([]model.Game, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	f.ranges = append(f.ranges, [2]time.Time{from, to})
	var out []model.Game
	for _, g := range f.sorted() {
		if !g.ReleaseDate.Before(from) && g.ReleaseDate.Before(to) && len(out) < limit {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f *fakeCatalog) RandomGames(_ context.Context, limit int) ([]model.Game, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	f.limit = limit
	all := f.sorted()
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (f *fakeCatalog) SearchTitles(_ context.Context, pattern string, limit int) ([]model.Game, error) {
	f.pattern, f.limit = pattern, limit
	needle := strings.ToLower(strings.Trim(pattern, "%"))
	var out []model.Game
	for _, g := range f.sorted() {
		if strings.Contains(strings.ToLower(g.Title), needle) && len(out) < limit {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f *fakeCatalog) SavedGames(_ context.Context, userID int64) ([]model.Game, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	out := []model.Game{}
	for _, id := range f.lists[userID] {
		out = append(out, f.games[id])
	}
	return out, nil
}

func (f *fakeCatalog) AddToList(_ context.Context, userID, gameID int64) (bool, error) {
	if f.failWith != nil {
		return false, f.failWith
	}
	for _, id := range f.lists[userID] {
		if id == gameID {
			return false, nil
		}
	}
	f.lists[userID] = append(f.lists[userID], gameID)
	return true, nil
}

func (f *fakeCatalog) RemoveFromList(_ context.Context, userID, gameID int64) (bool, error) {
	if f.failWith != nil {
		return false, f.failWith
	}
	ids := f.lists[userID]
	for i, id := range ids {
		if id == gameID {
			f.lists[userID] = append(ids[:i:i], ids[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCatalog) sorted() []model.Game {
	out := make([]model.Game, 0, len(f.games))
	for _, g := range f.games {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// fakeRecords records what the admin service asked the store to do.
type fakeRecords struct {
	tables map[string]map[int64]repository.Record
	nextID int64

	lastColumns []string
	lastOpts    repository.ListOptions
	tags        map[int64]map[model.TagKind][]int64
}

func newFakeRecords() *fakeRecords {
	return &fakeRecords{
		tables: map[string]map[int64]repository.Record{},
		tags:   map[int64]map[model.TagKind][]int64{},
	}
}

func (f *fakeRecords) ListRecords(_ context.Context, table string, columns []string, opts repository.ListOptions) ([]repository.Record, error) {
	f.lastColumns, f.lastOpts = columns, opts
	out := []repository.Record{}
	for id := range f.tables[table] {
		rec, _ := f.project(table, columns, id)
		out = append(out, rec)
	}
	return out, nil
}

func (f *fakeRecords) GetRecord(_ context.Context, table string, columns []string, id int64) (repository.Record, error) {
	f.lastColumns = columns
	return f.project(table, columns, id)
}

func (f *fakeRecords) project(table string, columns []string, id int64) (repository.Record, error) {
	row, ok := f.tables[table][id]
	if !ok {
		return nil, apperror.NotFound(table, id)
	}
	rec := repository.Record{}
	for _, c := range columns {
		rec[c] = row[c]
	}
	return rec, nil
}

func (f *fakeRecords) InsertRecord(_ context.Context, table string, values repository.Record) (int64, error) {
	if f.tables[table] == nil {
		f.tables[table] = map[int64]repository.Record{}
	}
	f.nextID++
	row := repository.Record{"id": f.nextID}
	for k, v := range values {
		row[k] = v
	}
	f.tables[table][f.nextID] = row
	return f.nextID, nil
}

func (f *fakeRecords) UpdateRecord(_ context.Context, table string, id int64, values repository.Record) error {
	row, ok := f.tables[table][id]
	if !ok {
		return apperror.NotFound(table, id)
	}
	for k, v := range values {
		row[k] = v
	}
	return nil
}

func (f *fakeRecords) DeleteRecord(_ context.Context, table string, id int64) error {
	if _, ok := f.tables[table][id]; !ok {
		return apperror.NotFound(table, id)
	}
	delete(f.tables[table], id)
	return nil
}

func (f *fakeRecords) SetGameTags(_ context.Context, gameID int64, kind model.TagKind, tagIDs []int64) error {
	if _, ok := f.tables["games"][gameID]; !ok {
		return apperror.NotFound("game", gameID)
	}
	if f.tags[gameID] == nil {
		f.tags[gameID] = map[model.TagKind][]int64{}
	}
	f.tags[gameID][kind] = tagIDs
	return nil
}
