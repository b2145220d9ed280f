// Package main provides a tool to seed the database with a demo catalog and
// to promote accounts to administrator.
//
// Usage:
//
//	go run ./cmd/seed -sample                  # demo games over the last three years
//	go run ./cmd/seed -promote alice           # make alice an admin
//	go run ./cmd/seed -promote alice -revoke   # take it away again
//	DB_PATH=/var/lib/gamelist.db go run ./cmd/seed -sample
//
// -sample expects a fresh database: names are unique, so a second run fails
// on the first developer it tries to insert again.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/sakif/game-list/internal/model"
	"github.com/sakif/game-list/internal/repository"
	sqliteRepo "github.com/sakif/game-list/internal/repository/sqlite"
)

var (
	dbPath  = flag.String("db", "", "SQLite file (default $DB_PATH, then data/gamelist.db)")
	sample  = flag.Bool("sample", false, "Insert the demo catalog")
	promote = flag.String("promote", "", "Username to grant the admin flag")
	revoke  = flag.Bool("revoke", false, "With -promote, revoke the admin flag instead")
)

// sampleGame is one demo entry. YearsAgo is relative to the current year so
// the landing page always has something in each of its three buckets.
type sampleGame struct {
	Title       string
	Description string
	YearsAgo    int
	Month       time.Month
	Developer   string
	Publisher   string
	Genres      []string
	Models      []string
	Platforms   []string
}

var sampleGames = []sampleGame{
	{"Starfall Tactics", "Turn-based squad combat on a dying moon.", 0, time.January, "Nimbus Works", "Bright Arc", []string{"Strategy"}, []string{"Premium"}, []string{"PC", "Switch"}},
	{"Harbor Lights", "A cozy fishing village sim.", 0, time.March, "Tidepool", "Bright Arc", []string{"Simulation"}, []string{"Premium"}, []string{"PC", "Switch"}},
	{"Ironclad Rally", "Arcade racing across ruined highways.", 0, time.February, "Redline Studio", "Velocity", []string{"Racing"}, []string{"Free to Play"}, []string{"PC", "PlayStation", "Xbox"}},
	{"Hollow Crown", "A soulslike set in a drowned kingdom.", 1, time.April, "Ashen Gate", "Velocity", []string{"Action", "RPG"}, []string{"Premium"}, []string{"PC", "PlayStation"}},
	{"Pocket Orchard", "Grow, trade and bake in a tiny orchard.", 1, time.June, "Tidepool", "Bright Arc", []string{"Simulation"}, []string{"Free to Play"}, []string{"Mobile"}},
	{"Signal Lost", "Radio-driven horror in an abandoned station.", 1, time.October, "Nimbus Works", "Northlight", []string{"Horror", "Adventure"}, []string{"Premium"}, []string{"PC"}},
	{"Guildmarch", "Build a merchant guild across four seasons.", 1, time.November, "Ashen Gate", "Northlight", []string{"Strategy"}, []string{"Subscription"}, []string{"PC"}},
	{"Skyline Drift", "Wingsuit racing through neon cities.", 2, time.May, "Redline Studio", "Velocity", []string{"Racing", "Sports"}, []string{"Premium"}, []string{"PlayStation", "Xbox"}},
	{"Emberfall Online", "A persistent fantasy world with seasonal wars.", 2, time.August, "Ashen Gate", "Northlight", []string{"RPG"}, []string{"Subscription"}, []string{"PC"}},
	{"Tiny Keepers", "Guard a lighthouse with a crew of robots.", 2, time.December, "Tidepool", "Bright Arc", []string{"Adventure"}, []string{"Premium"}, []string{"Switch", "Mobile"}},
}

func main() {
	flag.Parse()

	path := *dbPath
	if path == "" {
		path = os.Getenv("DB_PATH")
	}
	if path == "" {
		path = "data/gamelist.db"
	}

	if !*sample && *promote == "" {
		flag.Usage()
		os.Exit(2)
	}

	fmt.Printf("Opening database at: %s\n", path)
	db, err := sqliteRepo.New(path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()

	if *sample {
		n, err := seedSample(ctx, db, time.Now().Year())
		if err != nil {
			log.Fatalf("Failed to seed catalog: %v", err)
		}
		fmt.Printf("Inserted %d games\n", n)
	}

	if *promote != "" {
		if err := db.SetAdmin(ctx, *promote, !*revoke); err != nil {
			log.Fatalf("Failed to update %s: %v", *promote, err)
		}
		if *revoke {
			fmt.Printf("%s is no longer an administrator\n", *promote)
		} else {
			fmt.Printf("%s is now an administrator\n", *promote)
		}
	}
}

// seedSample inserts the demo catalog, creating organizations and tags on
// first use. It returns the number of games inserted.
func seedSample(ctx context.Context, db *sqliteRepo.DB, thisYear int) (int, error) {
	names := newNameCache(db)

	for _, sg := range sampleGames {
		devID, err := names.id(ctx, "developers", sg.Developer)
		if err != nil {
			return 0, err
		}
		pubID, err := names.id(ctx, "publishers", sg.Publisher)
		if err != nil {
			return 0, err
		}

		released := time.Date(thisYear-sg.YearsAgo, sg.Month, 15, 0, 0, 0, 0, time.UTC)
		gameID, err := db.InsertRecord(ctx, "games", repository.Record{
			"title":        sg.Title,
			"description":  sg.Description,
			"release_date": released.Format(model.DateLayout),
			"developer_id": devID,
			"publisher_id": pubID,
		})
		if err != nil {
			return 0, fmt.Errorf("inserting %q: %w", sg.Title, err)
		}

		tags := map[model.TagKind][]string{
			model.TagGenre:    sg.Genres,
			model.TagModel:    sg.Models,
			model.TagPlatform: sg.Platforms,
		}
		for kind, labels := range tags {
			ids := make([]int64, 0, len(labels))
			for _, label := range labels {
				id, err := names.id(ctx, string(kind), label)
				if err != nil {
					return 0, err
				}
				ids = append(ids, id)
			}
			if err := db.SetGameTags(ctx, gameID, kind, ids); err != nil {
				return 0, fmt.Errorf("tagging %q: %w", sg.Title, err)
			}
		}
	}
	return len(sampleGames), nil
}

// nameCache inserts each (table, name) row once per run.
type nameCache struct {
	db   *sqliteRepo.DB
	seen map[string]int64
}

func newNameCache(db *sqliteRepo.DB) *nameCache {
	return &nameCache{db: db, seen: make(map[string]int64)}
}

func (c *nameCache) id(ctx context.Context, table, name string) (int64, error) {
	key := table + "/" + name
	if id, ok := c.seen[key]; ok {
		return id, nil
	}
	id, err := c.db.InsertRecord(ctx, table, repository.Record{"name": name})
	if err != nil {
		return 0, fmt.Errorf("inserting %s %q: %w", table, name, err)
	}
	c.seen[key] = id
	return id, nil
}
