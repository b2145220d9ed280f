package model

import "time"

// DateLayout is how release dates are stored and accepted: a calendar day,
// no time of day and no zone. Storing text in this layout keeps SQL range
// comparisons (release_date >= ?) correct under plain string ordering.
const DateLayout = "2006-01-02"

// Game is a catalog item.
//
// Developer and Publisher are optional references; when present the
// repository fills in the organization name alongside the id so templates can
// render it without a second lookup. The three tag slices are filled by the
// repository from their join tables.
type Game struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ReleaseDate time.Time `json:"releaseDate"`

	DeveloperID *int64 `json:"developerId,omitempty"`
	Developer   string `json:"developer,omitempty"`
	PublisherID *int64 `json:"publisherId,omitempty"`
	Publisher   string `json:"publisher,omitempty"`

	Genres    []string `json:"genres"`
	Models    []string `json:"models"`
	Platforms []string `json:"platforms"`
}

// Year is a convenience for templates.
func (g Game) Year() int {
	return g.ReleaseDate.Year()
}
