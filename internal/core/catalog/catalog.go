// Package catalog holds the fixed lookup tables the pipeline matches against:
// the genre vocabulary, the venue table (display names and web domains) and the city
// the service covers. A Catalog is immutable once built; tests substitute fixtures via New.
package catalog

import (
	"strings"

	"golang.org/x/text/cases"
)

// Venue maps a venue identifier to its display name and web domains.
// The first domain is the primary one used for search queries.
type Venue struct {
	ID      string   `yaml:"id"`
	Name    string   `yaml:"name"`
	Domains []string `yaml:"domains"`
}

// PrimaryDomain returns the domain used to build search queries, or "".
func (v Venue) PrimaryDomain() string {
	if len(v.Domains) == 0 {
		return ""
	}

	return v.Domains[0]
}

// Catalog is the immutable vocabulary snapshot used by one pipeline run.
type Catalog struct {
	city      string
	topic     string
	genres    []string
	genreKeys map[string]struct{}
	venues    []Venue
	venueByID map[string]Venue
}

// New builds a catalog. Inputs are copied, so later changes by the caller are not observed.
func New(city, topic string, genres []string, venues []Venue) *Catalog {
	c := &Catalog{
		city:      strings.TrimSpace(city),
		topic:     strings.TrimSpace(topic),
		genres:    make([]string, 0, len(genres)),
		genreKeys: make(map[string]struct{}, len(genres)),
		venues:    make([]Venue, 0, len(venues)),
		venueByID: make(map[string]Venue, len(venues)),
	}

	for _, g := range genres {
		key := FoldKey(g)
		if key == "" {
			continue
		}

		if _, dup := c.genreKeys[key]; dup {
			continue
		}

		c.genreKeys[key] = struct{}{}
		c.genres = append(c.genres, strings.TrimSpace(g))
	}

	for _, v := range venues {
		id := strings.TrimSpace(v.ID)
		if id == "" {
			continue
		}

		if _, dup := c.venueByID[id]; dup {
			continue
		}

		venue := Venue{ID: id, Name: strings.TrimSpace(v.Name), Domains: normalizeDomains(v.Domains)}
		if venue.Name == "" {
			venue.Name = id
		}

		c.venueByID[id] = venue
		c.venues = append(c.venues, venue)
	}

	return c
}

// City returns the city the catalog covers.
func (c *Catalog) City() string {
	return c.city
}

// Topic returns the search qualifier appended to venue queries.
func (c *Catalog) Topic() string {
	return c.topic
}

// Genres returns a copy of the genre vocabulary in catalog order.
func (c *Catalog) Genres() []string {
	out := make([]string, len(c.genres))
	copy(out, c.genres)

	return out
}

// Venues returns a copy of the venue table in catalog order.
func (c *Catalog) Venues() []Venue {
	out := make([]Venue, len(c.venues))
	for i, v := range c.venues {
		out[i] = Venue{ID: v.ID, Name: v.Name, Domains: append([]string(nil), v.Domains...)}
	}

	return out
}

// Venue looks up a venue by identifier.
func (c *Catalog) Venue(id string) (Venue, bool) {
	v, ok := c.venueByID[strings.TrimSpace(id)]
	if !ok {
		return Venue{}, false
	}

	v.Domains = append([]string(nil), v.Domains...)

	return v, true
}

// VenueDisplayName returns the display name for a known venue or the identifier itself.
func (c *Catalog) VenueDisplayName(id string) string {
	if v, ok := c.Venue(id); ok {
		return v.Name
	}

	return strings.TrimSpace(id)
}

// IsKnownGenre reports whether the label belongs to the vocabulary, ignoring case.
func (c *Catalog) IsKnownGenre(label string) bool {
	_, ok := c.genreKeys[FoldKey(label)]

	return ok
}

// IsAllGenres reports whether the selection covers every genre in the vocabulary.
// Order, case and duplicates do not matter. Such a selection means "no genre filter"
// for both the prompt and the validator.
func (c *Catalog) IsAllGenres(selected []string) bool {
	if len(c.genreKeys) == 0 || len(selected) == 0 {
		return false
	}

	seen := make(map[string]struct{}, len(selected))
	for _, g := range selected {
		seen[FoldKey(g)] = struct{}{}
	}

	for key := range c.genreKeys {
		if _, ok := seen[key]; !ok {
			return false
		}
	}

	return true
}

// GenreFilterActive reports whether events must be filtered by the given genre selection.
func (c *Catalog) GenreFilterActive(selected []string) bool {
	hasAny := false

	for _, g := range selected {
		if FoldKey(g) != "" {
			hasAny = true
			break
		}
	}

	return hasAny && !c.IsAllGenres(selected)
}

// FoldKey returns the case-folded, trimmed form used for case-insensitive comparisons.
func FoldKey(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

func normalizeDomains(domains []string) []string {
	out := make([]string, 0, len(domains))

	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		d = strings.TrimPrefix(d, "https://")
		d = strings.TrimPrefix(d, "http://")
		d = strings.TrimSuffix(d, "/")

		if d != "" {
			out = append(out, d)
		}
	}

	return out
}
