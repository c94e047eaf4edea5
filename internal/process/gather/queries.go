package gather

import (
	"strconv"
	"strings"

	"github.com/lueurxax/event-digest-bot/internal/core/catalog"
	"github.com/lueurxax/event-digest-bot/internal/core/domain"
)

// MaxQueries caps the number of search queries per run.
const MaxQueries = 6

// BuildQueries returns one query per selected venue, or per catalog venue
// when the profile selects none. Known venues are restricted to their
// primary domain; unknown identifiers are searched as plain text.
func BuildQueries(profile domain.SubscriberProfile, cat *catalog.Catalog, year int) []string {
	venueIDs := profile.Venues
	if len(nonEmpty(venueIDs)) == 0 {
		venueIDs = make([]string, 0, len(cat.Venues()))
		for _, v := range cat.Venues() {
			venueIDs = append(venueIDs, v.ID)
		}
	}

	qualifier := strings.TrimSpace(cat.City() + " " + cat.Topic() + " " + strconv.Itoa(year))

	seen := make(map[string]bool, len(venueIDs))
	queries := make([]string, 0, min(len(venueIDs), MaxQueries))

	for _, id := range venueIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}

		var query string

		if v, ok := cat.Venue(id); ok && v.PrimaryDomain() != "" {
			query = "site:" + v.PrimaryDomain() + " " + qualifier
		} else {
			query = cat.VenueDisplayName(id) + " " + qualifier
		}

		if seen[query] {
			continue
		}

		seen[query] = true
		queries = append(queries, query)

		if len(queries) == MaxQueries {
			break
		}
	}

	return queries
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))

	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}

	return out
}
