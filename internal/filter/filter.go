// Package filter holds the pure selection and search functions shared by the
// controller and the renderer. Matching is plain substring containment over
// case-folded text, never tokenized or fuzzy.
package filter

import (
	"fmt"
	"strings"

	"github.com/jaytaylor/html2text"

	"tvshelf/internal/domain"
)

// Shows returns the shows whose name, plain-text summary, or space-joined
// genre list contains the trimmed, case-folded search text. An empty search
// returns the input unchanged, in order.
func Shows(shows []domain.Show, search string) []domain.Show {
	needle := fold(search)
	if needle == "" {
		return shows
	}

	matched := make([]domain.Show, 0, len(shows))
	for _, show := range shows {
		if matchesAny(needle, show.Name, PlainText(show.Summary), strings.Join(show.Genres, " ")) {
			matched = append(matched, show)
		}
	}
	return matched
}

// Episodes narrows an episode collection. An explicit pick wins over search:
// when selectedID is non-zero the result is exactly the matching episode, or
// empty when the id is stale (a valid zero-result state, not an error).
func Episodes(episodes []domain.Episode, search string, selectedID int) []domain.Episode {
	if selectedID != 0 {
		for _, episode := range episodes {
			if episode.ID == selectedID {
				return []domain.Episode{episode}
			}
		}
		return []domain.Episode{}
	}

	needle := fold(search)
	if needle == "" {
		return episodes
	}

	matched := make([]domain.Episode, 0, len(episodes))
	for _, episode := range episodes {
		if matchesAny(needle, episode.Name, PlainText(episode.Summary)) {
			matched = append(matched, episode)
		}
	}
	return matched
}

// matchesAny tests the needle against each field on its own; a needle that
// would only match by spanning two fields is not a match.
func matchesAny(needle string, fields ...string) bool {
	for _, field := range fields {
		if strings.Contains(fold(field), needle) {
			return true
		}
	}
	return false
}

// PlainText strips markup and returns the visible text of an HTML fragment.
// Total: on a fragment html2text cannot parse, the raw input is returned so
// search never loses content.
func PlainText(markup string) string {
	if markup == "" {
		return ""
	}
	text, err := html2text.FromString(markup, html2text.Options{TextOnly: true})
	if err != nil {
		return markup
	}
	return text
}

// EpisodeCode renders the conventional season/episode label, zero-padded to
// at least two digits: EpisodeCode(1, 7) == "S01-E07".
func EpisodeCode(season, number int) string {
	return fmt.Sprintf("S%02d-E%02d", season, number)
}

func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
