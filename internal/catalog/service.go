// Package catalog is the single source of truth for fetched show and episode
// data. Shows are fetched at most once per session, episode collections at
// most once per show id; concurrent requests for the same resource collapse
// into one transport call.
package catalog

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"tvshelf/internal/domain"
)

const showsKey = "shows"

// Gateway fetches collections from the remote directory.
type Gateway interface {
	FetchShows(ctx context.Context) ([]domain.Show, error)
	FetchEpisodes(ctx context.Context, showID int) ([]domain.Episode, error)
}

// Service caches fetched collections for the lifetime of the process.
type Service struct {
	gateway Gateway
	flight  singleflight.Group

	mu       sync.Mutex
	shows    []domain.Show
	episodes map[int][]domain.Episode
}

func NewService(gateway Gateway) *Service {
	return &Service{
		gateway:  gateway,
		episodes: make(map[int][]domain.Episode),
	}
}

// Shows returns the cached show directory, fetching it on first use. Shows
// are sorted once on fetch by display name, case-insensitively and
// locale-aware; the stable sort keeps ties in original fetch order. Failed
// fetches cache nothing.
func (s *Service) Shows(ctx context.Context) ([]domain.Show, error) {
	s.mu.Lock()
	if s.shows != nil {
		shows := s.shows
		s.mu.Unlock()
		return shows, nil
	}
	s.mu.Unlock()

	result, err, _ := s.flight.Do(showsKey, func() (interface{}, error) {
		shows, err := s.fetchShows(ctx)
		return shows, err
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Show), nil
}

// fetchShows is the flight body for the show directory. A caller that raced
// past the cache check in Shows may start a fresh flight after an earlier one
// already filled the cache, so the cache is checked again here.
func (s *Service) fetchShows(ctx context.Context) ([]domain.Show, error) {
	s.mu.Lock()
	if s.shows != nil {
		shows := s.shows
		s.mu.Unlock()
		return shows, nil
	}
	s.mu.Unlock()

	shows, err := s.gateway.FetchShows(ctx)
	if err != nil {
		return nil, err
	}
	if shows == nil {
		shows = []domain.Show{}
	}
	sortShows(shows)
	s.mu.Lock()
	s.shows = shows
	s.mu.Unlock()
	return shows, nil
}

// Episodes returns the cached episode collection for one show, fetching it
// on first use. Episodes keep the order the API returned them in.
func (s *Service) Episodes(ctx context.Context, showID int) ([]domain.Episode, error) {
	s.mu.Lock()
	if episodes, ok := s.episodes[showID]; ok {
		s.mu.Unlock()
		return episodes, nil
	}
	s.mu.Unlock()

	key := "episodes/" + strconv.Itoa(showID)
	result, err, _ := s.flight.Do(key, func() (interface{}, error) {
		episodes, err := s.fetchEpisodes(ctx, showID)
		return episodes, err
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Episode), nil
}

// fetchEpisodes is the flight body for one episode collection; like
// fetchShows it re-checks the cache before touching the gateway.
func (s *Service) fetchEpisodes(ctx context.Context, showID int) ([]domain.Episode, error) {
	s.mu.Lock()
	if episodes, ok := s.episodes[showID]; ok {
		s.mu.Unlock()
		return episodes, nil
	}
	s.mu.Unlock()

	episodes, err := s.gateway.FetchEpisodes(ctx, showID)
	if err != nil {
		return nil, err
	}
	if episodes == nil {
		episodes = []domain.Episode{}
	}
	s.mu.Lock()
	s.episodes[showID] = episodes
	s.mu.Unlock()
	return episodes, nil
}

// HasShows reports whether the show directory has been fetched.
func (s *Service) HasShows() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shows != nil
}

// HasEpisodes reports whether episodes for the given show are cached.
func (s *Service) HasEpisodes(showID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.episodes[showID]
	return ok
}

// CachedShows returns the show directory without triggering a fetch; nil
// when nothing has been fetched yet.
func (s *Service) CachedShows() []domain.Show {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shows
}

// CachedEpisodes returns the cached episodes for a show without triggering a
// fetch; nil when the show has never been opened.
func (s *Service) CachedEpisodes(showID int) []domain.Episode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.episodes[showID]
}

// ShowByID looks a show up in the cached directory.
func (s *Service) ShowByID(id int) (domain.Show, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, show := range s.shows {
		if show.ID == id {
			return show, true
		}
	}
	return domain.Show{}, false
}

func sortShows(shows []domain.Show) {
	c := collate.New(language.Und, collate.IgnoreCase)
	sort.SliceStable(shows, func(i, j int) bool {
		return c.CompareString(shows[i].Name, shows[j].Name) < 0
	})
}
