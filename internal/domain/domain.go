package domain

// Status gates what the renderer may draw.
type Status string

const (
	StatusIdle    Status = "IDLE"
	StatusLoading Status = "LOADING"
	StatusLoaded  Status = "LOADED"
	StatusError   Status = "ERROR"
)

// View selects which top-level listing is visible.
type View string

const (
	ViewShows    View = "SHOWS"
	ViewEpisodes View = "EPISODES"
)

// Show is a series-level catalog entry. Immutable once fetched; owned by the
// catalog cache.
type Show struct {
	ID       int
	Name     string
	Summary  string // may contain HTML markup
	Genres   []string
	Status   string
	Runtime  int
	Rating   float64
	ImageURL string
}

// Episode belongs to exactly one show and is addressed by (show id, episode
// id). Immutable once fetched.
type Episode struct {
	ID       int
	Season   int
	Number   int
	Name     string
	Summary  string // may contain HTML markup
	URL      string
	ImageURL string
}

// State is the single mutable view-model for a session. All mutation funnels
// through the app controller; a zero id means no selection.
type State struct {
	Status            Status
	ErrorMessage      string
	View              View
	ShowsSearch       string
	EpisodeSearch     string
	SelectedShowID    int
	SelectedEpisodeID int
}

// NewState returns the startup state.
func NewState() State {
	return State{
		Status: StatusIdle,
		View:   ViewShows,
	}
}
