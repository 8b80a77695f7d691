package tui

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"tvshelf/internal/app"
	"tvshelf/internal/config"
	"tvshelf/internal/domain"
)

type stubGateway struct {
	mu            sync.Mutex
	shows         []domain.Show
	episodes      map[int][]domain.Episode
	showsErr      error
	episodesErr   error
	episodesBlock chan struct{} // when set, FetchEpisodes waits until closed
	episodesBegun chan struct{} // when set, closed once FetchEpisodes is entered
}

func (g *stubGateway) FetchShows(ctx context.Context) ([]domain.Show, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.showsErr != nil {
		return nil, g.showsErr
	}
	return g.shows, nil
}

func (g *stubGateway) FetchEpisodes(ctx context.Context, showID int) ([]domain.Episode, error) {
	g.mu.Lock()
	begun := g.episodesBegun
	block := g.episodesBlock
	g.mu.Unlock()
	if begun != nil {
		close(begun)
	}
	if block != nil {
		<-block
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.episodesErr != nil {
		return nil, g.episodesErr
	}
	return g.episodes[showID], nil
}

func newTestModel(t *testing.T) (model, *app.App) {
	t.Helper()

	gateway := &stubGateway{
		shows: []domain.Show{
			{ID: 10, Name: "Under the Dome", Genres: []string{"Drama"}, Status: "Ended", Runtime: 60, Rating: 6.5},
			{ID: 20, Name: "Bitten", Genres: []string{"Horror"}},
		},
		episodes: map[int][]domain.Episode{
			10: {
				{ID: 100, Season: 1, Number: 1, Name: "Pilot", Summary: "<p>The town is trapped.</p>"},
				{ID: 101, Season: 1, Number: 2, Name: "The Fire", Summary: "<p>A deadly fire.</p>"},
			},
		},
	}

	a := app.NewWithDependencies(config.Defaults(), t.TempDir()+"/config.yaml", app.Dependencies{Gateway: gateway})
	return newModel(context.Background(), a), a
}

func TestViewShortCircuitsWhileLoading(t *testing.T) {
	m, _ := newTestModel(t)

	out := m.View()
	if !strings.Contains(out, "Loading") {
		t.Fatalf("pre-startup view missing loading message:\n%s", out)
	}
	if strings.Contains(out, "shows") {
		t.Fatalf("loading view must skip listing rendering:\n%s", out)
	}
}

func TestViewShortCircuitsOnError(t *testing.T) {
	gateway := &stubGateway{showsErr: context.DeadlineExceeded}
	a := app.NewWithDependencies(config.Defaults(), t.TempDir()+"/config.yaml", app.Dependencies{Gateway: gateway})
	m := newModel(context.Background(), a)

	_ = a.Startup(context.Background())
	out := m.View()
	if !strings.Contains(out, "Could not load the show directory.") {
		t.Fatalf("error view missing status message:\n%s", out)
	}
	if strings.Contains(out, "of 0 shows") {
		t.Fatalf("error view must skip listing rendering:\n%s", out)
	}
}

func TestViewIsIdempotent(t *testing.T) {
	m, a := newTestModel(t)
	if err := a.Startup(context.Background()); err != nil {
		t.Fatalf("Startup() error = %v", err)
	}

	first := m.View()
	second := m.View()
	if first != second {
		t.Fatalf("View() not idempotent:\n---\n%s\n---\n%s", first, second)
	}
}

func TestShowsViewListsDirectory(t *testing.T) {
	m, a := newTestModel(t)
	if err := a.Startup(context.Background()); err != nil {
		t.Fatalf("Startup() error = %v", err)
	}

	out := m.View()
	if !strings.Contains(out, "2 of 2 shows") {
		t.Fatalf("shows view missing result count:\n%s", out)
	}
	if !strings.Contains(out, "Under the Dome") || !strings.Contains(out, "Bitten") {
		t.Fatalf("shows view missing cards:\n%s", out)
	}
	if !strings.Contains(out, "All shows") {
		t.Fatalf("show selector missing neutral option:\n%s", out)
	}
}

func TestViewResyncsAcrossViewSwitch(t *testing.T) {
	m, a := newTestModel(t)
	ctx := context.Background()
	if err := a.Startup(ctx); err != nil {
		t.Fatalf("Startup() error = %v", err)
	}
	if err := a.OpenShow(ctx, 10); err != nil {
		t.Fatalf("OpenShow() error = %v", err)
	}

	out := m.View()
	if !strings.Contains(out, "S01-E01") || !strings.Contains(out, "Pilot") {
		t.Fatalf("episodes view missing episode cards:\n%s", out)
	}
	if !strings.Contains(out, "2 of 2 episodes") {
		t.Fatalf("episodes view missing result count:\n%s", out)
	}
	if !strings.Contains(out, "All episodes") {
		t.Fatalf("episode selector missing neutral option:\n%s", out)
	}
	if strings.Contains(out, "of 2 shows") {
		t.Fatalf("stale shows fragment survived the view switch:\n%s", out)
	}

	a.Back()
	out = m.View()
	if !strings.Contains(out, "2 of 2 shows") {
		t.Fatalf("shows view not restored after back:\n%s", out)
	}
	if strings.Contains(out, "of 2 episodes") {
		t.Fatalf("stale episodes fragment survived back navigation:\n%s", out)
	}
}

func TestEscNavigatesBack(t *testing.T) {
	m, a := newTestModel(t)
	ctx := context.Background()
	if err := a.Startup(ctx); err != nil {
		t.Fatalf("Startup() error = %v", err)
	}
	if err := a.OpenShow(ctx, 10); err != nil {
		t.Fatalf("OpenShow() error = %v", err)
	}

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = updated.(model)

	if st := a.State(); st.View != domain.ViewShows {
		t.Fatalf("esc did not navigate back: %+v", st)
	}
}

func TestEnterOnShowRestartsSpinnerTick(t *testing.T) {
	m, a := newTestModel(t)
	if err := a.Startup(context.Background()); err != nil {
		t.Fatalf("Startup() error = %v", err)
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("enter on a show card returned no command")
	}

	// The dispatch must carry a spinner tick alongside the fetch, otherwise
	// the tick chain stays dead and the loading view never animates.
	batch, ok := cmd().(tea.BatchMsg)
	if !ok {
		t.Fatalf("enter dispatch = %T; want a batch", cmd())
	}
	var sawTick, sawOpened bool
	for _, c := range batch {
		switch c().(type) {
		case spinner.TickMsg:
			sawTick = true
		case episodesOpenedMsg:
			sawOpened = true
		}
	}
	if !sawTick || !sawOpened {
		t.Fatalf("enter dispatch missing parts: tick=%v opened=%v", sawTick, sawOpened)
	}
}

func TestSpinnerTickChainAliveWhileLoading(t *testing.T) {
	gateway := &stubGateway{
		shows:         []domain.Show{{ID: 10, Name: "Under the Dome"}},
		episodes:      map[int][]domain.Episode{10: {{ID: 100, Name: "Pilot"}}},
		episodesBlock: make(chan struct{}),
		episodesBegun: make(chan struct{}),
	}
	a := app.NewWithDependencies(config.Defaults(), t.TempDir()+"/config.yaml", app.Dependencies{Gateway: gateway})
	m := newModel(context.Background(), a)
	if err := a.Startup(context.Background()); err != nil {
		t.Fatalf("Startup() error = %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = a.OpenShow(context.Background(), 10)
	}()
	<-gateway.episodesBegun

	if a.State().Status != domain.StatusLoading {
		t.Fatalf("session not loading while fetch is in flight: %+v", a.State())
	}
	if _, cmd := m.Update(spinner.TickMsg{}); cmd == nil {
		t.Fatal("spinner tick returned no follow-up while loading")
	}

	close(gateway.episodesBlock)
	<-done

	// Once nothing is loading the chain is allowed to stop.
	if _, cmd := m.Update(spinner.TickMsg{}); cmd != nil {
		t.Fatal("spinner tick kept running after loading finished")
	}
}

func TestOmnibarCommandKeepsSpinnerAlive(t *testing.T) {
	m, a := newTestModel(t)
	if err := a.Startup(context.Background()); err != nil {
		t.Fatalf("Startup() error = %v", err)
	}

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{':'}})
	m = updated.(model)
	for _, r := range "help" {
		updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = updated.(model)
	}
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("omnibar command execution returned no follow-up command")
	}
	if _, ok := cmd().(spinner.TickMsg); !ok {
		t.Fatalf("omnibar follow-up = %T; want a spinner tick", cmd())
	}
}

func TestEpisodeLoadFailureSurfacesThroughRender(t *testing.T) {
	gateway := &stubGateway{
		shows:       []domain.Show{{ID: 10, Name: "Under the Dome"}},
		episodes:    map[int][]domain.Episode{},
		episodesErr: context.DeadlineExceeded,
	}
	a := app.NewWithDependencies(config.Defaults(), t.TempDir()+"/config.yaml", app.Dependencies{Gateway: gateway})
	m := newModel(context.Background(), a)
	if err := a.Startup(context.Background()); err != nil {
		t.Fatalf("Startup() error = %v", err)
	}

	msg := m.openShowCmd(10)()
	updated, _ := m.Update(msg)
	m = updated.(model)

	if out := m.View(); !strings.Contains(out, "Could not load episodes for this show.") {
		t.Fatalf("episode failure not surfaced by render:\n%s", out)
	}
}

func TestTypingDrivesShowsSearch(t *testing.T) {
	m, a := newTestModel(t)
	if err := a.Startup(context.Background()); err != nil {
		t.Fatalf("Startup() error = %v", err)
	}

	for _, r := range "bitten" {
		updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = updated.(model)
	}

	if st := a.State(); st.ShowsSearch != "bitten" {
		t.Fatalf("ShowsSearch = %q; want %q", st.ShowsSearch, "bitten")
	}
	out := m.View()
	if !strings.Contains(out, "1 of 2 shows") {
		t.Fatalf("filtered count missing:\n%s", out)
	}
	if strings.Contains(out, "Under the Dome") {
		t.Fatalf("filtered-out card still rendered:\n%s", out)
	}
}

func TestEpisodeSelectorCyclingPinsEpisode(t *testing.T) {
	m, a := newTestModel(t)
	ctx := context.Background()
	if err := a.Startup(ctx); err != nil {
		t.Fatalf("Startup() error = %v", err)
	}
	if err := a.OpenShow(ctx, 10); err != nil {
		t.Fatalf("OpenShow() error = %v", err)
	}

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = updated.(model)

	st := a.State()
	if st.SelectedEpisodeID != 100 {
		t.Fatalf("tab did not pin the first episode: %+v", st)
	}
	if episodes := a.VisibleEpisodes(); len(episodes) != 1 || episodes[0].ID != 100 {
		t.Fatalf("pinned listing = %v", episodes)
	}
	if out := m.View(); !strings.Contains(out, "1 of 2 episodes") {
		t.Fatalf("pinned count missing:\n%s", out)
	}

	// Cycling past the end wraps to the neutral option and unpins.
	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = updated.(model)
	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = updated.(model)
	if st := a.State(); st.SelectedEpisodeID != 0 {
		t.Fatalf("cycling to neutral did not unpin: %+v", st)
	}
}

func TestOmnibarOpenAndDismiss(t *testing.T) {
	m, a := newTestModel(t)
	if err := a.Startup(context.Background()); err != nil {
		t.Fatalf("Startup() error = %v", err)
	}

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{':'}})
	m = updated.(model)
	if !m.omnibarActive {
		t.Fatal("':' did not open the omnibar")
	}
	if out := m.View(); !strings.Contains(out, ": ") {
		t.Fatalf("omnibar not rendered:\n%s", out)
	}

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = updated.(model)
	if m.omnibarActive {
		t.Fatal("esc did not dismiss the omnibar")
	}
}

func TestOmnibarExecutesBackCommand(t *testing.T) {
	m, a := newTestModel(t)
	ctx := context.Background()
	if err := a.Startup(ctx); err != nil {
		t.Fatalf("Startup() error = %v", err)
	}
	if err := a.OpenShow(ctx, 10); err != nil {
		t.Fatalf("OpenShow() error = %v", err)
	}

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{':'}})
	m = updated.(model)
	for _, r := range "back" {
		updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = updated.(model)
	}
	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(model)

	if st := a.State(); st.View != domain.ViewShows {
		t.Fatalf("omnibar back command did not navigate: %+v", st)
	}
}

func TestSelectorOptionLabels(t *testing.T) {
	shows := []domain.Show{{ID: 1, Name: "Under the Dome"}}
	options := showOptionLabels(shows, 28)
	if len(options) != 2 || options[0] != "All shows" || options[1] != "Under the Dome" {
		t.Fatalf("showOptionLabels() = %v", options)
	}

	episodes := []domain.Episode{
		{ID: 1, Season: 1, Number: 7, Name: "Imperfect Circles"},
		{ID: 2, Season: 12, Number: 3, Name: "Finale"},
	}
	labels := episodeOptionLabels(episodes, 40)
	if labels[0] != "All episodes" {
		t.Fatalf("episodeOptionLabels()[0] = %q", labels[0])
	}
	if labels[1] != "S01-E07 - Imperfect Circles" {
		t.Fatalf("episodeOptionLabels()[1] = %q", labels[1])
	}
	if labels[2] != "S12-E03 - Finale" {
		t.Fatalf("episodeOptionLabels()[2] = %q", labels[2])
	}
}

func TestQuitKey(t *testing.T) {
	m, _ := newTestModel(t)
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	m = updated.(model)
	if !m.quitting || cmd == nil {
		t.Fatal("ctrl+c did not quit")
	}
	if out := m.View(); out != "" {
		t.Fatalf("quitting view = %q; want empty", out)
	}
}
