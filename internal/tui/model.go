package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"tvshelf/internal/app"
	"tvshelf/internal/domain"
	"tvshelf/internal/theme"
)

// The controller records fetch failures in its own state and the next render
// surfaces them, so these messages carry no error of their own.
type startedMsg struct{}

type episodesOpenedMsg struct {
	showID int
}

type model struct {
	ctx context.Context
	app *app.App

	theme   theme.Theme
	spinner spinner.Model

	showsSearch   textinput.Model
	episodeSearch textinput.Model
	omnibar       textinput.Model
	omnibarActive bool

	// Selector cursor for the shows view; 0 is the neutral "All shows" row.
	showOption int
	gridCursor int
	gridOffset int

	message  string
	width    int
	height   int
	quitting bool
}

func newModel(ctx context.Context, application *app.App) model {
	th := theme.ForName(application.Config().ColorTheme)

	showsSearch := textinput.New()
	showsSearch.Placeholder = "search shows"
	showsSearch.Prompt = "/ "
	showsSearch.CharLimit = 256
	showsSearch.Width = 40
	showsSearch.Focus()

	episodeSearch := textinput.New()
	episodeSearch.Placeholder = "search episodes"
	episodeSearch.Prompt = "/ "
	episodeSearch.CharLimit = 256
	episodeSearch.Width = 40

	omnibar := textinput.New()
	omnibar.Placeholder = "help"
	omnibar.Prompt = ": "
	omnibar.CharLimit = 512
	omnibar.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = th.Status

	return model{
		ctx:           ctx,
		app:           application,
		theme:         th,
		spinner:       sp,
		showsSearch:   showsSearch,
		episodeSearch: episodeSearch,
		omnibar:       omnibar,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, m.startupCmd())
}

func (m model) startupCmd() tea.Cmd {
	return func() tea.Msg {
		_ = m.app.Startup(m.ctx)
		return startedMsg{}
	}
}

func (m model) openShowCmd(id int) tea.Cmd {
	return func() tea.Msg {
		_ = m.app.OpenShow(m.ctx, id)
		return episodesOpenedMsg{showID: id}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		if m.app.State().Status == domain.StatusLoading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case startedMsg:
		return m, nil

	case episodesOpenedMsg:
		st := m.app.State()
		if st.View == domain.ViewEpisodes && st.SelectedShowID == msg.showID {
			m.gridCursor = 0
			m.gridOffset = 0
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		m.quitting = true
		return m, tea.Quit
	}

	if m.omnibarActive {
		return m.handleOmnibarKey(msg)
	}

	st := m.app.State()

	switch msg.Type {
	case tea.KeyEsc:
		if st.View == domain.ViewEpisodes {
			m.app.Back()
			m.gridCursor = 0
			m.gridOffset = 0
			m.message = ""
			return m, nil
		}
		return m, nil

	case tea.KeyTab:
		return m.cycleSelector(1), nil

	case tea.KeyShiftTab:
		return m.cycleSelector(-1), nil

	case tea.KeyUp, tea.KeyDown, tea.KeyLeft, tea.KeyRight:
		return m.moveGridCursor(msg.Type), nil

	case tea.KeyEnter:
		return m.activateCursor()
	}

	if msg.String() == ":" && m.activeSearchValue() == "" {
		m.omnibarActive = true
		m.omnibar.SetValue("")
		m.omnibar.Focus()
		return m, textinput.Blink
	}

	return m.updateSearch(msg)
}

func (m model) handleOmnibarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.omnibarActive = false
		m.omnibar.Blur()
		return m, nil
	case tea.KeyEnter:
		input := strings.TrimSpace(m.omnibar.Value())
		m.omnibarActive = false
		m.omnibar.Blur()
		m.omnibar.SetValue("")
		if input == "" {
			return m, nil
		}
		result, err := m.app.Execute(m.ctx, input)
		if err != nil {
			m.message = m.theme.Error.Render(err.Error())
			return m, nil
		}
		m.message = result.Message
		m.theme = theme.ForName(m.app.Config().ColorTheme)
		if result.Quit {
			m.quitting = true
			return m, tea.Quit
		}
		m.gridCursor = 0
		m.gridOffset = 0
		// Commands such as open can leave the session loading.
		return m, m.spinner.Tick
	}

	var cmd tea.Cmd
	m.omnibar, cmd = m.omnibar.Update(msg)
	return m, cmd
}

// cycleSelector steps the dependent selector control. In the shows view the
// pick is only committed on enter; in the episodes view cycling pins (or
// unpins) an episode immediately.
func (m model) cycleSelector(delta int) model {
	st := m.app.State()

	switch st.View {
	case domain.ViewShows:
		options := len(m.app.VisibleShows()) + 1
		if options <= 1 {
			return m
		}
		m.showOption = (m.showOption + delta + options) % options

	case domain.ViewEpisodes:
		episodes := m.allEpisodes()
		options := len(episodes) + 1
		if options <= 1 {
			return m
		}
		current := 0
		for i, episode := range episodes {
			if episode.ID == st.SelectedEpisodeID {
				current = i + 1
				break
			}
		}
		next := (current + delta + options) % options
		if next == 0 {
			m.app.SelectEpisode(0)
		} else {
			m.app.SelectEpisode(episodes[next-1].ID)
		}
		m.episodeSearch.SetValue(m.app.State().EpisodeSearch)
		m.gridCursor = 0
		m.gridOffset = 0
	}
	return m
}

func (m model) moveGridCursor(key tea.KeyType) model {
	count := m.visibleCount()
	if count == 0 {
		return m
	}

	columns := m.columns()
	switch key {
	case tea.KeyUp:
		if m.gridCursor-columns >= 0 {
			m.gridCursor -= columns
		}
	case tea.KeyDown:
		if m.gridCursor+columns < count {
			m.gridCursor += columns
		}
	case tea.KeyLeft:
		if m.gridCursor > 0 {
			m.gridCursor--
		}
	case tea.KeyRight:
		if m.gridCursor < count-1 {
			m.gridCursor++
		}
	}

	visibleRows := m.visibleRows()
	row := m.gridCursor / columns
	firstRow := m.gridOffset / columns
	if row < firstRow {
		m.gridOffset = row * columns
	} else if row >= firstRow+visibleRows {
		m.gridOffset = (row - visibleRows + 1) * columns
	}
	return m
}

func (m model) activateCursor() (tea.Model, tea.Cmd) {
	st := m.app.State()

	switch st.View {
	case domain.ViewShows:
		shows := m.app.VisibleShows()
		var target int
		if m.showOption > 0 && m.showOption <= len(shows) {
			target = shows[m.showOption-1].ID
		} else if m.gridCursor < len(shows) {
			target = shows[m.gridCursor].ID
		}
		if target == 0 {
			return m, nil
		}
		m.showOption = 0
		m.message = ""
		m.episodeSearch.SetValue("")
		// Restart the spinner alongside the fetch; the tick chain stops when
		// nothing is loading.
		return m, tea.Batch(m.spinner.Tick, m.openShowCmd(target))

	case domain.ViewEpisodes:
		episodes := m.app.VisibleEpisodes()
		if m.gridCursor < len(episodes) {
			m.app.SelectEpisode(episodes[m.gridCursor].ID)
			m.episodeSearch.SetValue(m.app.State().EpisodeSearch)
			m.gridCursor = 0
			m.gridOffset = 0
		}
	}
	return m, nil
}

func (m model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	st := m.app.State()
	var cmd tea.Cmd

	switch st.View {
	case domain.ViewShows:
		if !m.showsSearch.Focused() {
			m.showsSearch.Focus()
		}
		m.showsSearch, cmd = m.showsSearch.Update(msg)
		m.app.SetShowsSearch(m.showsSearch.Value())
		m.showOption = 0
	case domain.ViewEpisodes:
		if !m.episodeSearch.Focused() {
			m.episodeSearch.Focus()
		}
		m.episodeSearch, cmd = m.episodeSearch.Update(msg)
		m.app.SetEpisodeSearch(m.episodeSearch.Value())
	}

	m.gridCursor = 0
	m.gridOffset = 0
	return m, cmd
}

func (m model) activeSearchValue() string {
	if m.app.State().View == domain.ViewEpisodes {
		return m.episodeSearch.Value()
	}
	return m.showsSearch.Value()
}

func (m model) visibleCount() int {
	if m.app.State().View == domain.ViewEpisodes {
		return len(m.app.VisibleEpisodes())
	}
	return len(m.app.VisibleShows())
}

func (m model) allEpisodes() []domain.Episode {
	return m.app.SelectorEpisodes()
}

func (m model) columns() int {
	columns := m.app.Config().GridColumns
	if columns <= 0 {
		columns = 1
	}
	return columns
}

func (m model) visibleRows() int {
	// Each card is roughly cardHeight lines; leave room for the chrome.
	rows := (m.height - chromeLines) / cardHeight
	if rows < 1 {
		rows = 1
	}
	return rows
}
