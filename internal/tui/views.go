package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"tvshelf/internal/domain"
	"tvshelf/internal/filter"
)

// Layout constants for the card grid.
const (
	cardWidth   = 30
	cardHeight  = 7
	chromeLines = 9
)

// View is a pure projection of the application state onto the terminal:
// identical state renders identical output, and every call rebuilds the
// whole surface so nothing stale survives a view switch.
func (m model) View() string {
	if m.quitting {
		return ""
	}

	st := m.app.State()
	var b strings.Builder

	b.WriteString(m.theme.Header.Render("tvshelf — " + m.breadcrumb(st)))
	b.WriteString("\n")

	switch st.Status {
	case domain.StatusIdle, domain.StatusLoading:
		b.WriteString(m.spinner.View())
		b.WriteString(m.theme.Status.Render(" Loading…"))
		b.WriteString("\n")
		return b.String()
	case domain.StatusError:
		b.WriteString(m.theme.Error.Render(st.ErrorMessage))
		b.WriteString("\n")
		if st.View == domain.ViewEpisodes {
			b.WriteString(m.theme.Dim.Render("esc to return to shows · ctrl+c to quit"))
		} else {
			b.WriteString(m.theme.Dim.Render("ctrl+c to quit"))
		}
		b.WriteString("\n")
		return b.String()
	}

	switch st.View {
	case domain.ViewEpisodes:
		m.renderEpisodesView(&b, st)
	default:
		m.renderShowsView(&b, st)
	}

	if m.omnibarActive {
		b.WriteString(m.omnibar.View())
		b.WriteString("\n")
	}
	if m.message != "" {
		b.WriteString(m.theme.Status.Render(m.message))
		b.WriteString("\n")
	}

	return b.String()
}

func (m model) breadcrumb(st domain.State) string {
	if st.View == domain.ViewEpisodes {
		if show, ok := m.app.SelectedShow(); ok {
			return show.Name
		}
		return "Episodes"
	}
	return "Shows"
}

func (m model) renderShowsView(b *strings.Builder, st domain.State) {
	visible := m.app.VisibleShows()
	total := len(m.app.AllShows())

	b.WriteString(m.showsSearch.View())
	b.WriteString("\n")

	options := showOptionLabels(visible, m.app.Config().ShowNameMaxLength)
	b.WriteString(m.renderSelector("Show", options, m.showOption))
	b.WriteString("\n")

	b.WriteString(m.theme.Count.Render(fmt.Sprintf("%d of %d shows", len(visible), total)))
	b.WriteString("\n")

	cards := make([]string, len(visible))
	for i, show := range visible {
		cards[i] = m.renderShowCard(show, i == m.gridCursor)
	}
	m.renderGrid(b, cards)

	b.WriteString(m.theme.Dim.Render("type to search · tab selector · arrows move · enter open · : command · ctrl+c quit"))
	b.WriteString("\n")
}

func (m model) renderEpisodesView(b *strings.Builder, st domain.State) {
	all := m.app.SelectorEpisodes()
	visible := m.app.VisibleEpisodes()

	if show, ok := m.app.SelectedShow(); ok {
		b.WriteString(m.theme.CardMeta.Render(showMetaLine(show)))
		b.WriteString("\n")
	}

	b.WriteString(m.episodeSearch.View())
	b.WriteString("\n")

	options := episodeOptionLabels(all, m.app.Config().EpisodeNameMaxLength)
	current := 0
	for i, episode := range all {
		if episode.ID == st.SelectedEpisodeID {
			current = i + 1
			break
		}
	}
	b.WriteString(m.renderSelector("Episode", options, current))
	b.WriteString("\n")

	b.WriteString(m.theme.Count.Render(fmt.Sprintf("%d of %d episodes", len(visible), len(all))))
	b.WriteString("\n")

	cards := make([]string, len(visible))
	for i, episode := range visible {
		cards[i] = m.renderEpisodeCard(episode, i == m.gridCursor)
	}
	m.renderGrid(b, cards)

	b.WriteString(m.theme.Dim.Render("type to search · tab pin episode · enter pin under cursor · esc back · ctrl+c quit"))
	b.WriteString("\n")
}

// renderSelector draws a dependent selector control as a cycling dropdown.
// Index 0 is always the neutral "all" option.
func (m model) renderSelector(label string, options []string, index int) string {
	if len(options) == 0 {
		return m.theme.Dim.Render(label + ": —")
	}
	if index < 0 || index >= len(options) {
		index = 0
	}
	option := options[index]
	style := m.theme.Normal
	if index > 0 {
		style = m.theme.Cursor
	}
	return m.theme.Dim.Render(label+": ‹ ") + style.Render(option) + m.theme.Dim.Render(" ›")
}

func (m model) renderGrid(b *strings.Builder, cards []string) {
	if len(cards) == 0 {
		b.WriteString(m.theme.Dim.Render("nothing matches"))
		b.WriteString("\n")
		return
	}

	columns := m.columns()
	rows := m.visibleRows()
	offset := m.gridOffset
	if offset >= len(cards) {
		offset = 0
	}
	end := offset + columns*rows
	if end > len(cards) {
		end = len(cards)
	}

	if offset > 0 {
		b.WriteString(m.theme.Dim.Render("↑ more"))
		b.WriteString("\n")
	}
	for i := offset; i < end; i += columns {
		rowEnd := i + columns
		if rowEnd > end {
			rowEnd = end
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cards[i:rowEnd]...))
		b.WriteString("\n")
	}
	if end < len(cards) {
		b.WriteString(m.theme.Dim.Render("↓ more"))
		b.WriteString("\n")
	}
}

func (m model) renderShowCard(show domain.Show, selected bool) string {
	cfg := m.app.Config()

	title := m.theme.CardTitle.Render(truncate(show.Name, cfg.ShowNameMaxLength))
	meta := m.theme.CardMeta.Render(truncate(strings.Join(show.Genres, " · "), cardWidth-2))
	detail := m.theme.Dim.Render(showMetaLine(show))
	summary := m.theme.Summary.Render(summarySnippet(show.Summary, cfg.SummaryMaxLines))

	body := lipgloss.JoinVertical(lipgloss.Left, title, meta, detail, summary)
	return m.cardStyle(selected).Render(body)
}

func (m model) renderEpisodeCard(episode domain.Episode, selected bool) string {
	cfg := m.app.Config()

	code := filter.EpisodeCode(episode.Season, episode.Number)
	title := m.theme.CardTitle.Render(code + " " + truncate(episode.Name, cfg.EpisodeNameMaxLength))
	summary := m.theme.Summary.Render(summarySnippet(episode.Summary, cfg.SummaryMaxLines))
	link := m.theme.Dim.Render(truncate(episode.URL, cardWidth-2))

	body := lipgloss.JoinVertical(lipgloss.Left, title, summary, link)
	return m.cardStyle(selected).Render(body)
}

func (m model) cardStyle(selected bool) lipgloss.Style {
	style := m.theme.CardBorder.Copy().Width(cardWidth)
	if selected {
		style = style.BorderForeground(m.theme.Cursor.GetForeground())
	}
	return style
}

func showMetaLine(show domain.Show) string {
	parts := make([]string, 0, 3)
	if show.Status != "" {
		parts = append(parts, show.Status)
	}
	if show.Runtime > 0 {
		parts = append(parts, fmt.Sprintf("%d min", show.Runtime))
	}
	if show.Rating > 0 {
		parts = append(parts, fmt.Sprintf("★ %.1f", show.Rating))
	}
	return strings.Join(parts, " · ")
}

// showOptionLabels builds the show selector option set: a neutral "all" row
// followed by one row per show.
func showOptionLabels(shows []domain.Show, maxLen int) []string {
	options := make([]string, 0, len(shows)+1)
	options = append(options, "All shows")
	for _, show := range shows {
		options = append(options, truncate(show.Name, maxLen))
	}
	return options
}

// episodeOptionLabels builds the episode selector option set, labelled with
// the zero-padded episode code.
func episodeOptionLabels(episodes []domain.Episode, maxLen int) []string {
	options := make([]string, 0, len(episodes)+1)
	options = append(options, "All episodes")
	for _, episode := range episodes {
		label := filter.EpisodeCode(episode.Season, episode.Number) + " - " + episode.Name
		options = append(options, truncate(label, maxLen+8))
	}
	return options
}

// summarySnippet flattens a markup summary to visible text sized for a card.
func summarySnippet(markup string, maxLines int) string {
	text := strings.Join(strings.Fields(filter.PlainText(markup)), " ")
	return truncate(text, (cardWidth-2)*maxLines)
}

func truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max == 1 {
		return "…"
	}
	return string(runes[:max-1]) + "…"
}
