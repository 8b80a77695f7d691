package app

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kballard/go-shellquote"
	"gopkg.in/yaml.v3"

	"tvshelf/internal/catalog"
	"tvshelf/internal/config"
	"tvshelf/internal/domain"
	"tvshelf/internal/filter"
	"tvshelf/internal/theme"
	"tvshelf/internal/tvmaze"
)

// User-facing status messages. Both error classes surface identically.
const (
	msgShowsFailed    = "Could not load the show directory."
	msgEpisodesFailed = "Could not load episodes for this show."
)

type commandHandler func(context.Context, []string) (CommandResult, error)

type command struct {
	usage   string
	summary string
	handler commandHandler
}

// CommandResult is the outcome of one omnibar command.
type CommandResult struct {
	Message string
	Quit    bool
}

// App owns the application state and the catalog cache. Every state
// transition goes through one of its methods; the mutex makes that safe for
// fetches dispatched from tea.Cmd goroutines.
type App struct {
	mu         sync.Mutex
	config     config.Config
	configPath string
	httpClient *http.Client
	catalog    *catalog.Service
	commands   map[string]*command
	state      domain.State
}

// Dependencies allows tests to substitute the transport and gateway.
type Dependencies struct {
	HTTPClient *http.Client
	Gateway    catalog.Gateway
}

func New(cfg config.Config, configPath string) *App {
	return NewWithDependencies(cfg, configPath, Dependencies{})
}

func NewWithDependencies(cfg config.Config, configPath string, deps Dependencies) *App {
	httpClient := deps.HTTPClient
	if httpClient == nil {
		transport := &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: !cfg.TLSVerify},
		}
		if proxyURL := strings.TrimSpace(cfg.Proxy); proxyURL != "" {
			if parsed, err := url.Parse(proxyURL); err == nil {
				transport.Proxy = http.ProxyURL(parsed)
			}
		}
		timeout := time.Duration(cfg.HTTPTimeoutSec) * time.Second
		httpClient = &http.Client{Timeout: timeout, Transport: transport}
	}

	gateway := deps.Gateway
	if gateway == nil {
		gateway = tvmaze.NewClient(httpClient, cfg.APIBaseURL, cfg.UserAgent)
	}

	application := &App{
		config:     cfg,
		configPath: configPath,
		httpClient: httpClient,
		catalog:    catalog.NewService(gateway),
		commands:   make(map[string]*command),
		state:      domain.NewState(),
	}
	application.registerCommands()
	return application
}

func (a *App) Config() config.Config {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.config
}

// State returns a snapshot of the current application state.
func (a *App) State() domain.State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Startup performs the eager initial show-directory fetch. A failure here is
// fatal to the session: the app has nothing to show.
func (a *App) Startup(ctx context.Context) error {
	a.mu.Lock()
	if a.state.Status != domain.StatusIdle {
		a.mu.Unlock()
		return nil
	}
	a.state.Status = domain.StatusLoading
	a.mu.Unlock()

	_, err := a.catalog.Shows(ctx)

	a.mu.Lock()
	defer a.mu.Unlock()
	if err != nil {
		log.Printf("startup: %v", err)
		a.state.Status = domain.StatusError
		a.state.ErrorMessage = msgShowsFailed
		return err
	}
	a.state.Status = domain.StatusLoaded
	a.state.View = domain.ViewShows
	a.state.ErrorMessage = ""
	return nil
}

// SetShowsSearch updates the shows listing filter. Never triggers a fetch.
func (a *App) SetShowsSearch(text string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state.ShowsSearch = text
}

// OpenShow enters the episodes view for one show, fetching its episodes on
// first visit. Opening a different show while an earlier episode fetch is
// still in flight is allowed; the earlier fetch still lands in the cache but
// no longer touches view state.
func (a *App) OpenShow(ctx context.Context, id int) error {
	a.mu.Lock()
	if !a.catalog.HasShows() {
		// Initial directory load still in flight or failed.
		a.mu.Unlock()
		return nil
	}
	a.state.SelectedShowID = id
	a.state.View = domain.ViewEpisodes
	a.state.SelectedEpisodeID = 0
	a.state.EpisodeSearch = ""
	if a.catalog.HasEpisodes(id) {
		a.state.Status = domain.StatusLoaded
		a.state.ErrorMessage = ""
		a.mu.Unlock()
		return nil
	}
	a.state.Status = domain.StatusLoading
	a.mu.Unlock()

	_, err := a.catalog.Episodes(ctx, id)

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state.SelectedShowID != id || a.state.View != domain.ViewEpisodes {
		// Stale resolution: the cache is populated for later reuse, but the
		// user has navigated elsewhere.
		return nil
	}
	if err != nil {
		log.Printf("open show %d: %v", id, err)
		a.state.Status = domain.StatusError
		a.state.ErrorMessage = msgEpisodesFailed
		return err
	}
	a.state.Status = domain.StatusLoaded
	a.state.ErrorMessage = ""
	return nil
}

// SelectEpisode pins one episode in the episodes view; id 0 clears the pin.
// An explicit pick makes the episode search inert, so the search text is
// cleared.
func (a *App) SelectEpisode(id int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state.View != domain.ViewEpisodes {
		return
	}
	a.state.SelectedEpisodeID = id
	if id != 0 {
		a.state.EpisodeSearch = ""
	}
}

// SetEpisodeSearch updates the episode filter and drops any explicit pick,
// so the two never jointly narrow results.
func (a *App) SetEpisodeSearch(text string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state.View != domain.ViewEpisodes {
		return
	}
	a.state.EpisodeSearch = text
	a.state.SelectedEpisodeID = 0
}

// Back returns to the shows listing. An episode-load failure is scoped to
// its show, so the error state is cleared as long as the directory itself
// loaded.
func (a *App) Back() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state.View = domain.ViewShows
	if a.catalog.HasShows() && a.state.Status != domain.StatusLoaded {
		a.state.Status = domain.StatusLoaded
		a.state.ErrorMessage = ""
	}
}

// AllShows returns the full cached directory, unfiltered.
func (a *App) AllShows() []domain.Show {
	return a.catalog.CachedShows()
}

// VisibleShows derives the shows listing for the current search text.
func (a *App) VisibleShows() []domain.Show {
	a.mu.Lock()
	search := a.state.ShowsSearch
	a.mu.Unlock()
	return filter.Shows(a.catalog.CachedShows(), search)
}

// VisibleEpisodes derives the episodes listing for the selected show,
// honoring an explicit pick over the search text.
func (a *App) VisibleEpisodes() []domain.Episode {
	a.mu.Lock()
	showID := a.state.SelectedShowID
	search := a.state.EpisodeSearch
	selected := a.state.SelectedEpisodeID
	a.mu.Unlock()
	if showID == 0 {
		return nil
	}
	return filter.Episodes(a.catalog.CachedEpisodes(showID), search, selected)
}

// SelectorEpisodes returns the full cached episode collection for the opened
// show, unfiltered; the episode selector always lists every episode.
func (a *App) SelectorEpisodes() []domain.Episode {
	a.mu.Lock()
	showID := a.state.SelectedShowID
	a.mu.Unlock()
	if showID == 0 {
		return nil
	}
	return a.catalog.CachedEpisodes(showID)
}

// SelectedShow resolves the currently opened show from the cache.
func (a *App) SelectedShow() (domain.Show, bool) {
	a.mu.Lock()
	id := a.state.SelectedShowID
	a.mu.Unlock()
	if id == 0 {
		return domain.Show{}, false
	}
	return a.catalog.ShowByID(id)
}

// CommandNames returns the sorted omnibar command names.
func (a *App) CommandNames() []string {
	names := make([]string, 0, len(a.commands))
	for name := range a.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute runs one omnibar command line.
func (a *App) Execute(ctx context.Context, input string) (CommandResult, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return CommandResult{}, nil
	}

	args, err := shellquote.Split(input)
	if err != nil {
		return CommandResult{}, err
	}
	if len(args) == 0 {
		return CommandResult{}, nil
	}

	cmdName := strings.ToLower(args[0])
	cmd, ok := a.commands[cmdName]
	if !ok {
		return CommandResult{Message: fmt.Sprintf("unknown command: %s", args[0])}, nil
	}

	return cmd.handler(ctx, args[1:])
}

func (a *App) registerCommands() {
	a.registerCommand("help", "help", "List available commands", a.helpCommand, "h")
	a.registerCommand("open", "open <show-id>", "Open the episode listing for a show", a.openCommand, "o")
	a.registerCommand("back", "back", "Return to the shows listing", a.backCommand, "b")
	a.registerCommand("theme", "theme <name>", "Switch the color theme", a.themeCommand)
	a.registerCommand("config", "config [show]", "View or edit application configuration", a.configCommand)
	a.registerCommand("quit", "quit", "Exit the application", a.quitCommand, "exit", "q")
}

func (a *App) registerCommand(name, usage, summary string, handler commandHandler, aliases ...string) {
	cmd := &command{usage: usage, summary: summary, handler: handler}
	names := append([]string{name}, aliases...)
	for _, alias := range names {
		a.commands[alias] = cmd
	}
}

func (a *App) helpCommand(_ context.Context, _ []string) (CommandResult, error) {
	seen := make(map[*command]bool)
	lines := make([]string, 0, len(a.commands))
	for _, name := range a.CommandNames() {
		cmd := a.commands[name]
		if seen[cmd] {
			continue
		}
		seen[cmd] = true
		lines = append(lines, fmt.Sprintf("%-18s %s", cmd.usage, cmd.summary))
	}
	return CommandResult{Message: strings.Join(lines, "\n")}, nil
}

func (a *App) openCommand(ctx context.Context, args []string) (CommandResult, error) {
	if len(args) != 1 {
		return CommandResult{Message: "Usage: open <show-id>"}, nil
	}
	id, err := strconv.Atoi(strings.TrimSpace(args[0]))
	if err != nil || id <= 0 {
		return CommandResult{Message: "Show id must be a positive number."}, nil
	}
	if _, ok := a.catalog.ShowByID(id); !ok {
		return CommandResult{Message: fmt.Sprintf("No show with id %d in the directory.", id)}, nil
	}
	if err := a.OpenShow(ctx, id); err != nil {
		return CommandResult{Message: msgEpisodesFailed}, nil
	}
	return CommandResult{}, nil
}

func (a *App) backCommand(_ context.Context, _ []string) (CommandResult, error) {
	a.Back()
	return CommandResult{}, nil
}

func (a *App) themeCommand(_ context.Context, args []string) (CommandResult, error) {
	if len(args) != 1 {
		return CommandResult{Message: fmt.Sprintf("Usage: theme <name>. Available: %s", strings.Join(theme.Names(), ", "))}, nil
	}
	name := strings.ToLower(strings.TrimSpace(args[0]))
	found := false
	for _, known := range theme.Names() {
		if known == name {
			found = true
			break
		}
	}
	if !found {
		return CommandResult{Message: fmt.Sprintf("Unknown theme %q. Available: %s", name, strings.Join(theme.Names(), ", "))}, nil
	}

	a.mu.Lock()
	a.config.ColorTheme = name
	cfg := a.config
	path := a.configPath
	a.mu.Unlock()

	if err := config.Save(path, cfg); err != nil {
		return CommandResult{}, err
	}
	return CommandResult{Message: fmt.Sprintf("Theme set to %s.", name)}, nil
}

func (a *App) configCommand(ctx context.Context, args []string) (CommandResult, error) {
	if len(args) > 0 && strings.ToLower(args[0]) == "show" {
		data, err := yaml.Marshal(a.Config())
		if err != nil {
			return CommandResult{}, err
		}
		return CommandResult{Message: string(data)}, nil
	}

	updated, err := config.EditInteractive(ctx, a.Config())
	if err != nil {
		return CommandResult{}, err
	}
	if err := config.Save(a.configPath, updated); err != nil {
		return CommandResult{}, err
	}
	a.mu.Lock()
	a.config = updated
	a.mu.Unlock()
	log.Println("configuration updated")
	return CommandResult{Message: "Configuration saved."}, nil
}

func (a *App) quitCommand(_ context.Context, _ []string) (CommandResult, error) {
	return CommandResult{Quit: true}, nil
}

// IsNetworkError reports whether err belongs to the gateway error taxonomy.
func IsNetworkError(err error) bool {
	return errors.Is(err, tvmaze.ErrNetwork) || errors.Is(err, tvmaze.ErrMalformedResponse)
}
