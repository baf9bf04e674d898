package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/zenithx/internal/models"
	"github.com/desertthunder/zenithx/internal/navigation"
	"github.com/desertthunder/zenithx/internal/session"
	"github.com/desertthunder/zenithx/internal/shared"
	"github.com/mattn/go-runewidth"
)

const (
	tickInterval = time.Second
	seekStep     = 0.05
	chromeHeight = 9
)

// Controller is the part of [session.Controller] the TUI drives.
type Controller interface {
	Dispatch(session.Event)
	Changes() <-chan struct{}
	Snapshot() session.Session
	Progress() (elapsed, duration time.Duration)
}

// Options configures a [Model].
type Options struct {
	// OpenURL opens a link outside the terminal. Defaults to [shared.OpenBrowser].
	OpenURL func(string) error
	// SignIn loads the stored identity. Without it the profile screen cannot sign in.
	SignIn func() (session.User, error)
	// SignOut forgets the stored identity.
	SignOut func() error
	// Screen is shown first. Empty starts on [navigation.Home].
	Screen navigation.Screen
}

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	ctrl     Controller
	router   *navigation.Router
	openURL  func(string) error
	signIn   func() (session.User, error)
	signOut  func() error
	state    session.Session
	elapsed  time.Duration
	duration time.Duration
	notice   string
	width    int
	height   int
	input    textinput.Model
	results  list.Model
	queue    list.Model
	liked    list.Model
	progress progress.Model
	help     help.Model
	keys     keyMap
}

// NewModel creates a new TUI model over ctrl.
func NewModel(ctx context.Context, ctrl Controller, opts Options) *Model {
	if opts.OpenURL == nil {
		opts.OpenURL = shared.OpenBrowser
	}

	input := textinput.New()
	input.Placeholder = "Search for a song"
	input.Prompt = "🔍 "
	input.Focus()

	m := &Model{
		ctx:      ctx,
		ctrl:     ctrl,
		router:   navigation.NewRouter(),
		openURL:  opts.OpenURL,
		signIn:   opts.SignIn,
		signOut:  opts.SignOut,
		state:    ctrl.Snapshot(),
		input:    input,
		results:  newTrackList("Results"),
		queue:    newTrackList(navigation.Queue.Title()),
		liked:    newTrackList(navigation.Liked.Title()),
		progress: progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		help:     help.New(),
		keys:     newKeyMap(),
	}
	if opts.Screen != "" {
		if err := m.router.Show(opts.Screen); err != nil {
			m.notice = err.Error()
		}
	}
	if m.router.Active() != navigation.Home {
		m.input.Blur()
	}
	m.refreshLists()
	return m
}

// Init starts listening for session changes and the progress tick.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForChange(), tick())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		for _, l := range []*list.Model{&m.results, &m.queue, &m.liked} {
			l.SetSize(msg.Width-4, max(msg.Height-chromeHeight, 4))
		}
		m.progress.Width = max(msg.Width-24, 10)
		m.input.Width = max(msg.Width-8, 10)
		return m, nil

	case Msg:
		switch msg.kind {
		case MsgStateChanged:
			m.state = m.ctrl.Snapshot()
			m.refreshLists()
			return m, m.waitForChange()
		case MsgTick:
			m.elapsed, m.duration = m.ctrl.Progress()
			return m, tick()
		case MsgBrowserOpened:
			if err, _ := msg.data.(error); err != nil {
				m.notice = fmt.Sprintf("Could not open browser: %v", err)
			}
			return m, nil
		case MsgAccount:
			result, _ := msg.data.(accountResult)
			switch {
			case result.err != nil:
				m.notice = fmt.Sprintf("Account: %v", result.err)
			case result.user != nil:
				m.ctrl.Dispatch(session.LoginSucceeded{User: *result.user})
			default:
				m.ctrl.Dispatch(session.LoggedOut{})
			}
			return m, nil
		}

	case tea.KeyMsg:
		return m.handleKeys(msg)
	}

	return m.updateActive(msg)
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch {
	case key.Matches(msg, m.keys.nextTab):
		m.input.Blur()
		m.router.Next()
		return m, nil
	case key.Matches(msg, m.keys.prevTab):
		m.input.Blur()
		m.router.Prev()
		return m, nil
	}

	if m.input.Focused() {
		switch {
		case key.Matches(msg, m.keys.enter):
			m.ctrl.Dispatch(session.SearchSubmitted{Query: m.input.Value()})
			m.input.Blur()
			return m, nil
		case key.Matches(msg, m.keys.back):
			m.input.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	m.notice = ""
	active := m.router.Active()

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.search) && active == navigation.Home:
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.enter):
		if t, ok := m.selected(); ok {
			m.ctrl.Dispatch(session.UserSelectedTrack{Track: t})
		}
		return m, nil
	case key.Matches(msg, m.keys.next):
		m.ctrl.Dispatch(session.NextRequested{})
		return m, nil
	case key.Matches(msg, m.keys.previous):
		m.ctrl.Dispatch(session.PreviousRequested{})
		return m, nil
	case key.Matches(msg, m.keys.toggle):
		m.ctrl.Dispatch(session.PlayPauseToggled{})
		return m, nil
	case key.Matches(msg, m.keys.like):
		m.ctrl.Dispatch(session.LikeToggled{})
		return m, nil
	case key.Matches(msg, m.keys.remove) && active == navigation.Queue:
		if len(m.state.Queue) > 0 {
			m.ctrl.Dispatch(session.RemoveRequested{Index: m.queue.Index()})
		}
		return m, nil
	case key.Matches(msg, m.keys.rewind):
		return m, m.seek(-seekStep)
	case key.Matches(msg, m.keys.forward):
		return m, m.seek(seekStep)
	case key.Matches(msg, m.keys.open):
		if t, ok := m.state.CurrentTrack(); ok {
			return m, m.openTrack(t)
		}
		return m, nil
	case key.Matches(msg, m.keys.refresh) && active == navigation.Profile:
		m.ctrl.Dispatch(session.HydrationRequested{})
		return m, nil
	case key.Matches(msg, m.keys.account) && active == navigation.Profile:
		return m, m.toggleAccount()
	}

	return m.updateActive(msg)
}

func (m *Model) seek(delta float64) tea.Cmd {
	if m.duration <= 0 {
		return nil
	}
	fraction := float64(m.elapsed)/float64(m.duration) + delta
	m.ctrl.Dispatch(session.SeekRequested{Fraction: min(max(fraction, 0), 1)})
	return nil
}

// selected returns the highlighted track on the active screen.
func (m *Model) selected() (models.Track, bool) {
	var l *list.Model
	switch m.router.Active() {
	case navigation.Home:
		l = &m.results
	case navigation.Queue:
		l = &m.queue
	case navigation.Liked:
		l = &m.liked
	default:
		return models.Track{}, false
	}

	item, ok := l.SelectedItem().(trackItem)
	if !ok {
		return models.Track{}, false
	}
	return item.track, true
}

func (m *Model) updateActive(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.router.Active() {
	case navigation.Home:
		if m.input.Focused() {
			m.input, cmd = m.input.Update(msg)
		} else {
			m.results, cmd = m.results.Update(msg)
		}
	case navigation.Queue:
		m.queue, cmd = m.queue.Update(msg)
	case navigation.Liked:
		m.liked, cmd = m.liked.Update(msg)
	}
	return m, cmd
}

func (m *Model) refreshLists() {
	liked := m.state.IsLiked
	m.results.SetItems(trackItems(m.state.Results, -1, liked))
	m.queue.SetItems(trackItems(m.state.Queue, m.state.Current, liked))
	m.liked.SetItems(trackItems(m.state.LikedSongs, -1, liked))
}

func (m *Model) waitForChange() tea.Cmd {
	changes := m.ctrl.Changes()
	return func() tea.Msg {
		select {
		case <-m.ctx.Done():
			return nil
		case <-changes:
			return stateChangedMsg()
		}
	}
}

// toggleAccount signs out when a user is present and signs in from the stored identity otherwise.
func (m *Model) toggleAccount() tea.Cmd {
	if m.state.User != nil {
		signOut := m.signOut
		return func() tea.Msg {
			if signOut != nil {
				if err := signOut(); err != nil {
					return accountMsg(accountResult{err: err})
				}
			}
			return accountMsg(accountResult{})
		}
	}

	if m.signIn == nil {
		m.notice = "Run `zenithx auth login` to sign in"
		return nil
	}
	signIn := m.signIn
	return func() tea.Msg {
		u, err := signIn()
		if err != nil {
			return accountMsg(accountResult{err: err})
		}
		return accountMsg(accountResult{user: &u})
	}
}

func (m *Model) openTrack(t models.Track) tea.Cmd {
	return func() tea.Msg {
		return browserOpenedMsg(m.openURL(t.WatchURL()))
	}
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// View renders the tab bar, the active screen and the now playing footer.
func (m *Model) View() string {
	var body string
	switch m.router.Active() {
	case navigation.Home:
		body = m.renderHome()
	case navigation.Queue:
		body = m.renderTracks(m.queue, "The queue is empty. Pick something on Home.")
	case navigation.Liked:
		body = m.renderTracks(m.liked, "No liked songs yet. Press l while a song plays.")
	case navigation.Profile:
		body = m.renderProfile()
	}

	return lipgloss.JoinVertical(lipgloss.Left, m.renderTabs(), "", body, m.renderFooter())
}

func (m *Model) renderTabs() string {
	active := m.router.Active()
	tabs := make([]string, 0, len(navigation.Screens()))
	for _, s := range navigation.Screens() {
		if s == active {
			tabs = append(tabs, styles.activeTab.Render(s.Title()))
		} else {
			tabs = append(tabs, styles.tab.Render(s.Title()))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m *Model) renderHome() string {
	var b strings.Builder
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	switch {
	case m.state.Searching:
		b.WriteString(styles.help.Render("Searching…"))
	case m.state.SearchErr != nil:
		b.WriteString(styles.err.Render("Could not fetch results"))
	case m.state.Query != "" && len(m.state.Results) == 0:
		b.WriteString(styles.help.Render(fmt.Sprintf("No results for %q", m.state.Query)))
	case len(m.state.Results) > 0:
		b.WriteString(m.results.View())
	default:
		b.WriteString(styles.help.Render("Type a query and press enter."))
	}
	return b.String()
}

func (m *Model) renderTracks(l list.Model, empty string) string {
	if len(l.Items()) == 0 {
		return styles.help.Render(empty)
	}
	return l.View()
}

func (m *Model) renderProfile() string {
	title := styles.title.Render("Profile")
	if m.state.User == nil {
		return fmt.Sprintf("%s\n%s\n\n%s", title,
			styles.warn.Render("Not signed in. Run `zenithx auth login` to sync your queue."),
			m.help.ShortHelpView([]key.Binding{m.keys.account}))
	}

	sync := styles.ok.Render("synced")
	if m.state.IsFetching {
		sync = styles.warn.Render("loading…")
	}
	info := fmt.Sprintf(
		"Signed in as %s\nUser ID: %s\nQueue: %d tracks\nLiked: %d tracks\nLibrary: %s",
		m.state.User.Email,
		m.state.User.ID,
		len(m.state.Queue),
		len(m.state.LikedSongs),
		sync,
	)
	return fmt.Sprintf("%s\n%s\n\n%s", title, info, m.help.ShortHelpView([]key.Binding{m.keys.refresh, m.keys.account}))
}

func (m *Model) renderFooter() string {
	var nowPlaying string
	if t, ok := m.state.CurrentTrack(); ok {
		icon := "▶"
		if m.state.Status == session.StatusPaused {
			icon = "⏸"
		}
		heart := ""
		if m.state.IsLiked(t.ID) {
			heart = " " + styles.err.Render("♥")
		}
		line := runewidth.Truncate(fmt.Sprintf("%s • %s", t.Title, t.Author), max(m.width-8, 20), "…")
		nowPlaying = fmt.Sprintf("%s %s%s", icon, line, heart)
	} else {
		nowPlaying = styles.help.Render("Nothing playing")
	}

	percent := 0.0
	if m.duration > 0 {
		percent = min(float64(m.elapsed)/float64(m.duration), 1)
	}
	bar := fmt.Sprintf("%s %s / %s",
		m.progress.ViewAs(percent),
		shared.FormatDuration(m.elapsed),
		shared.FormatDuration(m.duration),
	)

	lines := []string{nowPlaying, bar}
	if m.notice != "" {
		lines = append(lines, styles.warn.Render(m.notice))
	}
	lines = append(lines, m.help.ShortHelpView(m.helpKeys()))
	return styles.footer.Render(strings.Join(lines, "\n"))
}

func (m *Model) helpKeys() []key.Binding {
	k := m.keys
	switch m.router.Active() {
	case navigation.Home:
		if m.input.Focused() {
			return []key.Binding{k.enter, k.back, k.nextTab}
		}
		return []key.Binding{k.search, k.enter, k.toggle, k.next, k.like, k.nextTab, k.quit}
	case navigation.Queue:
		return []key.Binding{k.enter, k.remove, k.toggle, k.previous, k.next, k.open, k.nextTab, k.quit}
	default:
		return []key.Binding{k.enter, k.toggle, k.rewind, k.forward, k.nextTab, k.quit}
	}
}
