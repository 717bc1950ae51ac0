package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/GetMystAdmin/hot-pot/internal/browser"
	"github.com/GetMystAdmin/hot-pot/internal/pipeline"
	"github.com/GetMystAdmin/hot-pot/internal/profile"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type focusPane int

const (
	focusURL focusPane = iota
	focusTraits
)

type Navigator interface {
	Navigate(ctx context.Context, rawURL string, prof profile.Profile) (pipeline.Result, error)
}

type Regenerator interface {
	Claim(key string) bool
	Regenerate(ctx context.Context, rawURL string) (pipeline.Notice, error)
}

// Opener shows a page to the user.
type Opener interface {
	OpenURL(rawURL string) error
	OpenFile(path string) error
}

type systemBrowser struct{}

func (systemBrowser) OpenURL(rawURL string) error { return browser.Open(rawURL) }
func (systemBrowser) OpenFile(path string) error  { return browser.OpenFile(path) }

type App struct {
	nav     Navigator
	regen   Regenerator
	auto    bool
	archive *pipeline.Archive
	opener  Opener
	timeout time.Duration

	focus    focusPane
	showHelp bool
	width    int
	height   int

	urlInput textinput.Model
	spinner  spinner.Model
	sliders  sliders

	navigating bool
	last       *pipeline.Result
	entries    []logEntry
	update     string
	err        error
}

// RunOpts holds all parameters for launching the TUI.
type RunOpts struct {
	Navigator      Navigator
	Regenerator    Regenerator
	AutoRegenerate bool
	// Archive receives cached templates so they can be opened as files.
	Archive *pipeline.Archive
	Profile profile.Profile
	Opener  Opener
	// Timeout bounds one navigation.
	Timeout time.Duration
	// CheckUpdate runs once at startup; an empty result is ignored.
	CheckUpdate func(ctx context.Context) string
	InitialURL  string
}

func NewApp(opts RunOpts) *App {
	ti := textinput.New()
	ti.Placeholder = "https://www.example.com"
	ti.Prompt = urlPromptStyle.Render("url ")
	ti.CharLimit = 2048
	ti.SetValue(opts.InitialURL)
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = spinnerStyle

	opener := opts.Opener
	if opener == nil {
		opener = systemBrowser{}
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}

	return &App{
		nav:      opts.Navigator,
		regen:    opts.Regenerator,
		auto:     opts.AutoRegenerate,
		archive:  opts.Archive,
		opener:   opener,
		timeout:  timeout,
		urlInput: ti,
		spinner:  sp,
		sliders:  newSliders(opts.Profile),
	}
}

func (a *App) Init() tea.Cmd {
	return textinput.Blink
}

// checkUpdateCmd wraps a version check so it never blocks startup.
func checkUpdateCmd(check func(ctx context.Context) string) tea.Cmd {
	if check == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if v := check(ctx); v != "" {
			return updateMsg{version: v}
		}
		return nil
	}
}

// navigateCmd captures the current profile into the closure to avoid races.
func (a *App) navigateCmd(rawURL string) tea.Cmd {
	nav := a.nav
	prof := a.sliders.profile()
	timeout := a.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		res, err := nav.Navigate(ctx, rawURL, prof)
		if err != nil {
			return errMsg{err: err}
		}
		return navigatedMsg{result: res}
	}
}

// displayCmd opens the live site on a miss, otherwise the document as a
// local file.
func (a *App) displayCmd(res pipeline.Result) tea.Cmd {
	opener := a.opener
	archive := a.archive
	return func() tea.Msg {
		var err error
		switch {
		case res.Outcome == pipeline.Live:
			err = opener.OpenURL(res.URL)
		case res.Archived != "":
			err = opener.OpenFile(res.Archived)
		case archive != nil:
			var path string
			path, err = archive.Write(res.Key, "html", []byte(res.Document))
			if err == nil {
				err = opener.OpenFile(path)
			}
		default:
			err = errors.New("no archive configured to display the cached page")
		}
		if err != nil {
			return errMsg{err: err}
		}
		return nil
	}
}

func (a *App) regenerateCmd(res pipeline.Result) tea.Cmd {
	if res.Outcome != pipeline.Live || !a.auto || a.regen == nil || !a.regen.Claim(res.Key) {
		return nil
	}
	r := a.regen
	url := res.URL
	return func() tea.Msg {
		n, _ := r.Regenerate(context.Background(), url)
		return noticeMsg{notice: n}
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case tea.KeyMsg:
		// Clear sticky error on any keypress
		a.err = nil
		return a.handleKey(msg)

	case navigatedMsg:
		a.navigating = false
		res := msg.result
		a.last = &res
		a.entries = pushEntry(a.entries, resultEntry(res))
		return a, tea.Batch(a.displayCmd(res), a.regenerateCmd(res))

	case noticeMsg:
		a.entries = pushEntry(a.entries, noticeEntry(msg.notice))
		return a, nil

	case updateMsg:
		a.update = msg.version
		return a, nil

	case errMsg:
		a.navigating = false
		a.err = msg.err
		return a, nil

	case spinner.TickMsg:
		if a.navigating {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil
	}

	if a.focus == focusURL {
		var cmd tea.Cmd
		a.urlInput, cmd = a.urlInput.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Global keys
	switch msg.String() {
	case "ctrl+c":
		return a, tea.Quit
	case "tab":
		a.toggleFocus()
		return a, nil
	case "enter":
		return a, a.startNavigation()
	}

	if a.showHelp {
		switch msg.String() {
		case "?", "esc", "q":
			a.showHelp = false
		}
		return a, nil
	}

	if a.focus == focusURL {
		if msg.String() == "esc" {
			return a, tea.Quit
		}
		var cmd tea.Cmd
		a.urlInput, cmd = a.urlInput.Update(msg)
		return a, cmd
	}

	switch msg.String() {
	case "q", "esc":
		return a, tea.Quit
	case "k", "up":
		a.sliders.up()
	case "j", "down":
		a.sliders.down()
	case "h", "left", "-":
		a.sliders.adjust(-1)
	case "l", "right", "+", "=":
		a.sliders.adjust(1)
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		a.sliders.set(int(msg.String()[0] - '0'))
	case "0":
		a.sliders.set(profile.MaxValue)
	case "?":
		a.showHelp = true
	}
	return a, nil
}

func (a *App) toggleFocus() {
	if a.focus == focusURL {
		a.focus = focusTraits
		a.urlInput.Blur()
		return
	}
	a.focus = focusURL
	a.urlInput.Focus()
}

// startNavigation runs one navigation at a time.
func (a *App) startNavigation() tea.Cmd {
	raw := strings.TrimSpace(a.urlInput.Value())
	if a.navigating || raw == "" || a.nav == nil {
		return nil
	}
	a.navigating = true
	return tea.Batch(a.navigateCmd(raw), a.spinner.Tick)
}

func (a *App) View() string {
	if a.width == 0 {
		return lipgloss.NewStyle().Foreground(colorAccent).Render("  hot pot")
	}
	if a.showHelp {
		return a.renderHelp()
	}

	header := headerStyle.Render(renderLogo(a.update))

	inner := a.width - 4

	urlStyle, traitStyle := paneActiveStyle, paneStyle
	if a.focus == focusTraits {
		urlStyle, traitStyle = paneStyle, paneActiveStyle
	}
	urlPane := urlStyle.Width(inner).Render(a.urlInput.View())
	traitPane := traitStyle.Width(inner).Render(
		paneTitleStyle.Render("personality") + "\n" + a.sliders.render())

	used := lipgloss.Height(header) + lipgloss.Height(urlPane) + lipgloss.Height(traitPane) + 3
	logHeight := max(a.height-used-2, 1)
	logPane := paneStyle.Width(inner).Render(
		paneTitleStyle.Render("activity") + "\n" + renderLog(a.entries, logHeight, inner))

	hints := "tab switch  enter go  ←/→ adjust  ? help  ctrl+c quit"
	status := renderStatusBar(a.last, a.navigating, hints, a.width)
	if a.navigating {
		status = a.spinner.View() + " " + status
	}

	// Error display
	if a.err != nil {
		status = noticeFailStyle.Render(truncateStr(a.err.Error(), a.width))
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, urlPane, traitPane, logPane, status)
}

func (a *App) renderHelp() string {
	title := lipgloss.NewStyle().Foreground(colorAccent).Bold(true).Render("hot pot")
	dim := helpDimStyle

	help := title + dim.Render("  keyboard shortcuts") + "\n\n" +
		dim.Render("Navigation") + "\n" +
		"  enter         Visit the URL with the current personality\n" +
		"  tab           Switch between URL and personality\n\n" +
		dim.Render("Personality") + "\n" +
		"  j/k, ↑/↓      Select trait\n" +
		"  h/l, ←/→      Lower / raise trait\n" +
		"  1-9, 0        Set trait to 1-9, 10\n\n" +
		dim.Render("General") + "\n" +
		"  ?             Toggle this help\n" +
		"  esc, ctrl+c   Quit"

	card := helpCardStyle.Render(help)

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card)
}

// Run starts the TUI application.
func Run(opts RunOpts) error {
	app := NewApp(opts)
	p := tea.NewProgram(app, tea.WithAltScreen())
	if cmd := checkUpdateCmd(opts.CheckUpdate); cmd != nil {
		go func() {
			if msg := cmd(); msg != nil {
				p.Send(msg)
			}
		}()
	}
	_, err := p.Run()
	if err != nil {
		return fmt.Errorf("running tui: %w", err)
	}
	return nil
}
