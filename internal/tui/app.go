// internal/tui/app.go
//
// App is the root bubbletea model of the CRM client. Screens are views
// kept on a stack. Network calls run as commands and come back as
// messages addressed to the view that asked for them.

package tui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/fieldcrm/internal/api"
	"github.com/kingrea/fieldcrm/internal/config"
	"github.com/kingrea/fieldcrm/internal/logbook"
	"github.com/kingrea/fieldcrm/internal/session"
)

// appState represents which stack is showing
type appState int

const (
	stateBooting appState = iota // Restoring the stored session
	stateAuth                    // Login / register
	stateMain                    // Signed in
)

const (
	defaultToastDuration  = 3 * time.Second
	defaultRequestTimeout = 20 * time.Second
	logPanelLines         = 8
)

// view is one screen on the navigation stack.
type view interface {
	Init() tea.Cmd
	Update(msg tea.Msg) tea.Cmd
	View() string
	Title() string
	Help() string
}

// resumer is implemented by views that refresh when they become visible
// again after the view above them was closed.
type resumer interface {
	Resume() tea.Cmd
}

// escHandler lets a view consume esc (to leave a sub-mode) instead of
// closing the screen.
type escHandler interface {
	HandleEsc() bool
}

// inputCapturer reports whether a view is currently taking text input, in
// which case global single-letter keys are not interpreted.
type inputCapturer interface {
	CapturingInput() bool
}

// Deps are the collaborators the App drives.
type Deps struct {
	Config  *config.Config
	Client  *api.Client
	Session *session.Session
	Logbook *logbook.Logbook
}

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithToastDuration sets how long toasts stay visible. Zero keeps them until
// the next toast.
func WithToastDuration(d time.Duration) AppOption {
	return func(a *App) {
		a.toastTTL = d
	}
}

// WithRequestTimeout bounds every call to the service.
func WithRequestTimeout(d time.Duration) AppOption {
	return func(a *App) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// App is the main application model. In bubbletea, this holds ALL your state.
type App struct {
	state   appState
	config  *config.Config
	client  *api.Client
	session *session.Session
	logbook *logbook.Logbook
	events  <-chan session.Event

	stack    []view
	toast    *toast
	toastSeq int
	toastTTL time.Duration
	dialog   *confirmDialog
	menu     *menuDialog
	timeout  time.Duration
	showLog  bool

	// Window size (we get this from bubbletea)
	width  int
	height int
}

// NewApp creates a new App instance
func NewApp(deps Deps, opts ...AppOption) (*App, error) {
	if deps.Client == nil || deps.Session == nil {
		return nil, errors.New("tui: client and session are required")
	}
	app := &App{
		state:    stateBooting,
		config:   deps.Config,
		client:   deps.Client,
		session:  deps.Session,
		logbook:  deps.Logbook,
		events:   deps.Session.Subscribe(),
		toastTTL: defaultToastDuration,
		timeout:  defaultRequestTimeout,
	}
	if deps.Config != nil {
		app.timeout = max(deps.Config.Timeout()+5*time.Second, app.timeout)
	}
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}
	return app, nil
}

type bootstrapMsg struct {
	state session.State
	err   error
}

type sessionEventMsg struct {
	event session.Event
}

// route addresses a result message to the view that issued the request.
type route struct {
	to view
}

func (r route) target() view { return r.to }

type routed interface {
	target() view
}

// doneMsg reports the outcome of a write. The App shows the toast, then
// the target view decides what to do next. tag tells a view's writes apart.
type doneMsg struct {
	route
	tag     string
	success string
	failure string
	err     error
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.bootstrap(), a.waitForSessionEvent())
}

func (a *App) bootstrap() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := a.requestContext()
		defer cancel()
		st, err := a.session.Bootstrap(ctx)
		return bootstrapMsg{state: st, err: err}
	}
}

func (a *App) waitForSessionEvent() tea.Cmd {
	ch := a.events
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return sessionEventMsg{event: ev}
	}
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.menu != nil {
			a.menu.setSize(msg.Width, msg.Height)
		}
		if top := a.top(); top != nil {
			return a, top.Update(msg)
		}
		return a, nil

	case bootstrapMsg:
		if msg.state.Authenticated {
			return a, a.enterMain()
		}
		cmd := a.enterAuth()
		if msg.err != nil {
			return a, tea.Batch(cmd, a.showToast(toastError, "Session expired", "Please sign in again."))
		}
		return a, cmd

	case sessionEventMsg:
		wait := a.waitForSessionEvent()
		if a.state != stateMain {
			return a, wait
		}
		a.logWarn("Returned to login: %s", msg.event.Reason)
		return a, tea.Batch(wait, a.enterAuth(), a.showToast(toastError, "Session expired", "Please sign in again."))

	case toastExpiredMsg:
		if a.toast != nil && a.toast.id == msg.id {
			a.toast = nil
		}
		return a, nil

	case doneMsg:
		var toastCmd tea.Cmd
		if msg.err != nil {
			a.logError("%s: %v", msg.failure, msg.err)
			toastCmd = a.showToast(toastError, msg.failure, api.Message(msg.err))
		} else if msg.success != "" {
			a.logInfo("%s", msg.success)
			toastCmd = a.showToast(toastSuccess, msg.success, "")
		}
		if a.inStack(msg.to) {
			return a, tea.Batch(toastCmd, msg.to.Update(msg))
		}
		return a, toastCmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.dialog != nil {
			return a, a.updateDialog(msg)
		}
		if a.menu != nil {
			return a, a.updateMenu(msg)
		}
		switch msg.String() {
		case "ctrl+l":
			a.showLog = !a.showLog
			return a, nil
		case "esc":
			if top := a.top(); top != nil {
				if h, ok := top.(escHandler); ok && h.HandleEsc() {
					return a, nil
				}
			}
			if len(a.stack) > 1 {
				return a, a.pop()
			}
			return a, nil
		case "q":
			if !a.capturingInput() && len(a.stack) <= 1 && a.state != stateAuth {
				return a, tea.Quit
			}
		}
	}

	if r, ok := msg.(routed); ok {
		if a.inStack(r.target()) {
			return a, r.target().Update(msg)
		}
		return a, nil
	}
	if a.menu != nil {
		return a, a.updateMenu(msg)
	}
	if top := a.top(); top != nil {
		return a, top.Update(msg)
	}
	return a, nil
}

func (a *App) enterAuth() tea.Cmd {
	a.state = stateAuth
	a.dialog = nil
	a.menu = nil
	a.stack = nil
	return a.push(newLoginView(a))
}

func (a *App) enterMain() tea.Cmd {
	a.state = stateMain
	a.dialog = nil
	a.menu = nil
	a.stack = nil
	st := a.session.State()
	a.logInfo("Signed in as %s", st.User.UserName)
	return a.push(newHomeView(a))
}

func (a *App) push(v view) tea.Cmd {
	a.stack = append(a.stack, v)
	if a.width > 0 {
		v.Update(tea.WindowSizeMsg{Width: a.width, Height: a.height})
	}
	return v.Init()
}

// pop closes the top view and lets the one below refresh.
func (a *App) pop() tea.Cmd {
	if len(a.stack) <= 1 {
		return nil
	}
	a.stack = a.stack[:len(a.stack)-1]
	if r, ok := a.top().(resumer); ok {
		return r.Resume()
	}
	return nil
}

func (a *App) top() view {
	if len(a.stack) == 0 {
		return nil
	}
	return a.stack[len(a.stack)-1]
}

func (a *App) inStack(v view) bool {
	for _, candidate := range a.stack {
		if candidate == v {
			return true
		}
	}
	return false
}

func (a *App) capturingInput() bool {
	if c, ok := a.top().(inputCapturer); ok {
		return c.CapturingInput()
	}
	return false
}

func (a *App) requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), a.timeout)
}

// mutate runs fn as a command and reports the result to v as a doneMsg.
func (a *App) mutate(v view, success, failure string, fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := a.requestContext()
		defer cancel()
		err := fn(ctx)
		return doneMsg{route: route{to: v}, success: success, failure: failure, err: err}
	}
}

func (a *App) isAdmin() bool {
	return a.session.State().IsAdmin()
}

func (a *App) logInfo(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Info(format, args...)
}

func (a *App) logWarn(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Warn(format, args...)
}

func (a *App) logError(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Error(format, args...)
}

// View renders the program's UI, which is just a string.
func (a *App) View() string {
	width := a.width
	if width <= 0 {
		width = 100
	}

	header := a.renderHeader(width)
	var content, help string
	switch {
	case a.state == stateBooting:
		content = mutedStyle.Render("Restoring session…")
	case a.top() != nil:
		content = a.top().View()
		help = a.top().Help()
	}
	if a.menu != nil {
		content = a.menu.View()
		help = "enter choose · esc close"
	}
	if a.dialog != nil {
		content = a.dialog.View()
		help = "y/enter confirm · n/esc cancel"
	}

	parts := []string{header, content}
	if t := a.renderToast(); t != "" {
		parts = append(parts, t)
	}
	if a.showLog {
		if panel := a.renderLogPanel(width - 2); panel != "" {
			parts = append(parts, panel)
		}
	}
	footer := mutedStyle.Render(strings.TrimSpace(help + " · ctrl+l log · ctrl+c quit"))
	parts = append(parts, footer)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (a *App) renderHeader(width int) string {
	brand := brandStyle.Render("⬡ FIELDCRM")
	var crumbs []string
	for _, v := range a.stack {
		if t := v.Title(); t != "" {
			crumbs = append(crumbs, t)
		}
	}
	left := brand
	if len(crumbs) > 0 {
		left += mutedStyle.Render("  " + strings.Join(crumbs, " › "))
	}
	right := ""
	if st := a.session.State(); st.Authenticated {
		role := "user"
		if len(st.User.Roles) > 0 {
			role = strings.Join(st.User.Roles, ", ")
		}
		right = mutedStyle.Render(fmt.Sprintf("%s (%s)", st.User.UserName, role))
	}
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return lipgloss.NewStyle().MarginBottom(1).Render(left + strings.Repeat(" ", gap) + right)
}

func (a *App) renderLogPanel(width int) string {
	if a.logbook == nil {
		return ""
	}
	lines, _ := a.logbook.Tail(logPanelLines)
	if len(lines) == 0 {
		return ""
	}
	fileName := filepath.Base(a.logbook.Path())
	if fileName == "." || fileName == "" {
		fileName = "log"
	}
	head := titleStyle.Render(fmt.Sprintf("LOG · %s", fileName))
	body := mutedStyle.Render(strings.Join(lines, "\n"))
	return boxStyle.Width(max(20, width)).Render(fmt.Sprintf("%s\n%s", head, body))
}
