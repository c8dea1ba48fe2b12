package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/workflow"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	PromptView ViewState = iota
	ProgressView
	ReviewView
	ResultView
)

type sessionUpdateMsg workflow.Session

type workflowStartedMsg struct {
	sessionID string
	err       error
}

type editDoneMsg struct {
	err error
}

type playlistSavedMsg struct {
	playlist *models.Playlist
	err      error
}

// Model represents the TUI application state.
type Model struct {
	ctx     context.Context
	view    ViewState
	store   *workflow.Store
	width   int
	height  int
	prompt  textinput.Model
	spin    spinner.Model
	tracks  list.Model
	session workflow.Session
	saved   *models.Playlist
	polling bool
	err     error
	help    help.Model
	keys    keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, store *workflow.Store) *Model {
	prompt := textinput.New()
	prompt.Placeholder = "a rainy sunday afternoon with coffee"
	prompt.CharLimit = 200
	prompt.Width = 60
	prompt.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	return &Model{
		ctx:    ctx,
		view:   PromptView,
		store:  store,
		prompt: prompt,
		spin:   spin,
		help:   help.New(),
		keys:   newKeyMap(),
	}
}

// Init starts the prompt blink and the store subscription.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForUpdate())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.tracks.Width() == 0 {
			m.tracks.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case PromptView:
			return m.handlePromptKeys(msg)
		case ProgressView:
			return m.handleProgressKeys(msg)
		case ReviewView:
			return m.handleReviewKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case workflowStartedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.view = PromptView
			return m, nil
		}
		m.err = nil
		m.view = ProgressView
		return m, m.spin.Tick

	case sessionUpdateMsg:
		return m.applyUpdate(workflow.Session(msg))

	case editDoneMsg:
		if msg.err != nil {
			m.err = msg.err
		}
		return m, nil

	case playlistSavedMsg:
		m.saved = msg.playlist
		m.err = msg.err
		m.view = ResultView
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	return m.updateInputs(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case PromptView:
		return m.renderPrompt()
	case ProgressView:
		return m.renderProgress()
	case ReviewView:
		return m.renderReview()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

// applyUpdate routes a session snapshot to the right view and re-arms the
// subscription. A dead realtime channel hands the session over to polling so
// the progress view keeps advancing.
func (m *Model) applyUpdate(session workflow.Session) (tea.Model, tea.Cmd) {
	m.session = session
	cmds := []tea.Cmd{m.waitForUpdate()}

	if session.StreamLost && !m.polling {
		m.polling = true
		cmds = append(cmds, m.pollWorkflow())
	}

	switch {
	case session.Status == workflow.StatusFailed || session.Status == workflow.StatusCancelled:
		m.view = ResultView
	case session.Status == workflow.StatusCompleted || session.Status == workflow.StatusAwaitingInput:
		if m.view == ProgressView || m.view == ReviewView {
			m.rebuildTrackList()
			m.view = ReviewView
		}
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) rebuildTrackList() {
	items := make([]list.Item, len(m.session.Recommendations))
	for i, track := range m.session.Recommendations {
		items[i] = trackItem{track: track}
	}
	m.tracks = list.New(items, list.NewDefaultDelegate(), 0, 0)
	m.tracks.Title = fmt.Sprintf("Tracks for '%s'", m.session.MoodPrompt)
	m.tracks.SetSize(m.width-4, m.height-8)
}

func (m *Model) handlePromptKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit
	case "enter":
		moodPrompt := strings.TrimSpace(m.prompt.Value())
		if moodPrompt == "" {
			return m, nil
		}
		return m, m.startWorkflow(moodPrompt)
	}

	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

func (m *Model) handleProgressKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "c":
		return m, m.cancelWorkflow()
	}
	return m, nil
}

func (m *Model) handleReviewKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "d", "x":
		selected := m.tracks.SelectedItem()
		if item, ok := selected.(trackItem); ok {
			return m, m.removeTrack(item.track.ID)
		}
	case "s":
		if m.session.Status == workflow.StatusCompleted {
			return m, m.savePlaylist()
		}
	}

	var cmd tea.Cmd
	m.tracks, cmd = m.tracks.Update(msg)
	return m, cmd
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		m.store.ResetWorkflow()
		m.session = workflow.Session{}
		m.saved = nil
		m.polling = false
		m.err = nil
		m.prompt.SetValue("")
		m.prompt.Focus()
		m.view = PromptView
		return m, textinput.Blink
	}
	return m, nil
}

func (m *Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case PromptView:
		m.prompt, cmd = m.prompt.Update(msg)
	case ReviewView:
		m.tracks, cmd = m.tracks.Update(msg)
	}
	return m, cmd
}

func (m *Model) startWorkflow(moodPrompt string) tea.Cmd {
	return func() tea.Msg {
		sessionID, err := m.store.StartWorkflow(m.ctx, moodPrompt, "")
		return workflowStartedMsg{sessionID: sessionID, err: err}
	}
}

func (m *Model) cancelWorkflow() tea.Cmd {
	return func() tea.Msg {
		err := m.store.StopWorkflow(m.ctx)
		return editDoneMsg{err: err}
	}
}

func (m *Model) removeTrack(trackID string) tea.Cmd {
	return func() tea.Msg {
		err := m.store.ApplyCompletedEdit(m.ctx, workflow.EditRemove, models.EditOptions{TrackID: trackID})
		return editDoneMsg{err: err}
	}
}

func (m *Model) pollWorkflow() tea.Cmd {
	return func() tea.Msg {
		err := m.store.PollWorkflow(m.ctx)
		return editDoneMsg{err: err}
	}
}

func (m *Model) savePlaylist() tea.Cmd {
	return func() tea.Msg {
		playlist, err := m.store.SaveToSpotify(m.ctx)
		return playlistSavedMsg{playlist: playlist, err: err}
	}
}

// waitForUpdate blocks on the store's updates channel and re-delivers each
// snapshot as a [sessionUpdateMsg].
func (m *Model) waitForUpdate() tea.Cmd {
	return func() tea.Msg {
		session, ok := <-m.store.Updates()
		if !ok {
			return nil
		}
		return sessionUpdateMsg(session)
	}
}

func (m *Model) renderPrompt() string {
	title := styles.title.Render("What's the mood?")

	var errLine string
	if m.err != nil {
		errLine = styles.err.Render(fmt.Sprintf("\n%v\n", m.err))
	}

	helpKeys := []key.Binding{m.keys.enter, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s\n\n%s", title, m.prompt.View(), errLine, helpView)
}

func (m *Model) renderProgress() string {
	title := styles.title.Render("Generating Playlist")

	step := m.session.Status.Label()
	if m.session.CurrentStep != "" {
		step = fmt.Sprintf("%s — %s", step, m.session.CurrentStep)
	}

	var mood string
	if a := m.session.MoodAnalysis; a != nil && a.Interpretation != "" {
		mood = fmt.Sprintf("\n%s\n", styles.help.Render(a.Interpretation))
	}

	var errLine string
	if m.session.Error != "" {
		errLine = styles.warn.Render(fmt.Sprintf("\n%s\n", m.session.Error))
	}

	helpKeys := []key.Binding{m.keys.cancel, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s %s\n%s%s\n%s", title, m.spin.View(), step, mood, errLine, helpView)
}

func (m *Model) renderReview() string {
	var status string
	if m.session.Status == workflow.StatusAwaitingInput {
		status = styles.warn.Render("Waiting for your edits")
	} else {
		status = styles.ok.Render("Playlist ready")
	}

	var errLine string
	if m.err != nil {
		errLine = styles.err.Render(fmt.Sprintf("\n%v", m.err))
	} else if m.session.Error != "" {
		errLine = styles.err.Render(fmt.Sprintf("\n%s", m.session.Error))
	}

	helpKeys := []key.Binding{m.keys.remove, m.keys.save, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n\n%s%s\n\n%s", status, m.tracks.View(), errLine, helpView)
}

func (m *Model) renderResult() string {
	helpKeys := []key.Binding{m.keys.restart, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	switch {
	case m.session.Status == workflow.StatusCancelled:
		return fmt.Sprintf("%s\n\n%s", styles.warn.Render("Session cancelled"), helpView)
	case m.session.Status == workflow.StatusFailed || (m.err != nil && m.saved == nil):
		reason := m.session.Error
		if reason == "" && m.err != nil {
			reason = m.err.Error()
		}
		return fmt.Sprintf("%s\n\n%s\n\n%s", styles.err.Render("Generation failed"), reason, helpView)
	}

	title := styles.ok.Render("✓ Playlist Saved!")
	var info string
	if m.saved != nil {
		info = fmt.Sprintf("\n%s\n%s\n", m.saved.Name, m.saved.URL)
		if m.saved.AlreadySaved {
			info += styles.help.Render("(already saved previously)") + "\n"
		}
	}

	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}
