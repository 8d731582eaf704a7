// Package tui is the terminal front end: a wizard that walks through session
// setup followed by the chat log.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tatianab/saga/internal/engine"
	"github.com/tatianab/saga/internal/models"
	"github.com/tatianab/saga/internal/store"
)

// DefaultSession is the name autosaves go to when none is given.
const DefaultSession = "current"

const chatHelp = "Commands: /undo /regenerate /reset /newcharacter /newscenario /quit. Esc aborts a running step."

// Options configures the program.
type Options struct {
	Engine *engine.Engine
	Feed   *Feed
	// Store is optional; without it nothing is saved.
	Store   store.Store
	Session string
}

type model struct {
	eng     *engine.Engine
	feed    *Feed
	store   store.Store
	session string

	doc      *models.State
	shown    models.View
	busy     bool
	progress progressMsg
	err      error

	spinner   spinner.Model
	textInput textinput.Model
	viewport  viewport.Model
	cursor    int
	field     int
	width     int
	height    int
}

var (
	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EEEEEE")).
			Background(lipgloss.Color("#5F5F87")).
			Bold(true).
			PaddingLeft(1)

	gameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F5F"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFA500")).
			Bold(true)

	stateStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("#3C3C3C")).
			PaddingLeft(2).
			Foreground(lipgloss.Color("#AAAAAA"))

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFA500")).
			Bold(true).
			Underline(true)
)

func newModel(opts Options) model {
	ti := textinput.New()
	ti.Focus()
	ti.CharLimit = 500
	ti.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	session := opts.Session
	if session == "" {
		session = DefaultSession
	}
	feed := opts.Feed
	if feed == nil {
		feed = NewFeed()
	}

	m := model{
		eng:       opts.Engine,
		feed:      feed,
		store:     opts.Store,
		session:   session,
		doc:       opts.Engine.State(),
		spinner:   sp,
		textInput: ti,
		viewport:  viewport.New(80, 20),
	}
	m.enterView()
	return m
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, m.feed.wait())
}

type advancedMsg struct {
	err error
}

type savedMsg struct {
	err error
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			m.eng.Abort()
			return m, tea.Quit
		case tea.KeyEsc:
			if m.busy {
				m.eng.Abort()
				return m, nil
			}
			return m, tea.Quit
		}
		if m.busy {
			return m, nil
		}
		switch msg.Type {
		case tea.KeyUp:
			m.moveCursor(-1)
			return m, nil
		case tea.KeyDown:
			m.moveCursor(1)
			return m, nil
		case tea.KeyLeft, tea.KeyRight:
			if m.doc.View == models.ViewCharacter {
				m.cycleCharacterField(msg.Type == tea.KeyRight)
				return m, nil
			}
		case tea.KeyTab:
			if m.doc.View == models.ViewCharacter {
				m.field = (m.field + 1) % 2
				return m, nil
			}
		case tea.KeyEnter:
			return m.submit()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = int(float64(msg.Width) * 0.75)
		m.viewport.Height = max(msg.Height-8, 1)
		m.refreshLog()
		return m, nil

	case progressMsg:
		m.progress = msg
		return m, m.feed.wait()

	case documentMsg:
		// Partial documents only matter while a step streams.
		if m.busy {
			m.doc = msg.doc
			m.refreshLog()
		}
		return m, m.feed.wait()

	case advancedMsg:
		m.busy = false
		m.progress = progressMsg{}
		if msg.err != nil && !m.eng.IsAbortError(msg.err) {
			m.err = msg.err
		}
		return m.reload()

	case savedMsg:
		if msg.err != nil {
			m.err = fmt.Errorf("autosave: %w", msg.err)
		}
		return m, nil

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

// submit handles enter: a command, an edit to the current wizard view
// followed by Advance, or a chat action.
func (m model) submit() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.textInput.Value())
	m.err = nil

	if strings.HasPrefix(input, "/") {
		m.textInput.Reset()
		return m.command(input)
	}

	action := ""
	switch m.doc.View {
	case models.ViewGenre:
		genre := models.Genres[m.cursor]
		if err := m.eng.Edit(func(s *models.State) { s.Genre = genre }); err != nil {
			m.err = err
			return m, nil
		}
	case models.ViewCharacter:
		gender, race := m.doc.Protagonist.Gender, m.doc.Protagonist.Race
		if err := m.eng.Edit(func(s *models.State) {
			s.Protagonist.Gender = gender
			s.Protagonist.Race = race
			s.ProtagonistGuidance = input
		}); err != nil {
			m.err = err
			return m, nil
		}
	case models.ViewScenario:
		if err := m.eng.Edit(func(s *models.State) { s.StartingLocationGuidance = input }); err != nil {
			m.err = err
			return m, nil
		}
	case models.ViewChat:
		action = input
		if action == "" && m.cursor < len(m.doc.Actions) {
			action = m.doc.Actions[m.cursor]
		}
		// Without suggestions an empty action opens the story.
		if action == "" && len(m.doc.Actions) > 0 {
			return m, nil
		}
		if action != "" {
			m.doc.Events = append(m.doc.Events, &models.ActionEvent{Action: action})
			m.refreshLog()
		}
	}

	m.textInput.Reset()
	m.busy = true
	return m, m.advance(action)
}

// command runs a slash command.
func (m model) command(input string) (tea.Model, tea.Cmd) {
	var err error
	switch input {
	case "/quit":
		return m, tea.Quit
	case "/undo":
		err = m.eng.Undo()
	case "/regenerate":
		before := m.doc.Events
		if err = m.eng.Regenerate(); err == nil {
			doc := m.eng.State()
			if action := replayedAction(before, doc.Events); action != "" {
				m.doc = doc
				m.refreshLog()
				m.busy = true
				return m, m.advance(action)
			}
		}
	case "/back":
		if m.doc.View == models.ViewChat {
			err = fmt.Errorf("/back only works during setup; use /newcharacter or /newscenario")
			break
		}
		err = m.eng.Back()
	case "/reset":
		err = m.eng.Reset()
	case "/newcharacter":
		err = m.eng.NewCharacter()
	case "/newscenario":
		err = m.eng.NewScenario()
	default:
		err = fmt.Errorf("unknown command %s", input)
	}
	if err != nil {
		m.err = err
		return m, nil
	}
	return m.reload()
}

// replayedAction returns the action of the turn that Regenerate rolled back,
// if any.
func replayedAction(before, after models.Events) string {
	if len(after) >= len(before) {
		return ""
	}
	for _, e := range before[len(after):] {
		if a, ok := e.(*models.ActionEvent); ok {
			return a.Action
		}
	}
	return ""
}

// reload picks up the committed document and saves it.
func (m model) reload() (tea.Model, tea.Cmd) {
	m.doc = m.eng.State()
	switch {
	case m.doc.View != m.shown:
		m.enterView()
	case m.doc.View == models.ViewChat:
		m.cursor = 0
	}
	m.refreshLog()
	return m, m.save()
}

// enterView resets the input and selection for the current view.
func (m *model) enterView() {
	m.shown = m.doc.View
	m.cursor = 0
	m.field = 0
	m.textInput.Reset()
	switch m.doc.View {
	case models.ViewCharacter:
		m.textInput.Placeholder = "Describe your character, or leave empty"
		m.textInput.SetValue(m.doc.ProtagonistGuidance)
	case models.ViewScenario:
		m.textInput.Placeholder = "Describe where the story starts, or leave empty"
		m.textInput.SetValue(m.doc.StartingLocationGuidance)
	case models.ViewChat:
		m.textInput.Placeholder = "What do you do?"
	default:
		m.textInput.Placeholder = ""
	}
	for i, g := range models.Genres {
		if m.doc.View == models.ViewGenre && g == m.doc.Genre {
			m.cursor = i
		}
	}
}

func (m *model) moveCursor(delta int) {
	var n int
	switch m.doc.View {
	case models.ViewGenre:
		n = len(models.Genres)
	case models.ViewChat:
		n = len(m.doc.Actions)
	case models.ViewCharacter:
		m.field = (m.field + 2 + delta) % 2
		return
	}
	if n == 0 {
		return
	}
	m.cursor = (m.cursor + n + delta) % n
}

// cycleCharacterField changes the gender or race shown in the character view.
// The choice is committed on enter.
func (m *model) cycleCharacterField(forward bool) {
	step := -1
	if forward {
		step = 1
	}
	p := &m.doc.Protagonist
	if m.field == 0 {
		p.Gender = cycle(models.Genders, p.Gender, step)
	} else {
		p.Race = cycle(models.Races, p.Race, step)
	}
}

func cycle[T comparable](values []T, cur T, step int) T {
	for i, v := range values {
		if v == cur {
			return values[(i+len(values)+step)%len(values)]
		}
	}
	return values[0]
}

func (m model) advance(action string) tea.Cmd {
	eng, feed := m.eng, m.feed
	return func() tea.Msg {
		return advancedMsg{err: eng.Advance(context.Background(), action, feed.OnProgress)}
	}
}

func (m model) save() tea.Cmd {
	if m.store == nil {
		return nil
	}
	st, name, doc := m.store, m.session, m.doc
	return func() tea.Msg {
		return savedMsg{err: st.Save(context.Background(), name, doc)}
	}
}

func (m *model) refreshLog() {
	if m.doc.View != models.ViewChat {
		return
	}
	m.viewport.SetContent(renderEvents(m.doc, m.viewport.Width))
	m.viewport.GotoBottom()
}

func (m model) View() string {
	var s string

	switch m.doc.View {
	case models.ViewChat:
		mainView := lipgloss.JoinHorizontal(lipgloss.Top,
			m.viewport.View(),
			m.renderState(),
		)
		s = lipgloss.JoinVertical(lipgloss.Left,
			mainView,
			m.renderActions(),
			m.textInput.View(),
			helpStyle.Render(chatHelp),
		)
	default:
		s = m.renderWizard()
	}

	s += "\n\n" + m.renderStatus()
	return "\n" + s + "\n"
}

func (m model) renderStatus() string {
	switch {
	case m.busy:
		line := m.spinner.View() + " " + m.progress.title
		if m.progress.tokens > 0 {
			line += fmt.Sprintf(" (%d tokens)", m.progress.tokens)
		}
		if m.progress.description != "" {
			line += "\n  " + helpStyle.Render(m.progress.description)
		}
		return line
	case m.err != nil:
		return errorStyle.Render("Error: " + m.err.Error())
	}
	return ""
}

// Run starts the program and blocks until the player quits.
func Run(opts Options) error {
	p := tea.NewProgram(newModel(opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
