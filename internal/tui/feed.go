package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tatianab/saga/internal/models"
)

const feedBuffer = 64

type progressMsg struct {
	title       string
	description string
	tokens      int
}

type documentMsg struct {
	doc *models.State
}

// Feed carries engine callbacks into the program. The callbacks never block;
// when the program falls behind, messages are dropped and the committed
// document is read back once the step finishes.
type Feed struct {
	ch chan tea.Msg
}

func NewFeed() *Feed {
	return &Feed{ch: make(chan tea.Msg, feedBuffer)}
}

// OnUpdate is an engine.UpdateFunc.
func (f *Feed) OnUpdate(s *models.State) {
	f.send(documentMsg{doc: s})
}

// OnProgress is an engine.ProgressFunc.
func (f *Feed) OnProgress(title, description string, tokenCount int) {
	f.send(progressMsg{title: title, description: description, tokens: tokenCount})
}

func (f *Feed) send(msg tea.Msg) {
	select {
	case f.ch <- msg:
	default:
	}
}

func (f *Feed) wait() tea.Cmd {
	return func() tea.Msg {
		return <-f.ch
	}
}
