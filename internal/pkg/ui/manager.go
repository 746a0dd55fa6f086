// Package ui provides the terminal presentation for lumen.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lumen-cli/lumen/internal/pkg/git"
	"github.com/lumen-cli/lumen/internal/pkg/history"
)

// Spinner provides loading animation functionality.
type Spinner interface {
	Start()
	Stop()
}

// Manager defines the interface for UI operations.
type Manager interface {
	DisplayExplanation(change git.ChangeContext, explanation string) error
	DisplayHistory(entries []*history.Entry)
	ShowSpinner(text string) Spinner
	ShowSuccess(message string)
	PromptConfirm(message string) (bool, error)
}

// styles holds the lipgloss styles for UI rendering.
type styles struct {
	title   lipgloss.Style
	hash    lipgloss.Style
	meta    lipgloss.Style
	body    lipgloss.Style
	success lipgloss.Style
	info    lipgloss.Style
}

func newStyles(colorEnabled bool) *styles {
	if !colorEnabled {
		plain := lipgloss.NewStyle()
		return &styles{
			title:   plain,
			hash:    plain,
			meta:    plain,
			body:    plain,
			success: plain,
			info:    plain,
		}
	}

	return &styles{
		title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")),
		hash: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("220")),
		meta: lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")),
		body: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")),
		success: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42")),
		info: lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")),
	}
}

// renderHeader describes what was explained. Commits get their short hash,
// author and date; staged changes have no metadata yet.
func (s *styles) renderHeader(change git.ChangeContext) string {
	switch c := change.(type) {
	case *git.Commit:
		var sb strings.Builder
		sb.WriteString(s.title.Render("commit "))
		sb.WriteString(s.hash.Render(c.ShortHash()))
		sb.WriteString("\n")
		sb.WriteString(s.meta.Render(fmt.Sprintf("Author: %s <%s>", c.AuthorName, c.AuthorEmail)))
		sb.WriteString("\n")
		sb.WriteString(s.meta.Render("Date:   " + c.Date))
		return sb.String()
	case *git.StagedChanges:
		return s.title.Render("Staged changes")
	default:
		return ""
	}
}

func (s *styles) renderHistory(entries []*history.Entry) string {
	if len(entries) == 0 {
		return s.info.Render("No explanations recorded yet.")
	}

	var sb strings.Builder
	for i, entry := range entries {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		subject := string(entry.Kind)
		if entry.Ref != "" {
			ref := entry.Ref
			if len(ref) > 7 {
				ref = ref[:7]
			}
			subject += " " + ref
		}
		sb.WriteString(s.hash.Render(subject))
		sb.WriteString(s.meta.Render(fmt.Sprintf("  %s  %s/%s",
			entry.Timestamp.Local().Format("2006-01-02 15:04"), entry.Provider, entry.Model)))
		sb.WriteString("\n")
		sb.WriteString(s.body.Render(firstLine(entry.Explanation)))
	}
	return sb.String()
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i]) + " …"
	}
	return s
}

// DefaultManager implements the Manager interface using charmbracelet libraries.
type DefaultManager struct {
	colorEnabled bool
	out          io.Writer
	styles       *styles
}

// NewDefaultManager creates a new DefaultManager writing to out.
func NewDefaultManager(out io.Writer, colorEnabled bool) *DefaultManager {
	return &DefaultManager{
		colorEnabled: colorEnabled,
		out:          out,
		styles:       newStyles(colorEnabled),
	}
}

// DisplayExplanation prints the change header followed by the explanation.
func (m *DefaultManager) DisplayExplanation(change git.ChangeContext, explanation string) error {
	if change == nil {
		return fmt.Errorf("change cannot be nil")
	}

	fmt.Fprintln(m.out)
	fmt.Fprintln(m.out, m.styles.renderHeader(change))
	fmt.Fprintln(m.out)
	fmt.Fprintln(m.out, m.styles.body.Render(explanation))
	fmt.Fprintln(m.out)
	return nil
}

// DisplayHistory prints recorded explanations, oldest first.
func (m *DefaultManager) DisplayHistory(entries []*history.Entry) {
	fmt.Fprintln(m.out, m.styles.renderHistory(entries))
}

// ShowSpinner creates and returns a spinner for loading states. The
// spinner draws on stderr so the explanation on stdout stays pipeable.
func (m *DefaultManager) ShowSpinner(text string) Spinner {
	return newBubbleSpinner(text)
}

// ShowSuccess displays a success message to the user.
func (m *DefaultManager) ShowSuccess(message string) {
	fmt.Fprintln(m.out, m.styles.success.Render("[OK] "+message))
}

// PromptConfirm prompts the user for a yes/no confirmation using Bubble Tea.
func (m *DefaultManager) PromptConfirm(message string) (bool, error) {
	p := tea.NewProgram(newConfirmModel(message), tea.WithOutput(os.Stderr))

	finalModel, err := p.Run()
	if err != nil {
		return false, err
	}

	return finalModel.(confirmModel).confirmed, nil
}

// confirmModel is the Bubble Tea model for yes/no confirmation.
type confirmModel struct {
	message   string
	cursor    int // 0 = Yes, 1 = No
	confirmed bool
	done      bool
}

func newConfirmModel(message string) confirmModel {
	return confirmModel{message: message}
}

func (m confirmModel) Init() tea.Cmd {
	return nil
}

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "ctrl+c", "q", "n", "N", "esc":
		m.confirmed = false
		m.done = true
		return m, tea.Quit
	case "y", "Y":
		m.confirmed = true
		m.done = true
		return m, tea.Quit
	case "left", "h":
		m.cursor = 0
	case "right", "l":
		m.cursor = 1
	case "enter", " ":
		m.confirmed = m.cursor == 0
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m confirmModel) View() string {
	if m.done {
		return ""
	}

	prompt := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220"))
	selected := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	normal := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	yes, no := normal, normal
	if m.cursor == 0 {
		yes = selected
	} else {
		no = selected
	}

	return prompt.Render(m.message) + " " + yes.Render("[Y]es") + " / " + no.Render("[N]o")
}

// bubbleSpinner implements Spinner using Bubble Tea.
type bubbleSpinner struct {
	model   spinnerModel
	program *tea.Program
	done    chan struct{}
	mu      sync.Mutex
}

// spinnerModel is the Bubble Tea model for simple spinner.
type spinnerModel struct {
	spinner  spinner.Model
	text     string
	quitting bool
}

// spinnerQuitMsg signals the spinner to quit.
type spinnerQuitMsg struct{}

func (m spinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinnerQuitMsg:
		m.quitting = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m spinnerModel) View() string {
	if m.quitting {
		return ""
	}
	return fmt.Sprintf("%s %s", m.spinner.View(), m.text)
}

func newBubbleSpinner(text string) *bubbleSpinner {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return &bubbleSpinner{
		model: spinnerModel{spinner: s, text: text},
	}
}

func (s *bubbleSpinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.program != nil {
		return
	}

	s.program = tea.NewProgram(s.model, tea.WithOutput(os.Stderr), tea.WithInput(nil))
	s.done = make(chan struct{})
	go func(p *tea.Program, done chan struct{}) {
		defer close(done)
		_, _ = p.Run()
	}(s.program, s.done)
}

// Stop quits the spinner and waits until its line has been cleared.
func (s *bubbleSpinner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.program == nil {
		return
	}
	s.program.Send(spinnerQuitMsg{})
	<-s.done
	s.program = nil
}

// NonInteractiveManager implements Manager when stdout is not a terminal.
// It prints plain text and never prompts.
type NonInteractiveManager struct {
	out    io.Writer
	styles *styles
}

// NewNonInteractiveManager creates a new NonInteractiveManager.
func NewNonInteractiveManager(out io.Writer) *NonInteractiveManager {
	return &NonInteractiveManager{
		out:    out,
		styles: newStyles(false),
	}
}

// DisplayExplanation prints the header and explanation without styling.
func (m *NonInteractiveManager) DisplayExplanation(change git.ChangeContext, explanation string) error {
	if change == nil {
		return fmt.Errorf("change cannot be nil")
	}
	fmt.Fprintln(m.out, m.styles.renderHeader(change))
	fmt.Fprintln(m.out)
	fmt.Fprintln(m.out, explanation)
	return nil
}

func (m *NonInteractiveManager) DisplayHistory(entries []*history.Entry) {
	fmt.Fprintln(m.out, m.styles.renderHistory(entries))
}

// ShowSpinner returns a no-op spinner.
func (m *NonInteractiveManager) ShowSpinner(text string) Spinner {
	return noopSpinner{}
}

func (m *NonInteractiveManager) ShowSuccess(message string) {
	fmt.Fprintln(m.out, message)
}

// PromptConfirm always returns true in non-interactive mode.
func (m *NonInteractiveManager) PromptConfirm(message string) (bool, error) {
	return true, nil
}

type noopSpinner struct{}

func (noopSpinner) Start() {}
func (noopSpinner) Stop()  {}
