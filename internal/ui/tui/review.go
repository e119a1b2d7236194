package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/klauern/goldenfile/internal/tree"
)

// ReviewAction represents the action to perform after the review.
type ReviewAction int

const (
	// ReviewActionNone means the user quit without applying anything.
	ReviewActionNone ReviewAction = iota
	// ReviewActionApply means the accepted files should be written.
	ReviewActionApply
)

// ReviewResult contains the result of the review TUI interaction.
type ReviewResult struct {
	Action ReviewAction
	// Accepted lists the accepted paths in display order.
	Accepted []string
}

type reviewKeyMap struct {
	Up        key.Binding
	Down      key.Binding
	View      key.Binding
	Back      key.Binding
	Accept    key.Binding
	AcceptAll key.Binding
	Apply     key.Binding
	Help      key.Binding
	Quit      key.Binding
}

func defaultReviewKeyMap() reviewKeyMap {
	return reviewKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		View: key.NewBinding(
			key.WithKeys("enter", "v"),
			key.WithHelp("enter/v", "view diff"),
		),
		Back: key.NewBinding(
			key.WithKeys("b", "esc"),
			key.WithHelp("b/esc", "back"),
		),
		Accept: key.NewBinding(
			key.WithKeys("a", " "),
			key.WithHelp("a/space", "toggle accept"),
		),
		AcceptAll: key.NewBinding(
			key.WithKeys("A"),
			key.WithHelp("A", "accept all"),
		),
		Apply: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "write accepted"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

var reviewStyles = struct {
	Added      lipgloss.Style
	Removed    lipgloss.Style
	Hunk       lipgloss.Style
	FileHeader lipgloss.Style
	Info       lipgloss.Style
}{
	Added:      lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
	Removed:    lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
	Hunk:       lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
	FileHeader: lipgloss.NewStyle().Bold(true),
	Info:       lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Italic(true),
}

const reviewPathWidth = 48

// ReviewModel is the BubbleTea model for reviewing golden file mismatches.
type ReviewModel struct {
	table       table.Model
	results     []tree.Result
	accepted    map[string]bool
	keys        reviewKeyMap
	result      ReviewResult
	caser       cases.Caser
	viewingDiff bool
	viewport    viewport.Model
	showHelp    bool
	width       int
	height      int
	quitting    bool
}

// NewReviewModel creates a review model. Matching results are left out.
func NewReviewModel(results []tree.Result) ReviewModel {
	var pending []tree.Result
	for _, r := range results {
		if r.Status != tree.StatusMatch {
			pending = append(pending, r)
		}
	}

	m := ReviewModel{
		results:  pending,
		accepted: make(map[string]bool),
		keys:     defaultReviewKeyMap(),
		caser:    cases.Title(language.English),
	}

	columns := []table.Column{
		{Title: " ", Width: 1},
		{Title: "Golden File", Width: reviewPathWidth},
		{Title: "Status", Width: 10},
		{Title: "Differ", Width: 8},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(m.rows()),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	m.table = t
	return m
}

func (m ReviewModel) rows() []table.Row {
	rows := make([]table.Row, len(m.results))
	for i, r := range m.results {
		mark := " "
		if m.accepted[r.Path] {
			mark = "✓"
		}
		rows[i] = table.Row{
			mark,
			truncatePath(r.Path, reviewPathWidth),
			m.caser.String(r.Status.String()),
			r.Differ,
		}
	}
	return rows
}

// Init implements tea.Model.
func (m ReviewModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m ReviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetHeight(max(msg.Height-10, 5))
		if m.viewingDiff {
			m.viewport.Width = msg.Width - 2
			m.viewport.Height = max(msg.Height-7, 5)
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.result = ReviewResult{Action: ReviewActionNone}
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Help):
			m.showHelp = !m.showHelp
			return m, nil

		case key.Matches(msg, m.keys.Accept):
			m.toggleSelected()
			return m, nil

		case key.Matches(msg, m.keys.AcceptAll):
			for _, r := range m.results {
				m.accepted[r.Path] = true
			}
			m.table.SetRows(m.rows())
			return m, nil

		case key.Matches(msg, m.keys.Apply):
			m.result = ReviewResult{Action: ReviewActionApply, Accepted: m.acceptedPaths()}
			m.quitting = true
			return m, tea.Quit
		}

		if m.viewingDiff {
			if key.Matches(msg, m.keys.Back) {
				m.viewingDiff = false
				return m, nil
			}
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

		if key.Matches(msg, m.keys.View) {
			if r, ok := m.selected(); ok {
				m.viewport = viewport.New(max(m.width-2, 40), max(m.height-7, 10))
				m.viewport.SetContent(m.buildDiffContent(r))
				m.viewingDiff = true
			}
			return m, nil
		}
	}

	if m.viewingDiff {
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *ReviewModel) toggleSelected() {
	r, ok := m.selected()
	if !ok {
		return
	}
	if m.accepted[r.Path] {
		delete(m.accepted, r.Path)
	} else {
		m.accepted[r.Path] = true
	}
	m.table.SetRows(m.rows())
}

func (m ReviewModel) selected() (tree.Result, bool) {
	cursor := m.table.Cursor()
	if cursor >= 0 && cursor < len(m.results) {
		return m.results[cursor], true
	}
	return tree.Result{}, false
}

func (m ReviewModel) acceptedPaths() []string {
	var paths []string
	for _, r := range m.results {
		if m.accepted[r.Path] {
			paths = append(paths, r.Path)
		}
	}
	return paths
}

func (m ReviewModel) buildDiffContent(r tree.Result) string {
	var b strings.Builder
	if r.Status == tree.StatusMissing {
		b.WriteString(reviewStyles.Info.Render("No golden file yet; accepting creates it."))
		b.WriteString("\n\n")
	}
	for _, line := range strings.Split(r.Diff(), "\n") {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			b.WriteString(reviewStyles.FileHeader.Render(line))
		case strings.HasPrefix(line, "@@"):
			b.WriteString(reviewStyles.Hunk.Render(line))
		case strings.HasPrefix(line, "+"):
			b.WriteString(reviewStyles.Added.Render(line))
		case strings.HasPrefix(line, "-"):
			b.WriteString(reviewStyles.Removed.Render(line))
		default:
			b.WriteString(line)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// View implements tea.Model.
func (m ReviewModel) View() string {
	if m.quitting {
		return ""
	}
	if m.viewingDiff {
		return m.viewDiff()
	}

	var b strings.Builder
	b.WriteString(Styles.Title.Render("Review Golden Files"))
	b.WriteString("\n\n")

	if len(m.results) == 0 {
		b.WriteString(Styles.Status.Render("All golden files match."))
		b.WriteString("\n")
		b.WriteString(Styles.Help.Render("q quit"))
		return b.String()
	}

	b.WriteString(m.table.View())
	b.WriteString("\n")
	status := fmt.Sprintf("%d of %d file(s) accepted", len(m.accepted), len(m.results))
	b.WriteString(Styles.Status.Render(status))
	b.WriteString("\n")

	if m.showHelp {
		b.WriteString("\n")
		b.WriteString(m.renderFullHelp())
	} else {
		keys := []string{"↑/↓ navigate", "enter view", "a accept", "w write", "? help", "q quit"}
		b.WriteString(Styles.Help.Render(strings.Join(keys, " • ")))
	}
	return b.String()
}

func (m ReviewModel) viewDiff() string {
	var b strings.Builder

	title := "Diff"
	if r, ok := m.selected(); ok {
		title = r.Path
		if m.accepted[r.Path] {
			title += " (accepted)"
		}
	}
	b.WriteString(Styles.Title.Render(title))
	b.WriteString("\n\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	status := fmt.Sprintf("Scroll: %d%% • Press b or Esc to go back", int(m.viewport.ScrollPercent()*100))
	b.WriteString(Styles.Status.Render(status))
	b.WriteString("\n")
	keys := []string{"↑/↓ scroll", "a accept", "b back", "q quit"}
	b.WriteString(Styles.Help.Render(strings.Join(keys, " • ")))
	return b.String()
}

func (m ReviewModel) renderFullHelp() string {
	help := `Navigation:
  ↑/k      Move up
  ↓/j      Move down

Actions:
  Enter/v  View diff for selected file
  a/Space  Toggle accepting the selected file
  A        Accept every file
  w        Write accepted files and exit

General:
  ?        Toggle full help
  q        Quit without writing`
	return Styles.Help.Render(help)
}

// Result returns the result of the user interaction.
func (m ReviewModel) Result() ReviewResult {
	return m.result
}

// RunReview runs the interactive review and returns the result.
func RunReview(results []tree.Result) (ReviewResult, error) {
	mdl := NewReviewModel(results)
	if len(mdl.results) == 0 {
		return ReviewResult{}, nil
	}

	finalModel, err := Run(mdl)
	if err != nil {
		return ReviewResult{}, err
	}
	if m, ok := finalModel.(ReviewModel); ok {
		return m.Result(), nil
	}
	return ReviewResult{}, nil
}
