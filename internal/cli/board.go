package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/valter-silva-au/flowboard/internal/core"
	"github.com/valter-silva-au/flowboard/internal/storage"
	"github.com/valter-silva-au/flowboard/pkg/models"
)

type boardMode int

const (
	modeBrowse boardMode = iota
	modeDrag
	modePrompt
)

const minColumnWidth = 24

// boardKeyMap holds the terminal board's key bindings.
type boardKeyMap struct {
	Left     key.Binding
	Right    key.Binding
	Up       key.Binding
	Down     key.Binding
	Pick     key.Binding
	Drop     key.Binding
	Cancel   key.Binding
	New      key.Binding
	Edit     key.Binding
	Delete   key.Binding
	Priority key.Binding
	Filter   key.Binding
	Sort     key.Binding
	Theme    key.Binding
	Quit     key.Binding
}

func newBoardKeyMap() boardKeyMap {
	return boardKeyMap{
		Left:     key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "left")),
		Right:    key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "right")),
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Pick:     key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "pick up")),
		Drop:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "drop")),
		Cancel:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		New:      key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new")),
		Edit:     key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		Delete:   key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "delete")),
		Priority: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "priority")),
		Filter:   key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filter")),
		Sort:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort")),
		Theme:    key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "theme")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k boardKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Pick, k.Drop, k.New, k.Edit, k.Delete, k.Priority, k.Filter, k.Sort, k.Theme, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k boardKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Left, k.Right, k.Up, k.Down},
		{k.Pick, k.Drop, k.Cancel},
		{k.New, k.Edit, k.Delete, k.Priority},
		{k.Filter, k.Sort, k.Theme, k.Quit},
	}
}

// boardStyles is the palette for one theme.
type boardStyles struct {
	title        lipgloss.Style
	column       lipgloss.Style
	activeColumn lipgloss.Style
	header       lipgloss.Style
	badge        lipgloss.Style
	card         lipgloss.Style
	focusedCard  lipgloss.Style
	draggedCard  lipgloss.Style
	dropSlot     lipgloss.Style
	empty        lipgloss.Style
	status       lipgloss.Style
	errText      lipgloss.Style
	priority     map[models.Priority]lipgloss.Style
}

func newBoardStyles(theme models.Theme) boardStyles {
	fg, muted, border, accent, focus := lipgloss.Color("235"), lipgloss.Color("244"), lipgloss.Color("250"), lipgloss.Color("25"), lipgloss.Color("255")
	high, medium, low := lipgloss.Color("160"), lipgloss.Color("166"), lipgloss.Color("31")
	if theme == models.ThemeDark {
		fg, muted, border, accent, focus = lipgloss.Color("252"), lipgloss.Color("241"), lipgloss.Color("240"), lipgloss.Color("62"), lipgloss.Color("237")
		high, medium, low = lipgloss.Color("203"), lipgloss.Color("214"), lipgloss.Color("75")
	}

	card := lipgloss.NewStyle().
		Foreground(fg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1)

	return boardStyles{
		title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(accent).
			Padding(0, 1),
		column: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(border).
			Padding(0, 1),
		activeColumn: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(accent).
			Padding(0, 1),
		header:      lipgloss.NewStyle().Bold(true).Foreground(fg),
		badge:       lipgloss.NewStyle().Foreground(muted),
		card:        card,
		focusedCard: card.BorderForeground(accent).Background(focus),
		draggedCard: card.BorderStyle(lipgloss.DoubleBorder()).BorderForeground(accent).Faint(true),
		dropSlot:    lipgloss.NewStyle().Foreground(accent).Bold(true),
		empty:       lipgloss.NewStyle().Foreground(muted).Italic(true),
		status:      lipgloss.NewStyle().Foreground(muted),
		errText:     lipgloss.NewStyle().Foreground(high),
		priority: map[models.Priority]lipgloss.Style{
			models.PriorityHigh:   lipgloss.NewStyle().Foreground(high).Bold(true),
			models.PriorityMedium: lipgloss.NewStyle().Foreground(medium),
			models.PriorityLow:    lipgloss.NewStyle().Foreground(low),
		},
	}
}

type boardModel struct {
	board  *core.Board
	themes storage.ThemeStore
	theme  models.Theme
	styles boardStyles
	keys   boardKeyMap
	help   help.Model
	input  textinput.Model

	mode    boardMode
	col     int
	row     int
	editing string // id of the task being renamed; "" while adding
	status  string
	err     error

	width  int
	height int
}

func newBoardModel(board *core.Board, themes storage.ThemeStore) boardModel {
	theme := models.ThemeLight
	if themes != nil {
		theme = themes.Load()
	}

	ti := textinput.New()
	ti.Prompt = "Title: "
	ti.CharLimit = 200
	ti.Width = 50

	return boardModel{
		board:  board,
		themes: themes,
		theme:  theme,
		styles: newBoardStyles(theme),
		keys:   newBoardKeyMap(),
		help:   help.New(),
		input:  ti,
	}
}

func (m boardModel) Init() tea.Cmd {
	return tea.SetWindowTitle("FlowBoard")
}

func (m boardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if m.mode == modePrompt {
			return m.updatePrompt(msg)
		}
		return m.updateBoard(msg)
	}

	if m.mode == modePrompt {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m boardModel) updateBoard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.err = nil

	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.mode == modeDrag {
			m.board.CancelDrag()
		}
		return m, tea.Quit

	case key.Matches(msg, m.keys.Left):
		if m.col > 0 {
			m.col--
		}
	case key.Matches(msg, m.keys.Right):
		if m.col < len(m.board.View().Statuses)-1 {
			m.col++
		}
	case key.Matches(msg, m.keys.Up):
		if m.row > 0 {
			m.row--
		}
	case key.Matches(msg, m.keys.Down):
		m.row++

	case key.Matches(msg, m.keys.Pick):
		if m.mode != modeBrowse {
			break
		}
		t, ok := m.focused()
		if !ok || !m.board.BeginDrag(t.ID) {
			break
		}
		m.mode = modeDrag
		m.status = fmt.Sprintf("Moving %q: choose a place and press enter, esc to cancel", t.Title)
		// Drops land by manual order; show that order while dragging.
		if m.board.Options().Sort != models.SortManual {
			m.board.SetSort(models.SortManual)
			m.focusTask(t.ID)
			m.status += " (sort switched to manual)"
		}

	case key.Matches(msg, m.keys.Drop):
		if m.mode != modeDrag {
			break
		}
		id := m.board.DraggingID()
		if m.board.Drop(m.hoverTarget()) {
			m.status = "Moved"
		} else {
			m.status = "Nothing moved"
		}
		m.mode = modeBrowse
		m.focusTask(id)

	case key.Matches(msg, m.keys.Cancel):
		if m.mode != modeDrag {
			break
		}
		id := m.board.DraggingID()
		m.board.CancelDrag()
		m.mode = modeBrowse
		m.status = "Move cancelled"
		m.focusTask(id)

	case m.mode == modeDrag:
		// Editing keys are inert while a card is in the air.

	case key.Matches(msg, m.keys.New):
		m.editing = ""
		m.input.SetValue("")
		return m.openPrompt()

	case key.Matches(msg, m.keys.Edit):
		if t, ok := m.focused(); ok {
			m.editing = t.ID
			m.input.SetValue(t.Title)
			return m.openPrompt()
		}

	case key.Matches(msg, m.keys.Delete):
		if t, ok := m.focused(); ok {
			m.board.DeleteTask(t.ID)
			m.status = fmt.Sprintf("Deleted %q", t.Title)
		}

	case key.Matches(msg, m.keys.Priority):
		if t, ok := m.focused(); ok {
			draft := core.DraftFromTask(t)
			draft.Priority = cycle(models.Priorities(), t.Priority)
			if _, err := m.board.SaveTask(draft); err != nil {
				m.err = err
			} else {
				m.focusTask(t.ID)
			}
		}

	case key.Matches(msg, m.keys.Filter):
		m.board.SetFilter(cycle(models.PriorityFilters(), m.board.Options().Filter))

	case key.Matches(msg, m.keys.Sort):
		m.board.SetSort(cycle(models.SortOptions(), m.board.Options().Sort))

	case key.Matches(msg, m.keys.Theme):
		m.theme = m.theme.Toggle()
		m.styles = newBoardStyles(m.theme)
		if m.themes != nil {
			if err := m.themes.Save(m.theme); err != nil {
				m.err = err
			}
		}
	}

	m.clampCursor()
	return m, nil
}

func (m boardModel) openPrompt() (tea.Model, tea.Cmd) {
	m.mode = modePrompt
	m.err = nil
	m.input.CursorEnd()
	return m, tea.Batch(m.input.Focus(), textinput.Blink)
}

func (m boardModel) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = modeBrowse
		m.input.Blur()
		m.err = nil
		return m, nil

	case tea.KeyEnter:
		draft := core.TaskDraft{Title: m.input.Value(), Status: m.focusedStatus()}
		if m.editing != "" {
			if t, ok := m.board.Task(m.editing); ok {
				draft = core.DraftFromTask(t)
				draft.Title = m.input.Value()
			}
		}
		task, err := m.board.SaveTask(draft)
		if err != nil {
			m.err = err
			return m, nil
		}
		m.mode = modeBrowse
		m.input.Blur()
		m.err = nil
		m.status = fmt.Sprintf("Saved %q", task.Title)
		m.focusTask(task.ID)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// focused returns the task under the cursor.
func (m boardModel) focused() (models.Task, bool) {
	view := m.board.View()
	if m.col >= len(view.Statuses) {
		return models.Task{}, false
	}
	col := view.Column(view.Statuses[m.col])
	if m.row < 0 || m.row >= len(col) {
		return models.Task{}, false
	}
	return col[m.row], true
}

func (m boardModel) focusedStatus() models.Status {
	view := m.board.View()
	if m.col < len(view.Statuses) {
		return view.Statuses[m.col]
	}
	return models.StatusTodo
}

// hoverTarget is where a drop at the cursor lands: the task under it, or the
// column itself when the cursor is on the slot past the last card.
func (m boardModel) hoverTarget() models.DropTarget {
	if t, ok := m.focused(); ok {
		return models.TaskTarget(t.ID)
	}
	return models.ColumnTarget(m.focusedStatus())
}

// focusTask moves the cursor onto the task with id if it is visible.
func (m *boardModel) focusTask(id string) {
	view := m.board.View()
	for c, st := range view.Statuses {
		for r, t := range view.Column(st) {
			if t.ID == id {
				m.col, m.row = c, r
				return
			}
		}
	}
	m.clampCursor()
}

// clampCursor keeps the cursor on a card, or on the drop slot after the last
// card while dragging.
func (m *boardModel) clampCursor() {
	view := m.board.View()
	if m.col >= len(view.Statuses) {
		m.col = len(view.Statuses) - 1
	}
	if m.col < 0 {
		m.col = 0
		m.row = 0
		return
	}
	limit := view.Count(view.Statuses[m.col]) - 1
	if m.mode == modeDrag {
		limit++
	}
	if m.row > limit {
		m.row = limit
	}
	if m.row < 0 {
		m.row = 0
	}
}

func cycle[T comparable](values []T, current T) T {
	i := slices.Index(values, current)
	return values[(i+1)%len(values)]
}

func (m boardModel) View() string {
	view := m.board.View()
	s := m.styles

	title := s.title.Render(" FlowBoard ")
	info := s.status.Render(fmt.Sprintf("  filter: %s  sort: %s  theme: %s", view.Filter, view.Sort, m.theme))

	width := minColumnWidth
	if n := len(view.Statuses); n > 0 && m.width > 0 {
		if w := m.width/n - 4; w > width {
			width = w
		}
	}

	columns := make([]string, len(view.Statuses))
	for i, st := range view.Statuses {
		columns[i] = m.renderColumn(i, st, view.Column(st), width)
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top, columns...)

	var footer strings.Builder
	if m.mode == modePrompt {
		label := "New task in " + m.focusedStatus().Title()
		if m.editing != "" {
			label = "Edit task"
		}
		footer.WriteString(s.header.Render(label) + "\n" + m.input.View() + "\n")
	}
	switch {
	case m.err != nil:
		footer.WriteString(s.errText.Render(errorText(m.err)) + "\n")
	case m.status != "":
		footer.WriteString(s.status.Render(m.status) + "\n")
	}
	footer.WriteString(m.help.View(m.keys))

	return fmt.Sprintf("%s%s\n\n%s\n%s", title, info, body, footer.String())
}

func (m boardModel) renderColumn(idx int, st models.Status, tasks []models.Task, width int) string {
	s := m.styles
	active := idx == m.col && m.mode != modePrompt
	dragging := m.board.DraggingID()

	var b strings.Builder
	b.WriteString(s.header.Render(st.Title()) + " " + s.badge.Render(fmt.Sprintf("(%d)", len(tasks))))
	b.WriteString("\n")

	if len(tasks) == 0 && m.mode != modeDrag {
		b.WriteString(s.empty.Render("No tasks yet"))
	}
	from := slices.IndexFunc(tasks, func(t models.Task) bool { return t.ID == dragging })
	for r, t := range tasks {
		hovered := active && m.mode == modeDrag && r == m.row
		// Moving down a column the card lands after the one it is dropped on.
		after := hovered && from >= 0 && r > from
		if hovered && !after {
			b.WriteString(s.dropSlot.Render("▶ drop here") + "\n")
		}
		style := s.card
		switch {
		case t.ID == dragging:
			style = s.draggedCard
		case active && m.mode == modeBrowse && r == m.row:
			style = s.focusedCard
		}
		pri := s.priority[t.Priority].Render(string(t.Priority))
		b.WriteString(style.Width(width-4).Render(t.Title+"\n"+pri) + "\n")
		if after {
			b.WriteString(s.dropSlot.Render("▶ drop here") + "\n")
		}
	}
	if active && m.mode == modeDrag && m.row >= len(tasks) {
		b.WriteString(s.dropSlot.Render("▶ drop at end"))
	}

	style := s.column
	if active {
		style = s.activeColumn
	}
	return style.Width(width).Render(b.String())
}

func errorText(err error) string {
	if errors.Is(err, core.ErrEmptyTitle) {
		return "Title must not be empty"
	}
	return err.Error()
}

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Open the interactive terminal board",
	Long: `Open the three-column board in the terminal.

Move with the arrow keys or h/j/k/l. Press space to pick up a card, move to
another card or past the last card of a column, and press enter to drop it
there (esc cancels). Picking up a card switches the board to manual sort,
the order drops are made in. n adds a task, e renames, x deletes, p cycles priority,
f cycles the priority filter, s cycles the sort, t toggles the theme and q
quits.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Board == nil {
			return fmt.Errorf("board not initialized")
		}

		if Logger != nil && TUILogPath != "" {
			restore, err := redirectLogs(TUILogPath)
			if err != nil {
				return err
			}
			defer restore()
		}

		p := tea.NewProgram(newBoardModel(Board, Themes), tea.WithAltScreen())
		_, err := p.Run()
		return err
	},
}

// redirectLogs sends Logger output to path until the returned func is called.
func redirectLogs(path string) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	prev := Logger.Out
	Logger.SetOutput(f)
	return func() {
		Logger.SetOutput(prev)
		_ = f.Close()
	}, nil
}

func init() {
	rootCmd.AddCommand(boardCmd)
}
