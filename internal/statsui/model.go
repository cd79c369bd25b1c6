// Package statsui provides the Bubble Tea stats interface.
package statsui

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/quizly/internal/model"
	"github.com/verte-zerg/quizly/internal/stats"
)

const (
	tabOverview = iota
	tabQuestions
	tabProfiles
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// Source provides the data shown by the stats UI.
type Source interface {
	stats.Source
	ListProfiles(ctx context.Context) ([]model.Profile, error)
}

// Options selects the initial profile and sort order.
type Options struct {
	Profile string
	Order   stats.Order
}

// Model implements the Bubble Tea stats UI.
type Model struct {
	src  Source
	opts Options

	report   stats.Report
	profiles []model.Profile
	errMsg   string

	tabs          []string
	activeTab     int
	viewports     []viewport.Model
	questionTable table.Model

	width  int
	height int

	profileMode  bool
	profileInput textinput.Model
	profileError string
}

// NewModel constructs a stats UI model.
func NewModel(src Source, opts Options) *Model {
	if opts.Profile == "" {
		opts.Profile = model.DefaultProfileName
	}
	m := &Model{
		src:  src,
		opts: opts,
		tabs: []string{"Overview", "Questions", "Profiles"},
	}
	m.initProfileInput()
	m.initViewports()
	m.questionTable = buildQuestionTable(nil, 0, 1)
	m.refreshReport()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderTabContents()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || (!m.profileMode && msg.String() == "q") {
			return m, tea.Quit
		}
		if m.profileMode {
			return m.updateProfileInput(msg)
		}
		switch msg.String() {
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "s":
			m.opts.Order = toggleOrder(m.opts.Order)
			m.report = m.report.Sorted(m.opts.Order)
			m.questionTable.SetRows(questionRows(m.report.Rows))
			m.renderTabContents()
			return m, nil
		case "r":
			m.refreshReport()
			return m, nil
		case "/":
			return m.startProfileInput()
		case "g", "home":
			if m.activeTab == tabQuestions {
				m.questionTable.GotoTop()
			} else {
				m.viewports[m.activeTab].GotoTop()
			}
			return m, nil
		case "G", "end":
			if m.activeTab == tabQuestions {
				m.questionTable.GotoBottom()
			} else {
				m.viewports[m.activeTab].GotoBottom()
			}
			return m, nil
		default:
			if m.activeTab == tabQuestions {
				var cmd tea.Cmd
				m.questionTable, cmd = m.questionTable.Update(msg)
				return m, cmd
			}
			vp := m.viewports[m.activeTab]
			var cmd tea.Cmd
			vp, cmd = vp.Update(msg)
			m.viewports[m.activeTab] = vp
			return m, cmd
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) initViewports() {
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
}

func (m *Model) initProfileInput() {
	input := textinput.New()
	input.Prompt = "Profile: "
	input.CharLimit = 0
	input.Cursor.SetMode(cursor.CursorBlink)
	m.profileInput = input
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := lipgloss.Height(activeNavStyle.Render("X"))
	if tabsHeight < 1 {
		tabsHeight = 1
	}
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if m.profileMode || m.errMsg != "" {
		footerHeight++
	}
	bodyHeight = m.height - headerHeight - footerHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = bodyHeight
	}
	m.questionTable.SetColumns(questionColumns(m.width))
	m.questionTable.SetWidth(m.width)
	m.questionTable.SetHeight(maxInt(1, bodyHeight-1))
	promptWidth := lipgloss.Width(m.profileInput.Prompt)
	m.profileInput.Width = maxInt(10, m.width-promptWidth-2)
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	if count == 0 {
		return
	}
	next := m.activeTab + delta
	if next < 0 {
		next = count - 1
	}
	if next >= count {
		next = 0
	}
	m.activeTab = next
	if m.activeTab == tabQuestions {
		m.questionTable.Focus()
	} else {
		m.questionTable.Blur()
	}
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	tabs := padLines(m.renderTabs(), m.width)
	summary := fmt.Sprintf("Profile: %s (id %d)  order=%s", m.report.Profile.Name, m.report.Profile.ID, m.opts.Order)
	return tabs + "\n" + headerStyle.Render(truncateLine(summary, m.width))
}

func (m *Model) renderFooter() string {
	if m.profileMode {
		lines := []string{m.profileInput.View()}
		if m.profileError != "" {
			lines = append(lines, errorStyle.Render(m.profileError))
		} else {
			lines = append(lines, headerStyle.Render("enter: load profile  esc: cancel"))
		}
		return strings.Join(lines, "\n")
	}
	help := headerStyle.Render("Nav: left/right  Scroll: up/down  Sort: s  Profile: /  Reload: r  Quit: q")
	if m.errMsg != "" {
		return help + "\n" + errorStyle.Render(m.errMsg)
	}
	return help
}

func (m *Model) renderBody() string {
	if m.activeTab == tabQuestions {
		if len(m.report.Rows) == 0 {
			return "No questions found."
		}
		return tableMutedStyle.Render(m.questionTable.View())
	}
	return m.viewports[m.activeTab].View()
}

func (m *Model) refreshReport() {
	m.loadReport(m.opts.Profile)
}

func (m *Model) loadReport(profileName string) {
	ctx := context.Background()
	report, err := stats.BuildReport(ctx, m.src, profileName, m.opts.Order)
	if err != nil {
		m.errMsg = err.Error()
		for i := range m.viewports {
			m.viewports[i].SetContent("Failed to load stats.")
		}
		return
	}
	profiles, err := m.src.ListProfiles(ctx)
	if err != nil {
		m.errMsg = err.Error()
	} else {
		m.errMsg = ""
	}
	m.profiles = profiles
	m.report = report
	m.questionTable.SetRows(questionRows(report.Rows))
	m.renderTabContents()
}

func (m *Model) renderTabContents() {
	if len(m.viewports) == 0 {
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.viewports[tabOverview].SetContent(renderOverview(m.report, width))
	m.viewports[tabProfiles].SetContent(renderProfiles(m.profiles, m.report.Profile.ID))
}

func (m *Model) startProfileInput() (tea.Model, tea.Cmd) {
	m.profileMode = true
	m.profileError = ""
	m.profileInput.SetValue("")
	m.updateLayout()
	return m, m.profileInput.Focus()
}

func (m *Model) updateProfileInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.profileMode = false
		m.profileError = ""
		m.profileInput.Blur()
		m.updateLayout()
		return m, nil
	case tea.KeyEnter:
		name := strings.TrimSpace(m.profileInput.Value())
		if err := m.applyProfile(name); err != nil {
			m.profileError = err.Error()
			return m, nil
		}
		m.profileMode = false
		m.profileError = ""
		m.profileInput.Blur()
		m.updateLayout()
		return m, nil
	}
	var cmd tea.Cmd
	m.profileInput, cmd = m.profileInput.Update(msg)
	return m, cmd
}

func (m *Model) applyProfile(name string) error {
	if name == "" {
		return fmt.Errorf("profile name is empty")
	}
	found := false
	for _, p := range m.profiles {
		if p.Name == name {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("profile %q not found", name)
	}
	m.opts.Profile = name
	m.refreshReport()
	return nil
}

func renderOverview(report stats.Report, width int) string {
	if report.Summary.Questions == 0 {
		return "No questions found."
	}
	sum := report.Summary
	cards := []string{
		metricCard("Questions", strconv.Itoa(sum.Questions)),
		metricCard("Enabled", strconv.Itoa(sum.Enabled)),
		metricCard("Never answered", strconv.Itoa(sum.Unseen)),
		metricCard("Answers", strconv.Itoa(sum.Answered)),
		metricCard("Accuracy", fmt.Sprintf("%.1f%%", sum.Accuracy())),
		metricCard("Avg weight", fmt.Sprintf("%.2f", sum.AverageWeight)),
	}
	var summary string
	if width < 80 {
		summary = strings.Join(cards, "\n")
	} else {
		row1 := lipgloss.JoinHorizontal(lipgloss.Top, cards[0], cards[1], cards[2])
		row2 := lipgloss.JoinHorizontal(lipgloss.Top, cards[3], cards[4], cards[5])
		summary = lipgloss.JoinVertical(lipgloss.Left, row1, row2)
	}
	weakest := weakestRows(report.Rows, 5)
	if len(weakest) == 0 {
		return summary
	}
	lines := []string{summary, "", headerStyle.Render("Needs practice:")}
	for _, r := range weakest {
		lines = append(lines, fmt.Sprintf("  %3d%%  w=%.2f  %s", r.Score, model.RoundWeight(r.Weight), truncateLine(r.Title, maxInt(10, width-20))))
	}
	return strings.Join(lines, "\n")
}

// weakestRows returns up to n enabled, answered rows with the lowest scores.
func weakestRows(rows []stats.Row, n int) []stats.Row {
	var answered []stats.Row
	for _, r := range rows {
		if r.Enabled && r.TimesAnswered > 0 {
			answered = append(answered, r)
		}
	}
	sort.SliceStable(answered, func(i, j int) bool {
		if answered[i].Score == answered[j].Score {
			return answered[i].Weight < answered[j].Weight
		}
		return answered[i].Score < answered[j].Score
	})
	if len(answered) > n {
		answered = answered[:n]
	}
	return answered
}

func renderProfiles(profiles []model.Profile, activeID int) string {
	if len(profiles) == 0 {
		return "No profiles found."
	}
	lines := make([]string, 0, len(profiles))
	for _, p := range profiles {
		marker := "  "
		if p.ID == activeID {
			marker = "* "
		}
		lines = append(lines, fmt.Sprintf("%s%3d  %s", marker, p.ID, p.Name))
	}
	return strings.Join(lines, "\n")
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func buildQuestionTable(rows []stats.Row, width, height int) table.Model {
	t := table.New(
		table.WithColumns(questionColumns(width)),
		table.WithRows(questionRows(rows)),
		table.WithHeight(maxInt(1, height-1)),
	)
	t.SetWidth(width)
	t.SetStyles(questionTableStyles())
	return t
}

// questionColumns gives the title column whatever width the fixed columns leave.
func questionColumns(width int) []table.Column {
	fixed := []table.Column{
		{Title: "ID", Width: 4},
		{Title: "Answer", Width: 16},
		{Title: "Enabled", Width: 7},
		{Title: "Score", Width: 6},
		{Title: "Answered", Width: 8},
		{Title: "Weight", Width: 6},
	}
	used := 0
	for _, c := range fixed {
		used += c.Width + 1
	}
	titleWidth := maxInt(12, width-used-1)
	return append([]table.Column{fixed[0], {Title: "Title", Width: titleWidth}}, fixed[1:]...)
}

func questionRows(rows []stats.Row) []table.Row {
	out := make([]table.Row, 0, len(rows))
	for _, r := range rows {
		enabled := "no"
		if r.Enabled {
			enabled = "yes"
		}
		out = append(out, table.Row{
			strconv.Itoa(r.ID),
			r.Title,
			r.Answer,
			enabled,
			fmt.Sprintf("%d%%", r.Score),
			strconv.Itoa(r.TimesAnswered),
			fmt.Sprintf("%.2f", model.RoundWeight(r.Weight)),
		})
	}
	return out
}

func questionTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func toggleOrder(o stats.Order) stats.Order {
	if o == stats.Ascending {
		return stats.Descending
	}
	return stats.Ascending
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func padLines(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return s
	}
	if width <= 3 {
		return runewidth.Truncate(s, width, "")
	}
	return runewidth.Truncate(s, width, "...")
}
