// Package browse is the interactive terminal browser over stored listings.
// The left pane lists listings; the right pane shows the lower-risk
// transitions for the listing under the cursor.
package browse

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/jobrisk/jobrisk/internal/model"
	"github.com/jobrisk/jobrisk/internal/recommend"
)

// Lines per item in either pane (title + subtitle + blank separator).
const itemHeight = 3

var (
	accent = lipgloss.Color("39")
	muted  = lipgloss.Color("240")

	paneBorder = lipgloss.NewStyle().Border(lipgloss.RoundedBorder())
	paneHeader = lipgloss.NewStyle().Bold(true).Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236"))

	itemTitleStyle    = lipgloss.NewStyle().Bold(true)
	itemSubtitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	selectedBG        = lipgloss.Color("24")

	labelStyle = lipgloss.NewStyle().Bold(true).Foreground(accent).Width(16)
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).MarginBottom(1)
	ruleStyle  = lipgloss.NewStyle().Foreground(muted)
)

var levelColors = map[model.RiskLevel]lipgloss.Color{
	model.RiskHigh:   lipgloss.Color("196"),
	model.RiskMedium: lipgloss.Color("214"),
	model.RiskLow:    lipgloss.Color("42"),
}

func levelBadge(l model.Listing) string {
	return lipgloss.NewStyle().
		Foreground(levelColors[l.RiskLevel]).
		Render(fmt.Sprintf("%.1f %s", l.RiskScore, l.RiskLevel))
}

// item is one rendered row of a pane.
type item struct {
	title, subtitle string
}

// pane is a scrollable cursor list.
type pane struct {
	vp     viewport.Model
	cursor int
	items  []item
	empty  string
}

func (p *pane) setItems(items []item) {
	p.items = items
	p.cursor = min(p.cursor, max(len(items)-1, 0))
}

// move shifts the cursor by delta and reports whether it changed.
func (p *pane) move(delta int) bool {
	next := min(max(p.cursor+delta, 0), max(len(p.items)-1, 0))
	changed := next != p.cursor
	p.cursor = next

	top := p.cursor * itemHeight
	bottom := top + itemHeight - 1
	switch {
	case top < p.vp.YOffset:
		p.vp.SetYOffset(top)
	case bottom >= p.vp.YOffset+p.vp.Height:
		p.vp.SetYOffset(bottom - p.vp.Height + 1)
	}
	return changed
}

func (p *pane) render(focused bool) {
	if len(p.items) == 0 {
		p.vp.SetContent("  " + p.empty)
		return
	}
	rows := make([]string, 0, len(p.items))
	for i, it := range p.items {
		titleSt, subSt, prefix := itemTitleStyle, itemSubtitleStyle, "  "
		if focused && i == p.cursor {
			titleSt = titleSt.Foreground(lipgloss.Color("15")).Background(selectedBG)
			subSt = subSt.Foreground(lipgloss.Color("252")).Background(selectedBG)
			prefix = "> "
		}
		rows = append(rows, prefix+titleSt.Render(it.title)+"\n"+prefix+subSt.Render(it.subtitle)+"\n")
	}
	p.vp.SetContent(strings.Join(rows, "\n"))
}

type browserModel struct {
	listings []model.Listing
	universe []model.Listing
	limit    int
	rec      recommend.Recommendation

	panes  [2]pane // 0 = listings, 1 = transitions
	focus  int
	width  int
	height int
	ready  bool

	detail      *model.Listing
	detailDelta float64 // set when the detail was opened from the transitions pane
	detailView  viewport.Model

	open     func(url string)
	wantQuit bool
}

func newBrowser(listings, universe []model.Listing, limit int) browserModel {
	m := browserModel{
		listings: listings,
		universe: universe,
		limit:    limit,
		open:     openURL,
	}
	m.panes[0].empty = "(no listings)"
	m.panes[1].empty = "(no lower-risk listing in the same sectors)"

	items := make([]item, len(listings))
	for i, l := range listings {
		items[i] = item{l.Title, fmt.Sprintf("%s · %s · %s", levelBadge(l), orNA(l.Company), orNA(l.Sector))}
	}
	m.panes[0].setItems(items)
	m.lookupTransitions()
	return m
}

// lookupTransitions refreshes the right pane for the listing under the left cursor.
func (m *browserModel) lookupTransitions() {
	m.rec = recommend.Recommendation{}
	m.panes[1].cursor = 0
	if len(m.listings) > 0 {
		cur := m.listings[m.panes[0].cursor]
		job := cur.JobTitle
		if job == "" {
			job = cur.Title
		}
		if rec, ok := recommend.RecommendTransition(job, m.universe, m.limit); ok {
			m.rec = rec
		}
	}

	items := make([]item, len(m.rec.Transitions))
	for i, t := range m.rec.Transitions {
		items[i] = item{t.Listing.Title, fmt.Sprintf("-%.2f · %s · %s", t.Delta, levelBadge(t.Listing), orNA(t.Listing.Sector))}
	}
	m.panes[1].setItems(items)
}

func (m browserModel) Init() tea.Cmd {
	return nil
}

func (m browserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil
	case tea.KeyMsg:
		if m.detail != nil {
			return m.updateDetail(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m *browserModel) resize(width, height int) {
	m.width, m.height = width, height
	// 2 border chars per pane + 1 gap; header, borders and status bar take 4 lines.
	w, h := max((width-5)/2, 20), max(height-4, 5)
	for i := range m.panes {
		if !m.ready {
			m.panes[i].vp = viewport.New(w, h)
		} else {
			m.panes[i].vp.Width, m.panes[i].vp.Height = w, h
		}
	}
	m.ready = true
	m.redraw()

	if m.detail != nil {
		m.detailView.Width, m.detailView.Height = width-4, height-4
		m.detailView.SetContent(m.renderDetail())
	}
}

func (m *browserModel) redraw() {
	for i := range m.panes {
		m.panes[i].render(i == m.focus)
	}
}

func (m browserModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.wantQuit = true
		return m, tea.Quit
	case "esc", "b":
		m.wantQuit = false
		return m, tea.Quit
	case "tab", "left", "right":
		m.focus = 1 - m.focus
	case "up", "k", "down", "j":
		delta := 1
		if s := msg.String(); s == "up" || s == "k" {
			delta = -1
		}
		if m.panes[m.focus].move(delta) && m.focus == 0 {
			m.lookupTransitions()
		}
	case "enter":
		m.openDetail()
		return m, nil
	default:
		var cmd tea.Cmd
		m.panes[m.focus].vp, cmd = m.panes[m.focus].vp.Update(msg)
		return m, cmd
	}
	if m.ready {
		m.redraw()
	}
	return m, nil
}

func (m *browserModel) openDetail() {
	p := m.panes[m.focus]
	if len(p.items) == 0 {
		return
	}
	if m.focus == 0 {
		l := m.listings[p.cursor]
		m.detail, m.detailDelta = &l, 0
	} else {
		t := m.rec.Transitions[p.cursor]
		m.detail, m.detailDelta = &t.Listing, t.Delta
	}
	m.detailView = viewport.New(m.width-4, m.height-4)
	m.detailView.SetContent(m.renderDetail())
}

func (m browserModel) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.wantQuit = true
		return m, tea.Quit
	case "esc", "backspace":
		m.detail = nil
		return m, nil
	case "o":
		if m.open != nil && m.detail.Link != "" {
			m.open(m.detail.Link)
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.detailView, cmd = m.detailView.Update(msg)
	return m, cmd
}

func (m browserModel) View() string {
	if !m.ready {
		return "Initializing..."
	}
	if m.detail != nil {
		return titleStyle.Render("Listing Details") + "\n" +
			paneBorder.BorderForeground(accent).Width(m.width-2).Render(m.detailView.View()) + "\n" +
			statusBarStyle.Width(m.width).Render(" o open link  esc/backspace back  ↑/↓ scroll  q quit")
	}

	headers := [2]string{
		fmt.Sprintf(" Listings (%d)", len(m.listings)),
		fmt.Sprintf(" Lower-risk transitions (%d)", len(m.rec.Transitions)),
	}
	if len(m.rec.Current) > 0 {
		headers[1] += fmt.Sprintf(" · current avg %.2f", m.rec.AverageRisk)
	}

	var heads, bodies []string
	for i := range m.panes {
		color := muted
		if i == m.focus {
			color = accent
		}
		w := m.panes[i].vp.Width
		heads = append(heads, lipgloss.NewStyle().Width(w+2).Render(paneHeader.Foreground(color).Render(headers[i])))
		bodies = append(bodies, paneBorder.BorderForeground(color).Width(w).Render(m.panes[i].vp.View()))
	}

	status := fmt.Sprintf(" %d listings    ←/→/Tab switch  ↑/↓ cursor  Enter detail  Esc back  q quit", len(m.listings))
	return lipgloss.JoinHorizontal(lipgloss.Top, heads[0], " ", heads[1]) + "\n" +
		lipgloss.JoinHorizontal(lipgloss.Top, bodies[0], " ", bodies[1]) + "\n" +
		statusBarStyle.Width(m.width).Render(status)
}

func (m browserModel) renderDetail() string {
	l := m.detail
	var b strings.Builder
	field := func(label, value string) {
		if value != "" {
			b.WriteString(labelStyle.Render(label) + value + "\n")
		}
	}

	field("Title", l.Title)
	field("Company", l.Company)
	field("Job title", l.JobTitle)
	field("Sector", l.Sector)
	field("Location", l.Location)
	field("Contract", l.ContractType)
	field("Reference", l.Reference)
	if l.IsUrgent {
		field("Urgent", "yes")
	}
	field("Source", l.Source)

	b.WriteByte('\n')
	if !l.DatePosted.IsZero() {
		field("Posted", l.DatePosted.Format("2006-01-02"))
	}
	if l.Deadline != nil {
		field("Deadline", l.Deadline.Format("2006-01-02"))
	}
	if !l.ScrapedAt.IsZero() {
		field("Scraped", humanize.Time(l.ScrapedAt))
	}

	b.WriteByte('\n')
	field("Risk", levelBadge(*l))
	if m.detailDelta > 0 {
		field("Risk reduction", fmt.Sprintf("%.2f", m.detailDelta))
	}
	for i, s := range l.Suggestions {
		label := ""
		if i == 0 {
			label = "Suggestions"
		}
		b.WriteString(labelStyle.Render(label) + "• " + s + "\n")
	}

	b.WriteByte('\n')
	field("Link", l.Link)

	if l.Description != "" {
		width := max(m.width-8, 20)
		b.WriteString("\n" + ruleStyle.Render("── Description "+strings.Repeat("─", max(width-15, 3))) + "\n\n")
		b.WriteString(lipgloss.NewStyle().Width(width).Foreground(lipgloss.Color("252")).Render(l.Description) + "\n")
	}
	return b.String()
}

func orNA(s string) string {
	if s == "" {
		return "n/a"
	}
	return s
}

// openURL opens url in the default system browser, fire-and-forget.
func openURL(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return
	}
	_ = cmd.Start()
}

// Run launches the split-pane browser over listings. Transitions are looked
// up in universe, which is usually every stored listing. Returns
// wantQuit=true if the user pressed q/ctrl+c, false if they pressed esc to
// go back to the picker.
func Run(listings, universe []model.Listing, limit int) (bool, error) {
	p := tea.NewProgram(newBrowser(listings, universe, limit), tea.WithAltScreen())
	result, err := p.Run()
	if err != nil {
		return false, err
	}
	return result.(browserModel).wantQuit, nil
}
