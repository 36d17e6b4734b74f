package browse

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jobrisk/jobrisk/internal/model"
)

var (
	pickerTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Padding(1, 0, 1, 2)

	pickerItemStyle = lipgloss.NewStyle().
			Padding(0, 0, 0, 4)

	pickerSelectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39")).
				Bold(true).
				Padding(0, 0, 0, 2)

	pickerHintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Padding(1, 0, 0, 2)
)

// Quit is returned by RunPicker when the user leaves without choosing.
const Quit = -1

type pickerModel struct {
	title  string
	items  []string
	cursor int
	chosen int // -2 = no choice yet
}

func newPicker(title string, items []string) pickerModel {
	return pickerModel{title: title, items: items, chosen: -2}
}

func (m pickerModel) Init() tea.Cmd {
	return nil
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.chosen = Quit
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.items)-1 {
				m.cursor++
			}
		case "enter":
			if len(m.items) > 0 {
				m.chosen = m.cursor
				return m, tea.Quit
			}
		}
	}
	return m, nil
}

func (m pickerModel) View() string {
	s := pickerTitleStyle.Render(m.title)
	s += "\n"

	for i, item := range m.items {
		if i == m.cursor {
			s += pickerSelectedStyle.Render("> "+item) + "\n"
		} else {
			s += pickerItemStyle.Render(item) + "\n"
		}
	}

	s += pickerHintStyle.Render("↑/↓/j/k navigate  enter select  q quit")
	return s
}

// RunPicker shows an interactive selector over items.
// Returns the index of the chosen item, or Quit if the user left.
func RunPicker(title string, items []string) (int, error) {
	p := tea.NewProgram(newPicker(title, items))
	result, err := p.Run()
	if err != nil {
		return Quit, err
	}

	final := result.(pickerModel)
	if final.chosen < 0 {
		return Quit, nil
	}
	return final.chosen, nil
}

// LevelChoice is one entry of the risk level picker. An empty Level keeps
// every listing.
type LevelChoice struct {
	Label string
	Level model.RiskLevel
}

var LevelChoices = []LevelChoice{
	{"All listings", ""},
	{"High risk", model.RiskHigh},
	{"Medium risk", model.RiskMedium},
	{"Low risk", model.RiskLow},
}

// LevelLabels returns the picker labels of LevelChoices.
func LevelLabels() []string {
	labels := make([]string, len(LevelChoices))
	for i, c := range LevelChoices {
		labels[i] = c.Label
	}
	return labels
}

// FilterLevel keeps the listings at level. An empty level keeps all of them.
func FilterLevel(listings []model.Listing, level model.RiskLevel) []model.Listing {
	if level == "" {
		return listings
	}
	var out []model.Listing
	for _, l := range listings {
		if l.RiskLevel == level {
			out = append(out, l)
		}
	}
	return out
}
