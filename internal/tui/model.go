// Package tui implements the terminal practice view: chord cards, a beat
// indicator and live keyboard control of the player.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	nashville "github.com/cbegin/nashville-go"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 2).
			Foreground(lipgloss.Color("7"))

	activeCardStyle = cardStyle.
			BorderForeground(lipgloss.Color("10")).
			Foreground(lipgloss.Color("10")).
			Bold(true)

	beatOnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	beatOffStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

var instrumentOrder = []nashville.Instrument{
	nashville.InstrumentPluck,
	nashville.InstrumentPad,
	nashville.InstrumentSteel,
}

// Model is the practice-view TUI model. It polls the player on a frame tick
// rather than subscribing, so a dropped notification never desyncs the view.
type Model struct {
	player *nashville.Player

	width  int
	height int

	playing    bool
	chordIndex int
	beat       int
	progress   float64

	statusMsg string
}

func NewModel(player *nashville.Player) Model {
	return Model{player: player, width: 80, height: 24}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(tea.EnterAltScreen, tickCmd())
}

type tickMsg struct{}

func tickCmd() tea.Cmd {
	return tea.Tick(16*time.Millisecond, func(_ time.Time) tea.Msg {
		return tickMsg{}
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		m.playing = m.player.IsPlaying()
		m.chordIndex = m.player.ChordIndex()
		m.beat = m.player.Beat()
		m.progress = m.player.Progress()
		return m, tickCmd()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.player.Stop()
		return m, tea.Quit

	case " ":
		if m.player.IsPlaying() {
			m.player.Stop()
			m.statusMsg = "stopped"
		} else if err := m.player.Start(); err != nil {
			m.statusMsg = errStyle.Render(err.Error())
		} else {
			m.statusMsg = "playing"
		}

	case "+", "=":
		m.player.SetTempo(m.player.Tempo() + 5)
	case "-", "_":
		m.player.SetTempo(m.player.Tempo() - 5)

	case "s":
		next := map[int]int{1: 2, 2: 4, 4: 1}[m.player.StrumDivision()]
		_ = m.player.SetStrumDivision(next)

	case "i":
		cur := m.player.Instrument()
		for n, inst := range instrumentOrder {
			if inst == cur {
				next := instrumentOrder[(n+1)%len(instrumentOrder)]
				if err := m.player.SetInstrument(next); err == nil {
					m.statusMsg = "instrument: " + string(next)
				}
				break
			}
		}

	case "m":
		if m.player.MetronomeVolume() > 0 {
			m.player.SetMetronomeVolume(0)
			m.statusMsg = "metronome off"
		} else {
			m.player.SetMetronomeVolume(60)
			m.statusMsg = "metronome on"
		}
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	key, mode := m.player.Key()
	state := "stopped"
	if m.playing {
		state = "playing"
	}
	b.WriteString(titleStyle.Render("nashville"))
	b.WriteString(dimStyle.Render(fmt.Sprintf("  %s %s | %d bpm | strum /%d | %s | %s",
		key, mode, m.player.Tempo(), m.player.StrumDivision(), m.player.Instrument(), state)))
	b.WriteString("\n\n")

	b.WriteString(m.renderChordCards())
	b.WriteString("\n\n")

	b.WriteString(m.renderBeat())
	b.WriteString("  ")
	b.WriteString(m.renderProgress())
	b.WriteString("\n\n")

	if m.statusMsg != "" {
		b.WriteString(m.statusMsg)
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("space play/stop  +/- tempo  s strum  i instrument  m metronome  q quit"))
	return b.String()
}

// renderChordCards shows one card per progression slot, highlighting the
// sounding one.
func (m Model) renderChordCards() string {
	prog := m.player.Progression()
	if len(prog) == 0 {
		return dimStyle.Render("(no progression loaded)")
	}
	_, mode := m.player.Key()
	cards := make([]string, 0, len(prog))
	for i, slot := range prog {
		label := slot.Label(mode)
		style := cardStyle
		if m.playing && i == m.chordIndex {
			style = activeCardStyle
		}
		cards = append(cards, style.Render(label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Center, cards...)
}

func (m Model) renderBeat() string {
	dots := make([]string, 4)
	for i := range dots {
		if m.playing && i == m.beat {
			dots[i] = beatOnStyle.Render("●")
		} else {
			dots[i] = beatOffStyle.Render("○")
		}
	}
	return strings.Join(dots, " ")
}

func (m Model) renderProgress() string {
	const width = 32
	filled := int(m.progress * width)
	if filled > width {
		filled = width
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return dimStyle.Render(bar)
}

// Run starts the interactive practice view and blocks until quit.
func Run(player *nashville.Player) error {
	_, err := tea.NewProgram(NewModel(player), tea.WithAltScreen()).Run()
	return err
}
