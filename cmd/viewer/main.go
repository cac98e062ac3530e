package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/helio-sandbox/helio"
)

// This command renders the demo universe as a live top-down terminal view.

var (
	seed  int64
	speed int
)

func init() {
	flag.Int64Var(&seed, "seed", 0, "universe seed (0 uses the configured seed)")
	flag.IntVar(&speed, "speed", 1, "simulation ticks per frame")
}

// Discrete zoom levels in meters of world per half-screen.
var zoomLevels = []float64{1000, 2500, 7000, 20000}

type tickMsg time.Time

type model struct {
	u   *helio.Universe
	ids helio.DemoIDs

	width, height int
	zoomLevel     int
	paused        bool
}

func frameTick() tea.Cmd {
	return tea.Tick(50*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) Init() tea.Cmd {
	return frameTick()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.paused = !m.paused
		case "+", "=":
			if m.zoomLevel > 0 {
				m.zoomLevel--
			}
		case "-":
			if m.zoomLevel < len(zoomLevels)-1 {
				m.zoomLevel++
			}
		}
	case tickMsg:
		if !m.paused {
			for i := 0; i < speed; i++ {
				m.u.OnSimTick(helio.ControlSignals{})
			}
		}
		return m, frameTick()
	}
	return m, nil
}

func (m model) View() string {
	if m.width < 40 || m.height < 12 {
		return "terminal too small"
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.canvas(), m.hud())
}

// canvas draws the system top-down, planet-centered.
func (m model) canvas() string {
	h := m.height - 4
	w := m.width
	grid := make([][]rune, h)
	for y := range grid {
		grid[y] = make([]rune, w)
		for x := range grid[y] {
			grid[y][x] = ' '
		}
	}
	cx, cy := w/2, h/2
	halfSpan := zoomLevels[m.zoomLevel]
	// Terminal cells are taller than wide; compress Y to keep circles round.
	sx := float64(cx) / halfSpan
	sy := sx * 0.5

	plot := func(pos helio.Vec2, glyph rune) {
		x := cx + int(pos.X*sx)
		y := cy - int(pos.Y*sy)
		if x >= 0 && x < w && y >= 0 && y < h {
			grid[y][x] = glyph
		}
	}
	ring := func(radius float64) {
		steps := 360
		for i := 0; i < steps; i++ {
			θ := 2 * math.Pi * float64(i) / float64(steps)
			plot(helio.VecFromAngle(θ).Scale(radius), '·')
		}
	}

	stamp := m.u.Stamp()
	if lk, ok := m.u.LookupPlanet(m.ids.Moon, stamp); ok {
		ring(lk.PV.R.Norm())
		plot(lk.PV.R, '○')
	}
	for _, id := range m.u.OrbiterIDs() {
		if p := m.u.PropagatorAt(id, stamp); p != nil {
			for _, pt := range p.Orbit.Orbit.Trace(360) {
				plot(pt, '·')
			}
		}
		if _, pv, _, err := m.u.LookupOrbiter(id, stamp); err == nil {
			plot(pv.R, '◆')
		}
	}
	plot(helio.Vec2{}, '◉')

	planetStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true)
	moonStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	craftStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	var b strings.Builder
	for _, row := range grid {
		for _, ch := range row {
			switch ch {
			case ' ':
				b.WriteRune(ch)
			case '◉':
				b.WriteString(planetStyle.Render(string(ch)))
			case '○':
				b.WriteString(moonStyle.Render(string(ch)))
			case '◆':
				b.WriteString(craftStyle.Render(string(ch)))
			default:
				b.WriteString(dimStyle.Render(string(ch)))
			}
		}
		b.WriteRune('\n')
	}
	return b.String()
}

func (m model) hud() string {
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	headStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)

	var b strings.Builder
	b.WriteString(headStyle.Render(m.u.Name))
	b.WriteString("  ")
	b.WriteString(labelStyle.Render("clock: "))
	b.WriteString(valueStyle.Render(m.u.Stamp().String()))
	if m.paused {
		b.WriteString(labelStyle.Render("  [paused]"))
	}
	b.WriteString("\n")

	if name, pv, parent, err := m.u.LookupOrbiter(m.ids.Orbiter, m.u.Stamp()); err == nil {
		b.WriteString(labelStyle.Render(name + ": "))
		b.WriteString(valueStyle.Render(fmt.Sprintf("r=%0.0f m v=%0.1f m/s around %s", pv.R.Norm(), pv.V.Norm(), parent)))
		b.WriteString("  ")
	}
	if v, ok := m.u.Vehicle(m.ids.Hopper); ok {
		b.WriteString(labelStyle.Render(v.Name + ": "))
		b.WriteString(valueStyle.Render(fmt.Sprintf("%0.1f kg fuel, Δv %0.0f m/s", v.FuelMass(), v.RemainingDv())))
	}
	b.WriteString("\n")
	b.WriteString(labelStyle.Render(fmt.Sprintf("zoom ±%0.0f m  [+/-] zoom  [space] pause  [q] quit", zoomLevels[m.zoomLevel])))
	return b.String()
}

func main() {
	flag.Parse()
	if seed == 0 {
		seed = helio.ConfiguredSeed()
	}
	if speed < 1 {
		speed = 1
	}
	u, ids, err := helio.DemoUniverse(seed, nil)
	if err != nil {
		log.Fatalf("building demo universe: %s", err)
	}

	m := model{u: u, ids: ids, zoomLevel: 2}
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "viewer: %s\n", err)
		os.Exit(1)
	}
}
