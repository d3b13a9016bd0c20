// Package ui renders the terminal readout: one view per connection state.
package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"

	"github.com/robertof/go-squegg-meter/controller"
	"github.com/robertof/go-squegg-meter/display"
)

// Ensure Model satisfies tea.Model.
var _ tea.Model = Model{}

// Controller is the subset of *controller.Controller the readout needs.
type Controller interface {
	Connect(ctx context.Context) error
	Snapshot() controller.Snapshot
}

type Options struct {
	// Strengths at or below this are shown as 0.
	LowerStrengthBoundary float64
	FPS                   int
	// Shown in the connected view.
	DeviceName string
}

type Model struct {
	ctx  context.Context
	ctrl Controller
	opts Options

	state      controller.State
	connecting bool

	smoother  *display.Smoother
	animating bool
	grips     uint64
	battery   int
	hasSample bool

	spinner spinner.Model

	width, height int
}

func New(ctx context.Context, ctrl Controller, opts Options) Model {
	if opts.FPS <= 0 {
		opts.FPS = display.DefaultFPS
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(colorInfo)

	snap := ctrl.Snapshot()

	m := Model{
		ctx:      ctx,
		ctrl:     ctrl,
		opts:     opts,
		state:    snap.State,
		smoother: display.New(opts.LowerStrengthBoundary, opts.FPS),
		grips:    snap.Grips,
		spinner:  s,
	}

	if snap.HasSample() {
		m.hasSample = true
		m.animating = true
		m.battery = snap.Sample.BatteryCharge
		m.smoother.SetTarget(snap.Sample.Strength)
	}

	return m
}

// Attach forwards controller events to the running program.
func Attach(p *tea.Program, ctrl *controller.Controller) {
	ctrl.OnStateChange(func(c controller.StateChange) {
		p.Send(StateMsg{Change: c})
	})

	ctrl.OnSample(func(u controller.Update) {
		p.Send(SampleMsg{Update: u})
	})
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick}

	if m.animating {
		cmds = append(cmds, frameCmd(m.opts.FPS))
	}

	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case connectDoneMsg:
		m.connecting = false

		if msg.Err != nil && !errors.Is(msg.Err, controller.ErrInvalidTransition) {
			log.Warn().Err(msg.Err).Msg("ui: connect request rejected")
		}

		return m, nil

	case StateMsg:
		m.state = msg.Change.To

		if m.state == controller.StateInitial {
			m.connecting = false
		}

		return m, nil

	case SampleMsg:
		m.hasSample = true
		m.grips = msg.Update.Grips
		m.battery = msg.Update.Sample.BatteryCharge
		m.smoother.SetTarget(msg.Update.Sample.Strength)

		if m.animating {
			return m, nil
		}

		m.animating = true
		return m, frameCmd(m.opts.FPS)

	case frameMsg:
		m.smoother.Step()

		if m.smoother.Settled() {
			m.animating = false
			return m, nil
		}

		return m, frameCmd(m.opts.FPS)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "c", "enter":
		// connect intent is only meaningful from the connect prompt.
		if m.state != controller.StateInitial || m.connecting {
			return m, nil
		}

		m.connecting = true
		return m, connectCmd(m.ctx, m.ctrl)
	}

	return m, nil
}

func (m Model) View() string {
	var body string

	switch m.state {
	case controller.StateInitial:
		body = m.viewInitial()
	case controller.StateConnecting:
		body = m.viewConnecting()
	case controller.StateConnected:
		body = m.viewConnected()
	case controller.StateError:
		body = m.viewError()
	}

	if m.width == 0 || m.height == 0 {
		return body + "\n"
	}

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, body)
}

func (m Model) viewInitial() string {
	button := "Connect"
	if m.connecting {
		button = "Connecting..."
	}

	return lipgloss.JoinVertical(lipgloss.Center,
		headingStyle.Render("Connect your Squegg"),
		"",
		buttonStyle.Render(button),
		"",
		hintStyle.Render("c/enter: connect • q: quit"),
	)
}

func (m Model) viewConnecting() string {
	return lipgloss.JoinVertical(lipgloss.Center,
		m.spinner.View()+" Connecting...",
		"",
		hintStyle.Render("q: quit"),
	)
}

func (m Model) viewConnected() string {
	lines := []string{
		headingStyle.Render("Measure your strength"),
		valueStyle.Render(fmt.Sprintf("%d", m.smoother.Rounded())),
		headingStyle.Render("Count your grips"),
		valueStyle.Render(fmt.Sprintf("%d", m.grips)),
	}

	var footer []string

	if m.opts.DeviceName != "" {
		footer = append(footer, m.opts.DeviceName)
	}

	if m.hasSample {
		footer = append(footer, fmt.Sprintf("battery %d%%", m.battery))
	}

	footer = append(footer, "q: quit")
	lines = append(lines, hintStyle.Render(strings.Join(footer, " • ")))

	return lipgloss.JoinVertical(lipgloss.Center, lines...)
}

func (m Model) viewError() string {
	return alertStyle.Render("An error occurred.")
}
