package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/linuxmatters/jiveplay/internal/audio"
	"github.com/linuxmatters/jiveplay/internal/cli"
	"github.com/linuxmatters/jiveplay/internal/config"
	"github.com/linuxmatters/jiveplay/internal/playback"
	"github.com/linuxmatters/jiveplay/internal/renderer"
)

// Player is the part of the playback engine the UI drives
type Player interface {
	Status() playback.State
	Elapsed() float64
	Format() audio.Format
	Stats() playback.Stats
	ChannelBuffer(ch playback.Channel) *audio.ChannelBuffer
	Pause() error
	Resume() error
	Stop() error
	Seek(offset int64) (int64, error)
	SetGain(v float64) error
	Gain() (float64, error)
	SetPan(v float64) error
	Pan() (float64, error)
}

// EventMsg carries a player event into the UI. Forward events with
// program.Send from a player listener.
type EventMsg playback.Event

// tickMsg drives the render loop
type tickMsg time.Time

// quitMsg is sent when it's time to quit after playback ends
type quitMsg struct{}

// Options configures the player UI
type Options struct {
	Source      string
	FrameRate   int
	Sensitivity float64
	NoPreview   bool
}

// Model is the Bubble Tea model of the terminal player. It polls the
// mixed channel at its own frame rate; it never waits for the decoder.
type Model struct {
	player      Player
	source      string
	frameRate   int
	sensitivity float64

	progressBar progress.Model
	fft         *audio.Processor
	spectrum    *renderer.Spectrum
	samples     []float64
	bands       []float64
	levels      audio.FrameAnalysis

	state     playback.State
	elapsed   float64
	lastEvent string
	lastErr   error
	done      bool
	quitDelay time.Duration

	width         int
	noPreview     bool
	cachedPreview string
}

// NewModel creates the UI model for p.
func NewModel(p Player, opts Options) (*Model, error) {
	fft, err := audio.NewProcessor(config.FFTSize)
	if err != nil {
		return nil, err
	}
	if opts.FrameRate <= 0 {
		opts.FrameRate = config.FrameRate
	}
	if opts.Sensitivity <= 0 {
		opts.Sensitivity = config.Sensitivity
	}

	bar := progress.New(
		progress.WithGradient(string(cli.FireCrimson), string(cli.FireYellow)),
		progress.WithWidth(40),
		progress.WithoutPercentage(),
	)

	return &Model{
		player:      p,
		source:      opts.Source,
		frameRate:   opts.FrameRate,
		sensitivity: opts.Sensitivity,
		progressBar: bar,
		fft:         fft,
		spectrum:    renderer.NewSpectrum(config.Width, config.Height, config.NumBands),
		bands:       make([]float64, config.NumBands),
		quitDelay:   time.Second,
		noPreview:   opts.NoPreview,
	}, nil
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.frameRate), func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init starts the render loop
func (m *Model) Init() tea.Cmd {
	return m.tick()
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progressBar.Width = max(min(msg.Width-30, 50), 10)
		return m, nil

	case tickMsg:
		m.refresh()
		return m, m.tick()

	case EventMsg:
		return m, m.handleEvent(playback.Event(msg))

	case quitMsg:
		return m, tea.Quit

	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}

	return m, nil
}

// refresh polls the player and recomputes the spectrum.
func (m *Model) refresh() {
	m.state = m.player.Status()
	m.elapsed = m.player.Elapsed()

	buf := m.player.ChannelBuffer(playback.ChannelMixed)
	if buf == nil {
		return
	}
	if len(m.samples) != buf.Len() {
		m.samples = make([]float64, buf.Len())
	}
	buf.SnapshotInto(m.samples)

	// mixed is left+right, halve it for a per-channel level
	m.levels = audio.AnalyzeFrame(m.samples)
	m.levels.RMSLevel /= 2
	m.levels.PeakLevel /= 2

	if err := m.fft.Bands(m.samples, m.sensitivity, audio.DefaultBaseScale, m.bands); err != nil {
		m.lastErr = err
		return
	}

	if !m.noPreview {
		m.spectrum.Draw(m.bands, seconds(m.elapsed))
		m.cachedPreview = RenderPreview(DownsampleFrame(m.spectrum.Image(), DefaultPreviewConfig()))
	}
}

func (m *Model) handleEvent(e playback.Event) tea.Cmd {
	m.lastEvent = e.Kind.String()
	switch e.Kind {
	case playback.EventEndOfMedia, playback.EventStopped:
		m.state = playback.Stopped
		if !m.done {
			m.done = true
			return tea.Tick(m.quitDelay, func(time.Time) tea.Msg { return quitMsg{} })
		}
	}
	return nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	var err error
	switch msg.String() {
	case "ctrl+c", "q", "esc":
		return tea.Quit
	case " ", "space", "p":
		if m.player.Status() == playback.Paused {
			err = m.player.Resume()
		} else {
			err = m.player.Pause()
		}
	case "s":
		err = m.player.Stop()
	case "left", "h":
		err = m.seek(-config.SeekStep)
	case "right", "l":
		err = m.seek(config.SeekStep)
	case "+", "=", "up":
		err = m.nudgeGain(config.GainStep)
	case "-", "down":
		err = m.nudgeGain(-config.GainStep)
	case "[":
		err = m.nudgePan(-config.PanStep)
	case "]":
		err = m.nudgePan(config.PanStep)
	default:
		return nil
	}
	m.lastErr = err
	m.state = m.player.Status()
	return nil
}

// seek moves relative to the current position in whole seconds of audio.
func (m *Model) seek(delta time.Duration) error {
	target := max(m.player.Elapsed()+delta.Seconds(), 0)
	offset := int64(target * float64(m.player.Format().ByteRate()))
	_, err := m.player.Seek(offset)
	return err
}

func (m *Model) nudgeGain(step float64) error {
	g, err := m.player.Gain()
	if err != nil {
		return err
	}
	return m.player.SetGain(g + step)
}

func (m *Model) nudgePan(step float64) error {
	p, err := m.player.Pan()
	if err != nil {
		return err
	}
	return m.player.SetPan(p + step)
}

// View renders the UI
func (m *Model) View() string {
	var s strings.Builder

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(cli.FireCrimson).
		Render("Jiveplay")
	s.WriteString(title)
	s.WriteString("\n")

	format := m.player.Format()
	if m.source != "" {
		s.WriteString(lipgloss.NewStyle().Faint(true).Render(m.source))
		s.WriteString("\n")
	}
	if format.SampleRate > 0 {
		s.WriteString(lipgloss.NewStyle().Faint(true).Render(format.String()))
		s.WriteString("\n")
	}
	s.WriteString("\n")

	elapsed := seconds(m.elapsed)
	ratio := 0.0
	if format.Duration > 0 {
		ratio = min(float64(elapsed)/float64(format.Duration), 1)
	}
	s.WriteString(fmt.Sprintf("%-8s ", stateLabel(m.state)))
	s.WriteString(m.progressBar.ViewAs(ratio))
	s.WriteString(fmt.Sprintf("  %s / %s\n\n",
		renderer.FormatClock(elapsed),
		renderer.FormatClock(format.Duration)))

	s.WriteString(renderSpectrum(m.bands, max(min(m.width-8, 72), len(m.bands))))
	s.WriteString("\n\n")

	m.renderLevels(&s)

	if !m.noPreview && m.cachedPreview != "" {
		s.WriteString("\n")
		s.WriteString(m.cachedPreview)
	}

	s.WriteString("\n")
	s.WriteString(lipgloss.NewStyle().Faint(true).Italic(true).
		Render(cli.ControlsHint()))
	if m.lastErr != nil {
		s.WriteString("\n")
		s.WriteString(cli.ErrorStyle.Render(m.lastErr.Error()))
	}

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(cli.FireOrange).
		Padding(1, 2).
		Render(s.String())
}

func (m *Model) renderLevels(s *strings.Builder) {
	label := lipgloss.NewStyle().Faint(true)
	value := lipgloss.NewStyle().Bold(true)

	s.WriteString(label.Render("Level: "))
	s.WriteString(value.Render(fmt.Sprintf("%5.1f dB RMS  %5.1f dB peak",
		audio.Decibels(m.levels.RMSLevel), audio.Decibels(m.levels.PeakLevel))))
	s.WriteString("\n")

	if g, err := m.player.Gain(); err == nil {
		s.WriteString(label.Render("Gain:  "))
		s.WriteString(value.Render(fmt.Sprintf("%3.0f%%", g*100)))
		if p, err := m.player.Pan(); err == nil {
			s.WriteString(label.Render("  Pan: "))
			s.WriteString(value.Render(fmt.Sprintf("%+.1f", p)))
		}
		s.WriteString("\n")
	}

	if stats := m.player.Stats(); stats.Underruns > 0 {
		s.WriteString(label.Render("Underruns: "))
		s.WriteString(value.Render(fmt.Sprintf("%d", stats.Underruns)))
		s.WriteString("\n")
	}
}

// Summary returns a one-line description of where playback finished, for
// printing after the alt screen exits.
func (m *Model) Summary() string {
	format := m.player.Format()
	return fmt.Sprintf("%s %s / %s",
		stateLabel(m.state),
		renderer.FormatClock(seconds(m.player.Elapsed())),
		renderer.FormatClock(format.Duration))
}

func stateLabel(s playback.State) string {
	switch s {
	case playback.Playing:
		return "▶ playing"
	case playback.Paused:
		return "⏸ paused"
	case playback.Stopped:
		return "■ stopped"
	case playback.Seeking:
		return "» seeking"
	}
	return s.String()
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
