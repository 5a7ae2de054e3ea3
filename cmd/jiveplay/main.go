package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/linuxmatters/jiveplay/internal/audio"
	"github.com/linuxmatters/jiveplay/internal/cli"
	"github.com/linuxmatters/jiveplay/internal/config"
	"github.com/linuxmatters/jiveplay/internal/logging"
	"github.com/linuxmatters/jiveplay/internal/playback"
	"github.com/linuxmatters/jiveplay/internal/renderer"
	"github.com/linuxmatters/jiveplay/internal/ui"
)

// version is set via ldflags at build time
// Local dev builds: "dev"
// Release builds: git tag (e.g. "v0.1.0")
var version = "dev"

var CLI struct {
	Input       string        `arg:"" name:"input" help:"Audio file to play (wav, mp3, flac), or - for stdin" optional:""`
	Codec       string        `help:"Codec of stdin input" default:"wav" placeholder:"codec"`
	Backend     string        `help:"Output backend: oto, malgo or null" placeholder:"name"`
	BlockSize   int           `name:"block-size" help:"Decoded PCM bytes per loop iteration" placeholder:"bytes"`
	ThreadSleep time.Duration `name:"thread-sleep" help:"Delay between decode iterations" placeholder:"duration"`
	Gain        float64       `help:"Initial gain from 0 to 1, negative keeps the device level" default:"-1"`
	Start       time.Duration `help:"Start playback at this position" placeholder:"duration"`
	NoTUI       bool          `name:"no-tui" help:"Play without the terminal UI"`
	NoPreview   bool          `name:"no-preview" help:"Hide the spectrum frame preview in the terminal UI"`
	Snapshot    string        `help:"Render the spectrum at --at to a PNG file and exit" placeholder:"file"`
	At          time.Duration `help:"Position rendered by --snapshot" default:"1s"`
	Config      string        `help:"Config file (yaml, toml or json)" placeholder:"file"`
	LogLevel    string        `name:"log-level" help:"Log level: none, error, warn, info or debug" placeholder:"level"`
	LogFile     string        `name:"log-file" help:"Write JSON logs to this file" placeholder:"file"`
	Version     bool          `help:"Show version information"`
}

func main() {
	kong.Parse(&CLI,
		kong.Name("jiveplay"),
		kong.Description(cli.Tagline),
		kong.Vars{"version": version},
		kong.UsageOnError(),
		kong.Help(cli.StyledHelpPrinter(kong.HelpOptions{Compact: true})),
	)

	if CLI.Version {
		cli.PrintVersion(version)
		os.Exit(0)
	}

	if CLI.Input == "" {
		cli.PrintError("<input> is required")
		os.Exit(1)
	}

	settings, err := loadSettings()
	if err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}

	logLevel := settings.LogLevel
	if ownsTerminal(CLI.NoTUI, CLI.Snapshot, settings.LogFile) {
		// stderr records would draw over the alt screen
		logLevel = "none"
	}
	logFile, err := logging.ConfigureDefaultLogger(logLevel, settings.LogFile, slog.HandlerOptions{})
	if err != nil {
		cli.PrintError(fmt.Sprintf("configuring logging: %v", err))
		os.Exit(1)
	}
	if logFile != nil {
		defer logFile.Close()
	}

	src, err := newSource(CLI.Input, CLI.Codec)
	if err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}

	if CLI.Snapshot != "" {
		if err := renderSnapshot(src, CLI.At, CLI.Snapshot); err != nil {
			cli.PrintError(fmt.Sprintf("rendering snapshot: %v", err))
			os.Exit(1)
		}
		cli.PrintInfo("Snapshot", CLI.Snapshot)
		return
	}

	if err := play(src, settings); err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}
}

// loadSettings merges the config file, environment and flags, flags last.
func loadSettings() (config.Settings, error) {
	settings, err := config.Load(CLI.Config)
	if err != nil {
		return settings, err
	}
	if CLI.Backend != "" {
		settings.Backend = CLI.Backend
	}
	if CLI.BlockSize > 0 {
		settings.BlockSize = CLI.BlockSize
		if settings.DeviceBuffer < settings.BlockSize {
			settings.DeviceBuffer = settings.BlockSize
		}
	}
	if CLI.ThreadSleep > 0 {
		settings.ThreadSleep = CLI.ThreadSleep
	}
	if CLI.LogLevel != "" {
		settings.LogLevel = CLI.LogLevel
	}
	if CLI.LogFile != "" {
		settings.LogFile = CLI.LogFile
	}
	return settings, settings.Validate()
}

// ownsTerminal reports whether the terminal UI will run with logs headed
// for stderr.
func ownsTerminal(noTUI bool, snapshot, logFile string) bool {
	return !noTUI && snapshot == "" && logFile == ""
}

func newSource(input, codec string) (audio.Source, error) {
	if input == "-" {
		return audio.NewReaderSource(os.Stdin, codec, "stdin"), nil
	}
	if _, err := os.Stat(input); err != nil {
		return nil, fmt.Errorf("input file does not exist: %s", input)
	}
	return audio.NewFileSource(input), nil
}

func play(src audio.Source, settings config.Settings) error {
	player := playback.New(playback.ConfigFromSettings(settings))
	defer player.Close()

	var ended atomic.Bool
	player.Subscribe(func(e playback.Event) {
		if e.Kind == playback.EventEndOfMedia {
			ended.Store(true)
		}
	})

	if err := player.Open(src); err != nil {
		return fmt.Errorf("opening %s: %w", src.Name(), err)
	}
	if CLI.Gain >= 0 {
		if err := player.SetGain(CLI.Gain); errors.Is(err, playback.ErrControlUnsupported) {
			cli.PrintWarning(fmt.Sprintf("%s output has no gain control", settings.Backend))
		}
	}

	var err error
	if CLI.NoTUI {
		err = playHeadless(player)
	} else {
		err = playTUI(player, src.Name(), settings)
	}
	if err != nil {
		return err
	}

	stats := player.Stats()
	format := player.Format()
	cli.PrintPlaybackSummary(cli.PlaybackSummary{
		Source:    src.Name(),
		Format:    format.String(),
		Played:    time.Duration(player.Elapsed() * float64(time.Second)),
		Duration:  format.Duration,
		Blocks:    stats.Blocks,
		Underruns: stats.Underruns,
		Ended:     ended.Load(),
	})
	return nil
}

// start begins playback, seeking to --start if given.
func start(player *playback.Player) error {
	if err := player.Play(); err != nil {
		return fmt.Errorf("starting playback: %w", err)
	}
	if CLI.Start > 0 {
		offset := int64(CLI.Start.Seconds() * float64(player.Format().ByteRate()))
		if _, err := player.Seek(offset); err != nil {
			return fmt.Errorf("seeking to %s: %w", CLI.Start, err)
		}
	}
	return nil
}

func playHeadless(player *playback.Player) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	done := make(chan struct{})
	var once sync.Once
	player.Subscribe(func(e playback.Event) {
		if e.Kind == playback.EventStopped {
			once.Do(func() { close(done) })
		}
	})

	cli.PrintBanner()
	cli.PrintInfo("Playing", fmt.Sprintf("%s (%s)", player.Format(), renderer.FormatClock(player.Format().Duration)))
	if err := start(player); err != nil {
		return err
	}

	select {
	case <-done:
	case <-ctx.Done():
		return player.Stop()
	}
	return nil
}

func playTUI(player *playback.Player, name string, settings config.Settings) error {
	model, err := ui.NewModel(player, ui.Options{
		Source:    name,
		FrameRate: settings.FrameRate,
		NoPreview: CLI.NoPreview,
	})
	if err != nil {
		return err
	}
	p := tea.NewProgram(model, tea.WithAltScreen())

	// Listeners run on the decode loop, so hand events over without
	// waiting for the UI
	events := make(chan playback.Event, 64)
	quit := make(chan struct{})
	defer close(quit)
	sub := player.Subscribe(func(e playback.Event) {
		select {
		case events <- e:
		default:
			slog.Warn("UI event queue full, dropping event", "event", e.Kind.String())
		}
	})
	defer player.Unsubscribe(sub)
	go func() {
		for {
			select {
			case e := <-events:
				p.Send(ui.EventMsg(e))
			case <-quit:
				return
			}
		}
	}()

	if err := start(player); err != nil {
		return err
	}
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running UI: %w", err)
	}
	return player.Stop()
}
