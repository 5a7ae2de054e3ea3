package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

const (
	AppName = "Jiveplay 🔥"
	Tagline = "Play WAV, MP3 and FLAC with a real-time spectrum in your terminal."
)

// Color palette
var (
	primaryColor   = lipgloss.Color("#A40000") // fire red
	accentColor    = lipgloss.Color("#FFA500") // Orange/gold
	successColor   = lipgloss.Color("#00AA00") // Green
	mutedColor     = lipgloss.Color("#888888") // Gray
	highlightColor = lipgloss.Color("#FFFF00") // Yellow
	textColor      = lipgloss.Color("#FFFFFF") // White
)

// Styles
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginBottom(1)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor).
			MarginTop(1).
			MarginBottom(1)

	SuccessStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(successColor)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	HighlightStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(highlightColor)

	KeyStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	ValueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(textColor)

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(1, 2).
			MarginTop(1).
			MarginBottom(1)
)

// PrintBanner prints the application banner
func PrintBanner() {
	fmt.Println(TitleStyle.Render(AppName))
	fmt.Println(SubtitleStyle.Render(Tagline))
	fmt.Println()
}

// PrintVersion prints version information
func PrintVersion(version string) {
	fmt.Println(TitleStyle.Render(AppName))
	fmt.Printf("%s %s\n", KeyStyle.Render("Version:"), ValueStyle.Render(version))
	fmt.Println()
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", ErrorStyle.Render("Error:"), message)
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Printf("%s %s\n", HighlightStyle.Render("Warning:"), message)
}

// PrintInfo prints a key/value line
func PrintInfo(key, value string) {
	fmt.Printf("%s %s\n", KeyStyle.Render(key+":"), ValueStyle.Render(value))
}

// FormatDuration formats a duration nicely
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%.0fms", d.Seconds()*1000)
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

// PlaybackSummary describes a finished playback session
type PlaybackSummary struct {
	Source    string
	Format    string
	Played    time.Duration
	Duration  time.Duration
	Blocks    int64
	Underruns int64
	Ended     bool // reached the end of the media
}

// Render formats the summary as a styled box body
func (s PlaybackSummary) Render() string {
	var b strings.Builder

	if s.Ended {
		b.WriteString(SuccessStyle.Render("✓ Playback complete"))
	} else {
		b.WriteString(HighlightStyle.Render("■ Playback stopped"))
	}
	b.WriteString("\n\n")

	rows := []struct{ key, value string }{
		{"Source:   ", s.Source},
		{"Format:   ", s.Format},
		{"Played:   ", fmt.Sprintf("%s of %s", FormatDuration(s.Played), FormatDuration(s.Duration))},
		{"Blocks:   ", fmt.Sprintf("%d", s.Blocks)},
		{"Underruns:", fmt.Sprintf("%d", s.Underruns)},
	}
	for i, row := range rows {
		b.WriteString(KeyStyle.Render(row.key))
		b.WriteString(" ")
		b.WriteString(ValueStyle.Render(row.value))
		if i < len(rows)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// PrintPlaybackSummary prints a summary in a box
func PrintPlaybackSummary(s PlaybackSummary) {
	fmt.Println(BoxStyle.Render(s.Render()))
}
