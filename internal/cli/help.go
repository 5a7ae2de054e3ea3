package cli

import (
	"fmt"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"
)

var (
	helpTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(FireYellow).
			MarginBottom(1)

	helpDescStyle = lipgloss.NewStyle().
			Foreground(FireOrange).
			Italic(true).
			MarginBottom(1)

	helpSectionStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(FireOrange).
				MarginTop(1)

	helpFlagStyle = lipgloss.NewStyle().
			Foreground(FireYellow).
			Bold(true)

	helpArgStyle = lipgloss.NewStyle().
			Foreground(FireRed).
			Bold(true)

	helpKeyStyle = lipgloss.NewStyle().
			Foreground(ClockAmber).
			Bold(true)

	helpDefaultStyle = lipgloss.NewStyle().
				Foreground(WarmGray).
				Italic(true)
)

// KeyBinding is one player UI control.
type KeyBinding struct {
	Keys   string // as shown to the user
	Short  string // compact form for the UI footer
	Action string
}

// KeyBindings lists the player UI controls in display order.
var KeyBindings = []KeyBinding{
	{Keys: "space, p", Short: "space", Action: "pause or resume"},
	{Keys: "s", Short: "s", Action: "stop"},
	{Keys: "←, →", Short: "←/→", Action: "seek back or forward 5s"},
	{Keys: "+, -, ↑, ↓", Short: "+/-", Action: "gain up or down"},
	{Keys: "[, ]", Short: "[/]", Action: "pan left or right"},
	{Keys: "q, esc, ctrl+c", Short: "q", Action: "quit"},
}

// ControlsHint returns the one-line footer shown under the player UI.
func ControlsHint() string {
	parts := make([]string, len(KeyBindings))
	for i, b := range KeyBindings {
		// first word of the action keeps the footer short
		action, _, _ := strings.Cut(b.Action, " ")
		parts[i] = b.Short + " " + action
	}
	return strings.Join(parts, " · ")
}

// StyledHelpPrinter renders kong help in the fire theme, with the player
// controls listed after the flags.
func StyledHelpPrinter(options kong.HelpOptions) kong.HelpPrinter {
	return func(options kong.HelpOptions, ctx *kong.Context) error {
		var sb strings.Builder

		sb.WriteString(helpTitleStyle.Render(AppName))
		sb.WriteString("\n")
		sb.WriteString(helpDescStyle.Render(Tagline))
		sb.WriteString("\n")

		sb.WriteString(helpSectionStyle.Render("Usage:"))
		fmt.Fprintf(&sb, "\n  %s <input> [flags]\n", ctx.Model.Name)

		if args := positionals(ctx); len(args) > 0 {
			writeSection(&sb, "Arguments:", args, helpArgStyle)
		}
		writeSection(&sb, "Flags:", flagRows(ctx), helpFlagStyle)

		keys := make([]helpRow, len(KeyBindings))
		for i, b := range KeyBindings {
			keys[i] = helpRow{name: b.Keys, help: b.Action}
		}
		writeSection(&sb, "Controls:", keys, helpKeyStyle)

		sb.WriteString("\n")
		sb.WriteString(helpDefaultStyle.Render("Settings are also read from jiveplay.yaml and JIVEPLAY_* environment variables."))
		sb.WriteString("\n\n")
		fmt.Fprint(ctx.Stdout, sb.String())
		return nil
	}
}

type helpRow struct {
	name       string
	help       string
	defaultVal string
}

// writeSection renders rows with their help text aligned in one column.
func writeSection(sb *strings.Builder, title string, rows []helpRow, nameStyle lipgloss.Style) {
	width := 0
	for _, r := range rows {
		width = max(width, lipgloss.Width(r.name))
	}

	sb.WriteString("\n")
	sb.WriteString(helpSectionStyle.Render(title))
	sb.WriteString("\n")
	for _, r := range rows {
		sb.WriteString("  ")
		sb.WriteString(nameStyle.Render(r.name))
		if r.help != "" {
			sb.WriteString(strings.Repeat(" ", width-lipgloss.Width(r.name)+2))
			sb.WriteString(r.help)
		}
		if r.defaultVal != "" {
			sb.WriteString(" ")
			sb.WriteString(helpDefaultStyle.Render("(default: " + r.defaultVal + ")"))
		}
		sb.WriteString("\n")
	}
}

func positionals(ctx *kong.Context) []helpRow {
	var rows []helpRow
	for _, arg := range ctx.Model.Node.Positional {
		rows = append(rows, helpRow{name: arg.Summary(), help: arg.Help})
	}
	return rows
}

func flagRows(ctx *kong.Context) []helpRow {
	rows := []helpRow{{name: "-h, --help", help: "Show context-sensitive help."}}

	for _, f := range ctx.Model.Node.Flags {
		if f.Name == "help" || f.Hidden {
			continue
		}

		name := "--" + f.Name
		if f.Short != 0 {
			name = fmt.Sprintf("-%c, --%s", f.Short, f.Name)
		}
		if !f.IsBool() && f.PlaceHolder != "" {
			name += "=" + strings.ToUpper(f.PlaceHolder)
		}

		// Sentinel defaults such as -1 are explained in the help text
		defaultVal := ""
		if f.HasDefault && !f.IsBool() && f.Default != "" && !strings.HasPrefix(f.Default, "-") {
			defaultVal = f.Default
		}

		rows = append(rows, helpRow{name: name, help: f.Help, defaultVal: defaultVal})
	}
	return rows
}
