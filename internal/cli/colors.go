package cli

import "github.com/charmbracelet/lipgloss"

// Fire palette shared by the CLI output and the player UI
var (
	FireYellow  = lipgloss.Color("#FFD700")
	FireOrange  = lipgloss.Color("#FF8C00")
	FireRed     = lipgloss.Color("#FF4500")
	FireCrimson = lipgloss.Color("#DC143C")

	// WarmGray is dark goldenrod, for secondary text
	WarmGray = lipgloss.Color("#B8860B")

	// FrameRed and ClockAmber match the rendered spectrum frame
	FrameRed   = lipgloss.Color("#A40000")
	ClockAmber = lipgloss.Color("#F8B31D")
)

// SpectrumGradient colours terminal spectrum bars from quiet (ember) to
// loud (gold).
var SpectrumGradient = []lipgloss.Color{
	"#8B0000",
	"#B22222",
	FireCrimson,
	FireRed,
	"#FF6347",
	FireOrange,
	"#FFA500",
	FireYellow,
}
