package config

import "time"

// Playback engine defaults
const (
	BlockSize         = 4096 // Bytes of decoded PCM processed per loop iteration
	SkipTolerance     = 1200 // Acceptable seek inaccuracy in bytes
	MaxSkipIterations = 100000
	SeekTimeout       = 10 * time.Second
	PausePoll         = time.Second // Upper bound on a paused loop's wait between state checks
	HandoffWait       = time.Second // One wait cycle for a stale decode loop on Play
	HandoffCycles     = 2           // Cycles waited before the stale loop is cancelled
	DeviceBuffer      = 4096        // Output device queue capacity in bytes
)

// Output backends
const (
	BackendOto   = "oto"
	BackendMalgo = "malgo"
	BackendNull  = "null"

	DefaultBackend = BackendOto
)

// Visualisation settings
const (
	FrameRate   = 30 // Render loop polls per second
	FFTSize     = 2048
	NumBands    = 30 // Linear averages, as the original spectrum display
	Sensitivity = 1.0
	SeekStep    = 5 * time.Second
	GainStep    = 0.05
	PanStep     = 0.1
)

// Spectrum frame settings
const (
	Width     = 256
	Height    = 128
	BarGap    = 2
	TextInset = 12

	// Bar colour (RGB)
	BarColorR = 164
	BarColorG = 0
	BarColorB = 0

	// Clock text colour (RGB), brand yellow #F8B31D
	TextColorR = 248
	TextColorG = 179
	TextColorB = 29
)

// Logging defaults
const (
	LogLevel = "warn"
)
