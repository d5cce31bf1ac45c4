package sstv

/*
 * Mode table
 * Ported from connorslade/sstv-log (src/sstv/modes.rs).
 *
 * Only Martin 1 drives the pixel-rendering pipeline; the rest are
 * recognized for VIS reporting and as a dispatch point for future modes.
 */

// Mode identifies an SSTV transmission mode by its VIS code.
type Mode struct {
	vis  uint8
	name string
}

var (
	ModeMartin1   = Mode{44, "Martin 1"}
	ModeMartin2   = Mode{40, "Martin 2"}
	ModeScottie1  = Mode{60, "Scottie 1"}
	ModeScottie2  = Mode{56, "Scottie 2"}
	ModeScottieDX = Mode{76, "Scottie DX"}
	ModeRobot36   = Mode{8, "Robot 36"}
	ModeRobot72   = Mode{12, "Robot 72"}
)

var visToMode = map[uint8]Mode{
	ModeMartin1.vis:   ModeMartin1,
	ModeMartin2.vis:   ModeMartin2,
	ModeScottie1.vis:  ModeScottie1,
	ModeScottie2.vis:  ModeScottie2,
	ModeScottieDX.vis: ModeScottieDX,
	ModeRobot36.vis:   ModeRobot36,
	ModeRobot72.vis:   ModeRobot72,
}

// ModeFromVIS resolves a 7-bit VIS code to a mode. An unrecognized code
// resolves to a Mode with name "Unknown" rather than an error: this is
// a normal decode outcome, not a fault.
func ModeFromVIS(vis uint8) Mode {
	if m, ok := visToMode[vis]; ok {
		return m
	}
	return Mode{vis: vis, name: "Unknown"}
}

// ToVIS returns the mode's VIS code. An unknown mode returns 0 rather
// than its original code — from_vis(to_vis(m)) == m is only guaranteed
// for the seven named modes, matching the upstream decoder this was
// ported from.
func (m Mode) ToVIS() uint8 {
	if _, ok := visToMode[m.vis]; ok {
		return m.vis
	}
	return 0
}

// Name returns the mode's human-readable name.
func (m Mode) Name() string {
	return m.name
}

// IsUnknown reports whether this mode is a VIS code with no named match.
func (m Mode) IsUnknown() bool {
	_, ok := visToMode[m.vis]
	return !ok
}

// ModeConfig describes the decode parameters for a mode.
type ModeConfig struct {
	Width, Height int
	RowDuration   float64 // seconds per displayed row (EXPECTED_ROW)
}

// Config returns the decode parameters for m. Only Martin 1 has a
// fully specified pixel-rendering pipeline today — only Martin-family
// G-B-R channel ordering is implemented; every other named mode falls
// back to Martin 1's timing so the decoder can still produce *an* image
// rather than stall, pending a mode-specific renderer.
func (m Mode) Config() ModeConfig {
	switch m {
	case ModeMartin1:
		return ModeConfig{Width: 320, Height: 256, RowDuration: 0.48}
	default:
		return ModeConfig{Width: 320, Height: 256, RowDuration: 0.48}
	}
}
