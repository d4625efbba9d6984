package model

// Color is a Launchpad Mini Mk3 palette velocity (0-127).
type Color int

// Palette entries used by the renderer. Velocities follow the Mk3
// programmer reference.
const (
	ColorOff      Color = 0
	ColorRedDim   Color = 1
	ColorWhite    Color = 3
	ColorRed      Color = 5
	ColorOrange   Color = 9
	ColorYellow   Color = 13
	ColorGreenDim Color = 19
	ColorGreen    Color = 21
	ColorCyanDim  Color = 33
	ColorCyan     Color = 37
	ColorBlueDim  Color = 41
	ColorBlue     Color = 45
	ColorPurple   Color = 53
	ColorPink     Color = 57
)

// PreviewPalette is the 16-color grid offered during color selection,
// one 4x4 block each for the idle and active colors.
var PreviewPalette = [16]Color{
	ColorRed, ColorOrange, ColorYellow, ColorGreen,
	ColorCyan, ColorBlue, ColorPurple, ColorPink,
	ColorRedDim, 7, ColorGreenDim, ColorCyanDim,
	ColorBlueDim, 49, 55, ColorWhite,
}
