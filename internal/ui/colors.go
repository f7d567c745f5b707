// internal/ui/colors.go
package ui

// ANSI color and style constants for CLI output
const (
	ColorReset = "\033[0m"
	ColorBold  = "\033[1m"
	ColorDim   = "\033[2m"

	ColorCyan   = "\033[36m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorRed    = "\033[31m"
)

// Bold wraps a string in bold styling.
func Bold(s string) string {
	return ColorBold + s + ColorReset
}

// Success renders a string in green.
func Success(s string) string {
	return ColorGreen + s + ColorReset
}

// Warn renders a string in dim yellow.
func Warn(s string) string {
	return ColorDim + ColorYellow + s + ColorReset
}

// Error renders a string in red.
func Error(s string) string {
	return ColorRed + s + ColorReset
}
