package errors

import (
	"strings"
)

// ANSI color codes for terminal output.
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

// colorEnabled controls whether ANSI colors are used.
var colorEnabled = true

// DisableColors disables ANSI color output.
func DisableColors() {
	colorEnabled = false
}

// EnableColors enables ANSI color output.
func EnableColors() {
	colorEnabled = true
}

func color(code, text string) string {
	if !colorEnabled {
		return text
	}
	return code + text + colorReset
}

// Render returns the error formatted for terminal display.
func (e *Error) Render() string {
	var b strings.Builder

	b.WriteString(color(colorRed+colorBold, "ERROR "))
	if e.Code != "" {
		b.WriteString(color(colorBold, e.Code+": "))
	}
	b.WriteString(e.Message)
	b.WriteString("\n")

	if e.Detail != "" {
		b.WriteString("  " + e.Detail + "\n")
	}
	if e.Wrapped != nil {
		b.WriteString(color(colorGray, "  cause: "+e.Wrapped.Error()) + "\n")
	}
	if e.Suggestion != "" {
		b.WriteString(color(colorYellow, "  hint: ") + e.Suggestion + "\n")
	}

	return b.String()
}

// Format formats any error for terminal display.
func Format(err error) string {
	var e *Error
	if As(err, &e) {
		return e.Render()
	}
	return color(colorRed+colorBold, "ERROR ") + err.Error() + "\n"
}
