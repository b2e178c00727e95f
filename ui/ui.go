package ui

import (
	"encoding/json"
	"io"
)

// Severity classifies the visual weight of a piece of inline text. The print
// layer maps each value to a terminal style; data consumers (JSON, tests)
// see plain text.
type Severity uint8

const (
	SeverityInfo     Severity = iota // plain
	SeveritySuccess                  // green, resolved name
	SeverityWarn                     // yellow, unresolved
	SeverityError                    // red
	SeverityCritical                 // bold
)

// StyledText pairs a plain string with a Severity annotation.
//
// It marshals as just the plain Text string so JSON consumers never see ANSI
// codes. For terminal output pass the value to [UI.Style]:
//
//	u.Info("%s %s", u.Style(name), addr)
type StyledText struct {
	Text     string
	Severity Severity
}

func (s StyledText) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Text)
}

// UI is the output surface of the addrscout commands.
//
// Production code uses TerminalUI; tests use RecordingUI, which captures
// every call so assertions don't have to parse ANSI output.
type UI interface {
	// Style returns t coloured according to its Severity. Colour-free
	// implementations return the plain text.
	Style(t StyledText) string

	Info(format string, args ...any)
	Success(format string, args ...any)
	Warn(format string, args ...any)

	// Error writes a failure in red. It does not exit.
	Error(format string, args ...any)

	// Section writes a separator centred around title, e.g.
	// "===== app.uniswap.org =====".
	Section(title string)

	// KeyValue renders an aligned label/value block.
	KeyValue(rows [][2]string)

	// Table renders a bordered table. A nil header skips the header row.
	Table(headers []string, rows [][]string)

	// Spinner starts an animated spinner and returns the function that
	// stops it. Non-terminal outputs print msg once.
	Spinner(msg string) func()

	// Indent returns a child UI one level deeper sharing the same output.
	Indent() UI

	// Writer returns an io.Writer that prefixes every line with the current
	// indentation.
	Writer() io.Writer
}
