package ui

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Entry records a single UI method call.
type Entry struct {
	Method string
	Value  string
	Rows   [][]string // set for Table and KeyValue
}

type sharedState struct {
	mu      sync.Mutex
	entries []Entry
	buf     bytes.Buffer
}

// RecordingUI implements UI for tests. Every call lands in an entry log that
// can be inspected with [RecordingUI.Entries] and [RecordingUI.HasMessage].
// Child UIs created via Indent share the parent's log.
type RecordingUI struct {
	shared      *sharedState
	indentLevel int
}

func NewRecordingUI() *RecordingUI {
	return &RecordingUI{shared: &sharedState{}}
}

func (r *RecordingUI) record(e Entry) {
	r.shared.mu.Lock()
	defer r.shared.mu.Unlock()
	r.shared.entries = append(r.shared.entries, e)
}

func (r *RecordingUI) Style(t StyledText) string {
	return t.Text
}

func (r *RecordingUI) Info(format string, args ...any) {
	r.record(Entry{Method: "Info", Value: fmt.Sprintf(format, args...)})
}

func (r *RecordingUI) Success(format string, args ...any) {
	r.record(Entry{Method: "Success", Value: fmt.Sprintf(format, args...)})
}

func (r *RecordingUI) Warn(format string, args ...any) {
	r.record(Entry{Method: "Warn", Value: fmt.Sprintf(format, args...)})
}

func (r *RecordingUI) Error(format string, args ...any) {
	r.record(Entry{Method: "Error", Value: fmt.Sprintf(format, args...)})
}

func (r *RecordingUI) Section(title string) {
	r.record(Entry{Method: "Section", Value: title})
}

func (r *RecordingUI) KeyValue(rows [][2]string) {
	e := Entry{Method: "KeyValue"}
	for _, row := range rows {
		e.Rows = append(e.Rows, []string{row[0], row[1]})
	}
	r.record(e)
}

func (r *RecordingUI) Table(headers []string, rows [][]string) {
	r.record(Entry{Method: "Table", Value: strings.Join(headers, ","), Rows: rows})
}

func (r *RecordingUI) Spinner(msg string) func() {
	r.record(Entry{Method: "Spinner", Value: msg})
	return func() {}
}

func (r *RecordingUI) Indent() UI {
	return &RecordingUI{
		shared:      r.shared,
		indentLevel: r.indentLevel + 1,
	}
}

// Writer appends to an internal buffer without indentation.
func (r *RecordingUI) Writer() io.Writer {
	return lockedWriter{r.shared}
}

type lockedWriter struct {
	s *sharedState
}

func (w lockedWriter) Write(p []byte) (int, error) {
	w.s.mu.Lock()
	defer w.s.mu.Unlock()
	return w.s.buf.Write(p)
}

// Entries returns all recorded calls in order.
func (r *RecordingUI) Entries() []Entry {
	r.shared.mu.Lock()
	defer r.shared.mu.Unlock()
	return append([]Entry(nil), r.shared.entries...)
}

func (r *RecordingUI) InfoMessages() []string {
	return r.methodValues("Info")
}

func (r *RecordingUI) WarnMessages() []string {
	return r.methodValues("Warn")
}

// Tables returns the rows of every Table call.
func (r *RecordingUI) Tables() [][][]string {
	var out [][][]string
	for _, e := range r.Entries() {
		if e.Method == "Table" {
			out = append(out, e.Rows)
		}
	}
	return out
}

// HasMessage reports whether any recorded value contains substr, ignoring
// case.
func (r *RecordingUI) HasMessage(substr string) bool {
	lower := strings.ToLower(substr)
	for _, e := range r.Entries() {
		if strings.Contains(strings.ToLower(e.Value), lower) {
			return true
		}
	}
	return false
}

// Output returns everything written to Writer().
func (r *RecordingUI) Output() string {
	r.shared.mu.Lock()
	defer r.shared.mu.Unlock()
	return r.shared.buf.String()
}

func (r *RecordingUI) methodValues(method string) []string {
	var out []string
	for _, e := range r.Entries() {
		if e.Method == method {
			out = append(out, e.Value)
		}
	}
	return out
}
