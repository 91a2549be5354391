// Package console renders the human-facing output of mfe: one line per
// message, prefixed with a bracketed label in the component's color.
package console

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Color names a label color.
type Color string

const (
	Cyan    Color = "cyan"
	Yellow  Color = "yellow"
	Green   Color = "green"
	Red     Color = "red"
	Magenta Color = "magenta"
	Blue    Color = "blue"
	White   Color = "white"
)

// ErrorColor is used for every error line, whatever its source.
const ErrorColor = Red

// ANSI color indexes, so output matches the terminal's own palette.
var palette = map[Color]lipgloss.Color{
	Red:     lipgloss.Color("1"),
	Green:   lipgloss.Color("2"),
	Yellow:  lipgloss.Color("3"),
	Blue:    lipgloss.Color("4"),
	Magenta: lipgloss.Color("5"),
	Cyan:    lipgloss.Color("6"),
	White:   lipgloss.Color("7"),
}

// bannerWidth matches the boxed headlines of the old npm scripts.
const bannerWidth = 44

// Logger writes labeled lines. It is safe for concurrent use; each line is
// written with a single Write call.
type Logger struct {
	mu       sync.Mutex
	w        io.Writer
	renderer *lipgloss.Renderer
}

// New creates a Logger writing to w. Colors are dropped when w is not a
// terminal.
func New(w io.Writer) *Logger {
	return &Logger{
		w:        w,
		renderer: lipgloss.NewRenderer(w),
	}
}

// Stdout returns a Logger writing to os.Stdout.
func Stdout() *Logger {
	return New(os.Stdout)
}

func (l *Logger) style(c Color) lipgloss.Style {
	s := l.renderer.NewStyle()
	if fg, ok := palette[c]; ok {
		s = s.Foreground(fg)
	}
	return s
}

// Log writes "[label] message" with the label in color.
func (l *Logger) Log(label string, color Color, message string) {
	line := l.style(color).Render("["+label+"]") + " " + message + "\n"
	l.write(line)
}

// Logf is Log with fmt.Sprintf formatting.
func (l *Logger) Logf(label string, color Color, format string, args ...any) {
	l.Log(label, color, fmt.Sprintf(format, args...))
}

// Error writes a labeled line in the error color.
func (l *Logger) Error(label, message string) {
	l.Log(label, ErrorColor, message)
}

// Errorf is Error with fmt.Sprintf formatting.
func (l *Logger) Errorf(label, format string, args ...any) {
	l.Error(label, fmt.Sprintf(format, args...))
}

// Info writes an [INFO] line.
func (l *Logger) Info(color Color, message string) {
	l.Log("INFO", color, message)
}

// Infof is Info with fmt.Sprintf formatting.
func (l *Logger) Infof(color Color, format string, args ...any) {
	l.Info(color, fmt.Sprintf(format, args...))
}

// Blank writes an empty line.
func (l *Logger) Blank() {
	l.write("\n")
}

// Banner writes title centered in a double-line box.
func (l *Logger) Banner(title string, color Color) {
	box := l.style(color).
		Border(lipgloss.DoubleBorder()).
		BorderForeground(palette[color]).
		Width(bannerWidth).
		Align(lipgloss.Center).
		Render(strings.ToUpper(title))
	l.write("\n" + box + "\n\n")
}

func (l *Logger) write(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = io.WriteString(l.w, s)
}
