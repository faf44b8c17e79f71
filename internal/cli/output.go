package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/fdecunta/screenie/internal/domain"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	noticeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
)

// Success renders a completed-action line.
func Success(format string, args ...any) string {
	return successStyle.Render(fmt.Sprintf(format, args...))
}

// Notice renders a non-error note, such as a short batch.
func Notice(format string, args ...any) string {
	return noticeStyle.Render(fmt.Sprintf(format, args...))
}

// Label renders a dimmed field label.
func Label(s string) string {
	return labelStyle.Render(s)
}

// Header renders a section header.
func Header(s string) string {
	return headerStyle.Render(s)
}

// ErrorLine renders err for stderr, prefixed with its error code.
func ErrorLine(err error) string {
	return errorStyle.Render("error") + " " + labelStyle.Render("("+domain.CodeOf(err)+")") + " " + err.Error()
}

// PrintJSON writes v as indented JSON.
func PrintJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// NewLogger builds the command line logger. Logs go to stderr so command
// output stays clean on stdout.
func NewLogger(debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		cfg.Development = true
	}
	return cfg.Build()
}
