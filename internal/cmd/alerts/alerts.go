// Package alerts writes status notifications for CLI commands: a marked
// line for terminals, or a structured record for json and yaml output.
package alerts

import (
	"fmt"
	"io"

	"github.com/agentstation/integrations/internal/cmd/output"
)

// Level is the severity of an alert.
type Level int

// Alert levels.
const (
	LevelError Level = iota
	LevelWarning
	LevelInfo
	LevelSuccess
)

// String returns the level name.
func (l Level) String() string {
	switch l {
	case LevelError:
		return "error"
	case LevelWarning:
		return "warning"
	case LevelInfo:
		return "info"
	case LevelSuccess:
		return "success"
	default:
		return fmt.Sprintf("unknown(%d)", int(l))
	}
}

// Icon returns the marker printed before a plain alert.
func (l Level) Icon() string {
	switch l {
	case LevelError:
		return "✗"
	case LevelWarning:
		return "!"
	case LevelSuccess:
		return "✓"
	default:
		return "-"
	}
}

// Alert is one status notification.
type Alert struct {
	Level   Level
	Message string
	Details []string
	Err     error
}

// New creates an alert.
func New(level Level, message string) *Alert {
	return &Alert{Level: level, Message: message}
}

// NewSuccess creates a success alert.
func NewSuccess(message string) *Alert {
	return New(LevelSuccess, message)
}

// NewError creates an error alert.
func NewError(message string) *Alert {
	return New(LevelError, message)
}

// NewWarning creates a warning alert.
func NewWarning(message string) *Alert {
	return New(LevelWarning, message)
}

// WithError attaches the underlying error.
func (a *Alert) WithError(err error) *Alert {
	a.Err = err
	return a
}

// WithDetails appends indented detail lines.
func (a *Alert) WithDetails(details ...string) *Alert {
	a.Details = append(a.Details, details...)
	return a
}

// String renders the alert headline.
func (a *Alert) String() string {
	msg := a.Level.Icon() + " " + a.Message
	if a.Err != nil {
		msg += ": " + a.Err.Error()
	}
	return msg
}

type record struct {
	Level   string   `json:"level" yaml:"level"`
	Message string   `json:"message" yaml:"message"`
	Details []string `json:"details,omitempty" yaml:"details,omitempty"`
	Error   string   `json:"error,omitempty" yaml:"error,omitempty"`
}

// Write writes alert to w in format.
func Write(w io.Writer, format output.Format, alert *Alert) error {
	switch format {
	case output.FormatJSON, output.FormatYAML:
		rec := record{Level: alert.Level.String(), Message: alert.Message, Details: alert.Details}
		if alert.Err != nil {
			rec.Error = alert.Err.Error()
		}
		return output.NewFormatter(format).Format(w, rec)
	}

	if _, err := fmt.Fprintln(w, alert.String()); err != nil {
		return err
	}
	for _, d := range alert.Details {
		if _, err := fmt.Fprintf(w, "   %s\n", d); err != nil {
			return err
		}
	}
	return nil
}
