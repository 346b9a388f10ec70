package output

import (
	"fmt"
	"strings"
)

// Format represents an output format.
type Format string

const (
	FormatJSON     Format = "json"
	FormatTable    Format = "table"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
)

// RewriteResult is what the rewrite command prints.
type RewriteResult struct {
	Title       string `json:"title"`
	TodayTodos  string `json:"today_todos,omitempty"`
	UserContext string `json:"user_context,omitempty"`
	Rewritten   string `json:"rewritten"`
	Provider    string `json:"provider,omitempty"`
	Model       string `json:"model,omitempty"`
	DurationMs  int64  `json:"duration_ms"`
}

// Formatter renders rewrite results.
type Formatter interface {
	FormatRewrite(result *RewriteResult) (string, error)
}

// ParseFormat validates and normalizes a format string.
func ParseFormat(value string) (Format, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "", string(FormatJSON):
		return FormatJSON, nil
	case string(FormatTable):
		return FormatTable, nil
	case string(FormatMarkdown), "md":
		return FormatMarkdown, nil
	case string(FormatText):
		return FormatText, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", value)
	}
}

// NewFormatter returns a formatter for the requested format.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatTable:
		return &TableFormatter{}
	case FormatMarkdown:
		return &MarkdownFormatter{}
	case FormatText:
		return &TextFormatter{}
	default:
		return &JSONFormatter{Indent: true}
	}
}

// TextFormatter prints only the rewritten task.
type TextFormatter struct{}

// FormatRewrite implements Formatter.
func (f *TextFormatter) FormatRewrite(result *RewriteResult) (string, error) {
	if result == nil {
		return "", nil
	}
	return result.Rewritten, nil
}
