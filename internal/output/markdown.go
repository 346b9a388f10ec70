package output

import (
	"fmt"
	"strings"
)

// MarkdownFormatter renders results as a markdown table.
type MarkdownFormatter struct{}

// FormatRewrite renders a rewrite result as Markdown.
func (f *MarkdownFormatter) FormatRewrite(result *RewriteResult) (string, error) {
	if result == nil {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## %s\n\n", escapeMarkdownCell(result.Title)))
	sb.WriteString("| Field | Value |\n")
	sb.WriteString("|-------|-------|\n")

	for _, row := range rows(result) {
		sb.WriteString(fmt.Sprintf("| %s | %s |\n",
			escapeMarkdownCell(row[0]),
			escapeMarkdownCell(row[1]),
		))
	}

	if footer := footerLine(result); footer != "" {
		sb.WriteString(fmt.Sprintf("\n_%s_\n", footer))
	}
	return sb.String(), nil
}

func escapeMarkdownCell(value string) string {
	value = strings.ReplaceAll(value, "|", "\\|")
	return strings.ReplaceAll(value, "\n", "<br>")
}
