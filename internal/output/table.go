package output

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
)

// TableFormatter renders results as an ASCII table.
type TableFormatter struct{}

// FormatRewrite renders a rewrite result as a two-column table.
func (f *TableFormatter) FormatRewrite(result *RewriteResult) (string, error) {
	if result == nil {
		return "", nil
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Field", "Value"})

	for _, row := range rows(result) {
		t.AppendRow(table.Row{row[0], row[1]})
	}

	if footer := footerLine(result); footer != "" {
		t.AppendFooter(table.Row{"", footer})
	}

	return t.Render(), nil
}

// rows lists the populated fields in display order.
func rows(result *RewriteResult) [][2]string {
	out := [][2]string{{"Title", result.Title}}
	if result.TodayTodos != "" {
		out = append(out, [2]string{"Today", result.TodayTodos})
	}
	if result.UserContext != "" {
		out = append(out, [2]string{"Context", result.UserContext})
	}
	return append(out, [2]string{"Rewritten", result.Rewritten})
}

func footerLine(result *RewriteResult) string {
	if result.Provider == "" {
		return ""
	}
	line := result.Provider
	if result.Model != "" {
		line += "/" + result.Model
	}
	return fmt.Sprintf("%s in %dms", line, result.DurationMs)
}
