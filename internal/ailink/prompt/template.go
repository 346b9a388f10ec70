package prompt

import "strings"

// Placeholder names in template order.
const (
	VarTitle       = "title"
	VarTodayTodos  = "today_todos"
	VarCurrentTime = "current_time"
	VarUserContext = "user_context"
)

var placeholderOrder = []string{VarTitle, VarTodayTodos, VarCurrentTime, VarUserContext}

// Context holds the already-defaulted values substituted into a template.
type Context struct {
	Title       string
	TodayTodos  string
	CurrentTime string
	UserContext string
}

// Template renders the rewrite prompt.
type Template struct {
	prompt *Prompt
}

// NewTemplate wraps a loaded prompt.
func NewTemplate(p *Prompt) *Template {
	return &Template{prompt: p}
}

// Slug returns the prompt slug.
func (t *Template) Slug() string {
	if t == nil || t.prompt == nil {
		return ""
	}
	return t.prompt.Config.Slug
}

// System returns the instruction block, which may be empty.
func (t *Template) System() string {
	if t == nil || t.prompt == nil {
		return ""
	}
	return strings.TrimSpace(t.prompt.Config.SystemTemplate)
}

// Render substitutes the four values verbatim. Values are inserted in a
// single pass, so placeholder text inside a value is never expanded.
func (t *Template) Render(ctx Context) string {
	if t == nil || t.prompt == nil {
		return ""
	}
	return Render(t.prompt.Config.UserTemplate, ctx)
}

// Render substitutes ctx into tmpl.
func Render(tmpl string, ctx Context) string {
	r := strings.NewReplacer(
		"{{"+VarTitle+"}}", ctx.Title,
		"{{"+VarTodayTodos+"}}", ctx.TodayTodos,
		"{{"+VarCurrentTime+"}}", ctx.CurrentTime,
		"{{"+VarUserContext+"}}", ctx.UserContext,
	)
	return r.Replace(tmpl)
}
