package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderSubstitutesInOrder(t *testing.T) {
	out := Render("{{title}}|{{today_todos}}|{{current_time}}|{{user_context}}", Context{
		Title:       "clean house",
		TodayTodos:  "none",
		CurrentTime: "09:30",
		UserContext: "none",
	})
	assert.Equal(t, "clean house|none|09:30|none", out)
}

func TestRenderDoesNotExpandPlaceholdersInValues(t *testing.T) {
	out := Render("{{title}}|{{today_todos}}", Context{
		Title:      "literal {{today_todos}}",
		TodayTodos: "x",
	})
	assert.Equal(t, "literal {{today_todos}}|x", out)
}

func TestDefaultTemplateEmbedsAllValues(t *testing.T) {
	tmpl, err := DefaultTemplate()
	require.NoError(t, err)
	assert.Equal(t, DefaultSlug, tmpl.Slug())

	out := tmpl.Render(Context{
		Title:       "study",
		TodayTodos:  "gym, groceries",
		CurrentTime: "21:05",
		UserContext: "exam on friday",
	})

	positions := []int{
		strings.Index(out, "study"),
		strings.Index(out, "gym, groceries"),
		strings.Index(out, "21:05"),
		strings.Index(out, "exam on friday"),
	}
	for i, pos := range positions {
		require.GreaterOrEqual(t, pos, 0, "value %d missing from rendered prompt", i)
		if i > 0 {
			assert.Greater(t, pos, positions[i-1])
		}
	}
	assert.NotContains(t, out, "{{")
}

func TestNilTemplate(t *testing.T) {
	var tmpl *Template
	assert.Empty(t, tmpl.Render(Context{Title: "x"}))
	assert.Empty(t, tmpl.Slug())
	assert.Empty(t, tmpl.System())
}
