// Package rewrite turns a vague task title into a concrete one: it gates on
// configuration, validates input, admits the caller through the rate
// limiter, renders the prompt, and makes one generation call.
package rewrite

// Request is the body of POST /rewrite.
type Request struct {
	Title       string  `json:"title"`
	TodayTodos  *string `json:"today_todos,omitempty"`
	UserContext *string `json:"user_context,omitempty"`
}

// Response is returned on success.
type Response struct {
	Rewritten string `json:"rewritten"`
}

// DefaultPlaceholder stands in for absent optional fields.
const DefaultPlaceholder = "none"

// TimeLayout renders the server wall clock as HH:MM.
const TimeLayout = "15:04"

func optional(v *string, placeholder string) string {
	if v == nil || *v == "" {
		return placeholder
	}
	return *v
}
