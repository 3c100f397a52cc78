// Package keymap defines key bindings for the application.
package keymap

import "strings"

// Binding describes a single key binding for documentation.
type Binding struct {
	Keys        []string
	Description string
	Context     string // "global", "input", "results"
}

// All contains all key bindings for help generation.
var All = []Binding{
	// Global
	{[]string{"esc", "ctrl+c"}, "Quit", "global"},
	{[]string{"enter"}, "Print selected track and quit", "global"},

	// Query input
	{[]string{"left", "ctrl+b"}, "Cursor left", "input"},
	{[]string{"right", "ctrl+f"}, "Cursor right", "input"},
	{[]string{"home", "ctrl+a"}, "Start of query", "input"},
	{[]string{"end", "ctrl+e"}, "End of query", "input"},
	{[]string{"backspace", "ctrl+h"}, "Delete before cursor", "input"},
	{[]string{"delete", "ctrl+d"}, "Delete under cursor", "input"},
	{[]string{"ctrl+w"}, "Delete word", "input"},
	{[]string{"ctrl+u"}, "Delete to start", "input"},
	{[]string{"ctrl+k"}, "Delete to end", "input"},

	// Result list
	{[]string{"up", "ctrl+p"}, "Previous result", "results"},
	{[]string{"down", "ctrl+n"}, "Next result", "results"},
	{[]string{"pgup"}, "Page up", "results"},
	{[]string{"pgdown"}, "Page down", "results"},
}

// ByContext returns key bindings filtered by context.
func ByContext(context string) []Binding {
	var result []Binding
	for _, kb := range All {
		if kb.Context == context {
			result = append(result, kb)
		}
	}
	return result
}

// Hint renders bindings as a one-line "key: description" summary using the
// first key of each binding.
func Hint(bindings []Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, kb := range bindings {
		if len(kb.Keys) == 0 {
			continue
		}
		parts = append(parts, kb.Keys[0]+": "+kb.Description)
	}
	return strings.Join(parts, ", ")
}
