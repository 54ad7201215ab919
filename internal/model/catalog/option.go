package catalog

import (
	"fmt"
	"strings"
)

// Option is one selectable model in the sidebar.
type Option struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// DefaultModelID is selected for new sessions unless configured otherwise.
const DefaultModelID = "deepseek-r1:1.5b"

// Seed provides the built-in model choices.
func Seed() []Option {
	return []Option{
		{ID: "deepseek-r1:1.5b", Label: "🤖 DeepSeek 1.5B"},
		{ID: "deepseek-r1:3b", Label: "🚀 DeepSeek 3B"},
	}
}

// Parse reads a catalog from "id=label,id=label". A bare id uses itself as
// its label.
func Parse(raw string) ([]Option, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	seen := make(map[string]struct{})
	var options []Option
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		id, label, _ := strings.Cut(entry, "=")
		id = strings.TrimSpace(id)
		label = strings.TrimSpace(label)
		if id == "" {
			return nil, fmt.Errorf("model catalog entry %q has no id", entry)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("model catalog lists %q twice", id)
		}
		seen[id] = struct{}{}

		if label == "" {
			label = id
		}
		options = append(options, Option{ID: id, Label: label})
	}
	return options, nil
}
