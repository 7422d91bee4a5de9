package tui

import (
	"fmt"
	"strings"

	"github.com/Joseda-hg/lazytodo/internal/model"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiYellow = "\x1b[33m"
	ansiGreen  = "\x1b[32m"
)

func priorityBadge(p model.Priority) string {
	color := ansiGreen
	switch p {
	case model.PriorityUrgent:
		color = ansiRed
	case model.PriorityMedium:
		color = ansiYellow
	}
	return fmt.Sprintf("%s%s%s", color, p.Label(), ansiReset)
}

func formatTaskRow(task model.Task, selected bool) string {
	check := "[ ]"
	if selected {
		check = "[x]"
	}
	return fmt.Sprintf("%s %s  %s", check, task.Text, priorityBadge(task.Priority))
}

// formatFilterBar renders "All(n) | Urgent(n) | ..." with the active filter
// bracketed.
func formatFilterBar(active model.Filter, counts model.Counts) string {
	parts := make([]string, 0, 4)
	for _, f := range model.Filters() {
		label := fmt.Sprintf("%s(%d)", capitalize(f.Label()), counts.For(f))
		if f == active {
			label = "[" + label + "]"
		}
		parts = append(parts, label)
	}
	return strings.Join(parts, " | ")
}

func capitalize(value string) string {
	if value == "" {
		return value
	}
	return strings.ToUpper(value[:1]) + value[1:]
}

func nextFilter(current model.Filter) model.Filter {
	filters := model.Filters()
	for i, f := range filters {
		if f == current {
			return filters[(i+1)%len(filters)]
		}
	}
	return model.FilterAll
}
