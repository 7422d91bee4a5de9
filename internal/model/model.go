package model

import (
	"fmt"
	"strings"
)

type Priority string

const (
	PriorityUrgent Priority = "urgente"
	PriorityMedium Priority = "moyenne"
	PriorityLow    Priority = "basse"
)

// Priorities lists every priority in display order.
var Priorities = []Priority{PriorityUrgent, PriorityMedium, PriorityLow}

func (p Priority) Valid() bool {
	switch p {
	case PriorityUrgent, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

func (p Priority) Label() string {
	switch p {
	case PriorityUrgent:
		return "urgent"
	case PriorityMedium:
		return "medium"
	case PriorityLow:
		return "low"
	}
	return string(p)
}

// Next cycles urgent -> medium -> low -> urgent.
func (p Priority) Next() Priority {
	for i, candidate := range Priorities {
		if candidate == p {
			return Priorities[(i+1)%len(Priorities)]
		}
	}
	return PriorityMedium
}

func ParsePriority(value string) (Priority, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "urgente", "urgent":
		return PriorityUrgent, nil
	case "moyenne", "medium":
		return PriorityMedium, nil
	case "basse", "low":
		return PriorityLow, nil
	}
	return "", fmt.Errorf("invalid priority %q", value)
}

type Task struct {
	ID       int64    `json:"id"`
	Text     string   `json:"text"`
	Priority Priority `json:"priority"`
}

// Filter is either FilterAll or the wire value of a priority.
type Filter string

const FilterAll Filter = "all"

func FilterFor(p Priority) Filter {
	return Filter(p)
}

func (f Filter) Match(task Task) bool {
	return f == FilterAll || f == "" || Filter(task.Priority) == f
}

func (f Filter) Label() string {
	if f == FilterAll || f == "" {
		return "all"
	}
	return Priority(f).Label()
}

// Filters lists every filter in display order.
func Filters() []Filter {
	filters := []Filter{FilterAll}
	for _, p := range Priorities {
		filters = append(filters, FilterFor(p))
	}
	return filters
}

func ParseFilter(value string) (Filter, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "all", "tous":
		return FilterAll, nil
	}
	p, err := ParsePriority(value)
	if err != nil {
		return "", fmt.Errorf("invalid filter %q", value)
	}
	return FilterFor(p), nil
}

type Counts struct {
	Urgent int `json:"urgent"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
	Total  int `json:"total"`
}

func (c Counts) For(f Filter) int {
	switch f {
	case FilterFor(PriorityUrgent):
		return c.Urgent
	case FilterFor(PriorityMedium):
		return c.Medium
	case FilterFor(PriorityLow):
		return c.Low
	}
	return c.Total
}
