package todo

import (
	"reflect"
	"testing"
)

func TestSelectionToggleIsItsOwnInverse(t *testing.T) {
	selection := NewSelection()
	if selection.CanComplete() {
		t.Fatalf("expected empty selection to disable completion")
	}

	if !selection.Toggle(7) {
		t.Fatalf("expected first toggle to select")
	}
	if !selection.Has(7) || !selection.CanComplete() {
		t.Fatalf("expected id 7 to be selected")
	}
	if selection.Toggle(7) {
		t.Fatalf("expected second toggle to unselect")
	}
	if selection.Has(7) || selection.Len() != 0 {
		t.Fatalf("expected selection to be empty again")
	}
}

func TestSelectionIDsSortedAndCleared(t *testing.T) {
	selection := NewSelection()
	for _, id := range []int64{30, 10, 20} {
		selection.Toggle(id)
	}
	if got := selection.IDs(); !reflect.DeepEqual(got, []int64{10, 20, 30}) {
		t.Fatalf("expected sorted ids, got %v", got)
	}

	copied := selection.set()
	selection.Clear()
	if selection.Len() != 0 {
		t.Fatalf("expected cleared selection")
	}
	if len(copied) != 3 {
		t.Fatalf("expected copy to survive clear, got %d", len(copied))
	}
}
