package main

import "testing"

func TestExportFormat(t *testing.T) {
	tests := []struct {
		value string
		want  string
		ok    bool
	}{
		{"json", "json", true},
		{" CSV ", "csv", true},
		{"pdf", "pdf", true},
		{"xml", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, err := exportFormat(tt.value)
		if tt.ok && err != nil {
			t.Fatalf("exportFormat(%q): %v", tt.value, err)
		}
		if !tt.ok && err == nil {
			t.Fatalf("exportFormat(%q): expected error", tt.value)
		}
		if got != tt.want {
			t.Fatalf("exportFormat(%q) = %q, want %q", tt.value, got, tt.want)
		}
	}
}
