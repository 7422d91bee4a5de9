package export

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/Joseda-hg/lazytodo/internal/model"
)

func sampleTasks() []model.Task {
	return []model.Task{
		{ID: 2, Text: "pay rent, today", Priority: model.PriorityUrgent},
		{ID: 1, Text: "café order", Priority: model.PriorityLow},
	}
}

func TestRenderJSONUsesWireFormat(t *testing.T) {
	data, err := Render(sampleTasks(), "json")
	if err != nil {
		t.Fatalf("render json: %v", err)
	}
	var decoded []model.Task
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(decoded, sampleTasks()) {
		t.Fatalf("expected %#v, got %#v", sampleTasks(), decoded)
	}
	if !strings.Contains(string(data), `"priority": "urgente"`) {
		t.Fatalf("expected wire priority in %s", data)
	}
}

func TestRenderCSV(t *testing.T) {
	data, err := Render(sampleTasks(), "CSV")
	if err != nil {
		t.Fatalf("render csv: %v", err)
	}
	want := "id,text,priority\n2,\"pay rent, today\",urgente\n1,café order,basse\n"
	if string(data) != want {
		t.Fatalf("expected %q, got %q", want, data)
	}
}

func TestRenderPDF(t *testing.T) {
	for _, tasks := range [][]model.Task{sampleTasks(), nil} {
		data, err := Render(tasks, "pdf")
		if err != nil {
			t.Fatalf("render pdf: %v", err)
		}
		if !bytes.HasPrefix(data, []byte("%PDF-")) {
			t.Fatalf("expected pdf header, got %q", data[:min(len(data), 8)])
		}
	}
}

func TestRenderUnknownFormat(t *testing.T) {
	if _, err := Render(sampleTasks(), "xml"); err == nil {
		t.Fatalf("expected error for unknown format")
	}
	if ContentType("xml") != "application/octet-stream" {
		t.Fatalf("expected fallback content type")
	}
}
