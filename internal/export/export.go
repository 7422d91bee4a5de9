package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/Joseda-hg/lazytodo/internal/model"
	"github.com/Joseda-hg/lazytodo/internal/todo"
	"github.com/jung-kurt/gofpdf"
)

var Formats = []string{"json", "csv", "pdf"}

func ContentType(format string) string {
	switch strings.ToLower(format) {
	case "json":
		return "application/json"
	case "csv":
		return "text/csv"
	case "pdf":
		return "application/pdf"
	}
	return "application/octet-stream"
}

func Render(tasks []model.Task, format string) ([]byte, error) {
	if tasks == nil {
		tasks = []model.Task{}
	}

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return json.MarshalIndent(tasks, "", "  ")
	case "csv":
		var buf bytes.Buffer
		w := csv.NewWriter(&buf)
		_ = w.Write([]string{"id", "text", "priority"})
		for _, task := range tasks {
			_ = w.Write([]string{strconv.FormatInt(task.ID, 10), task.Text, string(task.Priority)})
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case "pdf":
		return renderPDF(tasks)
	default:
		return nil, fmt.Errorf("unknown format %s", format)
	}
}

func renderPDF(tasks []model.Task) ([]byte, error) {
	counts := todo.CountTasks(tasks)

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(40, 10, "Tasks")
	pdf.Ln(12)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("all %d | urgent %d | medium %d | low %d", counts.Total, counts.Urgent, counts.Medium, counts.Low))
	pdf.Ln(10)

	if len(tasks) == 0 {
		pdf.MultiCell(0, 6, "No tasks", "0", "L", false)
	}
	for _, task := range tasks {
		line := fmt.Sprintf("[%s] %s", task.Priority.Label(), tr(task.Text))
		pdf.MultiCell(0, 6, line, "0", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
