package persist

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/Joseda-hg/lazytodo/internal/db"
	"github.com/Joseda-hg/lazytodo/internal/logging"
	"github.com/Joseda-hg/lazytodo/internal/model"
)

func TestLoadMissingKeyReturnsEmpty(t *testing.T) {
	bridge := New(db.NewMemoryStore(), "")

	tasks, err := bridge.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tasks == nil || len(tasks) != 0 {
		t.Fatalf("expected empty non-nil collection, got %#v", tasks)
	}
	if bridge.Key() != DefaultKey {
		t.Fatalf("expected default key %q, got %q", DefaultKey, bridge.Key())
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	cases := map[string][]model.Task{
		"empty": {},
		"mixed": {
			{ID: 3, Text: "ship release", Priority: model.PriorityUrgent},
			{ID: 2, Text: "water plants", Priority: model.PriorityLow},
			{ID: 1, Text: "read mail", Priority: model.PriorityMedium},
		},
	}

	for name, tasks := range cases {
		t.Run(name, func(t *testing.T) {
			bridge := New(db.NewMemoryStore(), "todos")
			if err := bridge.Save(context.Background(), tasks); err != nil {
				t.Fatalf("save: %v", err)
			}
			loaded, err := bridge.Load(context.Background())
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if !reflect.DeepEqual(loaded, tasks) {
				t.Fatalf("expected %#v, got %#v", tasks, loaded)
			}
		})
	}
}

func TestSaveWritesWireFormat(t *testing.T) {
	kv := db.NewMemoryStore()
	bridge := New(kv, "todos")

	if err := bridge.Save(context.Background(), nil); err != nil {
		t.Fatalf("save nil: %v", err)
	}
	raw, _, _ := kv.Get(context.Background(), "todos")
	if raw != "[]" {
		t.Fatalf("expected [] for empty collection, got %q", raw)
	}

	tasks := []model.Task{{ID: 1700000000000, Text: "buy milk", Priority: model.PriorityMedium}}
	if err := bridge.Save(context.Background(), tasks); err != nil {
		t.Fatalf("save: %v", err)
	}
	raw, _, _ = kv.Get(context.Background(), "todos")
	want := `[{"id":1700000000000,"text":"buy milk","priority":"moyenne"}]`
	if raw != want {
		t.Fatalf("expected %s, got %s", want, raw)
	}
}

func TestLoadCorruptBlob(t *testing.T) {
	blobs := map[string]string{
		"not json":      "{oops",
		"wrong shape":   `{"id":1}`,
		"bad priority":  `[{"id":1,"text":"a","priority":"high"}]`,
		"missing text":  `[{"id":1,"priority":"basse"}]`,
		"blank text":    `[{"id":1,"text":"   ","priority":"basse"}]`,
		"fractional id": `[{"id":1.5,"text":"a","priority":"basse"}]`,
	}

	for name, blob := range blobs {
		t.Run(name+" reset", func(t *testing.T) {
			kv := db.NewMemoryStore()
			_ = kv.Set(context.Background(), "todos", blob)

			var buf bytes.Buffer
			opts := logging.DefaultOptions()
			opts.ReportTimestamp = false
			bridge := New(kv, "todos", WithLogger(logging.New(&buf, opts)))

			tasks, err := bridge.Load(context.Background())
			if err != nil {
				t.Fatalf("expected reset policy to swallow error, got %v", err)
			}
			if len(tasks) != 0 {
				t.Fatalf("expected empty collection, got %d tasks", len(tasks))
			}
			if !strings.Contains(buf.String(), "starting empty") {
				t.Fatalf("expected warning to be logged, got %q", buf.String())
			}
		})

		t.Run(name+" fail", func(t *testing.T) {
			kv := db.NewMemoryStore()
			_ = kv.Set(context.Background(), "todos", blob)
			bridge := New(kv, "todos", WithPolicy(PolicyFail))

			if _, err := bridge.Load(context.Background()); !errors.Is(err, ErrCorrupt) {
				t.Fatalf("expected ErrCorrupt, got %v", err)
			}
		})
	}
}

func TestLoadFromSQLiteBackend(t *testing.T) {
	kv, err := db.OpenKV(db.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("open kv: %v", err)
	}
	defer kv.Close()

	bridge := New(kv, "todos")
	tasks := []model.Task{{ID: 7, Text: "persist me", Priority: model.PriorityUrgent}}
	if err := bridge.Save(context.Background(), tasks); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := New(kv, "todos").Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(loaded, tasks) {
		t.Fatalf("expected %#v, got %#v", tasks, loaded)
	}
}

func TestParsePolicy(t *testing.T) {
	if p, err := ParsePolicy(""); err != nil || p != PolicyReset {
		t.Fatalf("expected reset default, got %q %v", p, err)
	}
	if p, err := ParsePolicy("FAIL"); err != nil || p != PolicyFail {
		t.Fatalf("expected fail, got %q %v", p, err)
	}
	if _, err := ParsePolicy("ignore"); err == nil {
		t.Fatalf("expected error for unknown policy")
	}
}
