// Package persist keeps the task collection in sync with an opaque
// string key-value store.
package persist

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Joseda-hg/lazytodo/internal/logging"
	"github.com/Joseda-hg/lazytodo/internal/model"
	"github.com/charmbracelet/log"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

const DefaultKey = "todos"

type Policy string

const (
	// PolicyReset logs a warning and starts from an empty collection.
	PolicyReset Policy = "reset"
	// PolicyFail returns ErrCorrupt from Load.
	PolicyFail Policy = "fail"
)

func ParsePolicy(value string) (Policy, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "reset":
		return PolicyReset, nil
	case "fail":
		return PolicyFail, nil
	}
	return "", fmt.Errorf("invalid corrupt policy %q", value)
}

var ErrCorrupt = errors.New("stored task collection is corrupt")

//go:embed todos.schema.json
var schemaJSON string

var collectionSchema = jsonschema.MustCompileString("todos.schema.json", schemaJSON)

type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

type Bridge struct {
	kv     KV
	key    string
	policy Policy
	logger *log.Logger
}

type Option func(*Bridge)

func WithPolicy(policy Policy) Option {
	return func(b *Bridge) { b.policy = policy }
}

func WithLogger(logger *log.Logger) Option {
	return func(b *Bridge) { b.logger = logger }
}

func New(kv KV, key string, opts ...Option) *Bridge {
	if strings.TrimSpace(key) == "" {
		key = DefaultKey
	}
	b := &Bridge{kv: kv, key: key, policy: PolicyReset, logger: logging.Discard()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Bridge) Key() string {
	return b.key
}

func (b *Bridge) Load(ctx context.Context) ([]model.Task, error) {
	raw, ok, err := b.kv.Get(ctx, b.key)
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	if !ok {
		b.logger.Debug("no stored tasks", "key", b.key)
		return []model.Task{}, nil
	}

	tasks, err := Decode(raw)
	if err != nil {
		if b.policy == PolicyFail {
			return nil, err
		}
		b.logger.Warn("stored tasks unreadable, starting empty", "key", b.key, "err", err)
		return []model.Task{}, nil
	}

	b.logger.Debug("loaded tasks", "key", b.key, "count", len(tasks))
	return tasks, nil
}

func (b *Bridge) Save(ctx context.Context, tasks []model.Task) error {
	payload, err := Encode(tasks)
	if err != nil {
		return err
	}
	if err := b.kv.Set(ctx, b.key, payload); err != nil {
		return fmt.Errorf("save tasks: %w", err)
	}
	b.logger.Debug("saved tasks", "key", b.key, "count", len(tasks))
	return nil
}

func Encode(tasks []model.Task) (string, error) {
	if tasks == nil {
		tasks = []model.Task{}
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return "", fmt.Errorf("encode tasks: %w", err)
	}
	return string(data), nil
}

// Decode parses and validates a stored collection. Failures wrap ErrCorrupt.
func Decode(raw string) ([]model.Task, error) {
	var doc any
	decoder := json.NewDecoder(strings.NewReader(raw))
	decoder.UseNumber()
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if err := collectionSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	var tasks []model.Task
	if err := json.Unmarshal([]byte(raw), &tasks); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	return tasks, nil
}
