// Package todo holds the canonical task list, the selection set and the
// pending add-form input. Every mutation is written through to a Syncer.
package todo

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Joseda-hg/lazytodo/internal/logging"
	"github.com/Joseda-hg/lazytodo/internal/model"
	"github.com/charmbracelet/log"
)

// Syncer receives the full collection after every mutation.
type Syncer interface {
	Save(ctx context.Context, tasks []model.Task) error
}

type Draft struct {
	Text     string
	Priority model.Priority
}

func emptyDraft() Draft {
	return Draft{Priority: model.PriorityMedium}
}

type Store struct {
	mu        sync.Mutex
	tasks     []model.Task
	selection *Selection
	draft     Draft
	lastID    int64

	syncer Syncer
	now    func() time.Time
	logger *log.Logger
}

type Option func(*Store)

func WithSyncer(syncer Syncer) Option {
	return func(s *Store) { s.syncer = syncer }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithLogger(logger *log.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// New seeds the store with previously loaded tasks, newest first.
// Tasks repeating an earlier id are dropped.
func New(tasks []model.Task, opts ...Option) *Store {
	s := &Store{
		selection: NewSelection(),
		draft:     emptyDraft(),
		now:       time.Now,
		logger:    logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}

	seen := make(map[int64]struct{}, len(tasks))
	s.tasks = make([]model.Task, 0, len(tasks))
	for _, task := range tasks {
		if _, ok := seen[task.ID]; ok {
			s.logger.Warn("dropping duplicate task id", "id", task.ID)
			continue
		}
		seen[task.ID] = struct{}{}
		s.tasks = append(s.tasks, task)
		if task.ID > s.lastID {
			s.lastID = task.ID
		}
	}
	return s
}

// Add prepends a task built from text and priority. Blank text is ignored
// and reported with ok == false. The returned error comes from the Syncer;
// the in-memory state is updated either way.
func (s *Store) Add(ctx context.Context, text string, priority model.Priority) (task model.Task, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return model.Task{}, false, nil
	}
	if !priority.Valid() {
		priority = model.PriorityMedium
	}

	task = model.Task{ID: s.nextID(), Text: trimmed, Priority: priority}
	s.tasks = append([]model.Task{task}, s.tasks...)
	s.logger.Debug("task added", "id", task.ID, "priority", task.Priority)

	return task, true, s.sync(ctx)
}

func (s *Store) SetDraftText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft.Text = text
}

func (s *Store) SetDraftPriority(priority model.Priority) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if priority.Valid() {
		s.draft.Priority = priority
	}
}

func (s *Store) Draft() Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// SubmitDraft adds the draft contents and resets the draft on success. Plain
// Add calls from other front ends leave the draft alone.
func (s *Store) SubmitDraft(ctx context.Context) (model.Task, bool, error) {
	draft := s.Draft()
	task, ok, err := s.Add(ctx, draft.Text, draft.Priority)
	if ok {
		s.mu.Lock()
		s.draft = emptyDraft()
		s.mu.Unlock()
	}
	return task, ok, err
}

// Remove deletes the task with id. The collection is written even when no
// task matched. The selection set is left untouched.
func (s *Store) Remove(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks = keepTasks(s.tasks, func(task model.Task) bool { return task.ID != id })
	return s.sync(ctx)
}

// RemoveMany deletes every task whose id is in ids and clears the selection.
func (s *Store) RemoveMany(ctx context.Context, ids map[int64]struct{}) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeMany(ctx, ids)
}

// CompleteSelected removes the selected tasks. An empty selection is a no-op.
func (s *Store) CompleteSelected(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.selection.Len() == 0 {
		return 0, nil
	}
	return s.removeMany(ctx, s.selection.set())
}

func (s *Store) removeMany(ctx context.Context, ids map[int64]struct{}) (int, error) {
	before := len(s.tasks)
	s.tasks = keepTasks(s.tasks, func(task model.Task) bool {
		_, drop := ids[task.ID]
		return !drop
	})
	s.selection.Clear()

	removed := before - len(s.tasks)
	s.logger.Debug("tasks completed", "removed", removed)
	return removed, s.sync(ctx)
}

func (s *Store) Toggle(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection.Toggle(id)
}

func (s *Store) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection.Clear()
}

func (s *Store) IsSelected(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection.Has(id)
}

func (s *Store) SelectedIDs() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection.IDs()
}

// CanComplete reports whether the bulk-complete action is enabled.
func (s *Store) CanComplete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection.CanComplete()
}

func (s *Store) Tasks() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Task(nil), s.tasks...)
}

func (s *Store) FilteredView(filter model.Filter) []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return FilterTasks(s.tasks, filter)
}

func (s *Store) Counts() model.Counts {
	s.mu.Lock()
	defer s.mu.Unlock()
	return CountTasks(s.tasks)
}

func FilterTasks(tasks []model.Task, filter model.Filter) []model.Task {
	result := make([]model.Task, 0, len(tasks))
	for _, task := range tasks {
		if filter.Match(task) {
			result = append(result, task)
		}
	}
	return result
}

func CountTasks(tasks []model.Task) model.Counts {
	counts := model.Counts{Total: len(tasks)}
	for _, task := range tasks {
		switch task.Priority {
		case model.PriorityUrgent:
			counts.Urgent++
		case model.PriorityMedium:
			counts.Medium++
		case model.PriorityLow:
			counts.Low++
		}
	}
	return counts
}

// nextID derives an id from the clock in milliseconds, bumped past the
// last issued id so ids stay unique and increasing.
func (s *Store) nextID() int64 {
	id := s.now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}

func (s *Store) sync(ctx context.Context) error {
	if s.syncer == nil {
		return nil
	}
	snapshot := append([]model.Task(nil), s.tasks...)
	if err := s.syncer.Save(ctx, snapshot); err != nil {
		s.logger.Error("persist tasks", "err", err)
		return err
	}
	return nil
}

func keepTasks(tasks []model.Task, keep func(model.Task) bool) []model.Task {
	result := make([]model.Task, 0, len(tasks))
	for _, task := range tasks {
		if keep(task) {
			result = append(result, task)
		}
	}
	return result
}
