package taskdeck

import (
	"context"
	"iter"
	"strings"

	"github.com/dustin/go-humanize/english"
	"github.com/rs/zerolog"

	"github.com/colonyops/taskdeck/internal/core/auth"
	"github.com/colonyops/taskdeck/internal/core/logging"
	"github.com/colonyops/taskdeck/internal/core/task"
)

// Item is a task plus view-only state.
type Item struct {
	task.Task
	Expanded bool
}

// OpKind identifies the remote operation behind an Op.
type OpKind int

const (
	OpNone OpKind = iota
	OpLoad
	OpAdd
	OpToggle
	OpDelete
)

func (k OpKind) String() string {
	switch k {
	case OpLoad:
		return "load"
	case OpAdd:
		return "add"
	case OpToggle:
		return "toggle"
	case OpDelete:
		return "delete"
	default:
		return "none"
	}
}

// Op performs one remote call. It touches no list state and is safe to run
// on any goroutine; its Completion must be handed back to Apply.
type Op func(ctx context.Context) Completion

// Completion is the result of an Op.
type Completion struct {
	kind   OpKind
	epoch  uint64
	taskID string
	tasks  []task.Task
	task   task.Task
	err    error
}

// Outcome reports what Apply did with a Completion.
type Outcome struct {
	Kind   OpKind
	TaskID string
	Err    error
	// Stale is set when the completion was issued for an earlier session
	// and was discarded.
	Stale bool
}

// TaskList is the view-model for the signed-in user's tasks. It is not safe
// for concurrent use: every method, including Apply, must run on the UI
// loop. Only Ops run elsewhere.
type TaskList struct {
	repo Repository
	log  zerolog.Logger

	owner   *auth.User
	epoch   uint64
	items   []Item
	filter  task.Filter
	loading bool

	draftTitle       string
	draftDescription string

	observers map[int]func()
	nextObs   int
}

// NewTaskList returns an empty list with the given initial filter.
func NewTaskList(repo Repository, filter task.Filter, log zerolog.Logger) *TaskList {
	if filter == "" {
		filter = task.FilterAll
	}
	return &TaskList{
		repo:      repo,
		log:       log.With().Str("component", "task-list").Logger(),
		filter:    filter,
		observers: make(map[int]func()),
	}
}

// Subscribe registers fn to run after every mutation and returns a function
// that removes it.
func (l *TaskList) Subscribe(fn func()) func() {
	id := l.nextObs
	l.nextObs++
	l.observers[id] = fn
	return func() { delete(l.observers, id) }
}

func (l *TaskList) changed() {
	for _, fn := range l.observers {
		fn()
	}
}

// SetOwner follows the session. A different user, or sign-out, clears the
// list and invalidates in-flight operations; a new user also returns the
// load Op. The same user again (a token refresh) returns nil.
func (l *TaskList) SetOwner(user *auth.User) Op {
	if sameUser(l.owner, user) {
		if user != nil {
			u := *user
			l.owner = &u
		}
		return nil
	}

	l.epoch++
	l.items = nil
	l.loading = false
	l.owner = nil
	l.draftTitle, l.draftDescription = "", ""

	if user == nil {
		l.changed()
		return nil
	}

	u := *user
	l.owner = &u
	l.loading = true
	l.changed()

	epoch, ownerID, repo := l.epoch, u.ID, l.repo
	return func(ctx context.Context) Completion {
		ctx = logging.WithUserID(ctx, ownerID)
		tasks, err := repo.ListByOwner(ctx, ownerID)
		return Completion{kind: OpLoad, epoch: epoch, tasks: tasks, err: err}
	}
}

// AddTask returns an Op creating a task from title and description. It
// returns nil when the title is blank or nobody is signed in.
func (l *TaskList) AddTask(title, description string) Op {
	if strings.TrimSpace(title) == "" || l.owner == nil {
		return nil
	}

	draft := task.Draft{UserID: l.owner.ID, Title: title, Description: description}
	epoch, repo := l.epoch, l.repo
	return func(ctx context.Context) Completion {
		ctx = logging.WithUserID(ctx, draft.UserID)
		created, err := repo.Create(ctx, draft)
		return Completion{kind: OpAdd, epoch: epoch, task: created, err: err}
	}
}

// ToggleTask returns an Op inverting the task's completion flag, or nil when
// the id is not in the list.
func (l *TaskList) ToggleTask(id string) Op {
	i := l.index(id)
	if i < 0 {
		return nil
	}

	patch := task.SetComplete(!l.items[i].IsComplete)
	epoch, ownerID, repo := l.epoch, l.items[i].UserID, l.repo
	return func(ctx context.Context) Completion {
		ctx = logging.WithUserID(ctx, ownerID)
		updated, err := repo.Update(ctx, id, patch)
		return Completion{kind: OpToggle, epoch: epoch, taskID: id, task: updated, err: err}
	}
}

// DeleteTask returns an Op deleting the task, or nil when the id is not in
// the list.
func (l *TaskList) DeleteTask(id string) Op {
	i := l.index(id)
	if i < 0 {
		return nil
	}

	epoch, ownerID, repo := l.epoch, l.items[i].UserID, l.repo
	return func(ctx context.Context) Completion {
		ctx = logging.WithUserID(ctx, ownerID)
		err := repo.Delete(ctx, id)
		return Completion{kind: OpDelete, epoch: epoch, taskID: id, err: err}
	}
}

// Apply reconciles a completion into the list. Failures are logged and
// leave the list as it was.
func (l *TaskList) Apply(c Completion) Outcome {
	out := Outcome{Kind: c.kind, TaskID: c.taskID, Err: c.err}
	if c.kind == OpAdd && c.err == nil {
		out.TaskID = c.task.ID
	}

	if c.epoch != l.epoch {
		l.log.Debug().
			Stringer("op", c.kind).
			Uint64("epoch", c.epoch).
			Uint64("current", l.epoch).
			Msg("discarding completion from previous session")
		out.Stale = true
		return out
	}

	if c.err != nil {
		l.log.Error().Err(c.err).Stringer("op", c.kind).Str("task_id", c.taskID).Msg("task operation failed")
	}

	switch c.kind {
	case OpLoad:
		l.loading = false
		if c.err == nil {
			l.items = make([]Item, 0, len(c.tasks))
			for _, t := range c.tasks {
				l.items = append(l.items, Item{Task: t})
			}
		}
	case OpAdd:
		if c.err == nil {
			l.items = append([]Item{{Task: c.task}}, l.items...)
			l.draftTitle, l.draftDescription = "", ""
		}
	case OpToggle:
		if c.err == nil {
			if i := l.index(c.taskID); i >= 0 {
				l.items[i].Task = c.task
			}
		}
	case OpDelete:
		if c.err == nil {
			if i := l.index(c.taskID); i >= 0 {
				l.items = append(l.items[:i], l.items[i+1:]...)
			}
		}
	default:
		return out
	}

	l.changed()
	return out
}

// Run executes op and applies its completion on the calling goroutine. A nil
// op yields a zero Outcome.
func (l *TaskList) Run(ctx context.Context, op Op) Outcome {
	if op == nil {
		return Outcome{}
	}
	return l.Apply(op(ctx))
}

// ToggleExpand flips the expanded flag of a task. It reports whether the id
// was found.
func (l *TaskList) ToggleExpand(id string) bool {
	i := l.index(id)
	if i < 0 {
		return false
	}
	l.items[i].Expanded = !l.items[i].Expanded
	l.changed()
	return true
}

// Filter returns the current filter.
func (l *TaskList) Filter() task.Filter {
	return l.filter
}

// SetFilter changes the filter.
func (l *TaskList) SetFilter(f task.Filter) {
	if f == l.filter {
		return
	}
	l.filter = f
	l.changed()
}

// Filtered yields the items passing the current filter in list order.
func (l *TaskList) Filtered() iter.Seq[Item] {
	return l.FilteredBy(l.filter)
}

// FilteredBy yields the items passing f in list order. The sequence reads
// the list when iterated, so it can be ranged over again after a change.
func (l *TaskList) FilteredBy(f task.Filter) iter.Seq[Item] {
	return func(yield func(Item) bool) {
		for _, it := range l.items {
			if !f.Matches(it.Task) {
				continue
			}
			if !yield(it) {
				return
			}
		}
	}
}

// Len returns the number of tasks regardless of filter.
func (l *TaskList) Len() int {
	return len(l.items)
}

// Item returns the task with the given id.
func (l *TaskList) Item(id string) (Item, bool) {
	i := l.index(id)
	if i < 0 {
		return Item{}, false
	}
	return l.items[i], true
}

// Remaining counts incomplete tasks regardless of filter.
func (l *TaskList) Remaining() int {
	n := 0
	for _, it := range l.items {
		if !it.IsComplete {
			n++
		}
	}
	return n
}

// RemainingLabel renders Remaining, e.g. "1 task remaining".
func (l *TaskList) RemainingLabel() string {
	return english.Plural(l.Remaining(), "task", "") + " remaining"
}

// Owner returns the signed-in user the list belongs to.
func (l *TaskList) Owner() *auth.User {
	return l.owner
}

// Loading reports whether the initial load for the current owner is pending.
func (l *TaskList) Loading() bool {
	return l.loading
}

// Draft returns the add-task input fields.
func (l *TaskList) Draft() (title, description string) {
	return l.draftTitle, l.draftDescription
}

// SetDraft stores the add-task input fields.
func (l *TaskList) SetDraft(title, description string) {
	l.draftTitle, l.draftDescription = title, description
}

func (l *TaskList) index(id string) int {
	for i, it := range l.items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

func sameUser(a, b *auth.User) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.ID == b.ID
}
