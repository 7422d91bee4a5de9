package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/Joseda-hg/lazytodo/internal/model"
	"github.com/Joseda-hg/lazytodo/internal/todo"
	goerrors "github.com/go-errors/errors"
	"github.com/jesseduffield/gocui"
)

const (
	viewHeader = "header"
	viewFooter = "footer"
	viewTasks  = "tasks"
	viewAdd    = "add"
	viewHelp   = "help"
)

type UI struct {
	store *todo.Store
	gui   *gocui.Gui

	filter model.Filter
	tasks  []model.Task
	counts model.Counts
	cursor int

	addActive  bool
	helpActive bool
	status     string
}

func Run(store *todo.Store) error {
	gui, err := gocui.NewGui(gocui.NewGuiOpts{OutputMode: gocui.OutputNormal})
	if err != nil {
		return err
	}
	defer gui.Close()

	ui := newUI(store)
	ui.gui = gui
	gui.Mouse = true

	gui.SetManagerFunc(ui.layout)
	if err := ui.bindKeys(gui); err != nil {
		return err
	}

	if err := gui.MainLoop(); err != nil && err != gocui.ErrQuit {
		return err
	}

	return nil
}

func newUI(store *todo.Store) *UI {
	ui := &UI{store: store, filter: model.FilterAll}
	ui.refresh()
	return ui
}

type binding struct {
	view    string
	key     any
	handler func(*gocui.Gui, *gocui.View) error
}

func (u *UI) bindKeys(gui *gocui.Gui) error {
	bindings := []binding{
		{"", gocui.KeyCtrlC, u.quit},
		{"", 'q', u.quit},
		{"", 'r', u.reload},
		{"", 'a', u.addTask},
		{"", 'p', u.cyclePriority},
		{"", 'f', u.cycleFilter},
		{"", '0', u.filterHandler(model.FilterAll)},
		{"", '1', u.filterHandler(model.FilterFor(model.PriorityUrgent))},
		{"", '2', u.filterHandler(model.FilterFor(model.PriorityMedium))},
		{"", '3', u.filterHandler(model.FilterFor(model.PriorityLow))},
		{"", '?', u.toggleHelp},
		{viewTasks, gocui.KeyArrowDown, u.moveDown},
		{viewTasks, 'j', u.moveDown},
		{viewTasks, gocui.KeyArrowUp, u.moveUp},
		{viewTasks, 'k', u.moveUp},
		{viewTasks, gocui.KeySpace, u.toggleSelected},
		{viewTasks, 'd', u.deleteTask},
		{viewTasks, 'x', u.finishSelection},
		{viewAdd, gocui.KeyEnter, u.submitAdd},
		{viewAdd, gocui.KeyTab, u.cycleAddPriority},
		{viewAdd, gocui.KeyEsc, u.cancelAdd},
		{viewHelp, gocui.KeyEsc, u.closeHelp},
		{viewHelp, 'q', u.closeHelp},
		{viewHelp, '?', u.closeHelp},
		{viewTasks, gocui.MouseWheelUp, u.scrollUp},
		{viewTasks, gocui.MouseWheelDown, u.scrollDown},
	}
	for _, b := range bindings {
		if err := gui.SetKeybinding(b.view, b.key, gocui.ModNone, b.handler); err != nil {
			return err
		}
	}

	return gui.SetViewClickBinding(&gocui.ViewMouseBinding{ViewName: viewTasks, Key: gocui.MouseLeft, Handler: func(opts gocui.ViewMouseBindingOpts) error {
		return u.onListClick(gui, opts)
	}})
}

func (u *UI) layout(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	if maxX <= 0 || maxY <= 0 {
		return nil
	}

	headerView, err := gui.SetView(viewHeader, 0, 0, maxX-1, 2, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	headerView.Frame = false
	headerView.Wrap = true
	u.renderHeader(headerView)

	footerY1 := max(maxY-1, 4)
	footerY0 := footerY1 - 3
	footerView, err := gui.SetView(viewFooter, 0, footerY0, maxX-1, footerY1, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	footerView.Frame = false
	footerView.Wrap = true
	footerView.FgColor = gocui.ColorDefault | gocui.AttrDim
	u.renderFooter(footerView)

	bodyTop := 2
	bodyBottom := max(footerY0-1, bodyTop+2)
	tasksView, err := gui.SetView(viewTasks, 0, bodyTop, maxX-1, bodyBottom, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		tasksView.TitleColor = gocui.ColorCyan
	}
	tasksView.Title = fmt.Sprintf("Tasks: %s", u.filter.Label())
	applyViewStyle(tasksView, !u.inputActive())
	u.renderTaskList(tasksView)

	if u.addActive {
		if err := u.showAdd(gui); err != nil {
			return err
		}
	} else {
		_ = gui.DeleteView(viewAdd)
	}

	if u.helpActive {
		if err := u.showHelp(gui); err != nil {
			return err
		}
	} else {
		_ = gui.DeleteView(viewHelp)
	}

	if !u.inputActive() {
		_, _ = gui.SetCurrentView(viewTasks)
	}
	gui.Cursor = u.addActive

	return nil
}

// refresh recomputes the filtered view and counts from the store.
func (u *UI) refresh() {
	u.tasks = u.store.FilteredView(u.filter)
	u.counts = u.store.Counts()
	if u.cursor >= len(u.tasks) {
		u.cursor = max(len(u.tasks)-1, 0)
	}
}

func (u *UI) renderHeader(view *gocui.View) {
	view.Clear()
	fmt.Fprintf(view, "%s\nNew task priority: %s | Selected: %d",
		formatFilterBar(u.filter, u.counts), priorityBadge(u.store.Draft().Priority), len(u.store.SelectedIDs()))
}

func (u *UI) renderFooter(view *gocui.View) {
	view.Clear()
	view.SetOrigin(0, 0)

	finish := "x finish selection"
	if !u.store.CanComplete() {
		finish = "x finish selection (select tasks first)"
	}
	fmt.Fprintln(view, "a add | p priority | space select | d delete | "+finish)
	fmt.Fprintln(view, "0-3 filter | f cycle filter | j/k move | r reload | ? help | q quit")
	if u.status != "" {
		fmt.Fprint(view, u.status)
	}
}

func (u *UI) renderTaskList(view *gocui.View) {
	view.Clear()
	if len(u.tasks) == 0 {
		fmt.Fprint(view, "  No tasks")
		return
	}
	focused := !u.inputActive()
	for i, task := range u.tasks {
		prefix := " "
		if i == u.cursor {
			if focused {
				prefix = ">"
			} else {
				prefix = "*"
			}
		}
		fmt.Fprintf(view, "%s %s\n", prefix, formatTaskRow(task, u.store.IsSelected(task.ID)))
	}
	if focused {
		view.SetCursor(0, min(u.cursor, len(u.tasks)-1))
	}
}

func (u *UI) selectedTask() *model.Task {
	if u.cursor >= 0 && u.cursor < len(u.tasks) {
		return &u.tasks[u.cursor]
	}
	return nil
}

func (u *UI) indexOf(id int64) int {
	for i, task := range u.tasks {
		if task.ID == id {
			return i
		}
	}
	return -1
}

func (u *UI) onListClick(_ *gocui.Gui, opts gocui.ViewMouseBindingOpts) error {
	if u.inputActive() {
		return nil
	}
	// opts.Y is already relative to the view content, origin included.
	row := max(opts.Y, 0)
	u.cursor = min(row, max(len(u.tasks)-1, 0))
	return nil
}

func (u *UI) scrollUp(gui *gocui.Gui, view *gocui.View) error {
	if u.inputActive() || view == nil {
		return nil
	}
	view.ScrollUp(1)
	return nil
}

func (u *UI) scrollDown(gui *gocui.Gui, view *gocui.View) error {
	if u.inputActive() || view == nil {
		return nil
	}
	view.ScrollDown(1)
	return nil
}

func (u *UI) moveDown(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	if u.cursor < len(u.tasks)-1 {
		u.cursor++
	}
	return nil
}

func (u *UI) moveUp(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	if u.cursor > 0 {
		u.cursor--
	}
	return nil
}

func (u *UI) reload(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.status = ""
	u.refresh()
	return nil
}

func (u *UI) filterHandler(filter model.Filter) func(*gocui.Gui, *gocui.View) error {
	return func(gui *gocui.Gui, _ *gocui.View) error {
		return u.setFilter(filter)
	}
}

func (u *UI) setFilter(filter model.Filter) error {
	if u.inputActive() {
		return nil
	}
	u.filter = filter
	u.cursor = 0
	u.refresh()
	return nil
}

func (u *UI) cycleFilter(gui *gocui.Gui, _ *gocui.View) error {
	return u.setFilter(nextFilter(u.filter))
}

func (u *UI) cyclePriority(gui *gocui.Gui, _ *gocui.View) error {
	if u.helpActive {
		return nil
	}
	u.store.SetDraftPriority(u.store.Draft().Priority.Next())
	return nil
}

func (u *UI) toggleSelected(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	selected := u.selectedTask()
	if selected == nil {
		return nil
	}
	u.store.Toggle(selected.ID)
	return nil
}

func (u *UI) deleteTask(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	selected := u.selectedTask()
	if selected == nil {
		return nil
	}
	if err := u.store.Remove(context.Background(), selected.ID); err != nil {
		u.status = err.Error()
	} else {
		u.status = ""
	}
	u.refresh()
	return nil
}

func (u *UI) finishSelection(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() || !u.store.CanComplete() {
		return nil
	}
	removed, err := u.store.CompleteSelected(context.Background())
	if err != nil {
		u.status = err.Error()
	} else {
		u.status = fmt.Sprintf("%d task(s) finished", removed)
	}
	u.refresh()
	return nil
}

func (u *UI) toggleHelp(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() && !u.helpActive {
		return nil
	}
	u.helpActive = !u.helpActive
	return nil
}

func (u *UI) closeHelp(gui *gocui.Gui, _ *gocui.View) error {
	u.helpActive = false
	if gui != nil {
		_ = gui.DeleteView(viewHelp)
		_, _ = gui.SetCurrentView(viewTasks)
	}
	return nil
}

func (u *UI) showHelp(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	width := max(60, maxX/2)
	height := 14
	x0 := (maxX - width) / 2
	y0 := (maxY - height) / 2
	x1 := x0 + width
	y1 := y0 + height

	view, err := gui.SetView(viewHelp, x0, y0, x1, y1, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		view.Title = "Help"
		view.Wrap = true
	}
	view.Clear()
	fmt.Fprint(view, helpText())
	_, _ = gui.SetCurrentView(viewHelp)
	return nil
}

func (u *UI) inputActive() bool {
	return u.addActive || u.helpActive
}

func (u *UI) quit(_ *gocui.Gui, _ *gocui.View) error {
	return gocui.ErrQuit
}

func helpText() string {
	return strings.Join([]string{
		"Tasks:",
		"  a add task | tab cycle priority (add popup) | enter add | esc cancel",
		"  p cycle priority for the next task",
		"  d delete task under cursor",
		"",
		"Selection:",
		"  space select/unselect task | x finish selected tasks",
		"",
		"Filter:",
		"  0 all | 1 urgent | 2 medium | 3 low | f cycle",
		"",
		"Other:",
		"  j/k or arrows move | r reload | ? help | esc/q close help | q quit",
	}, "\n")
}

func applyViewStyle(view *gocui.View, focused bool) {
	view.Frame = true
	view.Highlight = focused
	view.HighlightInactive = false
	view.SelBgColor = gocui.ColorBlue
	view.SelFgColor = gocui.ColorBlack
	if focused {
		view.FrameColor = gocui.ColorCyan
	} else {
		view.FrameColor = gocui.ColorDefault
	}
}
