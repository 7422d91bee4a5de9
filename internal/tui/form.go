package tui

import (
	"context"
	"fmt"
	"strings"

	goerrors "github.com/go-errors/errors"
	"github.com/jesseduffield/gocui"
)

func (u *UI) addTask(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.addActive = true
	return nil
}

func (u *UI) showAdd(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	width := max(40, maxX/2)
	height := 2
	x0 := (maxX - width) / 2
	y0 := (maxY - height) / 2
	x1 := x0 + width
	y1 := y0 + height

	view, err := gui.SetView(viewAdd, x0, y0, x1, y1, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		view.Wrap = true
		view.Clear()
		fmt.Fprint(view, u.store.Draft().Text)
	}
	view.Title = u.addTitle()
	view.Editable = true
	view.Editor = gocui.DefaultEditor
	_, _ = gui.SetCurrentView(viewAdd)
	return nil
}

func (u *UI) addTitle() string {
	return fmt.Sprintf("New task (%s) | tab priority | enter add | esc cancel", u.store.Draft().Priority.Label())
}

func (u *UI) submitAdd(gui *gocui.Gui, view *gocui.View) error {
	if !u.addActive {
		return nil
	}
	if view != nil {
		u.store.SetDraftText(bufferText(view))
	}
	added, err := u.submitDraft()
	if err != nil {
		u.status = err.Error()
	}
	if !added {
		return nil
	}
	return u.closeAdd(gui)
}

// submitDraft adds the draft as a task. A blank draft is ignored and the
// popup stays open.
func (u *UI) submitDraft() (bool, error) {
	task, ok, err := u.store.SubmitDraft(context.Background())
	if !ok {
		return false, err
	}
	u.status = ""
	u.refresh()
	if index := u.indexOf(task.ID); index >= 0 {
		u.cursor = index
	}
	return true, err
}

func (u *UI) cycleAddPriority(gui *gocui.Gui, view *gocui.View) error {
	if view != nil {
		u.store.SetDraftText(bufferText(view))
	}
	return u.cyclePriority(gui, nil)
}

func (u *UI) cancelAdd(gui *gocui.Gui, view *gocui.View) error {
	if !u.addActive {
		return nil
	}
	if view != nil {
		u.store.SetDraftText(bufferText(view))
	}
	return u.closeAdd(gui)
}

func bufferText(view *gocui.View) string {
	return strings.TrimRight(view.Buffer(), "\n")
}

func (u *UI) closeAdd(gui *gocui.Gui) error {
	u.addActive = false
	if gui != nil {
		_ = gui.DeleteView(viewAdd)
		_, _ = gui.SetCurrentView(viewTasks)
	}
	return nil
}
