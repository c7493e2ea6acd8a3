package tasks

import (
	"fmt"
	"log/slog"

	"github.com/roach88/scheduler/internal/container"
	"github.com/roach88/scheduler/internal/edit"
)

// Manager makes undoable changes to a Tree. Every exported mutation
// produces exactly one record on the log, including those that are built
// from other mutations.
type Manager struct {
	tree *Tree
	log  *edit.Log

	addTask         *edit.Op
	removeTask      *edit.Op
	setStatus       *edit.Op
	updateInfo      *edit.Op
	completeSubtree *edit.Op
}

// NewManager wires a manager for tree onto log.
func NewManager(tree *Tree, log *edit.Log) *Manager {
	m := &Manager{tree: tree, log: log}
	m.addTask = log.Register("add_task", m.doAddTask)
	m.removeTask = log.Register("remove_task", m.doRemoveTask)
	m.setStatus = log.Register("set_status", m.doSetStatus)
	m.updateInfo = log.Register("update_info", m.doUpdateInfo)
	m.completeSubtree = log.Register("complete_subtree", m.doCompleteSubtree)
	return m
}

// Tree returns the managed tree.
func (m *Manager) Tree() *Tree { return m.tree }

// AddTask creates a task named name under parentPath ("" for a root task).
func (m *Manager) AddTask(parentPath, name string) error {
	parent, err := m.optionalParent(parentPath)
	if err != nil {
		return fmt.Errorf("add task: %w", err)
	}
	n, err := NormalizeName(name)
	if err != nil {
		return fmt.Errorf("add task: %w", err)
	}
	if m.tree.siblingsOf(parent).Has(n) {
		return fmt.Errorf("add task %q: %w", n, ErrDuplicate)
	}
	t := newTask(n)
	t.parent = parent
	return m.addTask.Call(edit.NewArgs(t), edit.Describe("add "+joinPath(parentPath, n)))
}

// doAddTask links a task built by AddTask. Redo links the same task again so
// that later records holding it stay valid.
func (m *Manager) doAddTask(tx *edit.Tx, args edit.Args) error {
	t := args.At(0).(*Task)
	m.tree.siblingsOf(t.parent).Set(t.name, t)
	slog.Debug("task added", "path", t.Path())
	return tx.AttachInverse(edit.Action{Name: "detach", Fn: m.detach, Args: edit.NewArgs(t)})
}

// RemoveTask deletes the task at path together with its subtree.
func (m *Manager) RemoveTask(path string) error {
	t, err := m.tree.Get(path)
	if err != nil {
		return fmt.Errorf("remove task: %w", err)
	}
	return m.removeTask.Call(edit.NewArgs(t), edit.Describe("remove "+path))
}

func (m *Manager) doRemoveTask(tx *edit.Tx, args edit.Args) error {
	t := args.At(0).(*Task)
	index := m.tree.siblingsOf(t.parent).Index(t.name)
	if err := m.detach(edit.NewArgs(t)); err != nil {
		return err
	}
	return tx.AttachInverse(edit.Action{Name: "attach", Fn: m.attach, Args: edit.NewArgs(t, t.parent, index)})
}

// detach removes a task from its siblings, keeping its parent pointer so
// that attach can restore it.
func (m *Manager) detach(args edit.Args) error {
	t := args.At(0).(*Task)
	if _, _, ok := m.tree.siblingsOf(t.parent).Delete(t.name); !ok {
		return fmt.Errorf("detach %q: %w", t.Path(), ErrNotFound)
	}
	return nil
}

// attach reinserts a task under parent at index.
func (m *Manager) attach(args edit.Args) error {
	t := args.At(0).(*Task)
	parent, _ := args.At(1).(*Task)
	index := args.At(2).(int)
	siblings := m.tree.siblingsOf(parent)
	if siblings.Has(t.name) {
		return fmt.Errorf("attach %q: %w", t.name, ErrDuplicate)
	}
	t.parent = parent
	siblings.Insert(index, t.name, t)
	return nil
}

// RenameTask renames the task at path, keeping its position among its
// siblings.
func (m *Manager) RenameTask(path, newName string) error {
	t, err := m.tree.Get(path)
	if err != nil {
		return fmt.Errorf("rename task: %w", err)
	}
	n, err := NormalizeName(newName)
	if err != nil {
		return fmt.Errorf("rename task: %w", err)
	}
	if n == t.name {
		return nil
	}
	siblings := m.tree.siblingsOf(t.parent)
	if siblings.Has(n) {
		return fmt.Errorf("rename task %q: %w", n, ErrDuplicate)
	}

	comp, err := edit.NewComposite("rename_task", []edit.Edit{
		container.Rename(siblings, t.name, n),
		edit.NewSimple("set_name", setName, unsetName),
	})
	if err != nil {
		return fmt.Errorf("rename task: %w", err)
	}
	return m.log.Apply(comp,
		edit.Bundle(edit.Args{}, edit.NewArgs(t, t.name, n)),
		edit.WithDescription(fmt.Sprintf("rename %s to %s", path, n)),
	)
}

func setName(args edit.Args) error {
	args.At(0).(*Task).name = args.At(2).(string)
	return nil
}

func unsetName(args edit.Args) error {
	args.At(0).(*Task).name = args.At(1).(string)
	return nil
}

// SetStatus changes the status of the task at path.
func (m *Manager) SetStatus(path string, status Status) error {
	t, err := m.tree.Get(path)
	if err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	if _, err := ParseStatus(string(status)); err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	if t.status == status {
		return nil
	}
	return m.setStatus.Call(edit.NewArgs(t, status), edit.Describe(fmt.Sprintf("set %s to %s", path, status)))
}

func (m *Manager) doSetStatus(tx *edit.Tx, args edit.Args) error {
	t := args.At(0).(*Task)
	from := t.status
	t.status = args.At(1).(Status)
	return tx.AttachInverse(edit.Action{Name: "restore_status", Fn: restoreStatus, Args: edit.NewArgs(t, from)})
}

func restoreStatus(args edit.Args) error {
	args.At(0).(*Task).status = args.At(1).(Status)
	return nil
}

// UpdateInfo replaces the metadata of the task at path.
func (m *Manager) UpdateInfo(path string, info Info) error {
	t, err := m.tree.Get(path)
	if err != nil {
		return fmt.Errorf("update info: %w", err)
	}
	if _, err := ParseImportance(string(info.Importance)); err != nil {
		return fmt.Errorf("update info: %w", err)
	}
	return m.updateInfo.Call(edit.NewArgs(t, info), edit.Describe("update "+path))
}

func (m *Manager) doUpdateInfo(tx *edit.Tx, args edit.Args) error {
	t := args.At(0).(*Task)
	from := t.info
	t.info = args.At(1).(Info)
	return tx.AttachInverse(edit.Action{Name: "restore_info", Fn: restoreInfo, Args: edit.NewArgs(t, from)})
}

func restoreInfo(args edit.Args) error {
	args.At(0).(*Task).info = args.At(1).(Info)
	return nil
}

// MoveTask moves the task at path under newParentPath ("" for root) at
// index. Undo puts it back where it was.
func (m *Manager) MoveTask(path, newParentPath string, index int) error {
	t, err := m.tree.Get(path)
	if err != nil {
		return fmt.Errorf("move task: %w", err)
	}
	parent, err := m.optionalParent(newParentPath)
	if err != nil {
		return fmt.Errorf("move task: %w", err)
	}
	if parent != nil && t.isAncestorOf(parent) {
		return fmt.Errorf("move task %q: %w", path, ErrCycle)
	}

	from := m.tree.siblingsOf(t.parent)
	to := m.tree.siblingsOf(parent)
	if from == to && from.Index(t.name) == clampIndex(index, to.Len()-1) {
		return nil
	}
	var children []edit.Edit
	var bundles []edit.Args
	if from == to {
		children = []edit.Edit{container.Move(to, t.name, index)}
		bundles = []edit.Args{{}}
	} else {
		if to.Has(t.name) {
			return fmt.Errorf("move task %q: %w", path, ErrDuplicate)
		}
		children = []edit.Edit{
			container.Remove(from, t.name),
			container.Insert(to, t.name, index, t),
			edit.NewSimple("reparent", reparent, unreparent),
		}
		bundles = []edit.Args{{}, {}, edit.NewArgs(t, t.parent, parent)}
	}

	comp, err := edit.NewComposite("move_task", children)
	if err != nil {
		return fmt.Errorf("move task: %w", err)
	}
	return m.log.Apply(comp, edit.Bundle(bundles...),
		edit.WithDescription(fmt.Sprintf("move %s to %s[%d]", path, newParentPath, index)))
}

func reparent(args edit.Args) error {
	t := args.At(0).(*Task)
	t.parent, _ = args.At(2).(*Task)
	return nil
}

func unreparent(args edit.Args) error {
	t := args.At(0).(*Task)
	t.parent, _ = args.At(1).(*Task)
	return nil
}

// CompleteSubtree marks the task at path and all its descendants complete
// as a single undoable edit. A subtree that is already complete records
// nothing.
func (m *Manager) CompleteSubtree(path string) error {
	t, err := m.tree.Get(path)
	if err != nil {
		return fmt.Errorf("complete subtree: %w", err)
	}
	pending := false
	t.walk(func(c *Task) {
		pending = pending || c.status != StatusComplete
	})
	if !pending {
		return nil
	}
	return m.completeSubtree.Call(edit.NewArgs(t), edit.Describe("complete "+path))
}

func (m *Manager) doCompleteSubtree(tx *edit.Tx, args edit.Args) error {
	root := args.At(0).(*Task)
	previous := map[*Task]Status{}
	var err error
	root.walk(func(t *Task) {
		if err != nil || t.status == StatusComplete {
			return
		}
		previous[t] = t.status
		// Nested op call: absorbed into this edit.
		err = m.setStatus.Call(edit.NewArgs(t, StatusComplete))
	})
	if err != nil {
		return err
	}
	return tx.AttachInverse(edit.Action{Name: "restore_statuses", Fn: restoreStatuses, Args: edit.NewArgs(previous)})
}

func restoreStatuses(args edit.Args) error {
	for t, s := range args.At(0).(map[*Task]Status) {
		t.status = s
	}
	return nil
}

func (m *Manager) optionalParent(path string) (*Task, error) {
	if path == "" {
		return nil, nil
	}
	return m.tree.Get(path)
}

func clampIndex(i, last int) int {
	return min(max(i, 0), last)
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + PathSeparator + name
}
