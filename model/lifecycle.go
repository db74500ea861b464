package model

import "fmt"

// NoteState is the lifecycle position of a note. It is derived from the
// is_deleted/is_archived flags stored remotely; Purged only exists locally.
type NoteState int

const (
	StateActive NoteState = iota
	StateArchived
	StateTrashed
	StatePurged
)

func (s NoteState) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateArchived:
		return "archived"
	case StateTrashed:
		return "trashed"
	case StatePurged:
		return "purged"
	default:
		return fmt.Sprintf("NoteState(%d)", int(s))
	}
}

type LifecycleEvent string

const (
	EventArchive   LifecycleEvent = "archive"
	EventUnarchive LifecycleEvent = "unarchive"
	EventTrash     LifecycleEvent = "trash"
	EventRestore   LifecycleEvent = "restore"
	EventPurge     LifecycleEvent = "purge"
)

// State derives the lifecycle state from the persisted flags. Trash wins
// over archive; is_archived survives a trip through the trash.
func (n Note) State() NoteState {
	switch {
	case n.IsDeleted:
		return StateTrashed
	case n.IsArchived:
		return StateArchived
	default:
		return StateActive
	}
}

var transitions = map[NoteState]map[LifecycleEvent]NoteState{
	StateActive: {
		EventArchive: StateArchived,
		EventTrash:   StateTrashed,
		EventPurge:   StatePurged,
	},
	StateArchived: {
		EventUnarchive: StateActive,
		EventTrash:     StateTrashed,
		EventPurge:     StatePurged,
	},
	StateTrashed: {
		// the real target depends on is_archived, see Note.Transition
		EventRestore: StateActive,
		EventPurge:   StatePurged,
	},
}

// Transition validates ev against the note's current state and returns the
// state it leads to together with the flag patch that persists it. Purge
// yields an empty patch; it is a delete, not an update.
func (n Note) Transition(ev LifecycleEvent) (NoteState, NotePatch, error) {
	from := n.State()
	to, ok := transitions[from][ev]
	if !ok {
		return from, NotePatch{}, fmt.Errorf("%w: cannot %s a %s note", ErrInvalidTransition, ev, from)
	}

	var patch NotePatch
	switch ev {
	case EventArchive:
		patch.IsArchived = BoolPtr(true)
	case EventUnarchive:
		patch.IsArchived = BoolPtr(false)
	case EventTrash:
		patch.IsDeleted = BoolPtr(true)
	case EventRestore:
		patch.IsDeleted = BoolPtr(false)
		if n.IsArchived {
			to = StateArchived
		}
	}
	return to, patch, nil
}
