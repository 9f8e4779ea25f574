package tui

import (
	"time"

	"github.com/taskdeck/taskdeck/internal/domain"
)

// cachedTasksMsg carries the snapshot painted before the first fetch lands.
type cachedTasksMsg struct {
	tasks     []domain.Task
	fetchedAt time.Time
}

// tasksFetchedMsg is the result of one list fetch. seq orders completions:
// a fetch that finishes after a newer one has been applied is discarded.
type tasksFetchedMsg struct {
	seq   int
	tasks []domain.Task
	err   error
}

// taskMutatedMsg reports the outcome of a create/toggle/delete.
type taskMutatedMsg struct {
	verb string
	err  error
}

// chatReplyMsg carries the assistant's reply or the turn's failure.
type chatReplyMsg struct {
	reply string
	err   error
}

// tasksChangedMsg arrives when the synchronization bus fires: something may
// have changed, refetch. It carries no payload by design.
type tasksChangedMsg struct{}
