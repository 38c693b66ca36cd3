package store

import (
	"time"

	"github.com/kingrea/roitrack/internal/task"
)

// UndoTicket describes the most recently deleted task while it can still be
// restored. Seq increases with every delete.
type UndoTicket struct {
	Seq       uint64
	Task      task.Task
	ExpiresAt time.Time
}

// undoSlot holds at most one ticket.
type undoSlot struct {
	seq    uint64
	ticket UndoTicket
	full   bool
}

func (u *undoSlot) put(t task.Task, expiresAt time.Time) UndoTicket {
	u.seq++
	u.ticket = UndoTicket{Seq: u.seq, Task: t, ExpiresAt: expiresAt}
	u.full = true
	return u.ticket
}

func (u *undoSlot) current() (UndoTicket, bool) {
	if !u.full {
		return UndoTicket{}, false
	}
	return u.ticket, true
}

func (u *undoSlot) clear() bool {
	if !u.full {
		return false
	}
	u.ticket = UndoTicket{}
	u.full = false
	return true
}
