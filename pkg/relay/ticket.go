package relay

import (
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Ticket is a command's position in the admission queue. The gate owns the
// ticket until it hands it to the dispatcher; after that the gate never
// mutates it again.
type Ticket struct {
	ID         string
	Cmd        InboundCommand
	EnqueuedAt time.Time

	// cancelled marks the ticket discarded before dispatch. Guarded by the
	// gate mutex.
	cancelled bool
}

func newTicket(cmd InboundCommand, now time.Time) *Ticket {
	id, _ := gonanoid.New()
	return &Ticket{
		ID:         id,
		Cmd:        cmd,
		EnqueuedAt: now,
	}
}
