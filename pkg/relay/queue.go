package relay

// FairnessPolicy selects how the gate orders pending tickets.
type FairnessPolicy string

const (
	// FairnessFIFO services tickets strictly in arrival order. A single chat
	// may occupy the whole queue.
	FairnessFIFO FairnessPolicy = "fifo"
	// FairnessRoundRobin rotates between chats with pending tickets, FIFO
	// within each chat.
	FairnessRoundRobin FairnessPolicy = "round_robin"
)

// admissionQueue holds pending tickets. Implementations are not goroutine
// safe; the gate serializes all access under its mutex.
type admissionQueue interface {
	push(t *Ticket)
	pop() *Ticket
	len() int
}

func newAdmissionQueue(policy FairnessPolicy) admissionQueue {
	if policy == FairnessRoundRobin {
		return &roundRobinQueue{chats: make(map[int64][]*Ticket)}
	}
	return &fifoQueue{}
}

type fifoQueue struct {
	tickets []*Ticket
}

func (q *fifoQueue) push(t *Ticket) {
	q.tickets = append(q.tickets, t)
}

func (q *fifoQueue) pop() *Ticket {
	if len(q.tickets) == 0 {
		return nil
	}
	t := q.tickets[0]
	q.tickets[0] = nil
	q.tickets = q.tickets[1:]
	return t
}

func (q *fifoQueue) len() int {
	return len(q.tickets)
}

// roundRobinQueue keeps a FIFO per chat and rotates between chats that have
// pending tickets.
type roundRobinQueue struct {
	chats map[int64][]*Ticket
	order []int64
	next  int
	size  int
}

func (q *roundRobinQueue) push(t *Ticket) {
	id := t.Cmd.ChatID
	if _, ok := q.chats[id]; !ok {
		q.order = append(q.order, id)
	}
	q.chats[id] = append(q.chats[id], t)
	q.size++
}

func (q *roundRobinQueue) pop() *Ticket {
	if q.size == 0 {
		return nil
	}
	if q.next >= len(q.order) {
		q.next = 0
	}

	id := q.order[q.next]
	queue := q.chats[id]
	t := queue[0]

	if len(queue) == 1 {
		delete(q.chats, id)
		q.order = append(q.order[:q.next], q.order[q.next+1:]...)
	} else {
		q.chats[id] = queue[1:]
		q.next++
	}

	q.size--
	return t
}

func (q *roundRobinQueue) len() int {
	return q.size
}
