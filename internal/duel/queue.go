package duel

// Queue is the ordered set of users awaiting a match. Insertion order is
// preserved so the matcher can scan fairly, and a user id appears at most
// once. Queue is not self-locking; the engine serializes access.
type Queue struct {
	order []int64
	index map[int64]struct{}
}

// NewQueue creates an empty wait queue.
func NewQueue() *Queue {
	return &Queue{index: make(map[int64]struct{})}
}

// Enqueue appends userID to the back of the queue. It is a no-op
// returning false when userID is not positive or already present.
func (q *Queue) Enqueue(userID int64) bool {
	if userID <= 0 {
		return false
	}
	if _, ok := q.index[userID]; ok {
		return false
	}
	q.order = append(q.order, userID)
	q.index[userID] = struct{}{}
	return true
}

// Dequeue removes userID if present. Absence is a no-op returning false.
func (q *Queue) Dequeue(userID int64) bool {
	if _, ok := q.index[userID]; !ok {
		return false
	}
	delete(q.index, userID)
	for i, id := range q.order {
		if id == userID {
			q.order = append(q.order[:i], q.order[i+1:]...)
			break
		}
	}
	return true
}

// Contains reports whether userID is waiting in the queue.
func (q *Queue) Contains(userID int64) bool {
	_, ok := q.index[userID]
	return ok
}

// Snapshot returns the queued user ids in insertion order.
func (q *Queue) Snapshot() []int64 {
	out := make([]int64, len(q.order))
	copy(out, q.order)
	return out
}

// Len returns the number of waiting users.
func (q *Queue) Len() int {
	return len(q.order)
}
