package replication

// DeferredQueue runs callbacks a fixed number of steps after they were
// scheduled. Drain is called exactly once per simulation or render step.
type DeferredQueue struct {
	step  uint64
	tasks []deferredTask
	seq   uint64
}

type deferredTask struct {
	due uint64
	seq uint64
	fn  func()
}

// After schedules fn to run on the steps-th Drain from now. steps <= 0 runs
// on the next Drain.
func (q *DeferredQueue) After(steps int, fn func()) {
	if fn == nil {
		return
	}
	if steps < 1 {
		steps = 1
	}
	q.seq++
	q.tasks = append(q.tasks, deferredTask{due: q.step + uint64(steps), seq: q.seq, fn: fn})
}

// Drain advances one step and runs every due task in scheduling order.
// Tasks scheduled by a running task are never run in the same Drain.
func (q *DeferredQueue) Drain() int {
	q.step++
	if len(q.tasks) == 0 {
		return 0
	}
	var due []deferredTask
	keep := q.tasks[:0]
	for _, t := range q.tasks {
		if t.due <= q.step {
			due = append(due, t)
		} else {
			keep = append(keep, t)
		}
	}
	// Copy out the survivors so tasks appended while running do not alias.
	q.tasks = append([]deferredTask(nil), keep...)
	for _, t := range due {
		t.fn()
	}
	return len(due)
}

func (q *DeferredQueue) Len() int { return len(q.tasks) }

func (q *DeferredQueue) Step() uint64 { return q.step }
