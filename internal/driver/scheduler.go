package driver

import (
	"container/heap"
	"context"
	"time"
)

// Task is a unit of scheduled work. now is the time the scheduler was run at,
// which may be later than the task's due time.
type Task func(ctx context.Context, now time.Time)

// TaskID identifies a scheduled task so it can be cancelled.
type TaskID uint64

// Scheduler is a single-threaded timer queue. It never runs tasks on its own;
// the owner calls RunDue with the current time and is responsible for
// serialising calls.
type Scheduler struct {
	queue    taskQueue
	byID     map[TaskID]*entry
	inFlight map[TaskID]*entry
	nextID   TaskID
	nextSeq  uint64
}

func NewScheduler() *Scheduler {
	return &Scheduler{
		byID:     map[TaskID]*entry{},
		inFlight: map[TaskID]*entry{},
	}
}

type entry struct {
	id       TaskID
	name     string
	due      time.Time
	seq      uint64
	interval time.Duration
	task     Task
	index    int
	stopped  bool
}

// Every registers a periodic task first due at start+interval.
func (s *Scheduler) Every(name string, start time.Time, interval time.Duration, task Task) TaskID {
	if interval <= 0 {
		panic("driver: non-positive interval for " + name)
	}
	return s.push(name, start.Add(interval), interval, task)
}

// At schedules a one-shot task at due.
func (s *Scheduler) At(name string, due time.Time, task Task) TaskID {
	return s.push(name, due, 0, task)
}

// Cancel removes a pending task. It reports whether the task was still pending.
func (s *Scheduler) Cancel(id TaskID) bool {
	if e, ok := s.inFlight[id]; ok {
		e.stopped = true
		delete(s.inFlight, id)
		return true
	}
	e, ok := s.byID[id]
	if !ok {
		return false
	}
	heap.Remove(&s.queue, e.index)
	delete(s.byID, id)
	return true
}

func (s *Scheduler) pending() int {
	return len(s.queue)
}

// nextDue returns the due time of the earliest queued task.
func (s *Scheduler) nextDue() (time.Time, bool) {
	if len(s.queue) == 0 {
		return time.Time{}, false
	}
	return s.queue[0].due, true
}

// RunDue executes every task due at or before now in due order, ties broken
// by scheduling order. A periodic task runs at most once per call and is
// rescheduled from its due time; if it has fallen more than an interval
// behind it is rescheduled relative to now. Tasks scheduled by a running task
// that are already due run in the same call. Returns the number of tasks run.
func (s *Scheduler) RunDue(ctx context.Context, now time.Time) int {
	ran := 0
	var periodic []*entry

	for len(s.queue) > 0 && !s.queue[0].due.After(now) {
		e := heap.Pop(&s.queue).(*entry)
		delete(s.byID, e.id)

		if e.interval > 0 {
			periodic = append(periodic, e)
			s.inFlight[e.id] = e
		}

		e.task(ctx, now)
		ran++
	}

	for _, e := range periodic {
		delete(s.inFlight, e.id)
		if e.stopped {
			continue
		}
		next := e.due.Add(e.interval)
		if !next.After(now) {
			next = now.Add(e.interval)
		}
		e.due = next
		e.seq = s.seq()
		s.byID[e.id] = e
		heap.Push(&s.queue, e)
	}

	return ran
}

func (s *Scheduler) push(name string, due time.Time, interval time.Duration, task Task) TaskID {
	s.nextID++
	e := &entry{
		id:       s.nextID,
		name:     name,
		due:      due,
		seq:      s.seq(),
		interval: interval,
		task:     task,
	}
	s.byID[e.id] = e
	heap.Push(&s.queue, e)
	return e.id
}

func (s *Scheduler) seq() uint64 {
	s.nextSeq++
	return s.nextSeq
}

type taskQueue []*entry

func (q taskQueue) Len() int { return len(q) }

func (q taskQueue) Less(i, j int) bool {
	if q[i].due.Equal(q[j].due) {
		return q[i].seq < q[j].seq
	}
	return q[i].due.Before(q[j].due)
}

func (q taskQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *taskQueue) Push(x any) {
	e := x.(*entry)
	e.index = len(*q)
	*q = append(*q, e)
}

func (q *taskQueue) Pop() any {
	old := *q
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*q = old[:n-1]
	return e
}
