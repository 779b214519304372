package chapters

// Task is the awaitable handle for one background operation. It lets a
// caller wait for an outcome without implementing a Listener, or select
// on Done alongside other work.
type Task struct {
	op     Op
	done   chan struct{}
	result Result
	err    error
}

func newTask(op Op) *Task {
	return &Task{op: op, done: make(chan struct{})}
}

// Op returns the operation identity this task tracks.
func (t *Task) Op() Op {
	return t.op
}

// Done returns a channel that is closed when the operation finishes,
// whether it completed or failed.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the operation finishes and returns its outcome.
func (t *Task) Wait() (Result, error) {
	<-t.done
	return t.result, t.err
}

// finish publishes the outcome. Called exactly once, after the listener
// notifications for the outcome have been delivered.
func (t *Task) finish(result Result, err error) {
	t.result = result
	t.err = err
	close(t.done)
}
