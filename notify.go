package chapters

import (
	"time"

	"github.com/google/uuid"
)

// Kind names a Library operation in notifications.
type Kind string

const (
	KindImport Kind = "import"
	KindOpen   Kind = "open"
	KindSave   Kind = "save"
	KindSaveAs Kind = "save-as"
)

// Op identifies one running operation. Every notification for the same
// operation carries the same Op.
type Op struct {
	ID   uuid.UUID
	Kind Kind
	Path string // source path the operation was started with
}

// Result is delivered with an operation's Complete notification and by
// Task.Wait. Which fields are set depends on the operation: imports and
// opens fill Meta (and opens Duration), writes fill OutputPath.
type Result struct {
	Meta       MetaData
	Duration   time.Duration
	OutputPath string
}

// Listener receives operation lifecycle notifications: one Started, zero
// or more Progress calls with percentages in 0..100, then exactly one of
// Complete or Failed. Callbacks run on the operation's goroutine and
// must not block for long.
type Listener interface {
	Started(op Op)
	Progress(op Op, percent int)
	Complete(op Op, result Result)
	Failed(op Op, err error)
}

// nopListener stands in when a Library is constructed without a listener.
type nopListener struct{}

func (nopListener) Started(Op)          {}
func (nopListener) Progress(Op, int)    {}
func (nopListener) Complete(Op, Result) {}
func (nopListener) Failed(Op, error)    {}
