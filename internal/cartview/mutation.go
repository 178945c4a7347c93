package cartview

// Class groups mutations that must not overlap. Different classes never block
// each other.
type Class int

const (
	// RemoveClass covers decrementing and removing single lines.
	RemoveClass Class = iota
	// ClearClass covers emptying the cart.
	ClearClass

	numClasses
)

func (c Class) String() string {
	switch c {
	case RemoveClass:
		return "remove"
	case ClearClass:
		return "clear"
	default:
		return "unknown"
	}
}

// Phase is the state of one mutation class.
type Phase int

const (
	Idle Phase = iota
	Pending
	// Failed means the last mutation of the class failed and was reconciled.
	// It accepts a new mutation like Idle does.
	Failed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Busy reports whether the class has a mutation in flight.
func (p Phase) Busy() bool {
	return p == Pending
}

// Result describes what a user-triggered mutation did.
type Result int

const (
	// Skipped: no authenticated user, nothing was called.
	Skipped Result = iota
	// Busy: a mutation of the same class was already in flight.
	Busy
	// Unconfirmed: clear was confirmed without an open confirmation dialog.
	Unconfirmed
	Succeeded
	// Failed: the store call failed; a failure notification was sent and the
	// store was reconciled.
	FailedResult
)

func (r Result) String() string {
	switch r {
	case Skipped:
		return "skipped"
	case Busy:
		return "busy"
	case Unconfirmed:
		return "unconfirmed"
	case Succeeded:
		return "succeeded"
	case FailedResult:
		return "failed"
	default:
		return "unknown"
	}
}

type phases [numClasses]Phase

// begin moves class c to Pending. It refuses when c is already Pending.
func (p *phases) begin(c Class) bool {
	if p[c].Busy() {
		return false
	}
	p[c] = Pending
	return true
}

func (p *phases) finish(c Class, ok bool) {
	if ok {
		p[c] = Idle
		return
	}
	p[c] = Failed
}
