package orders

// Transitions decides which status changes updateStatus accepts.
type Transitions interface {
	Allowed(from, to string) bool
}

// Permissive accepts any change between valid statuses, including no-ops and
// reopening a completed or cancelled order. Operators use it to correct mistakes.
type Permissive struct{}

func (Permissive) Allowed(from, to string) bool { return ValidStatus(to) }

// Strict only allows a pending order to be completed or cancelled.
type Strict struct{}

func (Strict) Allowed(from, to string) bool {
	return from == StatusPending && (to == StatusCompleted || to == StatusCancelled)
}
