package model

// EventKind is the closed set of gateway webhook events the dispatcher
// understands. Unknown wire strings map to EventUnhandled explicitly rather
// than missing a dynamic lookup.
type EventKind string

const (
	EventUnhandled       EventKind = "unhandled"
	EventPaymentCaptured EventKind = "payment.captured"
	EventPaymentFailed   EventKind = "payment.failed"
	EventOrderPaid       EventKind = "order.paid"
)

// ParseEventKind maps a wire event string to its kind.
func ParseEventKind(s string) EventKind {
	switch EventKind(s) {
	case EventPaymentCaptured:
		return EventPaymentCaptured
	case EventPaymentFailed:
		return EventPaymentFailed
	case EventOrderPaid:
		return EventOrderPaid
	default:
		return EventUnhandled
	}
}

// Outcome maps the event to the ledger outcome it implies. order.paid is
// treated as a capture confirmation.
func (k EventKind) Outcome() (PaymentOutcome, bool) {
	switch k {
	case EventPaymentCaptured, EventOrderPaid:
		return OutcomePaid, true
	case EventPaymentFailed:
		return OutcomeFailed, true
	default:
		return "", false
	}
}
