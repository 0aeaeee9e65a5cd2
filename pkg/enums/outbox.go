package enums

// EventType identifies a domain event recorded in the outbox table.
type EventType string

const (
	EventOrderCreated       EventType = "order.created"
	EventOrderCancelled     EventType = "order.cancelled"
	EventOrderStatusChanged EventType = "order.status_changed"
)

// AggregateType identifies the aggregate an outbox event belongs to.
type AggregateType string

const (
	AggregateOrder AggregateType = "order"
)

// String implements fmt.Stringer.
func (e EventType) String() string {
	return string(e)
}

// String implements fmt.Stringer.
func (a AggregateType) String() string {
	return string(a)
}
