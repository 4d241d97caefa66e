package orders

// ShippingPolicy is a flat fee waived at or above FreeOverCents.
// A zero FreeOverCents never waives the fee.
type ShippingPolicy struct {
	FlatCents     int64
	FreeOverCents int64
}

func (p ShippingPolicy) Quote(subtotalCents int64) int64 {
	if subtotalCents <= 0 {
		return 0
	}
	if p.FreeOverCents > 0 && subtotalCents >= p.FreeOverCents {
		return 0
	}
	return p.FlatCents
}

var transitions = map[string][]string{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered},
	StatusDelivered:  {StatusRefunded},
}

func CanTransition(from, to string) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// NextStatuses lists where an order in status may go next.
func NextStatuses(status string) []string {
	return append([]string{}, transitions[status]...)
}

// CustomerCancellable reports whether the shopper may still cancel.
func CustomerCancellable(status string) bool {
	return CanTransition(status, StatusCancelled)
}
