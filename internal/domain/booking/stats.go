package booking

// Stats is a reduction over a set of bookings.
type Stats struct {
	Total           int64 `json:"total"`
	Pending         int64 `json:"pending"`
	Confirmed       int64 `json:"confirmed"`
	Completed       int64 `json:"completed"`
	Cancelled       int64 `json:"cancelled"`
	Revenue         int64 `json:"revenue"`
	PendingPayments int64 `json:"pendingPayments"`
}

// ComputeStats counts bookings per status and sums revenue (completed and
// paid) and outstanding payments (payment pending).
func ComputeStats(bookings []*Booking) Stats {
	var s Stats
	for _, b := range bookings {
		s.Total++
		switch b.Status() {
		case StatusPending:
			s.Pending++
		case StatusConfirmed:
			s.Confirmed++
		case StatusCompleted:
			s.Completed++
		case StatusCancelled:
			s.Cancelled++
		}

		if b.Status() == StatusCompleted && b.PaymentStatus() == PaymentPaid {
			s.Revenue += b.TotalPrice()
		}
		if b.PaymentStatus() == PaymentPending {
			s.PendingPayments += b.TotalPrice()
		}
	}
	return s
}
