package codepool

import "context"

// Repo persists code reservations. Reservation rows outlive nothing:
// they are created when an appointment is booked and removed when it is
// cancelled, so the set of reserved numbers is exactly the set of live
// appointment codes.
type Repo interface {
	// UsedNumbers returns every reserved pool number.
	UsedNumbers(ctx context.Context) (map[int]bool, error)

	// TryReserve inserts a reservation for the code. It returns
	// ErrCodeTaken when the code is already reserved.
	TryReserve(ctx context.Context, code string, num int, actor Actor) error

	// Release removes a reservation. Releasing an unknown code is not
	// an error.
	Release(ctx context.Context, code string) error
}
