package order

import (
	"sort"
	"strings"

	"umrah-desk/api"
)

// Origin says which backend collection a booking was read from and so which
// one owns its writes.
type Origin string

const (
	OriginAgent  Origin = "agent"
	OriginPublic Origin = "public"
)

func (o Origin) Collection() string {
	if o == OriginPublic {
		return api.PublicBookingsPath
	}
	return api.AgentBookingsPath
}

type Order struct {
	Origin  Origin
	Status  Status
	Booking api.Booking
	// Agency is the resolved agency of an agent booking, when known.
	Agency *api.Agency
}

func FromAgent(b api.Booking) Order {
	return Order{Origin: OriginAgent, Status: ParseStatus(b.Status), Booking: b}
}

func FromPublic(b api.Booking) Order {
	return Order{Origin: OriginPublic, Status: ParseStatus(b.Status), Booking: b}
}

func (o Order) BookingNumber() string {
	return o.Booking.BookingNumber
}

func (o Order) IsPublic() bool {
	return o.Origin == OriginPublic || o.Booking.IsPublicBooking
}

// AgencyRecord returns the resolved agency, or the one embedded in the
// booking payload.
func (o Order) AgencyRecord() *api.Agency {
	if o.Agency != nil {
		return o.Agency
	}
	var agency api.Agency
	if ok, err := o.Booking.Agency.Decode(&agency); ok && err == nil {
		return &agency
	}
	return nil
}

// HasAgency reports whether the booking references an agency at all,
// resolved or not.
func (o Order) HasAgency() bool {
	return o.Agency != nil || o.Booking.AgencyKey() != 0
}

// WithStatus returns a copy advanced to s, raw string included.
func (o Order) WithStatus(s Status) Order {
	o.Status = s
	o.Booking.Status = string(s)
	return o
}

func SortByBookingNumber(orders []Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		return strings.ToLower(orders[i].BookingNumber()) < strings.ToLower(orders[j].BookingNumber())
	})
}

// Paginate returns page (1-based) of size items and the page count.
func Paginate(orders []Order, page, size int) ([]Order, int) {
	if size <= 0 {
		return orders, 1
	}
	pages := (len(orders) + size - 1) / size
	if pages == 0 {
		pages = 1
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * size
	if start >= len(orders) {
		return []Order{}, pages
	}
	end := start + size
	if end > len(orders) {
		end = len(orders)
	}
	return orders[start:end], pages
}
