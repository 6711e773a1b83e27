package workflow

import (
	"context"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"umrah-desk/api"
	"umrah-desk/order"
)

type Availability string

const (
	Available      Availability = "Available"
	NotAvailable   Availability = "NotAvailable"
	AvailabilityNA Availability = "N/A"
)

const defaultAvailabilityWorkers = 4

// LineCheck is the outcome for one hotel line. A line is skipped when it
// lacks a hotel or a date; Err is set when the query itself failed.
type LineCheck struct {
	Index     int    `json:"index"`
	HotelID   int64  `json:"hotel_id"`
	HotelName string `json:"hotel_name,omitempty"`
	DateFrom  string `json:"date_from,omitempty"`
	DateTo    string `json:"date_to,omitempty"`
	Skipped   bool   `json:"skipped,omitempty"`
	Rooms     int    `json:"available_rooms"`
	Err       error  `json:"-"`
	Error     string `json:"error,omitempty"`
}

// Available is deliberately generous: skipped and failed lines count as
// available.
func (l LineCheck) Available() bool {
	return l.Skipped || l.Err != nil || l.Rooms > 0
}

type Report struct {
	Result Availability `json:"result"`
	Lines  []LineCheck  `json:"lines"`
}

// Reduce folds line checks into the booking's availability.
func Reduce(lines []LineCheck) Availability {
	if len(lines) == 0 {
		return AvailabilityNA
	}
	for _, line := range lines {
		if !line.Available() {
			return NotAvailable
		}
	}
	return Available
}

// Checker reports hotel availability for a booking. The report is
// informational and gates nothing.
type Checker struct {
	Backend Backend
	Log     *logrus.Logger
	Workers int
}

func (c *Checker) Check(ctx context.Context, rc api.RequestContext, o order.Order) (Report, error) {
	hotels := o.Booking.HotelDetails
	if len(hotels) == 0 {
		return Report{Result: AvailabilityNA, Lines: []LineCheck{}}, nil
	}

	lines := make([]LineCheck, len(hotels))
	var g errgroup.Group
	g.SetLimit(c.workers())

	for i, hotel := range hotels {
		line := LineCheck{Index: i, HotelID: hotel.Hotel.ID, HotelName: hotel.Name()}
		from, okFrom := order.CalendarDate(hotel.CheckInDate)
		to, okTo := order.CalendarDate(hotel.CheckOutDate)
		line.DateFrom, line.DateTo = from, to
		if line.HotelID == 0 || !okFrom || !okTo {
			line.Skipped = true
			lines[i] = line
			continue
		}

		g.Go(func() error {
			availability, err := c.Backend.CheckHotelAvailability(ctx, rc, line.HotelID, line.DateFrom, line.DateTo)
			if err != nil {
				line.Err = err
				line.Error = err.Error()
				c.Log.WithFields(logrus.Fields{
					"booking_number": o.BookingNumber(),
					"hotel_id":       line.HotelID,
				}).WithError(err).Warn("availability query failed, assuming available")
			} else {
				line.Rooms = availability.AvailableRooms
			}
			lines[i] = line
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return Report{}, err
	}
	return Report{Result: Reduce(lines), Lines: lines}, nil
}

func (c *Checker) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return defaultAvailabilityWorkers
}
