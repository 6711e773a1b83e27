package workflow

import (
	"context"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"umrah-desk/api"
	"umrah-desk/order"
)

const (
	VisaPending  = "Pending"
	VisaApproved = "Approved"
	VisaRejected = "Rejected"
)

// Visa updates per-passenger visa state after an order is approved.
type Visa struct {
	Backend Backend
	Log     *logrus.Logger

	locks *bookingLocks
}

func ParseVisaStatus(s string) (string, error) {
	switch order.ParseStatus(s) {
	case order.StatusPending:
		return VisaPending, nil
	case order.StatusApproved:
		return VisaApproved, nil
	case order.StatusRejected:
		return VisaRejected, nil
	}
	return "", fmt.Errorf("unknown visa status %q (expected Pending, Approved or Rejected)", s)
}

// SetStatus sets visa_status on the passengers at indexes and writes the
// whole passenger list back together with the booking's owner keys.
func (v *Visa) SetStatus(ctx context.Context, rc api.RequestContext, o order.Order, indexes []int, status string) (order.Order, error) {
	status, err := ParseVisaStatus(status)
	if err != nil {
		return o, err
	}
	if len(indexes) == 0 {
		return o, ErrNothingSelected
	}

	persons := make([]api.Person, len(o.Booking.PersonDetails))
	copy(persons, o.Booking.PersonDetails)
	selected := map[int]struct{}{}
	for _, index := range indexes {
		if index < 0 || index >= len(persons) {
			return o, fmt.Errorf("%w: %d passengers, got %d", ErrIndexOutOfRange, len(persons), index)
		}
		selected[index] = struct{}{}
	}
	for index := range selected {
		persons[index].VisaStatus = status
	}

	objects := make([]api.Object, 0, len(persons))
	for _, p := range persons {
		obj, err := api.EncodeObject(p, "booking")
		if err != nil {
			return o, fmt.Errorf("encode passenger: %w", err)
		}
		objects = append(objects, obj)
	}
	payload := map[string]any{"person_details": objects}
	owners := map[string]int64{
		"agency_id":       o.Booking.AgencyKey(),
		"user_id":         o.Booking.UserKey(),
		"organization_id": o.Booking.OrganizationKey(),
		"branch_id":       o.Booking.BranchKey(),
	}
	for key, id := range owners {
		if id != 0 {
			payload[key] = id
		}
	}

	release, err := v.locks.acquire(o.BookingNumber())
	if err != nil {
		return o, err
	}
	defer release()

	entry := v.Log.WithFields(logrus.Fields{
		"booking_number": o.BookingNumber(),
		"visa_status":    status,
		"passengers":     sortedKeys(selected),
	})
	if err := v.Backend.PatchBooking(ctx, rc, o.Origin.Collection(), o.Booking.ID, payload); err != nil {
		entry.WithError(err).Error("visa update failed")
		return o, fmt.Errorf("visa %s for %s: %w", status, o.BookingNumber(), err)
	}
	entry.Info("visa status updated")

	o.Booking.PersonDetails = persons
	return o, nil
}

func (v *Visa) Shirkas(ctx context.Context, rc api.RequestContext) ([]api.Shirka, error) {
	return v.Backend.ListShirkas(ctx, rc)
}

func sortedKeys(set map[int]struct{}) []int {
	keys := make([]int, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
