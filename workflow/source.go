package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"umrah-desk/api"
	"umrah-desk/order"
)

// Source reads orders from the agent and public booking collections.
type Source struct {
	Backend Backend
	Log     *logrus.Logger
}

// FetchOrders returns agent orders followed by public orders. A collection
// that cannot be read contributes nothing; only when both fail is the fetch
// an error.
func (s *Source) FetchOrders(ctx context.Context, rc api.RequestContext) ([]order.Order, error) {
	agent, agentErr := s.Backend.ListBookings(ctx, rc, api.AgentBookingsPath, "")
	if agentErr != nil {
		s.degraded(rc, order.OriginAgent, agentErr)
	}
	public, publicErr := s.Backend.ListBookings(ctx, rc, api.PublicBookingsPath, "")
	if publicErr != nil {
		s.degraded(rc, order.OriginPublic, publicErr)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if agentErr != nil && publicErr != nil {
		return nil, fmt.Errorf("%w: agent: %v; public: %v", ErrSourcesUnavailable, agentErr, publicErr)
	}

	orders := make([]order.Order, 0, len(agent)+len(public))
	for _, b := range agent {
		orders = append(orders, order.FromAgent(b))
	}
	for _, b := range public {
		orders = append(orders, order.FromPublic(b))
	}
	return orders, nil
}

// FetchOrder looks a booking number up in the agent collection and only
// then in the public one. A miss in both is ErrNotFound.
func (s *Source) FetchOrder(ctx context.Context, rc api.RequestContext, bookingNumber string) (order.Order, error) {
	bookingNumber = strings.TrimSpace(bookingNumber)
	if bookingNumber == "" {
		return order.Order{}, fmt.Errorf("%w: empty booking number", ErrNotFound)
	}

	agent, err := s.Backend.ListBookings(ctx, rc, api.AgentBookingsPath, bookingNumber)
	if err != nil {
		s.degraded(rc, order.OriginAgent, err)
	} else if b, ok := exactMatch(agent, bookingNumber); ok {
		return order.FromAgent(b), nil
	}

	public, err := s.Backend.ListBookings(ctx, rc, api.PublicBookingsPath, bookingNumber)
	if err != nil {
		s.degraded(rc, order.OriginPublic, err)
	} else if b, ok := exactMatch(public, bookingNumber); ok {
		return order.FromPublic(b), nil
	}

	if err := ctx.Err(); err != nil {
		return order.Order{}, err
	}
	return order.Order{}, fmt.Errorf("%w: %s", ErrNotFound, bookingNumber)
}

// The collections filter loosely, so the number is checked again here.
func exactMatch(bookings []api.Booking, bookingNumber string) (api.Booking, bool) {
	for _, b := range bookings {
		if b.BookingNumber == bookingNumber {
			return b, true
		}
	}
	return api.Booking{}, false
}

// ResolveAgencies attaches agency records to agent orders that reference an
// agency only by id. Each agency is fetched once; a failed lookup leaves the
// order unresolved.
func (s *Source) ResolveAgencies(ctx context.Context, rc api.RequestContext, orders []order.Order) []order.Order {
	cache := map[int64]*api.Agency{}
	out := make([]order.Order, len(orders))
	for i, o := range orders {
		out[i] = s.resolve(ctx, rc, o, cache)
	}
	return out
}

func (s *Source) ResolveAgency(ctx context.Context, rc api.RequestContext, o order.Order) order.Order {
	return s.resolve(ctx, rc, o, map[int64]*api.Agency{})
}

func (s *Source) resolve(ctx context.Context, rc api.RequestContext, o order.Order, cache map[int64]*api.Agency) order.Order {
	if o.Origin != order.OriginAgent || o.Agency != nil {
		return o
	}
	if embedded := o.AgencyRecord(); embedded != nil {
		o.Agency = embedded
		return o
	}
	id := o.Booking.AgencyKey()
	if id == 0 {
		return o
	}
	agency, seen := cache[id]
	if !seen {
		var err error
		agency, err = s.Backend.GetAgency(ctx, rc, id)
		if err != nil {
			s.Log.WithFields(logrus.Fields{
				"agency_id":      id,
				"booking_number": o.BookingNumber(),
			}).WithError(err).Warn("agency lookup failed")
			agency = nil
		}
		cache[id] = agency
	}
	o.Agency = agency
	return o
}

func (s *Source) degraded(rc api.RequestContext, origin order.Origin, err error) {
	s.Log.WithFields(logrus.Fields{
		"origin":       origin,
		"organization": rc.OrganizationID,
	}).WithError(err).Warn("booking source unavailable")
}
