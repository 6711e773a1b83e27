package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// Each booking origin owns one collection endpoint; every write for a
// booking goes back to the collection it was read from.
const (
	AgentBookingsPath  = "/bookings/"
	PublicBookingsPath = "/admin/public-bookings/"
)

// ListBookings reads one booking collection for the organization. An empty
// bookingNumber lists everything.
func (c *Client) ListBookings(ctx context.Context, rc RequestContext, collection, bookingNumber string) ([]Booking, error) {
	q := url.Values{}
	q.Set("organization", rc.organization())
	if bookingNumber != "" {
		q.Set("booking_number", bookingNumber)
	}

	req, err := c.newRequest(ctx, rc, http.MethodGet, collection, q, nil)
	if err != nil {
		return nil, err
	}

	var bookings []Booking
	if err := c.doList(req, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

// PatchBooking sends a partial update to the booking's own collection.
func (c *Client) PatchBooking(ctx context.Context, rc RequestContext, collection string, id int64, payload any) error {
	if id == 0 {
		return fmt.Errorf("patch booking: missing id")
	}
	req, err := c.newRequest(ctx, rc, http.MethodPatch, bookingPath(collection, id), nil, payload)
	if err != nil {
		return err
	}
	return c.doStatus(req)
}

func (c *Client) ConfirmPublicBooking(ctx context.Context, rc RequestContext, id int64) error {
	return c.publicAction(ctx, rc, id, "confirm")
}

func (c *Client) ApprovePublicBooking(ctx context.Context, rc RequestContext, id int64) error {
	return c.publicAction(ctx, rc, id, "approve")
}

func (c *Client) publicAction(ctx context.Context, rc RequestContext, id int64, action string) error {
	if id == 0 {
		return fmt.Errorf("%s public booking: missing id", action)
	}
	path := bookingPath(PublicBookingsPath, id) + action + "/"
	req, err := c.newRequest(ctx, rc, http.MethodPost, path, nil, map[string]any{})
	if err != nil {
		return err
	}
	return c.doStatus(req)
}

func bookingPath(collection string, id int64) string {
	return collection + strconv.FormatInt(id, 10) + "/"
}
