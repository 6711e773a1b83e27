package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// CheckHotelAvailability asks how many rooms a hotel owned by the request's
// organization has free between two calendar dates (YYYY-MM-DD).
func (c *Client) CheckHotelAvailability(ctx context.Context, rc RequestContext, hotelID int64, dateFrom, dateTo string) (HotelAvailability, error) {
	q := url.Values{}
	q.Set("hotel_id", strconv.FormatInt(hotelID, 10))
	q.Set("date_from", dateFrom)
	q.Set("date_to", dateTo)
	q.Set("owner_organization", rc.organization())

	req, err := c.newRequest(ctx, rc, http.MethodGet, "/hotel-availability/", q, nil)
	if err != nil {
		return HotelAvailability{}, err
	}

	var availability HotelAvailability
	if err := c.doJSON(req, &availability); err != nil {
		return HotelAvailability{}, err
	}
	return availability, nil
}
