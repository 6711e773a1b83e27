package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"umrah-desk/api"
	"umrah-desk/order"
)

const bookingJSON = `{
  "id": 5,
  "booking_number": "SR-5",
  "status": "Pending",
  "total_pax": 1,
  "total_adult": 1,
  "person_details": [
    {"id": 31, "booking": 5, "first_name": "Aisha", "last_name": "Khan", "age_group": "Adult",
     "passport_number": "AB123", "visa_status": "Pending", "passport_picture": "/media/p31.jpg"}
  ],
  "hotel_details": [
    {"id": 3, "booking": 5, "hotel": {"id": 10, "name": "Hilton Makkah"}, "hotel_name": "Hilton Makkah",
     "room_type_name": "Quad", "created_at": "2025-01-01T00:00:00Z", "updated_at": "2025-01-02T00:00:00Z",
     "check_in_date": "2025-03-01", "check_out_date": "2025-03-05", "quantity": 1, "price": "100.00",
     "sharing_type": "Quad", "is_self_hotel": false}
  ],
  "food_details": [
    {"id": 8, "booking": 5, "food": "Full board", "total_adults": 1}
  ]
}`

func newSectionFixture(t *testing.T) (*fakeBackend, *Desk, order.Order) {
	t.Helper()
	backend := newFakeBackend()
	return backend, newTestDesk(backend, nil), order.FromAgent(decodeBooking(t, bookingJSON))
}

func TestAddPassengerSendsPaxTotals(t *testing.T) {
	backend, desk, o := newSectionFixture(t)
	editor := desk.Sections.Passengers(testRC, o)

	err := editor.Add(context.Background(), api.Person{FirstName: "Yusuf", LastName: "Khan", AgeGroup: "Child"})
	require.NoError(t, err)

	call := backend.lastPatch(t)
	assert.Equal(t, api.AgentBookingsPath, call.Collection)
	assert.Equal(t, int64(5), call.ID)
	assert.Equal(t, float64(2), call.Payload["total_pax"])
	assert.Equal(t, float64(1), call.Payload["total_adult"])
	assert.Equal(t, float64(1), call.Payload["total_child"])
	assert.Equal(t, float64(0), call.Payload["total_infant"])

	persons := call.Payload["person_details"].([]any)
	require.Len(t, persons, 2)
	first := persons[0].(map[string]any)
	assert.Equal(t, float64(31), first["id"])
	assert.Equal(t, "/media/p31.jpg", first["passport_picture"])
	assert.NotContains(t, first, "booking")
	assert.NotContains(t, persons[1].(map[string]any), "id")

	assert.Equal(t, 2, editor.Order().Booking.TotalPax)
	assert.Equal(t, 1, editor.Order().Booking.TotalChild)
	assert.Len(t, o.Booking.PersonDetails, 1)
}

func TestHotelWritesAreSanitized(t *testing.T) {
	backend, desk, o := newSectionFixture(t)
	editor := desk.Sections.Hotels(testRC, o)

	require.NoError(t, editor.PatchJSON(context.Background(), 0, []byte(`{"quantity": 2}`)))

	hotels := backend.lastPatch(t).Payload["hotel_details"].([]any)
	require.Len(t, hotels, 1)
	hotel := hotels[0].(map[string]any)
	for _, key := range []string{"id", "booking", "created_at", "updated_at", "hotel_name", "room_type_name"} {
		assert.NotContains(t, hotel, key)
	}
	assert.Equal(t, float64(10), hotel["hotel"])
	assert.Equal(t, float64(2), hotel["quantity"])
	assert.Equal(t, "Quad", hotel["sharing_type"])
	assert.Equal(t, false, hotel["is_self_hotel"])
	assert.Equal(t, "2025-03-01", hotel["check_in_date"])
	assert.NotContains(t, backend.lastPatch(t).Payload, "total_pax")
}

func TestSectionValidation(t *testing.T) {
	tests := []struct {
		name string
		run  func(*Sections, order.Order) error
	}{
		{name: "passenger without name", run: func(s *Sections, o order.Order) error {
			return s.Passengers(testRC, o).Add(context.Background(), api.Person{AgeGroup: "Adult"})
		}},
		{name: "passenger bad age group", run: func(s *Sections, o order.Order) error {
			return s.Passengers(testRC, o).Add(context.Background(), api.Person{FirstName: "A", AgeGroup: "Senior"})
		}},
		{name: "hotel without hotel", run: func(s *Sections, o order.Order) error {
			return s.Hotels(testRC, o).Add(context.Background(), api.HotelLine{CheckInDate: "2025-03-01"})
		}},
		{name: "hotel bad date", run: func(s *Sections, o order.Order) error {
			return s.Hotels(testRC, o).Add(context.Background(), api.HotelLine{Hotel: api.RefID(10), CheckInDate: "soon"})
		}},
		{name: "hotel checkout before checkin", run: func(s *Sections, o order.Order) error {
			return s.Hotels(testRC, o).Add(context.Background(), hotelLine(10, "2025-03-05", "2025-03-01"))
		}},
		{name: "flight bad trip type", run: func(s *Sections, o order.Order) error {
			return s.Flights(testRC, o).Add(context.Background(), api.Ticket{TripDetails: []api.TripDetail{{TripType: "Layover"}}})
		}},
		{name: "food without food", run: func(s *Sections, o order.Order) error {
			return s.Food(testRC, o).Add(context.Background(), api.FoodLine{})
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend, desk, o := newSectionFixture(t)

			err := tt.run(desk.Sections, o)
			assert.ErrorIs(t, err, ErrInvalidItem)
			var verrs validator.ValidationErrors
			assert.True(t, errors.As(err, &verrs))
			assert.Empty(t, backend.patches)
		})
	}
}

func TestAddJSONRejectsMalformedItem(t *testing.T) {
	backend, desk, o := newSectionFixture(t)
	editor, err := desk.Sections.Editor(testRC, o, SectionTransport)
	require.NoError(t, err)

	assert.ErrorIs(t, editor.AddJSON(context.Background(), []byte(`{"vehicle_type":`)), ErrInvalidItem)
	assert.Empty(t, backend.patches)
}

func TestTransportDropsDisplayName(t *testing.T) {
	backend, desk, o := newSectionFixture(t)
	editor, err := desk.Sections.Editor(testRC, o, SectionTransport)
	require.NoError(t, err)

	err = editor.AddJSON(context.Background(), []byte(`{"vehicle_type":"Bus","vehicle_type_display":"Coaster Bus","sector_details":[{"departure_city":"Jeddah","arrival_city":"Makkah","is_airport_pickup":true}]}`))
	require.NoError(t, err)

	lines := backend.lastPatch(t).Payload["transport_details"].([]any)
	require.Len(t, lines, 1)
	line := lines[0].(map[string]any)
	assert.Equal(t, "Bus", line["vehicle_type"])
	assert.NotContains(t, line, "vehicle_type_display")
	assert.NotContains(t, line, "id")
	sectors := line["sector_details"].([]any)
	assert.Equal(t, "Jeddah", sectors[0].(map[string]any)["departure_city"])
}

func TestTemporaryIDsNeverReachBackend(t *testing.T) {
	backend, desk, o := newSectionFixture(t)
	editor := desk.Sections.Food(testRC, o)

	require.NoError(t, editor.Add(context.Background(), api.FoodLine{Food: "Breakfast"}))
	require.NoError(t, editor.Add(context.Background(), api.FoodLine{Food: "Dinner"}))

	items := editor.Items()
	require.Len(t, items, 3)
	assert.Equal(t, int64(8), items[0].ID)
	assert.Equal(t, int64(-1), items[1].ID)
	assert.Equal(t, int64(-2), items[2].ID)

	lines := backend.lastPatch(t).Payload["food_details"].([]any)
	require.Len(t, lines, 3)
	assert.Equal(t, float64(8), lines[0].(map[string]any)["id"])
	assert.NotContains(t, lines[1].(map[string]any), "id")
	assert.NotContains(t, lines[2].(map[string]any), "id")
}

func TestUpdateKeepsStoredID(t *testing.T) {
	backend, desk, o := newSectionFixture(t)
	editor := desk.Sections.Food(testRC, o)

	require.NoError(t, editor.Update(context.Background(), 0, api.FoodLine{ID: 99, Food: "Half board"}))
	assert.Equal(t, int64(8), editor.Items()[0].ID)
	line := backend.lastPatch(t).Payload["food_details"].([]any)[0].(map[string]any)
	assert.Equal(t, float64(8), line["id"])
	assert.Equal(t, "Half board", line["food"])

	assert.ErrorIs(t, editor.Update(context.Background(), 4, api.FoodLine{Food: "x"}), ErrIndexOutOfRange)
	assert.ErrorIs(t, editor.Remove(context.Background(), -1), ErrIndexOutOfRange)
}

func TestSaveFailureKeepsDraft(t *testing.T) {
	backend, desk, o := newSectionFixture(t)
	backend.patchErr = &api.APIError{StatusCode: 400, Body: `{"hotel_details":["invalid"]}`}
	editor := desk.Sections.Hotels(testRC, o)

	err := editor.Remove(context.Background(), 0)
	var apiErr *api.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 0, editor.Len())
	assert.Len(t, o.Booking.HotelDetails, 1)

	backend.patchErr = nil
	require.NoError(t, editor.RemoveAll(context.Background()))
	assert.Equal(t, []any{}, backend.lastPatch(t).Payload["hotel_details"])
}

func TestFailedPassengerSaveStillRecountsDraft(t *testing.T) {
	backend, desk, o := newSectionFixture(t)
	backend.patchErr = &api.APIError{StatusCode: 400, Body: `{"person_details":["invalid"]}`}
	editor := desk.Sections.Passengers(testRC, o)

	err := editor.Add(context.Background(), api.Person{FirstName: "Yusuf", AgeGroup: "Child"})
	require.Error(t, err)

	b := editor.Order().Booking
	require.Len(t, b.PersonDetails, 2)
	assert.Equal(t, 2, b.TotalPax)
	assert.Equal(t, 1, b.TotalAdult)
	assert.Equal(t, 1, b.TotalChild)
	assert.Equal(t, 1, o.Booking.TotalPax)
}

func TestParseSection(t *testing.T) {
	tests := []struct {
		in      string
		want    Section
		wantErr bool
	}{
		{in: "passengers", want: SectionPassengers},
		{in: " PAX ", want: SectionPassengers},
		{in: "tickets", want: SectionFlights},
		{in: "ziyarat", want: SectionZiarat},
		{in: "visas", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSection(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
