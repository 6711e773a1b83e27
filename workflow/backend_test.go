package workflow

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"umrah-desk/api"
	"umrah-desk/storage"
)

type patchCall struct {
	Collection string
	ID         int64
	Payload    map[string]any
}

// fakeBackend serves bookings from memory and records every write.
type fakeBackend struct {
	mu sync.Mutex

	bookings  map[string][]api.Booking
	listErr   map[string]error
	agencies  map[int64]*api.Agency
	agencyErr error
	rooms     map[int64]int
	roomsErr  map[int64]error
	shirkas   []api.Shirka

	patchErr  error
	actionErr error
	// block, when set, holds writes until it is closed.
	block chan struct{}

	listCalls    []string
	agencyCalls  []int64
	roomCalls    []int64
	patches      []patchCall
	publicAction []string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		bookings: map[string][]api.Booking{},
		listErr:  map[string]error{},
		agencies: map[int64]*api.Agency{},
		rooms:    map[int64]int{},
		roomsErr: map[int64]error{},
	}
}

func (f *fakeBackend) ListBookings(ctx context.Context, rc api.RequestContext, collection, bookingNumber string) ([]api.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls = append(f.listCalls, collection+"?"+bookingNumber)
	if err := f.listErr[collection]; err != nil {
		return nil, err
	}
	if bookingNumber == "" {
		return f.bookings[collection], nil
	}
	var out []api.Booking
	for _, b := range f.bookings[collection] {
		if b.BookingNumber == bookingNumber {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBackend) PatchBooking(ctx context.Context, rc api.RequestContext, collection string, id int64, payload any) error {
	f.wait()
	// Round-trip through JSON so assertions see what the wire would carry.
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.patches = append(f.patches, patchCall{Collection: collection, ID: id, Payload: decoded})
	return f.patchErr
}

func (f *fakeBackend) ConfirmPublicBooking(ctx context.Context, rc api.RequestContext, id int64) error {
	return f.action("confirm", id)
}

func (f *fakeBackend) ApprovePublicBooking(ctx context.Context, rc api.RequestContext, id int64) error {
	return f.action("approve", id)
}

func (f *fakeBackend) action(name string, id int64) error {
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.publicAction = append(f.publicAction, name)
	return f.actionErr
}

func (f *fakeBackend) wait() {
	f.mu.Lock()
	block := f.block
	f.mu.Unlock()
	if block != nil {
		<-block
	}
}

func (f *fakeBackend) GetAgency(ctx context.Context, rc api.RequestContext, id int64) (*api.Agency, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.agencyCalls = append(f.agencyCalls, id)
	if f.agencyErr != nil {
		return nil, f.agencyErr
	}
	return f.agencies[id], nil
}

func (f *fakeBackend) CheckHotelAvailability(ctx context.Context, rc api.RequestContext, hotelID int64, dateFrom, dateTo string) (api.HotelAvailability, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.roomCalls = append(f.roomCalls, hotelID)
	if err := f.roomsErr[hotelID]; err != nil {
		return api.HotelAvailability{}, err
	}
	return api.HotelAvailability{AvailableRooms: f.rooms[hotelID]}, nil
}

func (f *fakeBackend) ListShirkas(ctx context.Context, rc api.RequestContext) ([]api.Shirka, error) {
	return f.shirkas, nil
}

func (f *fakeBackend) lastPatch(t *testing.T) patchCall {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.patches)
	return f.patches[len(f.patches)-1]
}

type memoryJournal struct {
	mu      sync.Mutex
	entries []storage.Transition
	err     error
}

func (j *memoryJournal) RecordTransition(ctx context.Context, t storage.Transition) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, t)
	return j.err
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

var testRC = api.RequestContext{OrganizationID: 7, Token: "tok"}

func decodeBooking(t *testing.T, raw string) api.Booking {
	t.Helper()
	var b api.Booking
	require.NoError(t, json.Unmarshal([]byte(raw), &b))
	return b
}
