package workflow

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"umrah-desk/api"
	"umrah-desk/storage"
)

var (
	ErrNotFound             = errors.New("booking not found")
	ErrSourcesUnavailable   = errors.New("no booking source reachable")
	ErrTransitionInFlight   = errors.New("another change is in flight for this booking")
	ErrNoteRequired         = errors.New("a rejection note is required")
	ErrOperatorRequired     = errors.New("operator identity is required")
	ErrConfirmationRequired = errors.New("cancellation must be explicitly confirmed")
	ErrCancelUnsupported    = errors.New("only group ticket bookings can be cancelled")
	ErrIndexOutOfRange      = errors.New("item index out of range")
	ErrNothingSelected      = errors.New("no passengers selected")
)

// Backend is the part of the booking API the workflow drives.
type Backend interface {
	ListBookings(ctx context.Context, rc api.RequestContext, collection, bookingNumber string) ([]api.Booking, error)
	PatchBooking(ctx context.Context, rc api.RequestContext, collection string, id int64, payload any) error
	ConfirmPublicBooking(ctx context.Context, rc api.RequestContext, id int64) error
	ApprovePublicBooking(ctx context.Context, rc api.RequestContext, id int64) error
	GetAgency(ctx context.Context, rc api.RequestContext, id int64) (*api.Agency, error)
	CheckHotelAvailability(ctx context.Context, rc api.RequestContext, hotelID int64, dateFrom, dateTo string) (api.HotelAvailability, error)
	ListShirkas(ctx context.Context, rc api.RequestContext) ([]api.Shirka, error)
}

// Recorder keeps the transition history.
type Recorder interface {
	RecordTransition(ctx context.Context, t storage.Transition) error
}

type Operator struct {
	ID   int64  `json:"id"`
	Name string `json:"name,omitempty"`
}

type Options struct {
	Journal             Recorder
	Log                 *logrus.Logger
	AvailabilityWorkers int
	Now                 func() time.Time
}

// Desk wires the workflow components around one backend. Writes to the same
// booking through any component are serialised by a shared guard.
type Desk struct {
	Source       *Source
	Availability *Checker
	Machine      *Machine
	Sections     *Sections
	Visa         *Visa
}

func New(backend Backend, opts Options) *Desk {
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	locks := newBookingLocks()
	sections := NewSections(backend, log)
	sections.locks = locks

	return &Desk{
		Source:       &Source{Backend: backend, Log: log},
		Availability: &Checker{Backend: backend, Log: log, Workers: opts.AvailabilityWorkers},
		Machine: &Machine{
			Backend: backend,
			Journal: opts.Journal,
			Log:     log,
			Now:     now,
			locks:   locks,
		},
		Sections: sections,
		Visa:     &Visa{Backend: backend, Log: log, locks: locks},
	}
}

// bookingLocks refuses overlapping writes to one booking instead of queueing
// them; the second caller gets ErrTransitionInFlight.
type bookingLocks struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func newBookingLocks() *bookingLocks {
	return &bookingLocks{held: map[string]struct{}{}}
}

func (l *bookingLocks) acquire(bookingNumber string) (func(), error) {
	if l == nil {
		return func() {}, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.held[bookingNumber]; busy {
		return nil, ErrTransitionInFlight
	}
	l.held[bookingNumber] = struct{}{}
	return func() {
		l.mu.Lock()
		delete(l.held, bookingNumber)
		l.mu.Unlock()
	}, nil
}
