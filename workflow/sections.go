package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"umrah-desk/api"
	"umrah-desk/order"
)

// ErrInvalidItem wraps decode and validation failures of a section item.
var ErrInvalidItem = errors.New("invalid item")

type Section string

const (
	SectionPassengers Section = "passengers"
	SectionHotels     Section = "hotels"
	SectionFlights    Section = "flights"
	SectionTransport  Section = "transport"
	SectionFood       Section = "food"
	SectionZiarat     Section = "ziarat"
)

var sectionAliases = map[string]Section{
	"passengers": SectionPassengers,
	"passenger":  SectionPassengers,
	"pax":        SectionPassengers,
	"hotels":     SectionHotels,
	"hotel":      SectionHotels,
	"flights":    SectionFlights,
	"flight":     SectionFlights,
	"tickets":    SectionFlights,
	"transport":  SectionTransport,
	"food":       SectionFood,
	"ziarat":     SectionZiarat,
	"ziyarat":    SectionZiarat,
}

func ParseSection(s string) (Section, error) {
	if section, ok := sectionAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return section, nil
	}
	return "", fmt.Errorf("unknown section %q (expected passengers, hotels, flights, transport, food or ziarat)", s)
}

// Sections builds editors over an order's nested line-item arrays.
type Sections struct {
	Backend  Backend
	Log      *logrus.Logger
	Validate *validator.Validate

	locks *bookingLocks
}

func NewSections(backend Backend, log *logrus.Logger) *Sections {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Sections{Backend: backend, Log: log, Validate: newValidator()}
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("calendardate", func(fl validator.FieldLevel) bool {
		_, ok := order.CalendarDate(fl.Field().String())
		return ok
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if ref, ok := field.Interface().(api.Ref); ok {
			return ref.ID
		}
		return nil
	}, api.Ref{})
	v.RegisterStructValidation(hotelStayOrder, api.HotelLine{})
	return v
}

func hotelStayOrder(sl validator.StructLevel) {
	line := sl.Current().Interface().(api.HotelLine)
	in, okIn := order.CalendarDate(line.CheckInDate)
	out, okOut := order.CalendarDate(line.CheckOutDate)
	if okIn && okOut && out < in {
		sl.ReportError(line.CheckOutDate, "check_out_date", "CheckOutDate", "gtecheckin", "")
	}
}

// sectionKind describes how one nested array is read from a booking and
// written back.
type sectionKind[T any] struct {
	section Section
	field   string
	items   func(*api.Booking) *[]T
	id      func(*T) *int64
	// strip lists keys the backend owns and refuses on write.
	strip []string
	extra func([]T) map[string]any
	// after keeps booking-level fields in step with the draft, saved or not.
	after func(*api.Booking, []T)
}

var passengerKind = sectionKind[api.Person]{
	section: SectionPassengers,
	field:   "person_details",
	items:   func(b *api.Booking) *[]api.Person { return &b.PersonDetails },
	id:      func(p *api.Person) *int64 { return &p.ID },
	strip:   []string{"booking"},
	extra: func(persons []api.Person) map[string]any {
		totals := order.CountPax(persons)
		return map[string]any{
			"total_pax":    totals.Pax,
			"total_adult":  totals.Adult,
			"total_child":  totals.Child,
			"total_infant": totals.Infant,
		}
	},
	after: func(b *api.Booking, persons []api.Person) {
		totals := order.CountPax(persons)
		b.TotalPax, b.TotalAdult, b.TotalChild, b.TotalInfant = totals.Pax, totals.Adult, totals.Child, totals.Infant
	},
}

var hotelKind = sectionKind[api.HotelLine]{
	section: SectionHotels,
	field:   "hotel_details",
	items:   func(b *api.Booking) *[]api.HotelLine { return &b.HotelDetails },
	id:      func(h *api.HotelLine) *int64 { return &h.ID },
	strip:   []string{"id", "booking", "created_at", "updated_at", "hotel_name", "room_type_name"},
}

var flightKind = sectionKind[api.Ticket]{
	section: SectionFlights,
	field:   "ticket_details",
	items:   func(b *api.Booking) *[]api.Ticket { return &b.TicketDetails },
	id:      func(t *api.Ticket) *int64 { return &t.ID },
}

var transportKind = sectionKind[api.TransportLine]{
	section: SectionTransport,
	field:   "transport_details",
	items:   func(b *api.Booking) *[]api.TransportLine { return &b.TransportDetails },
	id:      func(t *api.TransportLine) *int64 { return &t.ID },
	strip:   []string{"vehicle_type_display", "booking"},
}

var foodKind = sectionKind[api.FoodLine]{
	section: SectionFood,
	field:   "food_details",
	items:   func(b *api.Booking) *[]api.FoodLine { return &b.FoodDetails },
	id:      func(f *api.FoodLine) *int64 { return &f.ID },
}

var ziaratKind = sectionKind[api.ZiyaratLine]{
	section: SectionZiarat,
	field:   "ziyarat_details",
	items:   func(b *api.Booking) *[]api.ZiyaratLine { return &b.ZiyaratDetails },
	id:      func(z *api.ZiyaratLine) *int64 { return &z.ID },
}

// Editor edits one section of an order. Mutations change the draft first and
// then write the whole section; a failed write leaves the draft as edited so
// it can be corrected and saved again.
type Editor[T any] struct {
	sections *Sections
	kind     sectionKind[T]
	rc       api.RequestContext
	order    order.Order
}

func newEditor[T any](s *Sections, kind sectionKind[T], rc api.RequestContext, o order.Order) *Editor[T] {
	draft := kind.items(&o.Booking)
	*draft = slices.Clone(*draft)
	return &Editor[T]{sections: s, kind: kind, rc: rc, order: o}
}

func (s *Sections) Passengers(rc api.RequestContext, o order.Order) *Editor[api.Person] {
	return newEditor(s, passengerKind, rc, o)
}

func (s *Sections) Hotels(rc api.RequestContext, o order.Order) *Editor[api.HotelLine] {
	return newEditor(s, hotelKind, rc, o)
}

func (s *Sections) Flights(rc api.RequestContext, o order.Order) *Editor[api.Ticket] {
	return newEditor(s, flightKind, rc, o)
}

func (s *Sections) Transport(rc api.RequestContext, o order.Order) *Editor[api.TransportLine] {
	return newEditor(s, transportKind, rc, o)
}

func (s *Sections) Food(rc api.RequestContext, o order.Order) *Editor[api.FoodLine] {
	return newEditor(s, foodKind, rc, o)
}

func (s *Sections) Ziarat(rc api.RequestContext, o order.Order) *Editor[api.ZiyaratLine] {
	return newEditor(s, ziaratKind, rc, o)
}

// SectionEditor is the JSON-facing view of an Editor, for surfaces that pick
// the section at runtime.
type SectionEditor interface {
	Section() Section
	Len() int
	AddJSON(ctx context.Context, data []byte) error
	PatchJSON(ctx context.Context, index int, patch []byte) error
	Remove(ctx context.Context, index int) error
	RemoveAll(ctx context.Context) error
	Order() order.Order
}

func (s *Sections) Editor(rc api.RequestContext, o order.Order, section Section) (SectionEditor, error) {
	switch section {
	case SectionPassengers:
		return s.Passengers(rc, o), nil
	case SectionHotels:
		return s.Hotels(rc, o), nil
	case SectionFlights:
		return s.Flights(rc, o), nil
	case SectionTransport:
		return s.Transport(rc, o), nil
	case SectionFood:
		return s.Food(rc, o), nil
	case SectionZiarat:
		return s.Ziarat(rc, o), nil
	}
	return nil, fmt.Errorf("unknown section %q", section)
}

func (e *Editor[T]) Section() Section {
	return e.kind.section
}

func (e *Editor[T]) Items() []T {
	return *e.kind.items(&e.order.Booking)
}

func (e *Editor[T]) Len() int {
	return len(e.Items())
}

// Order returns the order with the current draft in place.
func (e *Editor[T]) Order() order.Order {
	return e.order
}

func (e *Editor[T]) Add(ctx context.Context, item T) error {
	if err := e.validate(ctx, item); err != nil {
		return err
	}
	draft := e.kind.items(&e.order.Booking)
	if id := e.kind.id(&item); *id <= 0 {
		*id = e.nextTempID()
	}
	*draft = append(*draft, item)
	return e.save(ctx)
}

// Update replaces the item at index. The stored item keeps its id.
func (e *Editor[T]) Update(ctx context.Context, index int, item T) error {
	draft := e.kind.items(&e.order.Booking)
	if err := e.checkIndex(index); err != nil {
		return err
	}
	if err := e.validate(ctx, item); err != nil {
		return err
	}
	*e.kind.id(&item) = *e.kind.id(&(*draft)[index])
	(*draft)[index] = item
	return e.save(ctx)
}

func (e *Editor[T]) Remove(ctx context.Context, index int) error {
	if err := e.checkIndex(index); err != nil {
		return err
	}
	draft := e.kind.items(&e.order.Booking)
	*draft = slices.Delete(*draft, index, index+1)
	return e.save(ctx)
}

func (e *Editor[T]) RemoveAll(ctx context.Context) error {
	*e.kind.items(&e.order.Booking) = []T{}
	return e.save(ctx)
}

func (e *Editor[T]) AddJSON(ctx context.Context, data []byte) error {
	var item T
	if err := json.Unmarshal(data, &item); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidItem, e.kind.section, err)
	}
	return e.Add(ctx, item)
}

// PatchJSON merges a partial JSON object into the item at index, so callers
// only send the fields they change.
func (e *Editor[T]) PatchJSON(ctx context.Context, index int, patch []byte) error {
	if err := e.checkIndex(index); err != nil {
		return err
	}
	current, err := api.EncodeObject(e.Items()[index])
	if err != nil {
		return err
	}
	var changes api.Object
	if err := json.Unmarshal(patch, &changes); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidItem, e.kind.section, err)
	}
	for k, v := range changes {
		current[k] = v
	}
	merged, err := json.Marshal(current)
	if err != nil {
		return err
	}
	var item T
	if err := json.Unmarshal(merged, &item); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidItem, e.kind.section, err)
	}
	return e.Update(ctx, index, item)
}

func (e *Editor[T]) checkIndex(index int) error {
	if index < 0 || index >= e.Len() {
		return fmt.Errorf("%w: %s has %d items, got %d", ErrIndexOutOfRange, e.kind.section, e.Len(), index)
	}
	return nil
}

func (e *Editor[T]) validate(ctx context.Context, item T) error {
	if err := e.sections.Validate.StructCtx(ctx, item); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidItem, e.kind.section, err)
	}
	return nil
}

// nextTempID marks an unsaved item; temporary ids are negative and never
// reach the backend.
func (e *Editor[T]) nextTempID() int64 {
	next := int64(-1)
	items := e.Items()
	for i := range items {
		if id := *e.kind.id(&items[i]); id <= next {
			next = id - 1
		}
	}
	return next
}

// Payload is the PATCH body for the current draft.
func (e *Editor[T]) Payload() (map[string]any, error) {
	items := e.Items()
	objects := make([]api.Object, 0, len(items))
	for _, item := range items {
		obj, err := api.EncodeObject(item, e.kind.strip...)
		if err != nil {
			return nil, fmt.Errorf("encode %s item: %w", e.kind.section, err)
		}
		if obj.Int("id") < 0 {
			delete(obj, "id")
		}
		objects = append(objects, obj)
	}
	payload := map[string]any{e.kind.field: objects}
	if e.kind.extra != nil {
		for k, v := range e.kind.extra(items) {
			payload[k] = v
		}
	}
	return payload, nil
}

func (e *Editor[T]) save(ctx context.Context) error {
	bookingNumber := e.order.BookingNumber()
	release, err := e.sections.locks.acquire(bookingNumber)
	if err != nil {
		return err
	}
	defer release()

	payload, err := e.Payload()
	if err != nil {
		return err
	}
	if e.kind.after != nil {
		e.kind.after(&e.order.Booking, e.Items())
	}
	entry := e.sections.Log.WithFields(logrus.Fields{
		"booking_number": bookingNumber,
		"origin":         e.order.Origin,
		"section":        e.kind.section,
		"items":          e.Len(),
	})
	if err := e.sections.Backend.PatchBooking(ctx, e.rc, e.order.Origin.Collection(), e.order.Booking.ID, payload); err != nil {
		entry.WithError(err).Error("section save failed")
		return fmt.Errorf("save %s for %s: %w", e.kind.section, bookingNumber, err)
	}
	entry.Info("section saved")
	return nil
}
