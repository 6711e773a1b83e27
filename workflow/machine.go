package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"umrah-desk/api"
	"umrah-desk/order"
	"umrah-desk/storage"
)

type Action string

const (
	ActionConfirm Action = "confirm"
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionCancel  Action = "cancel"
)

// Redirect tells the surface where the operator goes after a transition.
type Redirect string

const (
	RedirectNone Redirect = ""
	RedirectVisa Redirect = "visa"
	RedirectList Redirect = "list"
)

type Outcome struct {
	Order    order.Order  `json:"-"`
	Action   Action       `json:"action"`
	From     order.Status `json:"from"`
	To       order.Status `json:"to"`
	Redirect Redirect     `json:"redirect,omitempty"`
}

// Machine moves bookings through their status lifecycle. The local order is
// only advanced after the backend accepts the change.
type Machine struct {
	Backend Backend
	Journal Recorder
	Log     *logrus.Logger
	Now     func() time.Time

	locks *bookingLocks
}

type transition struct {
	action   Action
	to       order.Status
	redirect Redirect
	note     string
	send     func() error
	applied  func(*api.Booking)
}

func (m *Machine) Confirm(ctx context.Context, rc api.RequestContext, op Operator, o order.Order) (Outcome, error) {
	return m.apply(ctx, op, o, transition{
		action: ActionConfirm,
		to:     order.StatusConfirmed,
		send: func() error {
			if o.Origin == order.OriginPublic {
				return m.Backend.ConfirmPublicBooking(ctx, rc, o.Booking.ID)
			}
			return m.patchStatus(ctx, rc, o, order.StatusConfirmed)
		},
	})
}

// Approve sends the operator on to visa processing when it succeeds.
func (m *Machine) Approve(ctx context.Context, rc api.RequestContext, op Operator, o order.Order) (Outcome, error) {
	return m.apply(ctx, op, o, transition{
		action:   ActionApprove,
		to:       order.StatusApproved,
		redirect: RedirectVisa,
		send: func() error {
			if o.Origin == order.OriginPublic {
				return m.Backend.ApprovePublicBooking(ctx, rc, o.Booking.ID)
			}
			return m.patchStatus(ctx, rc, o, order.StatusApproved)
		},
	})
}

func (m *Machine) Reject(ctx context.Context, rc api.RequestContext, op Operator, o order.Order, note string) (Outcome, error) {
	note = strings.TrimSpace(note)
	if note == "" {
		return Outcome{Order: o}, ErrNoteRequired
	}
	if op.ID == 0 {
		return Outcome{Order: o}, ErrOperatorRequired
	}
	rejectedAt := m.now().UTC().Format("2006-01-02T15:04:05.000Z07:00")

	return m.apply(ctx, op, o, transition{
		action:   ActionReject,
		to:       order.StatusRejected,
		redirect: RedirectList,
		note:     note,
		send: func() error {
			return m.Backend.PatchBooking(ctx, rc, o.Origin.Collection(), o.Booking.ID, map[string]any{
				"status":            order.StatusRejected,
				"rejected_notes":    note,
				"rejected_at":       rejectedAt,
				"rejected_employer": op.ID,
			})
		},
		applied: func(b *api.Booking) {
			b.RejectedNotes = note
			b.RejectedAt = rejectedAt
			b.RejectedBy = api.RefID(op.ID)
		},
	})
}

// Cancel belongs to the ticketing flow and is irreversible, so the caller
// must pass confirmed=true.
func (m *Machine) Cancel(ctx context.Context, rc api.RequestContext, op Operator, o order.Order, confirmed bool) (Outcome, error) {
	if order.ClassifyPackage(o.Booking.BookingType) != order.PackageGroupTicket {
		return Outcome{Order: o}, ErrCancelUnsupported
	}
	if !confirmed {
		return Outcome{Order: o}, ErrConfirmationRequired
	}
	return m.apply(ctx, op, o, transition{
		action:   ActionCancel,
		to:       order.StatusCancelled,
		redirect: RedirectList,
		send: func() error {
			return m.patchStatus(ctx, rc, o, order.StatusCancelled)
		},
	})
}

func (m *Machine) patchStatus(ctx context.Context, rc api.RequestContext, o order.Order, status order.Status) error {
	return m.Backend.PatchBooking(ctx, rc, o.Origin.Collection(), o.Booking.ID, map[string]any{"status": status})
}

func (m *Machine) apply(ctx context.Context, op Operator, o order.Order, t transition) (Outcome, error) {
	outcome := Outcome{Order: o, Action: t.action, From: o.Status, To: o.Status}
	if err := order.CheckTransition(o.Status, t.to); err != nil {
		return outcome, err
	}

	release, err := m.locks.acquire(o.BookingNumber())
	if err != nil {
		return outcome, err
	}
	defer release()

	entry := m.Log.WithFields(logrus.Fields{
		"booking_number": o.BookingNumber(),
		"origin":         o.Origin,
		"action":         t.action,
		"from":           o.Status,
		"to":             t.to,
	})

	sendErr := t.send()
	m.record(ctx, op, o, t, sendErr)
	if sendErr != nil {
		entry.WithError(sendErr).Error("transition rejected")
		return outcome, fmt.Errorf("%s %s: %w", t.action, o.BookingNumber(), sendErr)
	}

	next := o.WithStatus(t.to)
	if t.applied != nil {
		t.applied(&next.Booking)
	}
	entry.Info("transition applied")

	outcome.Order = next
	outcome.To = t.to
	outcome.Redirect = t.redirect
	return outcome, nil
}

// record writes the journal entry; the journal is advisory and its
// failures are only logged.
func (m *Machine) record(ctx context.Context, op Operator, o order.Order, t transition, sendErr error) {
	if m.Journal == nil {
		return
	}
	entry := storage.Transition{
		BookingNumber: o.BookingNumber(),
		BookingID:     o.Booking.ID,
		Origin:        string(o.Origin),
		Action:        string(t.action),
		FromStatus:    string(o.Status),
		ToStatus:      string(t.to),
		OperatorID:    op.ID,
		Note:          t.note,
		Outcome:       storage.OutcomeOK,
		At:            m.now().UTC().Format(time.RFC3339),
	}
	if sendErr != nil {
		entry.Outcome = storage.OutcomeFailed
		entry.Error = sendErr.Error()
		var apiErr *api.APIError
		if errors.As(sendErr, &apiErr) {
			entry.Error = apiErr.Body
		}
	}
	if err := m.Journal.RecordTransition(context.WithoutCancel(ctx), entry); err != nil {
		m.Log.WithError(err).WithField("booking_number", o.BookingNumber()).Warn("journal write failed")
	}
}

func (m *Machine) now() time.Time {
	if m.Now == nil {
		return time.Now()
	}
	return m.Now()
}
