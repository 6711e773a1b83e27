package order

import (
	"errors"
	"fmt"
	"strings"
)

type Status string

const (
	StatusUnapproved   Status = "Un-approved"
	StatusPending      Status = "Pending"
	StatusUnderProcess Status = "under-process"
	StatusConfirmed    Status = "Confirmed"
	StatusApproved     Status = "Approved"
	StatusDelivered    Status = "Delivered"
	StatusFinished     Status = "Finished"
	StatusRejected     Status = "Rejected"
	StatusCancelled    Status = "Cancelled"
	// StatusUnknown covers organization-specific values the console does not
	// recognise. The raw string stays on the booking for display.
	StatusUnknown Status = "Unknown"
)

var ErrIllegalTransition = errors.New("illegal status transition")

// ParseStatus normalises the backend's free-form status strings
// ("under-process", "Under Process", "canceled", "UN-APPROVED", ...).
func ParseStatus(raw string) Status {
	key := squash(raw)
	switch {
	case key == "":
		return StatusUnknown
	case strings.Contains(key, "under") && strings.Contains(key, "process"):
		return StatusUnderProcess
	case strings.Contains(key, "unapprove"), strings.Contains(key, "notapprove"):
		return StatusUnapproved
	case strings.Contains(key, "pending"):
		return StatusPending
	case strings.Contains(key, "cancel"):
		return StatusCancelled
	case strings.Contains(key, "reject"):
		return StatusRejected
	case strings.Contains(key, "deliver"):
		return StatusDelivered
	case strings.Contains(key, "finish"), strings.Contains(key, "complete"):
		return StatusFinished
	case strings.Contains(key, "confirm"):
		return StatusConfirmed
	case strings.Contains(key, "approve"):
		return StatusApproved
	}
	return StatusUnknown
}

// squash lower-cases s and keeps only letters and digits.
func squash(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

var allowedTransitions = map[Status]map[Status]bool{
	StatusUnapproved:   {StatusConfirmed: true, StatusRejected: true, StatusCancelled: true},
	StatusPending:      {StatusConfirmed: true, StatusRejected: true, StatusCancelled: true},
	StatusUnderProcess: {StatusConfirmed: true, StatusRejected: true, StatusCancelled: true},
	StatusConfirmed:    {StatusApproved: true, StatusRejected: true, StatusCancelled: true},
	StatusApproved:     {StatusDelivered: true, StatusRejected: true, StatusCancelled: true},
	StatusUnknown:      {StatusRejected: true, StatusCancelled: true},
	StatusDelivered:    {},
	StatusFinished:     {},
	StatusRejected:     {},
	StatusCancelled:    {},
}

func CanTransition(from, to Status) bool {
	m, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	return m[to]
}

// CheckTransition explains why a move is refused. Moving to the current
// status is refused too.
func CheckTransition(from, to Status) error {
	if from == to {
		return fmt.Errorf("%w: booking is already %s", ErrIllegalTransition, to)
	}
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
	}
	return nil
}

func (s Status) Terminal() bool {
	return len(allowedTransitions[s]) == 0
}
