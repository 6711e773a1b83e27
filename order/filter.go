package order

import (
	"fmt"
	"strings"
)

type Tab string

const (
	TabAll         Tab = ""
	TabConfirmed   Tab = "confirmed"
	TabUnconfirmed Tab = "unconfirmed"
)

// StatusFilter values are the chip labels of the order list. Their meaning
// depends on the tab: see bucketOf.
type StatusFilter string

const (
	FilterAll          StatusFilter = "all"
	FilterUnapproved   StatusFilter = "un-approve"
	FilterUnderProcess StatusFilter = "under-process"
	FilterDelivered    StatusFilter = "delivered"
	FilterConfirmed    StatusFilter = "confirmed"
	FilterCancelled    StatusFilter = "cancelled"
)

func ParseTab(s string) (Tab, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return TabAll, nil
	case "confirmed":
		return TabConfirmed, nil
	case "unconfirmed", "un-confirmed":
		return TabUnconfirmed, nil
	}
	return "", fmt.Errorf("unknown tab %q", s)
}

func ParseStatusFilter(s string) (StatusFilter, error) {
	switch squash(s) {
	case "", "all":
		return FilterAll, nil
	case "unapprove", "unapproved":
		return FilterUnapproved, nil
	case "underprocess":
		return FilterUnderProcess, nil
	case "delivered":
		return FilterDelivered, nil
	case "confirmed":
		return FilterConfirmed, nil
	case "cancelled", "canceled":
		return FilterCancelled, nil
	}
	return "", fmt.Errorf("unknown status filter %q", s)
}

// PaymentFilter is read off the booking status: a paid booking is one the
// desk has confirmed, an unpaid one is still un-approved.
type PaymentFilter string

const (
	PaymentAll    PaymentFilter = ""
	PaymentPaid   PaymentFilter = "paid"
	PaymentUnpaid PaymentFilter = "unpaid"
)

func ParsePaymentFilter(s string) (PaymentFilter, error) {
	switch squash(s) {
	case "", "all":
		return PaymentAll, nil
	case "paid":
		return PaymentPaid, nil
	case "unpaid", "notpaid":
		return PaymentUnpaid, nil
	}
	return "", fmt.Errorf("unknown payment filter %q", s)
}

type Criteria struct {
	Tab         Tab
	OrderType   OrderType
	PackageType PackageType
	Payment     PaymentFilter
	Status      StatusFilter
	Search      string
	// BranchID narrows branch orders to one branch; zero means any.
	BranchID int64
}

var (
	confirmedTab = map[Status]bool{
		StatusConfirmed: true, StatusApproved: true, StatusDelivered: true, StatusFinished: true,
		StatusUnapproved: true, StatusPending: true, StatusRejected: true, StatusCancelled: true,
	}
	// Rejected and Cancelled sit in both tabs.
	unconfirmedTab = map[Status]bool{
		StatusUnderProcess: true, StatusRejected: true, StatusCancelled: true,
	}
)

// bucketOf maps a status to the chip it counts under on a tab. The same
// label means different statuses on different tabs: on the confirmed tab
// "un-approve" is the literal Confirmed status (confirmed but not yet
// approved) and "confirmed" is Approved. The unconfirmed tab only admits
// under-process and the terminal side branches, so only those chips carry
// orders there.
func bucketOf(tab Tab, s Status) (StatusFilter, bool) {
	switch tab {
	case TabConfirmed:
		switch s {
		case StatusConfirmed:
			return FilterUnapproved, true
		case StatusApproved:
			return FilterConfirmed, true
		case StatusDelivered, StatusFinished:
			return FilterDelivered, true
		case StatusRejected, StatusCancelled:
			return FilterCancelled, true
		}
	case TabUnconfirmed:
		switch s {
		case StatusUnderProcess:
			return FilterUnderProcess, true
		case StatusRejected, StatusCancelled:
			return FilterCancelled, true
		}
	default:
		switch s {
		case StatusUnapproved, StatusPending:
			return FilterUnapproved, true
		case StatusUnderProcess:
			return FilterUnderProcess, true
		case StatusDelivered, StatusFinished:
			return FilterDelivered, true
		case StatusConfirmed, StatusApproved:
			return FilterConfirmed, true
		case StatusRejected, StatusCancelled:
			return FilterCancelled, true
		}
	}
	return "", false
}

func matchesTab(tab Tab, s Status) bool {
	switch tab {
	case TabConfirmed:
		return confirmedTab[s]
	case TabUnconfirmed:
		return unconfirmedTab[s]
	}
	return true
}

func matchesOrderType(c Criteria, o Order, cls Classification) bool {
	if c.OrderType == "" {
		return true
	}
	if cls.OrderType != c.OrderType {
		return false
	}
	if c.OrderType == BranchOrder && c.BranchID != 0 {
		return o.Booking.BranchKey() == c.BranchID
	}
	return true
}

func matchesPackage(c Criteria, cls Classification) bool {
	return c.PackageType == PackageUnclassified || cls.PackageType == c.PackageType
}

func matchesPayment(c Criteria, s Status) bool {
	switch c.Payment {
	case PaymentPaid:
		return s == StatusConfirmed
	case PaymentUnpaid:
		return s == StatusUnapproved
	}
	return true
}

func matchesStatus(c Criteria, s Status) bool {
	if c.Status == "" || c.Status == FilterAll {
		return true
	}
	bucket, ok := bucketOf(c.Tab, s)
	return ok && bucket == c.Status
}

func matchesSearch(search, bookingNumber string) bool {
	search = strings.TrimSpace(search)
	if search == "" {
		return true
	}
	return strings.Contains(strings.ToLower(bookingNumber), strings.ToLower(search))
}

// matchesScope applies every predicate except the status chip, in order.
func matchesScope(c Criteria, o Order) bool {
	if !matchesTab(c.Tab, o.Status) {
		return false
	}
	cls := o.Classification()
	if !matchesOrderType(c, o, cls) {
		return false
	}
	return matchesPackage(c, cls) && matchesPayment(c, o.Status)
}

func Matches(c Criteria, o Order) bool {
	return matchesScope(c, o) &&
		matchesStatus(c, o.Status) &&
		matchesSearch(c.Search, o.BookingNumber())
}

// Filter keeps input order.
func Filter(orders []Order, c Criteria) []Order {
	out := make([]Order, 0, len(orders))
	for _, o := range orders {
		if Matches(c, o) {
			out = append(out, o)
		}
	}
	return out
}

type Facets struct {
	All          int `json:"all"`
	Unapproved   int `json:"unapproved"`
	UnderProcess int `json:"under_process"`
	Delivered    int `json:"delivered"`
	Confirmed    int `json:"confirmed"`
	Cancelled    int `json:"cancelled"`
}

// Buckets sums the concrete buckets; it never exceeds All.
func (f Facets) Buckets() int {
	return f.Unapproved + f.UnderProcess + f.Delivered + f.Confirmed + f.Cancelled
}

// CountFacets counts the chips for c, ignoring c.Status.
func CountFacets(orders []Order, c Criteria) Facets {
	var f Facets
	for _, o := range orders {
		if !matchesScope(c, o) || !matchesSearch(c.Search, o.BookingNumber()) {
			continue
		}
		f.All++
		bucket, ok := bucketOf(c.Tab, o.Status)
		if !ok {
			continue
		}
		switch bucket {
		case FilterUnapproved:
			f.Unapproved++
		case FilterUnderProcess:
			f.UnderProcess++
		case FilterDelivered:
			f.Delivered++
		case FilterConfirmed:
			f.Confirmed++
		case FilterCancelled:
			f.Cancelled++
		}
	}
	return f
}

// ParseCriteria builds Criteria from user-supplied filter values.
func ParseCriteria(tab, orderType, packageType, status, search string, branchID int64) (Criteria, error) {
	var c Criteria
	var err error
	if c.Tab, err = ParseTab(tab); err != nil {
		return Criteria{}, err
	}
	if c.OrderType, err = ParseOrderType(orderType); err != nil {
		return Criteria{}, err
	}
	if c.PackageType, err = ParsePackageType(packageType); err != nil {
		return Criteria{}, err
	}
	if c.Status, err = ParseStatusFilter(status); err != nil {
		return Criteria{}, err
	}
	c.Search = strings.TrimSpace(search)
	c.BranchID = branchID
	return c, nil
}
