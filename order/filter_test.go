package order

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"umrah-desk/api"
)

func agentOrder(number, status, bookingType string, agencyID int64) Order {
	return FromAgent(api.Booking{BookingNumber: number, Status: status, BookingType: bookingType, AgencyID: agencyID})
}

func numbers(orders []Order) []string {
	out := make([]string, 0, len(orders))
	for _, o := range orders {
		out = append(out, o.BookingNumber())
	}
	return out
}

func sampleOrders() []Order {
	return []Order{
		agentOrder("SR-1", "under-process", "Umrah Package", 1),
		agentOrder("SR-2", "Un-approved", "Umrah Package", 1),
		agentOrder("SR-3", "Confirmed", "Umrah Package", 1),
		agentOrder("SR-4", "Approved", "Custom Package", 1),
		agentOrder("SR-5", "Delivered", "Group Ticket", 0),
		agentOrder("SR-6", "Rejected", "Umrah Package", 0),
		agentOrder("SR-7", "Canceled", "Group Ticket", 1),
		agentOrder("SR-8", "Pending", "Hajj", 1),
		FromPublic(api.Booking{BookingNumber: "PB-9", Status: "Under Process", BookingType: "Public Umrah Package"}),
		agentOrder("SR-10", "Finished", "Umrah Package", 0),
	}
}

func TestFilterUnderProcessMixedCase(t *testing.T) {
	o := agentOrder("SR-1", "Under-Process", "Umrah Package", 1)
	got := Filter([]Order{o}, Criteria{Tab: TabUnconfirmed, Status: FilterUnderProcess})
	assert.Equal(t, []string{"SR-1"}, numbers(got))
}

func TestFilterTabs(t *testing.T) {
	orders := sampleOrders()

	confirmed := Filter(orders, Criteria{Tab: TabConfirmed})
	assert.Equal(t, []string{"SR-2", "SR-3", "SR-4", "SR-5", "SR-6", "SR-7", "SR-8", "SR-10"}, numbers(confirmed))

	unconfirmed := Filter(orders, Criteria{Tab: TabUnconfirmed})
	assert.Equal(t, []string{"SR-1", "SR-6", "SR-7", "PB-9"}, numbers(unconfirmed))

	assert.Len(t, Filter(orders, Criteria{}), len(orders))
}

func TestStatusFilterIsTabRelative(t *testing.T) {
	orders := sampleOrders()

	got := Filter(orders, Criteria{Tab: TabConfirmed, Status: FilterUnapproved})
	assert.Equal(t, []string{"SR-3"}, numbers(got))

	got = Filter(orders, Criteria{Tab: TabUnconfirmed, Status: FilterUnapproved})
	assert.Empty(t, got)

	got = Filter(orders, Criteria{Status: FilterUnapproved})
	assert.Equal(t, []string{"SR-2", "SR-8"}, numbers(got))

	got = Filter(orders, Criteria{Tab: TabConfirmed, Status: FilterConfirmed})
	assert.Equal(t, []string{"SR-4"}, numbers(got))

	got = Filter(orders, Criteria{Tab: TabConfirmed, Status: FilterCancelled})
	assert.Equal(t, []string{"SR-6", "SR-7"}, numbers(got))

	got = Filter(orders, Criteria{Tab: TabConfirmed, Status: FilterDelivered})
	assert.Equal(t, []string{"SR-5", "SR-10"}, numbers(got))
}

func TestUnconfirmedTabChipsOnlyCarryItsOwnStatuses(t *testing.T) {
	orders := []Order{
		agentOrder("SR-1", "Un-approved", "Umrah Package", 1),
		agentOrder("SR-2", "Pending", "Umrah Package", 1),
		agentOrder("SR-3", "under-process", "Umrah Package", 1),
		agentOrder("SR-4", "Confirmed", "Umrah Package", 1),
	}

	for _, sf := range []StatusFilter{FilterUnapproved, FilterConfirmed, FilterDelivered} {
		assert.Empty(t, Filter(orders, Criteria{Tab: TabUnconfirmed, Status: sf}), sf)
	}
	assert.Equal(t, Facets{All: 1, UnderProcess: 1}, CountFacets(orders, Criteria{Tab: TabUnconfirmed}))
}

func TestFilterPayment(t *testing.T) {
	orders := sampleOrders()

	got := Filter(orders, Criteria{Payment: PaymentPaid})
	assert.Equal(t, []string{"SR-3"}, numbers(got))

	got = Filter(orders, Criteria{Payment: PaymentUnpaid})
	assert.Equal(t, []string{"SR-2"}, numbers(got))

	got = Filter(orders, Criteria{Tab: TabUnconfirmed, Payment: PaymentPaid})
	assert.Empty(t, got)

	facets := CountFacets(orders, Criteria{Tab: TabConfirmed, Payment: PaymentPaid})
	assert.Equal(t, Facets{All: 1, Unapproved: 1}, facets)

	pay, err := ParsePaymentFilter(" Un-Paid ")
	require.NoError(t, err)
	assert.Equal(t, PaymentUnpaid, pay)
	pay, err = ParsePaymentFilter("all")
	require.NoError(t, err)
	assert.Equal(t, PaymentAll, pay)
	_, err = ParsePaymentFilter("refunded")
	assert.Error(t, err)
}

func TestFilterOrderAndPackageType(t *testing.T) {
	orders := sampleOrders()

	got := Filter(orders, Criteria{OrderType: CustomerOrder})
	assert.Equal(t, []string{"PB-9"}, numbers(got))

	got = Filter(orders, Criteria{OrderType: BranchOrder})
	assert.Equal(t, []string{"SR-5", "SR-6", "SR-10"}, numbers(got))

	got = Filter(orders, Criteria{PackageType: PackageGroupTicket})
	assert.Equal(t, []string{"SR-5", "SR-7"}, numbers(got))

	// Unclassified bookings never show in a package-filtered view.
	for _, pt := range []PackageType{PackageUmrah, PackageCustom, PackageGroupTicket} {
		assert.NotContains(t, numbers(Filter(orders, Criteria{PackageType: pt})), "SR-8")
	}
}

func TestFilterBranchNarrowing(t *testing.T) {
	orders := []Order{
		FromAgent(api.Booking{BookingNumber: "B-1", BranchID: 2}),
		FromAgent(api.Booking{BookingNumber: "B-2", BranchID: 3}),
		FromAgent(api.Booking{BookingNumber: "A-1", BranchID: 2, AgencyID: 9}),
	}

	got := Filter(orders, Criteria{OrderType: BranchOrder, BranchID: 2})
	assert.Equal(t, []string{"B-1"}, numbers(got))

	got = Filter(orders, Criteria{OrderType: AgentOrder, BranchID: 2})
	assert.Equal(t, []string{"A-1"}, numbers(got))
}

func TestFilterSearch(t *testing.T) {
	orders := sampleOrders()
	assert.Equal(t, []string{"PB-9"}, numbers(Filter(orders, Criteria{Search: "pb-"})))
	assert.Equal(t, []string{"SR-1", "SR-10"}, numbers(Filter(orders, Criteria{Search: "sr-1"})))
	assert.Len(t, Filter(orders, Criteria{Search: "   "}), len(orders))
}

func allCriteria() []Criteria {
	var out []Criteria
	for _, tab := range []Tab{TabAll, TabConfirmed, TabUnconfirmed} {
		for _, ot := range []OrderType{"", AgentOrder, AreaAgentOrder, CustomerOrder, BranchOrder} {
			for _, pt := range []PackageType{PackageUnclassified, PackageUmrah, PackageCustom, PackageGroupTicket} {
				for _, sf := range []StatusFilter{FilterAll, FilterUnapproved, FilterUnderProcess, FilterDelivered, FilterConfirmed, FilterCancelled} {
					for _, search := range []string{"", "SR"} {
						for _, pay := range []PaymentFilter{PaymentAll, PaymentPaid, PaymentUnpaid} {
							out = append(out, Criteria{Tab: tab, OrderType: ot, PackageType: pt, Payment: pay, Status: sf, Search: search})
						}
					}
				}
			}
		}
	}
	return out
}

func TestFilterIsPerOrder(t *testing.T) {
	orders := sampleOrders()
	for _, c := range allCriteria() {
		full := numbers(Filter(orders, c))
		for i := range orders {
			rest := append(append([]Order{}, orders[:i]...), orders[i+1:]...)
			want := make([]string, 0, len(full))
			for _, n := range full {
				if n != orders[i].BookingNumber() {
					want = append(want, n)
				}
			}
			require.Equal(t, want, numbers(Filter(rest, c)), fmt.Sprintf("%+v without %s", c, orders[i].BookingNumber()))
		}
	}
}

func TestFacetsAgreeWithFilter(t *testing.T) {
	orders := sampleOrders()
	for _, c := range allCriteria() {
		facets := CountFacets(orders, c)
		assert.LessOrEqual(t, facets.Buckets(), facets.All, "%+v", c)

		scope := c
		scope.Status = FilterAll
		assert.Equal(t, len(Filter(orders, scope)), facets.All, "%+v", c)

		perBucket := map[StatusFilter]int{
			FilterUnapproved:   facets.Unapproved,
			FilterUnderProcess: facets.UnderProcess,
			FilterDelivered:    facets.Delivered,
			FilterConfirmed:    facets.Confirmed,
			FilterCancelled:    facets.Cancelled,
		}
		for sf, n := range perBucket {
			chip := c
			chip.Status = sf
			assert.Equal(t, len(Filter(orders, chip)), n, "%+v", chip)
		}
	}
}

func TestCountFacetsUnconfirmedTab(t *testing.T) {
	facets := CountFacets(sampleOrders(), Criteria{Tab: TabUnconfirmed})
	assert.Equal(t, Facets{All: 4, UnderProcess: 2, Cancelled: 2}, facets)
}

func TestParseFilters(t *testing.T) {
	sf, err := ParseStatusFilter("Un-Approve")
	require.NoError(t, err)
	assert.Equal(t, FilterUnapproved, sf)

	sf, err = ParseStatusFilter("Canceled")
	require.NoError(t, err)
	assert.Equal(t, FilterCancelled, sf)

	tab, err := ParseTab("Unconfirmed")
	require.NoError(t, err)
	assert.Equal(t, TabUnconfirmed, tab)

	_, err = ParseStatusFilter("archived")
	assert.Error(t, err)
	_, err = ParseTab("archived")
	assert.Error(t, err)
}

func TestParseCriteria(t *testing.T) {
	c, err := ParseCriteria("confirmed", "area", "ticket", "under process", "  SR-1 ", 4)
	require.NoError(t, err)
	assert.Equal(t, Criteria{
		Tab:         TabConfirmed,
		OrderType:   AreaAgentOrder,
		PackageType: PackageGroupTicket,
		Status:      FilterUnderProcess,
		Search:      "SR-1",
		BranchID:    4,
	}, c)

	c, err = ParseCriteria("", "", "", "", "", 0)
	require.NoError(t, err)
	assert.Equal(t, Criteria{Status: FilterAll}, c)

	_, err = ParseCriteria("", "wholesale", "", "", "", 0)
	assert.Error(t, err)
}

func TestPaginate(t *testing.T) {
	orders := sampleOrders()

	page, pages := Paginate(orders, 2, 4)
	assert.Equal(t, 3, pages)
	assert.Equal(t, []string{"SR-5", "SR-6", "SR-7", "SR-8"}, numbers(page))

	page, _ = Paginate(orders, 3, 4)
	assert.Equal(t, []string{"PB-9", "SR-10"}, numbers(page))

	page, _ = Paginate(orders, 9, 4)
	assert.Empty(t, page)

	page, pages = Paginate(nil, 1, 10)
	assert.Empty(t, page)
	assert.Equal(t, 1, pages)
}

func TestSortByBookingNumber(t *testing.T) {
	orders := []Order{agentOrder("sr-2", "", "", 0), agentOrder("PB-1", "", "", 0), agentOrder("SR-1", "", "", 0)}
	SortByBookingNumber(orders)
	assert.Equal(t, []string{"PB-1", "SR-1", "sr-2"}, numbers(orders))
}
