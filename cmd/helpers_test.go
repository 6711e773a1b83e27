package cmd

import (
	"strings"
	"testing"

	"umrah-desk/order"
	"umrah-desk/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIndexes(t *testing.T) {
	tests := []struct {
		input   string
		want    []int
		wantErr bool
	}{
		{input: "0", want: []int{0}},
		{input: "0, 2,5", want: []int{0, 2, 5}},
		{input: "1-3", want: []int{1, 2, 3}},
		{input: "0,2-3", want: []int{0, 2, 3}},
		{input: "", wantErr: true},
		{input: "3-1", wantErr: true},
		{input: "a", wantErr: true},
		{input: "-1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseIndexes(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadPayload(t *testing.T) {
	raw, err := readPayload(`{"first_name":"Aisha"}`, strings.NewReader("ignored"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"first_name":"Aisha"}`, string(raw))

	raw, err = readPayload("-", strings.NewReader(`{"quantity":2}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"quantity":2}`, string(raw))

	_, err = readPayload("", strings.NewReader(`[1,2]`))
	assert.Error(t, err)

	_, err = readPayload(`{"broken"`, nil)
	assert.Error(t, err)
}

func TestMergeViewKeepsExplicitFlags(t *testing.T) {
	view := storage.View{
		Alias:       "gt",
		Tab:         "unconfirmed",
		PackageType: "group-ticket",
		Payment:     "unpaid",
		Status:      "under-process",
		BranchID:    4,
	}
	flags := listFilters{Status: "cancelled", Search: "GT-"}
	changed := map[string]bool{"status": true, "query": true}

	got := mergeView(view, flags, func(name string) bool { return changed[name] })

	assert.Equal(t, listFilters{
		Tab:         "unconfirmed",
		PackageType: "group-ticket",
		Payment:     "unpaid",
		Status:      "cancelled",
		Search:      "GT-",
		Branch:      4,
	}, got)
}

func TestParseFiltersRejectsUnknownPayment(t *testing.T) {
	criteria, err := parseFilters(listFilters{Tab: "confirmed", Payment: "paid"})
	require.NoError(t, err)
	assert.Equal(t, order.PaymentPaid, criteria.Payment)
	assert.Equal(t, order.TabConfirmed, criteria.Tab)

	_, err = parseFilters(listFilters{Payment: "refunded"})
	assert.Error(t, err)
}

func TestParseDateInput(t *testing.T) {
	got, err := parseDateInput("2025-03-01")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-01", got)

	_, err = parseDateInput("today")
	assert.NoError(t, err)

	_, err = parseDateInput("01/03/2025")
	assert.Error(t, err)
}
