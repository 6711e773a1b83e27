package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"umrah-desk/api"
	"umrah-desk/order"
	"umrah-desk/storage"
	"umrah-desk/workflow"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

func writeJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func newTable() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 2, 2, 2, ' ', 0)
}

func requireSession() (*storage.Session, error) {
	session, err := storage.LoadSession()
	if err != nil {
		return nil, err
	}
	if session == nil || session.AccessToken == "" {
		return nil, fmt.Errorf("no session; run 'desk session set' first")
	}
	if session.Organization.ID == 0 {
		return nil, fmt.Errorf("session has no organization; run 'desk session set --org <id>'")
	}
	return session, nil
}

func operatorOf(session *storage.Session) workflow.Operator {
	return workflow.Operator{ID: session.OperatorID, Name: session.OperatorName}
}

// openDesk builds the workflow around the API client with the local journal
// attached. The returned func closes the journal.
func openDesk() (*workflow.Desk, func(), error) {
	db, err := storage.OpenJournalDB()
	if err != nil {
		return nil, nil, err
	}
	desk := workflow.New(client, workflow.Options{
		Journal:             &storage.Journal{DB: db},
		Log:                 log,
		AvailabilityWorkers: cfg.Desk.AvailabilityWorkers,
	})
	return desk, func() { db.Close() }, nil
}

func fetchOrder(ctx context.Context, desk *workflow.Desk, rc api.RequestContext, bookingNumber string) (order.Order, error) {
	bookingNumber = strings.TrimSpace(bookingNumber)
	if bookingNumber == "" {
		return order.Order{}, fmt.Errorf("booking number is required")
	}
	o, err := desk.Source.FetchOrder(ctx, rc, bookingNumber)
	if err != nil {
		return order.Order{}, err
	}
	return desk.Source.ResolveAgency(ctx, rc, o), nil
}

type orderRow struct {
	order.Classification

	BookingNumber string          `json:"booking_number"`
	Origin        order.Origin    `json:"origin"`
	Status        order.Status    `json:"status"`
	RawStatus     string          `json:"raw_status"`
	Agency        string          `json:"agency,omitempty"`
	Contact       string          `json:"contact,omitempty"`
	TotalPax      int             `json:"total_pax"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	CreatedAt     string          `json:"created_at,omitempty"`
}

func rowOf(o order.Order) orderRow {
	row := orderRow{
		Classification: o.Classification(),
		BookingNumber:  o.BookingNumber(),
		Origin:         o.Origin,
		Status:         o.Status,
		RawStatus:      o.Booking.Status,
		Contact:        o.Booking.Contact("full_name"),
		TotalPax:       o.Booking.TotalPax,
		TotalAmount:    o.Booking.TotalAmount,
		CreatedAt:      o.Booking.CreatedAt,
	}
	if agency := o.AgencyRecord(); agency != nil {
		row.Agency = agency.Name
	}
	return row
}

// party is the agency for agent orders and the contact for public ones.
func (r orderRow) party() string {
	if r.Agency != "" {
		return r.Agency
	}
	if r.Contact != "" {
		return r.Contact
	}
	return "-"
}

func statusLabel(o order.Order) string {
	if o.Status == order.StatusUnknown && o.Booking.Status != "" {
		return o.Booking.Status
	}
	return string(o.Status)
}

func formatMoney(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}

func valueOr(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

// parseIndexes accepts "0,2,5" and ranges like "1-3".
func parseIndexes(input string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(input, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if lo, hi, ok := strings.Cut(part, "-"); ok {
			start, err := parseIndex(lo)
			if err != nil {
				return nil, err
			}
			end, err := parseIndex(hi)
			if err != nil {
				return nil, err
			}
			if end < start {
				return nil, fmt.Errorf("invalid range %q", part)
			}
			for i := start; i <= end; i++ {
				out = append(out, i)
			}
			continue
		}
		index, err := parseIndex(part)
		if err != nil {
			return nil, err
		}
		out = append(out, index)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no indexes given")
	}
	return out, nil
}

func parseIndex(input string) (int, error) {
	index, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || index < 0 {
		return 0, fmt.Errorf("invalid index %q", input)
	}
	return index, nil
}

// readPayload returns the JSON object given inline, or read from stdin when
// data is empty or "-".
func readPayload(data string, stdin io.Reader) ([]byte, error) {
	var raw []byte
	if data == "" || data == "-" {
		read, err := io.ReadAll(stdin)
		if err != nil {
			return nil, err
		}
		raw = read
	} else {
		raw = []byte(data)
	}
	if !gjson.ValidBytes(raw) || !gjson.ParseBytes(raw).IsObject() {
		return nil, fmt.Errorf("payload must be a JSON object")
	}
	return raw, nil
}

// parseDateInput turns YYYY-MM-DD, "today" or "yesterday" into the date
// prefix journal timestamps compare against.
func parseDateInput(input string) (string, error) {
	now := time.Now().UTC()
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "today":
		return now.Format("2006-01-02"), nil
	case "yesterday":
		return now.AddDate(0, 0, -1).Format("2006-01-02"), nil
	}
	parsed, err := time.Parse("2006-01-02", strings.TrimSpace(input))
	if err != nil {
		return "", fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", input)
	}
	return parsed.Format("2006-01-02"), nil
}
