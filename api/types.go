package api

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

// Booking is the union of the agent and public booking records. Public
// bookings carry ContactInformation where agent bookings carry Agency.
type Booking struct {
	ID              int64  `json:"id"`
	BookingNumber   string `json:"booking_number"`
	BookingType     string `json:"booking_type"`
	IsPublicBooking bool   `json:"is_public_booking"`
	Status          string `json:"status"`
	CreatedAt       string `json:"created_at,omitempty"`

	Agency         Ref   `json:"agency"`
	AgencyID       int64 `json:"agency_id,omitempty"`
	User           Ref   `json:"user"`
	UserID         int64 `json:"user_id,omitempty"`
	Organization   Ref   `json:"organization"`
	OrganizationID int64 `json:"organization_id,omitempty"`
	Branch         Ref   `json:"branch"`
	BranchID       int64 `json:"branch_id,omitempty"`

	ContactInformation json.RawMessage `json:"contact_information,omitempty"`

	TotalPax    int `json:"total_pax"`
	TotalAdult  int `json:"total_adult"`
	TotalChild  int `json:"total_child"`
	TotalInfant int `json:"total_infant"`

	TotalAmount          decimal.Decimal `json:"total_amount"`
	RemainingAmount      decimal.Decimal `json:"remaining_amount"`
	TotalVisaAmount      decimal.Decimal `json:"total_visa_amount"`
	TotalHotelAmount     decimal.Decimal `json:"total_hotel_amount"`
	TotalTransportAmount decimal.Decimal `json:"total_transport_amount"`
	TotalTicketAmount    decimal.Decimal `json:"total_ticket_amount"`
	TotalFoodAmount      decimal.Decimal `json:"total_food_amount_pkr"`
	TotalZiyaratAmount   decimal.Decimal `json:"total_ziyarat_amount_pkr"`

	PersonDetails    []Person        `json:"person_details"`
	HotelDetails     []HotelLine     `json:"hotel_details"`
	TransportDetails []TransportLine `json:"transport_details"`
	FoodDetails      []FoodLine      `json:"food_details"`
	ZiyaratDetails   []ZiyaratLine   `json:"ziyarat_details"`
	TicketDetails    []Ticket        `json:"ticket_details"`

	RejectedNotes string `json:"rejected_notes,omitempty"`
	RejectedAt    string `json:"rejected_at,omitempty"`
	RejectedBy    Ref    `json:"rejected_employer"`
}

func (b Booking) AgencyKey() int64       { return firstID(b.Agency, b.AgencyID) }
func (b Booking) UserKey() int64         { return firstID(b.User, b.UserID) }
func (b Booking) OrganizationKey() int64 { return firstID(b.Organization, b.OrganizationID) }
func (b Booking) BranchKey() int64       { return firstID(b.Branch, b.BranchID) }

// LooksPublic reports whether the record itself claims to be a public
// booking. Origin is decided by the source a record came from; this is only
// a consistency hint.
func (b Booking) LooksPublic() bool {
	return b.IsPublicBooking || strings.EqualFold(strings.TrimSpace(b.BookingType), "Public Umrah Package")
}

// Contact returns a field of the public booking contact block.
func (b Booking) Contact(field string) string {
	if len(b.ContactInformation) == 0 {
		return ""
	}
	return gjson.GetBytes(b.ContactInformation, field).String()
}

func firstID(ref Ref, id int64) int64 {
	if ref.Valid() {
		return ref.ID
	}
	return id
}

type Person struct {
	ID                 int64  `json:"id,omitempty"`
	FirstName          string `json:"first_name" validate:"required"`
	LastName           string `json:"last_name"`
	AgeGroup           string `json:"age_group" validate:"required,oneof=Adult Child Infant"`
	PassportNumber     string `json:"passport_number"`
	DateOfBirth        string `json:"date_of_birth,omitempty" validate:"omitempty,calendardate"`
	PassportExpiryDate string `json:"passport_expiry_date,omitempty" validate:"omitempty,calendardate"`
	Country            string `json:"country,omitempty"`
	ContactNumber      string `json:"contact_number,omitempty"`
	VisaStatus         string `json:"visa_status,omitempty" validate:"omitempty,oneof=Pending Approved Rejected"`

	raw json.RawMessage
}

func (p *Person) UnmarshalJSON(data []byte) error {
	type plain Person
	if err := json.Unmarshal(data, (*plain)(p)); err != nil {
		return err
	}
	p.raw = append(json.RawMessage(nil), data...)
	return nil
}

func (p Person) MarshalJSON() ([]byte, error) {
	type plain Person
	return overlay(p.raw, plain(p))
}

func (p Person) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

type HotelLine struct {
	ID             int64           `json:"id,omitempty"`
	Hotel          Ref             `json:"hotel" validate:"required"`
	HotelName      string          `json:"hotel_name,omitempty"`
	CheckInDate    string          `json:"check_in_date,omitempty" validate:"omitempty,calendardate"`
	CheckOutDate   string          `json:"check_out_date,omitempty" validate:"omitempty,calendardate"`
	CheckInTime    string          `json:"check_in_time,omitempty"`
	CheckOutTime   string          `json:"check_out_time,omitempty"`
	NumberOfNights int             `json:"number_of_nights"`
	RoomType       string          `json:"room_type,omitempty"`
	RoomTypeName   string          `json:"room_type_name,omitempty"`
	Quantity       int             `json:"quantity" validate:"gte=0"`
	SharingType    string          `json:"sharing_type,omitempty"`
	Price          decimal.Decimal `json:"price"`
	TotalPrice     decimal.Decimal `json:"total_price"`
	SpecialRequest string          `json:"special_request,omitempty"`
	VoucherNumber  string          `json:"hotel_voucher_number,omitempty"`

	raw json.RawMessage
}

func (h *HotelLine) UnmarshalJSON(data []byte) error {
	type plain HotelLine
	if err := json.Unmarshal(data, (*plain)(h)); err != nil {
		return err
	}
	h.raw = append(json.RawMessage(nil), data...)
	return nil
}

func (h HotelLine) MarshalJSON() ([]byte, error) {
	type plain HotelLine
	return overlay(h.raw, plain(h))
}

// Name prefers the resolved display name and falls back to the embedded
// hotel object.
func (h HotelLine) Name() string {
	if h.HotelName != "" {
		return h.HotelName
	}
	if h.Hotel.Embedded() {
		return gjson.GetBytes(h.Hotel.Object, "name").String()
	}
	return ""
}

type SectorDetail struct {
	DepartureCity   Text `json:"departure_city"`
	ArrivalCity     Text `json:"arrival_city"`
	IsAirportPickup bool `json:"is_airport_pickup"`
	IsAirportDrop   bool `json:"is_airport_drop"`

	raw json.RawMessage
}

func (s *SectorDetail) UnmarshalJSON(data []byte) error {
	type plain SectorDetail
	if err := json.Unmarshal(data, (*plain)(s)); err != nil {
		return err
	}
	s.raw = append(json.RawMessage(nil), data...)
	return nil
}

func (s SectorDetail) MarshalJSON() ([]byte, error) {
	type plain SectorDetail
	return overlay(s.raw, plain(s))
}

type TransportLine struct {
	ID                 int64           `json:"id,omitempty"`
	VehicleType        Text            `json:"vehicle_type,omitempty" validate:"required"`
	VehicleTypeDisplay string          `json:"vehicle_type_display,omitempty"`
	SectorDetails      []SectorDetail  `json:"sector_details"`
	VoucherNo          string          `json:"voucher_no,omitempty"`
	BRNNo              string          `json:"brn_no,omitempty"`
	PriceInSAR         decimal.Decimal `json:"price_in_sar"`

	raw json.RawMessage
}

func (t *TransportLine) UnmarshalJSON(data []byte) error {
	type plain TransportLine
	if err := json.Unmarshal(data, (*plain)(t)); err != nil {
		return err
	}
	t.raw = append(json.RawMessage(nil), data...)
	return nil
}

func (t TransportLine) MarshalJSON() ([]byte, error) {
	type plain TransportLine
	return overlay(t.raw, plain(t))
}

// MealLine holds the columns food and ziyarat lines share.
type MealLine struct {
	ContactPersonName string          `json:"contact_person_name,omitempty"`
	ContactNumber     string          `json:"contact_number,omitempty"`
	TotalAdults       int             `json:"total_adults" validate:"gte=0"`
	TotalChildren     int             `json:"total_children" validate:"gte=0"`
	TotalInfants      int             `json:"total_infants" validate:"gte=0"`
	AdultPrice        decimal.Decimal `json:"adult_price"`
	ChildPrice        decimal.Decimal `json:"child_price"`
	InfantPrice       decimal.Decimal `json:"infant_price"`
	TotalPricePKR     decimal.Decimal `json:"total_price_pkr"`
	TotalPriceSAR     decimal.Decimal `json:"total_price_sar"`
}

type FoodLine struct {
	ID            int64  `json:"id,omitempty"`
	Food          Text   `json:"food,omitempty" validate:"required"`
	VoucherNumber string `json:"food_voucher_number,omitempty"`
	BRN           string `json:"food_brn,omitempty"`
	MealLine

	raw json.RawMessage
}

func (f *FoodLine) UnmarshalJSON(data []byte) error {
	type plain FoodLine
	if err := json.Unmarshal(data, (*plain)(f)); err != nil {
		return err
	}
	f.raw = append(json.RawMessage(nil), data...)
	return nil
}

func (f FoodLine) MarshalJSON() ([]byte, error) {
	type plain FoodLine
	return overlay(f.raw, plain(f))
}

type ZiyaratLine struct {
	ID            int64  `json:"id,omitempty"`
	Ziarat        Text   `json:"ziarat,omitempty" validate:"required"`
	VoucherNumber string `json:"ziarat_voucher_number,omitempty"`
	BRN           string `json:"ziarat_brn,omitempty"`
	MealLine

	raw json.RawMessage
}

func (z *ZiyaratLine) UnmarshalJSON(data []byte) error {
	type plain ZiyaratLine
	if err := json.Unmarshal(data, (*plain)(z)); err != nil {
		return err
	}
	z.raw = append(json.RawMessage(nil), data...)
	return nil
}

func (z ZiyaratLine) MarshalJSON() ([]byte, error) {
	type plain ZiyaratLine
	return overlay(z.raw, plain(z))
}

const (
	TripDeparture = "Departure"
	TripReturn    = "Return"
)

type Ticket struct {
	ID           int64        `json:"id,omitempty"`
	Airline      Text         `json:"airline,omitempty"`
	FlightNumber Text         `json:"flight_number,omitempty"`
	TripDetails  []TripDetail `json:"trip_details" validate:"dive"`

	raw json.RawMessage
}

func (t *Ticket) UnmarshalJSON(data []byte) error {
	type plain Ticket
	if err := json.Unmarshal(data, (*plain)(t)); err != nil {
		return err
	}
	t.raw = append(json.RawMessage(nil), data...)
	return nil
}

func (t Ticket) MarshalJSON() ([]byte, error) {
	type plain Ticket
	return overlay(t.raw, plain(t))
}

// Trip returns the leg of the given type, if present.
func (t Ticket) Trip(tripType string) (TripDetail, bool) {
	for _, trip := range t.TripDetails {
		if strings.EqualFold(trip.TripType, tripType) {
			return trip, true
		}
	}
	return TripDetail{}, false
}

type TripDetail struct {
	TripType          string `json:"trip_type" validate:"required,oneof=Departure Return"`
	DepartureCityName string `json:"departure_city_name,omitempty"`
	ArrivalCityName   string `json:"arrival_city_name,omitempty"`
	DepartureDateTime string `json:"departure_date_time,omitempty"`
	ArrivalDateTime   string `json:"arrival_date_time,omitempty"`
}

type Agency struct {
	ID              int64           `json:"id"`
	Name            string          `json:"name"`
	AgencyType      string          `json:"agency_type"`
	Type            string          `json:"type"`
	CreditLimit     decimal.Decimal `json:"credit_limit"`
	CreditUsed      decimal.Decimal `json:"credit_used"`
	AgreementStatus bool            `json:"agreement_status"`
	Contacts        []AgencyContact `json:"contacts"`
}

// Kind is the free-text agency classification, whichever field carries it.
func (a Agency) Kind() string {
	if a.AgencyType != "" {
		return a.AgencyType
	}
	return a.Type
}

func (a Agency) CreditAvailable() decimal.Decimal {
	return a.CreditLimit.Sub(a.CreditUsed)
}

type AgencyContact struct {
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number"`
	Email       string `json:"email"`
}

type HotelAvailability struct {
	TotalRooms     int `json:"total_rooms"`
	AvailableRooms int `json:"available_rooms"`
	AvailableBeds  int `json:"available_beds"`
}

type Shirka struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Organization struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Branch struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Organization Ref    `json:"organization"`
}

type User struct {
	ID                  int64          `json:"id"`
	Username            string         `json:"username"`
	FirstName           string         `json:"first_name"`
	LastName            string         `json:"last_name"`
	Email               string         `json:"email"`
	OrganizationDetails []Organization `json:"organization_details"`
}

func (u User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name != "" {
		return name
	}
	if u.Username != "" {
		return u.Username
	}
	return u.Email
}
