package order

import (
	"fmt"
	"strings"

	"umrah-desk/api"
)

type OrderType string

const (
	AgentOrder     OrderType = "agent"
	AreaAgentOrder OrderType = "area-agent"
	CustomerOrder  OrderType = "customer"
	BranchOrder    OrderType = "branch"
)

type PackageType string

const (
	PackageUmrah        PackageType = "umrah"
	PackageCustom       PackageType = "custom"
	PackageGroupTicket  PackageType = "group-ticket"
	PackageUnclassified PackageType = ""
)

type Classification struct {
	OrderType   OrderType   `json:"order_type"`
	PackageType PackageType `json:"package_type"`
}

// Classify depends only on whether the order is public, the agency's type
// and the booking type. An agency that matches no known type still makes an
// agent order, never a branch order.
func Classify(o Order, agency *api.Agency) Classification {
	return Classification{
		OrderType:   classifyOrderType(o, agency),
		PackageType: ClassifyPackage(o.Booking.BookingType),
	}
}

// Classification uses whatever agency the order carries.
func (o Order) Classification() Classification {
	return Classify(o, o.AgencyRecord())
}

func classifyOrderType(o Order, agency *api.Agency) OrderType {
	if o.IsPublic() {
		return CustomerOrder
	}
	if agency != nil {
		if strings.Contains(strings.ToLower(agency.Kind()), "area") {
			return AreaAgentOrder
		}
		return AgentOrder
	}
	if o.HasAgency() {
		return AgentOrder
	}
	return BranchOrder
}

func ClassifyPackage(bookingType string) PackageType {
	key := strings.ToLower(strings.TrimSpace(bookingType))
	switch {
	case strings.Contains(key, "umrah"):
		return PackageUmrah
	case strings.Contains(key, "custom"):
		return PackageCustom
	case strings.Contains(key, "group"), strings.Contains(key, "ticket"):
		return PackageGroupTicket
	}
	return PackageUnclassified
}

func ParseOrderType(s string) (OrderType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return "", nil
	case "agent":
		return AgentOrder, nil
	case "area-agent", "area_agent", "area":
		return AreaAgentOrder, nil
	case "customer", "public":
		return CustomerOrder, nil
	case "branch":
		return BranchOrder, nil
	}
	return "", fmt.Errorf("unknown order type %q", s)
}

func ParsePackageType(s string) (PackageType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return PackageUnclassified, nil
	case "umrah":
		return PackageUmrah, nil
	case "custom":
		return PackageCustom, nil
	case "group-ticket", "group_ticket", "ticket", "ticketing":
		return PackageGroupTicket, nil
	}
	return "", fmt.Errorf("unknown package type %q", s)
}
