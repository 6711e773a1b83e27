package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"umrah-desk/order"
	"umrah-desk/storage"
	"umrah-desk/workflow"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func ordersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Browse and act on orders",
	}

	cmd.AddCommand(ordersListCmd())
	cmd.AddCommand(ordersFacetsCmd())
	cmd.AddCommand(ordersShowCmd())
	cmd.AddCommand(ordersConfirmCmd())
	cmd.AddCommand(ordersApproveCmd())
	cmd.AddCommand(ordersRejectCmd())
	cmd.AddCommand(ordersCancelCmd())
	return cmd
}

// listFilters are the raw filter values of a list, before parsing.
type listFilters struct {
	Tab         string
	OrderType   string
	PackageType string
	Payment     string
	Status      string
	Search      string
	Branch      int64
}

func addFilterFlags(cmd *cobra.Command, f *listFilters, view *string) {
	cmd.Flags().StringVar(&f.Tab, "tab", "", "Tab: all, confirmed, unconfirmed")
	cmd.Flags().StringVar(&f.OrderType, "type", "", "Order type: agent, area-agent, customer, branch")
	cmd.Flags().StringVar(&f.PackageType, "package", "", "Package: umrah, custom, group-ticket")
	cmd.Flags().StringVar(&f.Payment, "payment", "", "Payment: paid (Confirmed), unpaid (Un-approved)")
	cmd.Flags().StringVar(&f.Status, "status", "", "Status chip: un-approve, under-process, delivered, confirmed, cancelled")
	cmd.Flags().StringVarP(&f.Search, "query", "q", "", "Booking number contains")
	cmd.Flags().Int64Var(&f.Branch, "branch", 0, "Branch ID for branch orders")
	cmd.Flags().StringVar(view, "view", "", "Start from a saved view")
}

// resolveFilters layers explicit flags over a saved view over the defaults.
func resolveFilters(cmd *cobra.Command, f listFilters, viewAlias string, session *storage.Session) (order.Criteria, error) {
	if viewAlias != "" {
		views, err := storage.LoadViews()
		if err != nil {
			return order.Criteria{}, err
		}
		view, ok := storage.FindView(views, viewAlias)
		if !ok {
			return order.Criteria{}, fmt.Errorf("view %q not found", viewAlias)
		}
		f = mergeView(view, f, cmd.Flags().Changed)
	}
	if f.Tab == "" && !cmd.Flags().Changed("tab") {
		f.Tab = cfg.Desk.DefaultTab
	}
	if f.Branch == 0 && session != nil {
		f.Branch = session.BranchID
	}
	return parseFilters(f)
}

func parseFilters(f listFilters) (order.Criteria, error) {
	criteria, err := order.ParseCriteria(f.Tab, f.OrderType, f.PackageType, f.Status, f.Search, f.Branch)
	if err != nil {
		return order.Criteria{}, err
	}
	if criteria.Payment, err = order.ParsePaymentFilter(f.Payment); err != nil {
		return order.Criteria{}, err
	}
	return criteria, nil
}

func mergeView(view storage.View, f listFilters, changed func(string) bool) listFilters {
	pick := func(flag, current, saved string) string {
		if changed(flag) {
			return current
		}
		return saved
	}
	f.Tab = pick("tab", f.Tab, view.Tab)
	f.OrderType = pick("type", f.OrderType, view.OrderType)
	f.PackageType = pick("package", f.PackageType, view.PackageType)
	f.Payment = pick("payment", f.Payment, view.Payment)
	f.Status = pick("status", f.Status, view.Status)
	f.Search = pick("query", f.Search, view.Search)
	if !changed("branch") {
		f.Branch = view.BranchID
	}
	return f
}

func loadOrders(ctx context.Context, desk *workflow.Desk, session *storage.Session) ([]order.Order, error) {
	rc := session.RequestContext()
	orders, err := desk.Source.FetchOrders(ctx, rc)
	if err != nil {
		return nil, err
	}
	return desk.Source.ResolveAgencies(ctx, rc, orders), nil
}

func ordersListCmd() *cobra.Command {
	var filters listFilters
	var view string
	var page int
	var size int
	var sortByNumber bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := requireSession()
			if err != nil {
				return err
			}
			criteria, err := resolveFilters(cmd, filters, view, session)
			if err != nil {
				return err
			}
			if size <= 0 {
				size = cfg.Desk.PageSize
			}

			desk, closeDesk, err := openDesk()
			if err != nil {
				return err
			}
			defer closeDesk()

			orders, err := loadOrders(context.Background(), desk, session)
			if err != nil {
				return err
			}
			matched := order.Filter(orders, criteria)
			if sortByNumber {
				order.SortByBookingNumber(matched)
			}
			paged, pages := order.Paginate(matched, page, size)

			rows := make([]orderRow, 0, len(paged))
			for _, o := range paged {
				rows = append(rows, rowOf(o))
			}

			if outputJSON {
				return writeJSON(map[string]any{
					"orders": rows,
					"facets": order.CountFacets(orders, criteria),
					"total":  len(matched),
					"page":   max(page, 1),
					"pages":  pages,
				})
			}

			if len(rows) == 0 {
				fmt.Println("No orders found.")
				return nil
			}

			writer := newTable()
			if !outputCompact {
				fmt.Fprintln(writer, "BOOKING\tORIGIN\tTYPE\tPACKAGE\tSTATUS\tAGENCY/CONTACT\tPAX\tTOTAL")
			}
			for i, row := range rows {
				fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
					row.BookingNumber,
					row.Origin,
					valueOr(string(row.OrderType), "-"),
					valueOr(string(row.PackageType), "-"),
					statusLabel(paged[i]),
					row.party(),
					row.TotalPax,
					formatMoney(row.TotalAmount),
				)
			}
			if err := writer.Flush(); err != nil {
				return err
			}
			if !outputCompact {
				fmt.Printf("\nPage %d of %d (%d orders)\n", max(page, 1), pages, len(matched))
			}
			return nil
		},
	}

	addFilterFlags(cmd, &filters, &view)
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().IntVar(&size, "size", 0, "Page size (default from config)")
	cmd.Flags().BoolVar(&sortByNumber, "sort", false, "Sort by booking number")
	return cmd
}

func ordersFacetsCmd() *cobra.Command {
	var filters listFilters
	var view string

	cmd := &cobra.Command{
		Use:   "facets",
		Short: "Count orders per status chip",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := requireSession()
			if err != nil {
				return err
			}
			criteria, err := resolveFilters(cmd, filters, view, session)
			if err != nil {
				return err
			}

			desk, closeDesk, err := openDesk()
			if err != nil {
				return err
			}
			defer closeDesk()

			orders, err := loadOrders(context.Background(), desk, session)
			if err != nil {
				return err
			}
			facets := order.CountFacets(orders, criteria)

			if outputJSON {
				return writeJSON(facets)
			}

			writer := newTable()
			if !outputCompact {
				fmt.Fprintln(writer, "STATUS\tCOUNT")
			}
			for _, line := range []struct {
				label string
				count int
			}{
				{"all", facets.All},
				{string(order.FilterUnapproved), facets.Unapproved},
				{string(order.FilterUnderProcess), facets.UnderProcess},
				{string(order.FilterDelivered), facets.Delivered},
				{string(order.FilterConfirmed), facets.Confirmed},
				{string(order.FilterCancelled), facets.Cancelled},
			} {
				fmt.Fprintf(writer, "%s\t%d\n", line.label, line.count)
			}
			return writer.Flush()
		},
	}

	addFilterFlags(cmd, &filters, &view)
	return cmd
}

func ordersShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <booking-number>",
		Short: "Show one order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := requireSession()
			if err != nil {
				return err
			}
			desk, closeDesk, err := openDesk()
			if err != nil {
				return err
			}
			defer closeDesk()

			o, err := fetchOrder(context.Background(), desk, session.RequestContext(), args[0])
			if err != nil {
				return err
			}
			row := rowOf(o)

			if outputJSON {
				return writeJSON(map[string]any{
					"order":   row,
					"booking": o.Booking,
				})
			}

			b := o.Booking
			fmt.Printf("%s  %s  %s\n", row.BookingNumber, statusLabel(o), row.Origin)
			fmt.Printf("Type: %s / %s\n", valueOr(string(row.OrderType), "-"), valueOr(string(row.PackageType), "-"))
			fmt.Printf("Agency/contact: %s\n", row.party())
			fmt.Printf("Total: %s (remaining %s)\n", formatMoney(b.TotalAmount), formatMoney(b.RemainingAmount))
			if b.RejectedNotes != "" {
				fmt.Printf("Rejected: %s (%s)\n", b.RejectedNotes, valueOr(b.RejectedAt, "-"))
			}
			if outputCompact {
				return nil
			}

			fmt.Printf("\nPassengers (%d adult, %d child, %d infant)\n", b.TotalAdult, b.TotalChild, b.TotalInfant)
			if len(b.PersonDetails) == 0 {
				fmt.Println("No passengers.")
			} else {
				writer := newTable()
				fmt.Fprintln(writer, "#\tNAME\tAGE\tPASSPORT\tVISA")
				for i, person := range b.PersonDetails {
					fmt.Fprintf(writer, "%d\t%s\t%s\t%s\t%s\n", i, person.FullName(), person.AgeGroup, valueOr(person.PassportNumber, "-"), valueOr(person.VisaStatus, "-"))
				}
				if err := writer.Flush(); err != nil {
					return err
				}
			}

			fmt.Println("\nHotels")
			if len(b.HotelDetails) == 0 {
				fmt.Println("No hotels.")
			} else {
				writer := newTable()
				fmt.Fprintln(writer, "#\tHOTEL\tCHECK-IN\tCHECK-OUT\tROOMS\tTOTAL")
				for i, line := range b.HotelDetails {
					fmt.Fprintf(writer, "%d\t%s\t%s\t%s\t%d\t%s\n", i, valueOr(line.Name(), "-"), valueOr(line.CheckInDate, "-"), valueOr(line.CheckOutDate, "-"), line.Quantity, formatMoney(line.TotalPrice))
				}
				if err := writer.Flush(); err != nil {
					return err
				}
			}

			fmt.Printf("\nFlights: %d  Transport: %d  Food: %d  Ziarat: %d\n",
				len(b.TicketDetails), len(b.TransportDetails), len(b.FoodDetails), len(b.ZiyaratDetails))
			return nil
		},
	}

	return cmd
}

func ordersConfirmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "confirm <booking-number>",
		Short: "Confirm an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransition(args[0], func(ctx context.Context, desk *workflow.Desk, session *storage.Session, o order.Order) (workflow.Outcome, error) {
				return desk.Machine.Confirm(ctx, session.RequestContext(), operatorOf(session), o)
			})
		},
	}

	return cmd
}

func ordersApproveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "approve <booking-number>",
		Short: "Approve an order and move on to visas",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransition(args[0], func(ctx context.Context, desk *workflow.Desk, session *storage.Session, o order.Order) (workflow.Outcome, error) {
				return desk.Machine.Approve(ctx, session.RequestContext(), operatorOf(session), o)
			})
		},
	}

	return cmd
}

func ordersRejectCmd() *cobra.Command {
	var note string

	cmd := &cobra.Command{
		Use:   "reject <booking-number>",
		Short: "Reject an order with a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(note) == "" {
				return fmt.Errorf("--note is required")
			}
			return runTransition(args[0], func(ctx context.Context, desk *workflow.Desk, session *storage.Session, o order.Order) (workflow.Outcome, error) {
				return desk.Machine.Reject(ctx, session.RequestContext(), operatorOf(session), o, note)
			})
		},
	}

	cmd.Flags().StringVar(&note, "note", "", "Reason shown to the agent")
	return cmd
}

func ordersCancelCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "cancel <booking-number>",
		Short: "Cancel a group ticket order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes && term.IsTerminal(int(os.Stdin.Fd())) {
				fmt.Printf("Cancel %s? [y/N] ", args[0])
				answer, err := bufio.NewReader(os.Stdin).ReadString('\n')
				if err != nil {
					return err
				}
				answer = strings.ToLower(strings.TrimSpace(answer))
				yes = answer == "y" || answer == "yes"
			}
			return runTransition(args[0], func(ctx context.Context, desk *workflow.Desk, session *storage.Session, o order.Order) (workflow.Outcome, error) {
				return desk.Machine.Cancel(ctx, session.RequestContext(), operatorOf(session), o, yes)
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm the cancellation")
	return cmd
}

type transitionFunc func(ctx context.Context, desk *workflow.Desk, session *storage.Session, o order.Order) (workflow.Outcome, error)

func runTransition(bookingNumber string, run transitionFunc) error {
	session, err := requireSession()
	if err != nil {
		return err
	}
	desk, closeDesk, err := openDesk()
	if err != nil {
		return err
	}
	defer closeDesk()

	ctx := context.Background()
	o, err := fetchOrder(ctx, desk, session.RequestContext(), bookingNumber)
	if err != nil {
		return err
	}
	outcome, err := run(ctx, desk, session, o)
	if err != nil {
		return err
	}

	if outputJSON {
		return writeJSON(map[string]any{
			"outcome": outcome,
			"order":   rowOf(outcome.Order),
		})
	}
	fmt.Printf("%s: %s -> %s.\n", outcome.Order.BookingNumber(), outcome.From, outcome.To)
	switch outcome.Redirect {
	case workflow.RedirectVisa:
		fmt.Printf("Next: desk visa set %s --passengers <indexes> --status Approved\n", outcome.Order.BookingNumber())
	case workflow.RedirectList:
		fmt.Println("Next: desk orders list")
	}
	return nil
}
