package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func visaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "visa",
		Short: "Manage passenger visas of approved orders",
	}

	cmd.AddCommand(visaSetCmd())
	cmd.AddCommand(visaShirkasCmd())
	return cmd
}

func visaSetCmd() *cobra.Command {
	var passengers string
	var status string

	cmd := &cobra.Command{
		Use:   "set <booking-number>",
		Short: "Set the visa status of selected passengers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			indexes, err := parseIndexes(passengers)
			if err != nil {
				return fmt.Errorf("--passengers: %w", err)
			}
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
			rc := session.RequestContext()
			o, err := fetchOrder(ctx, desk, rc, args[0])
			if err != nil {
				return err
			}
			updated, err := desk.Visa.SetStatus(ctx, rc, o, indexes, status)
			if err != nil {
				return err
			}

			if outputJSON {
				return writeJSON(updated.Booking.PersonDetails)
			}
			if outputCompact {
				fmt.Printf("Updated %d passengers.\n", len(indexes))
				return nil
			}
			writer := newTable()
			fmt.Fprintln(writer, "#\tNAME\tPASSPORT\tVISA")
			for i, person := range updated.Booking.PersonDetails {
				fmt.Fprintf(writer, "%d\t%s\t%s\t%s\n", i, person.FullName(), valueOr(person.PassportNumber, "-"), valueOr(person.VisaStatus, "-"))
			}
			return writer.Flush()
		},
	}

	cmd.Flags().StringVar(&passengers, "passengers", "", "Passenger indexes, e.g. 0,2 or 0-3")
	cmd.Flags().StringVar(&status, "status", "Approved", "Visa status: Pending, Approved, Rejected")
	return cmd
}

func visaShirkasCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shirkas",
		Short: "List the shirkas visas can be filed with",
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

			shirkas, err := desk.Visa.Shirkas(context.Background(), session.RequestContext())
			if err != nil {
				return err
			}

			if outputJSON {
				return writeJSON(shirkas)
			}
			if len(shirkas) == 0 {
				fmt.Println("No shirkas found.")
				return nil
			}
			writer := newTable()
			if !outputCompact {
				fmt.Fprintln(writer, "ID\tNAME")
			}
			for _, shirka := range shirkas {
				fmt.Fprintf(writer, "%d\t%s\n", shirka.ID, shirka.Name)
			}
			return writer.Flush()
		},
	}

	return cmd
}
