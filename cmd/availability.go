package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func availabilityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "availability <booking-number>",
		Short: "Check hotel room availability for an order",
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

			ctx := context.Background()
			rc := session.RequestContext()
			o, err := fetchOrder(ctx, desk, rc, args[0])
			if err != nil {
				return err
			}
			report, err := desk.Availability.Check(ctx, rc, o)
			if err != nil {
				return err
			}

			if outputJSON {
				return writeJSON(report)
			}

			if len(report.Lines) > 0 && !outputCompact {
				writer := newTable()
				fmt.Fprintln(writer, "#\tHOTEL\tFROM\tTO\tROOMS\tNOTE")
				for _, line := range report.Lines {
					rooms := fmt.Sprint(line.Rooms)
					note := ""
					switch {
					case line.Skipped:
						rooms, note = "-", "skipped: missing hotel or dates"
					case line.Err != nil:
						rooms, note = "-", "query failed: "+line.Error
					}
					fmt.Fprintf(writer, "%d\t%s\t%s\t%s\t%s\t%s\n", line.Index, valueOr(line.HotelName, fmt.Sprint(line.HotelID)), valueOr(line.DateFrom, "-"), valueOr(line.DateTo, "-"), rooms, note)
				}
				if err := writer.Flush(); err != nil {
					return err
				}
				fmt.Println()
			}
			fmt.Printf("%s: %s\n", o.BookingNumber(), report.Result)
			return nil
		},
	}

	return cmd
}
