package cmd

import (
	"context"
	"fmt"

	"umrah-desk/storage"

	"github.com/spf13/cobra"
)

func historyCmd() *cobra.Command {
	var bookingNumber string
	var action string
	var since string
	var failed bool
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show status changes made from this machine",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := storage.TransitionFilter{
				BookingNumber: bookingNumber,
				Action:        action,
				FailedOnly:    failed,
				Limit:         limit,
			}
			if since != "" {
				date, err := parseDateInput(since)
				if err != nil {
					return err
				}
				filter.Since = date
			}

			db, err := storage.OpenJournalDB()
			if err != nil {
				return err
			}
			defer db.Close()

			journal := &storage.Journal{DB: db}
			transitions, err := journal.ListTransitions(context.Background(), filter)
			if err != nil {
				return err
			}

			if outputJSON {
				return writeJSON(transitions)
			}

			if len(transitions) == 0 {
				fmt.Println("No transitions recorded.")
				return nil
			}

			writer := newTable()
			if !outputCompact {
				fmt.Fprintln(writer, "AT\tBOOKING\tACTION\tFROM\tTO\tOPERATOR\tOUTCOME\tNOTE")
			}
			for _, t := range transitions {
				note := t.Note
				if t.Outcome == storage.OutcomeFailed {
					note = t.Error
				}
				fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\t%d\t%s\t%s\n", t.At, t.BookingNumber, t.Action, t.FromStatus, t.ToStatus, t.OperatorID, t.Outcome, note)
			}
			return writer.Flush()
		},
	}

	cmd.Flags().StringVar(&bookingNumber, "booking", "", "Only this booking number")
	cmd.Flags().StringVar(&action, "action", "", "Only this action: confirm, approve, reject, cancel")
	cmd.Flags().StringVar(&since, "since", "", "Only changes on or after this date (YYYY-MM-DD, today, yesterday)")
	cmd.Flags().BoolVar(&failed, "failed", false, "Only changes the backend refused")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum rows")
	return cmd
}
