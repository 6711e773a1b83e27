package cmd

import (
	"context"
	"fmt"
	"os"

	"umrah-desk/workflow"

	"github.com/spf13/cobra"
)

func sectionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sections",
		Short: "Edit passengers, hotels, flights, transport, food and ziarat of an order",
		Long: "Sections: passengers, hotels, flights, transport, food, ziarat.\n" +
			"Items are JSON objects given with --data or on stdin. Indexes match 'desk orders show'.",
	}

	cmd.AddCommand(sectionsAddCmd())
	cmd.AddCommand(sectionsUpdateCmd())
	cmd.AddCommand(sectionsRemoveCmd())
	cmd.AddCommand(sectionsClearCmd())
	return cmd
}

type sectionEdit func(ctx context.Context, editor workflow.SectionEditor) error

// runSectionEdit loads the order, applies edit to one section and reports
// the saved result. A rejected save leaves the backend untouched.
func runSectionEdit(bookingNumber, sectionName string, edit sectionEdit) error {
	section, err := workflow.ParseSection(sectionName)
	if err != nil {
		return err
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
	o, err := fetchOrder(ctx, desk, rc, bookingNumber)
	if err != nil {
		return err
	}
	editor, err := desk.Sections.Editor(rc, o, section)
	if err != nil {
		return err
	}
	if err := edit(ctx, editor); err != nil {
		return err
	}

	if outputJSON {
		return writeJSON(map[string]any{
			"section": editor.Section(),
			"items":   editor.Len(),
			"order":   rowOf(editor.Order()),
			"booking": editor.Order().Booking,
		})
	}
	fmt.Printf("Saved %s for %s (%d items).\n", editor.Section(), editor.Order().BookingNumber(), editor.Len())
	return nil
}

func sectionsAddCmd() *cobra.Command {
	var data string

	cmd := &cobra.Command{
		Use:   "add <booking-number> <section>",
		Short: "Append an item to a section",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := readPayload(data, os.Stdin)
			if err != nil {
				return err
			}
			return runSectionEdit(args[0], args[1], func(ctx context.Context, editor workflow.SectionEditor) error {
				return editor.AddJSON(ctx, payload)
			})
		},
	}

	cmd.Flags().StringVar(&data, "data", "", "Item JSON (default: read stdin)")
	return cmd
}

func sectionsUpdateCmd() *cobra.Command {
	var data string

	cmd := &cobra.Command{
		Use:   "update <booking-number> <section> <index>",
		Short: "Patch the fields of one item",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[2])
			if err != nil {
				return err
			}
			payload, err := readPayload(data, os.Stdin)
			if err != nil {
				return err
			}
			return runSectionEdit(args[0], args[1], func(ctx context.Context, editor workflow.SectionEditor) error {
				return editor.PatchJSON(ctx, index, payload)
			})
		},
	}

	cmd.Flags().StringVar(&data, "data", "", "Fields to change as JSON (default: read stdin)")
	return cmd
}

func sectionsRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove <booking-number> <section> <index>",
		Short: "Remove one item",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[2])
			if err != nil {
				return err
			}
			return runSectionEdit(args[0], args[1], func(ctx context.Context, editor workflow.SectionEditor) error {
				return editor.Remove(ctx, index)
			})
		},
	}

	return cmd
}

func sectionsClearCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear <booking-number> <section>",
		Short: "Remove every item of a section",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("clearing %s removes every item; pass --yes to confirm", args[1])
			}
			return runSectionEdit(args[0], args[1], func(ctx context.Context, editor workflow.SectionEditor) error {
				return editor.RemoveAll(ctx)
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm")
	return cmd
}
