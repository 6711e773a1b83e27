package cmd

import (
	"fmt"
	"sort"
	"strings"

	"umrah-desk/storage"

	"github.com/spf13/cobra"
)

func viewsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "views",
		Short: "Manage saved order list filters",
	}

	cmd.AddCommand(viewsListCmd())
	cmd.AddCommand(viewsAddCmd())
	cmd.AddCommand(viewsRemoveCmd())
	return cmd
}

func viewsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved views",
		RunE: func(cmd *cobra.Command, args []string) error {
			views, err := storage.LoadViews()
			if err != nil {
				return err
			}

			sort.Slice(views, func(i, j int) bool {
				return strings.ToLower(views[i].Alias) < strings.ToLower(views[j].Alias)
			})

			if outputJSON {
				return writeJSON(views)
			}

			if len(views) == 0 {
				fmt.Println("No views saved.")
				return nil
			}

			writer := newTable()
			if !outputCompact {
				fmt.Fprintln(writer, "ALIAS\tTAB\tTYPE\tPACKAGE\tPAYMENT\tSTATUS\tSEARCH\tBRANCH")
			}
			for _, view := range views {
				branch := "-"
				if view.BranchID != 0 {
					branch = fmt.Sprint(view.BranchID)
				}
				fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					view.Alias,
					valueOr(view.Tab, "all"),
					valueOr(view.OrderType, "-"),
					valueOr(view.PackageType, "-"),
					valueOr(view.Payment, "all"),
					valueOr(view.Status, "all"),
					valueOr(view.Search, "-"),
					branch,
				)
			}
			return writer.Flush()
		},
	}

	return cmd
}

func viewsAddCmd() *cobra.Command {
	var alias string
	var filters listFilters

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Save a view",
		RunE: func(cmd *cobra.Command, args []string) error {
			alias = strings.TrimSpace(alias)
			if alias == "" {
				return fmt.Errorf("--alias is required")
			}
			if _, err := parseFilters(filters); err != nil {
				return err
			}

			views, err := storage.LoadViews()
			if err != nil {
				return err
			}

			if _, ok := storage.FindView(views, alias); ok {
				return fmt.Errorf("view %q already exists", alias)
			}

			views = append(views, storage.View{
				Alias:       alias,
				Tab:         filters.Tab,
				OrderType:   filters.OrderType,
				PackageType: filters.PackageType,
				Payment:     filters.Payment,
				Status:      filters.Status,
				Search:      strings.TrimSpace(filters.Search),
				BranchID:    filters.Branch,
			})

			if err := storage.SaveViews(views); err != nil {
				return err
			}

			fmt.Printf("Saved view %s.\n", alias)
			return nil
		},
	}

	cmd.Flags().StringVar(&alias, "alias", "", "Short alias")
	cmd.Flags().StringVar(&filters.Tab, "tab", "", "Tab: all, confirmed, unconfirmed")
	cmd.Flags().StringVar(&filters.OrderType, "type", "", "Order type: agent, area-agent, customer, branch")
	cmd.Flags().StringVar(&filters.PackageType, "package", "", "Package: umrah, custom, group-ticket")
	cmd.Flags().StringVar(&filters.Payment, "payment", "", "Payment: paid, unpaid")
	cmd.Flags().StringVar(&filters.Status, "status", "", "Status chip")
	cmd.Flags().StringVarP(&filters.Search, "query", "q", "", "Booking number contains")
	cmd.Flags().Int64Var(&filters.Branch, "branch", 0, "Branch ID for branch orders")
	return cmd
}

func viewsRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove <alias>",
		Short: "Remove a saved view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			alias := strings.TrimSpace(args[0])
			views, err := storage.LoadViews()
			if err != nil {
				return err
			}

			index := -1
			for i, view := range views {
				if strings.EqualFold(view.Alias, alias) {
					index = i
					break
				}
			}

			if index == -1 {
				return fmt.Errorf("view %q not found", alias)
			}

			views = append(views[:index], views[index+1:]...)
			if err := storage.SaveViews(views); err != nil {
				return err
			}

			fmt.Printf("Removed view %s.\n", alias)
			return nil
		},
	}

	return cmd
}
