package cmd

import (
	"fmt"
	"os"

	"umrah-desk/api"
	"umrah-desk/config"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	outputJSON    bool
	outputCompact bool
	cfg           *config.Config
	log           = logrus.New()
	client        = api.NewClient()
)

var rootCmd = &cobra.Command{
	Use:   "desk",
	Short: "Order desk for Umrah and travel bookings",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if outputJSON && outputCompact {
			return fmt.Errorf("choose either --json or --compact")
		}
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded

		log.SetLevel(cfg.LogLevel())
		client.BaseURL = cfg.API.BaseURL
		client.HTTP.Timeout = cfg.API.Timeout
		client.Log = log
		return nil
	},
	SilenceUsage: true,
}

func Execute() {
	rootCmd.AddCommand(sessionCmd())
	rootCmd.AddCommand(ordersCmd())
	rootCmd.AddCommand(availabilityCmd())
	rootCmd.AddCommand(sectionsCmd())
	rootCmd.AddCommand(visaCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(viewsCmd())
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "Output JSON")
	rootCmd.PersistentFlags().BoolVar(&outputCompact, "compact", false, "Output compact text")
}
