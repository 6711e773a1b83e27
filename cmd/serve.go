package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"umrah-desk/order"
	"umrah-desk/server"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the desk as a JSON API for the operator UI",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = cfg.Server.ListenAddr
			}
			log.SetFormatter(&logrus.JSONFormatter{})
			if !log.IsLevelEnabled(logrus.DebugLevel) {
				gin.SetMode(gin.ReleaseMode)
			}

			tab, err := order.ParseTab(cfg.Desk.DefaultTab)
			if err != nil {
				return err
			}
			desk, closeDesk, err := openDesk()
			if err != nil {
				return err
			}
			defer closeDesk()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := server.New(desk, log, server.Options{
				PageSize:       cfg.Desk.PageSize,
				DefaultTab:     tab,
				AllowedOrigins: cfg.Server.AllowedOrigins,
			})
			return srv.Run(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	return cmd
}
