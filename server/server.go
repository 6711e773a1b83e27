package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"umrah-desk/order"
	"umrah-desk/workflow"
)

type Options struct {
	PageSize       int
	DefaultTab     order.Tab
	AllowedOrigins []string
}

// Server exposes the desk workflow as a JSON API for the operator UI.
type Server struct {
	desk *workflow.Desk
	log  *logrus.Logger
	opts Options
}

func New(desk *workflow.Desk, log *logrus.Logger, opts Options) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 10
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	return &Server{desk: desk, log: log, opts: opts}
}

func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestID())
	router.Use(requestLogger(s.log))
	router.Use(cors.New(s.corsConfig()))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api", requireSession())
	{
		api.GET("/orders", s.listOrders)
		api.GET("/orders/:bookingNumber", s.getOrder)
		api.GET("/orders/:bookingNumber/availability", s.availability)
		for _, action := range []workflow.Action{
			workflow.ActionConfirm, workflow.ActionApprove, workflow.ActionReject, workflow.ActionCancel,
		} {
			api.POST("/orders/:bookingNumber/"+string(action), s.transition(action))
		}

		api.POST("/orders/:bookingNumber/sections/:section", s.addItem)
		api.PUT("/orders/:bookingNumber/sections/:section/:index", s.updateItem)
		api.DELETE("/orders/:bookingNumber/sections/:section/:index", s.removeItem)
		api.DELETE("/orders/:bookingNumber/sections/:section", s.clearSection)

		api.POST("/orders/:bookingNumber/visa", s.setVisa)
		api.GET("/shirkas", s.shirkas)
	}
	return router
}

func (s *Server) corsConfig() cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", headerOrganization, headerRequestID},
		ExposeHeaders: []string{"Content-Length", headerRequestID},
		MaxAge:        12 * time.Hour,
	}
	if len(s.opts.AllowedOrigins) == 1 && s.opts.AllowedOrigins[0] == "*" {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = s.opts.AllowedOrigins
		cfg.AllowCredentials = true
	}
	return cfg
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("desk api listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.log.Info("desk api stopped")
	return nil
}
