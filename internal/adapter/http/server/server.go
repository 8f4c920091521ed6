package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Temirlan0k/ride-dispatch/config"
	"github.com/Temirlan0k/ride-dispatch/internal/adapter/http/handler"
	"github.com/Temirlan0k/ride-dispatch/internal/adapter/http/middleware"
	"github.com/Temirlan0k/ride-dispatch/pkg/logger"
	wrap "github.com/Temirlan0k/ride-dispatch/pkg/logger/wrapper"
)

const serviceName = "ride-dispatch"

type API struct {
	mux    *http.ServeMux
	server *http.Server
	m      *middleware.Middleware

	addr string
	log  logger.Logger
}

// New wires the HTTP surface: health, metrics, ride feedback and the
// websocket upgrade endpoint.
func New(
	cfg config.ServerConfig,
	feedbackService handler.FeedbackService,
	wsHandler http.Handler,
	log logger.Logger,
) *API {
	mux := http.NewServeMux()

	api := &API{
		mux:  mux,
		m:    middleware.NewMiddleware(log),
		addr: fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		log:  log,
	}

	setupRoutes(mux, &routes{
		health:   handler.NewHealth(serviceName, log),
		feedback: handler.NewFeedback(feedbackService, log),
		ws:       wsHandler,
	})

	api.server = &http.Server{
		Addr:    api.addr,
		Handler: api.withMiddleware(),
	}

	return api
}

func (a *API) Run(ctx context.Context, errCh chan<- error) {
	go func() {
		ctx = wrap.WithAction(ctx, "http_server_start")
		a.log.Info(ctx, "started http server", "address", a.addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("failed to start HTTP server: %w", err)
			return
		}
	}()
}

func (a *API) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	ctx = wrap.WithAction(ctx, "http_server_stop")

	a.log.Debug(ctx, "shutting down HTTP server...", "address", a.addr)
	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}
	a.log.Debug(ctx, "shutting down HTTP server completed")

	return nil
}

// withMiddleware applies middlewares to the mux
func (a *API) withMiddleware() http.Handler {
	return a.m.Recover(a.m.Logging(a.mux))
}
