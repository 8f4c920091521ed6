package ws

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/Temirlan0k/ride-dispatch/internal/domain/models"
	"github.com/Temirlan0k/ride-dispatch/internal/domain/types"
	"github.com/Temirlan0k/ride-dispatch/internal/service/auth"
	"github.com/Temirlan0k/ride-dispatch/pkg/logger"
	wrap "github.com/Temirlan0k/ride-dispatch/pkg/logger/wrapper"
	"github.com/Temirlan0k/ride-dispatch/pkg/metrics"
	wsHub "github.com/Temirlan0k/ride-dispatch/pkg/wsHub"
)

// Handler upgrades an authenticated HTTP request to a websocket connection
// and pumps its inbound frames through the router.
type Handler struct {
	hub      *wsHub.ConnectionHub
	verifier *auth.Authenticator
	router   *Router
	log      logger.Logger

	upgrader websocket.Upgrader
}

func NewHandler(hub *wsHub.ConnectionHub, verifier *auth.Authenticator, router *Router, log logger.Logger) *Handler {
	return &Handler{
		hub:      hub,
		verifier: verifier,
		router:   router,
		log:      log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// credential reads the token from the Authorization header, falling back to
// the token query parameter for clients that cannot set headers on upgrade.
func credential(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		return h
	}
	return r.URL.Query().Get("token")
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, err := h.verifier.Verify(ctx, credential(r))
	if err != nil {
		h.log.Warn(wrap.WithAction(ctx, types.ActionWsAuthFailed), "connection rejected", "err", err.Error())
		http.Error(w, "invalid or missing token", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade уже ответил клиенту
		h.log.Warn(ctx, "websocket upgrade failed", "err", err.Error())
		return
	}

	session := wsHub.NewConn(conn)
	if err := h.hub.Join(identity.ID, session); err != nil {
		h.log.Error(ctx, "failed to register connection", err)
		_ = session.Close()
		return
	}

	ctx = wrap.WithUserID(ctx, identity.ID.String())
	h.log.Info(wrap.WithAction(ctx, types.ActionWsConnectionOpened), "connection admitted", "role", identity.Role.String())

	metrics.WsConnectionsActive.Inc()
	metrics.WsIdentitiesActive.Set(float64(h.hub.Identities()))

	if err := session.Send(types.EventConnection.String(), "Connected successfully"); err != nil {
		h.log.Warn(ctx, "failed to send connection ack", "err", err.Error())
	}

	if identity.IsDriver() {
		h.router.dispatcher.SetDriverAvailability(ctx, identity.ID, true)
	}

	go h.readLoop(identity, session)
}

// readLoop runs for the lifetime of one connection. Each frame is handled in
// its own goroutine so a slow event cannot stall the reader.
func (h *Handler) readLoop(identity *models.Identity, session *wsHub.Conn) {
	// контекст запроса умирает вместе с апгрейдом, живём от фонового
	ctx := wrap.WithUserID(context.Background(), identity.ID.String())

	defer func() {
		h.hub.Leave(identity.ID, session)
		_ = session.Close()

		metrics.WsConnectionsActive.Dec()
		metrics.WsIdentitiesActive.Set(float64(h.hub.Identities()))

		if identity.IsDriver() && h.hub.Connections(identity.ID) == 0 {
			h.router.dispatcher.SetDriverAvailability(ctx, identity.ID, false)
		}

		h.log.Info(wrap.WithAction(ctx, types.ActionWsConnectionClosed), "connection closed")
	}()

	for {
		data, err := session.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Warn(ctx, "connection read failed", "err", err.Error())
			}
			return
		}

		go h.router.Route(ctx, identity, session, data)
	}
}
