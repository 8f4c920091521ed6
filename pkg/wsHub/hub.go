package ws

import (
	"context"
	"errors"
	"sync"

	"github.com/Temirlan0k/ride-dispatch/pkg/logger"
	wrap "github.com/Temirlan0k/ride-dispatch/pkg/logger/wrapper"
	"github.com/Temirlan0k/ride-dispatch/pkg/uuid"
)

var ErrEmptySession = errors.New("session is empty")

// Session is the minimal send capability the hub needs from a connection.
type Session interface {
	Send(event string, payload any) error
	Close() error
}

// ConnectionHub хранит и управляет всеми активными WebSocket соединениями.
// Одна личность может держать несколько соединений (multi-device),
// поэтому значение в map — множество сессий, а не одна.
type ConnectionHub struct {
	clients map[uuid.UUID]map[Session]struct{}
	l       logger.Logger
	mu      sync.RWMutex
}

func NewConnHub(l logger.Logger) *ConnectionHub {
	return &ConnectionHub{
		clients: make(map[uuid.UUID]map[Session]struct{}),
		l:       l,
	}
}

// Join добавляет соединение в множество сессий личности.
func (h *ConnectionHub) Join(id uuid.UUID, s Session) error {
	if s == nil {
		return ErrEmptySession
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[id]
	if !ok {
		set = make(map[Session]struct{})
		h.clients[id] = set
	}
	set[s] = struct{}{}

	return nil
}

// Leave удаляет соединение; пустое множество сессий удаляется целиком.
// Повторный Leave для того же соединения безвреден.
func (h *ConnectionHub) Leave(id uuid.UUID, s Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[id]
	if !ok {
		return
	}
	delete(set, s)
	if len(set) == 0 {
		delete(h.clients, id)
	}
}

// SendTo доставляет событие каждому живому соединению личности.
// Отсутствие соединений — не ошибка: доставка best-effort.
// Возвращает число соединений, получивших событие.
func (h *ConnectionHub) SendTo(ctx context.Context, id uuid.UUID, event string, payload any) int {
	// снапшот под RLock, отправка вне лока, чтобы не гонять Leave
	h.mu.RLock()
	sessions := make([]Session, 0, len(h.clients[id]))
	for s := range h.clients[id] {
		sessions = append(sessions, s)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, s := range sessions {
		if err := s.Send(event, payload); err != nil {
			h.l.Warn(wrap.WithUserID(ctx, id.String()),
				"failed to send ws event",
				"event", event,
				"err", err.Error(),
			)
			continue
		}
		delivered++
	}

	return delivered
}

// Connections возвращает число живых соединений личности.
func (h *ConnectionHub) Connections(id uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[id])
}

// Identities возвращает число личностей с хотя бы одним соединением.
func (h *ConnectionHub) Identities() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close закрывает каждое websocket соединение.
func (h *ConnectionHub) Close() {
	ctx := wrap.WithAction(context.Background(), "hub_close")

	// копируем клиентов под локом, закрываем вне лока
	h.mu.Lock()
	sessions := make([]Session, 0, len(h.clients))
	for _, set := range h.clients {
		for s := range set {
			sessions = append(sessions, s)
		}
	}
	h.clients = make(map[uuid.UUID]map[Session]struct{})
	h.mu.Unlock()

	for _, s := range sessions {
		if err := s.Close(); err != nil {
			h.l.Warn(ctx, "failed to close ws session", "err", err.Error())
		}
	}

	h.l.Info(ctx, "all websocket connections closed")
}
