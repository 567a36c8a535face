// Package ws bridges the in-process push channel to WebSocket clients.
// Dashboard viewers receive every event broadcast after they connect;
// drivers push location-update messages inbound over the same endpoint.
package ws

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/BRAITOU555/reservationvtc6/internal/booking/domain"
	"github.com/BRAITOU555/reservationvtc6/internal/common/bus"
	"github.com/BRAITOU555/reservationvtc6/internal/common/contextx"
	"github.com/BRAITOU555/reservationvtc6/internal/common/log"
	wshub "github.com/BRAITOU555/reservationvtc6/internal/common/ws"
)

// LocationSink is the slice of the application service the gateway needs.
type LocationSink interface {
	UpdateLocation(ctx context.Context, driverID string, lat, lng float64) error
}

type Gateway struct {
	logger   *slog.Logger
	hub      *wshub.Hub
	bus      *bus.Bus
	sink     LocationSink
	upgrader websocket.Upgrader
}

func NewGateway(logger *slog.Logger, b *bus.Bus, sink LocationSink) *Gateway {
	return &Gateway{
		logger: logger,
		hub:    wshub.NewHub(logger),
		bus:    b,
		sink:   sink,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Run pumps push-channel events to every connected client until the
// context is cancelled. All hub writes happen on this goroutine so
// concurrent data writes never hit the same connection.
func (g *Gateway) Run(ctx context.Context) error {
	sub := g.bus.Subscribe()
	defer sub.Cancel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-sub.C:
			if !ok {
				return nil
			}
			g.hub.Broadcast(event)
		}
	}
}

// HandleClient upgrades the HTTP request and serves the connection until
// the peer goes away. Events published before the upgrade completes are
// never delivered to this client.
func (g *Gateway) HandleClient(w http.ResponseWriter, r *http.Request) {
	ctx := contextx.WithNewRequestID(r.Context())

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error(ctx, g.logger, "ws_upgrade_fail", "WebSocket upgrade failed", err)
		return
	}
	defer conn.Close()

	clientID := uuid.NewString()
	g.hub.Add(clientID, conn)
	defer g.hub.Remove(clientID)

	const (
		pingPeriod = 30 * time.Second
		pongWait   = 60 * time.Second
	)
	pingTicker := time.NewTicker(pingPeriod)
	defer pingTicker.Stop()

	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))

	readErr := make(chan error, 1)
	go func() {
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				readErr <- err
				return
			}
			g.handleInbound(ctx, raw)
		}
	}()

	for {
		select {
		case <-pingTicker.C:
			if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(5*time.Second)); err != nil {
				log.Warn(ctx, g.logger, "ws_ping_fail", "Ping failed, dropping client", err)
				return
			}
		case err := <-readErr:
			log.Info(ctx, g.logger, "ws_disconnect", "Client disconnected: "+err.Error())
			return
		case <-r.Context().Done():
			return
		}
	}
}

// handleInbound parses one client message. Only location-update pings are
// expected; anything else is ignored.
func (g *Gateway) handleInbound(ctx context.Context, raw []byte) {
	var msg domain.LocationUpdate
	if err := json.Unmarshal(raw, &msg); err != nil {
		log.Warn(ctx, g.logger, "ws_bad_message", "Ignoring unparseable client message", err)
		return
	}
	if msg.Type != domain.EventLocationUpdate {
		return
	}
	if err := g.sink.UpdateLocation(ctx, msg.ID, msg.Latitude, msg.Longitude); err != nil {
		log.Error(ctx, g.logger, "location_update_fail", "Failed to apply location ping", err)
	}
}

// ClientCount reports currently-connected clients.
func (g *Gateway) ClientCount() int {
	return g.hub.Count()
}
