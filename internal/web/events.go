package web

import (
	"context"
	"log"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/labstack/echo/v4"

	"gamedev-ai/internal/eventbus"
)

const (
	eventBuffer       = 64
	eventWriteTimeout = 5 * time.Second
)

// handleEvents streams fan-out progress to a websocket client until it
// disconnects.
func (s *Server) handleEvents(c echo.Context) error {
	// Subscribe before the handshake completes so a client that starts a
	// fan-out right after connecting sees all of it.
	events := make(chan eventbus.Event, eventBuffer)
	unsubscribe := s.app.Bus().SubscribeMany(eventbus.ProgressTopics, func(e eventbus.Event) {
		select {
		case events <- e:
		default:
			log.Printf("[web] events client too slow, dropped %s", e.Topic)
		}
	})
	defer unsubscribe()

	conn, err := websocket.Accept(c.Response(), c.Request(), nil)
	if err != nil {
		// Accept has already written the error response.
		log.Printf("[web] websocket accept: %v", err)
		return nil
	}
	defer conn.CloseNow()

	ctx := conn.CloseRead(c.Request().Context())
	for {
		select {
		case <-ctx.Done():
			return nil
		case e := <-events:
			if err := writeEvent(ctx, conn, e); err != nil {
				log.Printf("[web] events client gone: %v", err)
				return nil
			}
		}
	}
}

func writeEvent(ctx context.Context, conn *websocket.Conn, e eventbus.Event) error {
	if err, ok := e.Payload.(error); ok {
		e.Payload = err.Error()
	}
	ctx, cancel := context.WithTimeout(ctx, eventWriteTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, e)
}
