package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/dmdmdm-nz/netlistend/pkg/netstate"
)

func accept(w http.ResponseWriter, r *http.Request) (*websocket.Conn, context.Context, error) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		return nil, nil, err
	}
	return c, r.Context(), nil
}

// StreamState pushes the current connectivity state followed by every
// change of it until the client goes away. Each session is an observer of the
// value cell, so the OS subscription lives as long as some client does.
func StreamState(s *Service, w http.ResponseWriter, r *http.Request) {
	c, ctx, err := accept(w, r)
	if err != nil {
		log.WithError(err).Error("Failed to accept websocket client")
		return
	}
	defer c.Close(websocket.StatusNormalClosure, "closing")

	session := uuid.NewString()
	logger := log.WithField("session", session)
	logger.Info("State stream opened")
	defer logger.Info("State stream closed")

	// Inbound messages are not expected; CloseRead cancels ctx when the
	// client disconnects.
	ctx = c.CloseRead(ctx)

	states, unsub := s.observer.Value().ObserveChanges()
	defer unsub()

	last := s.observer.Query()
	if err := writeState(ctx, c, session, last, true); err != nil {
		logger.WithError(err).Debug("Failed to write initial state")
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case state, ok := <-states:
			if !ok {
				c.Close(websocket.StatusGoingAway, "shutting down")
				return
			}
			// A publish racing the initial query, or an initial emission,
			// can repeat what the client already has.
			if state == last {
				continue
			}
			last = state
			if err := writeState(ctx, c, session, state, false); err != nil {
				logger.WithError(err).Debug("Failed to write state")
				return
			}
		}
	}
}

func writeState(ctx context.Context, c *websocket.Conn, session string, state netstate.State, initial bool) error {
	b, err := json.Marshal(StateMessage{
		Session:   session,
		Available: bool(state),
		State:     state.String(),
		Initial:   initial,
	})
	if err != nil {
		return err
	}
	return c.Write(ctx, websocket.MessageText, b)
}
