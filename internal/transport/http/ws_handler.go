package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"party-game-service/internal/domain"
	"party-game-service/internal/realtime"
)

// Client-only event names.
const (
	eventJoinRoom   = "join-room"
	eventLeaveRoom  = "leave-room"
	eventRoomJoined = "room:joined"
	eventRoomLeft   = "room:left"
	eventError      = "error"
)

// relayable lists the client events fanned out to a game room. The value marks
// events only the game's organizer may send.
var relayable = map[string]bool{
	domain.EventVoteCast:        false,
	domain.EventAnswerSubmitted: false,
	domain.EventReactionSent:    false,
	domain.EventOrganizerAction: true,
}

// GameLookup finds live games for room checks.
type GameLookup interface {
	GetGame(ctx context.Context, id string) (domain.Game, error)
}

type WSHandler struct {
	hub      *realtime.Hub
	games    GameLookup
	upgrader websocket.Upgrader
}

func NewWSHandler(hub *realtime.Hub, games GameLookup) *WSHandler {
	return &WSHandler{
		hub:   hub,
		games: games,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Event  string          `json:"event"`
	GameID string          `json:"gameId"`
	Data   json.RawMessage `json:"data"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS authenticates at connect time, then serves room membership and relays
// for the lifetime of the socket.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	actor, err := identityFromRequest(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	client := h.hub.Register(actor.UserID)
	writerDone := make(chan struct{})

	// Single writer: every outbound frame goes through the client mailbox.
	go func() {
		defer close(writerDone)
		for event := range client.Events() {
			if err := conn.WriteJSON(event); err != nil {
				log.Printf("[ws] write to %s: %v", actor.UserID, err)
				return
			}
		}
	}()

	for {
		var in inboundMessage
		if err := conn.ReadJSON(&in); err != nil {
			break
		}
		h.handle(r.Context(), actor, client, in)
	}

	h.hub.Unregister(client)
	<-writerDone
}

func (h *WSHandler) handle(ctx context.Context, actor domain.Identity, client *realtime.Client, in inboundMessage) {
	reply := func(name string, data any) {
		h.hub.Send(client, domain.Event{Name: name, GameID: in.GameID, Data: data, SentAt: time.Now().UTC()})
	}
	fail := func(msg string) { reply(eventError, errorPayload{Message: msg}) }

	if in.GameID == "" {
		fail("gameId is required")
		return
	}
	room := realtime.GameRoom(in.GameID)

	switch in.Event {
	case eventJoinRoom:
		if _, err := h.games.GetGame(ctx, in.GameID); err != nil {
			fail(publicMessage(err))
			return
		}
		h.hub.Join(client, room)
		reply(eventRoomJoined, map[string]string{"gameId": in.GameID})
	case eventLeaveRoom:
		h.hub.Leave(client, room)
		reply(eventRoomLeft, map[string]string{"gameId": in.GameID})
	default:
		organizerOnly, ok := relayable[in.Event]
		if !ok {
			fail("unsupported event " + in.Event)
			return
		}
		if !h.hub.InRoom(client, room) {
			fail("join the game room first")
			return
		}
		if organizerOnly {
			game, err := h.games.GetGame(ctx, in.GameID)
			if err != nil {
				fail(publicMessage(err))
				return
			}
			if !game.OwnedBy(actor.UserID) {
				fail(domain.ErrNotOwner.Message)
				return
			}
		}
		var payload any
		if len(in.Data) > 0 {
			payload = in.Data
		}
		h.hub.Publish(room, domain.Event{
			Name:   in.Event,
			GameID: in.GameID,
			Data:   map[string]any{"userId": actor.UserID, "payload": payload},
			SentAt: time.Now().UTC(),
		})
	}
}

func publicMessage(err error) string {
	var de *domain.Error
	if errors.As(err, &de) && de.Kind != domain.KindInternal {
		return de.Message
	}
	log.Printf("[ws] %v", err)
	return "internal server error"
}
