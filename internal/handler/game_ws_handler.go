package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Paddione/network-quiz/internal/config"
	"github.com/Paddione/network-quiz/internal/game"
	"github.com/Paddione/network-quiz/internal/middleware"
	"github.com/Paddione/network-quiz/internal/service"
	"github.com/Paddione/network-quiz/internal/ws"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// GameWSHandler upgrades /ws/game connections and pumps their events into
// the game hub. One goroutine per connection; the hub serializes the rest.
type GameWSHandler struct {
	hub      *game.Hub
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

// NewGameWSHandler creates a new GameWSHandler.
func NewGameWSHandler(hub *game.Hub, cfg *config.Config, log zerolog.Logger) *GameWSHandler {
	allowed := cfg.AllowedOrigins
	return &GameWSHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || len(allowed) == 0 {
					return true
				}
				for _, a := range allowed {
					if a == "*" || strings.EqualFold(a, origin) {
						return true
					}
				}
				return false
			},
		},
		log: log.With().Str("component", "game-ws").Logger(),
	}
}

// Serve godoc
// GET /ws/game
// Upgrades to a websocket and routes the bidirectional game event channel.
// Authentication is optional: a valid ?token= attaches the account to the
// player, anything else plays as a guest.
func (h *GameWSHandler) Serve(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := ws.NewClient(conn)
	claims := middleware.GetClaims(c)

	defer func() {
		h.hub.Disconnect(client)
		client.Close()
	}()

	for {
		env, err := client.ReadEnvelope()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug().Err(err).Str("conn_id", client.ID()).Msg("websocket read error")
			}
			return
		}
		h.dispatch(client, claims, env)
	}
}

func (h *GameWSHandler) dispatch(client *ws.Client, claims *service.Claims, env ws.Envelope) {
	switch env.Event {
	case ws.EventJoin:
		var payload ws.JoinPayload
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			client.SendError("invalid join payload")
			return
		}
		// A validated token wins over whatever the client claims.
		if claims != nil {
			userID := claims.UserID
			payload.UserID = &userID
			if strings.TrimSpace(payload.Name) == "" {
				payload.Name = claims.Username
			}
		}
		h.hub.Join(client, payload)

	case ws.EventStartGame:
		h.hub.StartGame(client)

	case ws.EventAnswer:
		var payload ws.AnswerPayload
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			client.SendError("invalid answer payload")
			return
		}
		h.hub.Answer(client, payload)

	case ws.EventNextQuestion:
		h.hub.NextQuestion(client)

	case ws.EventNextChapter:
		h.hub.NextChapter(client)

	default:
		client.SendError("unknown event: " + env.Event)
	}
}
