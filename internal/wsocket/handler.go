package wsocket

import (
	"context"
	"net/http"
	"time"

	"research_copilot_go_backend/internal/services"
	"research_copilot_go_backend/internal/utils/broker"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const writeWait = 10 * time.Second

// Handler streams upload pipeline progress for one upload id.
type Handler struct {
	broker      *broker.Broker
	upgrader    websocket.Upgrader
	idleTimeout time.Duration
	pingPeriod  time.Duration
}

type Message struct {
	Type     string                  `json:"type"`
	UploadID string                  `json:"uploadId"`
	Event    *services.ProgressEvent `json:"event,omitempty"`
	Content  string                  `json:"content,omitempty"`
}

func NewHandler(messageBroker *broker.Broker, upgrader websocket.Upgrader, idleTimeout time.Duration) *Handler {
	if idleTimeout <= 0 {
		idleTimeout = 5 * time.Minute
	}
	return &Handler{
		broker:      messageBroker,
		upgrader:    upgrader,
		idleTimeout: idleTimeout,
		pingPeriod:  30 * time.Second,
	}
}

// HandleUploadProgress subscribes before acknowledging, so a client that
// waits for the "subscribed" message before uploading sees every stage.
// The stream ends after a completed or failed event.
func (h *Handler) HandleUploadProgress(w http.ResponseWriter, r *http.Request, uploadID string) {
	if uploadID == "" {
		http.Error(w, "No uploadId provided", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug().Err(err).Msg("Error upgrading connection")
		return
	}
	defer conn.Close()

	logger := log.With().Str("upload_id", uploadID).Logger()
	topic := services.UploadTopic(uploadID)
	events := h.broker.Subscribe(topic)
	defer h.broker.Unsubscribe(topic, events)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// reader: only needed to notice the client going away
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := h.write(conn, Message{Type: "subscribed", UploadID: uploadID}); err != nil {
		logger.Debug().Err(err).Msg("Error sending subscription ack")
		return
	}

	idle := time.NewTimer(h.idleTimeout)
	defer idle.Stop()
	ping := time.NewTicker(h.pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-idle.C:
			_ = h.write(conn, Message{Type: "timeout", UploadID: uploadID, Content: "No progress received"})
			return
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case msg, ok := <-events:
			if !ok {
				return
			}
			event, ok := msg.(services.ProgressEvent)
			if !ok {
				continue
			}
			if err := h.write(conn, Message{Type: "progress", UploadID: uploadID, Event: &event}); err != nil {
				logger.Debug().Err(err).Msg("Error sending progress event")
				return
			}
			if event.Stage == services.StageCompleted || event.Stage == services.StageFailed {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, string(event.Stage)),
					time.Now().Add(writeWait))
				return
			}
			if !idle.Stop() {
				<-idle.C
			}
			idle.Reset(h.idleTimeout)
		}
	}
}

func (h *Handler) write(conn *websocket.Conn, msg Message) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(msg)
}
