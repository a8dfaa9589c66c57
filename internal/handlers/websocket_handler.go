package handlers

import (
	"context"
	"time"

	"github.com/Anchal0410/peer-connect/internal/handlers/ws"
	"github.com/Anchal0410/peer-connect/internal/middleware"
	"github.com/Anchal0410/peer-connect/internal/service"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

type WebSocketHandler struct {
	hub      *ws.Hub
	presence *service.PresenceTracker
	chat     *service.ChatService
	log      *zap.Logger
}

func NewWebSocketHandler(hub *ws.Hub, presence *service.PresenceTracker, chat *service.ChatService, log *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, presence: presence, chat: chat, log: log.Named("ws")}
}

// HandleWebSocket runs one connection. The handshake middleware has already
// authenticated the user and marked them online.
func (h *WebSocketHandler) HandleWebSocket(c *websocket.Conn) {
	userID, _ := c.Locals(middleware.LocalUserID).(string)
	if userID == "" {
		_ = c.Close()
		return
	}
	ctx := context.Background()
	log := h.log.With(zap.String("user_id", userID))

	supportsGzip := c.Query("gzip") == "1" || c.Headers("X-Supports-Gzip") == "1"
	// The handshake marked the user online, but an older socket closing in
	// the meantime may have marked them offline again.
	client := h.hub.Connect(userID, c, supportsGzip, func() {
		if err := h.presence.MarkOnline(ctx, userID); err != nil {
			log.Warn("mark online failed", zap.Error(err))
		}
	})
	log.Info("connected")

	pongTimeout := h.hub.Options().PongTimeout
	_ = c.SetReadDeadline(time.Now().Add(pongTimeout))
	c.SetPongHandler(func(string) error {
		h.hub.Touch(client)
		h.presence.Heartbeat(ctx, userID)
		return c.SetReadDeadline(time.Now().Add(pongTimeout))
	})

	defer func() {
		h.hub.Disconnect(client, func() {
			if err := h.presence.MarkOffline(ctx, userID); err != nil {
				log.Warn("mark offline failed", zap.Error(err))
			}
		})
		log.Info("disconnected")
	}()

	msgCtx := &ws.MessageContext{
		Ctx:      ctx,
		UserID:   userID,
		Client:   client,
		Hub:      h.hub,
		Presence: h.presence,
		Chat:     h.chat,
	}

	for {
		messageType, messageBytes, err := c.ReadMessage()
		if err != nil {
			log.Debug("read ended", zap.Error(err))
			return
		}
		_ = c.SetReadDeadline(time.Now().Add(pongTimeout))

		if messageType == websocket.BinaryMessage {
			decompressed, err := ws.DecompressMessage(messageBytes)
			if err != nil {
				_ = ws.SendError(client, "decompression_failed", "Failed to decompress message", err.Error())
				continue
			}
			messageBytes = decompressed
		}

		msg, err := ws.Deserialize(messageBytes)
		if err != nil {
			_ = ws.SendError(client, "invalid_message", "Invalid message format", err.Error())
			continue
		}
		if err := msg.Process(msgCtx); err != nil {
			log.Warn("message processing failed", zap.String("type", msg.GetType()), zap.Error(err))
			_ = ws.SendProcessError(client, err)
		}
	}
}
