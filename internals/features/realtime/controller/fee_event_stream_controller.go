// file: internals/features/realtime/controller/fee_event_stream_controller.go
package controller

import (
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"schoolfee_backend/internals/constants"
	realtime "schoolfee_backend/internals/features/realtime/service"
	helper "schoolfee_backend/internals/helpers"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 50 * time.Second
	writeWait  = 10 * time.Second

	localSubscriber = "ws_subscriber"
)

type subscriber struct {
	UserID    uuid.UUID
	Admin     bool
	StudentID *uuid.UUID
}

type FeeEventStreamController struct {
	Hub *realtime.Hub
	Log *zap.Logger
}

func NewFeeEventStreamController(hub *realtime.Hub, log *zap.Logger) *FeeEventStreamController {
	if log == nil {
		log = zap.NewNop()
	}
	return &FeeEventStreamController{Hub: hub, Log: log}
}

// Upgrade menolak request non-websocket dan menyalin identitas token ke Locals koneksi.
func (h *FeeEventStreamController) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return helper.JsonError(c, fiber.StatusUpgradeRequired, "Websocket upgrade required")
	}
	uid, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	role := helper.GetRoleFromToken(c)
	sub := subscriber{UserID: uid, Admin: role == constants.RoleAdmin, StudentID: helper.GetStudentIDFromToken(c)}
	if !sub.Admin && sub.StudentID == nil {
		return helper.JsonError(c, fiber.StatusForbidden, "Token tidak memiliki student_id")
	}
	c.Locals(localSubscriber, sub)
	return c.Next()
}

// Stream: GET /api/u/ws/fee-events
func (h *FeeEventStreamController) Stream() fiber.Handler {
	return websocket.New(h.serve)
}

func (h *FeeEventStreamController) serve(conn *websocket.Conn) {
	sub, _ := conn.Locals(localSubscriber).(subscriber)

	client, err := h.Hub.Subscribe(sub.UserID, sub.Admin, sub.StudentID)
	if err != nil {
		_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
		_ = conn.Close()
		return
	}
	h.Log.Info("fee event stream opened",
		zap.String("client_id", client.ID.String()),
		zap.String("user_id", sub.UserID.String()))

	done := make(chan struct{})
	go h.writePump(conn, client, done)

	// read loop: hanya untuk pong & deteksi close
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.Hub.Unsubscribe(client)
	<-done
	h.Log.Info("fee event stream closed", zap.String("client_id", client.ID.String()))
}

func (h *FeeEventStreamController) writePump(conn *websocket.Conn, client *realtime.Client, done chan<- struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
		close(done)
	}()

	for {
		select {
		case frame, ok := <-client.Send():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// hub menutup client (lambat / shutdown)
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
