package handler

import (
	"Murmur/internal/pkg/consts"
	"Murmur/internal/pkg/realtime"
	"Murmur/internal/service"
	"context"
	log "log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
	wsSendBuffer = 32
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WsHandler 把当前用户的通知变更推送给前端，连接断开即卸载订阅
type WsHandler struct {
	manager *realtime.Manager
}

func NewWsHandler(manager *realtime.Manager) *WsHandler {
	return &WsHandler{manager: manager}
}

func (h *WsHandler) Connect(c *gin.Context) {
	userID, err := service.ActorFrom(c.Request.Context())
	if err != nil {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("WS 协议升级失败", "err", err)
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	ctx, cancel := context.WithCancel(context.WithoutCancel(c.Request.Context()))
	defer cancel()

	send := make(chan realtime.ChangeEvent, wsSendBuffer)
	uid := strconv.FormatUint(userID, 10)
	sub, err := h.manager.Subscribe(ctx, realtime.Options{
		// 每个连接一个通道，同一用户多端互不影响
		ChannelName: consts.ChannelUserNotifications + uid + ":" + uuid.NewString(),
		Table:       consts.TableNotifications,
		Event:       realtime.EventAll,
		Filter:      "user_id=eq." + uid,
		Enabled:     true,
		OnEvent: func(ev realtime.ChangeEvent) {
			select {
			case send <- ev:
			default:
				log.Warn("WS 推送队列已满，丢弃事件", "userID", userID)
			}
		},
	})
	if err != nil {
		log.Error("WS 订阅失败", "userID", userID, "err", err)
		return
	}
	defer sub.Close()

	log.Info("用户 WS 连接已建立", "userID", userID, "channel", sub.Name())

	// 读循环：只用于感知客户端断开与 pong
	go func() {
		defer cancel()
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case ev := <-send:
			payload, err := json.Marshal(ev)
			if err != nil {
				log.Error("WS 事件编码失败", "userID", userID, "err", err)
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.Warn("WS 推送失败", "userID", userID, "err", err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-ctx.Done():
			log.Info("用户 WS 连接已断开", "userID", userID)
			return
		}
	}
}
