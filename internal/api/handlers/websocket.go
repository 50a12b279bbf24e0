package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"brainboost/internal/models"
	"brainboost/internal/service"
)

// 定義 WebSocket 升級器
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // 注意：在生產環境中，應該檢查 origin
	},
}

// ClientEvent 是客戶端透過 WebSocket 發送的事件
// type 為 join 或 send
type ClientEvent struct {
	Type               string `json:"type"`
	RoomID             string `json:"room_id"`
	DisplayName        string `json:"display_name"`
	Identity           string `json:"identity"`
	Text               string `json:"text"`
	AttachmentURL      string `json:"attachment_url"`
	AttachmentMimeType string `json:"attachment_mime_type"`
}

// WebSocketHandler 處理 WebSocket 連接，是即時事件通道的閘道
type WebSocketHandler struct {
	manager     *service.ConnectionManager
	broadcaster *service.MessageBroadcaster
}

// NewWebSocketHandler 創建一個新的 WebSocketHandler 實例
func NewWebSocketHandler(manager *service.ConnectionManager, broadcaster *service.MessageBroadcaster) *WebSocketHandler {
	return &WebSocketHandler{manager: manager, broadcaster: broadcaster}
}

// HandleWebSocket 處理 WebSocket 連接請求
// 每條連線拿到一個新的 connectionID，重連視為全新的連線重新加入
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	roomID := c.Param("roomId")
	displayName := c.Query("username")
	identity := c.GetString("identity")

	// 升級 HTTP 連接為 WebSocket 連接
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// 升級失敗時 gorilla 已經回應了客戶端
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &wsClient{
		conn:         conn,
		connectionID: uuid.New().String(),
		roomID:       roomID,
		displayName:  displayName,
		identity:     identity,
		manager:      h.manager,
		broadcaster:  h.broadcaster,
		send:         make(chan service.Event, 256), // 緩衝大小為 256 的事件通道
	}

	h.broadcaster.Attach(client.connectionID, client)

	go client.writePump()
	client.readPump()
}

// wsClient 代表一個 WebSocket 客戶端連接，實作 service.Sender
type wsClient struct {
	conn         *websocket.Conn
	connectionID string
	roomID       string // 路由上的預設房間
	displayName  string
	identity     string
	manager      *service.ConnectionManager
	broadcaster  *service.MessageBroadcaster

	mu       sync.Mutex
	closed   bool
	send     chan service.Event
	seenRoom string
	seenLo   int64 // 已送達序號區間的下界，0 表示還沒送達任何訊息
	seenHi   int64
}

// Send 把事件放入發送隊列，隊列滿或連線已關閉時返回錯誤
// 不阻塞呼叫者，慢速客戶端不能拖住整個房間的廣播
func (c *wsClient) Send(event service.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("connection closed")
	}

	// 加入和廣播之間的競態可能讓同一則訊息同時出現在歷史回放和廣播裡
	// 歷史批次和廣播都按序號遞增送達，已送達的序號構成連續區間
	// 只記區間的兩個端點去重，狀態不隨房間訊息量增長
	switch event.Type {
	case service.EventHistory:
		c.resetSeenLocked(event.RoomID)
		kept := make([]models.Message, 0, len(event.Messages))
		for _, m := range event.Messages {
			if c.seenLo == 0 || m.Seq < c.seenLo || m.Seq > c.seenHi {
				kept = append(kept, m)
			}
		}
		if n := len(event.Messages); n > 0 {
			if first := event.Messages[0].Seq; c.seenLo == 0 || first < c.seenLo {
				c.seenLo = first
			}
			if last := event.Messages[n-1].Seq; last > c.seenHi {
				c.seenHi = last
			}
		}
		event.Messages = kept
	case service.EventMessageAppended:
		c.resetSeenLocked(event.RoomID)
		if event.Message != nil {
			seq := event.Message.Seq
			if c.seenLo != 0 && seq >= c.seenLo && seq <= c.seenHi {
				return nil
			}
			if c.seenLo == 0 || seq < c.seenLo {
				c.seenLo = seq
			}
			if seq > c.seenHi {
				c.seenHi = seq
			}
		}
	case service.EventRoomCleared:
		// 歷史被清空，去重狀態一併重置
		c.seenLo, c.seenHi = 0, 0
	}

	select {
	case c.send <- event:
		return nil
	default:
		return errors.New("send buffer full")
	}
}

// resetSeenLocked 在房間切換時重置去重狀態，序號只在單一房間內唯一
func (c *wsClient) resetSeenLocked(roomID string) {
	if roomID != c.seenRoom {
		c.seenRoom = roomID
		c.seenLo, c.seenHi = 0, 0
	}
}

func (c *wsClient) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// readPump 持續監聽並處理從客戶端接收的事件
func (c *wsClient) readPump() {
	// 確保連接關閉時清理資源，斷線流程只會執行一次
	defer func() {
		c.broadcaster.Detach(c.connectionID)
		c.manager.HandleDisconnect(c.connectionID)
		c.close()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096) // 設置最大訊息大小為 4KB
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("conn", c.connectionID).Msg("websocket unexpected close")
			}
			break
		}

		var event ClientEvent
		if err := json.Unmarshal(raw, &event); err != nil {
			log.Warn().Err(err).Str("conn", c.connectionID).Msg("client event parse error")
			continue
		}
		c.dispatch(event)
	}
}

// dispatch 把客戶端事件轉交給連線管理器
func (c *wsClient) dispatch(event ClientEvent) {
	ctx := context.Background()

	switch event.Type {
	case "join":
		roomID := event.RoomID
		if roomID == "" {
			roomID = c.roomID
		}
		if event.DisplayName != "" {
			c.displayName = event.DisplayName
		}
		// 驗證過的 token 識別優先於客戶端自報的識別
		identity := c.identity
		if identity == "" {
			identity = event.Identity
		}
		if err := c.manager.HandleJoin(ctx, c.connectionID, roomID, c.displayName, identity); err != nil {
			c.sendError(roomID, err)
		}
	case "send":
		_, err := c.manager.HandleSend(ctx, c.connectionID, service.CandidateMessage{
			Sender:             c.displayName,
			SenderIdentity:     c.identity,
			Text:               event.Text,
			AttachmentURL:      event.AttachmentURL,
			AttachmentMimeType: event.AttachmentMimeType,
		})
		if err != nil {
			c.sendError(event.RoomID, err)
		}
	default:
		c.sendError(event.RoomID, errors.New("unknown event type"))
	}
}

func (c *wsClient) sendError(roomID string, err error) {
	_ = c.Send(service.Event{
		Type:   service.EventError,
		RoomID: roomID,
		Error:  err.Error(),
	})
}

// writePump 處理向客戶端發送事件的邏輯
func (c *wsClient) writePump() {
	// 設置心跳檢查計時器
	ticker := time.NewTicker(54 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-c.send:
			// 設置寫入超時
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}

			payload, err := json.Marshal(event)
			if err != nil {
				log.Warn().Err(err).Msg("event encoding error")
				w.Close()
				continue
			}

			if _, err := w.Write(payload); err != nil {
				return
			}
			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			// 發送心跳包
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
