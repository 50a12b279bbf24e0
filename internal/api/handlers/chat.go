package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"brainboost/internal/service"
)

// ChatHandler 處理訊息歷史的 REST 存取
// 與 WebSocket 共用同一套服務，寫入後觸發相同的廣播
type ChatHandler struct {
	manager *service.ConnectionManager
	store   *service.RoomStore
}

func NewChatHandler(manager *service.ConnectionManager, store *service.RoomStore) *ChatHandler {
	return &ChatHandler{manager: manager, store: store}
}

// PostMessageInput 定義發送訊息請求的結構
// text 和 attachment_url 至少要有一個
type PostMessageInput struct {
	Sender             string `json:"sender"`
	SenderIdentity     string `json:"sender_identity"`
	Text               string `json:"text"`
	AttachmentURL      string `json:"attachment_url"`
	AttachmentMimeType string `json:"attachment_mime_type"`
}

// ListMessages 返回房間的全部訊息
// 房間不存在時返回空陣列而不是 404
func (h *ChatHandler) ListMessages(c *gin.Context) {
	roomID := c.Param("roomId")

	messages, err := h.store.History(c.Request.Context(), roomID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "無法讀取訊息歷史"})
		return
	}

	c.JSON(http.StatusOK, messages)
}

// PostMessage 寫入一則訊息並廣播給房間內所有在線成員
func (h *ChatHandler) PostMessage(c *gin.Context) {
	roomID := c.Param("roomId")

	var input PostMessageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 帳號識別以驗證過的 token 為準，請求體只是後備
	if identity := c.GetString("identity"); identity != "" {
		input.SenderIdentity = identity
	}

	message, err := h.manager.PostMessage(c.Request.Context(), roomID, service.CandidateMessage{
		Sender:             input.Sender,
		SenderIdentity:     input.SenderIdentity,
		Text:               input.Text,
		AttachmentURL:      input.AttachmentURL,
		AttachmentMimeType: input.AttachmentMimeType,
	})
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "寫入訊息失敗"})
		return
	}

	c.JSON(http.StatusCreated, message)
}

// ListIdentities 返回曾經加入過房間的帳號識別，供審計使用
// 與即時在線名單無關
func (h *ChatHandler) ListIdentities(c *gin.Context) {
	roomID := c.Param("roomId")

	identities, err := h.store.KnownIdentities(c.Request.Context(), roomID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "無法讀取房間成員記錄"})
		return
	}
	if identities == nil {
		identities = []string{}
	}

	c.JSON(http.StatusOK, identities)
}

// ClearMessages 清空房間的訊息並廣播清空事件
// 房間不存在或已經是空的時返回 0，不視為錯誤
func (h *ChatHandler) ClearMessages(c *gin.Context) {
	roomID := c.Param("roomId")

	count, err := h.manager.HandleClear(c.Request.Context(), roomID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "清空訊息失敗"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"cleared": count})
}
