package models

import (
	"time"

	"gorm.io/gorm"
)

// Message 代表房間內的一則訊息，同時滿足 WebSocket 廣播和數據庫存儲需求
// 訊息一旦寫入即不可變更；Seq 在同一房間內唯一且嚴格遞增
type Message struct {
	gorm.Model         `json:"-"`
	RoomID             string    `json:"room_id" gorm:"index:idx_room_seq,unique"`
	Seq                int64     `json:"id" gorm:"index:idx_room_seq,unique"`
	Sender             string    `json:"sender" gorm:"type:varchar(100)"`
	SenderIdentity     string    `json:"sender_identity,omitempty" gorm:"type:varchar(255)"`
	Text               string    `json:"text,omitempty" gorm:"type:text"`
	AttachmentURL      string    `json:"attachment_url,omitempty" gorm:"type:text"`
	AttachmentMimeType string    `json:"attachment_mime_type,omitempty" gorm:"type:varchar(100)"`
	Timestamp          time.Time `json:"timestamp"`
}

// HasContent 檢查訊息是否帶有內容
// 每則存儲的訊息必須至少有文字或附件其中之一
func (m *Message) HasContent() bool {
	return m.Text != "" || m.AttachmentURL != ""
}
