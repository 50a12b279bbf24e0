package service

import "io"

// AttachmentRef 是外部檔案存儲產生的不透明附件引用
// 核心只會把它原樣嵌進訊息，不解讀內容
type AttachmentRef struct {
	URL      string
	MimeType string
}

// AttachmentResolver 接收原始檔案內容，返回穩定的附件引用
// 由外部存儲協作者實作，核心只消費它的輸出
type AttachmentResolver interface {
	Store(name, mimeType string, content io.Reader) (AttachmentRef, error)
}
