package handlers

import (
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"brainboost/internal/service"
)

// UploadHandler 處理附件上傳
// 核心只認得 (url, mimeType) 這組不透明引用，存儲細節都在這一層
type UploadHandler struct {
	resolver service.AttachmentResolver
}

func NewUploadHandler(resolver service.AttachmentResolver) *UploadHandler {
	return &UploadHandler{resolver: resolver}
}

// Upload 接收 multipart 的 file 欄位，返回可以放進訊息裡的附件引用
func (h *UploadHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "沒有上傳任何檔案"})
		return
	}

	// 名稱帶上隨機成分，同名檔案在同一毫秒內上傳也不會互相覆蓋
	name := fmt.Sprintf("%d-%s-%s", time.Now().UnixMilli(), uuid.NewString()[:8], filepath.Base(file.Filename))
	mimeType := file.Header.Get("Content-Type")

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "讀取檔案失敗"})
		return
	}
	defer src.Close()

	ref, err := h.resolver.Store(name, mimeType, src)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "存儲檔案失敗"})
		return
	}

	// 對外返回完整可訪問的 URL
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	c.JSON(http.StatusOK, gin.H{
		"fileUrl":  fmt.Sprintf("%s://%s%s", scheme, c.Request.Host, ref.URL),
		"fileType": ref.MimeType,
	})
}
