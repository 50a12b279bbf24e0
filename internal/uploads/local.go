package uploads

import (
	"io"
	"os"
	"path/filepath"

	"brainboost/internal/service"
)

// Local 把附件存在本地磁碟，透過 /uploads 靜態路由對外提供
type Local struct {
	dir string
}

func NewLocal(dir string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Local{dir: dir}, nil
}

// Store 寫入檔案並返回相對於服務根路徑的附件引用
func (l *Local) Store(name, mimeType string, content io.Reader) (service.AttachmentRef, error) {
	name = filepath.Base(name)

	dst, err := os.Create(filepath.Join(l.dir, name))
	if err != nil {
		return service.AttachmentRef{}, err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, content); err != nil {
		return service.AttachmentRef{}, err
	}
	return service.AttachmentRef{
		URL:      "/uploads/" + name,
		MimeType: mimeType,
	}, nil
}
