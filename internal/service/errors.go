package service

import (
	"errors"
	"fmt"
)

// 核心錯誤分類
// ErrValidation: 請求內容不合法，不產生任何副作用
// ErrStorage:    持久層不可用或逾時，操作視為未發生，可以安全重試
var (
	ErrValidation = errors.New("validation error")
	ErrStorage    = errors.New("storage error")
)

func validationErr(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func storageErr(err error) error {
	return fmt.Errorf("%w: %v", ErrStorage, err)
}
