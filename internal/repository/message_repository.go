package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"brainboost/internal/models"
	"brainboost/internal/storage"
)

type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	FindByRoomID(ctx context.Context, roomID string) ([]models.Message, error)
	Last(ctx context.Context, roomID string) (*models.Message, error)
	DeleteByRoomID(ctx context.Context, roomID string) (int64, error)
}

type messageRepository struct {
	db *storage.PostgresDB
}

func NewMessageRepository(db *storage.PostgresDB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, message *models.Message) error {
	return r.db.WithContext(ctx).Create(message).Error
}

// FindByRoomID 按序號升冪返回房間的全部訊息
// 房間不存在時返回空列表而不是錯誤
func (r *messageRepository) FindByRoomID(ctx context.Context, roomID string) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("seq asc").
		Find(&messages).Error
	return messages, err
}

// Last 返回房間最後一則訊息，沒有訊息時返回 nil
func (r *messageRepository) Last(ctx context.Context, roomID string) (*models.Message, error) {
	var message models.Message
	err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("seq desc").
		First(&message).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &message, nil
}

// DeleteByRoomID 刪除房間的全部訊息，返回刪除的筆數
// 使用硬刪除，否則軟刪除的資料列會跟之後重用的序號在唯一索引上衝突
func (r *messageRepository) DeleteByRoomID(ctx context.Context, roomID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Unscoped().
		Where("room_id = ?", roomID).
		Delete(&models.Message{})
	return result.RowsAffected, result.Error
}
