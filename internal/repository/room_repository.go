package repository

import (
	"context"

	"gorm.io/gorm/clause"

	"brainboost/internal/models"
	"brainboost/internal/storage"
)

type RoomRepository interface {
	GetOrCreate(ctx context.Context, roomID string) (*models.Room, error)
	AddIdentity(ctx context.Context, roomID, identity string) error
	FindIdentities(ctx context.Context, roomID string) ([]string, error)
}

type roomRepository struct {
	db *storage.PostgresDB
}

func NewRoomRepository(db *storage.PostgresDB) RoomRepository {
	return &roomRepository{db: db}
}

// GetOrCreate 查詢房間，不存在時建立
// 房間紀錄是懶建立的，第一次加入或發送訊息時才會出現
func (r *roomRepository) GetOrCreate(ctx context.Context, roomID string) (*models.Room, error) {
	var room models.Room
	err := r.db.WithContext(ctx).
		Where(models.Room{RoomID: roomID}).
		FirstOrCreate(&room).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// AddIdentity 記錄曾加入房間的帳號識別，重複加入不報錯
func (r *roomRepository) AddIdentity(ctx context.Context, roomID, identity string) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.RoomIdentity{RoomID: roomID, Identity: identity}).Error
}

func (r *roomRepository) FindIdentities(ctx context.Context, roomID string) ([]string, error) {
	var identities []string
	err := r.db.WithContext(ctx).
		Model(&models.RoomIdentity{}).
		Where("room_id = ?", roomID).
		Order("created_at asc").
		Pluck("identity", &identities).Error
	return identities, err
}
