package service

import (
	"context"
	"sync"
	"time"

	"brainboost/internal/models"
	"brainboost/internal/repository"
)

// CandidateMessage 是尚未寫入的訊息內容，序號和時間戳由 RoomStore 指派
type CandidateMessage struct {
	Sender             string
	SenderIdentity     string
	Text               string
	AttachmentURL      string
	AttachmentMimeType string
}

// RoomStore 負責房間訊息歷史的持久化
// 同一房間的寫入被串行化，保證序號嚴格遞增、時間戳單調不減
// 不同房間的寫入互不阻塞
type RoomStore struct {
	repos   *repository.Repositories
	timeout time.Duration // 持久層操作的逾時上限

	mu    sync.Mutex
	rooms map[string]*roomLog
}

// roomLog 持有單一房間的寫入鎖與序號狀態
type roomLog struct {
	mu      sync.Mutex
	loaded  bool
	lastSeq int64
	lastTS  time.Time
}

func NewRoomStore(repos *repository.Repositories, timeout time.Duration) *RoomStore {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &RoomStore{
		repos:   repos,
		timeout: timeout,
		rooms:   make(map[string]*roomLog),
	}
}

// Append 驗證並寫入一則訊息，返回帶有序號和時間戳的完整訊息
// 寫入失敗時操作視為未發生，序號不會前進
func (s *RoomStore) Append(ctx context.Context, roomID string, candidate CandidateMessage) (*models.Message, error) {
	if roomID == "" {
		return nil, validationErr("missing room id")
	}
	if candidate.Text == "" && candidate.AttachmentURL == "" {
		return nil, validationErr("message requires text or attachment")
	}

	rl := s.roomLog(roomID)
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if err := s.loadLocked(ctx, roomID, rl); err != nil {
		return nil, err
	}

	// 時間戳取伺服器時鐘並夾制為單調不減，不信任客戶端時間
	ts := time.Now().UTC()
	if ts.Before(rl.lastTS) {
		ts = rl.lastTS
	}
	message := &models.Message{
		RoomID:             roomID,
		Seq:                rl.lastSeq + 1,
		Sender:             candidate.Sender,
		SenderIdentity:     candidate.SenderIdentity,
		Text:               candidate.Text,
		AttachmentURL:      candidate.AttachmentURL,
		AttachmentMimeType: candidate.AttachmentMimeType,
		Timestamp:          ts,
	}

	opCtx, cancel := s.opContext(ctx)
	defer cancel()
	if err := s.repos.Message.Create(opCtx, message); err != nil {
		return nil, storageErr(err)
	}

	rl.lastSeq = message.Seq
	rl.lastTS = ts
	return message, nil
}

// History 返回房間的全部訊息，按寫入順序排列
// 房間不存在時返回空列表而不是錯誤
func (s *RoomStore) History(ctx context.Context, roomID string) ([]models.Message, error) {
	opCtx, cancel := s.opContext(ctx)
	defer cancel()

	messages, err := s.repos.Message.FindByRoomID(opCtx, roomID)
	if err != nil {
		return nil, storageErr(err)
	}
	if messages == nil {
		messages = []models.Message{}
	}
	return messages, nil
}

// Clear 原子性清空房間的訊息，返回被清除的筆數
// 房間不存在或已經是空的時返回 0，不視為錯誤
// 清空後序號繼續遞增，不會重複使用
func (s *RoomStore) Clear(ctx context.Context, roomID string) (int64, error) {
	rl := s.roomLog(roomID)
	rl.mu.Lock()
	defer rl.mu.Unlock()

	opCtx, cancel := s.opContext(ctx)
	defer cancel()
	count, err := s.repos.Message.DeleteByRoomID(opCtx, roomID)
	if err != nil {
		return 0, storageErr(err)
	}
	return count, nil
}

// RememberIdentity 記錄曾加入房間的帳號識別，供審計使用
// 與即時名單無關，重複記錄不報錯
func (s *RoomStore) RememberIdentity(ctx context.Context, roomID, identity string) error {
	if roomID == "" || identity == "" {
		return nil
	}
	opCtx, cancel := s.opContext(ctx)
	defer cancel()

	if _, err := s.repos.Room.GetOrCreate(opCtx, roomID); err != nil {
		return storageErr(err)
	}
	if err := s.repos.Room.AddIdentity(opCtx, roomID, identity); err != nil {
		return storageErr(err)
	}
	return nil
}

// KnownIdentities 返回曾經加入過房間的帳號識別列表
func (s *RoomStore) KnownIdentities(ctx context.Context, roomID string) ([]string, error) {
	opCtx, cancel := s.opContext(ctx)
	defer cancel()

	identities, err := s.repos.Room.FindIdentities(opCtx, roomID)
	if err != nil {
		return nil, storageErr(err)
	}
	return identities, nil
}

// loadLocked 第一次寫入前載入房間目前的序號狀態，並確保房間紀錄存在
// 呼叫者必須持有該房間的寫入鎖
func (s *RoomStore) loadLocked(ctx context.Context, roomID string, rl *roomLog) error {
	if rl.loaded {
		return nil
	}
	opCtx, cancel := s.opContext(ctx)
	defer cancel()

	if _, err := s.repos.Room.GetOrCreate(opCtx, roomID); err != nil {
		return storageErr(err)
	}
	last, err := s.repos.Message.Last(opCtx, roomID)
	if err != nil {
		return storageErr(err)
	}
	if last != nil {
		rl.lastSeq = last.Seq
		rl.lastTS = last.Timestamp
	}
	rl.loaded = true
	return nil
}

func (s *RoomStore) roomLog(roomID string) *roomLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	rl := s.rooms[roomID]
	if rl == nil {
		rl = &roomLog{}
		s.rooms[roomID] = rl
	}
	return rl
}

func (s *RoomStore) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, s.timeout)
}
