package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestStoreAppendAssignsIncreasingSeq(t *testing.T) {
	repos, _, _ := newMemRepos()
	store := NewRoomStore(repos, time.Second)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		msg, err := store.Append(ctx, "room-1", CandidateMessage{Sender: "alice", Text: fmt.Sprintf("msg %d", i)})
		if err != nil {
			t.Fatalf("Append %d: %v", i, err)
		}
		if msg.Seq != int64(i) {
			t.Fatalf("Append %d assigned seq %d, want %d", i, msg.Seq, i)
		}
	}

	history, err := store.History(ctx, "room-1")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 5 {
		t.Fatalf("History returned %d messages, want 5", len(history))
	}
	// 序號嚴格遞增，時間戳單調不減，順序與寫入順序一致
	for i, msg := range history {
		if msg.Seq != int64(i+1) {
			t.Fatalf("history[%d].Seq = %d, want %d", i, msg.Seq, i+1)
		}
		if msg.Text != fmt.Sprintf("msg %d", i+1) {
			t.Fatalf("history[%d].Text = %q, out of order", i, msg.Text)
		}
		if i > 0 && msg.Timestamp.Before(history[i-1].Timestamp) {
			t.Fatalf("history[%d] timestamp went backwards", i)
		}
	}
}

func TestStoreAppendValidation(t *testing.T) {
	repos, _, messages := newMemRepos()
	store := NewRoomStore(repos, time.Second)
	ctx := context.Background()

	tests := []struct {
		name      string
		roomID    string
		candidate CandidateMessage
	}{
		{name: "missing room id", roomID: "", candidate: CandidateMessage{Sender: "a", Text: "hi"}},
		{name: "no text no attachment", roomID: "room-1", candidate: CandidateMessage{Sender: "a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.Append(ctx, tt.roomID, tt.candidate)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("Append error = %v, want ErrValidation", err)
			}
		})
	}

	// 驗證失敗不留下任何副作用
	messages.mu.Lock()
	stored := len(messages.byRoom["room-1"])
	messages.mu.Unlock()
	if stored != 0 {
		t.Fatalf("%d messages stored after rejected appends, want 0", stored)
	}
}

func TestStoreAppendAttachmentOnly(t *testing.T) {
	repos, _, _ := newMemRepos()
	store := NewRoomStore(repos, time.Second)

	msg, err := store.Append(context.Background(), "room-1", CandidateMessage{
		Sender:             "alice",
		AttachmentURL:      "/uploads/1-notes.pdf",
		AttachmentMimeType: "application/pdf",
	})
	if err != nil {
		t.Fatalf("Append attachment-only: %v", err)
	}
	if msg.AttachmentURL == "" || msg.Text != "" {
		t.Fatalf("stored message = %+v, want attachment only", msg)
	}
}

func TestStoreHistoryUnknownRoom(t *testing.T) {
	repos, _, _ := newMemRepos()
	store := NewRoomStore(repos, time.Second)

	history, err := store.History(context.Background(), "nope")
	if err != nil {
		t.Fatalf("History of unknown room: %v", err)
	}
	if history == nil || len(history) != 0 {
		t.Fatalf("History of unknown room = %v, want empty slice", history)
	}
}

func TestStoreClear(t *testing.T) {
	repos, _, _ := newMemRepos()
	store := NewRoomStore(repos, time.Second)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := store.Append(ctx, "room-1", CandidateMessage{Sender: "a", Text: "x"}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	count, err := store.Clear(ctx, "room-1")
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if count != 3 {
		t.Fatalf("Clear returned %d, want 3", count)
	}

	history, err := store.History(ctx, "room-1")
	if err != nil {
		t.Fatalf("History after clear: %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("History after clear has %d messages, want 0", len(history))
	}

	// 再次清空是無操作
	count, err = store.Clear(ctx, "room-1")
	if err != nil || count != 0 {
		t.Fatalf("second Clear = (%d, %v), want (0, nil)", count, err)
	}

	// 清空不存在的房間也是無操作
	count, err = store.Clear(ctx, "never-existed")
	if err != nil || count != 0 {
		t.Fatalf("Clear of unknown room = (%d, %v), want (0, nil)", count, err)
	}
}

func TestStoreSeqNotReusedAfterClear(t *testing.T) {
	repos, _, _ := newMemRepos()
	store := NewRoomStore(repos, time.Second)
	ctx := context.Background()

	store.Append(ctx, "room-1", CandidateMessage{Sender: "a", Text: "1"})
	store.Append(ctx, "room-1", CandidateMessage{Sender: "a", Text: "2"})
	store.Clear(ctx, "room-1")

	msg, err := store.Append(ctx, "room-1", CandidateMessage{Sender: "a", Text: "3"})
	if err != nil {
		t.Fatalf("Append after clear: %v", err)
	}
	if msg.Seq != 3 {
		t.Fatalf("seq after clear = %d, want 3 (no reuse)", msg.Seq)
	}
}

func TestStoreStorageFailureLeavesNoPartialWrite(t *testing.T) {
	repos, _, messages := newMemRepos()
	store := NewRoomStore(repos, time.Second)
	ctx := context.Background()

	messages.mu.Lock()
	messages.err = errors.New("connection refused")
	messages.mu.Unlock()

	_, err := store.Append(ctx, "room-1", CandidateMessage{Sender: "a", Text: "hi"})
	if !errors.Is(err, ErrStorage) {
		t.Fatalf("Append during outage error = %v, want ErrStorage", err)
	}

	// 故障排除後重試，序號從頭開始，沒有殘留的部分寫入
	messages.mu.Lock()
	messages.err = nil
	messages.mu.Unlock()

	msg, err := store.Append(ctx, "room-1", CandidateMessage{Sender: "a", Text: "hi"})
	if err != nil {
		t.Fatalf("Append after recovery: %v", err)
	}
	if msg.Seq != 1 {
		t.Fatalf("seq after recovery = %d, want 1", msg.Seq)
	}
}

func TestStoreConcurrentAppendsSameRoom(t *testing.T) {
	repos, _, _ := newMemRepos()
	store := NewRoomStore(repos, time.Second)
	ctx := context.Background()

	const writers = 8
	const perWriter = 25

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < perWriter; j++ {
				if _, err := store.Append(ctx, "room-1", CandidateMessage{
					Sender: fmt.Sprintf("writer-%d", n),
					Text:   "x",
				}); err != nil {
					t.Errorf("concurrent Append: %v", err)
				}
			}
		}(i)
	}
	wg.Wait()

	history, err := store.History(ctx, "room-1")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != writers*perWriter {
		t.Fatalf("History has %d messages, want %d", len(history), writers*perWriter)
	}
	// 並發寫入不交錯: 序號仍然是 1..N 的嚴格遞增序列
	seen := make(map[int64]bool)
	for _, msg := range history {
		if seen[msg.Seq] {
			t.Fatalf("duplicate seq %d", msg.Seq)
		}
		seen[msg.Seq] = true
	}
	for i := int64(1); i <= int64(writers*perWriter); i++ {
		if !seen[i] {
			t.Fatalf("missing seq %d", i)
		}
	}
}

func TestStoreRememberIdentity(t *testing.T) {
	repos, rooms, _ := newMemRepos()
	store := NewRoomStore(repos, time.Second)
	ctx := context.Background()

	if err := store.RememberIdentity(ctx, "room-1", "alice@test.dev"); err != nil {
		t.Fatalf("RememberIdentity: %v", err)
	}
	// 重複記錄不報錯也不重複
	if err := store.RememberIdentity(ctx, "room-1", "alice@test.dev"); err != nil {
		t.Fatalf("RememberIdentity repeat: %v", err)
	}

	identities, err := store.KnownIdentities(ctx, "room-1")
	if err != nil {
		t.Fatalf("KnownIdentities: %v", err)
	}
	if len(identities) != 1 || identities[0] != "alice@test.dev" {
		t.Fatalf("KnownIdentities = %v, want [alice@test.dev]", identities)
	}

	rooms.mu.Lock()
	created := rooms.rooms["room-1"]
	rooms.mu.Unlock()
	if !created {
		t.Fatal("room record not created by RememberIdentity")
	}
}
