package service

import "context"

// HistoryReplay 負責在連線加入房間後，把完整的歷史訊息一次性回放給該連線
// 只發給剛加入的連線，不影響房間內其他成員
type HistoryReplay struct {
	store       *RoomStore
	broadcaster *MessageBroadcaster
}

func NewHistoryReplay(store *RoomStore, broadcaster *MessageBroadcaster) *HistoryReplay {
	return &HistoryReplay{store: store, broadcaster: broadcaster}
}

// ReplayTo 取出房間的有序歷史並以單一批次投遞給指定連線
// 必須在連線登記進名單之後呼叫，這樣回放之後寫入的訊息才不會漏接
func (h *HistoryReplay) ReplayTo(ctx context.Context, connectionID, roomID string) error {
	messages, err := h.store.History(ctx, roomID)
	if err != nil {
		return err
	}
	return h.broadcaster.SendTo(connectionID, Event{
		Type:     EventHistory,
		RoomID:   roomID,
		Messages: messages,
	})
}
