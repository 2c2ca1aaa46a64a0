package app

import (
	"sync"

	"short_clip_service/internal/clip/domain"
)

// ProgressHub 匯出進度廣播，key = member:clip
// websocket handler 訂閱，引擎每次狀態轉換都會推一筆
type ProgressHub struct {
	mu   sync.RWMutex
	subs map[string][]chan domain.ExportProgress
}

func NewProgressHub() *ProgressHub {
	return &ProgressHub{subs: make(map[string][]chan domain.ExportProgress)}
}

// Subscribe 回傳進度 channel 與取消函式，取消後 channel 會被關閉
func (h *ProgressHub) Subscribe(key string) (<-chan domain.ExportProgress, func()) {
	ch := make(chan domain.ExportProgress, 8)
	h.mu.Lock()
	h.subs[key] = append(h.subs[key], ch)
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			list := h.subs[key]
			for i, c := range list {
				if c == ch {
					h.subs[key] = append(list[:i], list[i+1:]...)
					break
				}
			}
			if len(h.subs[key]) == 0 {
				delete(h.subs, key)
			}
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish 非阻塞推送，訂閱端塞滿就丟棄該筆
func (h *ProgressHub) Publish(key string, p domain.ExportProgress) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subs[key] {
		select {
		case ch <- p:
		default:
		}
	}
}
