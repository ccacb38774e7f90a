package bot

import (
	"sync"

	"gitlab.com/yelinaung/expense-tracker/internal/ledger"
)

// viewStore keeps the month expansion state of each chat's list.
type viewStore struct {
	mu    sync.Mutex
	chats map[int64]*ledger.Expansion
}

func newViewStore() *viewStore {
	return &viewStore{chats: make(map[int64]*ledger.Expansion)}
}

func (v *viewStore) forChat(chatID int64) *ledger.Expansion {
	v.mu.Lock()
	defer v.mu.Unlock()

	exp, ok := v.chats[chatID]
	if !ok {
		exp = ledger.NewExpansion()
		v.chats[chatID] = exp
	}
	return exp
}
