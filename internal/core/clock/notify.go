package clock

import (
	"sync"
	"time"
)

// ChangeFunc 时区变更回调，newLoc 为变更后的展示时区
type ChangeFunc func(newLoc *time.Location)

// Notifier 展示时区变更通知
// 会话持有当前展示时区，系统时区变化时广播给所有订阅者，
// 订阅者负责按新时区重算展示态。
type Notifier struct {
	mu   sync.RWMutex
	loc  *time.Location
	subs map[int]ChangeFunc
	next int
}

func NewNotifier(loc *time.Location) *Notifier {
	if loc == nil {
		loc = time.Local
	}
	return &Notifier{loc: loc, subs: make(map[int]ChangeFunc)}
}

// Location 当前展示时区
func (n *Notifier) Location() *time.Location {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.loc
}

// Subscribe 订阅时区变更，返回取消函数
func (n *Notifier) Subscribe(fn ChangeFunc) func() {
	n.mu.Lock()
	id := n.next
	n.next++
	n.subs[id] = fn
	n.mu.Unlock()
	return func() {
		n.mu.Lock()
		delete(n.subs, id)
		n.mu.Unlock()
	}
}

// Change 切换展示时区并广播
func (n *Notifier) Change(loc *time.Location) {
	if loc == nil {
		return
	}
	n.mu.Lock()
	if n.loc.String() == loc.String() {
		n.mu.Unlock()
		return
	}
	n.loc = loc
	fns := make([]ChangeFunc, 0, len(n.subs))
	for _, fn := range n.subs {
		fns = append(fns, fn)
	}
	n.mu.Unlock()
	for _, fn := range fns {
		fn(loc)
	}
}
