package viewer

import (
	"sync"
	"time"

	"github.com/gowvp/replay/internal/conf"
	"github.com/gowvp/replay/internal/core/clock"
	"github.com/gowvp/replay/internal/core/media"
)

// Session 一个用户的回看会话
//
// state 只在持锁状态下修改，取数在协程中进行，
// 结果落地前校验捕获的代数，过期结果直接丢弃。
type Session struct {
	ID string

	mu      sync.Mutex
	state   PlaybackState
	gens    map[Stage]uint64
	pending *DeepLinkTarget // 深链目标，窗口落定后一次性消费
	loc     *time.Location  // 展示时区

	ports       Ports
	imageTol    time.Duration
	lastActive  time.Time
	unsubscribe func()
}

func newSession(id, deviceID string, ports Ports, notifier *clock.Notifier, cfg *conf.Viewer) *Session {
	s := Session{
		ID:    id,
		ports: ports,
		gens:  make(map[Stage]uint64, 8),
		state: PlaybackState{
			Mode:       ModeLive,
			DeviceID:   deviceID,
			DetectorID: "none",
			Warnings:   make(map[Stage]string),
		},
		loc:        time.Local,
		imageTol:   media.DefaultImageTolerance,
		lastActive: time.Now(),
	}
	if cfg != nil && cfg.ImageMatchToleranceS > 0 {
		s.imageTol = time.Duration(cfg.ImageMatchToleranceS) * time.Second
	}
	if notifier != nil {
		s.loc = notifier.Location()
		s.unsubscribe = notifier.Subscribe(func(newLoc *time.Location) {
			s.mu.Lock()
			s.loc = newLoc
			s.mu.Unlock()
		})
	}
	return &s
}

// Start 按深链目标启动会话的取数链
// 深链缺省的字段走默认选择，file_type 缺省时进入直播模式
func (s *Session) Start(target DeepLinkTarget) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !target.IsZero() {
		s.pending = &target
	}
	switch target.FileType {
	case string(ModeVideo):
		s.state.Mode = ModeVideo
	case string(ModeImage):
		s.state.Mode = ModeImage
	default:
		s.state.Mode = ModeLive
	}
	if !target.At.IsZero() {
		s.state.DisplayClock = target.At
	} else {
		s.state.DisplayClock = time.Now().UTC()
	}

	s.reloadDevice()
}

// bump 阶段代数 +1（调用方持锁）
func (s *Session) bump(stage Stage) uint64 {
	s.gens[stage]++
	return s.gens[stage]
}

// isCurrent 捕获的代数是否仍是该阶段的当前代数（调用方持锁）
func (s *Session) isCurrent(stage Stage, gen uint64) bool {
	return s.gens[stage] == gen
}

// Location 当前展示时区
func (s *Session) Location() *time.Location {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loc
}

// Snapshot 状态快照
// 切片内容只读共享，Warnings 复制，调用方不得修改切片元素
func (s *Session) Snapshot() PlaybackState {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.state
	out.Warnings = make(map[Stage]string, len(s.state.Warnings))
	for k, v := range s.state.Warnings {
		out.Warnings[k] = v
	}
	return out
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastActive = time.Now()
	s.mu.Unlock()
}

func (s *Session) activeAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
	// 代数推进使所有在途取数的结果失效
	for stage := range s.gens {
		s.gens[stage]++
	}
}
