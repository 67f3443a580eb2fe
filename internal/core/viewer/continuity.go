package viewer

import (
	"time"

	"github.com/gowvp/replay/internal/core/clock"
	"github.com/gowvp/replay/internal/core/media"
)

// 模式与目标切换
//
// 切换前先捕获 display_clock，新模式的窗口落定后以保留的时钟定位，
// 而不是跳到墙上时钟，这是模式切换连续感的来源。

// SwitchMode 切换回看模式
func (s *Session) SwitchMode(mode Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = time.Now()

	if mode != ModeLive && mode != ModeVideo && mode != ModeImage {
		return
	}
	if s.state.Mode == mode {
		return
	}

	// display_clock 原样保留，reloadWindow 以它为目标时刻
	s.state.Mode = mode
	s.state.Live = nil
	s.state.LiveUnavailable = false
	delete(s.state.Warnings, StageLive)

	// 当前管道不产出新形态时在已加载列表内改选兼容管道
	s.state.PipelineID = s.pickPipeline(s.state.Pipelines)

	if mode == ModeLive {
		s.state.DisplayClock = time.Now().UTC()
		s.reloadLive()
		return
	}
	// 检测器按模式（video/image）区分，需要整条链重新选择
	s.reloadDetectors()
}

// SwitchPipeline 切换管道，保留展示时钟并在新管道的窗口内重新定位
func (s *Session) SwitchPipeline(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = time.Now()

	if id == "" || id == s.state.PipelineID {
		return
	}
	var found bool
	for _, p := range s.state.Pipelines {
		if p.ID == id {
			found = true
			break
		}
	}
	if !found {
		return
	}

	s.state.PipelineID = id
	if s.state.Mode == ModeLive {
		s.reloadLive()
		return
	}
	s.reloadDetectors()
}

// SelectDetector 切换检测器并重新取窗口
func (s *Session) SelectDetector(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = time.Now()

	if id == s.state.DetectorID || s.state.Mode == ModeLive {
		return
	}
	s.state.DetectorID = id
	s.reloadWindow()
}

// SelectHour 跳转到展示时区下的某个小时
// minute < 0 表示整点，窗口落定后在新小时内定位
func (s *Session) SelectHour(year int, month time.Month, day, hour, minute int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = time.Now()

	if s.state.Mode == ModeLive {
		return
	}

	m := minute
	if m < 0 {
		m = 0
	}
	// 壁钟时分经稠密前缀编解码换算为 UTC，跨午夜与夏令时切换都由它兜住
	at, err := clock.DecodeToken(clock.QueryPrefix(year, month, day, hour, m, s.loc))
	if err != nil {
		return
	}
	s.state.DisplayClock = at
	s.reloadWindow()
	s.reloadSummary()
}

// Seek 在已加载的窗口内跳转到指定 UTC 时刻
// 时刻落在当前小时外时触发新窗口取数
func (s *Session) Seek(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = time.Now()

	if s.state.Mode == ModeLive {
		return
	}

	at = at.UTC()
	s.state.DisplayClock = at
	if clock.HourStart(at, s.loc).Equal(s.state.HourStart) && s.state.Window != nil {
		resolved := media.Resolve(media.ResolveTarget{
			At:        at,
			Kind:      string(s.state.Mode),
			Tolerance: s.imageTol,
		}, s.state.Window)
		s.applyResolved(resolved, at)
		s.reloadAnnotations()
		return
	}
	s.reloadWindow()
	s.reloadSummary()
}

// Progress 播放进度上报，展示时钟 = 单元起点 + 已播时长
// 时分选择器与时间轴据此保持同步，无需轮询
func (s *Session) Progress(elapsed time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = time.Now()

	if s.state.Mode != ModeVideo || s.state.Current == nil || elapsed < 0 {
		return
	}
	s.state.DisplayClock = s.state.Current.At().Add(elapsed)
}

// OnUnitEnded 视频播完回调
// 在已加载窗口内找开始时间升序的直接后继衔接播放，
// 窗口尽头停住等待下一次窗口取数，绝不跨小时猜测
func (s *Session) OnUnitEnded() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = time.Now()

	if s.state.Mode != ModeVideo || s.state.Current == nil {
		return
	}

	if end := s.state.Current.EndedAt; end != nil {
		s.state.DisplayClock = end.Time
	}

	next := media.Successor(s.state.Current, s.state.Window)
	if next == nil {
		s.state.Playing = false
		return
	}
	s.state.Current = next
	s.state.Playing = true
	s.state.DisplayClock = next.At()
	s.reloadAnnotations()
}

// Pause 暂停播放，展示时钟停在当前位置
func (s *Session) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = time.Now()
	s.state.Playing = false
}

// Resume 继续播放
func (s *Session) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = time.Now()
	if s.state.Current != nil && s.state.Mode == ModeVideo {
		s.state.Playing = true
	}
}
