package viewer

import (
	"context"
	"time"
)

// 直播会话维持
//
// 直播地址是短时签名的，过期由播放器回调 OnLiveSessionExpired 续期，
// 续期不改变模式也不打断用户意图；续期失败只标记瞬态不可用，
// 等待用户显式刷新，不上定时器重试，避免对错配设备的重试风暴。

// reloadLive 获取直播会话（调用方持锁）
func (s *Session) reloadLive() {
	gen := s.bump(StageLive)

	var app, stream string
	for _, p := range s.state.Pipelines {
		if p.ID == s.state.PipelineID {
			app, stream = p.App, p.Stream
			break
		}
	}
	if stream == "" {
		s.state.Live = nil
		s.state.LiveUnavailable = true
		s.state.Warnings[StageLive] = "pipeline has no stream"
		return
	}

	go func() {
		sess, err := s.ports.Live.GetLiveSession(context.Background(), app, stream)

		s.mu.Lock()
		defer s.mu.Unlock()
		if !s.isCurrent(StageLive, gen) {
			return
		}
		if err != nil {
			s.state.Live = nil
			s.state.LiveUnavailable = true
			s.state.Warnings[StageLive] = err.Error()
			return
		}
		delete(s.state.Warnings, StageLive)
		s.state.Live = sess
		s.state.LiveUnavailable = false
	}()
}

// OnLiveSessionExpired 播放器会话过期回调
// 过期是预期的瞬态状况而非错误，静默换入新会话
func (s *Session) OnLiveSessionExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Mode != ModeLive {
		return
	}
	s.reloadLive()
}

// RefreshLive 用户显式刷新，续期失败后的唯一重试入口
func (s *Session) RefreshLive() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = time.Now()

	if s.state.Mode != ModeLive {
		return
	}
	s.state.LiveUnavailable = false
	s.reloadLive()
}
