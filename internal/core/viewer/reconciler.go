package viewer

import (
	"context"
	"time"

	"github.com/gowvp/replay/internal/core/clock"
	"github.com/gowvp/replay/internal/core/detector"
	"github.com/gowvp/replay/internal/core/device"
	"github.com/gowvp/replay/internal/core/media"
)

// 取数链: device → pipelines → detectors → window + summary → annotations
//
// 每个 reload* 在持锁状态下被调用：推进本阶段代数并发起取数协程，
// 协程落地时重新加锁，代数不符则丢弃（被取代的取数不是失败，不告警）。
// 上游落地成功才会触发下游，旧代数的上游值不会与新代数的下游值拼装。

// reloadDevice 阶段 1: 设备描述
func (s *Session) reloadDevice() {
	gen := s.bump(StageDevice)
	deviceID := s.state.DeviceID

	go func() {
		dev, err := s.ports.Device.GetDevice(context.Background(), deviceID)

		s.mu.Lock()
		defer s.mu.Unlock()
		if !s.isCurrent(StageDevice, gen) {
			return
		}
		if err != nil {
			s.failStage(StageDevice, err)
			return
		}
		delete(s.state.Warnings, StageDevice)
		s.state.Device = dev
		if dev.Timezone != "" {
			if loc, err := time.LoadLocation(dev.Timezone); err == nil {
				s.loc = loc
			}
		}
		s.reloadPipelines()
	}()
}

// reloadPipelines 阶段 2: 管道列表与默认选择
func (s *Session) reloadPipelines() {
	gen := s.bump(StagePipelines)
	deviceID := s.state.DeviceID

	go func() {
		var in device.FindPipelineInput
		in.DeviceID = deviceID
		in.Page, in.Size = 1, 200
		items, _, err := s.ports.Device.FindPipelines(context.Background(), &in)

		s.mu.Lock()
		defer s.mu.Unlock()
		if !s.isCurrent(StagePipelines, gen) {
			return
		}
		if err != nil {
			s.failStage(StagePipelines, err)
			return
		}
		delete(s.state.Warnings, StagePipelines)
		s.state.Pipelines = items
		s.state.PipelineID = s.pickPipeline(items)

		if s.state.PipelineID == "" {
			// 设备没有任何管道，窗口无从谈起
			s.clearDownstream(StagePipelines)
			return
		}
		if s.state.Mode == ModeLive {
			s.reloadLive()
			return
		}
		s.reloadDetectors()
	}()
}

// pickPipeline 管道默认选择：深链 ID 命中优先，
// 其次保持形态兼容的已有选择，再次取第一个形态兼容的，最后兜底第一个
// 直播按视频形态匹配，图片回看必须落在产出图片的管道上
func (s *Session) pickPipeline(items []*device.Pipeline) string {
	if len(items) == 0 {
		return ""
	}
	kind := string(s.state.Mode)
	if s.state.Mode == ModeLive {
		kind = string(ModeVideo)
	}
	find := func(id string) *device.Pipeline {
		for _, p := range items {
			if p.ID == id {
				return p
			}
		}
		return nil
	}
	// 深链点名的管道尊重用户意图，不做形态校验
	if s.pending != nil && s.pending.PipelineID != "" && find(s.pending.PipelineID) != nil {
		return s.pending.PipelineID
	}
	if cur := find(s.state.PipelineID); cur != nil && cur.SupportsKind(kind) {
		return cur.ID
	}
	for _, p := range items {
		if p.SupportsKind(kind) {
			return p.ID
		}
	}
	return items[0].ID
}

// reloadDetectors 阶段 3: 检测器列表与默认选择
func (s *Session) reloadDetectors() {
	gen := s.bump(StageDetectors)
	deviceID := s.state.DeviceID
	pipelineID := s.state.PipelineID
	kind := string(s.state.Mode)

	go func() {
		var in detector.FindDetectorInput
		in.DeviceID = deviceID
		in.PipelineID = pipelineID
		in.Kind = kind
		in.Page, in.Size = 1, 200
		items, _, err := s.ports.Detector.FindDetectors(context.Background(), &in)

		s.mu.Lock()
		defer s.mu.Unlock()
		if !s.isCurrent(StageDetectors, gen) {
			return
		}
		if err != nil {
			// 检测器失败不拦路：清空列表、检测器归 none，窗口按无过滤继续
			s.state.Detectors = nil
			s.state.DetectorID = detector.NameNone
			s.state.Warnings[StageDetectors] = err.Error()
			s.reloadWindow()
			s.reloadSummary()
			return
		}
		delete(s.state.Warnings, StageDetectors)
		s.state.Detectors = items
		s.state.DetectorID = s.pickDetector(items)
		s.reloadWindow()
		s.reloadSummary()
	}()
}

// pickDetector 检测器默认选择：保持兼容的已有选择，
// 否则深链 ID 命中优先，再偏好 bedrock，再取第一个，空列表归 none
func (s *Session) pickDetector(items []*detector.Detector) string {
	if len(items) == 0 {
		return detector.NameNone
	}
	if s.state.DetectorID != "" && s.state.DetectorID != detector.NameNone {
		for _, d := range items {
			if d.ID == s.state.DetectorID {
				return d.ID
			}
		}
	}
	var wantID string
	if s.pending != nil {
		wantID = s.pending.DetectorID
	}
	if d := detector.Prefer(items, wantID); d != nil {
		return d.ID
	}
	return detector.NameNone
}

// reloadWindow 阶段 4: 媒体窗口取数与单元定位
func (s *Session) reloadWindow() {
	gen := s.bump(StageWindow)

	pipelineID := s.state.PipelineID
	detectorID := s.state.DetectorID
	kind := string(s.state.Mode)
	targetAt := s.targetInstant()
	hourStart := clock.HourStart(targetAt, s.loc)
	var unitID int64
	if s.pending != nil {
		unitID = s.pending.UnitID
	}
	tol := s.imageTol

	go func() {
		ctx := context.Background()
		units, err := s.ports.Media.Window(ctx, &media.WindowInput{
			PipelineID: pipelineID,
			Start:      hourStart,
			End:        hourStart.Add(time.Hour),
		})
		if err == nil {
			units = filterKind(units, kind)
			if detectorID != "" && detectorID != detector.NameNone && len(units) > 0 {
				ids := make([]int64, 0, len(units))
				for _, u := range units {
					ids = append(ids, u.ID)
				}
				matched, ferr := s.ports.Detector.AnnotatedUnitIDs(ctx, detectorID, ids)
				if ferr != nil {
					err = ferr
				} else {
					kept := units[:0]
					for _, u := range units {
						if _, ok := matched[u.ID]; ok {
							kept = append(kept, u)
						}
					}
					units = kept
				}
			}
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if !s.isCurrent(StageWindow, gen) {
			return
		}
		if err != nil {
			s.failStage(StageWindow, err)
			s.consumeTarget()
			return
		}
		delete(s.state.Warnings, StageWindow)
		s.state.HourStart = hourStart
		s.state.Window = units

		resolved := media.Resolve(media.ResolveTarget{
			UnitID:    unitID,
			At:        targetAt,
			Kind:      kind,
			Tolerance: tol,
		}, units)
		s.applyResolved(resolved, targetAt)
		s.consumeTarget()
		s.reloadAnnotations()
	}()
}

// applyResolved 落定当前单元并校准展示时钟（调用方持锁）
func (s *Session) applyResolved(resolved *media.MediaUnit, targetAt time.Time) {
	s.state.Current = resolved
	switch {
	case resolved == nil:
		// 窗口为空，展示无媒体状态，时钟保持目标时刻
		s.state.Playing = false
		s.state.DisplayClock = targetAt
	case resolved.Contains(targetAt):
		s.state.Playing = true
		s.state.DisplayClock = targetAt
	default:
		s.state.Playing = resolved.Kind == media.KindVideo
		s.state.DisplayClock = resolved.At()
	}
}

// targetInstant 本轮窗口定位的目标时刻（调用方持锁）
// 深链时刻优先，其次沿用保留的展示时钟，最后才退到当前时间
func (s *Session) targetInstant() time.Time {
	if s.pending != nil && !s.pending.At.IsZero() {
		return s.pending.At
	}
	if !s.state.DisplayClock.IsZero() {
		return s.state.DisplayClock
	}
	return time.Now().UTC()
}

// consumeTarget 深链目标一次性消费（调用方持锁）
// 解析失败也消费掉，回落默认选择而不是反复重试
func (s *Session) consumeTarget() {
	s.pending = nil
}

// reloadSummary 阶段 4 平级: 小时按分钟聚合
func (s *Session) reloadSummary() {
	gen := s.bump(StageSummary)
	pipelineID := s.state.PipelineID
	hourStart := clock.HourStart(s.targetInstant(), s.loc)

	go func() {
		buckets, err := s.ports.Media.HourSummary(context.Background(), &media.HourSummaryInput{
			PipelineID: pipelineID,
			Start:      hourStart,
			End:        hourStart.Add(time.Hour),
		})

		s.mu.Lock()
		defer s.mu.Unlock()
		if !s.isCurrent(StageSummary, gen) {
			return
		}
		if err != nil {
			s.state.Summary = nil
			s.state.Warnings[StageSummary] = err.Error()
			return
		}
		delete(s.state.Warnings, StageSummary)
		s.state.Summary = buckets
	}()
}

// reloadAnnotations 阶段 5: 当前单元的标注
func (s *Session) reloadAnnotations() {
	gen := s.bump(StageAnnotations)

	if s.state.Current == nil || s.state.DetectorID == "" || s.state.DetectorID == detector.NameNone {
		s.state.Notes = nil
		delete(s.state.Warnings, StageAnnotations)
		return
	}
	unitID := s.state.Current.ID
	detectorID := s.state.DetectorID

	go func() {
		var in detector.FindAnnotationInput
		in.UnitID = unitID
		in.DetectorID = detectorID
		in.Page, in.Size = 1, 500
		items, _, err := s.ports.Detector.FindAnnotations(context.Background(), &in)

		s.mu.Lock()
		defer s.mu.Unlock()
		if !s.isCurrent(StageAnnotations, gen) {
			return
		}
		if err != nil {
			s.state.Notes = nil
			s.state.Warnings[StageAnnotations] = err.Error()
			return
		}
		delete(s.state.Warnings, StageAnnotations)
		s.state.Notes = items
	}()
}

// failStage 阶段失败：本阶段与下游清空，阶段级警告，不再向上抛（调用方持锁）
func (s *Session) failStage(stage Stage, err error) {
	s.state.Warnings[stage] = err.Error()
	s.clearStage(stage)
	s.clearDownstream(stage)
}

func (s *Session) clearStage(stage Stage) {
	switch stage {
	case StageDevice:
		s.state.Device = nil
	case StagePipelines:
		s.state.Pipelines = nil
		s.state.PipelineID = ""
	case StageDetectors:
		s.state.Detectors = nil
		s.state.DetectorID = detector.NameNone
	case StageWindow:
		s.state.Window = nil
		s.state.Current = nil
		s.state.Playing = false
	case StageSummary:
		s.state.Summary = nil
	case StageAnnotations:
		s.state.Notes = nil
	case StageLive:
		s.state.Live = nil
	}
}

// clearDownstream 清空下游阶段的派生状态，代数同时推进，
// 在途的下游取数不会把旧上游的结果带回来（调用方持锁）
func (s *Session) clearDownstream(stage Stage) {
	downstream := map[Stage][]Stage{
		StageDevice:    {StagePipelines, StageDetectors, StageWindow, StageSummary, StageAnnotations, StageLive},
		StagePipelines: {StageDetectors, StageWindow, StageSummary, StageAnnotations, StageLive},
		StageDetectors: {StageWindow, StageSummary, StageAnnotations},
		StageWindow:    {StageAnnotations},
	}
	for _, st := range downstream[stage] {
		s.bump(st)
		s.clearStage(st)
	}
}

func filterKind(units []*media.MediaUnit, kind string) []*media.MediaUnit {
	kept := units[:0]
	for _, u := range units {
		if u.Kind == kind {
			kept = append(kept, u)
		}
	}
	return kept
}
