package viewer

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gowvp/replay/internal/core/clock"
	"github.com/gowvp/replay/internal/core/detector"
	"github.com/gowvp/replay/internal/core/device"
	"github.com/gowvp/replay/internal/core/media"
	"github.com/gowvp/replay/pkg/msapi"
	"github.com/ixugo/goddd/pkg/orm"
)

type windowReq struct {
	in    *media.WindowInput
	reply chan windowResp
}

type windowResp struct {
	units []*media.MediaUnit
	err   error
}

// fakePorts 取数协作方的内存实现
// windowCh 非空时窗口取数阻塞在通道上，由测试控制返回时序
type fakePorts struct {
	dev       *device.Device
	devErr    error
	pipelines []*device.Pipeline
	detectors []*detector.Detector
	notes     []*detector.Annotation
	units     []*media.MediaUnit
	windowErr error
	windowCh  chan windowReq

	windowCalls atomic.Int32
	liveCalls   atomic.Int32
	liveErr     error
}

func (f *fakePorts) GetDevice(context.Context, string) (*device.Device, error) {
	if f.devErr != nil {
		return nil, f.devErr
	}
	return f.dev, nil
}

func (f *fakePorts) FindPipelines(context.Context, *device.FindPipelineInput) ([]*device.Pipeline, int64, error) {
	return f.pipelines, int64(len(f.pipelines)), nil
}

func (f *fakePorts) FindDetectors(_ context.Context, in *detector.FindDetectorInput) ([]*detector.Detector, int64, error) {
	items := make([]*detector.Detector, 0, len(f.detectors))
	for _, d := range f.detectors {
		if in.Kind == "" || d.Kind == in.Kind {
			items = append(items, d)
		}
	}
	return items, int64(len(items)), nil
}

func (f *fakePorts) FindAnnotations(context.Context, *detector.FindAnnotationInput) ([]*detector.Annotation, int64, error) {
	return f.notes, int64(len(f.notes)), nil
}

func (f *fakePorts) AnnotatedUnitIDs(_ context.Context, _ string, unitIDs []int64) (map[int64]struct{}, error) {
	out := make(map[int64]struct{}, len(unitIDs))
	for _, id := range unitIDs {
		out[id] = struct{}{}
	}
	return out, nil
}

func (f *fakePorts) Window(_ context.Context, in *media.WindowInput) ([]*media.MediaUnit, error) {
	f.windowCalls.Add(1)
	if f.windowCh != nil {
		req := windowReq{in: in, reply: make(chan windowResp)}
		f.windowCh <- req
		resp := <-req.reply
		return append([]*media.MediaUnit{}, resp.units...), resp.err
	}
	if f.windowErr != nil {
		return nil, f.windowErr
	}
	return append([]*media.MediaUnit{}, f.units...), nil
}

func (f *fakePorts) HourSummary(context.Context, *media.HourSummaryInput) ([]media.MinuteBucket, error) {
	return nil, nil
}

func (f *fakePorts) GetLiveSession(context.Context, string, string) (*msapi.LiveSession, error) {
	n := f.liveCalls.Add(1)
	if f.liveErr != nil {
		return nil, f.liveErr
	}
	return &msapi.LiveSession{URI: fmt.Sprintf("http://ms/live.m3u8?sign=%d", n), ExpiresHint: 180}, nil
}

func (f *fakePorts) ports() Ports {
	return Ports{Device: f, Media: f, Detector: f, Live: f}
}

func defaultFake() *fakePorts {
	return &fakePorts{
		dev: &device.Device{ID: "cam-1", Name: "front door"},
		pipelines: []*device.Pipeline{
			{ID: "p1", DeviceID: "cam-1", App: "live", Stream: "main"},
			{ID: "p2", DeviceID: "cam-1", App: "live", Stream: "sub"},
		},
	}
}

func newTestSession(f *fakePorts) *Session {
	return newSession("s1", "cam-1", f.ports(), clock.NewNotifier(time.UTC), nil)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met within 2s")
}

func tvideo(id int64, start, end time.Time) *media.MediaUnit {
	e := orm.Time{Time: end}
	return &media.MediaUnit{ID: id, Kind: media.KindVideo, StartedAt: orm.Time{Time: start}, EndedAt: &e}
}

func timage(id int64, at time.Time) *media.MediaUnit {
	return &media.MediaUnit{ID: id, Kind: media.KindImage, StartedAt: orm.Time{Time: at}}
}

var hour10 = time.Date(2025, 3, 9, 10, 0, 0, 0, time.UTC)

func TestStaleGenerationSuppression(t *testing.T) {
	f := defaultFake()
	f.windowCh = make(chan windowReq, 2)
	s := newTestSession(f)

	s.Start(DeepLinkTarget{FileType: string(ModeVideo), At: hour10.Add(5 * time.Minute)})

	// G1: 初始窗口取数
	req1 := <-f.windowCh

	// G2: 窗口落定前用户跳到别的小时
	s.SelectHour(2025, 3, 9, 12, -1)
	req2 := <-f.windowCh

	g2units := []*media.MediaUnit{tvideo(20, hour10.Add(2*time.Hour), hour10.Add(2*time.Hour+5*time.Minute))}
	req2.reply <- windowResp{units: g2units}

	waitFor(t, func() bool {
		st := s.Snapshot()
		return len(st.Window) == 1 && st.Window[0].ID == 20
	})

	// G1 的响应后到，必须被丢弃
	g1units := []*media.MediaUnit{tvideo(10, hour10, hour10.Add(5*time.Minute))}
	req1.reply <- windowResp{units: g1units}

	time.Sleep(50 * time.Millisecond)
	st := s.Snapshot()
	if len(st.Window) != 1 || st.Window[0].ID != 20 {
		t.Fatalf("stale generation applied: %+v", st.Window)
	}
	if _, ok := st.Warnings[StageWindow]; ok {
		t.Fatalf("superseded fetch is not a failure, got warning %q", st.Warnings[StageWindow])
	}
}

func TestStageFailureIsScoped(t *testing.T) {
	f := defaultFake()
	f.windowErr = errors.New("query timeout")
	s := newTestSession(f)

	s.Start(DeepLinkTarget{FileType: string(ModeVideo), At: hour10})

	waitFor(t, func() bool {
		st := s.Snapshot()
		_, ok := st.Warnings[StageWindow]
		return ok
	})

	st := s.Snapshot()
	// 窗口失败只影响自身与下游，上游管道选择完好
	if len(st.Pipelines) != 2 || st.PipelineID != "p1" {
		t.Fatalf("upstream state disturbed: %+v", st)
	}
	if st.Current != nil || st.Window != nil {
		t.Fatalf("failed stage must clear derived state: %+v", st)
	}
	if _, ok := st.Warnings[StagePipelines]; ok {
		t.Fatal("sibling stage must not be warned")
	}
}

func TestDeviceFailureClearsDownstream(t *testing.T) {
	f := defaultFake()
	f.devErr = errors.New("device offline")
	s := newTestSession(f)

	s.Start(DeepLinkTarget{FileType: string(ModeVideo), At: hour10})

	waitFor(t, func() bool {
		st := s.Snapshot()
		_, ok := st.Warnings[StageDevice]
		return ok
	})

	st := s.Snapshot()
	if st.Device != nil || st.Pipelines != nil || st.PipelineID != "" || st.Current != nil {
		t.Fatalf("downstream not cleared: %+v", st)
	}
}

func TestDeepLinkFileTypePicksCompatiblePipeline(t *testing.T) {
	f := defaultFake()
	// 仅产视频的 p1 排在前面，图片深链必须落到产图的 p2
	f.pipelines = []*device.Pipeline{
		{ID: "p1", DeviceID: "cam-1", Mode: device.PipelineModeVideo, App: "live", Stream: "main"},
		{ID: "p2", DeviceID: "cam-1", Mode: device.PipelineModeImage, App: "live", Stream: "snap"},
	}
	f.units = []*media.MediaUnit{timage(7, hour10.Add(30 * time.Minute))}
	s := newTestSession(f)

	s.Start(DeepLinkTarget{FileType: string(ModeImage), At: hour10.Add(30 * time.Minute)})

	waitFor(t, func() bool {
		st := s.Snapshot()
		return st.PipelineID == "p2" && st.Current != nil
	})
	st := s.Snapshot()
	if st.Mode != ModeImage || st.Current.ID != 7 {
		t.Fatalf("got mode=%s current=%+v", st.Mode, st.Current)
	}
}

func TestModeSwitchPicksCompatiblePipeline(t *testing.T) {
	f := defaultFake()
	f.pipelines = []*device.Pipeline{
		{ID: "p1", DeviceID: "cam-1", Mode: device.PipelineModeVideo, App: "live", Stream: "main"},
		{ID: "p2", DeviceID: "cam-1", Mode: device.PipelineModeImage, App: "live", Stream: "snap"},
	}
	f.units = []*media.MediaUnit{
		tvideo(1, hour10, hour10.Add(5*time.Minute)),
		timage(2, hour10.Add(2*time.Minute)),
	}
	s := newTestSession(f)

	s.Start(DeepLinkTarget{FileType: string(ModeVideo), At: hour10})
	waitFor(t, func() bool { return s.Snapshot().PipelineID == "p1" })

	s.SwitchMode(ModeImage)
	waitFor(t, func() bool { return s.Snapshot().PipelineID == "p2" })
}

func TestDetectorDefaultPrefersBedrock(t *testing.T) {
	f := defaultFake()
	f.detectors = []*detector.Detector{
		{ID: "d1", Name: "motion", Kind: media.KindVideo},
		{ID: "d2", Name: detector.NameBedrock, Kind: media.KindVideo},
	}
	f.units = []*media.MediaUnit{tvideo(1, hour10, hour10.Add(5*time.Minute))}
	s := newTestSession(f)

	s.Start(DeepLinkTarget{FileType: string(ModeVideo), At: hour10})

	waitFor(t, func() bool { return s.Snapshot().DetectorID == "d2" })
}

func TestDeepLinkDetectorWinsOverBedrock(t *testing.T) {
	f := defaultFake()
	f.detectors = []*detector.Detector{
		{ID: "d1", Name: "motion", Kind: media.KindVideo},
		{ID: "d2", Name: detector.NameBedrock, Kind: media.KindVideo},
	}
	f.units = []*media.MediaUnit{tvideo(1, hour10, hour10.Add(5*time.Minute))}
	s := newTestSession(f)

	s.Start(DeepLinkTarget{FileType: string(ModeVideo), At: hour10, DetectorID: "d1"})

	waitFor(t, func() bool { return s.Snapshot().DetectorID == "d1" })
}

func TestDeepLinkUnitIsOneShot(t *testing.T) {
	f := defaultFake()
	a := tvideo(1, hour10, hour10.Add(5*time.Minute))
	b := tvideo(2, hour10.Add(5*time.Minute), hour10.Add(10*time.Minute))
	f.units = []*media.MediaUnit{a, b}
	s := newTestSession(f)

	// 目标时刻在 A 区间内，但 unit_id 指向 B，标识优先
	s.Start(DeepLinkTarget{FileType: string(ModeVideo), At: hour10.Add(2 * time.Minute), UnitID: 2})

	waitFor(t, func() bool {
		st := s.Snapshot()
		return st.Current != nil && st.Current.ID == 2
	})

	s.mu.Lock()
	consumed := s.pending == nil
	s.mu.Unlock()
	if !consumed {
		t.Fatal("deep link target must be consumed after resolution")
	}
}

func TestEmptyWindowShowsNoMedia(t *testing.T) {
	f := defaultFake()
	s := newTestSession(f)

	s.Start(DeepLinkTarget{FileType: string(ModeVideo), At: hour10})

	waitFor(t, func() bool {
		st := s.Snapshot()
		return st.Window != nil || len(st.Warnings) > 0 || st.HourStart.Equal(hour10)
	})

	st := s.Snapshot()
	if st.Current != nil {
		t.Fatalf("empty window must not retain a unit: %+v", st.Current)
	}
	if st.Playing {
		t.Fatal("empty window must not play")
	}
}
