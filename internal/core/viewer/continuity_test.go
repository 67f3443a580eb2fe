package viewer

import (
	"testing"
	"time"

	"github.com/gowvp/replay/internal/core/media"
)

func TestModeSwitchPreservesDisplayClock(t *testing.T) {
	f := defaultFake()
	f.units = []*media.MediaUnit{
		tvideo(1, hour10, hour10.Add(5*time.Minute)),
		timage(11, hour10),
		timage(12, hour10.Add(31*time.Minute+55*time.Second)),
		timage(13, hour10.Add(45*time.Minute)),
	}
	s := newTestSession(f)

	s.Start(DeepLinkTarget{FileType: string(ModeVideo), At: hour10.Add(time.Minute)})
	waitFor(t, func() bool {
		st := s.Snapshot()
		return st.Current != nil && st.Current.ID == 1
	})

	// 播放推进到 10:31:10，随后切到抓图模式
	s.Progress(31*time.Minute + 10*time.Second)

	s.SwitchMode(ModeImage)
	waitFor(t, func() bool {
		st := s.Snapshot()
		return st.Mode == ModeImage && st.Current != nil && st.Current.ID == 12
	})

	// 选中离保留时钟最近的抓图，时钟校准到抓图时刻而不是墙上时钟
	st := s.Snapshot()
	want := hour10.Add(31*time.Minute + 55*time.Second)
	if !st.DisplayClock.Equal(want) {
		t.Fatalf("display clock = %v, want %v", st.DisplayClock, want)
	}
	if st.Playing {
		t.Fatal("image mode must not report playing")
	}
}

func TestGaplessChaining(t *testing.T) {
	f := defaultFake()
	f.units = []*media.MediaUnit{
		tvideo(1, hour10, hour10.Add(5*time.Minute)),
		tvideo(2, hour10.Add(5*time.Minute), hour10.Add(10*time.Minute)),
		tvideo(3, hour10.Add(10*time.Minute), hour10.Add(15*time.Minute)),
	}
	s := newTestSession(f)

	s.Start(DeepLinkTarget{FileType: string(ModeVideo), At: hour10.Add(time.Minute)})
	waitFor(t, func() bool {
		st := s.Snapshot()
		return st.Current != nil && st.Current.ID == 1
	})
	calls := f.windowCalls.Load()

	// 播完衔接后继，不触发新的窗口取数
	s.OnUnitEnded()
	st := s.Snapshot()
	if st.Current == nil || st.Current.ID != 2 || !st.Playing {
		t.Fatalf("expected unit 2 playing, got %+v", st.Current)
	}

	s.OnUnitEnded()
	if st = s.Snapshot(); st.Current == nil || st.Current.ID != 3 {
		t.Fatalf("expected unit 3, got %+v", st.Current)
	}

	// 窗口尽头停住
	s.OnUnitEnded()
	st = s.Snapshot()
	if st.Playing {
		t.Fatal("must stop at end of window")
	}
	if st.Current == nil || st.Current.ID != 3 {
		t.Fatalf("current must stay on last unit, got %+v", st.Current)
	}
	if !st.DisplayClock.Equal(hour10.Add(15 * time.Minute)) {
		t.Fatalf("display clock = %v, want end of unit 3", st.DisplayClock)
	}
	if got := f.windowCalls.Load(); got != calls {
		t.Fatalf("chaining fetched window again: %d -> %d", calls, got)
	}
}

func TestPipelineSwitchKeepsClock(t *testing.T) {
	f := defaultFake()
	f.units = []*media.MediaUnit{tvideo(1, hour10, hour10.Add(10*time.Minute))}
	s := newTestSession(f)

	at := hour10.Add(5 * time.Minute)
	s.Start(DeepLinkTarget{FileType: string(ModeVideo), At: at})
	waitFor(t, func() bool { return s.Snapshot().Current != nil })
	calls := f.windowCalls.Load()

	s.SwitchPipeline("p2")
	waitFor(t, func() bool { return f.windowCalls.Load() > calls })
	waitFor(t, func() bool {
		st := s.Snapshot()
		return st.PipelineID == "p2" && st.Current != nil
	})

	if st := s.Snapshot(); !st.DisplayClock.Equal(at) {
		t.Fatalf("display clock = %v, want %v preserved across pipeline switch", st.DisplayClock, at)
	}
}

func TestPipelineSwitchUnknownIDIgnored(t *testing.T) {
	f := defaultFake()
	f.units = []*media.MediaUnit{tvideo(1, hour10, hour10.Add(10*time.Minute))}
	s := newTestSession(f)

	s.Start(DeepLinkTarget{FileType: string(ModeVideo), At: hour10})
	waitFor(t, func() bool { return s.Snapshot().PipelineID == "p1" })

	s.SwitchPipeline("no-such-pipeline")
	if st := s.Snapshot(); st.PipelineID != "p1" {
		t.Fatalf("pipeline id = %q, want p1", st.PipelineID)
	}
}

func TestSeekWithinLoadedWindow(t *testing.T) {
	f := defaultFake()
	f.units = []*media.MediaUnit{
		tvideo(1, hour10, hour10.Add(5*time.Minute)),
		tvideo(2, hour10.Add(5*time.Minute), hour10.Add(10*time.Minute)),
	}
	s := newTestSession(f)

	s.Start(DeepLinkTarget{FileType: string(ModeVideo), At: hour10.Add(time.Minute)})
	waitFor(t, func() bool {
		st := s.Snapshot()
		return st.Current != nil && st.Current.ID == 1
	})
	calls := f.windowCalls.Load()

	// 同一小时内跳转直接在已加载窗口里定位
	s.Seek(hour10.Add(7 * time.Minute))
	st := s.Snapshot()
	if st.Current == nil || st.Current.ID != 2 {
		t.Fatalf("expected unit 2, got %+v", st.Current)
	}
	if !st.DisplayClock.Equal(hour10.Add(7 * time.Minute)) {
		t.Fatalf("display clock = %v", st.DisplayClock)
	}
	if got := f.windowCalls.Load(); got != calls {
		t.Fatalf("in-window seek fetched window again: %d -> %d", calls, got)
	}

	// 跨小时跳转触发新窗口
	s.Seek(hour10.Add(time.Hour + 5*time.Minute))
	waitFor(t, func() bool { return f.windowCalls.Load() > calls })
}

func TestSelectDetectorFiltersWindow(t *testing.T) {
	f := defaultFake()
	f.units = []*media.MediaUnit{tvideo(1, hour10, hour10.Add(5*time.Minute))}
	s := newTestSession(f)

	s.Start(DeepLinkTarget{FileType: string(ModeVideo), At: hour10})
	waitFor(t, func() bool { return s.Snapshot().Current != nil })
	calls := f.windowCalls.Load()

	s.SelectDetector("d9")
	waitFor(t, func() bool { return f.windowCalls.Load() > calls })
	waitFor(t, func() bool { return s.Snapshot().DetectorID == "d9" })
}

func TestProgressDrivesDisplayClock(t *testing.T) {
	f := defaultFake()
	f.units = []*media.MediaUnit{tvideo(1, hour10, hour10.Add(5*time.Minute))}
	s := newTestSession(f)

	s.Start(DeepLinkTarget{FileType: string(ModeVideo), At: hour10})
	waitFor(t, func() bool { return s.Snapshot().Current != nil })

	s.Progress(90 * time.Second)
	if st := s.Snapshot(); !st.DisplayClock.Equal(hour10.Add(90 * time.Second)) {
		t.Fatalf("display clock = %v", st.DisplayClock)
	}

	s.Pause()
	if st := s.Snapshot(); st.Playing {
		t.Fatal("pause must stop playing")
	}
	s.Resume()
	if st := s.Snapshot(); !st.Playing {
		t.Fatal("resume must restore playing")
	}
}
