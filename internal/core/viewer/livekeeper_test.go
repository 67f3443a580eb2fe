package viewer

import (
	"errors"
	"net/url"
	"testing"
	"time"
)

func TestLiveSessionIssuedOnStart(t *testing.T) {
	f := defaultFake()
	s := newTestSession(f)

	s.Start(DeepLinkTarget{})
	waitFor(t, func() bool { return s.Snapshot().Live != nil })

	st := s.Snapshot()
	if st.Mode != ModeLive {
		t.Fatalf("mode = %q, want live", st.Mode)
	}
	if st.LiveUnavailable {
		t.Fatal("live must be available")
	}
	if got := f.liveCalls.Load(); got != 1 {
		t.Fatalf("live calls = %d, want 1", got)
	}
}

func TestLiveExpiryRenewsSilently(t *testing.T) {
	f := defaultFake()
	s := newTestSession(f)

	s.Start(DeepLinkTarget{})
	waitFor(t, func() bool { return s.Snapshot().Live != nil })
	first := s.Snapshot().Live.URI

	s.OnLiveSessionExpired()
	waitFor(t, func() bool {
		st := s.Snapshot()
		return st.Live != nil && st.Live.URI != first
	})

	if st := s.Snapshot(); st.LiveUnavailable || st.Mode != ModeLive {
		t.Fatalf("renewal must not disturb session state: %+v", st)
	}
}

func TestLiveFailureWaitsForExplicitRefresh(t *testing.T) {
	f := defaultFake()
	f.liveErr = errors.New("media server unreachable")
	s := newTestSession(f)

	s.Start(DeepLinkTarget{})
	waitFor(t, func() bool { return s.Snapshot().LiveUnavailable })

	st := s.Snapshot()
	if st.Live != nil {
		t.Fatal("failed issuance must not leave a session behind")
	}
	if _, ok := st.Warnings[StageLive]; !ok {
		t.Fatal("expected live stage warning")
	}

	// 服务恢复后由用户显式刷新
	f.liveErr = nil
	s.RefreshLive()
	waitFor(t, func() bool {
		st := s.Snapshot()
		return st.Live != nil && !st.LiveUnavailable
	})
}

func TestLiveIgnoredInPlaybackMode(t *testing.T) {
	f := defaultFake()
	s := newTestSession(f)

	s.Start(DeepLinkTarget{FileType: string(ModeVideo), At: hour10})
	waitFor(t, func() bool { return s.Snapshot().PipelineID == "p1" })

	s.OnLiveSessionExpired()
	time.Sleep(20 * time.Millisecond)
	if got := f.liveCalls.Load(); got != 0 {
		t.Fatalf("playback mode must not touch live sessions, calls = %d", got)
	}
}

func TestParseDeepLink(t *testing.T) {
	q := url.Values{}
	q.Set("pipeline_id", "p7")
	q.Set("file_type", "video")
	q.Set("datetime", "202503091030")
	q.Set("detector_id", "d1")
	q.Set("unit_id", "42")

	got := ParseDeepLink(q)
	if got.PipelineID != "p7" || got.FileType != "video" || got.DetectorID != "d1" || got.UnitID != 42 {
		t.Fatalf("unexpected target: %+v", got)
	}
	want := time.Date(2025, 3, 9, 10, 30, 0, 0, time.UTC)
	if !got.At.Equal(want) {
		t.Fatalf("at = %v, want %v", got.At, want)
	}
}

func TestFormatDeepLinkRoundTrip(t *testing.T) {
	st := PlaybackState{
		Mode:         ModeVideo,
		DeviceID:     "cam-1",
		PipelineID:   "p7",
		DetectorID:   "d1",
		DisplayClock: time.Date(2025, 3, 9, 10, 30, 0, 0, time.UTC),
		Current:      tvideo(42, hour10, hour10.Add(5*time.Minute)),
	}

	q, err := url.ParseQuery(FormatDeepLink(&st))
	if err != nil {
		t.Fatal(err)
	}
	if q.Get("device_id") != "cam-1" {
		t.Fatalf("device_id = %q", q.Get("device_id"))
	}

	got := ParseDeepLink(q)
	if got.PipelineID != "p7" || got.FileType != "video" || got.DetectorID != "d1" || got.UnitID != 42 {
		t.Fatalf("unexpected target: %+v", got)
	}
	if !got.At.Equal(st.DisplayClock) {
		t.Fatalf("at = %v, want %v", got.At, st.DisplayClock)
	}
}

func TestParseDeepLinkMalformedFieldsDegrade(t *testing.T) {
	q := url.Values{}
	q.Set("file_type", "audio")
	q.Set("datetime", "2025-03-09")
	q.Set("unit_id", "abc")

	got := ParseDeepLink(q)
	if got.FileType != "" {
		t.Fatalf("file_type = %q, want empty", got.FileType)
	}
	if !got.At.IsZero() {
		t.Fatalf("at = %v, want zero", got.At)
	}
	if got.UnitID != 0 {
		t.Fatalf("unit_id = %d, want 0", got.UnitID)
	}
	if !got.IsZero() {
		t.Fatal("fully degraded target must be zero")
	}
}
