package clock

import (
	"errors"
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	at := time.Date(2025, 3, 9, 6, 30, 0, 0, time.UTC)
	token := EncodeToken(at)
	if token != "202503090630" {
		t.Fatalf("got %s", token)
	}
	got, err := DecodeToken(token)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(at) {
		t.Fatalf("want %v got %v", at, got)
	}
}

func TestDecodeTokenBad(t *testing.T) {
	cases := []string{
		"",
		"2025",
		"20250309063",   // 11 位
		"2025030906300", // 13 位
		"20250309063a",
		"202502300000", // 2 月 30 日
		"202503092460", // 非法时分
	}
	for _, c := range cases {
		_, err := DecodeToken(c)
		if err == nil {
			t.Fatalf("token %q should fail", c)
		}
		var te *TokenError
		if !errors.As(err, &te) {
			t.Fatalf("token %q: want *TokenError, got %T", c, err)
		}
	}
}

func TestQueryPrefixCrossesDate(t *testing.T) {
	sh, err := time.LoadLocation("Asia/Shanghai")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	// 上海 3 月 10 日 02 时 = UTC 3 月 9 日 18 时
	got := QueryPrefix(2025, 3, 10, 2, -1, sh)
	if got != "2025030918" {
		t.Fatalf("got %s", got)
	}
	got = QueryPrefix(2025, 3, 10, 2, 15, sh)
	if got != "202503091815" {
		t.Fatalf("got %s", got)
	}
}

func TestQueryPrefixDST(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	// 夏令时切换当天，前缀按壁钟时刻换算为 UTC
	before := QueryPrefix(2025, 3, 9, 1, -1, ny) // EST -5
	after := QueryPrefix(2025, 3, 9, 3, -1, ny)  // EDT -4
	if before != "2025030906" {
		t.Fatalf("before got %s", before)
	}
	if after != "2025030907" {
		t.Fatalf("after got %s", after)
	}
}

func TestToDisplay(t *testing.T) {
	sh, err := time.LoadLocation("Asia/Shanghai")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	utc := time.Date(2025, 3, 9, 18, 0, 0, 0, time.UTC)
	d := ToDisplay(utc, sh)
	if d.Day() != 10 || d.Hour() != 2 {
		t.Fatalf("got %v", d)
	}
	if !ToUTC(d).Equal(utc) {
		t.Fatalf("round trip mismatch")
	}
}

func TestToDisplayDST(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	// 夏令时切换当天（2025-03-09）前后各取一个 UTC 时刻，
	// 同一 UTC 钟点在切换后壁钟快一小时
	before := ToDisplay(time.Date(2025, 3, 9, 6, 0, 0, 0, time.UTC), ny)
	after := ToDisplay(time.Date(2025, 3, 10, 6, 0, 0, 0, time.UTC), ny)
	if before.Hour() != 1 || before.Day() != 9 {
		t.Fatalf("before DST got %v", before)
	}
	if after.Hour() != 2 || after.Day() != 10 {
		t.Fatalf("after DST got %v", after)
	}
	// 无论夏令时如何，回到 UTC 必须还原
	if !ToUTC(after).Equal(time.Date(2025, 3, 10, 6, 0, 0, 0, time.UTC)) {
		t.Fatal("round trip mismatch")
	}
}

func TestNotifier(t *testing.T) {
	n := NewNotifier(time.UTC)
	var got *time.Location
	cancel := n.Subscribe(func(loc *time.Location) { got = loc })

	sh, err := time.LoadLocation("Asia/Shanghai")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	n.Change(sh)
	if got == nil || got.String() != "Asia/Shanghai" {
		t.Fatalf("subscriber not notified, got %v", got)
	}
	if n.Location().String() != "Asia/Shanghai" {
		t.Fatalf("location not updated")
	}

	cancel()
	got = nil
	n.Change(time.UTC)
	if got != nil {
		t.Fatalf("cancelled subscriber still notified")
	}
}
