package media

import (
	"testing"
	"time"

	"github.com/ixugo/goddd/pkg/orm"
)

func videoUnit(id int64, start, end time.Time) *MediaUnit {
	e := orm.Time{Time: end}
	return &MediaUnit{
		ID:        id,
		Kind:      KindVideo,
		StartedAt: orm.Time{Time: start},
		EndedAt:   &e,
	}
}

func imageUnit(id int64, at time.Time) *MediaUnit {
	return &MediaUnit{
		ID:        id,
		Kind:      KindImage,
		StartedAt: orm.Time{Time: at},
	}
}

var base = time.Date(2025, 3, 9, 10, 0, 0, 0, time.UTC)

func TestResolveUnitIDWinsOverInterval(t *testing.T) {
	a := videoUnit(1, base, base.Add(5*time.Minute))
	b := videoUnit(2, base.Add(5*time.Minute), base.Add(10*time.Minute))
	// 目标时刻 10:02 在 A 区间内，但指定了 B 的 ID
	got := Resolve(ResolveTarget{
		UnitID: 2,
		At:     base.Add(2 * time.Minute),
		Kind:   KindVideo,
	}, []*MediaUnit{a, b})
	if got == nil || got.ID != 2 {
		t.Fatalf("want unit 2, got %+v", got)
	}
}

func TestResolveVideoInterval(t *testing.T) {
	a := videoUnit(1, base, base.Add(5*time.Minute))
	b := videoUnit(2, base.Add(5*time.Minute), base.Add(10*time.Minute))
	units := []*MediaUnit{a, b}

	got := Resolve(ResolveTarget{At: base.Add(2 * time.Minute), Kind: KindVideo}, units)
	if got == nil || got.ID != 1 {
		t.Fatalf("want unit 1, got %+v", got)
	}
	// 区间为闭区间，端点命中
	got = Resolve(ResolveTarget{At: base.Add(10 * time.Minute), Kind: KindVideo}, units)
	if got == nil || got.ID != 2 {
		t.Fatalf("want unit 2 at inclusive end, got %+v", got)
	}
}

func TestResolveImageToleranceBoundary(t *testing.T) {
	u := imageUnit(1, base)
	far := imageUnit(2, base.Add(30*time.Minute))
	units := []*MediaUnit{u, far}

	// 59.9s 命中
	got := Resolve(ResolveTarget{
		At:   base.Add(59*time.Second + 900*time.Millisecond),
		Kind: KindImage,
	}, units)
	if got == nil || got.ID != 1 {
		t.Fatalf("59.9s should match, got %+v", got)
	}

	// 恰好 60.0s 未命中，落入兜底取最早单元而非最近图片
	early := imageUnit(3, base.Add(-2*time.Hour))
	got = Resolve(ResolveTarget{At: base.Add(60 * time.Second), Kind: KindImage},
		[]*MediaUnit{u, far, early})
	if got == nil || got.ID != 3 {
		t.Fatalf("60.0s should fall back to earliest unit 3, got %+v", got)
	}
}

func TestResolveImageNearest(t *testing.T) {
	a := imageUnit(1, base)
	b := imageUnit(2, base.Add(40*time.Second))
	got := Resolve(ResolveTarget{At: base.Add(30 * time.Second), Kind: KindImage}, []*MediaUnit{a, b})
	if got == nil || got.ID != 2 {
		t.Fatalf("want nearest unit 2, got %+v", got)
	}
}

func TestResolveEmptyWindow(t *testing.T) {
	if got := Resolve(ResolveTarget{At: base, Kind: KindVideo}, nil); got != nil {
		t.Fatalf("empty window must return nil, got %+v", got)
	}
}

func TestResolveFallbackEarliest(t *testing.T) {
	a := videoUnit(1, base.Add(20*time.Minute), base.Add(25*time.Minute))
	b := videoUnit(2, base.Add(5*time.Minute), base.Add(10*time.Minute))
	// 目标时刻不在任何区间内，兜底取开始时间最早者
	got := Resolve(ResolveTarget{At: base, Kind: KindVideo}, []*MediaUnit{a, b})
	if got == nil || got.ID != 2 {
		t.Fatalf("want earliest unit 2, got %+v", got)
	}
}

func TestSuccessor(t *testing.T) {
	a := videoUnit(1, base, base.Add(5*time.Minute))
	b := videoUnit(2, base.Add(5*time.Minute), base.Add(10*time.Minute))
	c := videoUnit(3, base.Add(10*time.Minute), base.Add(15*time.Minute))
	units := []*MediaUnit{c, a, b}

	if got := Successor(a, units); got == nil || got.ID != 2 {
		t.Fatalf("want successor 2, got %+v", got)
	}
	if got := Successor(b, units); got == nil || got.ID != 3 {
		t.Fatalf("want successor 3, got %+v", got)
	}
	// 窗口尽头不虚构后继
	if got := Successor(c, units); got != nil {
		t.Fatalf("last unit must have no successor, got %+v", got)
	}
}
