package media

import (
	"context"
	"testing"
	"time"

	"github.com/ixugo/goddd/pkg/orm"
	"gorm.io/gorm"
)

type fakeUnitStorer struct {
	units []*MediaUnit
}

func (f *fakeUnitStorer) Find(_ context.Context, items *[]*MediaUnit, _ orm.Pager, _ ...orm.QueryOption) (int64, error) {
	*items = append(*items, f.units...)
	return int64(len(f.units)), nil
}

func (f *fakeUnitStorer) Get(context.Context, *MediaUnit, ...orm.QueryOption) error { return nil }
func (f *fakeUnitStorer) Add(_ context.Context, u *MediaUnit) error {
	f.units = append(f.units, u)
	return nil
}

func (f *fakeUnitStorer) Edit(context.Context, *MediaUnit, func(*MediaUnit), ...orm.QueryOption) error {
	return nil
}
func (f *fakeUnitStorer) Del(context.Context, *MediaUnit, ...orm.QueryOption) error { return nil }
func (f *fakeUnitStorer) Count(context.Context, ...orm.QueryOption) (int64, error) {
	return 0, nil
}
func (f *fakeUnitStorer) Session(context.Context, ...func(*gorm.DB) error) error { return nil }

type fakeStore struct{ unit *fakeUnitStorer }

func (f fakeStore) Unit() UnitStorer { return f.unit }

func TestHourSummary(t *testing.T) {
	start := time.Date(2025, 3, 9, 10, 0, 0, 0, time.UTC)
	units := []*MediaUnit{
		videoUnit(1, start.Add(2*time.Minute), start.Add(7*time.Minute)),
		videoUnit(2, start.Add(7*time.Minute), start.Add(12*time.Minute)),
		imageUnit(3, start.Add(7*time.Minute+30*time.Second)),
		// 跨小时的视频归入 0 分钟
		videoUnit(4, start.Add(-3*time.Minute), start.Add(time.Minute)),
	}
	c := NewCore(fakeStore{unit: &fakeUnitStorer{units: units}})

	buckets, err := c.HourSummary(context.Background(), &HourSummaryInput{
		PipelineID: "p1",
		Start:      start,
		End:        start.Add(time.Hour),
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(buckets) != 3 {
		t.Fatalf("want 3 buckets, got %+v", buckets)
	}
	if buckets[0].Minute != 0 || buckets[0].VideoCount != 1 {
		t.Fatalf("bucket 0: %+v", buckets[0])
	}
	if buckets[1].Minute != 2 || buckets[1].VideoCount != 1 {
		t.Fatalf("bucket 2: %+v", buckets[1])
	}
	if buckets[2].Minute != 7 || buckets[2].VideoCount != 1 || buckets[2].ImageCount != 1 {
		t.Fatalf("bucket 7: %+v", buckets[2])
	}
}

func TestAddUnitValidation(t *testing.T) {
	c := NewCore(fakeStore{unit: &fakeUnitStorer{}})

	if _, err := c.AddUnit(context.Background(), &AddMediaUnitInput{Kind: "audio"}); err == nil {
		t.Fatal("unknown kind should fail")
	}
	if _, err := c.AddUnit(context.Background(), &AddMediaUnitInput{Kind: KindVideo}); err == nil {
		t.Fatal("video without ended_at should fail")
	}

	at := orm.Now()
	out, err := c.AddUnit(context.Background(), &AddMediaUnitInput{
		Kind:      KindImage,
		StartedAt: at,
		Path:      "p1/20250309/img.jpg",
	})
	if err != nil {
		t.Fatal(err)
	}
	if out.Kind != KindImage {
		t.Fatalf("got %+v", out)
	}
}
