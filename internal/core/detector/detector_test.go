package detector

import "testing"

func TestPrefer(t *testing.T) {
	bedrock := &Detector{ID: "d2", Name: NameBedrock}
	motion := &Detector{ID: "d1", Name: "motion"}
	person := &Detector{ID: "d3", Name: "person"}

	if got := Prefer(nil, ""); got != nil {
		t.Fatalf("empty list should yield nil, got %+v", got)
	}

	// 深链指定的 ID 优先于 bedrock
	if got := Prefer([]*Detector{motion, bedrock, person}, "d3"); got != person {
		t.Fatalf("want deep link detector d3, got %+v", got)
	}

	// 深链 ID 不存在时回落到 bedrock
	if got := Prefer([]*Detector{motion, bedrock, person}, "missing"); got != bedrock {
		t.Fatalf("want bedrock, got %+v", got)
	}
	if got := Prefer([]*Detector{motion, bedrock, person}, ""); got != bedrock {
		t.Fatalf("want bedrock, got %+v", got)
	}

	// 没有 bedrock 时取第一个
	if got := Prefer([]*Detector{motion, person}, ""); got != motion {
		t.Fatalf("want first detector, got %+v", got)
	}
}
