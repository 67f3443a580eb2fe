package media

import (
	"time"
)

// DefaultImageTolerance 图片按时刻匹配的默认容差
// 经验值，可经配置调整
const DefaultImageTolerance = 60 * time.Second

// ResolveTarget 定位目标
// UnitID 来自深链，优先级最高；At 为目标时刻（UTC）
type ResolveTarget struct {
	UnitID    int64         // 指定单元 ID，0 表示未指定
	At        time.Time     // 目标时刻（UTC）
	Kind      string        // video / image
	Tolerance time.Duration // 图片匹配容差，<=0 使用默认值
}

// Resolve 在窗口内选出最能代表目标的单元
//
// 匹配次序：
//  1. 命中指定单元 ID
//  2. 视频：目标时刻落入 [started_at, ended_at] 闭区间
//  3. 图片：与目标时刻距离最近且严格小于容差
//  4. 兜底：按开始时间升序取第一个，宁可显示近似内容也不留白屏
//  5. 窗口为空返回 nil，调用方展示无媒体状态
func Resolve(target ResolveTarget, units []*MediaUnit) *MediaUnit {
	if len(units) == 0 {
		return nil
	}

	// 标识命中优先于时间邻近，标识来源（如检索结果回跳）是权威的
	if target.UnitID > 0 {
		for _, u := range units {
			if u.ID == target.UnitID {
				return u
			}
		}
	}

	switch target.Kind {
	case KindVideo:
		for _, u := range units {
			if u.Contains(target.At) {
				return u
			}
		}
	case KindImage:
		tolerance := target.Tolerance
		if tolerance <= 0 {
			tolerance = DefaultImageTolerance
		}
		var best *MediaUnit
		var bestDist time.Duration
		for _, u := range units {
			if u.Kind != KindImage {
				continue
			}
			dist := target.At.Sub(u.At())
			if dist < 0 {
				dist = -dist
			}
			if dist >= tolerance {
				// 距离达到容差视为未命中，恰好等于容差也不命中
				continue
			}
			if best == nil || dist < bestDist {
				best, bestDist = u, dist
			}
		}
		if best != nil {
			return best
		}
	}

	return earliest(units)
}

// earliest 按开始时间升序取第一个单元
func earliest(units []*MediaUnit) *MediaUnit {
	if len(units) == 0 {
		return nil
	}
	first := units[0]
	for _, u := range units[1:] {
		if u.At().Before(first.At()) {
			first = u
		}
	}
	return first
}

// Successor 在窗口内查找当前单元按开始时间升序的直接后继
// 用于视频播完自动衔接，窗口尽头返回 nil，不跨小时猜测
func Successor(current *MediaUnit, units []*MediaUnit) *MediaUnit {
	if current == nil {
		return nil
	}
	var next *MediaUnit
	for _, u := range units {
		if u.ID == current.ID || u.Kind != KindVideo {
			continue
		}
		if u.At().Before(current.At()) {
			continue
		}
		// 开始时间相同的以 ID 定序，保证推进方向稳定
		if u.At().Equal(current.At()) && u.ID <= current.ID {
			continue
		}
		if next == nil || u.At().Before(next.At()) ||
			(u.At().Equal(next.At()) && u.ID < next.ID) {
			next = u
		}
	}
	return next
}
