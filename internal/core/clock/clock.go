// Package clock 展示时间与存储时间的换算
//
// 存储统一使用 UTC，展示时按会话时区换算；
// 查询前缀与时刻令牌均以 UTC 编码，避免夏令时偏移造成的错位。
package clock

import (
	"fmt"
	"time"
)

const tokenLayout = "200601021504" // YYYYMMDDHHmm，12 位 UTC

// ToDisplay 将 UTC 时间换算为展示时区时间
func ToDisplay(utc time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return utc.In(loc)
}

// ToUTC 将展示时区下的本地时间换算为 UTC
func ToUTC(local time.Time) time.Time {
	return local.UTC()
}

// QueryPrefix 由展示时区下的年月日时（分）生成 UTC 查询前缀
// minute < 0 时生成小时级前缀 YYYYMMDDHH，否则生成分钟级前缀 YYYYMMDDHHmm
//
// 注意换算必须在构造完整时刻之后进行，小时值在跨时区时日期可能同时变化。
func QueryPrefix(year int, month time.Month, day, hour, minute int, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	m := minute
	if m < 0 {
		m = 0
	}
	t := time.Date(year, month, day, hour, m, 0, 0, loc).UTC()
	if minute < 0 {
		return t.Format("2006010215")
	}
	return t.Format(tokenLayout)
}

// HourStart 求 UTC 时刻所处展示小时的起点，返回 UTC
// 截断必须在展示时区进行，夏令时切换日的小时边界与 UTC 并不对齐。
func HourStart(utc time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	d := utc.In(loc)
	return time.Date(d.Year(), d.Month(), d.Day(), d.Hour(), 0, 0, 0, loc).UTC()
}

// EncodeToken 将 UTC 时刻编码为 12 位时刻令牌，精确到分钟
func EncodeToken(utc time.Time) string {
	return utc.UTC().Format(tokenLayout)
}

// DecodeToken 解析深链中的时刻令牌
// 令牌必须是 12 位数字，且各字段构成真实存在的时刻，
// 非法令牌返回 *TokenError，调用方据此降级而非中断。
func DecodeToken(token string) (time.Time, error) {
	if len(token) != len(tokenLayout) {
		return time.Time{}, &TokenError{Token: token, Reason: "length must be 12"}
	}
	for _, c := range token {
		if c < '0' || c > '9' {
			return time.Time{}, &TokenError{Token: token, Reason: "non-digit character"}
		}
	}
	t, err := time.ParseInLocation(tokenLayout, token, time.UTC)
	if err != nil {
		return time.Time{}, &TokenError{Token: token, Reason: "no such instant"}
	}
	// ParseInLocation 会把 20250230 归一化为 3 月，此处要求严格回读一致
	if t.Format(tokenLayout) != token {
		return time.Time{}, &TokenError{Token: token, Reason: "no such instant"}
	}
	return t, nil
}

// TokenError 时刻令牌解析错误
type TokenError struct {
	Token  string
	Reason string
}

func (e *TokenError) Error() string {
	return fmt.Sprintf("bad time token %q: %s", e.Token, e.Reason)
}
