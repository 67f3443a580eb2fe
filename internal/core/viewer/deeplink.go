package viewer

import (
	"log/slog"
	"net/url"
	"strconv"

	"github.com/gowvp/replay/internal/core/clock"
	"github.com/gowvp/replay/internal/core/detector"
)

// ParseDeepLink 解析深链查询参数
// pipeline_id / file_type / datetime / detector_id / unit_id 五项独立可缺省，
// 非法值按缺省处理而不报错，深链降级永远优于打断用户。
func ParseDeepLink(query url.Values) DeepLinkTarget {
	var t DeepLinkTarget

	t.PipelineID = query.Get("pipeline_id")
	t.DetectorID = query.Get("detector_id")

	switch ft := query.Get("file_type"); ft {
	case string(ModeVideo), string(ModeImage):
		t.FileType = ft
	case "":
	default:
		slog.Debug("deep link unknown file_type", "file_type", ft)
	}

	if token := query.Get("datetime"); token != "" {
		at, err := clock.DecodeToken(token)
		if err != nil {
			slog.Debug("deep link bad datetime", "token", token, "err", err)
		} else {
			t.At = at
		}
	}

	if raw := query.Get("unit_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			slog.Debug("deep link bad unit_id", "unit_id", raw)
		} else {
			t.UnitID = id
		}
	}

	return t
}

// FormatDeepLink 由当前状态生成可分享的深链查询串
// 与 ParseDeepLink 互逆：持链打开会话得到相同的定位
func FormatDeepLink(st *PlaybackState) string {
	q := make(url.Values, 6)
	q.Set("device_id", st.DeviceID)
	if st.PipelineID != "" {
		q.Set("pipeline_id", st.PipelineID)
	}
	if st.Mode == ModeVideo || st.Mode == ModeImage {
		q.Set("file_type", string(st.Mode))
		if !st.DisplayClock.IsZero() {
			q.Set("datetime", clock.EncodeToken(st.DisplayClock))
		}
		if st.Current != nil {
			q.Set("unit_id", strconv.FormatInt(st.Current.ID, 10))
		}
	}
	if st.DetectorID != "" && st.DetectorID != detector.NameNone {
		q.Set("detector_id", st.DetectorID)
	}
	return q.Encode()
}
