package msapi

const (
	CodeSuccess      = 0
	CodeInvalidParam = -1
	CodeAuthFailed   = -2

	CodeStreamNotFound  = -300
	CodeSessionNotFound = -301
	CodeProxyFailed     = -302
)

var codeMsgMap = map[int]string{
	CodeSuccess:         "success",
	CodeInvalidParam:    "请求参数错误",
	CodeAuthFailed:      "鉴权失败",
	CodeStreamNotFound:  "流不存在",
	CodeSessionNotFound: "会话不存在或已过期",
	CodeProxyFailed:     "拉流代理失败",
}
