package device

import (
	"github.com/ixugo/goddd/pkg/web"
)

type FindDeviceInput struct {
	web.PagerFilter
	Name     string `form:"name"`      // 模糊匹配设备名称
	IsOnline *bool  `form:"is_online"` // 在线状态筛选
}

type AddDeviceInput struct {
	Name     string `json:"name"`
	IP       string `json:"ip" binding:"required"`
	Port     int    `json:"port" binding:"required"`
	Username string `json:"username"`
	Password string `json:"password"`
	Timezone string `json:"timezone"`
}

type EditDeviceInput struct {
	Name     string `json:"name"`
	IP       string `json:"ip"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	Timezone string `json:"timezone"`
}

type FindPipelineInput struct {
	web.PagerFilter
	DeviceID string `form:"device_id"`
}

type AddPipelineInput struct {
	DeviceID string `json:"-"` // 由 API 层填充
	Name     string `json:"name"`
	Mode     string `json:"mode"` // video / image / image_and_video，空按 image_and_video
	App      string `json:"app"`
	Stream   string `json:"stream" binding:"required"`
}
