package device

import (
	"fmt"

	"github.com/ixugo/goddd/pkg/orm"
)

// Device 接入的摄像机设备
type Device struct {
	ID          string    `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"column:name" json:"name"`                 // 设备名称
	IP          string    `gorm:"column:ip" json:"ip"`                     // 设备 IP
	Port        int       `gorm:"column:port" json:"port"`                 // ONVIF 端口
	Username    string    `gorm:"column:username" json:"username"`         // 登录账号
	Password    string    `gorm:"column:password" json:"-"`                // 登录密码
	Transport   string    `gorm:"column:transport" json:"transport"`       // tcp / udp
	Timezone    string    `gorm:"column:timezone" json:"timezone"`         // 展示时区，如 Asia/Shanghai，空则跟随系统
	IsOnline    bool      `gorm:"column:is_online" json:"is_online"`       // 在线状态
	KeepaliveAt orm.Time  `gorm:"column:keepalive_at" json:"keepalive_at"` // 最后心跳时间
	Ext         DeviceExt `gorm:"column:ext;serializer:json" json:"ext"`
	CreatedAt   orm.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt   orm.Time  `gorm:"column:updated_at" json:"updated_at"`
}

func (*Device) TableName() string {
	return "devices"
}

// DeviceExt 设备扩展信息，来自 ONVIF GetDeviceInformation
type DeviceExt struct {
	Firmware     string `json:"firmware"`
	Manufacturer string `json:"manufacturer"`
	Model        string `json:"model"`
}

// Address 设备 ONVIF 服务地址
func (d *Device) Address() string {
	return fmt.Sprintf("%s:%d", d.IP, d.Port)
}

// GetUsername 账号为空时使用默认账号
func (d *Device) GetUsername() string {
	if d.Username == "" {
		return "admin"
	}
	return d.Username
}

// 管道产出的媒体形态
const (
	PipelineModeVideo = "video"           // 仅视频片段
	PipelineModeImage = "image"           // 仅抓拍图片
	PipelineModeBoth  = "image_and_video" // 两者皆产出
)

// Pipeline 设备下的媒体管道
// 一台设备可产出多条管道，如主码流、子码流、抓拍通道
type Pipeline struct {
	ID        string   `gorm:"primaryKey" json:"id"`
	DeviceID  string   `gorm:"column:device_id" json:"device_id"` // 设备 ID (device.ID)
	Name      string   `gorm:"column:name" json:"name"`           // 管道名称
	Mode      string   `gorm:"column:mode" json:"mode"`           // 媒体形态 video / image / image_and_video
	App       string   `gorm:"column:app" json:"app"`             // 流媒体应用名
	Stream    string   `gorm:"column:stream" json:"stream"`       // 流媒体流 ID
	Enabled   bool     `gorm:"column:enabled" json:"enabled"`     // 是否启用
	CreatedAt orm.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt orm.Time `gorm:"column:updated_at" json:"updated_at"`
}

// SupportsKind 管道是否产出指定形态（video / image）
// 历史数据 Mode 可能为空，按两者皆产出处理
func (p *Pipeline) SupportsKind(kind string) bool {
	switch p.Mode {
	case "", PipelineModeBoth:
		return true
	}
	return p.Mode == kind
}

func (*Pipeline) TableName() string {
	return "pipelines"
}
