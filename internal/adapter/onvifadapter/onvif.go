package onvifadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gowvp/onvif"
	devicemodel "github.com/gowvp/onvif/device"
	m "github.com/gowvp/onvif/media"
	sdkdevice "github.com/gowvp/onvif/sdk/device"
	sdkmedia "github.com/gowvp/onvif/sdk/media"
	xsdonvif "github.com/gowvp/onvif/xsd/onvif"
	"github.com/gowvp/replay/internal/core/device"
	"github.com/ixugo/goddd/pkg/conc"
	"github.com/ixugo/goddd/pkg/orm"
)

// Adapter ONVIF 协议适配器
//
// 设计说明:
// - 适配器直接依赖领域模型 (device.Device, device.Pipeline)
// - 适配器依赖 device.Core 来访问存储和通用功能
// - 这符合清晰架构: 外层（适配器）依赖内层（领域）
type Adapter struct {
	devices conc.Map[string, *Device] // ONVIF 设备连接缓存
	core    device.Core
	client  *http.Client
}

// Device ONVIF 设备包装（内存状态 + ONVIF 连接）
type Device struct {
	*onvif.Device
	KeepaliveAt orm.Time // 最后心跳时间
	IsOnline    bool     // 在线状态（内存缓存）
}

func NewAdapter(core device.Core) *Adapter {
	cli := *http.DefaultClient
	cli.Timeout = time.Millisecond * 3000
	a := Adapter{
		core:   core,
		client: &cli,
	}
	a.init()

	// 启动健康检查
	go a.startHealthCheck(context.Background())

	return &a
}

func (a *Adapter) init() {
	var in device.FindDeviceInput
	in.Page, in.Size = 1, 1000
	devices, _, err := a.core.FindDevices(context.TODO(), &in)
	if err != nil {
		panic(err)
	}
	for _, dev := range devices {
		go func(dev *device.Device) {
			onvifDev, err := onvif.NewDevice(onvif.DeviceParams{
				Xaddr:      dev.Address(),
				Username:   dev.GetUsername(),
				Password:   dev.Password,
				HttpClient: a.client,
			})
			if err != nil {
				_ = a.core.EditDeviceStatus(context.TODO(), dev.ID, false)
				slog.Error("初始化 ONVIF 设备失败", "err", err, "device_id", dev.ID)
			}
			if onvifDev == nil {
				return
			}
			a.devices.Store(dev.ID, &Device{
				Device:   onvifDev,
				IsOnline: err == nil,
			})
		}(dev)
	}
}

// DeleteDevice 移除设备连接缓存
func (a *Adapter) DeleteDevice(_ context.Context, dev *device.Device) error {
	a.devices.Delete(dev.ID)
	return nil
}

// ValidateDevice ONVIF 设备验证，成功时填充扩展信息
func (a *Adapter) ValidateDevice(ctx context.Context, dev *device.Device) error {
	onvifDev, err := onvif.NewDevice(onvif.DeviceParams{
		Xaddr:      dev.Address(),
		Username:   dev.GetUsername(),
		Password:   dev.Password,
		HttpClient: a.client,
	})
	if err != nil {
		return fmt.Errorf("IP 或 PORT 错误: %w", err)
	}

	resp, err := sdkdevice.Call_GetDeviceInformation(ctx, onvifDev, devicemodel.GetDeviceInformation{})
	if err != nil {
		return fmt.Errorf("账号或密码错误: %w", err)
	}
	dev.Transport = "tcp"
	dev.Ext.Firmware = resp.FirmwareVersion
	dev.Ext.Manufacturer = resp.Manufacturer
	dev.Ext.Model = resp.Model
	dev.IsOnline = true
	return nil
}

// InitDevice 初始化 ONVIF 设备，自动查询 Profiles 并创建为管道
func (a *Adapter) InitDevice(ctx context.Context, dev *device.Device) error {
	onvifDev, err := onvif.NewDevice(onvif.DeviceParams{
		Xaddr:      dev.Address(),
		Username:   dev.GetUsername(),
		Password:   dev.Password,
		HttpClient: a.client,
	})
	if err != nil {
		return err
	}

	d := Device{
		Device:   onvifDev,
		IsOnline: true,
	}
	a.devices.Store(dev.ID, &d)

	return a.syncPipelines(ctx, dev, &d)
}

// SyncPipelines 重新查询 Profiles 并补齐缺失的管道
func (a *Adapter) SyncPipelines(ctx context.Context, dev *device.Device) error {
	onvifDev, ok := a.devices.Load(dev.ID)
	if !ok {
		d, err := onvif.NewDevice(onvif.DeviceParams{
			Xaddr:    dev.Address(),
			Username: dev.GetUsername(),
			Password: dev.Password,
		})
		if err != nil {
			return fmt.Errorf("ONVIF 设备未初始化: %w", err)
		}
		onvifDev = &Device{
			Device:   d,
			IsOnline: true,
		}
		a.devices.Store(dev.ID, onvifDev)
	}

	return a.syncPipelines(ctx, dev, onvifDev)
}

// syncPipelines 查询 ONVIF Profiles 并保存为管道，只做增量补齐
func (a *Adapter) syncPipelines(ctx context.Context, dev *device.Device, onvifDev *Device) error {
	resp, err := sdkmedia.Call_GetProfiles(ctx, onvifDev.Device, m.GetProfiles{})
	if err != nil {
		return fmt.Errorf("账号或密码错误: %w", err)
	}
	if len(resp.Profiles) == 0 {
		return fmt.Errorf("没有找到 ONVIF 媒体配置")
	}

	var in device.FindPipelineInput
	in.DeviceID = dev.ID
	in.Page, in.Size = 1, 1000
	existing, _, err := a.core.FindPipelines(ctx, &in)
	if err != nil {
		return err
	}
	known := make(map[string]struct{}, len(existing))
	for _, p := range existing {
		known[p.Stream] = struct{}{}
	}

	var added int
	for _, profile := range resp.Profiles {
		token := string(profile.Token)
		if _, ok := known[token]; ok {
			continue
		}
		if _, err := a.core.AddPipeline(ctx, &device.AddPipelineInput{
			DeviceID: dev.ID,
			Name:     string(profile.Name),
			// ONVIF Profile 同时提供流地址与抓图地址
			Mode:   device.PipelineModeBoth,
			Stream: token,
		}); err != nil {
			return fmt.Errorf("保存 ONVIF 管道失败: %w", err)
		}
		added++
	}

	slog.InfoContext(ctx, "ONVIF Profiles 同步完成",
		"device_id", dev.ID,
		"profile_count", len(resp.Profiles),
		"added", added)

	return nil
}

// StreamURI 获取管道的 RTSP 流地址，直播会话建立时使用
func (a *Adapter) StreamURI(ctx context.Context, deviceID, profileToken string) (string, error) {
	onvifDev, ok := a.devices.Load(deviceID)
	if !ok {
		return "", fmt.Errorf("ONVIF 设备未初始化")
	}

	var param m.GetStreamUri
	param.StreamSetup.Transport.Protocol = "RTSP"
	param.StreamSetup.Stream = "RTP-Unicast"
	param.ProfileToken = xsdonvif.ReferenceToken(profileToken)
	resp, err := sdkmedia.Call_GetStreamUri(ctx, onvifDev.Device, param)
	if err != nil {
		return "", err
	}
	p := onvifDev.Device.GetDeviceParams()
	return buildPlayURL(string(resp.MediaUri.Uri), p.Username, p.Password), nil
}

func buildPlayURL(rawurl, username, password string) string {
	if username != "" && password != "" {
		return strings.Replace(rawurl, "rtsp://", fmt.Sprintf("rtsp://%s:%s@", username, password), 1)
	}
	return rawurl
}

// DiscoverResponse 网段内发现的 ONVIF 设备
type DiscoverResponse struct {
	Xaddr string `json:"xaddr"`
}

// Discover 发现网段内未接入的 ONVIF 设备，结果逐条写入 w
func (a *Adapter) Discover(ctx context.Context, w io.Writer) error {
	recv, err := onvif.AllAvailableDevicesAtSpecificEthernetInterfaces()
	if err != nil {
		return err
	}

	for {
		select {
		case dev, ok := <-recv:
			if !ok {
				return nil
			}
			var exists bool
			a.devices.Range(func(_ string, value *Device) bool {
				if value.GetDeviceParams().Xaddr == dev.GetDeviceParams().Xaddr {
					exists = true
					return false
				}
				return true
			})
			if exists {
				continue
			}
			b, _ := json.Marshal(DiscoverResponse{Xaddr: dev.GetDeviceParams().Xaddr})
			_, _ = w.Write(b)
		case <-ctx.Done():
			return nil
		case <-time.After(3 * time.Second):
			slog.DebugContext(ctx, "discover timeout")
			return nil
		}
	}
}
