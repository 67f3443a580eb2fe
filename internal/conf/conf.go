package conf

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Bootstrap 全局配置
type Bootstrap struct {
	BuildVersion string `toml:"-"` // 构建版本号，编译时注入
	ConfigPath   string `toml:"-"` // 配置文件路径
	Debug        bool   `toml:"debug"`

	Server Server `toml:"server"`
	Data   Data   `toml:"data"`
	Media  Media  `toml:"media"`
	Viewer Viewer `toml:"viewer"`
}

type Server struct {
	Username string        `toml:"username"` // 管理端登录用户名
	Password string        `toml:"password"` // 管理端登录密码
	HTTP     HTTP          `toml:"http"`
	Storage  ServerStorage `toml:"storage"`
}

type HTTP struct {
	Port      int    `toml:"port"`       // HTTP 监听端口
	JwtSecret string `toml:"jwt_secret"` // JWT 密钥，为空则启动时随机生成
	PProf     PProf  `toml:"pprof"`
}

type PProf struct {
	Enabled   bool     `toml:"enabled"`
	AccessIps []string `toml:"access_ips"` // 允许访问 pprof 的 IP 列表
}

// ServerStorage 媒体单元存储配置
type ServerStorage struct {
	Disabled           bool    `toml:"disabled"`             // 是否禁用入库
	StorageDir         string  `toml:"storage_dir"`          // 媒体文件存储目录
	SegmentSeconds     int     `toml:"segment_seconds"`      // 视频切片时长（秒）
	RetainDays         int     `toml:"retain_days"`          // 保留天数，<=0 表示不清理
	DiskUsageThreshold float64 `toml:"disk_usage_threshold"` // 磁盘使用率阈值（百分比）
}

type Data struct {
	Database Database `toml:"database"`
}

type Database struct {
	Dsn             string   `toml:"dsn"` // 以 postgres/mysql 开头，否则按 sqlite 文件路径处理
	MaxIdleConns    int      `toml:"max_idle_conns"`
	MaxOpenConns    int      `toml:"max_open_conns"`
	ConnMaxLifetime Duration `toml:"conn_max_lifetime"`
	SlowThreshold   Duration `toml:"slow_threshold"`
}

// Media 流媒体服务配置
type Media struct {
	IP         string   `toml:"ip"`          // 流媒体服务 IP
	HTTPPort   int      `toml:"http_port"`   // 流媒体服务 HTTP 端口
	Secret     string   `toml:"secret"`      // API 密钥，同时用于签发直播会话
	WebHookIP  string   `toml:"webhook_ip"`  // 回调地址使用的本机 IP
	SessionTTL Duration `toml:"session_ttl"` // 直播会话有效期
}

// Viewer 回看引擎策略配置
type Viewer struct {
	// 图片按时间匹配的容差（秒），距离达到该值视为未命中
	// 经验值，按策略可调，默认 60
	ImageMatchToleranceS int `toml:"image_match_tolerance_s"`
	// 会话空闲超时（秒），超时后回收会话，默认 1800
	SessionIdleTimeoutS int `toml:"session_idle_timeout_s"`
	// 检测分析服务 gRPC 地址，为空则不探测
	DetectorRPCAddr string `toml:"detector_rpc_addr"`
}

// Duration 支持 "30s" / "5m" 字符串的时长配置
type Duration string

func (d Duration) Duration() time.Duration {
	if d == "" {
		return 0
	}
	v, err := time.ParseDuration(string(d))
	if err != nil {
		return 0
	}
	return v
}

// Load 从 toml 文件加载配置，文件不存在时使用默认值
func Load(path string) (*Bootstrap, error) {
	var bc Bootstrap
	data, err := os.ReadFile(path)
	if err == nil {
		if err := toml.Unmarshal(data, &bc); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}
	bc.ConfigPath = path
	bc.setDefaults()
	return &bc, nil
}

// WriteConfig 配置落盘，凭据修改后调用
func WriteConfig(bc *Bootstrap, path string) error {
	data, err := toml.Marshal(bc)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func (bc *Bootstrap) setDefaults() {
	if bc.Server.HTTP.Port <= 0 {
		bc.Server.HTTP.Port = 15123
	}
	if bc.Server.Storage.StorageDir == "" {
		bc.Server.Storage.StorageDir = "./footage"
	}
	if bc.Server.Storage.SegmentSeconds <= 0 {
		bc.Server.Storage.SegmentSeconds = 300
	}
	if bc.Data.Database.Dsn == "" {
		bc.Data.Database.Dsn = "replay.db"
	}
	if bc.Data.Database.MaxIdleConns <= 0 {
		bc.Data.Database.MaxIdleConns = 10
	}
	if bc.Data.Database.MaxOpenConns <= 0 {
		bc.Data.Database.MaxOpenConns = 50
	}
	if bc.Media.HTTPPort <= 0 {
		bc.Media.HTTPPort = 8080
	}
	if bc.Media.SessionTTL.Duration() <= 0 {
		bc.Media.SessionTTL = "3m"
	}
	if bc.Viewer.ImageMatchToleranceS <= 0 {
		bc.Viewer.ImageMatchToleranceS = 60
	}
	if bc.Viewer.SessionIdleTimeoutS <= 0 {
		bc.Viewer.SessionIdleTimeoutS = 1800
	}
}
