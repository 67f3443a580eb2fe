package data

import (
	"path/filepath"
	"strings"

	"github.com/glebarez/sqlite"
	"github.com/google/wire"
	"github.com/gowvp/replay/internal/conf"
	"github.com/ixugo/goddd/pkg/orm"
	"github.com/ixugo/goddd/pkg/system"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// ProviderSet is data providers.
var ProviderSet = wire.NewSet(SetupDB)

// SetupDB 按 DSN 选择方言并初始化连接池
func SetupDB(c *conf.Bootstrap) (*gorm.DB, error) {
	cfg := c.Data.Database
	dial, isSQLite := dialectorFor(cfg.Dsn)

	pool := orm.Config{
		MaxIdleConns:    cfg.MaxIdleConns,
		MaxOpenConns:    cfg.MaxOpenConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime.Duration(),
		SlowThreshold:   cfg.SlowThreshold.Duration(),
	}
	if isSQLite {
		// sqlite 单写库，连接池收敛到 1 避免 SQLITE_BUSY
		pool.MaxIdleConns, pool.MaxOpenConns = 1, 1
	}
	return orm.New(dial, pool)
}

// dialectorFor DSN 方言识别
// postgres(ql):// 走 pgx；mysql:// 前缀或 @tcp( 形态走 mysql；
// 其余按相对工作目录的 sqlite 文件路径处理
func dialectorFor(dsn string) (gorm.Dialector, bool) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return postgres.New(postgres.Config{DriverName: "pgx", DSN: dsn}), false
	case strings.HasPrefix(dsn, "mysql://"):
		return mysql.Open(strings.TrimPrefix(dsn, "mysql://")), false
	case strings.Contains(dsn, "@tcp("):
		return mysql.Open(dsn), false
	default:
		if !filepath.IsAbs(dsn) {
			dsn = filepath.Join(system.Getwd(), dsn)
		}
		// 切片与抓图回调写多读少，busy_timeout 给并发入库留余量
		return sqlite.Open(dsn + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"), true
	}
}
