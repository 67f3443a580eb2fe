package media

import (
	"context"
	"strings"

	"github.com/gowvp/replay/internal/conf"
	"github.com/ixugo/goddd/pkg/orm"
	"gorm.io/gorm"
)

// UnitStorer Instantiation interface
type UnitStorer interface {
	Find(context.Context, *[]*MediaUnit, orm.Pager, ...orm.QueryOption) (int64, error)
	Get(context.Context, *MediaUnit, ...orm.QueryOption) error
	Add(context.Context, *MediaUnit) error
	Edit(context.Context, *MediaUnit, func(*MediaUnit), ...orm.QueryOption) error
	Del(context.Context, *MediaUnit, ...orm.QueryOption) error
	Count(context.Context, ...orm.QueryOption) (int64, error)

	Session(context.Context, ...func(*gorm.DB) error) error
}

// Storer data persistence
type Storer interface {
	Unit() UnitStorer
}

// Core business domain
type Core struct {
	store Storer
	conf  *conf.ServerStorage
}

type Option func(*Core)

// WithConfig 注入存储配置
func WithConfig(conf *conf.ServerStorage) Option {
	return func(c *Core) {
		c.conf = conf
	}
}

// NewCore create business domain
func NewCore(store Storer, opts ...Option) Core {
	c := Core{store: store}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// IsEnabled 是否启用入库
func (c Core) IsEnabled() bool {
	return c.conf != nil && !c.conf.Disabled
}

// GetFullPath 获取媒体文件的完整路径
func (c Core) GetFullPath(relativePath string) string {
	if c.conf == nil || c.conf.StorageDir == "" {
		return relativePath
	}
	if len(relativePath) > 0 && (relativePath[0] == '/' || strings.HasPrefix(relativePath, c.conf.StorageDir)) {
		return relativePath
	}
	return c.conf.StorageDir + "/" + relativePath
}
