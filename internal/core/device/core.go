package device

import (
	"context"

	"github.com/ixugo/goddd/pkg/orm"
	"gorm.io/gorm"
)

// DeviceStorer Instantiation interface
type DeviceStorer interface {
	Find(context.Context, *[]*Device, orm.Pager, ...orm.QueryOption) (int64, error)
	Get(context.Context, *Device, ...orm.QueryOption) error
	Add(context.Context, *Device) error
	Edit(context.Context, *Device, func(*Device), ...orm.QueryOption) error
	Del(context.Context, *Device, ...orm.QueryOption) error

	Session(context.Context, ...func(*gorm.DB) error) error
}

// PipelineStorer Instantiation interface
type PipelineStorer interface {
	Find(context.Context, *[]*Pipeline, orm.Pager, ...orm.QueryOption) (int64, error)
	Get(context.Context, *Pipeline, ...orm.QueryOption) error
	Add(context.Context, *Pipeline) error
	Edit(context.Context, *Pipeline, func(*Pipeline), ...orm.QueryOption) error
	Del(context.Context, *Pipeline, ...orm.QueryOption) error
}

// Storer data persistence
type Storer interface {
	Device() DeviceStorer
	Pipeline() PipelineStorer
}

// Core business domain
type Core struct {
	store Storer
}

// NewCore create business domain
func NewCore(store Storer) Core {
	return Core{store: store}
}
