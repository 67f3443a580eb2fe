package devicedb

import (
	"log/slog"

	"github.com/gowvp/replay/internal/core/device"
	"gorm.io/gorm"
)

var _ device.Storer = DB{}

type DB struct {
	db *gorm.DB
}

func NewDB(db *gorm.DB) DB {
	return DB{db: db}
}

// AutoMigrate 按需建表
func (d DB) AutoMigrate(ok bool) DB {
	if !ok {
		return d
	}
	if err := d.db.AutoMigrate(new(device.Device), new(device.Pipeline)); err != nil {
		slog.Error("AutoMigrate", "err", err)
	}
	return d
}

func (d DB) Device() device.DeviceStorer {
	return NewDevice(d.db)
}

func (d DB) Pipeline() device.PipelineStorer {
	return NewPipeline(d.db)
}
