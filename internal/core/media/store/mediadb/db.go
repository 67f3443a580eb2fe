package mediadb

import (
	"log/slog"

	"github.com/gowvp/replay/internal/core/media"
	"gorm.io/gorm"
)

var _ media.Storer = DB{}

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
	if err := d.db.AutoMigrate(new(media.MediaUnit)); err != nil {
		slog.Error("AutoMigrate", "err", err)
	}
	return d
}

func (d DB) Unit() media.UnitStorer {
	return NewUnit(d.db)
}
