package detectordb

import (
	"log/slog"

	"github.com/gowvp/replay/internal/core/detector"
	"gorm.io/gorm"
)

var _ detector.Storer = DB{}

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
	if err := d.db.AutoMigrate(new(detector.Detector), new(detector.Annotation)); err != nil {
		slog.Error("AutoMigrate", "err", err)
	}
	return d
}

func (d DB) Detector() detector.DetectorStorer {
	return NewDetector(d.db)
}

func (d DB) Annotation() detector.AnnotationStorer {
	return NewAnnotation(d.db)
}
