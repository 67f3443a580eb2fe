package detectordb

import (
	"context"

	"github.com/gowvp/replay/internal/core/detector"
	"github.com/ixugo/goddd/pkg/orm"
	"gorm.io/gorm"
)

var _ detector.DetectorStorer = Detector{}

type Detector struct {
	db *gorm.DB
}

func NewDetector(db *gorm.DB) Detector {
	return Detector{db: db}
}

func (d Detector) Find(ctx context.Context, items *[]*detector.Detector, pager orm.Pager, opts ...orm.QueryOption) (int64, error) {
	db := d.db.WithContext(ctx).Model(&detector.Detector{})
	for _, opt := range opts {
		db = opt(db)
	}
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return 0, err
	}
	if pager != nil {
		db = db.Offset(pager.Offset()).Limit(pager.Limit())
	}
	if err := db.Find(items).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (d Detector) Get(ctx context.Context, out *detector.Detector, opts ...orm.QueryOption) error {
	db := d.db.WithContext(ctx)
	for _, opt := range opts {
		db = opt(db)
	}
	return db.Take(out).Error
}

func (d Detector) Add(ctx context.Context, in *detector.Detector) error {
	return d.db.WithContext(ctx).Create(in).Error
}

func (d Detector) Edit(ctx context.Context, out *detector.Detector, changeFn func(*detector.Detector), opts ...orm.QueryOption) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		db := tx
		for _, opt := range opts {
			db = opt(db)
		}
		if err := db.Take(out).Error; err != nil {
			return err
		}
		changeFn(out)
		return tx.Save(out).Error
	})
}

func (d Detector) Del(ctx context.Context, out *detector.Detector, opts ...orm.QueryOption) error {
	db := d.db.WithContext(ctx)
	for _, opt := range opts {
		db = opt(db)
	}
	return db.Delete(out).Error
}
