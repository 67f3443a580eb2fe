package devicedb

import (
	"context"

	"github.com/gowvp/replay/internal/core/device"
	"github.com/ixugo/goddd/pkg/orm"
	"gorm.io/gorm"
)

var _ device.PipelineStorer = Pipeline{}

type Pipeline struct {
	db *gorm.DB
}

func NewPipeline(db *gorm.DB) Pipeline {
	return Pipeline{db: db}
}

func (d Pipeline) Find(ctx context.Context, items *[]*device.Pipeline, pager orm.Pager, opts ...orm.QueryOption) (int64, error) {
	db := d.db.WithContext(ctx).Model(&device.Pipeline{})
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

func (d Pipeline) Get(ctx context.Context, out *device.Pipeline, opts ...orm.QueryOption) error {
	db := d.db.WithContext(ctx)
	for _, opt := range opts {
		db = opt(db)
	}
	return db.Take(out).Error
}

func (d Pipeline) Add(ctx context.Context, in *device.Pipeline) error {
	return d.db.WithContext(ctx).Create(in).Error
}

func (d Pipeline) Edit(ctx context.Context, out *device.Pipeline, changeFn func(*device.Pipeline), opts ...orm.QueryOption) error {
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

func (d Pipeline) Del(ctx context.Context, out *device.Pipeline, opts ...orm.QueryOption) error {
	db := d.db.WithContext(ctx)
	for _, opt := range opts {
		db = opt(db)
	}
	return db.Delete(out).Error
}
