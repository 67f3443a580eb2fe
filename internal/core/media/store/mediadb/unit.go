package mediadb

import (
	"context"

	"github.com/gowvp/replay/internal/core/media"
	"github.com/ixugo/goddd/pkg/orm"
	"gorm.io/gorm"
)

var _ media.UnitStorer = Unit{}

type Unit struct {
	db *gorm.DB
}

func NewUnit(db *gorm.DB) Unit {
	return Unit{db: db}
}

func (d Unit) Find(ctx context.Context, items *[]*media.MediaUnit, pager orm.Pager, opts ...orm.QueryOption) (int64, error) {
	db := d.db.WithContext(ctx).Model(&media.MediaUnit{})
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

func (d Unit) Get(ctx context.Context, out *media.MediaUnit, opts ...orm.QueryOption) error {
	db := d.db.WithContext(ctx)
	for _, opt := range opts {
		db = opt(db)
	}
	return db.Take(out).Error
}

func (d Unit) Add(ctx context.Context, in *media.MediaUnit) error {
	return d.db.WithContext(ctx).Create(in).Error
}

func (d Unit) Edit(ctx context.Context, out *media.MediaUnit, changeFn func(*media.MediaUnit), opts ...orm.QueryOption) error {
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

func (d Unit) Del(ctx context.Context, out *media.MediaUnit, opts ...orm.QueryOption) error {
	db := d.db.WithContext(ctx)
	for _, opt := range opts {
		db = opt(db)
	}
	return db.Delete(out).Error
}

func (d Unit) Count(ctx context.Context, opts ...orm.QueryOption) (int64, error) {
	db := d.db.WithContext(ctx).Model(&media.MediaUnit{})
	for _, opt := range opts {
		db = opt(db)
	}
	var total int64
	err := db.Count(&total).Error
	return total, err
}

func (d Unit) Session(ctx context.Context, changeFns ...func(*gorm.DB) error) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, fn := range changeFns {
			if err := fn(tx); err != nil {
				return err
			}
		}
		return nil
	})
}
