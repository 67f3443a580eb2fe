package detectordb

import (
	"context"

	"github.com/gowvp/replay/internal/core/detector"
	"github.com/ixugo/goddd/pkg/orm"
	"gorm.io/gorm"
)

var _ detector.AnnotationStorer = Annotation{}

type Annotation struct {
	db *gorm.DB
}

func NewAnnotation(db *gorm.DB) Annotation {
	return Annotation{db: db}
}

func (d Annotation) Find(ctx context.Context, items *[]*detector.Annotation, pager orm.Pager, opts ...orm.QueryOption) (int64, error) {
	db := d.db.WithContext(ctx).Model(&detector.Annotation{})
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

func (d Annotation) Add(ctx context.Context, in *detector.Annotation) error {
	return d.db.WithContext(ctx).Create(in).Error
}

func (d Annotation) Del(ctx context.Context, out *detector.Annotation, opts ...orm.QueryOption) error {
	db := d.db.WithContext(ctx)
	for _, opt := range opts {
		db = opt(db)
	}
	return db.Delete(out).Error
}

func (d Annotation) Session(ctx context.Context, changeFns ...func(*gorm.DB) error) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, fn := range changeFns {
			if err := fn(tx); err != nil {
				return err
			}
		}
		return nil
	})
}
