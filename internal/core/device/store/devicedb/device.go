package devicedb

import (
	"context"

	"github.com/gowvp/replay/internal/core/device"
	"github.com/ixugo/goddd/pkg/orm"
	"gorm.io/gorm"
)

var _ device.DeviceStorer = Device{}

type Device struct {
	db *gorm.DB
}

func NewDevice(db *gorm.DB) Device {
	return Device{db: db}
}

func (d Device) Find(ctx context.Context, items *[]*device.Device, pager orm.Pager, opts ...orm.QueryOption) (int64, error) {
	db := d.db.WithContext(ctx).Model(&device.Device{})
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

func (d Device) Get(ctx context.Context, out *device.Device, opts ...orm.QueryOption) error {
	db := d.db.WithContext(ctx)
	for _, opt := range opts {
		db = opt(db)
	}
	return db.Take(out).Error
}

func (d Device) Add(ctx context.Context, in *device.Device) error {
	return d.db.WithContext(ctx).Create(in).Error
}

func (d Device) Edit(ctx context.Context, out *device.Device, changeFn func(*device.Device), opts ...orm.QueryOption) error {
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

func (d Device) Del(ctx context.Context, out *device.Device, opts ...orm.QueryOption) error {
	db := d.db.WithContext(ctx)
	for _, opt := range opts {
		db = opt(db)
	}
	return db.Delete(out).Error
}

func (d Device) Session(ctx context.Context, changeFns ...func(*gorm.DB) error) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, fn := range changeFns {
			if err := fn(tx); err != nil {
				return err
			}
		}
		return nil
	})
}
