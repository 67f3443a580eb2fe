package detector

import (
	"context"

	"github.com/ixugo/goddd/pkg/orm"
	"gorm.io/gorm"
)

// DetectorStorer Instantiation interface
type DetectorStorer interface {
	Find(context.Context, *[]*Detector, orm.Pager, ...orm.QueryOption) (int64, error)
	Get(context.Context, *Detector, ...orm.QueryOption) error
	Add(context.Context, *Detector) error
	Edit(context.Context, *Detector, func(*Detector), ...orm.QueryOption) error
	Del(context.Context, *Detector, ...orm.QueryOption) error
}

// AnnotationStorer Instantiation interface
type AnnotationStorer interface {
	Find(context.Context, *[]*Annotation, orm.Pager, ...orm.QueryOption) (int64, error)
	Add(context.Context, *Annotation) error
	Del(context.Context, *Annotation, ...orm.QueryOption) error

	Session(context.Context, ...func(*gorm.DB) error) error
}

// Storer data persistence
type Storer interface {
	Detector() DetectorStorer
	Annotation() AnnotationStorer
}

// Core business domain
type Core struct {
	store Storer
}

// NewCore create business domain
func NewCore(store Storer) Core {
	return Core{store: store}
}
