package mediadb

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gowvp/replay/internal/core/media"
	"github.com/ixugo/goddd/pkg/orm"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func generateMockDB() (*gorm.DB, sqlmock.Sqlmock, error) {
	db, mock, err := sqlmock.New()
	if err != nil {
		return nil, nil, err
	}
	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{})
	if err != nil {
		return nil, nil, err
	}
	return gdb, mock, nil
}

func TestUnitGet(t *testing.T) {
	db, mock, err := generateMockDB()
	if err != nil {
		t.Fatal(err)
	}
	unitDB := NewUnit(db)

	mock.ExpectQuery(`SELECT \* FROM "media_units" WHERE id=\$1 LIMIT \$2`).
		WithArgs(int64(7), 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "pipeline_id", "kind"}).
			AddRow(int64(7), "p1", media.KindVideo))

	var out media.MediaUnit
	if err := unitDB.Get(context.Background(), &out, orm.Where("id=?", int64(7))); err != nil {
		t.Fatal(err)
	}
	if out.PipelineID != "p1" {
		t.Fatalf("got %+v", out)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal("ExpectationsWereMet err:", err)
	}
}

func TestUnitFind(t *testing.T) {
	db, mock, err := generateMockDB()
	if err != nil {
		t.Fatal(err)
	}
	unitDB := NewUnit(db)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "media_units" WHERE pipeline_id = \$1`).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(`SELECT \* FROM "media_units" WHERE pipeline_id = \$1`).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "pipeline_id"}).
			AddRow(int64(1), "p1").
			AddRow(int64(2), "p1"))

	var items []*media.MediaUnit
	total, err := unitDB.Find(context.Background(), &items, nil, orm.Where("pipeline_id = ?", "p1"))
	if err != nil {
		t.Fatal(err)
	}
	if total != 2 || len(items) != 2 {
		t.Fatalf("total=%d len=%d", total, len(items))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal("ExpectationsWereMet err:", err)
	}
}
