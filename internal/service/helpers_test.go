package service

import (
	"fmt"
	"sync"
	"testing"

	"DirectorySync/internal/model"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&model.Business{}, &model.Category{}))
	return db
}

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func f64(v float64) *float64 { return &v }
func iptr(v int) *int        { return &v }

func place(id, name, addr string, rating float64, count int) *model.RawPlace {
	return &model.RawPlace{
		ExternalID:       id,
		Name:             name,
		FormattedAddress: addr,
		Rating:           f64(rating),
		RatingCount:      count,
		PhotoRefs:        []string{id + "-photo-1", id + "-photo-2"},
	}
}

// austinPlaces 三条德州记录（辖区过滤已在数据源客户端完成）
func austinPlaces() []*model.RawPlace {
	return []*model.RawPlace{
		place("ext-a", "Lone Star Leak Repair", "100 Congress Ave, Austin, TX 78701, USA", 4.8, 210),
		place("ext-b", "Capitol Water Damage", "200 Lamar Blvd, Austin, TX 78704, USA", 4.2, 35),
		place("ext-c", "Barton Creek Plumbing", "300 Barton Springs Rd, Austin, TX 78704, USA", 3.9, 12),
	}
}

type recordingDispatcher struct {
	mu   sync.Mutex
	jobs []model.SyncJob
	full bool
}

func (d *recordingDispatcher) Enqueue(job model.SyncJob) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.full {
		return false
	}
	d.jobs = append(d.jobs, job)
	return true
}

func (d *recordingDispatcher) Jobs() []model.SyncJob {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]model.SyncJob(nil), d.jobs...)
}
