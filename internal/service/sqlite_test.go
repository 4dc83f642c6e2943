package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/internal/model"
	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/internal/repository"
)

// 依赖真实 SQL 语义（ON CONFLICT、事务回滚、计数器）的 Service 用内存 sqlite 测试

func newSQLiteRepo(t *testing.T) *repository.Repository {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Semester{},
		&model.Building{},
		&model.BuildingManager{},
		&model.Room{},
		&model.Stay{},
		&model.ServicePrice{},
		&model.UtilityInvoiceCycle{},
		&model.UtilityInvoice{},
		&model.Invoice{},
		&model.RoomFeeInvoice{},
		&model.InvoiceSequence{},
		&model.SupportRequest{},
		&model.Notification{},
		&model.NotificationRecipient{},
	))

	return repository.NewRepository(db)
}

func seedUser(t *testing.T, repo *repository.Repository, name, role string) *model.User {
	t.Helper()
	u := &model.User{
		FullName: name,
		Email:    strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@ktx.test",
		Role:     role,
	}
	if role == model.RoleStudent {
		code := "SV" + strings.ToUpper(strings.ReplaceAll(name, " ", ""))
		u.StudentCode = &code
	}
	require.NoError(t, repo.User.Create(context.Background(), u))
	return u
}

func seedBuildingWithRooms(t *testing.T, repo *repository.Repository, name string, n int) (*model.Building, []*model.Room) {
	t.Helper()
	ctx := context.Background()

	b := &model.Building{Name: name, Gender: "MIXED"}
	require.NoError(t, repo.Building.Create(ctx, b))

	rooms := make([]*model.Room, 0, n)
	for i := 1; i <= n; i++ {
		room := &model.Room{
			BuildingID:       b.BuildingID,
			RoomNumber:       fmt.Sprintf("%d", 100+i),
			Floor:            1,
			Capacity:         4,
			PricePerSemester: 1_500_000,
			Status:           model.RoomStatusAvailable,
		}
		require.NoError(t, repo.Room.Create(ctx, room))
		rooms = append(rooms, room)
	}
	return b, rooms
}

func seedPrices(t *testing.T, repo *repository.Repository, electricity, water int64) {
	t.Helper()
	ctx := context.Background()
	apply := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.ServicePrice.Create(ctx, &model.ServicePrice{
		ServiceName: model.ServiceElectricity, UnitPrice: electricity, Unit: "kWh", ApplyDate: apply, IsActive: true,
	}))
	require.NoError(t, repo.ServicePrice.Create(ctx, &model.ServicePrice{
		ServiceName: model.ServiceWater, UnitPrice: water, Unit: "m3", ApplyDate: apply, IsActive: true,
	}))
}

func seedSQLiteSemester(t *testing.T, repo *repository.Repository) *model.Semester {
	t.Helper()
	s := &model.Semester{
		Term:         model.TermFirst,
		AcademicYear: "2025-2026",
		StartDate:    time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		IsActive:     true,
	}
	require.NoError(t, repo.Semester.Create(context.Background(), s))
	return s
}

func i64(v int64) *int64 { return &v }
