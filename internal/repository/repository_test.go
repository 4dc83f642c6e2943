package repository_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/internal/model"
	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/internal/repository"
	pkgerrors "github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/pkg/errors"
)

// newSQLiteRepo 每个测试独立的内存库
func newSQLiteRepo(t *testing.T) (*repository.Repository, *gorm.DB) {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
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

	return repository.NewRepository(db), db
}

func int64Ptr(v int64) *int64 { return &v }

func seedRoom(t *testing.T, repo *repository.Repository, number string) *model.Room {
	t.Helper()
	ctx := context.Background()

	b := &model.Building{Name: "B-" + number}
	require.NoError(t, repo.Building.Create(ctx, b))
	room := &model.Room{
		BuildingID:       b.BuildingID,
		RoomNumber:       number,
		Capacity:         4,
		PricePerSemester: 1_500_000,
		Status:           model.RoomStatusAvailable,
	}
	require.NoError(t, repo.Room.Create(ctx, room))
	return room
}

func TestInvoiceSequence_Next(t *testing.T) {
	repo, _ := newSQLiteRepo(t)
	ctx := context.Background()

	v, err := repo.InvoiceSequence.Next(ctx, "UTIL", "202506")
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	v, err = repo.InvoiceSequence.Next(ctx, "UTIL", "202506")
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)

	// 不同前缀、不同月份各自独立计数
	v, err = repo.InvoiceSequence.Next(ctx, "ROOM", "202506")
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	v, err = repo.InvoiceSequence.Next(ctx, "UTIL", "202507")
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)
}

func TestServicePrice_GetCurrent(t *testing.T) {
	repo, _ := newSQLiteRepo(t)
	ctx := context.Background()

	_, err := repo.ServicePrice.GetCurrent(ctx, model.ServiceElectricity)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	older := &model.ServicePrice{
		ServiceName: model.ServiceElectricity, UnitPrice: 3000, Unit: "kWh",
		ApplyDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), IsActive: true,
	}
	newer := &model.ServicePrice{
		ServiceName: model.ServiceElectricity, UnitPrice: 3500, Unit: "kWh",
		ApplyDate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), IsActive: true,
	}
	water := &model.ServicePrice{
		ServiceName: model.ServiceWater, UnitPrice: 10000, Unit: "m3",
		ApplyDate: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), IsActive: true,
	}
	require.NoError(t, repo.ServicePrice.Create(ctx, older))
	require.NoError(t, repo.ServicePrice.Create(ctx, newer))
	require.NoError(t, repo.ServicePrice.Create(ctx, water))

	cur, err := repo.ServicePrice.GetCurrent(ctx, model.ServiceElectricity)
	require.NoError(t, err)
	assert.Equal(t, int64(3500), cur.UnitPrice)

	// 失效后不再作为当前价格
	require.NoError(t, repo.ServicePrice.DeactivateByName(ctx, model.ServiceElectricity))
	_, err = repo.ServicePrice.GetCurrent(ctx, model.ServiceElectricity)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	all, err := repo.ServicePrice.List(ctx, model.ServiceElectricity, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	active, err := repo.ServicePrice.List(ctx, "", false)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, model.ServiceWater, active[0].ServiceName)
}

func TestUtilityInvoice_UpsertAndPreviousReading(t *testing.T) {
	repo, _ := newSQLiteRepo(t)
	ctx := context.Background()
	room := seedRoom(t, repo, "101")

	may := &model.UtilityInvoiceCycle{Month: 5, Year: 2025, Status: model.CycleStatusPublished}
	jun := &model.UtilityInvoiceCycle{Month: 6, Year: 2025, Status: model.CycleStatusDraft}
	require.NoError(t, repo.UtilityCycle.Create(ctx, may))
	require.NoError(t, repo.UtilityCycle.Create(ctx, jun))

	require.NoError(t, repo.UtilityInvoice.BatchCreate(ctx, []model.UtilityInvoice{
		{CycleID: may.CycleID, RoomID: room.RoomID, Status: model.UtilityStatusUnrecorded},
		{CycleID: jun.CycleID, RoomID: room.RoomID, Status: model.UtilityStatusUnrecorded},
	}))

	// 五月尚未抄表 → 没有上期读数
	_, err := repo.UtilityInvoice.GetPreviousReading(ctx, room.RoomID, 6, 2025)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	existing, err := repo.UtilityInvoice.GetByCycleAndRoom(ctx, may.CycleID, room.RoomID)
	require.NoError(t, err)
	existing.ElectricityOld = int64Ptr(0)
	existing.ElectricityNew = int64Ptr(120)
	existing.WaterOld = int64Ptr(0)
	existing.WaterNew = int64Ptr(8)
	existing.Amount = 500_000
	existing.Status = model.UtilityStatusRecorded
	require.NoError(t, repo.UtilityInvoice.Upsert(ctx, existing))

	got, err := repo.UtilityInvoice.GetByCycleAndRoom(ctx, may.CycleID, room.RoomID)
	require.NoError(t, err)
	assert.Equal(t, existing.UtilityInvoiceID, got.UtilityInvoiceID)
	assert.Equal(t, model.UtilityStatusRecorded, got.Status)
	require.NotNil(t, got.ElectricityNew)
	assert.Equal(t, int64(120), *got.ElectricityNew)

	prev, err := repo.UtilityInvoice.GetPreviousReading(ctx, room.RoomID, 6, 2025)
	require.NoError(t, err)
	assert.Equal(t, may.CycleID, prev.CycleID)
	assert.Equal(t, int64(8), *prev.WaterNew)

	n, err := repo.UtilityInvoice.CountUnrecorded(ctx, jun.CycleID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	rows, err := repo.UtilityInvoice.ListByCycle(ctx, may.CycleID, room.BuildingID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].Room)
	assert.Equal(t, "101", rows[0].Room.RoomNumber)

	rows, err = repo.UtilityInvoice.ListByCycle(ctx, may.CycleID, "00000000-0000-0000-0000-000000000000")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestUtilityCycle_MarkPublishedOnce(t *testing.T) {
	repo, _ := newSQLiteRepo(t)
	ctx := context.Background()

	cycle := &model.UtilityInvoiceCycle{Month: 6, Year: 2025, Status: model.CycleStatusReady}
	require.NoError(t, repo.UtilityCycle.Create(ctx, cycle))

	ok, err := repo.UtilityCycle.MarkPublished(ctx, cycle.CycleID, "admin-1", time.Now())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.UtilityCycle.MarkPublished(ctx, cycle.CycleID, "admin-1", time.Now())
	require.NoError(t, err)
	assert.False(t, ok, "已发布的周期不应再次更新")

	got, err := repo.UtilityCycle.GetByIDForUpdate(ctx, cycle.CycleID)
	require.NoError(t, err)
	assert.Equal(t, model.CycleStatusPublished, got.Status)
	assert.NotNil(t, got.PublishedAt)
}

func TestUtilityCycle_UpdateStatusVersion(t *testing.T) {
	repo, _ := newSQLiteRepo(t)
	ctx := context.Background()

	cycle := &model.UtilityInvoiceCycle{Month: 7, Year: 2025, Status: model.CycleStatusDraft}
	require.NoError(t, repo.UtilityCycle.Create(ctx, cycle))

	require.NoError(t, repo.UtilityCycle.UpdateStatus(ctx, cycle.CycleID, cycle.Version, model.CycleStatusReady, "m-1"))
	err := repo.UtilityCycle.UpdateStatus(ctx, cycle.CycleID, cycle.Version, model.CycleStatusReady, "m-1")
	assert.ErrorIs(t, err, pkgerrors.ErrOptimisticLock)
}

func TestUtilityCycle_DuplicateMonthYear(t *testing.T) {
	repo, _ := newSQLiteRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.UtilityCycle.Create(ctx, &model.UtilityInvoiceCycle{Month: 6, Year: 2025}))
	err := repo.UtilityCycle.Create(ctx, &model.UtilityInvoiceCycle{Month: 6, Year: 2025})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsUniqueViolation(err))
}

func TestTransaction_Rollback(t *testing.T) {
	repo, _ := newSQLiteRepo(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := repo.Transaction(ctx, func(tx *repository.Repository) error {
		s := &model.Semester{
			Term: model.TermFirst, AcademicYear: "2025-2026",
			StartDate: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		}
		if err := tx.Semester.Create(ctx, s); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	list, err := repo.Semester.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSemester_ActivateSwitch(t *testing.T) {
	repo, _ := newSQLiteRepo(t)
	ctx := context.Background()

	a := &model.Semester{Term: model.TermFirst, AcademicYear: "2025-2026",
		StartDate: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC), EndDate: time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)}
	b := &model.Semester{Term: model.TermSecond, AcademicYear: "2025-2026",
		StartDate: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), EndDate: time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, repo.Semester.Create(ctx, a))
	require.NoError(t, repo.Semester.Create(ctx, b))

	for _, id := range []string{a.SemesterID, b.SemesterID} {
		err := repo.Transaction(ctx, func(tx *repository.Repository) error {
			if err := tx.Semester.ClearActive(ctx); err != nil {
				return err
			}
			return tx.Semester.SetActive(ctx, id, "admin-1")
		})
		require.NoError(t, err)
	}

	cur, err := repo.Semester.GetCurrent(ctx)
	require.NoError(t, err)
	assert.Equal(t, b.SemesterID, cur.SemesterID)

	err = repo.Semester.SetActive(ctx, "00000000-0000-0000-0000-000000000000", "admin-1")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestStay_ActiveResolverAndOccupants(t *testing.T) {
	repo, _ := newSQLiteRepo(t)
	ctx := context.Background()
	room := seedRoom(t, repo, "202")

	sem := &model.Semester{Term: model.TermFirst, AcademicYear: "2025-2026",
		StartDate: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC), EndDate: time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, repo.Semester.Create(ctx, sem))

	alice := &model.User{FullName: "Nguyen Van A", Email: "a@ktx.vn", Role: model.RoleStudent}
	bob := &model.User{FullName: "Tran Thi B", Email: "b@ktx.vn", Role: model.RoleStudent}
	require.NoError(t, repo.User.Create(ctx, alice))
	require.NoError(t, repo.User.Create(ctx, bob))

	for _, u := range []*model.User{alice, bob} {
		require.NoError(t, repo.Stay.Create(ctx, &model.Stay{
			StudentID: u.UserID, RoomID: room.RoomID, SemesterID: sem.SemesterID,
			StartDate: sem.StartDate, Status: model.StayStatusActive,
		}))
	}

	stay, err := repo.Stay.GetActiveByStudent(ctx, alice.UserID)
	require.NoError(t, err)
	require.NotNil(t, stay.Room)
	require.NotNil(t, stay.Room.Building)
	assert.Equal(t, room.BuildingID, stay.Room.Building.BuildingID)

	n, err := repo.Stay.CountActiveByRoom(ctx, room.RoomID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	occ, err := repo.Stay.ListActiveOccupants(ctx, []string{room.RoomID})
	require.NoError(t, err)
	require.Len(t, occ, 2)
	assert.Equal(t, "Nguyen Van A", occ[0].FullName)

	list, total, err := repo.Stay.List(ctx, repository.StayFilter{BuildingID: room.BuildingID}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, list, 2)

	_, err = repo.Stay.GetActiveByStudent(ctx, "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestBuilding_ReplaceManagers(t *testing.T) {
	repo, _ := newSQLiteRepo(t)
	ctx := context.Background()

	b := &model.Building{Name: "A1"}
	require.NoError(t, repo.Building.Create(ctx, b))
	m1 := &model.User{FullName: "Manager 1", Email: "m1@ktx.vn", Role: model.RoleManager}
	m2 := &model.User{FullName: "Manager 2", Email: "m2@ktx.vn", Role: model.RoleManager}
	require.NoError(t, repo.User.Create(ctx, m1))
	require.NoError(t, repo.User.Create(ctx, m2))

	require.NoError(t, repo.Building.ReplaceManagers(ctx, b.BuildingID, []string{m1.UserID, m2.UserID}))
	require.NoError(t, repo.Building.ReplaceManagers(ctx, b.BuildingID, []string{m2.UserID}))

	ids, err := repo.Building.ListManagerIDs(ctx, b.BuildingID)
	require.NoError(t, err)
	assert.Equal(t, []string{m2.UserID}, ids)

	got, err := repo.Building.GetByID(ctx, b.BuildingID)
	require.NoError(t, err)
	require.Len(t, got.Managers, 1)
	require.NotNil(t, got.Managers[0].Manager)
	assert.Equal(t, "Manager 2", got.Managers[0].Manager.FullName)
}

func TestNotification_Inbox(t *testing.T) {
	repo, _ := newSQLiteRepo(t)
	ctx := context.Background()

	n := &model.Notification{
		SenderRole: "STUDENT", SenderID: "s-1", TargetScope: model.TargetScopeUser,
		Type: "SUPPORT_REQUEST", Title: "t", Content: "c",
	}
	require.NoError(t, repo.Notification.Create(ctx, n))
	require.NoError(t, repo.Notification.CreateRecipients(ctx, []model.NotificationRecipient{
		{NotificationID: n.NotificationID, RecipientID: "m-1"},
		{NotificationID: n.NotificationID, RecipientID: "m-2"},
	}))

	rows, total, err := repo.Notification.ListByRecipient(ctx, "m-1", true, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].Notification)
	assert.Equal(t, "t", rows[0].Notification.Title)

	require.NoError(t, repo.Notification.MarkRead(ctx, rows[0].RecipientRowID, time.Now()))

	_, total, err = repo.Notification.ListByRecipient(ctx, "m-1", true, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
}

func TestInvoice_UpdateStatusGuard(t *testing.T) {
	repo, _ := newSQLiteRepo(t)
	ctx := context.Background()

	inv := &model.Invoice{InvoiceCode: "OTHER-202506-0001", Category: model.InvoiceCategoryOther,
		TotalAmount: 100_000, Status: model.InvoiceStatusPublished}
	require.NoError(t, repo.Invoice.Create(ctx, inv))

	require.NoError(t, repo.Invoice.UpdateStatus(ctx, inv.InvoiceID, model.InvoiceStatusPublished,
		map[string]interface{}{"status": model.InvoiceStatusPaid}))
	err := repo.Invoice.UpdateStatus(ctx, inv.InvoiceID, model.InvoiceStatusPublished,
		map[string]interface{}{"status": model.InvoiceStatusCancelled})
	assert.ErrorIs(t, err, pkgerrors.ErrOptimisticLock)

	list, total, err := repo.Invoice.List(ctx, repository.InvoiceFilter{Status: model.InvoiceStatusPaid}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "OTHER-202506-0001", list[0].InvoiceCode)

	err = repo.Invoice.Create(ctx, &model.Invoice{InvoiceCode: "OTHER-202506-0001",
		Category: model.InvoiceCategoryOther, TotalAmount: 1, Status: model.InvoiceStatusDraft})
	assert.True(t, pkgerrors.IsUniqueViolation(err))
}
