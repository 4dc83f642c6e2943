package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/internal/dto"
	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/internal/model"
)

// ── 宿舍楼 ──

func TestBuildingService_CreateBuilding(t *testing.T) {
	repo := newSQLiteRepo(t)
	svc := NewBuildingService(repo, zap.NewNop())
	ctx := context.Background()

	b, err := svc.CreateBuilding(ctx, &dto.CreateBuildingRequest{Name: "B1"}, staffID)
	require.NoError(t, err)
	assert.Equal(t, "MIXED", b.Gender)

	_, err = svc.CreateBuilding(ctx, &dto.CreateBuildingRequest{Name: "B1", Gender: "MALE"}, staffID)
	assert.ErrorIs(t, err, ErrBuildingNameExists)

	_, err = svc.GetBuilding(ctx, "missing")
	assert.ErrorIs(t, err, ErrBuildingNotFound)
}

func TestBuildingService_AssignManagers(t *testing.T) {
	repo := newSQLiteRepo(t)
	svc := NewBuildingService(repo, zap.NewNop())
	ctx := context.Background()
	building, _ := seedBuildingWithRooms(t, repo, "C3", 0)
	mgr1 := seedUser(t, repo, "Manager One", model.RoleManager)
	mgr2 := seedUser(t, repo, "Manager Two", model.RoleManager)
	student := seedUser(t, repo, "Student One", model.RoleStudent)

	// 重复 ID 去重
	resp, err := svc.AssignManagers(ctx, building.BuildingID, &dto.AssignManagersRequest{
		ManagerIDs: []string{mgr1.UserID, mgr2.UserID, mgr1.UserID},
	})
	require.NoError(t, err)
	assert.Len(t, resp.Managers, 2)

	// 覆盖为单个管理员
	resp, err = svc.AssignManagers(ctx, building.BuildingID, &dto.AssignManagersRequest{ManagerIDs: []string{mgr2.UserID}})
	require.NoError(t, err)
	require.Len(t, resp.Managers, 1)
	assert.Equal(t, mgr2.UserID, resp.Managers[0].ID)
	assert.Equal(t, "Manager Two", resp.Managers[0].FullName)

	_, err = svc.AssignManagers(ctx, building.BuildingID, &dto.AssignManagersRequest{ManagerIDs: []string{student.UserID}})
	assert.ErrorIs(t, err, ErrManagerInvalid)

	_, err = svc.AssignManagers(ctx, building.BuildingID, &dto.AssignManagersRequest{ManagerIDs: []string{"nobody"}})
	assert.ErrorIs(t, err, ErrManagerInvalid)

	_, err = svc.AssignManagers(ctx, "missing", &dto.AssignManagersRequest{})
	assert.ErrorIs(t, err, ErrBuildingNotFound)
}

// ── 房间 ──

func TestBuildingService_CreateRoom(t *testing.T) {
	repo := newSQLiteRepo(t)
	svc := NewBuildingService(repo, zap.NewNop())
	ctx := context.Background()
	building, _ := seedBuildingWithRooms(t, repo, "D4", 0)

	room, err := svc.CreateRoom(ctx, &dto.CreateRoomRequest{
		BuildingID: building.BuildingID,
		RoomNumber: "301",
		Capacity:   6,
	}, staffID)
	require.NoError(t, err)
	assert.Equal(t, model.RoomStatusAvailable, room.Status)
	assert.Equal(t, 1, room.Floor)
	assert.Equal(t, "D4", room.BuildingName)

	_, err = svc.CreateRoom(ctx, &dto.CreateRoomRequest{BuildingID: "missing", RoomNumber: "1", Capacity: 1}, staffID)
	assert.ErrorIs(t, err, ErrBuildingNotFound)

	_, err = svc.GetRoom(ctx, "missing")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestBuildingService_ListRooms_Filter(t *testing.T) {
	repo := newSQLiteRepo(t)
	svc := NewBuildingService(repo, zap.NewNop())
	ctx := context.Background()
	a, roomsA := seedBuildingWithRooms(t, repo, "A", 2)
	seedBuildingWithRooms(t, repo, "B", 3)

	roomsA[1].Status = model.RoomStatusMaintenance
	require.NoError(t, repo.DB().Save(roomsA[1]).Error)

	all, err := svc.ListRooms(ctx, &dto.ListRoomsRequest{})
	require.NoError(t, err)
	assert.Len(t, all, 5)

	inA, err := svc.ListRooms(ctx, &dto.ListRoomsRequest{BuildingID: a.BuildingID})
	require.NoError(t, err)
	assert.Len(t, inA, 2)

	maintenance, err := svc.ListRooms(ctx, &dto.ListRoomsRequest{Status: model.RoomStatusMaintenance})
	require.NoError(t, err)
	require.Len(t, maintenance, 1)
	assert.Equal(t, roomsA[1].RoomID, maintenance[0].ID)
}

// ── 用户 ──

func TestUserService_Create(t *testing.T) {
	repo := newSQLiteRepo(t)
	svc := NewUserService(repo, zap.NewNop())
	ctx := context.Background()

	_, err := svc.Create(ctx, &dto.CreateUserRequest{FullName: "Nguyen Van A", Email: "a@ktx.test", Role: model.RoleStudent}, staffID)
	assert.ErrorIs(t, err, ErrStudentCodeRequired)

	code := "SV001"
	user, err := svc.Create(ctx, &dto.CreateUserRequest{
		FullName:    "Nguyen Van A",
		Email:       "  A@KTX.test ",
		StudentCode: &code,
		Role:        model.RoleStudent,
	}, staffID)
	require.NoError(t, err)
	assert.Equal(t, "a@ktx.test", user.Email)

	// 邮箱大小写不敏感
	_, err = svc.Create(ctx, &dto.CreateUserRequest{FullName: "Other", Email: "a@KTX.TEST", Role: model.RoleManager}, staffID)
	assert.ErrorIs(t, err, ErrEmailExists)

	got, err := svc.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Nguyen Van A", got.FullName)

	_, err = svc.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserService_List_ByRole(t *testing.T) {
	repo := newSQLiteRepo(t)
	svc := NewUserService(repo, zap.NewNop())
	seedUser(t, repo, "Student A", model.RoleStudent)
	seedUser(t, repo, "Student B", model.RoleStudent)
	seedUser(t, repo, "Manager A", model.RoleManager)

	page, err := svc.List(context.Background(), &dto.ListUsersRequest{Role: model.RoleStudent})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)
	assert.Len(t, page.List, 2)
	assert.Equal(t, 1, page.Page)

	all, err := svc.List(context.Background(), &dto.ListUsersRequest{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, all.Total)
}
