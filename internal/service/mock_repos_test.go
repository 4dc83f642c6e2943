package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/internal/model"
	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/internal/repository"
)

// ── Mock SemesterRepository ──

type mockSemesterRepo struct {
	semesters map[string]*model.Semester
}

func newMockSemesterRepo() *mockSemesterRepo {
	return &mockSemesterRepo{semesters: make(map[string]*model.Semester)}
}

func (m *mockSemesterRepo) Create(_ context.Context, semester *model.Semester) error {
	if semester.SemesterID == "" {
		semester.SemesterID = fmt.Sprintf("sem-%d", len(m.semesters)+1)
	}
	m.semesters[semester.SemesterID] = semester
	return nil
}

func (m *mockSemesterRepo) GetByID(_ context.Context, id string) (*model.Semester, error) {
	if s, ok := m.semesters[id]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSemesterRepo) GetCurrent(_ context.Context) (*model.Semester, error) {
	for _, s := range m.semesters {
		if s.IsActive {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSemesterRepo) List(_ context.Context) ([]model.Semester, error) {
	var result []model.Semester
	for _, s := range m.semesters {
		result = append(result, *s)
	}
	return result, nil
}

func (m *mockSemesterRepo) Update(_ context.Context, semester *model.Semester) error {
	m.semesters[semester.SemesterID] = semester
	return nil
}

func (m *mockSemesterRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.semesters, id)
	return nil
}

func (m *mockSemesterRepo) ClearActive(_ context.Context) error {
	for _, s := range m.semesters {
		s.IsActive = false
	}
	return nil
}

func (m *mockSemesterRepo) SetActive(_ context.Context, id string, _ string) error {
	s, ok := m.semesters[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s.IsActive = true
	return nil
}

// activeCount 激活学期数量
func (m *mockSemesterRepo) activeCount() int {
	n := 0
	for _, s := range m.semesters {
		if s.IsActive {
			n++
		}
	}
	return n
}

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		user.UserID = fmt.Sprintf("user-%d", len(m.users)+1)
	}
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) ListByIDs(_ context.Context, ids []string) ([]model.User, error) {
	var result []model.User
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			result = append(result, *u)
		}
	}
	return result, nil
}

func (m *mockUserRepo) List(_ context.Context, role string, _, _ int) ([]model.User, int64, error) {
	var result []model.User
	for _, u := range m.users {
		if role == "" || u.Role == role {
			result = append(result, *u)
		}
	}
	return result, int64(len(result)), nil
}

// ── Mock BuildingRepository ──

type mockBuildingRepo struct {
	buildings map[string]*model.Building
	managers  map[string][]string
	listErr   error
}

func newMockBuildingRepo() *mockBuildingRepo {
	return &mockBuildingRepo{
		buildings: make(map[string]*model.Building),
		managers:  make(map[string][]string),
	}
}

func (m *mockBuildingRepo) Create(_ context.Context, building *model.Building) error {
	if building.BuildingID == "" {
		building.BuildingID = fmt.Sprintf("bld-%d", len(m.buildings)+1)
	}
	m.buildings[building.BuildingID] = building
	return nil
}

func (m *mockBuildingRepo) GetByID(_ context.Context, id string) (*model.Building, error) {
	if b, ok := m.buildings[id]; ok {
		return b, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockBuildingRepo) List(_ context.Context) ([]model.Building, error) {
	var result []model.Building
	for _, b := range m.buildings {
		result = append(result, *b)
	}
	return result, nil
}

func (m *mockBuildingRepo) ReplaceManagers(_ context.Context, buildingID string, managerIDs []string) error {
	m.managers[buildingID] = append([]string(nil), managerIDs...)
	return nil
}

func (m *mockBuildingRepo) ListManagerIDs(_ context.Context, buildingID string) ([]string, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.managers[buildingID], nil
}

// ── Mock StayRepository ──
// 仅 GetActiveByStudent 有实际行为，供通知分发测试使用

type mockStayRepo struct {
	active map[string]*model.Stay // studentID → stay
}

func newMockStayRepo() *mockStayRepo {
	return &mockStayRepo{active: make(map[string]*model.Stay)}
}

func (m *mockStayRepo) Create(_ context.Context, stay *model.Stay) error {
	m.active[stay.StudentID] = stay
	return nil
}

func (m *mockStayRepo) GetByID(_ context.Context, id string) (*model.Stay, error) {
	for _, s := range m.active {
		if s.StayID == id {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStayRepo) Update(_ context.Context, _ *model.Stay) error { return nil }

func (m *mockStayRepo) GetActiveByStudent(_ context.Context, studentID string) (*model.Stay, error) {
	if s, ok := m.active[studentID]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStayRepo) CountActiveByRoom(_ context.Context, _ string) (int64, error) { return 0, nil }

func (m *mockStayRepo) ListActiveBySemester(_ context.Context, _ string) ([]model.Stay, error) {
	return nil, nil
}

func (m *mockStayRepo) ListActiveOccupants(_ context.Context, _ []string) ([]repository.RoomOccupant, error) {
	return nil, nil
}

func (m *mockStayRepo) List(_ context.Context, _ repository.StayFilter, _, _ int) ([]model.Stay, int64, error) {
	return nil, 0, nil
}

// placeStudent 让学生住进某栋楼
func (m *mockStayRepo) placeStudent(studentID, buildingID string) {
	m.active[studentID] = &model.Stay{
		StayID:    "stay-" + studentID,
		StudentID: studentID,
		RoomID:    "room-" + buildingID,
		Status:    model.StayStatusActive,
		Room:      &model.Room{RoomID: "room-" + buildingID, BuildingID: buildingID},
	}
}

// ── Mock SupportRequestRepository ──

type mockSupportRequestRepo struct {
	requests map[string]*model.SupportRequest
	seq      int
}

func newMockSupportRequestRepo() *mockSupportRequestRepo {
	return &mockSupportRequestRepo{requests: make(map[string]*model.SupportRequest)}
}

func (m *mockSupportRequestRepo) Create(_ context.Context, req *model.SupportRequest) error {
	m.seq++
	if req.SupportRequestID == "" {
		req.SupportRequestID = fmt.Sprintf("sr-%d", m.seq)
	}
	m.requests[req.SupportRequestID] = req
	return nil
}

func (m *mockSupportRequestRepo) GetByID(_ context.Context, id string) (*model.SupportRequest, error) {
	if r, ok := m.requests[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSupportRequestRepo) Update(_ context.Context, req *model.SupportRequest) error {
	m.requests[req.SupportRequestID] = req
	return nil
}

func (m *mockSupportRequestRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.requests, id)
	return nil
}

func (m *mockSupportRequestRepo) List(_ context.Context, filter repository.SupportRequestFilter, _, _ int) ([]model.SupportRequest, int64, error) {
	var result []model.SupportRequest
	for _, r := range m.requests {
		if filter.StudentID != "" && r.StudentID != filter.StudentID {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		result = append(result, *r)
	}
	return result, int64(len(result)), nil
}

// ── Mock NotificationRepository ──

type mockNotificationRepo struct {
	notifications []*model.Notification
	recipients    map[string]*model.NotificationRecipient
	createErr     error
	panicOnCreate bool
}

func newMockNotificationRepo() *mockNotificationRepo {
	return &mockNotificationRepo{recipients: make(map[string]*model.NotificationRecipient)}
}

func (m *mockNotificationRepo) Create(_ context.Context, n *model.Notification) error {
	if m.panicOnCreate {
		panic("notification store exploded")
	}
	if m.createErr != nil {
		return m.createErr
	}
	n.NotificationID = fmt.Sprintf("ntf-%d", len(m.notifications)+1)
	m.notifications = append(m.notifications, n)
	return nil
}

func (m *mockNotificationRepo) CreateRecipients(_ context.Context, rows []model.NotificationRecipient) error {
	for i := range rows {
		row := rows[i]
		row.RecipientRowID = fmt.Sprintf("rcp-%d", len(m.recipients)+1)
		m.recipients[row.RecipientRowID] = &row
	}
	return nil
}

func (m *mockNotificationRepo) GetRecipient(_ context.Context, id string) (*model.NotificationRecipient, error) {
	if r, ok := m.recipients[id]; ok {
		return r, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockNotificationRepo) ListByRecipient(_ context.Context, recipientID string, unreadOnly bool, _, _ int) ([]model.NotificationRecipient, int64, error) {
	var result []model.NotificationRecipient
	for _, r := range m.recipients {
		if r.RecipientID != recipientID || (unreadOnly && r.IsRead) {
			continue
		}
		result = append(result, *r)
	}
	return result, int64(len(result)), nil
}

func (m *mockNotificationRepo) MarkRead(_ context.Context, id string, at time.Time) error {
	r, ok := m.recipients[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	r.IsRead = true
	r.ReadAt = &at
	return nil
}

// recipientsOf 某个接收人的全部通知行
func (m *mockNotificationRepo) recipientsOf(userID string) []*model.NotificationRecipient {
	var result []*model.NotificationRecipient
	for _, r := range m.recipients {
		if r.RecipientID == userID {
			result = append(result, r)
		}
	}
	return result
}

// ── Mock DeadLetterStore ──

type mockDeadLetterStore struct {
	mu      sync.Mutex
	items   []string
	pushErr error
}

func (m *mockDeadLetterStore) PushDeadLetter(_ context.Context, payload []byte) error {
	if m.pushErr != nil {
		return m.pushErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append([]string{string(payload)}, m.items...)
	return nil
}

func (m *mockDeadLetterStore) ListDeadLetters(_ context.Context, limit int64) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 || int(limit) > len(m.items) {
		return append([]string(nil), m.items...), nil
	}
	return append([]string(nil), m.items[:limit]...), nil
}

var errStoreDown = errors.New("store down")
