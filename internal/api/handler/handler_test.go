package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/internal/dto"
	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/internal/model"
	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/internal/service"
	pkgerrors "github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/pkg/errors"
	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const (
	testCycleID = "6f1c0b9e-6a5d-4b8e-9f2a-1c2d3e4f5a6b"
	testRoomA   = "a1b2c3d4-0000-4000-8000-000000000001"
	testRoomB   = "a1b2c3d4-0000-4000-8000-000000000002"
	testStudent = "b1b2c3d4-0000-4000-8000-000000000003"
)

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock UtilityService ──

type mockUtilityService struct {
	cycleResult   *dto.CycleResponse
	cycleErr      error
	recordResult  *dto.UtilityInvoiceResponse
	recordErr     error
	outcomes      []service.ReadingOutcome
	outcomesErr   error
	publishResult *dto.PublishCycleResponse
	publishErr    error

	lastReading *dto.MeterReading
	batchCalled bool
}

func (m *mockUtilityService) CreateCycle(_ context.Context, _ *dto.CreateCycleRequest, _ string) (*dto.CycleResponse, error) {
	return m.cycleResult, m.cycleErr
}
func (m *mockUtilityService) GetCycle(_ context.Context, _ string) (*dto.CycleResponse, error) {
	return m.cycleResult, m.cycleErr
}
func (m *mockUtilityService) ListCycles(_ context.Context, _ int) ([]dto.CycleResponse, error) {
	return nil, m.cycleErr
}
func (m *mockUtilityService) RecordReading(_ context.Context, _ string, reading *dto.MeterReading, _ string) (*dto.UtilityInvoiceResponse, error) {
	m.lastReading = reading
	return m.recordResult, m.recordErr
}
func (m *mockUtilityService) RecordReadings(_ context.Context, _ string, _ []dto.MeterReading, _ string) ([]service.ReadingOutcome, error) {
	m.batchCalled = true
	return m.outcomes, m.outcomesErr
}
func (m *mockUtilityService) MarkReady(_ context.Context, _ string, _ string) (*dto.CycleResponse, error) {
	return m.cycleResult, m.cycleErr
}
func (m *mockUtilityService) Publish(_ context.Context, _ string, _ string) (*dto.PublishCycleResponse, error) {
	return m.publishResult, m.publishErr
}
func (m *mockUtilityService) ListInvoices(_ context.Context, _ string, _ *dto.ListCycleInvoicesRequest) ([]dto.UtilityInvoiceResponse, error) {
	return nil, nil
}

// ── Mock InvoiceService ──

type mockInvoiceService struct {
	getResult  *dto.InvoiceResponse
	getErr     error
	listResult *dto.PageResult[dto.InvoiceResponse]
	listErr    error
	updateErr  error
	createErr  error
	billResult *dto.BillRoomFeesResponse
	billErr    error

	lastRole string
}

func (m *mockInvoiceService) Get(_ context.Context, _, _, role string) (*dto.InvoiceResponse, error) {
	m.lastRole = role
	return m.getResult, m.getErr
}
func (m *mockInvoiceService) List(_ context.Context, _ *dto.ListInvoicesRequest, _, role string) (*dto.PageResult[dto.InvoiceResponse], error) {
	m.lastRole = role
	return m.listResult, m.listErr
}
func (m *mockInvoiceService) UpdateStatus(_ context.Context, _ string, _ *dto.UpdateInvoiceStatusRequest, _ string) (*dto.InvoiceResponse, error) {
	return m.getResult, m.updateErr
}
func (m *mockInvoiceService) CreateOther(_ context.Context, _ *dto.CreateOtherInvoiceRequest, _ string) (*dto.InvoiceResponse, error) {
	return m.getResult, m.createErr
}
func (m *mockInvoiceService) BillRoomFees(_ context.Context, _ *dto.BillRoomFeesRequest, _ string) (*dto.BillRoomFeesResponse, error) {
	return m.billResult, m.billErr
}

// ── Mock SupportRequestService ──

type mockSupportRequestService struct {
	result    *dto.SupportRequestResponse
	err       error
	deleteErr error
}

func (m *mockSupportRequestService) Create(_ context.Context, _ *dto.CreateSupportRequestRequest, _, _ string) (*dto.SupportRequestResponse, error) {
	return m.result, m.err
}
func (m *mockSupportRequestService) Get(_ context.Context, _, _, _ string) (*dto.SupportRequestResponse, error) {
	return m.result, m.err
}
func (m *mockSupportRequestService) List(_ context.Context, _ *dto.ListSupportRequestsRequest, _, _ string) (*dto.PageResult[dto.SupportRequestResponse], error) {
	return &dto.PageResult[dto.SupportRequestResponse]{Page: 1, PageSize: 20}, m.err
}
func (m *mockSupportRequestService) Update(_ context.Context, _ string, _ *dto.UpdateSupportRequestRequest, _, _ string) (*dto.SupportRequestResponse, error) {
	return m.result, m.err
}
func (m *mockSupportRequestService) Delete(_ context.Context, _, _, _ string) error {
	return m.deleteErr
}

// ── Mock NotificationService ──

type mockNotificationService struct {
	letters   []dto.DeadLetter
	err       error
	lastLimit int
}

func (m *mockNotificationService) NotifyBuildingManagers(_ context.Context, _, _, _, _ string) {}
func (m *mockNotificationService) NotifyUser(_ context.Context, _, _, _, _, _, _ string)       {}
func (m *mockNotificationService) ListMine(_ context.Context, _ string, _ *dto.ListNotificationsRequest) (*dto.PageResult[dto.NotificationResponse], error) {
	return &dto.PageResult[dto.NotificationResponse]{Page: 1, PageSize: 20}, m.err
}
func (m *mockNotificationService) MarkRead(_ context.Context, _, _ string) error {
	return m.err
}
func (m *mockNotificationService) ListDeadLetters(_ context.Context, limit int) ([]dto.DeadLetter, error) {
	m.lastLimit = limit
	return m.letters, m.err
}

// ── Mock ExportService ──

type mockExportService struct {
	buf      *bytes.Buffer
	filename string
	err      error
}

func (m *mockExportService) ExportCycleInvoices(_ context.Context, _ string) (*bytes.Buffer, string, error) {
	return m.buf, m.filename, m.err
}

// ═══════════════════════════════════════════════════════════
// Test Helpers
// ═══════════════════════════════════════════════════════════

func setupGin() (*gin.Engine, *gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, r := gin.CreateTestContext(w)
	return r, c, w
}

// withAuth 模拟 JWT 中间件注入身份
func withAuth(userID, role string, next gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Set("role", role)
		next(c)
	}
}

func jsonBody(v interface{}) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func i64(v int64) *int64 { return &v }

func parseResponse(w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

func serve(method, route, target string, body io.Reader, h gin.HandlerFunc) *httptest.ResponseRecorder {
	_, _, w := setupGin()
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	r := gin.New()
	r.Handle(method, route, h)
	r.ServeHTTP(w, req)
	return w
}

// ═══════════════════════════════════════════════════════════
// UtilityHandler Tests
// ═══════════════════════════════════════════════════════════

func TestUtilityHandler_CreateCycle_BadMonth(t *testing.T) {
	h := NewUtilityHandler(&mockUtilityService{})

	w := serve("POST", "/cycles", "/cycles", jsonBody(map[string]int{"month": 13, "year": 2025}),
		withAuth("mgr-1", model.RoleManager, h.CreateCycle))

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 10001 {
		t.Errorf("expected error code 10001, got %d", resp.Code)
	}
}

func TestUtilityHandler_CreateCycle_Conflict(t *testing.T) {
	h := NewUtilityHandler(&mockUtilityService{cycleErr: service.ErrCycleExists})

	w := serve("POST", "/cycles", "/cycles", jsonBody(dto.CreateCycleRequest{Month: 6, Year: 2025}),
		withAuth("mgr-1", model.RoleManager, h.CreateCycle))

	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 18002 {
		t.Errorf("expected error code 18002, got %d", resp.Code)
	}
}

func TestUtilityHandler_CreateCycle_Unauthenticated(t *testing.T) {
	h := NewUtilityHandler(&mockUtilityService{})

	w := serve("POST", "/cycles", "/cycles", jsonBody(dto.CreateCycleRequest{Month: 6, Year: 2025}), h.CreateCycle)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestUtilityHandler_RecordReadings_PartialSuccess(t *testing.T) {
	mock := &mockUtilityService{
		outcomes: []service.ReadingOutcome{
			{RoomID: testRoomA, Amount: 197500},
			{RoomID: testRoomB, Err: &service.InvalidReadingError{RoomID: testRoomB, Meter: "electricity", Old: 200, New: 100}},
		},
	}
	h := NewUtilityHandler(mock)

	body := dto.RecordReadingsRequest{Readings: []dto.MeterReading{
		{RoomID: testRoomA, ElectricityNew: i64(150), WaterNew: i64(15)},
		{RoomID: testRoomB, ElectricityNew: i64(100), WaterNew: i64(10)},
	}}
	w := serve("POST", "/cycles/:cycleId/record-readings", "/cycles/"+testCycleID+"/record-readings", jsonBody(body),
		withAuth("mgr-1", model.RoleManager, h.RecordReadings))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		Code int                        `json:"code"`
		Data dto.RecordReadingsResponse `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Data.Total != 2 || resp.Data.Succeeded != 1 || resp.Data.Failed != 1 {
		t.Errorf("unexpected summary: %+v", resp.Data)
	}
	if r := resp.Data.Results[0]; !r.Success || r.Amount == nil || *r.Amount != 197500 {
		t.Errorf("first room should succeed with amount 197500: %+v", r)
	}
	if r := resp.Data.Results[1]; r.Success || r.ErrorCode != 18007 {
		t.Errorf("second room should fail with 18007: %+v", r)
	}
}

func TestUtilityHandler_RecordReadings_EmptyBody(t *testing.T) {
	h := NewUtilityHandler(&mockUtilityService{})

	w := serve("POST", "/cycles/:cycleId/record-readings", "/cycles/"+testCycleID+"/record-readings",
		jsonBody(dto.RecordReadingsRequest{}), withAuth("mgr-1", model.RoleManager, h.RecordReadings))

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestUtilityHandler_RecordReadings_MissingNewReadings(t *testing.T) {
	mock := &mockUtilityService{}
	h := NewUtilityHandler(mock)

	bodies := []string{
		`{"readings":[{"room_id":"` + testRoomA + `"}]}`,
		`{"readings":[{"room_id":"` + testRoomA + `","electricity_new":150}]}`,
		`{"readings":[{"room_id":"` + testRoomA + `","water_new":15}]}`,
	}
	for _, body := range bodies {
		w := serve("POST", "/cycles/:cycleId/record-readings", "/cycles/"+testCycleID+"/record-readings",
			strings.NewReader(body), withAuth("mgr-1", model.RoleManager, h.RecordReadings))
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", body, w.Code)
		}
	}
	if mock.batchCalled {
		t.Error("service should not be called when new readings are missing")
	}
}

func TestUtilityHandler_RecordReading_ZeroIsValid(t *testing.T) {
	mock := &mockUtilityService{recordResult: &dto.UtilityInvoiceResponse{RoomID: testRoomA}}
	h := NewUtilityHandler(mock)

	w := serve("PUT", "/cycles/:cycleId/rooms/:roomId/reading", "/cycles/"+testCycleID+"/rooms/"+testRoomA+"/reading",
		strings.NewReader(`{"electricity_new":0,"water_new":0}`), withAuth("mgr-1", model.RoleManager, h.RecordReading))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for explicit zero readings, got %d", w.Code)
	}
	if mock.lastReading == nil || mock.lastReading.WaterNew == nil || *mock.lastReading.WaterNew != 0 {
		t.Errorf("zero reading not passed through: %+v", mock.lastReading)
	}
}

func TestUtilityHandler_RecordReading_MissingNewReading(t *testing.T) {
	mock := &mockUtilityService{}
	h := NewUtilityHandler(mock)

	w := serve("PUT", "/cycles/:cycleId/rooms/:roomId/reading", "/cycles/"+testCycleID+"/rooms/"+testRoomA+"/reading",
		strings.NewReader(`{"electricity_new":150}`), withAuth("mgr-1", model.RoleManager, h.RecordReading))

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	if mock.lastReading != nil {
		t.Error("service should not be called when water_new is missing")
	}
}

func TestUtilityHandler_RecordReading_RoomFromPath(t *testing.T) {
	mock := &mockUtilityService{recordResult: &dto.UtilityInvoiceResponse{RoomID: testRoomA}}
	h := NewUtilityHandler(mock)

	w := serve("PUT", "/cycles/:cycleId/rooms/:roomId/reading", "/cycles/"+testCycleID+"/rooms/"+testRoomA+"/reading",
		jsonBody(dto.RecordReadingRequest{ElectricityNew: i64(150), WaterNew: i64(15)}),
		withAuth("mgr-1", model.RoleManager, h.RecordReading))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if mock.lastReading == nil || mock.lastReading.RoomID != testRoomA || *mock.lastReading.ElectricityNew != 150 {
		t.Errorf("reading not passed through: %+v", mock.lastReading)
	}
}

func TestUtilityHandler_RecordReading_Published(t *testing.T) {
	h := NewUtilityHandler(&mockUtilityService{recordErr: service.ErrCyclePublished})

	w := serve("PUT", "/cycles/:cycleId/rooms/:roomId/reading", "/cycles/"+testCycleID+"/rooms/"+testRoomA+"/reading",
		jsonBody(dto.RecordReadingRequest{ElectricityNew: i64(150), WaterNew: i64(15)}),
		withAuth("mgr-1", model.RoleManager, h.RecordReading))

	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 18003 {
		t.Errorf("expected error code 18003, got %d", resp.Code)
	}
}

func TestUtilityHandler_Publish_Incomplete(t *testing.T) {
	h := NewUtilityHandler(&mockUtilityService{publishErr: &service.IncompletePublishError{Count: 2}})

	w := serve("POST", "/cycles/:cycleId/publish", "/cycles/"+testCycleID+"/publish", nil,
		withAuth("mgr-1", model.RoleManager, h.Publish))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 18008 {
		t.Errorf("expected error code 18008, got %d", resp.Code)
	}
	data, _ := resp.Data.(map[string]interface{})
	if data["unrecorded"] != float64(2) {
		t.Errorf("expected unrecorded=2, got %v", resp.Data)
	}
}

func TestUtilityHandler_Publish_Errors(t *testing.T) {
	cases := []struct {
		err        error
		wantStatus int
		wantCode   int
	}{
		{service.ErrCycleNotFound, http.StatusNotFound, 18001},
		{service.ErrCycleAlreadyPublished, http.StatusConflict, 18004},
		{service.ErrServicePriceMissing, http.StatusBadRequest, 18006},
		{fmt.Errorf("publish: %w", pkgerrors.ErrOptimisticLock), http.StatusConflict, 10006},
		{io.ErrUnexpectedEOF, http.StatusInternalServerError, 50000},
	}
	for _, tc := range cases {
		h := NewUtilityHandler(&mockUtilityService{publishErr: tc.err})

		w := serve("POST", "/cycles/:cycleId/publish", "/cycles/"+testCycleID+"/publish", nil,
			withAuth("mgr-1", model.RoleManager, h.Publish))

		if w.Code != tc.wantStatus {
			t.Errorf("%v: expected %d, got %d", tc.err, tc.wantStatus, w.Code)
		}
		if resp := parseResponse(w); resp.Code != tc.wantCode {
			t.Errorf("%v: expected code %d, got %d", tc.err, tc.wantCode, resp.Code)
		}
	}
}

func TestUtilityHandler_Publish_Success(t *testing.T) {
	h := NewUtilityHandler(&mockUtilityService{publishResult: &dto.PublishCycleResponse{CycleID: testCycleID, InvoicesCreated: 10}})

	w := serve("POST", "/cycles/:cycleId/publish", "/cycles/"+testCycleID+"/publish", nil,
		withAuth("mgr-1", model.RoleManager, h.Publish))

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestUtilityHandler_MarkReady_NotDraft(t *testing.T) {
	h := NewUtilityHandler(&mockUtilityService{cycleErr: service.ErrCycleNotDraft})

	w := serve("PUT", "/cycles/:cycleId/ready", "/cycles/"+testCycleID+"/ready", nil,
		withAuth("mgr-1", model.RoleManager, h.MarkReady))

	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// InvoiceHandler Tests
// ═══════════════════════════════════════════════════════════

func TestInvoiceHandler_List_PassesRole(t *testing.T) {
	mock := &mockInvoiceService{listResult: &dto.PageResult[dto.InvoiceResponse]{
		List:     []dto.InvoiceResponse{{ID: "inv-1", InvoiceCode: "UTIL-202506-0001"}},
		Total:    1,
		Page:     1,
		PageSize: 20,
	}}
	h := NewInvoiceHandler(mock)

	w := serve("GET", "/invoices", "/invoices?category=UTILITY_FEE", nil,
		withAuth(testStudent, model.RoleStudent, h.ListInvoices))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if mock.lastRole != model.RoleStudent {
		t.Errorf("expected role student passed to service, got %q", mock.lastRole)
	}
	var resp struct {
		Data response.PageData `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Data.Pagination.Total != 1 || resp.Data.Pagination.TotalPages != 1 {
		t.Errorf("unexpected pagination: %+v", resp.Data.Pagination)
	}
}

func TestInvoiceHandler_List_BadCategory(t *testing.T) {
	h := NewInvoiceHandler(&mockInvoiceService{})

	w := serve("GET", "/invoices", "/invoices?category=FOOD", nil,
		withAuth(testStudent, model.RoleStudent, h.ListInvoices))

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestInvoiceHandler_Get_Forbidden(t *testing.T) {
	h := NewInvoiceHandler(&mockInvoiceService{getErr: service.ErrInvoiceForbidden})

	w := serve("GET", "/invoices/:id", "/invoices/inv-1", nil,
		withAuth(testStudent, model.RoleStudent, h.GetInvoice))

	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 19002 {
		t.Errorf("expected error code 19002, got %d", resp.Code)
	}
}

func TestInvoiceHandler_UpdateStatus(t *testing.T) {
	cases := []struct {
		name       string
		body       interface{}
		err        error
		wantStatus int
	}{
		{"ok", dto.UpdateInvoiceStatusRequest{Status: model.InvoiceStatusPaid}, nil, http.StatusOK},
		{"bad status", dto.UpdateInvoiceStatusRequest{Status: "DRAFT"}, nil, http.StatusBadRequest},
		{"transition", dto.UpdateInvoiceStatusRequest{Status: model.InvoiceStatusPaid}, service.ErrInvoiceTransition, http.StatusConflict},
		{"not found", dto.UpdateInvoiceStatusRequest{Status: model.InvoiceStatusPaid}, service.ErrInvoiceNotFound, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewInvoiceHandler(&mockInvoiceService{getResult: &dto.InvoiceResponse{ID: "inv-1"}, updateErr: tc.err})

			w := serve("PUT", "/invoices/:id/status", "/invoices/inv-1/status", jsonBody(tc.body),
				withAuth("mgr-1", model.RoleManager, h.UpdateStatus))

			if w.Code != tc.wantStatus {
				t.Errorf("expected %d, got %d", tc.wantStatus, w.Code)
			}
		})
	}
}

func TestInvoiceHandler_CreateOther(t *testing.T) {
	student := testStudent
	h := NewInvoiceHandler(&mockInvoiceService{getResult: &dto.InvoiceResponse{ID: "inv-1", InvoiceCode: "OTHER-202506-0001"}})

	w := serve("POST", "/invoices", "/invoices", jsonBody(dto.CreateOtherInvoiceRequest{
		Description: "损坏桌椅赔偿",
		TotalAmount: 200000,
		StudentID:   &student,
	}), withAuth("mgr-1", model.RoleManager, h.CreateOther))

	if w.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", w.Code)
	}
}

func TestInvoiceHandler_CreateOther_TargetRequired(t *testing.T) {
	h := NewInvoiceHandler(&mockInvoiceService{createErr: service.ErrInvoiceTargetRequired})

	w := serve("POST", "/invoices", "/invoices", jsonBody(dto.CreateOtherInvoiceRequest{
		Description: "杂费",
		TotalAmount: 1000,
	}), withAuth("mgr-1", model.RoleManager, h.CreateOther))

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 19005 {
		t.Errorf("expected error code 19005, got %d", resp.Code)
	}
}

func TestInvoiceHandler_BillRoomFees_Race(t *testing.T) {
	h := NewInvoiceHandler(&mockInvoiceService{billErr: service.ErrRoomFeeBillingRace})

	w := serve("POST", "/invoices/room-fees", "/invoices/room-fees",
		jsonBody(dto.BillRoomFeesRequest{SemesterID: testCycleID}),
		withAuth("mgr-1", model.RoleManager, h.BillRoomFees))

	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// SupportRequestHandler Tests
// ═══════════════════════════════════════════════════════════

func TestSupportRequestHandler_Create(t *testing.T) {
	h := NewSupportRequestHandler(&mockSupportRequestService{result: &dto.SupportRequestResponse{ID: "sr-1", Status: model.SupportStatusPending}})

	w := serve("POST", "/support-requests", "/support-requests", jsonBody(dto.CreateSupportRequestRequest{
		Type:    "REPAIR",
		Title:   "灯坏了",
		Content: "宿舍顶灯不亮",
	}), withAuth(testStudent, model.RoleStudent, h.Create))

	if w.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", w.Code)
	}
}

func TestSupportRequestHandler_Create_BadType(t *testing.T) {
	h := NewSupportRequestHandler(&mockSupportRequestService{})

	w := serve("POST", "/support-requests", "/support-requests", jsonBody(dto.CreateSupportRequestRequest{
		Type:    "PARTY",
		Title:   "x",
		Content: "y",
	}), withAuth(testStudent, model.RoleStudent, h.Create))

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestSupportRequestHandler_Errors(t *testing.T) {
	cases := []struct {
		err        error
		wantStatus int
		wantCode   int
	}{
		{service.ErrSupportRequestNotFound, http.StatusNotFound, 20001},
		{service.ErrSupportRequestForbidden, http.StatusForbidden, 20002},
		{service.ErrSupportRequestLocked, http.StatusConflict, 20004},
	}
	for _, tc := range cases {
		h := NewSupportRequestHandler(&mockSupportRequestService{deleteErr: tc.err})

		w := serve("DELETE", "/support-requests/:id", "/support-requests/sr-1", nil,
			withAuth(testStudent, model.RoleStudent, h.Delete))

		if w.Code != tc.wantStatus {
			t.Errorf("%v: expected %d, got %d", tc.err, tc.wantStatus, w.Code)
		}
		if resp := parseResponse(w); resp.Code != tc.wantCode {
			t.Errorf("%v: expected code %d, got %d", tc.err, tc.wantCode, resp.Code)
		}
	}
}

// ═══════════════════════════════════════════════════════════
// NotificationHandler Tests
// ═══════════════════════════════════════════════════════════

func TestNotificationHandler_ListDeadLetters_Limit(t *testing.T) {
	mock := &mockNotificationService{letters: []dto.DeadLetter{{Kind: "user", Title: "t"}}}
	h := NewNotificationHandler(mock)

	w := serve("GET", "/dead-letters", "/dead-letters?limit=5", nil,
		withAuth("admin-1", model.RoleAdmin, h.ListDeadLetters))

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if mock.lastLimit != 5 {
		t.Errorf("expected limit 5, got %d", mock.lastLimit)
	}
}

func TestNotificationHandler_ListDeadLetters_Unavailable(t *testing.T) {
	h := NewNotificationHandler(&mockNotificationService{err: service.ErrDeadLetterUnavailable})

	w := serve("GET", "/dead-letters", "/dead-letters", nil,
		withAuth("admin-1", model.RoleAdmin, h.ListDeadLetters))

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", w.Code)
	}
}

func TestNotificationHandler_MarkRead_NotFound(t *testing.T) {
	h := NewNotificationHandler(&mockNotificationService{err: service.ErrNotificationNotFound})

	w := serve("PUT", "/notifications/:id/read", "/notifications/n-1/read", nil,
		withAuth(testStudent, model.RoleStudent, h.MarkRead))

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// ExportHandler Tests
// ═══════════════════════════════════════════════════════════

func TestExportHandler_ExportCycleInvoices(t *testing.T) {
	h := NewExportHandler(&mockExportService{
		buf:      bytes.NewBufferString("xlsx-bytes"),
		filename: "水电账单_2025-06.xlsx",
	})

	w := serve("GET", "/cycles/:cycleId/export", "/cycles/"+testCycleID+"/export", nil, h.ExportCycleInvoices)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != xlsxContentType {
		t.Errorf("unexpected content type %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment; filename*=UTF-8''") {
		t.Errorf("unexpected content disposition %q", cd)
	}
	if w.Body.String() != "xlsx-bytes" {
		t.Errorf("unexpected body %q", w.Body.String())
	}
}

func TestExportHandler_NoItems(t *testing.T) {
	h := NewExportHandler(&mockExportService{err: service.ErrExportNoItems})

	w := serve("GET", "/cycles/:cycleId/export", "/cycles/"+testCycleID+"/export", nil, h.ExportCycleInvoices)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 18009 {
		t.Errorf("expected error code 18009, got %d", resp.Code)
	}
}
