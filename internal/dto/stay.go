package dto

// ── 住宿模块 DTO ──

// CreateStayRequest 办理入住
type CreateStayRequest struct {
	StudentID  string `json:"student_id"  binding:"required,uuid"`
	RoomID     string `json:"room_id"     binding:"required,uuid"`
	SemesterID string `json:"semester_id" binding:"required,uuid"`
	StartDate  string `json:"start_date"  binding:"required"`
}

// EndStayRequest 办理退宿
type EndStayRequest struct {
	EndDate string `json:"end_date" binding:"required"`
}

// UpdateStayStatusRequest 修改住宿状态
type UpdateStayStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=ACTIVE ENDED CANCELLED"`
}

// ListStaysRequest 住宿列表筛选
type ListStaysRequest struct {
	PaginationRequest
	SemesterID string `form:"semester_id" binding:"omitempty,uuid"`
	BuildingID string `form:"building_id" binding:"omitempty,uuid"`
	StudentID  string `form:"student_id"  binding:"omitempty,uuid"`
	Status     string `form:"status"      binding:"omitempty,oneof=ACTIVE ENDED CANCELLED"`
}

// StayResponse 住宿记录
type StayResponse struct {
	ID           string `json:"id"`
	StudentID    string `json:"student_id"`
	StudentName  string `json:"student_name,omitempty"`
	RoomID       string `json:"room_id"`
	RoomNumber   string `json:"room_number,omitempty"`
	BuildingID   string `json:"building_id,omitempty"`
	BuildingName string `json:"building_name,omitempty"`
	SemesterID   string `json:"semester_id"`
	Term         string `json:"term,omitempty"`
	AcademicYear string `json:"academic_year,omitempty"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date,omitempty"`
	Status       string `json:"status"`
}
