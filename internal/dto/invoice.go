package dto

// ── 账单模块 DTO ──

// ListInvoicesRequest 账单列表筛选
type ListInvoicesRequest struct {
	PaginationRequest
	Category  string `form:"category"   binding:"omitempty,oneof=ROOM_FEE UTILITY_FEE OTHER"`
	Status    string `form:"status"     binding:"omitempty,oneof=DRAFT PUBLISHED PAID OVERDUE CANCELLED"`
	StudentID string `form:"student_id" binding:"omitempty,uuid"`
	RoomID    string `form:"room_id"    binding:"omitempty,uuid"`
	CycleID   string `form:"cycle_id"   binding:"omitempty,uuid"`
}

// CreateOtherInvoiceRequest 其他费用账单
type CreateOtherInvoiceRequest struct {
	Description string  `json:"description"  binding:"required,min=1,max=255"`
	TotalAmount int64   `json:"total_amount" binding:"required,gt=0"`
	StudentID   *string `json:"student_id"   binding:"omitempty,uuid"`
	RoomID      *string `json:"room_id"      binding:"omitempty,uuid"`
	DueDate     *string `json:"due_date"`
	Publish     bool    `json:"publish"`
}

// UpdateInvoiceStatusRequest 账单状态变更
type UpdateInvoiceStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=PUBLISHED PAID OVERDUE CANCELLED"`
}

// BillRoomFeesRequest 按学期生成住宿费账单
type BillRoomFeesRequest struct {
	SemesterID string `json:"semester_id" binding:"required,uuid"`
}

// BillRoomFeesResponse 住宿费出账结果
type BillRoomFeesResponse struct {
	SemesterID string   `json:"semester_id"`
	Created    int      `json:"created"`
	Skipped    int      `json:"skipped"`
	Codes      []string `json:"invoice_codes"`
}

// InvoiceResponse 账单信息
type InvoiceResponse struct {
	ID               string  `json:"id"`
	InvoiceCode      string  `json:"invoice_code"`
	Category         string  `json:"category"`
	TotalAmount      int64   `json:"total_amount"`
	Status           string  `json:"status"`
	StudentID        *string `json:"student_id,omitempty"`
	RoomID           *string `json:"room_id,omitempty"`
	SemesterID       *string `json:"semester_id,omitempty"`
	CycleID          *string `json:"cycle_id,omitempty"`
	UtilityInvoiceID *string `json:"utility_invoice_id,omitempty"`
	Description      string  `json:"description,omitempty"`
	DueDate          string  `json:"due_date,omitempty"`
	PublishedAt      string  `json:"published_at,omitempty"`
	PaidAt           string  `json:"paid_at,omitempty"`
	CreatedAt        string  `json:"created_at"`
}
