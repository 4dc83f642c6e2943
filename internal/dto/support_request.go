package dto

// ── 支持请求 DTO ──

// CreateSupportRequestRequest 学生提交支持请求
type CreateSupportRequestRequest struct {
	Type           string  `json:"type"            binding:"required,oneof=REPAIR COMPLAINT PROPOSAL OTHER"`
	Title          string  `json:"title"           binding:"required,min=1,max=200"`
	Content        string  `json:"content"         binding:"required,min=1"`
	AttachmentPath *string `json:"attachment_path" binding:"omitempty,max=255"`
}

// UpdateSupportRequestRequest 更新支持请求
// 学生只能修改前四项；管理人员只能修改状态与回复
type UpdateSupportRequestRequest struct {
	Type            *string `json:"type"             binding:"omitempty,oneof=REPAIR COMPLAINT PROPOSAL OTHER"`
	Title           *string `json:"title"            binding:"omitempty,min=1,max=200"`
	Content         *string `json:"content"          binding:"omitempty,min=1"`
	AttachmentPath  *string `json:"attachment_path"  binding:"omitempty,max=255"`
	Status          *string `json:"status"           binding:"omitempty,oneof=PENDING PROCESSING DONE REJECTED"`
	ResponseContent *string `json:"response_content"`
}

// ListSupportRequestsRequest 支持请求列表筛选
type ListSupportRequestsRequest struct {
	PaginationRequest
	Status    string `form:"status"     binding:"omitempty,oneof=PENDING PROCESSING DONE REJECTED"`
	Type      string `form:"type"       binding:"omitempty,oneof=REPAIR COMPLAINT PROPOSAL OTHER"`
	StudentID string `form:"student_id" binding:"omitempty,uuid"`
}

// SupportRequestResponse 支持请求
type SupportRequestResponse struct {
	ID              string  `json:"id"`
	StudentID       string  `json:"student_id"`
	StudentName     string  `json:"student_name,omitempty"`
	Type            string  `json:"type"`
	Title           string  `json:"title"`
	Content         string  `json:"content"`
	AttachmentPath  *string `json:"attachment_path,omitempty"`
	Status          string  `json:"status"`
	ManagerID       *string `json:"manager_id,omitempty"`
	ResponseContent *string `json:"response_content,omitempty"`
	RespondedAt     string  `json:"responded_at,omitempty"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
}
