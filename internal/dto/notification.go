package dto

// ── 通知模块 DTO ──

// ListNotificationsRequest 我的通知
type ListNotificationsRequest struct {
	PaginationRequest
	UnreadOnly bool `form:"unread_only"`
}

// NotificationResponse 收件箱中的一条通知
type NotificationResponse struct {
	ID             string `json:"id"` // 接收记录 ID，用于标记已读
	NotificationID string `json:"notification_id"`
	SenderRole     string `json:"sender_role"`
	SenderID       string `json:"sender_id"`
	TargetScope    string `json:"target_scope"`
	Type           string `json:"type"`
	Title          string `json:"title"`
	Content        string `json:"content"`
	IsRead         bool   `json:"is_read"`
	ReadAt         string `json:"read_at,omitempty"`
	CreatedAt      string `json:"created_at"`
}

// DeadLetter 分发失败的通知
type DeadLetter struct {
	Kind        string   `json:"kind"` // building_managers | user
	SenderID    string   `json:"sender_id"`
	RecipientID string   `json:"recipient_id,omitempty"`
	Type        string   `json:"type"`
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	Error       string   `json:"error"`
	Recipients  []string `json:"recipients,omitempty"`
	FailedAt    string   `json:"failed_at"`
}
