package dto

// ── 学期模块 DTO ──

// CreateSemesterRequest 创建学期请求
type CreateSemesterRequest struct {
	Term                     string  `json:"term"                       binding:"required,oneof=1 2 SUMMER"`
	AcademicYear             string  `json:"academic_year"              binding:"required,min=9,max=20"` // "2025-2026"
	StartDate                string  `json:"start_date"                 binding:"required"`              // "2025-09-01"
	EndDate                  string  `json:"end_date"                   binding:"required"`
	RegistrationStart        *string `json:"registration_start"`
	RegistrationEnd          *string `json:"registration_end"`
	SpecialRegistrationStart *string `json:"special_registration_start"`
	SpecialRegistrationEnd   *string `json:"special_registration_end"`
	RenewalStart             *string `json:"renewal_start"`
	RenewalEnd               *string `json:"renewal_end"`
	IsActive                 bool    `json:"is_active"`
}

// UpdateSemesterRequest 更新学期请求（仅允许更新当前激活的学期）
type UpdateSemesterRequest struct {
	Term                     *string `json:"term"          binding:"omitempty,oneof=1 2 SUMMER"`
	AcademicYear             *string `json:"academic_year" binding:"omitempty,min=9,max=20"`
	StartDate                *string `json:"start_date"`
	EndDate                  *string `json:"end_date"`
	RegistrationStart        *string `json:"registration_start"`
	RegistrationEnd          *string `json:"registration_end"`
	SpecialRegistrationStart *string `json:"special_registration_start"`
	SpecialRegistrationEnd   *string `json:"special_registration_end"`
	RenewalStart             *string `json:"renewal_start"`
	RenewalEnd               *string `json:"renewal_end"`
}

// SemesterResponse 学期信息响应
type SemesterResponse struct {
	ID                       string  `json:"id"`
	Term                     string  `json:"term"`
	AcademicYear             string  `json:"academic_year"`
	StartDate                string  `json:"start_date"`
	EndDate                  string  `json:"end_date"`
	RegistrationStart        *string `json:"registration_start,omitempty"`
	RegistrationEnd          *string `json:"registration_end,omitempty"`
	SpecialRegistrationStart *string `json:"special_registration_start,omitempty"`
	SpecialRegistrationEnd   *string `json:"special_registration_end,omitempty"`
	RenewalStart             *string `json:"renewal_start,omitempty"`
	RenewalEnd               *string `json:"renewal_end,omitempty"`
	IsActive                 bool    `json:"is_active"`
	CreatedAt                string  `json:"created_at"`
	UpdatedAt                string  `json:"updated_at"`
}
