package dto

// ── 水电账单模块 DTO ──

// CreateCycleRequest 创建抄表周期
type CreateCycleRequest struct {
	Month int `json:"month" binding:"required,min=1,max=12"`
	Year  int `json:"year"  binding:"required,min=2000,max=2100"`
}

// CycleResponse 抄表周期
type CycleResponse struct {
	ID          string `json:"id"`
	Month       int    `json:"month"`
	Year        int    `json:"year"`
	Status      string `json:"status"`
	PublishedAt string `json:"published_at,omitempty"`
	Version     int    `json:"version"`
	CreatedAt   string `json:"created_at"`
}

// MeterReading 单个房间的抄表读数，*_old 缺省时取上期读数，*_new 必填
type MeterReading struct {
	RoomID         string `json:"room_id"         binding:"required,uuid"`
	ElectricityOld *int64 `json:"electricity_old" binding:"omitempty,min=0"`
	ElectricityNew *int64 `json:"electricity_new" binding:"required,min=0"`
	WaterOld       *int64 `json:"water_old"       binding:"omitempty,min=0"`
	WaterNew       *int64 `json:"water_new"       binding:"required,min=0"`
}

// RecordReadingRequest 单个房间录入（房间取自路径）
type RecordReadingRequest struct {
	ElectricityOld *int64 `json:"electricity_old" binding:"omitempty,min=0"`
	ElectricityNew *int64 `json:"electricity_new" binding:"required,min=0"`
	WaterOld       *int64 `json:"water_old"       binding:"omitempty,min=0"`
	WaterNew       *int64 `json:"water_new"       binding:"required,min=0"`
}

// RecordReadingsRequest 批量录入
type RecordReadingsRequest struct {
	Readings []MeterReading `json:"readings" binding:"required,min=1,dive"`
}

// ReadingResult 批量录入中单个房间的结果
type ReadingResult struct {
	RoomID    string `json:"room_id"`
	Success   bool   `json:"success"`
	Amount    *int64 `json:"amount,omitempty"`
	ErrorCode int    `json:"error_code,omitempty"`
	Error     string `json:"error,omitempty"`
}

// RecordReadingsResponse 批量录入结果汇总
type RecordReadingsResponse struct {
	Total     int             `json:"total"`
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
	Results   []ReadingResult `json:"results"`
}

// UtilityInvoiceResponse 房间水电账单
type UtilityInvoiceResponse struct {
	ID             string   `json:"id"`
	CycleID        string   `json:"cycle_id"`
	RoomID         string   `json:"room_id"`
	RoomNumber     string   `json:"room_number,omitempty"`
	BuildingID     string   `json:"building_id,omitempty"`
	BuildingName   string   `json:"building_name,omitempty"`
	StudentNames   []string `json:"student_names"`
	ElectricityOld *int64   `json:"electricity_old"`
	ElectricityNew *int64   `json:"electricity_new"`
	WaterOld       *int64   `json:"water_old"`
	WaterNew       *int64   `json:"water_new"`
	Amount         int64    `json:"amount"`
	Status         string   `json:"status"`
	InvoiceID      *string  `json:"invoice_id,omitempty"`
	RecordedAt     string   `json:"recorded_at,omitempty"`
}

// ListCycleInvoicesRequest 周期账单筛选
type ListCycleInvoicesRequest struct {
	BuildingID string `form:"buildingId" binding:"omitempty,uuid"`
}

// PublishCycleResponse 发布结果
type PublishCycleResponse struct {
	CycleID         string `json:"cycle_id"`
	InvoicesCreated int    `json:"invoices_created"`
	PublishedAt     string `json:"published_at"`
}
