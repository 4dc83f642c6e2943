package dto

// ── 宿舍楼 / 房间 / 用户 DTO ──

// CreateBuildingRequest 创建宿舍楼请求
type CreateBuildingRequest struct {
	Name    string `json:"name"    binding:"required,min=1,max=100"`
	Gender  string `json:"gender"  binding:"omitempty,oneof=MALE FEMALE MIXED"`
	Address string `json:"address" binding:"omitempty,max=255"`
}

// AssignManagersRequest 覆盖宿舍楼管理员集合
type AssignManagersRequest struct {
	ManagerIDs []string `json:"manager_ids" binding:"omitempty,dive,uuid"`
}

// BuildingResponse 宿舍楼信息
type BuildingResponse struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Gender   string      `json:"gender"`
	Address  string      `json:"address,omitempty"`
	Managers []UserBrief `json:"managers,omitempty"`
}

// CreateRoomRequest 创建房间请求
type CreateRoomRequest struct {
	BuildingID       string `json:"building_id"        binding:"required,uuid"`
	RoomNumber       string `json:"room_number"        binding:"required,min=1,max=20"`
	Floor            int    `json:"floor"              binding:"omitempty,min=0"`
	Capacity         int    `json:"capacity"           binding:"required,min=1"`
	PricePerSemester int64  `json:"price_per_semester" binding:"min=0"`
	Status           string `json:"status"             binding:"omitempty,oneof=AVAILABLE MAINTENANCE"`
}

// ListRoomsRequest 房间列表筛选
type ListRoomsRequest struct {
	BuildingID string `form:"building_id" binding:"omitempty,uuid"`
	Status     string `form:"status"      binding:"omitempty,oneof=AVAILABLE MAINTENANCE"`
}

// RoomResponse 房间信息
type RoomResponse struct {
	ID               string `json:"id"`
	BuildingID       string `json:"building_id"`
	BuildingName     string `json:"building_name,omitempty"`
	RoomNumber       string `json:"room_number"`
	Floor            int    `json:"floor"`
	Capacity         int    `json:"capacity"`
	PricePerSemester int64  `json:"price_per_semester"`
	Status           string `json:"status"`
}

// CreateUserRequest 创建用户请求（账号由身份服务管理，这里只登记档案）
type CreateUserRequest struct {
	FullName    string  `json:"full_name"    binding:"required,min=1,max=100"`
	Email       string  `json:"email"        binding:"required,email"`
	StudentCode *string `json:"student_code" binding:"omitempty,max=20"`
	Phone       *string `json:"phone"        binding:"omitempty,max=20"`
	Role        string  `json:"role"         binding:"required,oneof=student manager admin"`
}

// ListUsersRequest 用户列表筛选
type ListUsersRequest struct {
	PaginationRequest
	Role string `form:"role" binding:"omitempty,oneof=student manager admin"`
}

// UserResponse 用户信息
type UserResponse struct {
	ID          string  `json:"id"`
	FullName    string  `json:"full_name"`
	Email       string  `json:"email"`
	StudentCode *string `json:"student_code,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	Role        string  `json:"role"`
}

// UserBrief 用户简要信息
type UserBrief struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
}
