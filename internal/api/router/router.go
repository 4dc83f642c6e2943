package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/config"
	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/internal/api/handler"
	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/internal/api/middleware"
	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/pkg/jwt"
	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/pkg/metrics"
	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/pkg/redis"
)

// Deps 路由依赖
// Redis、DB、Metrics 均可为 nil，对应功能降级
type Deps struct {
	Config   *config.Config
	Handler  *handler.Handler
	JWT      *jwt.Manager
	Redis    *redis.Client
	DB       *gorm.DB
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger
}

// Setup 初始化并返回 Gin 路由引擎
func Setup(d Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	cfg, h := d.Config, d.Handler
	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimitBytes))
	r.Use(middleware.Metrics(d.Metrics))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		if d.DB != nil {
			sqlDB, err := d.DB.DB()
			if err == nil {
				err = sqlDB.PingContext(c.Request.Context())
			}
			if err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db_unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	// ── API v1（全部需要认证）──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(d.JWT))
	v1.Use(middleware.WriteRateLimit(d.Redis, cfg.RateLimit.Requests, cfg.RateLimit.Window))
	{
		staff := middleware.StaffOnly()
		admin := middleware.RoleAuth("admin")

		// 学期模块
		semesters := v1.Group("/semesters")
		{
			semesters.GET("", h.Semester.ListSemesters)
			semesters.GET("/current", h.Semester.GetCurrentSemester)
			semesters.GET("/:id", h.Semester.GetSemester)
			semesters.GET("/:id/calendar.ics", h.Semester.ExportCalendar)
			semesters.POST("", admin, h.Semester.CreateSemester)
			semesters.PUT("/:id", admin, h.Semester.UpdateSemester)
			semesters.PUT("/:id/activate", admin, h.Semester.ActivateSemester)
			semesters.DELETE("/:id", admin, h.Semester.DeleteSemester)
		}

		// 宿舍楼与房间
		buildings := v1.Group("/buildings")
		{
			buildings.GET("", staff, h.Building.ListBuildings)
			buildings.GET("/:id", staff, h.Building.GetBuilding)
			buildings.POST("", admin, h.Building.CreateBuilding)
			buildings.PUT("/:id/managers", admin, h.Building.AssignManagers)
		}
		rooms := v1.Group("/rooms")
		{
			rooms.GET("", staff, h.Building.ListRooms)
			rooms.GET("/:id", staff, h.Building.GetRoom)
			rooms.POST("", admin, h.Building.CreateRoom)
		}

		// 用户模块
		users := v1.Group("/users")
		{
			users.GET("/me", h.User.GetCurrentUser)
			users.GET("", admin, h.User.ListUsers)
			users.GET("/:id", admin, h.User.GetUser)
			users.POST("", admin, h.User.CreateUser)
		}

		// 住宿登记
		stays := v1.Group("/stays")
		{
			stays.GET("/me", h.Stay.GetMyStay)
			stays.GET("/students/:studentId/active", staff, h.Stay.GetStudentActiveStay)
			stays.GET("", staff, h.Stay.ListStays)
			stays.POST("", staff, h.Stay.CreateStay)
			stays.PUT("/:id/end", staff, h.Stay.EndStay)
			stays.PUT("/:id/status", staff, h.Stay.UpdateStayStatus)
		}

		// 服务单价
		prices := v1.Group("/service-prices")
		{
			prices.GET("", staff, h.ServicePrice.ListPrices)
			prices.POST("", staff, h.ServicePrice.CreatePrice)
			prices.GET("/:name/current", staff, h.ServicePrice.GetCurrentPrice)
		}

		// 水电抄表
		cycles := v1.Group("/utility-invoices/cycles", staff)
		{
			cycles.POST("", h.Utility.CreateCycle)
			cycles.GET("", h.Utility.ListCycles)
			cycles.GET("/:cycleId", h.Utility.GetCycle)
			cycles.POST("/:cycleId/record-readings", h.Utility.RecordReadings)
			cycles.PUT("/:cycleId/rooms/:roomId/reading", h.Utility.RecordReading)
			cycles.PUT("/:cycleId/ready", h.Utility.MarkReady)
			cycles.POST("/:cycleId/publish", h.Utility.Publish)
			cycles.GET("/:cycleId/invoices", h.Utility.ListInvoices)
			cycles.GET("/:cycleId/export", h.Export.ExportCycleInvoices)
		}

		// 账单（学生可查看自己的账单，Service 层过滤）
		invoices := v1.Group("/invoices")
		{
			invoices.GET("", h.Invoice.ListInvoices)
			invoices.GET("/:id", h.Invoice.GetInvoice)
			invoices.POST("", staff, h.Invoice.CreateOther)
			invoices.POST("/room-fees", staff, h.Invoice.BillRoomFees)
			invoices.PUT("/:id/status", staff, h.Invoice.UpdateStatus)
		}

		// 支持请求（所有权判断在 Service 层）
		support := v1.Group("/support-requests")
		{
			support.POST("", h.SupportRequest.Create)
			support.GET("", h.SupportRequest.List)
			support.GET("/:id", h.SupportRequest.Get)
			support.PUT("/:id", h.SupportRequest.Update)
			support.DELETE("/:id", h.SupportRequest.Delete)
		}

		// 通知
		notifications := v1.Group("/notifications")
		{
			notifications.GET("/me", h.Notification.ListMine)
			notifications.PUT("/:id/read", h.Notification.MarkRead)
			notifications.GET("/dead-letters", admin, h.Notification.ListDeadLetters)
		}
	}

	return r
}
