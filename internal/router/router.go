package router

import (
	"time"

	"clinicflow/internal/config"
	"clinicflow/internal/handler"
	"clinicflow/internal/infra"
	"clinicflow/internal/middleware"
	"clinicflow/internal/model"
	"clinicflow/internal/repository"
	"clinicflow/internal/service"
	"clinicflow/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps bundles the router's external dependencies; the worker handlers are
// returned so main can start the pool against the same wiring.
type Deps struct {
	Cfg   *config.Config
	DB    *gorm.DB
	RDB   *redis.Client
	Cache *infra.Cache
}

// New wires all dependencies and returns a configured Gin engine plus the
// worker handlers. Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(d Deps) (*gin.Engine, worker.Handlers) {
	cfg := d.Cfg
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.Metrics())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(d.DB)
	clinicRepo := repository.NewClinicRepository(d.DB)
	patientRepo := repository.NewPatientRepository(d.DB)
	apptRepo := repository.NewAppointmentRepository(d.DB)
	recordRepo := repository.NewRecordRepository(d.DB)
	prescriptionRepo := repository.NewPrescriptionRepository(d.DB)
	itemRepo := repository.NewInventoryItemRepository(d.DB)
	txnRepo := repository.NewInventoryTxnRepository(d.DB)
	alertRepo := repository.NewStockAlertRepository(d.DB)
	invoiceRepo := repository.NewInvoiceRepository(d.DB)

	// Worker dispatcher — injected into services that enqueue async jobs
	dispatcher := worker.NewDispatcher(d.RDB)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(userRepo, clinicRepo, cfg)
	clinicSvc := service.NewClinicService(clinicRepo)
	patientSvc := service.NewPatientService(patientRepo, userRepo)
	apptSvc := service.NewAppointmentService(apptRepo, patientRepo, userRepo)
	recordSvc := service.NewRecordService(recordRepo, patientRepo, apptRepo)
	inventorySvc := service.NewInventoryService(
		itemRepo, txnRepo, alertRepo, d.Cache, dispatcher,
		time.Duration(cfg.StatsCacheTTLSeconds)*time.Second,
	)
	prescriptionSvc := service.NewPrescriptionService(prescriptionRepo, patientRepo, itemRepo, inventorySvc)
	billingSvc := service.NewBillingService(invoiceRepo, clinicRepo, patientRepo)
	dashboardSvc := service.NewDashboardService(inventorySvc, apptRepo, invoiceRepo)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usersH := handler.NewUsersHandler(authSvc)
	clinicsH := handler.NewClinicsHandler(clinicSvc)
	patientsH := handler.NewPatientsHandler(patientSvc)
	apptsH := handler.NewAppointmentsHandler(apptSvc)
	recordsH := handler.NewRecordsHandler(recordSvc)
	prescriptionsH := handler.NewPrescriptionsHandler(prescriptionSvc)
	invoicesH := handler.NewInvoicesHandler(billingSvc)
	inventoryH := handler.NewInventoryHandler(inventorySvc)
	dashboardH := handler.NewDashboardHandler(dashboardSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(d.DB, d.RDB, d.Cache))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	staff := middleware.RequireRole(model.RoleMasterAdmin, model.RoleAdmin, model.RoleDoctor)
	adminOnly := middleware.RequireRole(model.RoleMasterAdmin, model.RoleAdmin)
	anyRole := middleware.RequireRole(model.RoleMasterAdmin, model.RoleAdmin, model.RoleDoctor, model.RolePatient)

	v1 := r.Group("/v1", jwtMW)
	{
		// Clinics — master_admin only
		clinics := v1.Group("/clinics", middleware.RequireRole(model.RoleMasterAdmin))
		{
			clinics.POST("", clinicsH.Create)
			clinics.GET("", clinicsH.List)
			clinics.GET("/:id", clinicsH.Get)
			clinics.PUT("/:id", clinicsH.Update)
			clinics.DELETE("/:id", clinicsH.Deactivate)
		}

		// Users — master_admin and clinic admins
		users := v1.Group("/users", adminOnly)
		{
			users.POST("", usersH.Create)
			users.GET("", usersH.List)
			users.PUT("/:id", usersH.Update)
			users.DELETE("/:id", usersH.Deactivate)
			users.PATCH("/:id/reactivate", usersH.Reactivate)
		}

		// Patients — staff write, patients can read their own record
		v1.GET("/patients/:id", anyRole, patientsH.Get)
		patients := v1.Group("/patients", staff)
		{
			patients.POST("", patientsH.Create)
			patients.GET("", patientsH.List)
			patients.PUT("/:id", patientsH.Update)
			patients.DELETE("/:id", patientsH.Deactivate)
		}

		// Appointments
		appts := v1.Group("/appointments", staff)
		{
			appts.POST("", apptsH.Create)
			appts.GET("", apptsH.List)
			appts.GET("/:id", apptsH.Get)
			appts.PATCH("/:id/reschedule", apptsH.Reschedule)
			appts.PATCH("/:id/status", apptsH.UpdateStatus)
		}

		// Medical records — doctors write; patients read their own history
		v1.GET("/records", anyRole, recordsH.List)
		v1.GET("/records/:id", anyRole, recordsH.Get)
		records := v1.Group("/records", middleware.RequireRole(model.RoleDoctor))
		{
			records.POST("", recordsH.Create)
			records.PATCH("/:id/notes", recordsH.AmendNotes)
		}

		// Prescriptions — doctors write, staff dispense, patients read theirs
		v1.GET("/prescriptions", anyRole, prescriptionsH.List)
		v1.GET("/prescriptions/:id", anyRole, prescriptionsH.Get)
		v1.POST("/prescriptions", middleware.RequireRole(model.RoleDoctor), prescriptionsH.Create)
		v1.DELETE("/prescriptions/:id", middleware.RequireRole(model.RoleDoctor, model.RoleAdmin), prescriptionsH.Cancel)
		v1.POST("/prescriptions/:id/dispense", staff, prescriptionsH.Dispense)

		// Invoices — admins manage billing
		invoices := v1.Group("/invoices", adminOnly)
		{
			invoices.POST("", invoicesH.Create)
			invoices.GET("", invoicesH.List)
			invoices.GET("/:id", invoicesH.Get)
			invoices.PUT("/:id/items", invoicesH.UpdateItems)
			invoices.POST("/:id/issue", invoicesH.Issue)
			invoices.DELETE("/:id", invoicesH.Cancel)
			invoices.POST("/:id/payments", invoicesH.RecordPayment)
		}

		// Inventory — staff read, admins write, stock adjustments by staff
		inventory := v1.Group("/inventory", staff)
		{
			inventory.GET("/items", inventoryH.ListItems)
			inventory.GET("/items/:id", inventoryH.GetItem)
			inventory.POST("/items", adminOnly, inventoryH.CreateItem)
			inventory.PUT("/items/:id", adminOnly, inventoryH.UpdateItem)
			inventory.POST("/items/:id/adjust", inventoryH.Adjust)
			inventory.GET("/transactions", inventoryH.ListTransactions)
			inventory.GET("/stats", inventoryH.Stats)
			inventory.GET("/alerts", inventoryH.ListAlerts)
			inventory.PATCH("/alerts/:id/resolve", inventoryH.ResolveAlert)
		}

		// Dashboard
		v1.GET("/dashboard", staff, dashboardH.Summary)
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handlers := worker.Handlers{
		StockAlerts: worker.NewAlertWorker(alertRepo, itemRepo, d.RDB),
	}
	return r, handlers
}
