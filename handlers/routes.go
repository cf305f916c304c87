package handlers

import (
	"github.com/despasys/despasys_backend/middlewares"
	"github.com/despasys/despasys_backend/models"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the web API. The group must already run SessionMiddleware.
func RegisterRoutes(api *gin.RouterGroup, h *Handler) {
	auth := api.Group("/auth")
	{
		auth.POST("/login", h.Login)
		auth.POST("/logout", withAuth(h.Logout))
		auth.GET("/me", withAuth(h.Me))
	}

	api.GET("/tenant/:domain", h.TenantByDomain)

	customers := api.Group("/customers")
	{
		customers.GET("", withAuth(h.ListCustomers))
		customers.POST("", withAuth(h.CreateCustomer))
		customers.GET("/:id", withAuth(h.GetCustomer))
		customers.PUT("/:id", withAuth(h.UpdateCustomer))
		customers.DELETE("/:id", withAuth(h.DeleteCustomer))
		customers.GET("/:id/recommendation", withAuth(h.CustomerRecommendation))
	}

	vehicles := api.Group("/veiculos")
	{
		vehicles.GET("", withAuth(h.ListVehicles))
		vehicles.POST("", withAuth(h.CreateVehicle))
		vehicles.GET("/:id", withAuth(h.GetVehicle))
		vehicles.PUT("/:id", withAuth(h.UpdateVehicle))
		vehicles.DELETE("/:id", withAuth(h.DeleteVehicle))
	}

	processes := api.Group("/processes")
	{
		processes.GET("", withAuth(h.ListProcesses))
		processes.POST("", withAuth(h.CreateProcess))
		processes.GET("/stats", withAuth(h.ProcessStats))
		processes.GET("/:id", withAuth(h.GetProcess))
		processes.PUT("/:id", withAuth(h.UpdateProcess))
		processes.PATCH("/:id/status", withAuth(h.UpdateProcessStatus))
		processes.DELETE("/:id", withAuth(h.DeleteProcess))
		processes.GET("/:id/documents", withAuth(h.ListProcessDocuments))
	}

	financial := api.Group("/financeiro")
	{
		financial.GET("/dashboard", withAuth(h.FinancialDashboard))
		financial.GET("/:kind", withAuth(h.ListFinancialRecords))
		financial.POST("/:kind", withAuth(h.CreateFinancialRecord))
		financial.GET("/:kind/summary", withAuth(h.FinancialSummary))
		financial.GET("/:kind/export", withAuth(h.ExportFinancialRecords))
		financial.GET("/:kind/:id", withAuth(h.GetFinancialRecord))
		financial.PUT("/:kind/:id", withAuth(h.UpdateFinancialRecord))
		financial.DELETE("/:kind/:id", withAuth(h.DeleteFinancialRecord))
		financial.POST("/:kind/:id/pay", withAuth(h.PayFinancialRecord))
		financial.POST("/:kind/:id/charge", withAuth(h.ChargeInvoice))
	}

	appointments := api.Group("/appointments")
	{
		appointments.GET("", withAuth(h.ListAppointments))
		appointments.POST("", withAuth(h.CreateAppointment))
		appointments.GET("/:id", withAuth(h.GetAppointment))
		appointments.PUT("/:id", withAuth(h.UpdateAppointment))
		appointments.DELETE("/:id", withAuth(h.CancelAppointment))
	}

	evaluations := api.Group("/evaluations")
	{
		evaluations.GET("", withAuth(h.ListEvaluations))
		evaluations.POST("", withAuth(h.CreateEvaluation))
		evaluations.GET("/:id", withAuth(h.GetEvaluation))
		evaluations.PUT("/:id", withAuth(h.UpdateEvaluation))
		evaluations.DELETE("/:id", withAuth(h.DeleteEvaluation))
	}

	reports := api.Group("/laudos")
	{
		reports.GET("", withAuth(h.ListReports))
		reports.POST("", withAuth(h.CreateReport))
		reports.GET("/:id", withAuth(h.GetReport))
		reports.PUT("/:id", withAuth(h.UpdateReport))
		reports.DELETE("/:id", withAuth(h.DeleteReport))
	}

	notifications := api.Group("/notifications")
	{
		notifications.GET("", withAuth(h.ListNotifications))
		notifications.POST("/send", withAuth(h.SendNotification))
		notifications.PATCH("/:id/read", withAuth(h.MarkNotificationRead))
	}

	uploads := api.Group("/uploads")
	{
		uploads.POST("/sign", withAuth(h.SignUpload))
		uploads.POST("/complete", withAuth(h.CompleteUpload))
		uploads.GET("/object", withAuth(h.UploadObject))
	}

	users := api.Group("/users", middlewares.RequireRole(models.UserRoleAdmin))
	{
		users.GET("", withAuth(h.ListUsers))
		users.POST("", withAuth(h.CreateUser))
	}
}

// RegisterMobileRoutes mounts the mobile API. The group must already run MobileAuthMiddleware.
func RegisterMobileRoutes(mobile *gin.RouterGroup, h *Handler) {
	mobile.POST("/auth/login", h.MobileLogin)

	mobile.GET("/processos", withAuth(h.MobileListProcesses))
	mobile.POST("/processos", withAuth(h.MobileCreateProcess))
	mobile.GET("/dashboard", withAuth(h.MobileDashboard))
	mobile.GET("/clientes", withAuth(h.MobileListCustomers))
	mobile.GET("/veiculos", withAuth(h.MobileListVehicles))
}
