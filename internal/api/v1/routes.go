package v1

import (
	"tenantsync/internal/api/v1/handlers"
	"tenantsync/internal/middleware"
	"tenantsync/internal/models"
	ws "tenantsync/internal/websocket"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes mounts the API at the root, where the web client calls it,
// and again under /api/v1. hub may be nil.
func RegisterRoutes(app *fiber.App, h *handlers.Handler, hub *ws.Hub) {
	register(app, h, hub)
	register(app.Group("/api/v1"), h, hub)
}

func register(r fiber.Router, h *handlers.Handler, hub *ws.Hub) {
	session := h.Auth.UseSession
	tenant := middleware.RequireRole(models.RoleTenant)
	landlord := middleware.RequireRole(models.RoleLandlord)
	maintenance := middleware.RequireRole(models.RoleMaintenance)

	// Auth
	r.Post("/signup", h.Signup)
	r.Post("/login", h.Login)
	r.Get("/check-session", session, h.CheckSession)
	r.Post("/logout", session, h.Logout)

	// Maintenance
	r.Post("/maintenance-request", session, tenant, h.SubmitMaintenanceRequest)
	r.Post("/chatbot", session, tenant, h.Chatbot)
	r.Get("/bookings/:workerId/:date", session, h.Bookings)
	r.Get("/get-availability/:workerId", session, h.GetAvailability)
	r.Post("/complete-request", session, maintenance, h.CompleteRequest)
	r.Post("/update-timer", session, maintenance, h.UpdateTimer)
	r.Post("/update-availability", session, maintenance, h.UpdateAvailability)
	r.Post("/update-maintenance-type", session, maintenance, h.UpdateMaintenanceType)

	// Bulletin board
	r.Post("/create-post", session, h.CreatePost)
	r.Get("/get-posts", h.GetPosts)
	r.Post("/add-comment", session, h.AddComment)
	r.Get("/get-comments/:postId", h.GetComments)
	r.Post("/moderate-post", session, landlord, h.ModeratePost)

	// Landlord
	landlordRoutes := r.Group("/landlord", session, landlord)
	landlordRoutes.Get("/tenants", h.ListTenants)
	landlordRoutes.Get("/maintenance-requests", h.ListPendingRequests)
	landlordRoutes.Post("/update-tenant", h.UpdateTenant)
	r.Post("/link-paypal", session, landlord, h.LinkPayPal)
	r.Get("/get-paypal-email/:landlordId", session, h.GetPayPalEmail)
	r.Get("/get-landlord/:tenantId", session, h.GetLandlord)
	r.Get("/get-rent/:tenantId", session, h.GetRent)

	// Payments
	r.Post("/create-payment", session, tenant, h.CreatePayment)
	r.Post("/capture-payment", session, tenant, h.CapturePayment)
	r.Post("/create-payment-intent", session, tenant, h.CreatePaymentIntent)

	// Files
	r.Get("/uploads/:filename", h.GetFile)

	if hub != nil {
		r.Get("/ws/bookings", ws.RequireUpgrade, session, maintenance, hub.Handler())
	}
}
