package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleTenant      Role = "tenant"
	RoleLandlord    Role = "landlord"
	RoleMaintenance Role = "maintenance"
)

func (r Role) Valid() bool {
	switch r {
	case RoleTenant, RoleLandlord, RoleMaintenance:
		return true
	}
	return false
}

// Maintenance specialties a worker can register for.
const (
	TypePlumber     = "Plumber"
	TypeElectrician = "Electrician"
	TypeGeneral     = "General"
)

var MaintenanceTypes = []string{TypePlumber, TypeElectrician, TypeGeneral}

const (
	StatusPending = "Pending"
	StatusClosed  = "Closed"
)

const (
	PriorityLow    = "Low"
	PriorityMedium = "Medium"
	PriorityHigh   = "High"
)

type User struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

type Tenant struct {
	UserID          int                 `json:"user_id"`
	LandlordID      *int                `json:"landlord_id"`
	ApartmentNumber *string             `json:"apartment_number"`
	RentPrice       decimal.NullDecimal `json:"rent_price"`

	// Joined from users for landlord views.
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

type Landlord struct {
	ID          int    `json:"landlord_id"`
	PayPalEmail string `json:"paypal_email"`
}

type MaintenanceWorker struct {
	TeamID            int    `json:"team_id"`
	TypeOfMaintenance string `json:"type_of_maintenance"`
	Availability      string `json:"availability"`
	Version           int    `json:"-"`
}

type MaintenanceRequest struct {
	ID                int        `json:"request_id"`
	TenantID          int        `json:"tenant_id"`
	LandlordID        int        `json:"landlord_id"`
	Description       string     `json:"description"`
	Status            string     `json:"status"`
	Priority          string     `json:"priority"`
	Media             []string   `json:"media"`
	SubmittedAt       time.Time  `json:"submitted_at"`
	ResolvedAt        *time.Time `json:"resolved_at"`
	AssignedWorker    *int       `json:"assigned_worker"`
	TypeOfMaintenance *string    `json:"type_of_maintenance"`
	ScheduledStart    *time.Time `json:"scheduled_start"`
	ScheduledEnd      *time.Time `json:"scheduled_end"`
	TimeScheduled     *string    `json:"time_scheduled"`
	TimeTaken         *string    `json:"time_taken"`
}

const (
	CategoryGeneral        = "General"
	CategoryJobListing     = "Job Listing"
	CategoryCommunityEvent = "Community Event"
	CategoryPropertyUpdate = "Property Update"
)

type BulletinPost struct {
	ID        int       `json:"post_id"`
	UserID    int       `json:"user_id"`
	UserRole  Role      `json:"user_role"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Category  string    `json:"category"`
	Moderated bool      `json:"moderated"`
	CreatedAt time.Time `json:"created_at"`
}

type BulletinComment struct {
	ID        int       `json:"comment_id"`
	PostID    int       `json:"post_id"`
	UserID    int       `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type Session struct {
	ID        string     `json:"session_id"`
	UserID    int        `json:"user_id"`
	Role      Role       `json:"role"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `json:"expires_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
}

// Active reports whether the session can still authenticate requests at now.
func (s Session) Active(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}

const (
	ProviderPayPal = "paypal"
	ProviderStripe = "stripe"

	PaymentCreated  = "created"
	PaymentCaptured = "captured"
	PaymentFailed   = "failed"
)

type Payment struct {
	ID          int             `json:"payment_id"`
	Provider    string          `json:"provider"`
	ProviderRef string          `json:"provider_ref"`
	TenantID    int             `json:"tenant_id"`
	LandlordID  int             `json:"landlord_id"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
