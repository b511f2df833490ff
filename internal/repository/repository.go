package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"tenantsync/internal/models"
	"tenantsync/internal/scheduler"
	"tenantsync/pkg/crypto"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound             = errors.New("record not found")
	ErrDuplicate            = errors.New("record already exists")
	ErrInvalidReference     = errors.New("referenced record does not exist")
	ErrAvailabilityConflict = errors.New("worker availability changed concurrently")
)

// NewUser carries signup input; the role-specific fields are used only for
// the matching role.
type NewUser struct {
	Name         string
	Email        string
	Phone        string
	PasswordHash string
	Role         models.Role

	LandlordID        *int
	TypeOfMaintenance string
	Availability      string
}

// Repository is the persistence contract consumed by the HTTP handlers.
type Repository interface {
	CreateUser(ctx context.Context, u NewUser) (int, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id int) (*models.User, error)

	CreateSession(ctx context.Context, s *models.Session) error
	GetSession(ctx context.Context, id string) (*models.Session, error)
	RevokeSession(ctx context.Context, id string, at time.Time) error

	GetTenant(ctx context.Context, userID int) (*models.Tenant, error)
	ListTenantsByLandlord(ctx context.Context, landlordID int) ([]models.Tenant, error)
	UpdateTenant(ctx context.Context, landlordID, tenantID int, rent decimal.NullDecimal, apartment *string) error
	GetLandlord(ctx context.Context, id int) (*models.Landlord, error)
	SetPayPalEmail(ctx context.Context, landlordID int, email string) error

	GetWorker(ctx context.Context, teamID int) (*models.MaintenanceWorker, error)
	UpdateAvailability(ctx context.Context, teamID int, availability string) error
	UpdateMaintenanceType(ctx context.Context, teamID int, typeOfMaintenance string) error

	CreateRequest(ctx context.Context, r *models.MaintenanceRequest) (int, error)
	GetRequest(ctx context.Context, id int) (*models.MaintenanceRequest, error)
	SetRequestType(ctx context.Context, id int, typeOfMaintenance string) error
	BookWorker(ctx context.Context, requestID int, issueType string, day time.Time) (scheduler.Allocation, error)
	CompleteRequest(ctx context.Context, id, workerID int, timeTaken string, at time.Time) error
	UpdateTimer(ctx context.Context, id, workerID int, timeTaken string) error
	ListBookings(ctx context.Context, workerID int, from, to time.Time) ([]models.MaintenanceRequest, error)
	ListPendingByLandlord(ctx context.Context, landlordID int) ([]models.MaintenanceRequest, error)

	CreatePost(ctx context.Context, p *models.BulletinPost) (int, error)
	ListModeratedPosts(ctx context.Context) ([]models.BulletinPost, error)
	ModeratePost(ctx context.Context, postID int, approved bool) error
	AddComment(ctx context.Context, c *models.BulletinComment) (int, error)
	ListComments(ctx context.Context, postID int) ([]models.BulletinComment, error)

	CreatePayment(ctx context.Context, p *models.Payment) (int, error)
	GetPaymentByRef(ctx context.Context, provider, ref string) (*models.Payment, error)
	UpdatePaymentStatus(ctx context.Context, provider, ref, status string) (*models.Payment, error)
}

// Store is the Postgres implementation of Repository.
type Store struct {
	db     *sql.DB
	cipher *crypto.Cipher
}

var _ Repository = (*Store)(nil)

// NewStore wraps db. cipher seals landlord payout e-mails at rest.
func NewStore(db *sql.DB, cipher *crypto.Cipher) *Store {
	return &Store{db: db, cipher: cipher}
}

// mapError translates driver errors into the package sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			return ErrDuplicate
		case "23503":
			return ErrInvalidReference
		}
	}
	return err
}

func affectedOrNotFound(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func strPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

func timePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	return &v.Time
}
