package mock

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"tenantsync/internal/models"
	"tenantsync/internal/repository"
	"tenantsync/internal/scheduler"

	"github.com/shopspring/decimal"
)

// Store is an in-memory repository.Repository for handler tests.
type Store struct {
	mu sync.Mutex

	users     map[int]*models.User
	tenants   map[int]*models.Tenant
	landlords map[int]*models.Landlord
	workers   map[int]*models.MaintenanceWorker
	requests  map[int]*models.MaintenanceRequest
	posts     map[int]*models.BulletinPost
	comments  map[int]*models.BulletinComment
	sessions  map[string]*models.Session
	payments  map[int]*models.Payment

	nextID int

	// Err, when set, is returned by every call.
	Err error
	// BookErr, when set, is returned by BookWorker.
	BookErr error
	// CreateRequestErr, when set, is returned by CreateRequest.
	CreateRequestErr error
}

var _ repository.Repository = (*Store)(nil)

func New() *Store {
	return &Store{
		users:     map[int]*models.User{},
		tenants:   map[int]*models.Tenant{},
		landlords: map[int]*models.Landlord{},
		workers:   map[int]*models.MaintenanceWorker{},
		requests:  map[int]*models.MaintenanceRequest{},
		posts:     map[int]*models.BulletinPost{},
		comments:  map[int]*models.BulletinComment{},
		sessions:  map[string]*models.Session{},
		payments:  map[int]*models.Payment{},
	}
}

func (s *Store) id() int {
	s.nextID++
	return s.nextID
}

func (s *Store) CreateUser(ctx context.Context, u repository.NewUser) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return 0, repository.ErrDuplicate
		}
	}
	if u.Role == models.RoleTenant && u.LandlordID != nil {
		if _, ok := s.landlords[*u.LandlordID]; !ok {
			return 0, repository.ErrInvalidReference
		}
	}

	id := s.id()
	s.users[id] = &models.User{
		ID: id, Name: u.Name, Email: u.Email, Phone: u.Phone,
		PasswordHash: u.PasswordHash, Role: u.Role, CreatedAt: time.Now(),
	}
	switch u.Role {
	case models.RoleTenant:
		s.tenants[id] = &models.Tenant{UserID: id, LandlordID: u.LandlordID}
	case models.RoleLandlord:
		s.landlords[id] = &models.Landlord{ID: id}
	case models.RoleMaintenance:
		s.workers[id] = &models.MaintenanceWorker{TeamID: id, TypeOfMaintenance: u.TypeOfMaintenance, Availability: u.Availability}
	}
	return id, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Store) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *Store) CreateSession(ctx context.Context, sess *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	cp := *sess
	s.sessions[sess.ID] = &cp
	return nil
}

func (s *Store) GetSession(ctx context.Context, id string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	sess, ok := s.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *sess
	return &cp, nil
}

func (s *Store) RevokeSession(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	sess, ok := s.sessions[id]
	if !ok || sess.RevokedAt != nil {
		return repository.ErrNotFound
	}
	sess.RevokedAt = &at
	return nil
}

func (s *Store) GetTenant(ctx context.Context, userID int) (*models.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	t, ok := s.tenants[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return s.joinTenant(t), nil
}

func (s *Store) joinTenant(t *models.Tenant) *models.Tenant {
	cp := *t
	if u, ok := s.users[t.UserID]; ok {
		cp.Name, cp.Email, cp.Phone = u.Name, u.Email, u.Phone
	}
	return &cp
}

func (s *Store) ListTenantsByLandlord(ctx context.Context, landlordID int) ([]models.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	out := []models.Tenant{}
	for _, t := range s.tenants {
		if t.LandlordID != nil && *t.LandlordID == landlordID {
			out = append(out, *s.joinTenant(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (s *Store) UpdateTenant(ctx context.Context, landlordID, tenantID int, rent decimal.NullDecimal, apartment *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	t, ok := s.tenants[tenantID]
	if !ok || t.LandlordID == nil || *t.LandlordID != landlordID {
		return repository.ErrNotFound
	}
	if rent.Valid {
		t.RentPrice = rent
	}
	if apartment != nil {
		apt := *apartment
		t.ApartmentNumber = &apt
	}
	return nil
}

func (s *Store) GetLandlord(ctx context.Context, id int) (*models.Landlord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	l, ok := s.landlords[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (s *Store) SetPayPalEmail(ctx context.Context, landlordID int, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	l, ok := s.landlords[landlordID]
	if !ok {
		return repository.ErrNotFound
	}
	l.PayPalEmail = email
	return nil
}

func (s *Store) GetWorker(ctx context.Context, teamID int) (*models.MaintenanceWorker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	w, ok := s.workers[teamID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *w
	return &cp, nil
}

func (s *Store) UpdateAvailability(ctx context.Context, teamID int, availability string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	w, ok := s.workers[teamID]
	if !ok {
		return repository.ErrNotFound
	}
	w.Availability = availability
	w.Version++
	return nil
}

func (s *Store) UpdateMaintenanceType(ctx context.Context, teamID int, typeOfMaintenance string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	w, ok := s.workers[teamID]
	if !ok {
		return repository.ErrNotFound
	}
	w.TypeOfMaintenance = typeOfMaintenance
	return nil
}

func (s *Store) CreateRequest(ctx context.Context, r *models.MaintenanceRequest) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	if s.CreateRequestErr != nil {
		return 0, s.CreateRequestErr
	}
	r.ID = s.id()
	r.Status = models.StatusPending
	r.SubmittedAt = time.Now()
	if r.Media == nil {
		r.Media = []string{}
	}
	cp := *r
	s.requests[r.ID] = &cp
	return r.ID, nil
}

func (s *Store) GetRequest(ctx context.Context, id int) (*models.MaintenanceRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	r, ok := s.requests[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *Store) SetRequestType(ctx context.Context, id int, typeOfMaintenance string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	r, ok := s.requests[id]
	if !ok {
		return repository.ErrNotFound
	}
	r.TypeOfMaintenance = &typeOfMaintenance
	return nil
}

// BookWorker runs the same allocation as the Postgres store under the store lock.
func (s *Store) BookWorker(ctx context.Context, requestID int, issueType string, day time.Time) (scheduler.Allocation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return scheduler.Allocation{}, s.Err
	}
	if s.BookErr != nil {
		return scheduler.Allocation{}, s.BookErr
	}
	r, ok := s.requests[requestID]
	if !ok {
		return scheduler.Allocation{}, repository.ErrNotFound
	}

	workers := make([]models.MaintenanceWorker, 0, len(s.workers))
	for _, w := range s.workers {
		workers = append(workers, *w)
	}
	alloc, err := scheduler.Allocate(issueType, workers, day)
	if err != nil {
		return scheduler.Allocation{}, err
	}

	w := s.workers[alloc.WorkerID]
	w.Availability = alloc.Remaining
	w.Version++

	worker, scheduled := alloc.WorkerID, alloc.TimeScheduled()
	start, end := alloc.Start, alloc.End
	r.AssignedWorker = &worker
	r.TimeScheduled = &scheduled
	r.ScheduledStart = &start
	r.ScheduledEnd = &end
	return alloc, nil
}

func (s *Store) assigned(id, workerID int) (*models.MaintenanceRequest, error) {
	r, ok := s.requests[id]
	if !ok || r.AssignedWorker == nil || *r.AssignedWorker != workerID {
		return nil, repository.ErrNotFound
	}
	return r, nil
}

func (s *Store) CompleteRequest(ctx context.Context, id, workerID int, timeTaken string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	r, err := s.assigned(id, workerID)
	if err != nil {
		return err
	}
	if r.Status != models.StatusPending {
		return repository.ErrNotFound
	}
	r.Status = models.StatusClosed
	r.ResolvedAt = &at
	r.TimeTaken = &timeTaken
	return nil
}

func (s *Store) UpdateTimer(ctx context.Context, id, workerID int, timeTaken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	r, err := s.assigned(id, workerID)
	if err != nil {
		return err
	}
	r.TimeTaken = &timeTaken
	return nil
}

func (s *Store) ListBookings(ctx context.Context, workerID int, from, to time.Time) ([]models.MaintenanceRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	out := []models.MaintenanceRequest{}
	for _, r := range s.requests {
		if r.AssignedWorker == nil || *r.AssignedWorker != workerID || r.ScheduledStart == nil {
			continue
		}
		if !r.ScheduledStart.Before(from) && r.ScheduledStart.Before(to) {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledStart.Before(*out[j].ScheduledStart) })
	return out, nil
}

func (s *Store) ListPendingByLandlord(ctx context.Context, landlordID int) ([]models.MaintenanceRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	out := []models.MaintenanceRequest{}
	for _, r := range s.requests {
		if r.LandlordID == landlordID && r.Status == models.StatusPending {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *Store) CreatePost(ctx context.Context, p *models.BulletinPost) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	p.ID = s.id()
	p.Moderated = false
	p.CreatedAt = time.Now()
	cp := *p
	s.posts[p.ID] = &cp
	return p.ID, nil
}

func (s *Store) ListModeratedPosts(ctx context.Context) ([]models.BulletinPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	out := []models.BulletinPost{}
	for _, p := range s.posts {
		if p.Moderated {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *Store) ModeratePost(ctx context.Context, postID int, approved bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	p, ok := s.posts[postID]
	if !ok {
		return repository.ErrNotFound
	}
	p.Moderated = approved
	return nil
}

func (s *Store) AddComment(ctx context.Context, c *models.BulletinComment) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	if _, ok := s.posts[c.PostID]; !ok {
		return 0, repository.ErrInvalidReference
	}
	c.ID = s.id()
	c.CreatedAt = time.Now()
	cp := *c
	s.comments[c.ID] = &cp
	return c.ID, nil
}

func (s *Store) ListComments(ctx context.Context, postID int) ([]models.BulletinComment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	out := []models.BulletinComment{}
	for _, c := range s.comments {
		if c.PostID == postID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) CreatePayment(ctx context.Context, p *models.Payment) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	for _, existing := range s.payments {
		if existing.Provider == p.Provider && existing.ProviderRef == p.ProviderRef {
			return 0, repository.ErrDuplicate
		}
	}
	p.ID = s.id()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	s.payments[p.ID] = &cp
	return p.ID, nil
}

func (s *Store) GetPaymentByRef(ctx context.Context, provider, ref string) (*models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	for _, p := range s.payments {
		if p.Provider == provider && p.ProviderRef == ref {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Store) UpdatePaymentStatus(ctx context.Context, provider, ref, status string) (*models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	for _, p := range s.payments {
		if p.Provider == provider && p.ProviderRef == ref {
			p.Status = status
			p.UpdatedAt = time.Now()
			cp := *p
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

// Payments returns a snapshot of recorded payments.
func (s *Store) Payments() []models.Payment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Payment, 0, len(s.payments))
	for _, p := range s.payments {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
