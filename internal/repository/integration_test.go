//go:build integration

package repository_test

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"sort"
	"sync"
	"testing"
	"time"

	"tenantsync/internal/intake"
	"tenantsync/internal/models"
	"tenantsync/internal/repository"
	"tenantsync/pkg/crypto"
	"tenantsync/pkg/database"

	"github.com/go-redis/redis/v8"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testDB    *sql.DB
	testRedis *redis.Client
)

func run(pool *dockertest.Pool, repo, tag string, env []string) *dockertest.Resource {
	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: repo,
		Tag:        tag,
		Env:        env,
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		log.Fatalf("Could not start %s: %v", repo, err)
	}
	_ = resource.Expire(300)
	return resource
}

func TestMain(m *testing.M) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		log.Fatalf("Could not construct pool: %v", err)
	}
	pool.MaxWait = 2 * time.Minute
	if err := pool.Client.Ping(); err != nil {
		log.Fatalf("Could not connect to Docker: %v", err)
	}

	pg := run(pool, "postgres", "16-alpine", []string{
		"POSTGRES_USER=tenantsync", "POSTGRES_PASSWORD=secret", "POSTGRES_DB=tenantsync",
	})
	rd := run(pool, "redis", "7-alpine", nil)

	dsn := fmt.Sprintf("postgres://tenantsync:secret@%s/tenantsync?sslmode=disable", pg.GetHostPort("5432/tcp"))
	if err := pool.Retry(func() error {
		var err error
		testDB, err = database.Open(dsn)
		return err
	}); err != nil {
		log.Fatalf("Could not connect to postgres: %v", err)
	}

	testRedis = redis.NewClient(&redis.Options{Addr: rd.GetHostPort("6379/tcp")})
	if err := pool.Retry(func() error {
		return testRedis.Ping(context.Background()).Err()
	}); err != nil {
		log.Fatalf("Could not connect to redis: %v", err)
	}

	if err := repository.DeleteAllTable(context.Background(), testDB); err != nil {
		log.Fatalf("Could not reset tables: %v", err)
	}
	if err := repository.CreateTableIfNotExists(context.Background(), testDB); err != nil {
		log.Fatalf("Could not create tables: %v", err)
	}

	code := m.Run()

	testRedis.Close()
	testDB.Close()
	for _, r := range []*dockertest.Resource{pg, rd} {
		if err := pool.Purge(r); err != nil {
			log.Printf("Could not purge resource: %v", err)
		}
	}
	os.Exit(code)
}

func newStore(t *testing.T) *repository.Store {
	t.Helper()
	cipher, err := crypto.New("integration-key")
	require.NoError(t, err)
	return repository.NewStore(testDB, cipher)
}

func seed(t *testing.T, store *repository.Store, prefix string) (landlordID, tenantID, workerID int) {
	t.Helper()
	ctx := context.Background()
	var err error
	landlordID, err = store.CreateUser(ctx, repository.NewUser{
		Name: "Owner", Email: prefix + "-owner@example.com", Phone: "5551234567", PasswordHash: "x", Role: models.RoleLandlord,
	})
	require.NoError(t, err)
	tenantID, err = store.CreateUser(ctx, repository.NewUser{
		Name: "Tia", Email: prefix + "-tia@example.com", Phone: "5551234567", PasswordHash: "x",
		Role: models.RoleTenant, LandlordID: &landlordID,
	})
	require.NoError(t, err)
	workerID, err = store.CreateUser(ctx, repository.NewUser{
		Name: "Max", Email: prefix + "-max@example.com", Phone: "5551234567", PasswordHash: "x",
		Role: models.RoleMaintenance, TypeOfMaintenance: prefix, Availability: "09:00-12:00",
	})
	require.NoError(t, err)
	return landlordID, tenantID, workerID
}

func TestConcurrentBookingsNeverOverlap(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	// A dedicated specialty keeps other tests' workers out of the candidate set.
	landlordID, tenantID, workerID := seed(t, store, "Roofer")

	ids := make([]int, 2)
	for i := range ids {
		id, err := store.CreateRequest(ctx, &models.MaintenanceRequest{
			TenantID: tenantID, LandlordID: landlordID, Description: fmt.Sprintf("leak %d", i), Priority: models.PriorityMedium,
		})
		require.NoError(t, err)
		ids[i] = id
	}

	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	var wg sync.WaitGroup
	slots := make([]string, len(ids))
	errs := make([]error, len(ids))
	for i, id := range ids {
		wg.Add(1)
		go func(i, id int) {
			defer wg.Done()
			alloc, err := store.BookWorker(ctx, id, "Roofer", day)
			errs[i] = err
			slots[i] = alloc.TimeScheduled()
		}(i, id)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	sort.Strings(slots)
	assert.Equal(t, []string{"09:00-10:00", "10:30-11:30"}, slots)

	w, err := store.GetWorker(ctx, workerID)
	require.NoError(t, err)
	assert.Equal(t, "", w.Availability)

	bookings, err := store.ListBookings(ctx, workerID, day, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Len(t, bookings, 2)
}

func TestTenantAndPayPalRoundTrip(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	landlordID, tenantID, _ := seed(t, store, "Painter")

	apt := "4B"
	require.NoError(t, store.UpdateTenant(ctx, landlordID, tenantID, decimal.NewNullDecimal(decimal.RequireFromString("1200.50")), &apt))
	tenant, err := store.GetTenant(ctx, tenantID)
	require.NoError(t, err)
	assert.True(t, tenant.RentPrice.Decimal.Equal(decimal.RequireFromString("1200.5")))
	assert.Equal(t, "4B", *tenant.ApartmentNumber)

	require.NoError(t, store.SetPayPalEmail(ctx, landlordID, "owner-pay@example.com"))
	var raw string
	require.NoError(t, testDB.QueryRowContext(ctx, "SELECT paypal_email FROM landlords WHERE landlord_id = $1", landlordID).Scan(&raw))
	assert.NotEqual(t, "owner-pay@example.com", raw)

	landlord, err := store.GetLandlord(ctx, landlordID)
	require.NoError(t, err)
	assert.Equal(t, "owner-pay@example.com", landlord.PayPalEmail)

	_, err = store.CreateUser(ctx, repository.NewUser{
		Name: "Dup", Email: "Painter-tia@example.com", Phone: "5551234567", PasswordHash: "x", Role: models.RoleTenant,
	})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestRedisIntakeStore(t *testing.T) {
	store := intake.NewRedisStore(testRedis, time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		err := store.Update(ctx, "tenant-1", func(s *intake.State) (bool, error) {
			s.Description += "x"
			s.Rounds++
			return true, nil
		})
		require.NoError(t, err)
	}

	var seen intake.State
	require.NoError(t, store.Update(ctx, "tenant-1", func(s *intake.State) (bool, error) {
		seen = *s
		return false, nil
	}))
	assert.Equal(t, "xx", seen.Description)
	assert.Equal(t, 2, seen.Rounds)

	n, err := testRedis.Exists(ctx, "intake:tenant-1").Result()
	require.NoError(t, err)
	assert.Zero(t, n)

	ttlStore := intake.NewRedisStore(testRedis, time.Second)
	require.NoError(t, ttlStore.Update(ctx, "tenant-2", func(s *intake.State) (bool, error) { return true, nil }))
	ttl, err := testRedis.TTL(ctx, "intake:tenant-2").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}

func TestRedisIntakeStoreConcurrentUpdates(t *testing.T) {
	store := intake.NewRedisStore(testRedis, time.Minute)
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	applied := 0
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.Update(ctx, "tenant-3", func(s *intake.State) (bool, error) {
				s.Rounds++
				return true, nil
			})
			if err == nil {
				mu.Lock()
				applied++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	var rounds int
	require.NoError(t, store.Update(ctx, "tenant-3", func(s *intake.State) (bool, error) {
		rounds = s.Rounds
		return false, nil
	}))
	assert.Equal(t, applied, rounds)
}
