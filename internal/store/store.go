// Package store gives read/write access to the three record collections
// (users, worked shifts, scheduled shifts) with a remote-first,
// cache-fallback policy. The remote record store is authoritative; the
// local cache is a best-effort mirror refreshed on every successful read.
package store

import (
	"context"
	"encoding/json"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/cgtm/cgtm_backend/internal/cache"
	"github.com/cgtm/cgtm_backend/internal/models"
	"github.com/cgtm/cgtm_backend/internal/recordstore"
)

type Client struct {
	remote recordstore.Client
	cache  cache.Cache
	logger *zap.Logger
}

func NewClient(remote recordstore.Client, c cache.Cache, logger *zap.Logger) *Client {
	return &Client{remote: remote, cache: c, logger: logger}
}

// defaultUsers is the bootstrap user set: one admin, one hourly caregiver,
// one per-shift caregiver. Seeded once per deployment, guarded by the
// initialized marker.
func defaultUsers() []models.User {
	adminHash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	return []models.User{
		{
			ID:       "admin-1",
			Name:     "Family Admin",
			Role:     models.RoleAdmin,
			Email:    "admin@example.com",
			Password: string(adminHash),
			IsActive: true,
		},
		{
			ID:         "caregiver-1",
			Name:       "Jane Doe",
			Role:       models.RoleCaregiver,
			Phone:      "5551234",
			PIN:        "1234",
			PayType:    models.PayHourly,
			HourlyRate: 25.0,
			IsActive:   true,
		},
		{
			ID:        "caregiver-2",
			Name:      "John Smith",
			Role:      models.RoleCaregiver,
			Phone:     "5555678",
			PIN:       "5678",
			PayType:   models.PayPerShift,
			ShiftRate: 200.0,
			IsActive:  true,
		},
	}
}

// normalizeUser backfills fields introduced after older records were
// written: payType defaults to hourly for caregivers.
func normalizeUser(u models.User) models.User {
	if u.Role == models.RoleCaregiver && u.PayType == "" {
		u.PayType = models.PayHourly
	}
	return u
}

// ListUsers fetches the user collection remote-first. An empty remote
// collection triggers the one-time bootstrap seed; a collection without an
// admin gets the default admin re-seeded.
func (c *Client) ListUsers(ctx context.Context) []models.User {
	records, err := c.remote.List(ctx, "users")
	if err != nil {
		c.logger.Warn("Remote user fetch failed, using cached snapshot", zap.Error(err))
		return c.cachedUsers(ctx)
	}

	if len(records) == 0 {
		if _, initialized := c.cache.Get(ctx, cache.KeyInitialized); !initialized {
			return c.seedUsers(ctx)
		}
		c.writeCache(ctx, cache.KeyUsers, []models.User{})
		return []models.User{}
	}

	users := make([]models.User, 0, len(records))
	for id, raw := range records {
		var u models.User
		if err := json.Unmarshal(raw, &u); err != nil {
			c.logger.Error("Skipping undecodable user record", zap.String("id", id), zap.Error(err))
			continue
		}
		users = append(users, normalizeUser(u))
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })

	users = c.ensureAdmin(ctx, users)
	c.writeCache(ctx, cache.KeyUsers, users)
	return users
}

func (c *Client) seedUsers(ctx context.Context) []models.User {
	seeded := defaultUsers()
	for _, u := range seeded {
		if err := c.remote.Set(ctx, "users/"+u.ID, u); err != nil {
			c.logger.Warn("Seed write failed", zap.String("id", u.ID), zap.Error(err))
		}
	}
	c.writeCache(ctx, cache.KeyUsers, seeded)
	c.cache.Set(ctx, cache.KeyInitialized, []byte("true"))
	c.logger.Info("Seeded default user set", zap.Int("count", len(seeded)))
	return seeded
}

// ensureAdmin keeps the "at least one admin" invariant: if every admin
// record has disappeared from the authoritative store, the default admin
// is written back.
func (c *Client) ensureAdmin(ctx context.Context, users []models.User) []models.User {
	for i := range users {
		if users[i].IsAdmin() {
			return users
		}
	}
	admin := defaultUsers()[0]
	if err := c.remote.Set(ctx, "users/"+admin.ID, admin); err != nil {
		c.logger.Warn("Admin re-seed write failed", zap.Error(err))
	}
	c.logger.Warn("No admin record found, re-seeded default admin")
	return append(users, admin)
}

func (c *Client) cachedUsers(ctx context.Context) []models.User {
	var users []models.User
	c.readCache(ctx, cache.KeyUsers, &users)
	for i := range users {
		users[i] = normalizeUser(users[i])
	}
	if users == nil {
		users = []models.User{}
	}
	return users
}

func (c *Client) GetUser(ctx context.Context, id string) (*models.User, bool) {
	for _, u := range c.ListUsers(ctx) {
		if u.ID == id {
			return &u, true
		}
	}
	return nil, false
}

// SaveUser writes the record to the cache synchronously, then attempts the
// remote write. A remote failure is logged and does not roll back the local
// write (optimistic local-first, eventual consistency).
func (c *Client) SaveUser(ctx context.Context, user models.User) {
	users := c.cachedUsers(ctx)
	users = upsertUser(users, user)
	c.writeCache(ctx, cache.KeyUsers, users)

	if err := c.remote.Set(ctx, "users/"+user.ID, user); err != nil {
		c.logger.Warn("Remote user write failed", zap.String("id", user.ID), zap.Error(err))
	}
}

// UserUpdate is a partial-field update; nil fields are left unchanged.
type UserUpdate struct {
	Name       *string
	Phone      *string
	PIN        *string
	Email      *string
	Password   *string
	PayType    *models.PayType
	HourlyRate *float64
	ShiftRate  *float64
	IsActive   *bool
}

// UpdateUser merges updates into the existing record and re-saves it in
// full. Returns false when the user does not exist.
func (c *Client) UpdateUser(ctx context.Context, id string, updates UserUpdate) (*models.User, bool) {
	user, ok := c.GetUser(ctx, id)
	if !ok {
		return nil, false
	}
	if updates.Name != nil {
		user.Name = *updates.Name
	}
	if updates.Phone != nil {
		user.Phone = *updates.Phone
	}
	if updates.PIN != nil {
		user.PIN = *updates.PIN
	}
	if updates.Email != nil {
		user.Email = *updates.Email
	}
	if updates.Password != nil {
		user.Password = *updates.Password
	}
	if updates.PayType != nil {
		user.PayType = *updates.PayType
	}
	if updates.HourlyRate != nil {
		user.HourlyRate = *updates.HourlyRate
	}
	if updates.ShiftRate != nil {
		user.ShiftRate = *updates.ShiftRate
	}
	if updates.IsActive != nil {
		user.IsActive = *updates.IsActive
	}
	c.SaveUser(ctx, *user)
	return user, true
}

func (c *Client) DeleteUser(ctx context.Context, id string) {
	users := c.cachedUsers(ctx)
	filtered := users[:0]
	for _, u := range users {
		if u.ID != id {
			filtered = append(filtered, u)
		}
	}
	c.writeCache(ctx, cache.KeyUsers, filtered)

	if err := c.remote.Remove(ctx, "users/"+id); err != nil {
		c.logger.Warn("Remote user delete failed", zap.String("id", id), zap.Error(err))
	}
}

func upsertUser(users []models.User, user models.User) []models.User {
	for i := range users {
		if users[i].ID == user.ID {
			users[i] = user
			return users
		}
	}
	return append(users, user)
}

func (c *Client) writeCache(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Error("Cache marshal failed", zap.String("key", key), zap.Error(err))
		return
	}
	c.cache.Set(ctx, key, data)
}

func (c *Client) readCache(ctx context.Context, key string, out any) {
	data, ok := c.cache.Get(ctx, key)
	if !ok {
		return
	}
	if err := json.Unmarshal(data, out); err != nil {
		c.logger.Error("Cache decode failed, dropping entry", zap.String("key", key), zap.Error(err))
		c.cache.Delete(ctx, key)
	}
}
