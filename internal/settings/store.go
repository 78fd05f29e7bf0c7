// Package settings persists administrator-editable booking settings and fee
// policy as JSON documents in Redis.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/braidbook/internal/availability"
	"github.com/wolfman30/braidbook/internal/config"
	"github.com/wolfman30/braidbook/internal/policy"
)

const (
	bookingKey = "braidbook:settings:booking"
	feesKey    = "braidbook:settings:fees"
)

// ErrInvalidSettings is returned when a document fails validation.
var ErrInvalidSettings = errors.New("settings: invalid settings")

// Booking is the stored booking_settings document.
type Booking struct {
	// BufferBetweenAppointments is in minutes. Nil means "not configured";
	// an explicit 0 disables the buffer.
	BufferBetweenAppointments *int `json:"bufferBetweenAppointments,omitempty"`
	MaxAdvanceDays            int  `json:"maxAdvanceDays"`
	MinAdvanceHours           int  `json:"minAdvanceHours"`
	SlotStrideMinutes         int  `json:"slotStrideMinutes"`
	// AutoConfirm books new client appointments straight into confirmed.
	AutoConfirm bool `json:"autoConfirm"`
}

// Validate checks ranges before a document is saved.
func (b Booking) Validate() error {
	switch {
	case b.BufferBetweenAppointments != nil && (*b.BufferBetweenAppointments < 0 || *b.BufferBetweenAppointments > 240):
		return fmt.Errorf("%w: buffer must be within 0..240 minutes", ErrInvalidSettings)
	case b.MaxAdvanceDays < 0 || b.MaxAdvanceDays > 365:
		return fmt.Errorf("%w: max advance days must be within 0..365", ErrInvalidSettings)
	case b.MinAdvanceHours < 0 || b.MinAdvanceHours > 24*14:
		return fmt.Errorf("%w: min advance hours must be within 0..336", ErrInvalidSettings)
	case b.SlotStrideMinutes < 0 || b.SlotStrideMinutes > 240:
		return fmt.Errorf("%w: slot stride must be within 0..240 minutes", ErrInvalidSettings)
	}
	return nil
}

// Defaults seeds documents that were never saved.
type Defaults struct {
	BufferMinutes   int
	MaxAdvanceDays  int
	MinAdvanceHours int
	StrideMinutes   int
	Fees            policy.FeePolicy
}

// DefaultsFromConfig reads the env-driven defaults.
func DefaultsFromConfig(cfg *config.Config) Defaults {
	return Defaults{
		BufferMinutes:   cfg.DefaultBufferMinutes,
		MaxAdvanceDays:  cfg.DefaultMaxAdvanceDays,
		MinAdvanceHours: cfg.DefaultMinAdvanceHours,
		StrideMinutes:   cfg.SlotStrideMinutes,
		Fees: policy.FeePolicy{
			CancellationWindowHours: cfg.CancellationWindowHours,
			LateCancellationPercent: cfg.LateCancellationPercent,
			PastCancellationPercent: cfg.PastCancellationPercent,
			RescheduleWindowHours:   cfg.RescheduleWindowHours,
			RescheduleFeeCents:      cfg.RescheduleFeeCents,
		},
	}
}

// kv is the minimal key/value surface the store needs.
type kv interface {
	get(ctx context.Context, key string) ([]byte, bool, error)
	set(ctx context.Context, key string, value []byte) error
}

// Store reads settings on every call; nothing is cached in process so an
// administrator's change applies to the next request.
type Store struct {
	kv       kv
	defaults Defaults
}

// NewStore creates a Redis-backed settings store.
func NewStore(client *redis.Client, defaults Defaults) *Store {
	if client == nil {
		panic("settings: redis client required")
	}
	return &Store{kv: redisKV{client: client}, defaults: defaults}
}

// NewMemoryStore keeps settings in process; used by tests and USE_MEMORY_STORE.
func NewMemoryStore(defaults Defaults) *Store {
	return &Store{kv: newMemoryKV(), defaults: defaults}
}

// Booking returns the stored booking document, or the defaults when unset.
func (s *Store) Booking(ctx context.Context) (Booking, error) {
	doc := Booking{
		MaxAdvanceDays:    s.defaults.MaxAdvanceDays,
		MinAdvanceHours:   s.defaults.MinAdvanceHours,
		SlotStrideMinutes: s.defaults.StrideMinutes,
	}
	found, err := s.load(ctx, bookingKey, &doc)
	if err != nil {
		return Booking{}, err
	}
	if !found {
		buffer := s.defaults.BufferMinutes
		doc.BufferBetweenAppointments = &buffer
	}
	return doc, nil
}

// SaveBooking validates and replaces the booking document.
func (s *Store) SaveBooking(ctx context.Context, doc Booking) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	return s.save(ctx, bookingKey, doc)
}

// Fees returns the stored fee policy, or the defaults when unset.
func (s *Store) Fees(ctx context.Context) (policy.FeePolicy, error) {
	p := s.defaults.Fees
	if _, err := s.load(ctx, feesKey, &p); err != nil {
		return policy.FeePolicy{}, err
	}
	return p, nil
}

// SaveFees validates and replaces the fee policy.
func (s *Store) SaveFees(ctx context.Context, p policy.FeePolicy) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	return s.save(ctx, feesKey, p)
}

// BookingSettings converts the stored document into the value object the
// slot generator consumes.
func (s *Store) BookingSettings(ctx context.Context) (availability.Settings, error) {
	doc, err := s.Booking(ctx)
	if err != nil {
		return availability.Settings{}, err
	}
	return doc.Settings(), nil
}

// FeePolicy implements the appointments policy source.
func (s *Store) FeePolicy(ctx context.Context) (policy.FeePolicy, error) {
	return s.Fees(ctx)
}

// Settings converts minutes/hours/days into durations. An unset buffer
// falls back to availability.DefaultBuffer.
func (b Booking) Settings() availability.Settings {
	buffer := availability.DefaultBuffer
	if b.BufferBetweenAppointments != nil {
		buffer = time.Duration(*b.BufferBetweenAppointments) * time.Minute
	}
	return availability.Settings{
		Buffer:     buffer,
		Stride:     time.Duration(b.SlotStrideMinutes) * time.Minute,
		MinAdvance: time.Duration(b.MinAdvanceHours) * time.Hour,
		MaxAdvance: time.Duration(b.MaxAdvanceDays) * 24 * time.Hour,
	}
}

func (s *Store) load(ctx context.Context, key string, dst any) (bool, error) {
	data, found, err := s.kv.get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("settings: load %s: %w", key, err)
	}
	if !found {
		return false, nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("settings: decode %s: %w", key, err)
	}
	return true, nil
}

func (s *Store) save(ctx context.Context, key string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("settings: encode %s: %w", key, err)
	}
	if err := s.kv.set(ctx, key, data); err != nil {
		return fmt.Errorf("settings: save %s: %w", key, err)
	}
	return nil
}
