// Package calendar stores the recurring availability rules and ad-hoc blocks
// that define when the studio is open.
package calendar

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/braidbook/internal/availability"
	"github.com/wolfman30/braidbook/internal/interval"
)

var (
	// ErrNotFound is returned when a rule or block ID does not exist.
	ErrNotFound = errors.New("calendar: not found")
	// ErrInvalidBlock is returned for blocks whose end is not after start.
	ErrInvalidBlock = errors.New("calendar: block end must be after start")
)

// Store is the persistence contract for rules and blocks. Both
// implementations satisfy availability.RuleSource and availability.BlockSource.
type Store interface {
	availability.RuleSource
	availability.BlockSource

	ListRules(ctx context.Context) ([]availability.Rule, error)
	CreateRule(ctx context.Context, rule *availability.Rule) error
	UpdateRule(ctx context.Context, rule availability.Rule) error
	DeleteRule(ctx context.Context, id uuid.UUID) error

	CreateBlock(ctx context.Context, block *availability.Block) error
	DeleteBlock(ctx context.Context, id uuid.UUID) error
}

func validateBlock(b availability.Block) error {
	if _, err := interval.New(b.StartTime, b.EndTime); err != nil {
		return ErrInvalidBlock
	}
	return nil
}

func weekdayOf(rule availability.Rule) time.Weekday {
	return time.Weekday(rule.DayOfWeek)
}
