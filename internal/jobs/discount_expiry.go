package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ridepay/internal/repository"
)

// DiscountExpiryJob turns off standing discounts whose validity has ended.
type DiscountExpiryJob struct {
	passengerRepo repository.PassengerRepository
	logger        *slog.Logger
	clock         func() time.Time
}

// NewDiscountExpiryJob creates a new DiscountExpiryJob.
func NewDiscountExpiryJob(passengerRepo repository.PassengerRepository, logger *slog.Logger) *DiscountExpiryJob {
	return &DiscountExpiryJob{
		passengerRepo: passengerRepo,
		logger:        logger,
		clock:         time.Now,
	}
}

// Name implements Job.
func (j *DiscountExpiryJob) Name() string { return "discount-expiry" }

// Run implements Job.
func (j *DiscountExpiryJob) Run(ctx context.Context) error {
	n, err := j.passengerRepo.ExpireDiscounts(ctx, j.clock())
	if err != nil {
		return fmt.Errorf("expire discounts: %w", err)
	}
	if n > 0 {
		j.logger.Info("discounts expired", "count", n)
	}
	return nil
}
