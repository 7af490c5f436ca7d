package orders

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/dnlogistics/freightdesk/internal/models"
	"github.com/google/uuid"
)

// nextOrderNumber produces DN<year><6-digit-seq>, one past the greatest
// existing number for the current year. When the store cannot answer, it
// falls back to the year's first number instead of failing the create:
// availability wins, and the unique constraint on order_number turns the
// rare collision into a retryable error.
func (s *Service) nextOrderNumber(ctx context.Context) string {
	prefix := fmt.Sprintf("%s%d", models.OrderNumberPrefix, s.now().UTC().Year())

	max, err := s.repo.MaxOrderNumber(ctx, prefix)
	if err != nil {
		slog.Warn("order number query failed, falling back to first sequence", "err", err)
		return prefix + "000001"
	}
	if max == "" {
		return prefix + "000001"
	}

	seq := 0
	if len(max) >= 6 {
		// A non-numeric tail counts as 0, so the next number becomes 1.
		if n, err := strconv.Atoi(max[len(max)-6:]); err == nil {
			seq = n
		}
	}
	return fmt.Sprintf("%s%06d", prefix, seq+1)
}

// NewQRToken returns an opaque token shared by nothing else; orders and
// packages draw from the same generator so codes never collide across the
// two namespaces.
func NewQRToken() string {
	return "QR-" + uuid.NewString()
}
