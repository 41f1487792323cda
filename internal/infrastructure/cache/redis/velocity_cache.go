package redis

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/jaortiz16/Payment-Processor-sub000/internal/domain/fraud"
)

// retention keeps a little more than the longest rule window (one week).
const retention = 8 * 24 * time.Hour

// VelocityCache tracks per-card activity in Redis sorted sets so window
// limits are checked without hitting the transaction store. It implements
// fraud.HistoryProvider; on Redis failure it falls back to the store.
type VelocityCache struct {
	client   *Client
	fallback fraud.HistoryProvider
	logger   *slog.Logger
}

// NewVelocityCache creates a velocity cache. fallback may be nil, in which
// case Redis errors are returned to the caller.
func NewVelocityCache(client *Client, fallback fraud.HistoryProvider, logger *slog.Logger) *VelocityCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &VelocityCache{client: client, fallback: fallback, logger: logger}
}

// Record registers one transaction for a card. Score is the creation
// timestamp so range queries map directly to rule windows.
func (c *VelocityCache) Record(ctx context.Context, maskedPAN, uniqueCode string, amount decimal.Decimal, at time.Time) error {
	key := cardKey(maskedPAN)

	member := redis.Z{
		Score:  float64(at.Unix()),
		Member: uniqueCode + "|" + amount.String(),
	}
	if err := c.client.ZAdd(ctx, key, member); err != nil {
		return fmt.Errorf("record velocity: %w", err)
	}
	if err := c.client.Expire(ctx, key, retention); err != nil {
		return fmt.Errorf("set velocity ttl: %w", err)
	}

	// Trim entries past the retention horizon, best effort.
	cutoff := at.Add(-retention).Unix()
	if err := c.client.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(cutoff, 10)); err != nil {
		c.logger.WarnContext(ctx, "velocity trim failed",
			slog.String("key", key),
			slog.String("error", err.Error()))
	}
	return nil
}

// CountByCardSince returns the number of recorded transactions since a
// point in time.
func (c *VelocityCache) CountByCardSince(ctx context.Context, maskedPAN string, since time.Time) (int64, error) {
	count, err := c.client.ZCount(ctx, cardKey(maskedPAN),
		strconv.FormatInt(since.Unix(), 10), "+inf")
	if err != nil {
		if c.fallback != nil {
			c.logger.WarnContext(ctx, "velocity count falling back to store",
				slog.String("error", err.Error()))
			return c.fallback.CountByCardSince(ctx, maskedPAN, since)
		}
		return 0, fmt.Errorf("velocity count: %w", err)
	}
	return count, nil
}

// SumByCardSince returns the total amount recorded since a point in time.
func (c *VelocityCache) SumByCardSince(ctx context.Context, maskedPAN string, since time.Time) (decimal.Decimal, error) {
	members, err := c.client.ZRangeByScore(ctx, cardKey(maskedPAN), &redis.ZRangeBy{
		Min: strconv.FormatInt(since.Unix(), 10),
		Max: "+inf",
	})
	if err != nil {
		if c.fallback != nil {
			c.logger.WarnContext(ctx, "velocity sum falling back to store",
				slog.String("error", err.Error()))
			return c.fallback.SumByCardSince(ctx, maskedPAN, since)
		}
		return decimal.Zero, fmt.Errorf("velocity sum: %w", err)
	}

	total := decimal.Zero
	for _, member := range members {
		idx := strings.LastIndexByte(member, '|')
		if idx < 0 {
			continue
		}
		amount, err := decimal.NewFromString(member[idx+1:])
		if err != nil {
			continue
		}
		total = total.Add(amount)
	}
	return total, nil
}

func cardKey(maskedPAN string) string {
	return "velocity:card:" + maskedPAN
}
