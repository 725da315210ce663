package service

import (
	"context"
	"sync"
	"time"
	_ "time/tzdata"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/EpicAlbin03/hermitcraft/internal/metrics"
)

const quotaKeyTTL = 48 * time.Hour

// The catalog API resets its daily quota at midnight Pacific time.
var quotaLocation = loadQuotaLocation()

func loadQuotaLocation() *time.Location {
	loc, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		return time.FixedZone("PST", -8*60*60)
	}
	return loc
}

// QuotaLedger totals catalog quota units per Pacific-time day. Totals live
// in Redis when a client is configured so every process shares them, and
// in memory otherwise or when Redis errors.
type QuotaLedger struct {
	rdb    *redis.Client
	limit  int64
	logger zerolog.Logger
	now    func() time.Time

	mu     sync.Mutex
	mem    map[string]int64
	warned map[string]bool
}

// NewQuotaLedger returns a ledger that warns once per day when limit is
// crossed. rdb may be nil.
func NewQuotaLedger(rdb *redis.Client, limit int64, logger zerolog.Logger) *QuotaLedger {
	return &QuotaLedger{
		rdb:    rdb,
		limit:  limit,
		logger: logger.With().Str("component", "quota").Logger(),
		now:    time.Now,
		mem:    make(map[string]int64),
		warned: make(map[string]bool),
	}
}

func (q *QuotaLedger) day() string {
	return q.now().In(quotaLocation).Format("2006-01-02")
}

func quotaKey(day string) string {
	return "quota:youtube:" + day
}

// Record adds units spent by op to today's total.
func (q *QuotaLedger) Record(ctx context.Context, op string, units int64) {
	metrics.QuotaUnits.WithLabelValues(op).Add(float64(units))

	day := q.day()
	total, err := q.add(ctx, day, units)
	if err != nil {
		q.logger.Debug().Err(err).Msg("redis quota ledger unavailable, counting in memory")
		total = q.addMem(day, units)
	}
	metrics.QuotaUsedToday.Set(float64(total))

	if q.limit > 0 && total >= q.limit {
		q.mu.Lock()
		first := !q.warned[day]
		q.warned[day] = true
		q.mu.Unlock()
		if first {
			q.logger.Warn().Int64("used", total).Int64("limit", q.limit).Str("day", day).Msg("daily quota budget reached")
		}
	}
}

// Used returns today's recorded total.
func (q *QuotaLedger) Used(ctx context.Context) int64 {
	day := q.day()
	if q.rdb != nil {
		n, err := q.rdb.Get(ctx, quotaKey(day)).Int64()
		if err == nil {
			return n
		}
		if err == redis.Nil {
			return 0
		}
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.mem[day]
}

// Remaining returns how many units are left of the daily limit.
func (q *QuotaLedger) Remaining(ctx context.Context) int64 {
	if left := q.limit - q.Used(ctx); left > 0 {
		return left
	}
	return 0
}

func (q *QuotaLedger) add(ctx context.Context, day string, units int64) (int64, error) {
	if q.rdb == nil {
		return q.addMem(day, units), nil
	}
	pipe := q.rdb.TxPipeline()
	incr := pipe.IncrBy(ctx, quotaKey(day), units)
	pipe.Expire(ctx, quotaKey(day), quotaKeyTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

func (q *QuotaLedger) addMem(day string, units int64) int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	for d := range q.mem {
		if d != day {
			delete(q.mem, d)
		}
	}
	q.mem[day] += units
	return q.mem[day]
}
