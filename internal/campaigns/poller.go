package campaigns

import (
	"context"
	"errors"
	"time"

	"voiceagent-platform/internal/config"
	"voiceagent-platform/internal/voice"
	"voiceagent-platform/pkg/logger"
	"voiceagent-platform/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// Poller runs the reconciliation loop for one batch: fixed-interval polling
// against the vendor with a hard iteration cap, incrementally materializing
// recipient and conversation rows.
//
// The flat interval/cap policy matches the observed production behavior.
// Under many simultaneous campaigns it concentrates vendor traffic; adding
// backoff is a product decision, not something to slip in here.
type Poller struct {
	repo  Repository
	api   voice.API
	guard PollGuard

	interval      time.Duration
	maxIterations int

	clock func() time.Time
	// sleep is injectable for deterministic tests.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewPoller(repo Repository, api voice.API, guard PollGuard, cfg config.VoiceConfig) *Poller {
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	maxIter := cfg.PollMaxIterations
	if maxIter <= 0 {
		maxIter = 100
	}
	return &Poller{
		repo:          repo,
		api:           api,
		guard:         guard,
		interval:      interval,
		maxIterations: maxIter,
		clock:         time.Now,
		sleep:         sleepCtx,
	}
}

// PollResult reports whether the batch reached "completed" and how many
// iterations were consumed. Hitting the iteration cap without a terminal
// status is not an error: Completed is false and Err is nil.
type PollResult struct {
	Completed  bool `json:"completed"`
	Iterations int  `json:"iterations"`
}

var ErrPollInFlight = errors.New("campaigns: poll already running for batch")

// Poll runs to its own completion before returning; there is no partial
// streaming to the caller and no external cancellation beyond ctx.
func (p *Poller) Poll(ctx context.Context, workspaceID, batchID string) (PollResult, error) {
	log := logger.From(ctx).With("batch_id", batchID)

	if workspaceID == "" || batchID == "" {
		return PollResult{}, ErrInvalidArgument
	}

	if p.guard != nil {
		// Single invocation per batch: slot TTL covers the worst-case loop
		// duration so a crashed process cannot wedge the batch forever.
		ttl := p.interval*time.Duration(p.maxIterations) + p.interval
		ok, err := p.guard.Acquire(ctx, batchID, ttl)
		if err != nil {
			log.Warn("poll guard unavailable, proceeding unguarded", "err", err)
		} else if !ok {
			return PollResult{}, ErrPollInFlight
		} else {
			defer func() {
				if err := p.guard.Release(context.WithoutCancel(ctx), batchID); err != nil {
					log.Warn("poll guard release failed", "err", err)
				}
			}()
		}
	}

	for i := 1; i <= p.maxIterations; i++ {
		vs, err := p.api.GetBatch(ctx, batchID)
		if err != nil {
			// Transient failures consume an iteration and never abort the
			// loop; the shared cap bounds total retries.
			log.Warn("poll iteration failed", "iteration", i, "err", err)
		} else {
			reconcileVendorBatch(ctx, p.repo, workspaceID, vs, p.clock().UTC())

			switch normalizeBatchStatus(vs.Status) {
			case BatchStatusCompleted:
				applyCampaignProjection(ctx, p.repo, workspaceID, batchID, vs.Status)
				log.Info("batch completed", "iterations", i)
				return PollResult{Completed: true, Iterations: i}, nil
			case BatchStatusFailed, BatchStatusCancelled:
				applyCampaignProjection(ctx, p.repo, workspaceID, batchID, vs.Status)
				log.Info("batch ended without completion", "status", vs.Status, "iterations", i)
				return PollResult{Completed: false, Iterations: i}, nil
			}
		}

		if i < p.maxIterations {
			if err := p.sleep(ctx, p.interval); err != nil {
				return PollResult{Completed: false, Iterations: i}, err
			}
		}
	}

	log.Warn("poll iteration cap reached without terminal status", "iterations", p.maxIterations)
	return PollResult{Completed: false, Iterations: p.maxIterations}, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// PollGuard serializes polling per batch.
type PollGuard interface {
	Acquire(ctx context.Context, batchID string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, batchID string) error
}

// RedisPollGuard backs PollGuard with the shared redis slot scripts.
type RedisPollGuard struct {
	rdb *redis.Client
}

func NewRedisPollGuard(rdb *redis.Client) *RedisPollGuard {
	return &RedisPollGuard{rdb: rdb}
}

func (g *RedisPollGuard) Acquire(ctx context.Context, batchID string, ttl time.Duration) (bool, error) {
	return utils.AcquireBatchPollSlot(ctx, g.rdb, batchID, ttl)
}

func (g *RedisPollGuard) Release(ctx context.Context, batchID string) error {
	return utils.ReleaseBatchPollSlot(ctx, g.rdb, batchID)
}
