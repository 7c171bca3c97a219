package afterauth

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/nharu-x/afterauth/kv"
)

// updateStatistics advances every login counter: the daily totals, the
// actor's cumulative record, and the global counters. Counters are plain
// keys so any KV backend can serve them.
func (e *Engine) updateStatistics(ctx context.Context, login LoginContext) error {
	now := e.now()
	date := now.Format("2006-01-02")

	if _, err := e.store.Incr(ctx, e.keys.StatsDailyTotal(date)); err != nil {
		return err
	}
	if err := e.store.Expire(ctx, e.keys.StatsDailyTotal(date), e.config.Stats.DailyTTL); err != nil {
		return err
	}
	if _, err := e.store.Incr(ctx, e.keys.StatsDailyActor(date, login.ActorID)); err != nil {
		return err
	}
	if err := e.store.Expire(ctx, e.keys.StatsDailyActor(date, login.ActorID), e.config.Stats.DailyTTL); err != nil {
		return err
	}

	if err := e.updateActorStats(ctx, login.ActorID, now.UnixMilli()); err != nil {
		return err
	}

	if _, err := e.store.Incr(ctx, e.keys.StatsGlobalTotal()); err != nil {
		return err
	}
	if _, err := e.store.Incr(ctx, e.keys.StatsGlobalToday()); err != nil {
		return err
	}
	return e.store.Expire(ctx, e.keys.StatsGlobalToday(), e.config.Stats.TodayTTL)
}

// updateActorStats rewrites the actor's cumulative JSON record. A missing
// or corrupt record restarts from zero rather than failing the stage.
func (e *Engine) updateActorStats(ctx context.Context, actorID int64, nowMillis int64) error {
	key := e.keys.StatsActor(actorID)

	var stats LoginStats
	raw, err := e.store.Get(ctx, key)
	if err != nil && !errors.Is(err, kv.ErrKeyNotFound) {
		return err
	}
	if err == nil {
		if uerr := json.Unmarshal([]byte(raw), &stats); uerr != nil {
			stats = LoginStats{}
		}
	}

	stats.TotalLogins++
	stats.LoginStreak++
	stats.LastLogin = nowMillis

	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return e.store.Set(ctx, key, string(data), e.config.Stats.ActorTTL)
}

// ActorStats loads the cumulative login record for one actor.
func (e *Engine) ActorStats(ctx context.Context, actorID int64) (LoginStats, error) {
	var stats LoginStats

	raw, err := e.store.Get(ctx, e.keys.StatsActor(actorID))
	if err != nil {
		return stats, err
	}
	if err := json.Unmarshal([]byte(raw), &stats); err != nil {
		return stats, err
	}
	return stats, nil
}
