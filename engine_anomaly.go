package afterauth

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/nharu-x/afterauth/kv"
)

// detectAnomalies runs the three login anomaly checks in order: off-hours
// time, login burst, and IP change. Each check that fires records an audit
// event; the checks are independent, so a single login can trigger all
// three. Detection never blocks the login.
func (e *Engine) detectAnomalies(ctx context.Context, login LoginContext, t AnomalyThresholds) error {
	now := e.now()

	if err := e.checkOffHours(ctx, login, t, now); err != nil {
		log.Printf("afterauth: off-hours check failed: %v", err)
	}
	if err := e.checkLoginBurst(ctx, login, t, now); err != nil {
		log.Printf("afterauth: burst check failed: %v", err)
	}
	if err := e.checkIPChange(ctx, login); err != nil {
		log.Printf("afterauth: ip change check failed: %v", err)
	}
	return nil
}

// checkOffHours flags logins outside the [OffHoursStart, OffHoursEnd)
// local-hour window.
func (e *Engine) checkOffHours(ctx context.Context, login LoginContext, t AnomalyThresholds, now time.Time) error {
	hour := now.Hour()
	if hour >= t.OffHoursStart && hour < t.OffHoursEnd {
		return nil
	}

	e.metrics.Inc(MetricAnomalyOffHours)
	return e.recordAudit(ctx, login.ActorID, login.ActorName, t.OffHoursEvent, map[string]any{
		"hour": hour,
		"ip":   login.IP,
	})
}

// checkLoginBurst samples the most recent history entries and flags the
// login when enough of them fall inside the burst window. The window is
// measured from the oldest sampled entry to now.
func (e *Engine) checkLoginBurst(ctx context.Context, login LoginContext, t AnomalyThresholds, now time.Time) error {
	key := e.keys.History(login.ActorID)
	if t.UseElevatedHistory {
		key = e.keys.ElevatedHistory(login.ActorID)

		entry, err := json.Marshal(HistoryEntry{
			Timestamp: now.UnixMilli(),
			IP:        login.IP,
			UserAgent: login.UserAgent,
			Event:     "login",
		})
		if err == nil {
			if err := e.store.ListPush(ctx, key, string(entry)); err != nil {
				return err
			}
			if err := e.store.ListTrim(ctx, key, 0, int64(e.config.History.ElevatedCap)-1); err != nil {
				return err
			}
			if err := e.store.Expire(ctx, key, e.config.History.TTL); err != nil {
				return err
			}
		}
	}

	raw, err := e.store.ListRange(ctx, key, 0, int64(t.BurstSamples)-1)
	if err != nil {
		return err
	}
	if len(raw) < t.BurstMinEntries {
		return nil
	}

	oldest := int64(0)
	for _, item := range raw {
		var entry HistoryEntry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			continue
		}
		if oldest == 0 || entry.Timestamp < oldest {
			oldest = entry.Timestamp
		}
	}
	if oldest == 0 {
		return nil
	}

	elapsed := now.UnixMilli() - oldest
	if elapsed >= t.BurstWindow.Milliseconds() {
		return nil
	}

	e.metrics.Inc(MetricAnomalyBurst)
	return e.recordAudit(ctx, login.ActorID, login.ActorName, t.BurstEvent, map[string]any{
		"sampled":    len(raw),
		"window_ms":  elapsed,
		"ip":         login.IP,
		"user_agent": login.UserAgent,
	})
}

// checkIPChange compares the login IP against the last one seen by this
// check and records the new IP either way. The first login for an actor
// seeds the key silently.
func (e *Engine) checkIPChange(ctx context.Context, login LoginContext) error {
	key := e.keys.LastIP(login.ActorID)

	last, err := e.store.Get(ctx, key)
	if err != nil && !errors.Is(err, kv.ErrKeyNotFound) {
		return err
	}

	if err := e.store.Set(ctx, key, login.IP, e.config.History.TTL); err != nil {
		return err
	}

	if last == "" || last == login.IP {
		return nil
	}

	e.metrics.Inc(MetricAnomalyIPChange)
	return e.recordAudit(ctx, login.ActorID, login.ActorName, EventIPAddressChange, map[string]any{
		"previous_ip": last,
		"current_ip":  login.IP,
	})
}
