package afterauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/nharu-x/afterauth/jwt"
	"github.com/nharu-x/afterauth/kv"
)

// tokenRecord is the store-side lookup entry written for every issued
// token. Its presence is part of token validity: a verified signature with
// no lookup entry fails closed.
type tokenRecord struct {
	ActorID    int64  `json:"actor_id"`
	ActorName  string `json:"actor_name"`
	IssuedAt   int64  `json:"issued_at"`
	LastActive int64  `json:"last_active"`
	IP         string `json:"ip,omitempty"`
	UserAgent  string `json:"user_agent,omitempty"`
}

// HistoryEntry is one element of the per-actor login history list.
type HistoryEntry struct {
	Timestamp int64  `json:"timestamp"`
	IP        string `json:"ip,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
	Event     string `json:"event"`
}

// IssueToken signs a new token for the actor and registers every piece of
// server-side state that makes it usable: the lookup record, the actor's
// active-token set, a login history entry, and the online marker.
//
// Unlike the flow stages this is not best-effort: a store failure aborts
// issuance and returns ErrTokenBackendUnavailable.
func (e *Engine) IssueToken(ctx context.Context, actorID int64, actorName string, opts IssueOptions) (string, error) {
	if e == nil || e.signer == nil {
		return "", ErrEngineNotReady
	}

	claims := jwt.Claims{
		ActorID:   actorID,
		ActorName: actorName,
		Nonce:     uuid.NewString(),
		Extra:     opts.Claims,
	}
	token, err := e.signer.Sign(claims, e.config.Token.TTL)
	if err != nil {
		return "", err
	}

	now := e.now().UnixMilli()
	record := tokenRecord{
		ActorID:    actorID,
		ActorName:  actorName,
		IssuedAt:   now,
		LastActive: now,
		IP:         opts.IP,
		UserAgent:  opts.UserAgent,
	}
	data, err := json.Marshal(record)
	if err != nil {
		return "", err
	}

	ttl := e.config.Token.TTL
	if err := e.store.Set(ctx, e.keys.Token(token), string(data), ttl); err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenBackendUnavailable, err)
	}
	if err := e.store.SetAdd(ctx, e.keys.TokenSet(actorID), token); err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenBackendUnavailable, err)
	}
	if err := e.store.Expire(ctx, e.keys.TokenSet(actorID), ttl); err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenBackendUnavailable, err)
	}

	e.appendHistory(ctx, actorID, HistoryEntry{
		Timestamp: now,
		IP:        opts.IP,
		UserAgent: opts.UserAgent,
		Event:     "login",
	})

	if err := e.store.Set(ctx, e.keys.Online(actorID), "1", e.config.Session.OnlineTTL); err != nil {
		log.Printf("afterauth: online marker write failed: %v", err)
	}

	e.metrics.Inc(MetricTokenIssued)
	return token, nil
}

// ValidateToken reports whether the token is currently usable. Any doubt
// fails closed: a blacklisted token, a bad signature, a missing lookup
// record, or an unreachable store all return false.
//
// A successful validation refreshes the last-active timestamp on both the
// lookup record and the actor's session.
func (e *Engine) ValidateToken(ctx context.Context, token string) bool {
	if e == nil || e.signer == nil || token == "" {
		return false
	}

	blacklisted, err := e.store.Exists(ctx, e.keys.Blacklist(token))
	if err != nil || blacklisted {
		e.metrics.Inc(MetricTokenRejected)
		return false
	}

	claims, err := e.signer.Verify(token)
	if err != nil {
		e.metrics.Inc(MetricTokenRejected)
		return false
	}

	raw, err := e.store.Get(ctx, e.keys.Token(token))
	if err != nil {
		e.metrics.Inc(MetricTokenRejected)
		return false
	}

	var record tokenRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil || record.ActorID != claims.ActorID {
		e.metrics.Inc(MetricTokenRejected)
		return false
	}

	record.LastActive = e.now().UnixMilli()
	if data, err := json.Marshal(record); err == nil {
		if err := e.store.Set(ctx, e.keys.Token(token), string(data), e.config.Token.TTL); err != nil {
			log.Printf("afterauth: token activity refresh failed: %v", err)
		}
	}

	// A token can outlive its session record, so a missing session is fine.
	if err := e.TouchSession(ctx, record.ActorID); err != nil && !errors.Is(err, kv.ErrKeyNotFound) {
		log.Printf("afterauth: session activity refresh failed: %v", err)
	}

	e.metrics.Inc(MetricTokenValidated)
	return true
}

// RevokeToken invalidates a single token. The blacklist entry is the
// authoritative kill switch; the lookup record and set membership are
// cleaned up on a best-effort basis afterwards.
func (e *Engine) RevokeToken(ctx context.Context, token string) bool {
	if e == nil || e.signer == nil || token == "" {
		return false
	}

	claims, err := e.signer.Verify(token)
	if err != nil {
		return false
	}

	if err := e.store.Set(ctx, e.keys.Blacklist(token), "revoked", e.config.Token.BlacklistTTL); err != nil {
		return false
	}

	if err := e.store.SetRemove(ctx, e.keys.TokenSet(claims.ActorID), token); err != nil {
		log.Printf("afterauth: token set cleanup failed: %v", err)
	}
	if err := e.store.Delete(ctx, e.keys.Token(token)); err != nil {
		log.Printf("afterauth: token record cleanup failed: %v", err)
	}

	e.appendHistory(ctx, claims.ActorID, HistoryEntry{
		Timestamp: e.now().UnixMilli(),
		Event:     "logout",
	})

	e.metrics.Inc(MetricTokenRevoked)
	return true
}

// RevokeAllTokens force-logs-out an actor: every active token is
// blacklisted and the session, token set, and online marker are removed.
// An actor with no active tokens revokes successfully; only a store
// failure returns false.
func (e *Engine) RevokeAllTokens(ctx context.Context, actorID int64) bool {
	if e == nil {
		return false
	}

	tokens, err := e.store.SetMembers(ctx, e.keys.TokenSet(actorID))
	if err != nil && !errors.Is(err, kv.ErrKeyNotFound) {
		return false
	}

	for _, token := range tokens {
		if err := e.store.Set(ctx, e.keys.Blacklist(token), "revoked", e.config.Token.BlacklistTTL); err != nil {
			return false
		}
		if err := e.store.Delete(ctx, e.keys.Token(token)); err != nil {
			log.Printf("afterauth: token record cleanup failed: %v", err)
		}
	}

	for _, key := range []string{
		e.keys.TokenSet(actorID),
		e.keys.Session(actorID),
		e.keys.Online(actorID),
	} {
		if err := e.store.Delete(ctx, key); err != nil {
			return false
		}
	}

	e.metrics.Inc(MetricForceRevocation)
	return true
}

// TouchSession refreshes the session's last-active timestamp without
// extending the login itself.
func (e *Engine) TouchSession(ctx context.Context, actorID int64) error {
	raw, err := e.store.Get(ctx, e.keys.Session(actorID))
	if err != nil {
		return err
	}

	var sess Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return err
	}
	sess.LastActive = e.now().UnixMilli()

	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return e.store.Set(ctx, e.keys.Session(actorID), string(data), e.config.Session.TTL)
}

// GetSession loads the actor's current session record.
func (e *Engine) GetSession(ctx context.Context, actorID int64) (Session, error) {
	var sess Session

	raw, err := e.store.Get(ctx, e.keys.Session(actorID))
	if err != nil {
		return sess, err
	}
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return sess, err
	}
	return sess, nil
}

// IsOnline reports whether the actor's online marker is live.
func (e *Engine) IsOnline(ctx context.Context, actorID int64) (bool, error) {
	return e.store.Exists(ctx, e.keys.Online(actorID))
}

// LoginHistory returns up to limit entries of the actor's login history,
// newest first. A non-positive limit returns the full retained window.
func (e *Engine) LoginHistory(ctx context.Context, actorID int64, limit int) ([]HistoryEntry, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}

	raw, err := e.store.ListRange(ctx, e.keys.History(actorID), 0, stop)
	if err != nil {
		return nil, err
	}

	entries := make([]HistoryEntry, 0, len(raw))
	for _, item := range raw {
		var entry HistoryEntry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// appendHistory pushes a login history entry and enforces the retention cap.
// History is advisory; failures are logged, never propagated.
func (e *Engine) appendHistory(ctx context.Context, actorID int64, entry HistoryEntry) {
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}

	key := e.keys.History(actorID)
	if err := e.store.ListPush(ctx, key, string(data)); err != nil {
		log.Printf("afterauth: history append failed: %v", err)
		return
	}
	if err := e.store.ListTrim(ctx, key, 0, int64(e.config.History.Cap)-1); err != nil {
		log.Printf("afterauth: history trim failed: %v", err)
	}
	if err := e.store.Expire(ctx, key, e.config.History.TTL); err != nil {
		log.Printf("afterauth: history expire failed: %v", err)
	}
}
