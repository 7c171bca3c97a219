package afterauth

import (
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nharu-x/afterauth/jwt"
	"github.com/nharu-x/afterauth/kv"
)

// Builder defines a public type used by afterauth APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config
	store  kv.Store

	auditSink AuditSink
	flavors   []ActorFlavor

	built bool
}

// New describes the new operation and its observable behavior.
//
// New may return an error when input validation, dependency calls, or security checks fail.
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
//
// WithConfig may return an error when input validation, dependency calls, or security checks fail.
// WithConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis describes the withredis operation and its observable behavior.
//
// WithRedis may return an error when input validation, dependency calls, or security checks fail.
// WithRedis does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.store = kv.NewRedisStore(client)
	return b
}

// WithStore describes the withstore operation and its observable behavior.
//
// WithStore may return an error when input validation, dependency calls, or security checks fail.
// WithStore does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithStore(store kv.Store) *Builder {
	b.store = store
	return b
}

// WithSigningKey describes the withsigningkey operation and its observable behavior.
//
// WithSigningKey may return an error when input validation, dependency calls, or security checks fail.
// WithSigningKey does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithSigningKey(method string, privateKey, publicKey []byte) *Builder {
	b.config.Token.SigningMethod = method
	b.config.Token.PrivateKey = cloneBytes(privateKey)
	b.config.Token.PublicKey = cloneBytes(publicKey)
	return b
}

// WithAuditSink describes the withauditsink operation and its observable behavior.
//
// WithAuditSink may return an error when input validation, dependency calls, or security checks fail.
// WithAuditSink does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	b.config.Audit.MirrorEnabled = sink != nil
	return b
}

// WithActorFlavor registers a custom flavor, replacing the default for its
// kind.
func (b *Builder) WithActorFlavor(flavor ActorFlavor) *Builder {
	if flavor != nil {
		b.flavors = append(b.flavors, flavor)
	}
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its observable behavior.
//
// WithMetricsEnabled may return an error when input validation, dependency calls, or security checks fail.
// WithMetricsEnabled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms describes the withlatencyhistograms operation and its observable behavior.
//
// WithLatencyHistograms may return an error when input validation, dependency calls, or security checks fail.
// WithLatencyHistograms does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build may return an error when input validation, dependency calls, or security checks fail.
// Build does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if b.store == nil {
		return nil, errors.New("kv store required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	signer, err := jwt.NewSigner(jwt.Config{
		SigningMethod: jwt.SigningMethod(cfg.Token.SigningMethod),
		PrivateKey:    cloneBytes(cfg.Token.PrivateKey),
		PublicKey:     cloneBytes(cfg.Token.PublicKey),
		Issuer:        cfg.Token.Issuer,
		Leeway:        cfg.Token.Leeway,
	})
	if err != nil {
		return nil, err
	}

	flavors := defaultFlavors()
	for _, flavor := range b.flavors {
		flavors[flavor.Kind()] = flavor
	}

	engine := &Engine{
		config:  cfg,
		store:   b.store,
		keys:    kv.NewKeys(cfg.KeyPrefix),
		signer:  signer,
		audit:   newAuditDispatcher(cfg.Audit, b.auditSink),
		metrics: NewMetrics(cfg.Metrics),
		flavors: flavors,
		now:     time.Now,
	}

	b.built = true

	return engine, nil
}
