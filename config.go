package restguard

import (
	"log/slog"
	"time"

	"github.com/markbsigler/restguard/breaker"
	"github.com/markbsigler/restguard/cache"
	"github.com/markbsigler/restguard/metrics"
	"github.com/markbsigler/restguard/policy"
	"github.com/markbsigler/restguard/retry"
	"github.com/markbsigler/restguard/tracing"
)

// config holds the internal configuration assembled via functional options.
type config struct {
	backend       cache.Backend
	cacheSize     int
	defaultTTL    time.Duration
	remoteStore   cache.RemoteStore
	remoteCodec   cache.Codec
	remoteNS      string
	localTTLRatio float64

	rpm          float64
	burst        int
	waitForToken bool

	retryCfg   retry.Config
	breakerCfg breaker.Config

	staleOnError bool
	policies     *policy.Resolver
	middleware   []Middleware

	metrics metrics.Recorder
	logger  *slog.Logger
	tracing *tracing.Config
}
