package vision

import (
	"context"
	"log/slog"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Judge wraps a Provider with the fail-closed policy and a short-lived
// verdict cache keyed by content digest. Re-submitting the same payload
// within the TTL reuses the earlier verdict instead of paying another
// network round trip.
type Judge struct {
	provider Provider
	cache    *gocache.Cache
	logger   *slog.Logger
}

// NewJudge creates a Judge. verdictTTL bounds how long a cached verdict for a
// given digest stays valid.
func NewJudge(provider Provider, verdictTTL time.Duration, logger *slog.Logger) *Judge {
	if verdictTTL <= 0 {
		verdictTTL = 10 * time.Minute
	}
	return &Judge{
		provider: provider,
		cache:    gocache.New(verdictTTL, 2*verdictTTL),
		logger:   logger,
	}
}

// Judge evaluates the image and never returns an error: every provider fault
// (timeout, malformed reply, service error) collapses to the zero-confidence
// verdict with a labeled reason.
func (j *Judge) Judge(ctx context.Context, image []byte, imageDigest, eventName, locationHint string) *Judgment {
	cacheKey := imageDigest + "|" + eventName
	if cached, ok := j.cache.Get(cacheKey); ok {
		return cached.(*Judgment)
	}

	judgment, err := j.provider.Evaluate(ctx, image, eventName, locationHint)
	if err != nil {
		j.logger.WarnContext(ctx, "vision evaluation failed closed",
			"event", eventName,
			"digest_prefix", shortDigest(imageDigest),
			"error", err,
		)
		return Failed(err.Error())
	}

	j.cache.SetDefault(cacheKey, judgment)
	return judgment
}

func shortDigest(d string) string {
	if len(d) > 16 {
		return d[:16]
	}
	return d
}
