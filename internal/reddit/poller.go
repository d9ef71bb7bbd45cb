package reddit

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/whale-tracker/internal/config"
	"github.com/whale-tracker/internal/logging"
	"github.com/whale-tracker/internal/models"
)

// PostFetcher abstracts the listing API so the poller can be tested
// without the network.
type PostFetcher interface {
	FetchNewPosts(ctx context.Context, stream string, limit int) ([]models.Post, error)
}

// Poller walks the configured streams in order and returns the recent
// posts worth scanning. Upstream pacing is enforced with a token bucket
// per post plus a fixed gap between streams.
type Poller struct {
	fetcher      PostFetcher
	streams      []string
	postLimit    int
	maxPostAge   time.Duration
	streamPacing time.Duration
	fetchTimeout time.Duration
	postLimiter  *rate.Limiter
}

// NewPoller builds a Poller over fetcher using forum configuration.
func NewPoller(fetcher PostFetcher, cfg config.RedditConfig) *Poller {
	return &Poller{
		fetcher:      fetcher,
		streams:      cfg.Streams,
		postLimit:    cfg.PostLimit,
		maxPostAge:   cfg.MaxPostAge,
		streamPacing: cfg.StreamPacing,
		fetchTimeout: cfg.FetchTimeout,
		postLimiter:  rate.NewLimiter(rate.Every(cfg.PostPacing), 1),
	}
}

// Poll fetches every stream once and returns the posts that survive the
// recency cutoff. A stream that fails is logged and skipped; the
// remaining streams are still polled. Poll returns early only when ctx
// is cancelled.
func (p *Poller) Poll(ctx context.Context) ([]models.Post, error) {
	logger := logging.FromContext(ctx)
	cutoff := time.Now().Add(-p.maxPostAge)

	var posts []models.Post
	for i, stream := range p.streams {
		if i > 0 {
			select {
			case <-time.After(p.streamPacing):
			case <-ctx.Done():
				return posts, ctx.Err()
			}
		}

		fetched, err := p.pollStream(ctx, stream)
		if err != nil {
			if ctx.Err() != nil {
				return posts, ctx.Err()
			}
			logger.WithError(err).WithField("stream", stream).Warn("stream poll failed, skipping")
			continue
		}

		kept := 0
		for _, post := range fetched {
			if post.CreatedAt.Before(cutoff) {
				continue
			}
			if err := p.postLimiter.Wait(ctx); err != nil {
				return posts, err
			}
			posts = append(posts, post)
			kept++
		}

		logger.WithFields(map[string]interface{}{
			"stream":  stream,
			"fetched": len(fetched),
			"kept":    kept,
		}).Debug("stream polled")
	}

	return posts, nil
}

func (p *Poller) pollStream(ctx context.Context, stream string) ([]models.Post, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, p.fetchTimeout)
	defer cancel()
	return p.fetcher.FetchNewPosts(fetchCtx, stream, p.postLimit)
}

// Streams returns the streams this poller walks, in order.
func (p *Poller) Streams() []string {
	return p.streams
}
