package realtime

import (
	"context"

	"github.com/planboardhq/planboard-backend/pkg/logger"
)

type channelPublisher interface {
	Publish(ctx context.Context, channel string, payload any) error
}

// Publisher pushes committed-change events onto the pub/sub channel the hub
// listens on. Publishing is strictly best effort: the mutation has already
// committed, so failures are logged and never surfaced to the caller.
type Publisher struct {
	redis   channelPublisher
	channel string
	log     *logger.Logger
}

// NewPublisher builds a change publisher for the given channel.
func NewPublisher(redis channelPublisher, channel string, log *logger.Logger) *Publisher {
	return &Publisher{redis: redis, channel: channel, log: log}
}

// Announce publishes the event. Safe to call on a nil publisher so services
// can run without realtime wired, as in tests.
func (p *Publisher) Announce(ctx context.Context, event Event) {
	if p == nil || p.redis == nil {
		return
	}
	payload, err := event.Encode()
	if err != nil {
		if p.log != nil {
			p.log.Error(ctx, "encoding realtime event", err)
		}
		return
	}
	if err := p.redis.Publish(ctx, p.channel, payload); err != nil && p.log != nil {
		p.log.Error(ctx, "publishing realtime event", err)
	}
}
