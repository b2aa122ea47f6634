// Package notify publishes placement events to a best-effort notification
// channel. Delivery is fire-and-forget and at-least-once: a failed publish
// is logged and never blocks or rolls back the mutation that triggered it.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// Event describes one successful placement mutation.
type Event struct {
	PlacementID string    `json:"placement_id"`
	Operation   string    `json:"operation"`
	Stage       string    `json:"stage"`
	ActorID     string    `json:"actor_id,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// System publishes placement events. Publish blocks for at most the
// configured timeout; Dispatch is the fire-and-forget form used after
// successful mutations.
type System interface {
	Publish(ctx context.Context, event Event) error
	Dispatch(event Event)
}

type publisher struct {
	client  *sns.Client
	topic   string
	timeout time.Duration
	logger  *slog.Logger
}

// New creates a notification system from the given configuration.
// A disabled configuration returns a no-op system.
func New(ctx context.Context, cfg *Config, logger *slog.Logger) (System, error) {
	if !cfg.Enabled {
		return &noop{}, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &publisher{
		client:  sns.NewFromConfig(awsCfg),
		topic:   cfg.TopicARN,
		timeout: cfg.TimeoutDuration(),
		logger:  logger.With("system", "notify"),
	}, nil
}

func (p *publisher) Publish(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	_, err = p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topic),
		Message:  aws.String(string(body)),
	})
	if err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}

	return nil
}

// Dispatch publishes in a detached goroutine with its own context so a slow
// or failing channel never blocks the caller.
func (p *publisher) Dispatch(event Event) {
	go func() {
		if err := p.Publish(context.Background(), event); err != nil {
			p.logger.Warn(
				"notification dispatch failed",
				"placement_id", event.PlacementID,
				"operation", event.Operation,
				"error", err,
			)
		}
	}()
}

type noop struct{}

func (*noop) Publish(context.Context, Event) error { return nil }
func (*noop) Dispatch(Event)                       {}
