package cli

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/zonealloc/pkg/observability"
)

// telemetry is the set of hooks built from a telemetryConfig, plus the
// shutdown work that flushes and disconnects every backend.
type telemetry struct {
	hooks observability.AllocatorHooks
	// backends holds one shutdown sequence per backend, run in order.
	backends [][]func(context.Context) error
}

// setupTelemetry connects every configured backend. Backends are optional;
// with nothing configured the hooks are a no-op.
func setupTelemetry(ctx context.Context, cfg telemetryConfig, logger *log.Logger) (*telemetry, error) {
	t := &telemetry{}
	var fan observability.Fanout

	if cfg.LogEvents {
		fan = append(fan, observability.NewEventHooks(observability.LogPublisher{Logger: logger}))
	}

	if cfg.RedisURL != "" {
		client, err := observability.OpenRedis(ctx, cfg.RedisURL)
		if err != nil {
			_ = t.close(ctx)
			return nil, err
		}
		channel := cfg.RedisChannel
		if channel == "" {
			channel = observability.DefaultRedisChannel
		}
		async := observability.NewAsync(observability.NewRedisPublisher(client, channel), cfg.Buffer, logger)
		fan = append(fan, observability.NewEventHooks(async))
		t.backends = append(t.backends, []func(context.Context) error{
			async.Close,
			func(context.Context) error { return client.Close() },
		})
		logger.Info("publishing events to redis", "channel", channel)
	}

	if cfg.MongoURI != "" {
		database := cfg.MongoDatabase
		if database == "" {
			database = defaultMongoDatabase
		}
		client, coll, err := observability.OpenMongo(ctx, cfg.MongoURI, database)
		if err != nil {
			_ = t.close(ctx)
			return nil, err
		}
		async := observability.NewAsync(observability.NewMongoPublisher(coll), cfg.Buffer, logger)
		fan = append(fan, observability.NewEventHooks(async))
		t.backends = append(t.backends, []func(context.Context) error{async.Close, client.Disconnect})
		logger.Info("archiving events to mongodb", "database", database, "collection", coll.Name())
	}

	if cfg.OTelEndpoint != "" {
		shutdown, err := observability.SetupTracing(ctx, appName, cfg.OTelEndpoint)
		if err != nil {
			_ = t.close(ctx)
			return nil, fmt.Errorf("setup tracing: %w", err)
		}
		fan = append(fan, observability.NewTracingHooks())
		t.backends = append(t.backends, []func(context.Context) error{shutdown})
		logger.Info("exporting spans", "endpoint", cfg.OTelEndpoint)
	}

	switch len(fan) {
	case 0:
		t.hooks = observability.NoopAllocatorHooks{}
	case 1:
		t.hooks = fan[0]
	default:
		t.hooks = fan
	}
	return t, nil
}

// close shuts the backends down concurrently and returns the first error.
// Within a backend the async queue drains before the client disconnects.
func (t *telemetry) close(ctx context.Context) error {
	var g errgroup.Group
	for _, steps := range t.backends {
		g.Go(func() error {
			for _, step := range steps {
				if err := step(ctx); err != nil {
					return err
				}
			}
			return nil
		})
	}
	t.backends = nil
	return g.Wait()
}
