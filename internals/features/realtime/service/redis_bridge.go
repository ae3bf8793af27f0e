// file: internals/features/realtime/service/redis_bridge.go
package service

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const DefaultChannel = "schoolfee:realtime"

// RedisPublisher is the Broadcaster used when several instances run behind a load balancer:
// every instance subscribes and delivers to its own websockets.
type RedisPublisher struct {
	Client  *redis.Client
	Channel string
}

func NewRedisPublisher(rdb *redis.Client, channel string) *RedisPublisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisPublisher{Client: rdb, Channel: channel}
}

func (p *RedisPublisher) Broadcast(ctx context.Context, event string, payload any) error {
	env, err := NewEnvelope(event, payload)
	if err != nil {
		return err
	}
	frame, err := sonic.Marshal(env)
	if err != nil {
		return err
	}
	if err := p.Client.Publish(ctx, p.Channel, frame).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", p.Channel, err)
	}
	return nil
}

/* =========================================================
   Subscriber: redis channel → local hub
========================================================= */

type RedisSubscriber struct {
	Client  *redis.Client
	Channel string
	Hub     *Hub
	Log     *zap.Logger
}

func NewRedisSubscriber(rdb *redis.Client, channel string, hub *Hub, log *zap.Logger) *RedisSubscriber {
	if channel == "" {
		channel = DefaultChannel
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisSubscriber{Client: rdb, Channel: channel, Hub: hub, Log: log}
}

// Start returns once redis confirmed the subscription; frames are pumped until ctx is done.
func (s *RedisSubscriber) Start(ctx context.Context) error {
	ps := s.Client.Subscribe(ctx, s.Channel)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return fmt.Errorf("redis subscribe %s: %w", s.Channel, err)
	}

	go func() {
		defer ps.Close()
		ch := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				s.handle(msg.Payload)
			}
		}
	}()
	s.Log.Info("realtime redis subscriber started", zap.String("channel", s.Channel))
	return nil
}

func (s *RedisSubscriber) handle(payload string) {
	var env Envelope
	if err := sonic.UnmarshalString(payload, &env); err != nil {
		s.Log.Warn("realtime frame unreadable", zap.Error(err))
		return
	}
	if err := s.Hub.Deliver(env); err != nil {
		s.Log.Debug("realtime deliver skipped", zap.Error(err))
	}
}
