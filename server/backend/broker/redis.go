/*
 * Copyright 2026 The Yorkie Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */


package broker

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/datacanvas/collab/internal/logging"
	"github.com/datacanvas/collab/pkg/document/key"
)

// Redis is a Broker on redis pub/sub. Each room is one channel.
type Redis struct {
	conf   *RedisConfig
	node   string
	client *redis.Client
	logger logging.Logger
}

// DialRedis connects to the redis server of the config.
func DialRedis(conf *RedisConfig, node string) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        conf.Address,
		Password:    conf.Password,
		DB:          conf.DB,
		DialTimeout: conf.ParseDialTimeout(),
	})

	ctx, cancel := context.WithTimeout(context.Background(), conf.ParseDialTimeout())
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", conf.Address, err)
	}

	logging.DefaultLogger().Infof("redis connected, address: %s, node: %s", conf.Address, node)

	return &Redis{
		conf:   conf,
		node:   node,
		client: client,
		logger: logging.New("broker", logging.NewField("node", node)),
	}, nil
}

func (r *Redis) channel(room key.Key) string {
	return r.conf.ChannelPrefix + room.String()
}

// Publish sends the frame to the channel of the room.
func (r *Redis) Publish(ctx context.Context, room key.Key, data []byte) error {
	payload, err := encode(r.node, data)
	if err != nil {
		return err
	}

	if err := r.client.Publish(ctx, r.channel(room), payload).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", room, err)
	}
	return nil
}

// Subscribe registers the handler for the channel of the room. The handler
// is called from a goroutine of the subscription.
func (r *Redis) Subscribe(ctx context.Context, room key.Key, handler Handler) (Subscription, error) {
	pubsub := r.client.Subscribe(ctx, r.channel(room))

	// wait for the confirmation so that no frame published after Subscribe
	// returns is missed
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe to %s: %w", room, err)
	}

	sub := &redisSubscription{
		pubsub: pubsub,
		done:   make(chan struct{}),
	}
	go func() {
		defer close(sub.done)
		for msg := range pubsub.Channel() {
			env, err := decode([]byte(msg.Payload))
			if err != nil {
				r.logger.Warnf("drop frame of %s: %v", room, err)
				continue
			}
			if env.Node == r.node {
				continue
			}
			handler(env.Data)
		}
	}()

	return sub, nil
}

// Close closes the redis client.
func (r *Redis) Close() error {
	if err := r.client.Close(); err != nil {
		return fmt.Errorf("close redis: %w", err)
	}
	return nil
}

type redisSubscription struct {
	pubsub *redis.PubSub
	done   chan struct{}
}

func (s *redisSubscription) Close() error {
	if err := s.pubsub.Close(); err != nil {
		return fmt.Errorf("close subscription: %w", err)
	}
	<-s.done
	return nil
}
