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
	"errors"
	"fmt"
	"time"
)

const (
	// DefaultChannelPrefix is the prefix of the redis channels of rooms.
	DefaultChannelPrefix = "collab:rooms:"

	// DefaultDialTimeout is the default timeout for connecting to redis.
	DefaultDialTimeout = 5 * time.Second
)

var (
	// ErrEmptyAddress is returned when the address is empty.
	ErrEmptyAddress = errors.New("address cannot be empty")

	// ErrEmptyChannelPrefix is returned when the channel prefix is empty.
	ErrEmptyChannelPrefix = errors.New("channel prefix cannot be empty")
)

// RedisConfig is the configuration for creating a Redis broker.
type RedisConfig struct {
	Address       string `yaml:"Address"`
	Password      string `yaml:"Password"`
	DB            int    `yaml:"DB"`
	ChannelPrefix string `yaml:"ChannelPrefix"`
	DialTimeout   string `yaml:"DialTimeout"`
}

// Validate validates this config.
func (c *RedisConfig) Validate() error {
	if c.Address == "" {
		return ErrEmptyAddress
	}

	if c.ChannelPrefix == "" {
		return ErrEmptyChannelPrefix
	}

	if _, err := time.ParseDuration(c.DialTimeout); err != nil {
		return fmt.Errorf(
			`invalid argument "%s" for "--redis-dial-timeout" flag: %w`,
			c.DialTimeout,
			err,
		)
	}

	return nil
}

// ParseDialTimeout returns the dial timeout duration.
func (c *RedisConfig) ParseDialTimeout() time.Duration {
	result, err := time.ParseDuration(c.DialTimeout)
	if err != nil {
		return DefaultDialTimeout
	}

	return result
}
