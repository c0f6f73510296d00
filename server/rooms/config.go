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


package rooms

import (
	"errors"
	"fmt"
	"time"
)

const (
	// DefaultPort is the default port of the relay.
	DefaultPort = 8080

	// DefaultMaxConnections is the default limit of simultaneous
	// connections. Zero means no limit.
	DefaultMaxConnections = 0

	// DefaultPeerQueueSize is the default number of frames buffered for a
	// peer before it is dropped as too slow.
	DefaultPeerQueueSize = 256

	// DefaultMaxFrameSize is the default size limit of an incoming frame.
	DefaultMaxFrameSize = 16 << 20

	// DefaultShutdownTimeout is the default time to wait for connections to
	// drain on shutdown.
	DefaultShutdownTimeout = 10 * time.Second
)

var (
	// ErrInvalidRelayPort occurs when the port in the config is invalid.
	ErrInvalidRelayPort = errors.New("invalid port number for relay server")

	// ErrInvalidQueueSize occurs when the peer queue size is not positive.
	ErrInvalidQueueSize = errors.New("invalid peer queue size")
)

// Config is the configuration for creating a Server instance.
type Config struct {
	// Port is the port the relay listens on.
	Port int `yaml:"Port"`

	// MaxConnections limits the simultaneous connections. Zero means no
	// limit.
	MaxConnections int `yaml:"MaxConnections"`

	// PeerQueueSize is the number of frames buffered for a peer.
	PeerQueueSize int `yaml:"PeerQueueSize"`

	// MaxFrameSize is the size limit of an incoming frame in bytes.
	MaxFrameSize int64 `yaml:"MaxFrameSize"`

	// AllowedOrigins lists the origins browsers may connect from. Empty
	// allows every origin.
	AllowedOrigins []string `yaml:"AllowedOrigins"`

	// ShutdownTimeout is the time to wait for connections on shutdown.
	ShutdownTimeout string `yaml:"ShutdownTimeout"`
}

// Validate validates this config.
func (c *Config) Validate() error {
	if c.Port < 1 || 65535 < c.Port {
		return fmt.Errorf("must be between 1 and 65535, given %d: %w", c.Port, ErrInvalidRelayPort)
	}

	if c.PeerQueueSize <= 0 {
		return fmt.Errorf("given %d: %w", c.PeerQueueSize, ErrInvalidQueueSize)
	}

	if c.MaxConnections < 0 {
		return fmt.Errorf(`invalid argument %d for "--max-connections" flag`, c.MaxConnections)
	}

	if c.MaxFrameSize <= 0 {
		return fmt.Errorf(`invalid argument %d for "--max-frame-size" flag`, c.MaxFrameSize)
	}

	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf(
			`invalid argument "%s" for "--shutdown-timeout" flag: %w`,
			c.ShutdownTimeout,
			err,
		)
	}

	return nil
}

// ParseShutdownTimeout returns the shutdown timeout duration.
func (c *Config) ParseShutdownTimeout() time.Duration {
	result, err := time.ParseDuration(c.ShutdownTimeout)
	if err != nil {
		return DefaultShutdownTimeout
	}

	return result
}
