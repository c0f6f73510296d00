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


package housekeeping

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidMaxConcurrentSaves is returned when the save limit is not positive.
var ErrInvalidMaxConcurrentSaves = errors.New("max concurrent saves must be positive")

// Config is the configuration for the housekeeping service.
type Config struct {
	// Interval is the time between two runs of the registered tasks.
	Interval string `yaml:"Interval"`

	// TaskTimeout bounds a single run of a task. Empty means no bound.
	TaskTimeout string `yaml:"TaskTimeout"`

	// MaxConcurrentSaves caps the snapshot saves in flight, including the
	// ones triggered by rooms closing between runs.
	MaxConcurrentSaves int `yaml:"MaxConcurrentSaves"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if _, err := c.ParseInterval(); err != nil {
		return fmt.Errorf(`invalid argument for "--housekeeping-interval" flag: %w`, err)
	}

	if _, err := c.ParseTaskTimeout(); err != nil {
		return fmt.Errorf(`invalid argument for "--housekeeping-task-timeout" flag: %w`, err)
	}

	if c.MaxConcurrentSaves <= 0 {
		return fmt.Errorf("given %d: %w", c.MaxConcurrentSaves, ErrInvalidMaxConcurrentSaves)
	}

	return nil
}

// ParseInterval parses the interval. It must be positive.
func (c *Config) ParseInterval() (time.Duration, error) {
	interval, err := time.ParseDuration(c.Interval)
	if err != nil {
		return 0, fmt.Errorf("parse interval %s: %w", c.Interval, err)
	}
	if interval <= 0 {
		return 0, fmt.Errorf("interval %s is not positive", c.Interval)
	}

	return interval, nil
}

// ParseTaskTimeout parses the task timeout. Zero means no timeout.
func (c *Config) ParseTaskTimeout() (time.Duration, error) {
	if c.TaskTimeout == "" {
		return 0, nil
	}

	timeout, err := time.ParseDuration(c.TaskTimeout)
	if err != nil {
		return 0, fmt.Errorf("parse task timeout %s: %w", c.TaskTimeout, err)
	}
	return timeout, nil
}
