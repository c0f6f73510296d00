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


package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/datacanvas/collab/internal/logging"
	"github.com/datacanvas/collab/server"
	"github.com/datacanvas/collab/server/backend/broker"
	"github.com/datacanvas/collab/server/backend/snapshot/mongo"
)

var (
	gracefulTimeout = 10 * time.Second
)

var (
	flagConfPath string
	flagLogLevel string

	shutdownTimeout      time.Duration
	housekeepingInterval time.Duration
	housekeepingTimeout  time.Duration

	mongoConnectionURI     string
	mongoConnectionTimeout time.Duration
	mongoDatabase          string
	mongoPingTimeout       time.Duration

	redisAddress       string
	redisPassword      string
	redisDB            int
	redisChannelPrefix string
	redisDialTimeout   time.Duration

	conf = server.NewConfig()
)

func newServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "server [options]",
		Short: "Start the collab relay",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf.Relay.ShutdownTimeout = shutdownTimeout.String()
			conf.Housekeeping.Interval = housekeepingInterval.String()
			conf.Housekeeping.TaskTimeout = housekeepingTimeout.String()

			if mongoConnectionURI != "" {
				conf.Mongo = &mongo.Config{
					ConnectionURI:     mongoConnectionURI,
					ConnectionTimeout: mongoConnectionTimeout.String(),
					Database:          mongoDatabase,
					PingTimeout:       mongoPingTimeout.String(),
				}
			}

			if redisAddress != "" {
				conf.Redis = &broker.RedisConfig{
					Address:       redisAddress,
					Password:      redisPassword,
					DB:            redisDB,
					ChannelPrefix: redisChannelPrefix,
					DialTimeout:   redisDialTimeout.String(),
				}
			}

			// If config file is given, command-line arguments will be overwritten.
			if flagConfPath != "" {
				parsed, err := server.NewConfigFromFile(flagConfPath)
				if err != nil {
					return err
				}
				conf = parsed
			}

			if err := logging.SetLogLevel(flagLogLevel); err != nil {
				return err
			}

			r, err := server.New(conf)
			if err != nil {
				return err
			}

			if err := r.Start(); err != nil {
				return err
			}

			if code := handleSignal(r); code != 0 {
				return fmt.Errorf("exit code: %d", code)
			}

			return nil
		},
	}
}

func handleSignal(r *server.Relay) int {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	var sig os.Signal
	select {
	case s := <-sigCh:
		sig = s
	case <-r.ShutdownCh():
		// the relay is already shutdown
		return 0
	}

	graceful := false
	if sig == syscall.SIGINT || sig == syscall.SIGTERM {
		graceful = true
	}

	gracefulCh := make(chan struct{})
	go func() {
		if err := r.Shutdown(graceful); err != nil {
			logging.DefaultLogger().Errorf("shutdown: %v", err)
			return
		}
		close(gracefulCh)
	}()

	select {
	case <-sigCh:
		return 1
	case <-time.After(gracefulTimeout):
		return 1
	case <-gracefulCh:
		return 0
	}
}

func init() {
	cmd := newServerCmd()
	cmd.Flags().StringVarP(
		&flagConfPath,
		"config",
		"c",
		"",
		"Config path",
	)
	cmd.Flags().StringVarP(
		&flagLogLevel,
		"log-level",
		"l",
		"info",
		"Log level: debug, info, warn, error, panic, fatal",
	)
	cmd.Flags().IntVar(
		&conf.Relay.Port,
		"relay-port",
		server.DefaultRelayPort,
		"Relay port",
	)
	cmd.Flags().IntVar(
		&conf.Relay.MaxConnections,
		"max-connections",
		server.DefaultRelayMaxConnections,
		"Maximum number of simultaneous connections, 0 means no limit",
	)
	cmd.Flags().IntVar(
		&conf.Relay.PeerQueueSize,
		"peer-queue-size",
		server.DefaultRelayPeerQueueSize,
		"Number of frames buffered for a peer before it is dropped",
	)
	cmd.Flags().Int64Var(
		&conf.Relay.MaxFrameSize,
		"max-frame-size",
		server.DefaultRelayMaxFrameSize,
		"Size limit of an incoming frame in bytes",
	)
	cmd.Flags().StringSliceVar(
		&conf.Relay.AllowedOrigins,
		"allowed-origins",
		nil,
		"Origins browsers may connect from, empty allows every origin",
	)
	cmd.Flags().DurationVar(
		&shutdownTimeout,
		"shutdown-timeout",
		server.DefaultRelayShutdownTimeout,
		"Time to wait for connections to drain on shutdown",
	)
	cmd.Flags().BoolVar(
		&conf.Profiling.Enabled,
		"enable-profiling",
		false,
		"Enable the profiling server serving metrics",
	)
	cmd.Flags().IntVar(
		&conf.Profiling.Port,
		"profiling-port",
		server.DefaultProfilingPort,
		"Profiling port",
	)
	cmd.Flags().BoolVar(
		&conf.Profiling.EnablePprof,
		"enable-pprof",
		false,
		"Enable runtime profiling data via HTTP server.",
	)
	cmd.Flags().DurationVar(
		&housekeepingInterval,
		"housekeeping-interval",
		server.DefaultHousekeepingInterval,
		"Interval between saves of documents with unsaved changes",
	)
	cmd.Flags().DurationVar(
		&housekeepingTimeout,
		"housekeeping-task-timeout",
		server.DefaultHousekeepingTaskTimeout,
		"Time limit of a single housekeeping run",
	)
	cmd.Flags().IntVar(
		&conf.Housekeeping.MaxConcurrentSaves,
		"housekeeping-max-concurrent-saves",
		server.DefaultHousekeepingMaxConcurrentSaves,
		"Maximum number of snapshots saved at a time",
	)
	cmd.Flags().StringVar(
		&conf.Backend.SnapshotStore,
		"snapshot-store",
		server.DefaultSnapshotStore,
		"Snapshot store: memory, bolt, mongo",
	)
	cmd.Flags().StringVar(
		&conf.Backend.SnapshotPath,
		"snapshot-path",
		server.DefaultSnapshotPath,
		"File of the bolt snapshot store",
	)
	cmd.Flags().IntVar(
		&conf.Backend.SnapshotCacheSize,
		"snapshot-cache-size",
		server.DefaultSnapshotCacheSize,
		"Number of snapshots kept in memory",
	)
	cmd.Flags().StringVar(
		&conf.Backend.Hostname,
		"hostname",
		server.DefaultHostname,
		"Node id of this relay, a random id is used when empty",
	)
	cmd.Flags().StringVar(
		&mongoConnectionURI,
		"mongo-connection-uri",
		"",
		"MongoDB's connection URI",
	)
	cmd.Flags().DurationVar(
		&mongoConnectionTimeout,
		"mongo-connection-timeout",
		server.DefaultMongoConnectionTimeout,
		"Mongo DB's connection timeout",
	)
	cmd.Flags().StringVar(
		&mongoDatabase,
		"mongo-database",
		server.DefaultMongoDatabase,
		"Database name of the snapshot store in MongoDB",
	)
	cmd.Flags().DurationVar(
		&mongoPingTimeout,
		"mongo-ping-timeout",
		server.DefaultMongoPingTimeout,
		"Mongo DB's ping timeout",
	)
	cmd.Flags().StringVar(
		&redisAddress,
		"redis-address",
		"",
		"Redis address of the broker shared by relay nodes",
	)
	cmd.Flags().StringVar(
		&redisPassword,
		"redis-password",
		"",
		"Redis password",
	)
	cmd.Flags().IntVar(
		&redisDB,
		"redis-db",
		0,
		"Redis database number",
	)
	cmd.Flags().StringVar(
		&redisChannelPrefix,
		"redis-channel-prefix",
		server.DefaultRedisChannelPrefix,
		"Prefix of the room channels in Redis",
	)
	cmd.Flags().DurationVar(
		&redisDialTimeout,
		"redis-dial-timeout",
		server.DefaultRedisDialTimeout,
		"Redis dial timeout",
	)

	rootCmd.AddCommand(cmd)
}
