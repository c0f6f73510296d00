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


// Package helper provides helper functions for testing.
package helper

import (
	"context"
	"fmt"
	"log"
	"net"
	"sync/atomic"
	"testing"
	gotime "time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/datacanvas/collab/client"
	"github.com/datacanvas/collab/pkg/document/key"
	"github.com/datacanvas/collab/pkg/transport"
	"github.com/datacanvas/collab/server"
	"github.com/datacanvas/collab/server/backend"
	"github.com/datacanvas/collab/server/backend/housekeeping"
	"github.com/datacanvas/collab/server/profiling"
	"github.com/datacanvas/collab/server/rooms"
)

var testStartedAt int64
var keySeq atomic.Int64

// Below are the values of the relay config used in the test.
var (
	RelayPort = 11101

	ProfilingPort = 11102

	HousekeepingInterval           = 100 * gotime.Millisecond
	HousekeepingMaxConcurrentSaves = 4
	SnapshotCacheSize              = 64

	MongoConnectionURI     = "mongodb://localhost:27017"
	MongoConnectionTimeout = "5s"
	MongoPingTimeout       = "5s"

	RedisAddress = "localhost:6379"

	// WaitFor bounds how long tests wait for replicas to converge.
	WaitFor = 5 * gotime.Second

	// Tick is the polling interval of assert.Eventually in tests.
	Tick = 10 * gotime.Millisecond
)

func init() {
	testStartedAt = gotime.Now().Unix()
}

// TestDBName returns the name of test database with timestamp.
// timestamp is set only once on first call.
func TestDBName() string {
	return fmt.Sprintf("test-%s-%d", server.DefaultMongoDatabase, testStartedAt)
}

var portOffset atomic.Int32

// TestConfig returns config for creating a Relay instance. Every call uses
// its own ports.
func TestConfig() *server.Config {
	offset := int(portOffset.Add(100))
	return &server.Config{
		Relay: &rooms.Config{
			Port:            RelayPort + offset,
			PeerQueueSize:   rooms.DefaultPeerQueueSize,
			MaxFrameSize:    rooms.DefaultMaxFrameSize,
			ShutdownTimeout: "2s",
		},
		Profiling: &profiling.Config{
			Enabled: true,
			Port:    ProfilingPort + offset,
		},
		Housekeeping: &housekeeping.Config{
			Interval:           HousekeepingInterval.String(),
			MaxConcurrentSaves: HousekeepingMaxConcurrentSaves,
		},
		Backend: &backend.Config{
			SnapshotStore:     backend.StoreMemory,
			SnapshotCacheSize: SnapshotCacheSize,
		},
	}
}

// TestRelay returns a new instance of Relay for testing.
func TestRelay() *server.Relay {
	r, err := server.New(TestConfig())
	if err != nil {
		log.Fatal(err)
	}
	return r
}

// StartRelay starts a relay with the given config and stops it when the test
// ends.
func StartRelay(t testing.TB, conf *server.Config) *server.Relay {
	r, err := server.New(conf)
	require.NoError(t, err)
	require.NoError(t, r.Start())
	require.NoError(t, WaitForServerToStart(r.RelayAddr()))
	t.Cleanup(func() {
		assert.NoError(t, r.Shutdown(true))
	})
	return r
}

// Endpoint returns the URL clients use to reach the given relay.
func Endpoint(r *server.Relay) string {
	return "http://" + r.RelayAddr()
}

// NewClient returns a client connected to the given endpoint with short
// retry intervals. It is closed when the test ends.
func NewClient(t testing.TB, endpoint, name string) *client.Client {
	cli, err := client.New(
		client.WithKey(name),
		client.WithDisplayName(name),
		client.WithEndpoint(endpoint),
		client.WithDialer(transport.NewWebSocketDialer(
			transport.WithLogger(zap.NewNop()),
			transport.WithBackOff(10*gotime.Millisecond, 100*gotime.Millisecond),
		)),
		client.WithLogger(zap.NewNop()),
		client.WithDebounce(10*gotime.Millisecond),
		client.WithSyncBackOff(50*gotime.Millisecond, 200*gotime.Millisecond),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, cli.Close())
	})
	return cli
}

// AttachAndSync attaches the client to the document and waits for the first
// handshake.
func AttachAndSync(t testing.TB, cli *client.Client, k key.Key) *client.Session {
	ctx, cancel := context.WithTimeout(context.Background(), WaitFor)
	defer cancel()

	s, err := cli.Attach(ctx, k)
	require.NoError(t, err)
	require.NoError(t, s.WaitSynced(ctx))
	return s
}

// Content returns the content of the document replica of the client.
func Content(t testing.TB, cli *client.Client, k key.Key) string {
	text, err := cli.Content(k)
	require.NoError(t, err)
	return text
}

// TestDocKey returns a cell key no other test uses.
func TestDocKey(t testing.TB) key.Key {
	k, err := key.ForCell(TestNotebookID(), "c1")
	require.NoError(t, err)
	return k
}

// TestNotebookID returns a notebook id no other test uses.
func TestNotebookID() string {
	return fmt.Sprintf("nb-%d-%d", testStartedAt, keySeq.Add(1))
}

// WaitForServerToStart waits for the server to start.
func WaitForServerToStart(addr string) error {
	maxRetries := 10
	initialDelay := 100 * gotime.Millisecond
	maxDelay := 5 * gotime.Second

	for attempt := 0; attempt < maxRetries; attempt++ {
		// Exponential backoff calculation
		delay := initialDelay * gotime.Duration(1<<uint(attempt))
		delay = min(delay, maxDelay)

		conn, err := net.DialTimeout("tcp", addr, 1*gotime.Second)
		if err != nil {
			gotime.Sleep(delay)
			continue
		}

		if err = conn.Close(); err != nil {
			return fmt.Errorf("close connection: %w", err)
		}

		return nil
	}

	return fmt.Errorf("timeout for server to start: %s", addr)
}
