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


// Package prometheus provides a Prometheus metrics exporter.
package prometheus

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/datacanvas/collab/internal/version"
)

const (
	namespace        = "collab"
	roomKindLabel    = "room_kind"
	messageTypeLabel = "message_type"
	directionLabel   = "direction"
	resultLabel      = "result"
)

// Directions of relayed frames.
const (
	DirectionPeer   = "peer"
	DirectionBroker = "broker"
)

// Metrics manages the metric information that the relay is trying to measure.
type Metrics struct {
	registry *prometheus.Registry

	serverVersion *prometheus.GaugeVec

	connectedPeers *prometheus.GaugeVec
	openRooms      *prometheus.GaugeVec

	relayedFramesTotal   *prometheus.CounterVec
	droppedFramesTotal   *prometheus.CounterVec
	malformedFramesTotal prometheus.Counter
	receivedBytesTotal   prometheus.Counter
	answeredSyncsTotal   prometheus.Counter
	brokerFailuresTotal  prometheus.Counter

	snapshotSavesTotal      *prometheus.CounterVec
	snapshotBytesTotal      prometheus.Counter
	snapshotDurationSeconds prometheus.Histogram
	snapshotLoadsTotal      *prometheus.CounterVec
}

// NewMetrics creates a new instance of Metrics.
func NewMetrics() (*Metrics, error) {
	reg := prometheus.NewRegistry()

	if err := reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, fmt.Errorf("register process collector: %w", err)
	}
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, fmt.Errorf("register go collector: %w", err)
	}

	metrics := &Metrics{
		registry: reg,
		serverVersion: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "version",
			Help:      "Which version is running. 1 for 'server_version' label with current version.",
		}, []string{"server_version"}),
		connectedPeers: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "connected_peers",
			Help:      "The number of peers connected to rooms of this node.",
		}, []string{roomKindLabel}),
		openRooms: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "open_rooms",
			Help:      "The number of rooms with at least one peer on this node.",
		}, []string{roomKindLabel}),
		relayedFramesTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "relayed_frames_total",
			Help:      "The total count of frames fanned out to the peers of a room.",
		}, []string{messageTypeLabel, directionLabel}),
		droppedFramesTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "dropped_frames_total",
			Help:      "The total count of frames dropped because they were malformed or a peer was too slow.",
		}, []string{"reason"}),
		malformedFramesTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "malformed_frames_total",
			Help:      "The total count of relayed frames carrying operations that were skipped.",
		}),
		receivedBytesTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "received_bytes_total",
			Help:      "The total bytes of frames received from peers.",
		}),
		answeredSyncsTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "answered_syncs_total",
			Help:      "The total count of sync requests answered from the server replica.",
		}),
		brokerFailuresTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "broker",
			Name:      "publish_failures_total",
			Help:      "The total count of frames that could not be published to the broker.",
		}),
		snapshotSavesTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "saves_total",
			Help:      "The total count of snapshot saves.",
		}, []string{resultLabel}),
		snapshotBytesTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "saved_bytes_total",
			Help:      "The total bytes of saved snapshots.",
		}),
		snapshotDurationSeconds: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "save_duration_seconds",
			Help:      "The time spent encoding and saving a snapshot.",
		}),
		snapshotLoadsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "loads_total",
			Help:      "The total count of snapshot loads when a room is opened.",
		}, []string{resultLabel}),
	}

	metrics.serverVersion.With(prometheus.Labels{
		"server_version": version.Version,
	}).Set(1)

	return metrics, nil
}

// AddConnectedPeer increases the number of connected peers.
func (m *Metrics) AddConnectedPeer(roomKind string) {
	m.connectedPeers.With(prometheus.Labels{roomKindLabel: roomKind}).Inc()
}

// RemoveConnectedPeer decreases the number of connected peers.
func (m *Metrics) RemoveConnectedPeer(roomKind string) {
	m.connectedPeers.With(prometheus.Labels{roomKindLabel: roomKind}).Dec()
}

// AddOpenRoom increases the number of open rooms.
func (m *Metrics) AddOpenRoom(roomKind string) {
	m.openRooms.With(prometheus.Labels{roomKindLabel: roomKind}).Inc()
}

// RemoveOpenRoom decreases the number of open rooms.
func (m *Metrics) RemoveOpenRoom(roomKind string) {
	m.openRooms.With(prometheus.Labels{roomKindLabel: roomKind}).Dec()
}

// AddRelayedFrames adds the number of frames fanned out to peers.
func (m *Metrics) AddRelayedFrames(messageType, direction string, count int) {
	m.relayedFramesTotal.With(prometheus.Labels{
		messageTypeLabel: messageType,
		directionLabel:   direction,
	}).Add(float64(count))
}

// AddDroppedFrame counts a dropped frame.
func (m *Metrics) AddDroppedFrame(reason string) {
	m.droppedFramesTotal.With(prometheus.Labels{"reason": reason}).Inc()
}

// AddMalformedFrame counts a frame relayed with skipped operations.
func (m *Metrics) AddMalformedFrame() {
	m.malformedFramesTotal.Inc()
}

// AddReceivedBytes adds the size of a received frame.
func (m *Metrics) AddReceivedBytes(bytes int) {
	m.receivedBytesTotal.Add(float64(bytes))
}

// AddAnsweredSync counts a sync request answered by the relay.
func (m *Metrics) AddAnsweredSync() {
	m.answeredSyncsTotal.Inc()
}

// AddBrokerFailure counts a failed publish.
func (m *Metrics) AddBrokerFailure() {
	m.brokerFailuresTotal.Inc()
}

// ObserveSnapshotSave records a snapshot save.
func (m *Metrics) ObserveSnapshotSave(seconds float64, bytes int, err error) {
	m.snapshotDurationSeconds.Observe(seconds)
	if err != nil {
		m.snapshotSavesTotal.With(prometheus.Labels{resultLabel: "error"}).Inc()
		return
	}

	m.snapshotSavesTotal.With(prometheus.Labels{resultLabel: "ok"}).Inc()
	m.snapshotBytesTotal.Add(float64(bytes))
}

// AddSnapshotLoad counts a snapshot load with its result, one of "ok",
// "missing" or "error".
func (m *Metrics) AddSnapshotLoad(result string) {
	m.snapshotLoadsTotal.With(prometheus.Labels{resultLabel: result}).Inc()
}

// Registry returns the registry of this metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
