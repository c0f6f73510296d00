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


// Package rooms implements the relay. Peers connect to a room over a
// websocket, frames are fanned out to the other peers of the room and to
// the other nodes through the broker. Document rooms keep a replica of the
// document so that the relay can answer sync requests and save snapshots.
package rooms

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	gotime "time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/moby/locker"
	"go.uber.org/zap/zapcore"
	"golang.org/x/net/netutil"

	"github.com/datacanvas/collab/api/converter"
	"github.com/datacanvas/collab/api/types"
	"github.com/datacanvas/collab/internal/logging"
	"github.com/datacanvas/collab/pkg/awareness"
	"github.com/datacanvas/collab/pkg/cmap"
	"github.com/datacanvas/collab/pkg/document"
	"github.com/datacanvas/collab/pkg/document/key"
	"github.com/datacanvas/collab/pkg/document/operations"
	"github.com/datacanvas/collab/pkg/document/time"
	collaberrors "github.com/datacanvas/collab/pkg/errors"
	"github.com/datacanvas/collab/pkg/registry"
	"github.com/datacanvas/collab/server/backend"
	"github.com/datacanvas/collab/server/backend/snapshot"
	"github.com/datacanvas/collab/server/profiling/prometheus"
)

const (
	brokerTimeout = 5 * gotime.Second
	storeTimeout  = 10 * gotime.Second

	// headerErrorCode carries the code of the error a request failed with.
	headerErrorCode = "X-Collab-Error-Code"
)

// ErrServerClosed is returned to peers connecting while the relay shuts down.
var ErrServerClosed = collaberrors.Unavailable("relay server closed").WithCode("ErrServerClosed")

// Server is the relay server.
type Server struct {
	conf    *Config
	backend *backend.Backend
	metrics *prometheus.Metrics
	logger  logging.Logger

	// actorID identifies the relay's replicas in sync requests.
	actorID  time.ActorID
	registry *registry.Registry
	rooms    *cmap.Map[key.Key, *Room]
	lockers  *locker.Locker

	upgrader   websocket.Upgrader
	router     *mux.Router
	httpServer *http.Server

	mu      sync.Mutex
	closing bool
	conns   sync.WaitGroup
}

// NewServer creates a new relay on the given backend and registers its
// periodic snapshot task.
func NewServer(conf *Config, be *backend.Backend) *Server {
	logger := logging.New("relay", logging.NewField("node", be.NodeID))
	actorID := time.NewActorID()

	s := &Server{
		conf:    conf,
		backend: be,
		metrics: be.Metrics,
		logger:  logger,
		actorID: actorID,
		registry: registry.New(
			actorID,
			registry.WithRetainUnsaved(),
			registry.WithLogger(logger),
		),
		rooms:   cmap.New[key.Key, *Room](),
		lockers: locker.New(),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}

	s.router = mux.NewRouter()
	s.router.HandleFunc("/rooms/{room}", s.serveRoom).Methods(http.MethodGet)
	s.router.HandleFunc("/healthz", s.serveHealth).Methods(http.MethodGet)
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", conf.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * gotime.Second,
	}

	be.Housekeeping.RegisterTask("snapshot", s.SaveSnapshots)

	return s
}

// Handler returns the HTTP handler of the relay.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts to listen on the configured port.
func (s *Server) Start() error {
	lis, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen relay %s: %w", s.httpServer.Addr, err)
	}
	if s.conf.MaxConnections > 0 {
		lis = netutil.LimitListener(lis, s.conf.MaxConnections)
	}

	go func() {
		s.logger.Infof("serving relay on %d", s.conf.Port)
		if err := s.httpServer.Serve(lis); !errors.Is(err, http.ErrServerClosed) {
			s.logger.Errorf("HTTP server Serve: %v", err)
		}
	}()
	return nil
}

// Shutdown stops accepting peers, disconnects the connected ones and saves
// the snapshots of every document with unsaved changes.
func (s *Server) Shutdown(graceful bool) error {
	s.mu.Lock()
	s.closing = true
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.conf.ParseShutdownTimeout())
	defer cancel()

	if graceful {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Errorf("HTTP server Shutdown: %v", err)
		}
	} else if err := s.httpServer.Close(); err != nil {
		s.logger.Errorf("HTTP server Close: %v", err)
	}

	// hijacked connections are not tracked by the http server
	for _, room := range s.rooms.Values() {
		room.mu.RLock()
		for _, p := range room.peers {
			p.close()
		}
		room.mu.RUnlock()
	}

	done := make(chan struct{})
	go func() {
		s.conns.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warnf("peers still connected after %s", s.conf.ParseShutdownTimeout())
	}

	return s.SaveSnapshots(ctx)
}

// Rooms returns the number of open rooms on this node.
func (s *Server) Rooms() int {
	return s.rooms.Len()
}

// Peers returns the number of peers in the room on this node.
func (s *Server) Peers(k key.Key) int {
	room, ok := s.rooms.Get(k)
	if !ok {
		return 0
	}
	return room.Len()
}

// Content returns the content of the relay's replica of the document.
func (s *Server) Content(k key.Key) (string, error) {
	h, err := s.registry.Lookup(k)
	if err != nil {
		return "", err
	}

	var content string
	h.Read(func(doc *document.Document) {
		content = doc.Content()
	})
	return content, nil
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if len(s.conf.AllowedOrigins) == 0 {
		return true
	}

	origin := r.Header.Get("Origin")
	for _, allowed := range s.conf.AllowedOrigins {
		if origin == allowed {
			return true
		}
	}
	return false
}

func (s *Server) serveHealth(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	closing := s.closing
	s.mu.Unlock()

	if closing {
		http.Error(w, ErrServerClosed.Error(), http.StatusServiceUnavailable)
		return
	}
	_, _ = fmt.Fprintf(w, "ok %s rooms=%d\n", s.backend.NodeID, s.rooms.Len())
}

func (s *Server) serveRoom(w http.ResponseWriter, r *http.Request) {
	k, err := key.Parse(mux.Vars(r)["room"])
	if err != nil {
		writeError(w, err)
		return
	}

	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		writeError(w, ErrServerClosed)
		return
	}
	s.conns.Add(1)
	s.mu.Unlock()
	defer s.conns.Done()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debugf("upgrade %s: %v", k, err)
		return
	}

	p := newPeer(conn, s.conf.PeerQueueSize, s.logger.With("room", k.String()))
	room, err := s.join(k, p)
	if err != nil {
		s.logger.Errorf("join %s: %v", k, err)
		_ = conn.Close()
		return
	}

	go p.writePump()
	p.readPump(s.conf.MaxFrameSize, func(data []byte) {
		s.handleFrame(room, p, data)
	})
	p.close()
	s.leave(room, p)
}

// writeError answers a request that cannot become a peer. The status code
// follows the status of the error and its code goes to a header.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch collaberrors.StatusOf(err) {
	case collaberrors.ErrCodeInvalidArgument:
		status = http.StatusBadRequest
	case collaberrors.ErrCodeNotFound:
		status = http.StatusNotFound
	case collaberrors.ErrCodeFailedPrecondition:
		status = http.StatusConflict
	case collaberrors.ErrCodeUnavailable:
		status = http.StatusServiceUnavailable
	}

	if code := collaberrors.CodeOf(err); code != "" {
		w.Header().Set(headerErrorCode, code)
	}
	http.Error(w, err.Error(), status)
}

// join adds the peer to the room of the key, opening the room if this is
// the first peer on this node.
func (s *Server) join(k key.Key, p *peer) (*Room, error) {
	s.lockers.Lock(k.String())
	defer s.unlock(k)

	room, ok := s.rooms.Get(k)
	if !ok {
		var err error
		if room, err = s.open(k); err != nil {
			return nil, err
		}
		s.rooms.Set(k, room)
	}

	room.add(p)
	s.metrics.AddConnectedPeer(room.kind)
	p.logger.Debugf("joined, %d peers", room.Len())
	return room, nil
}

func (s *Server) open(k key.Key) (*Room, error) {
	room := newRoom(k)
	if room.kind == kindDocument {
		h, err := s.registry.GetOrCreate(k)
		if err != nil {
			return nil, err
		}
		if err := s.restore(h); err != nil {
			s.registry.Release(h)
			return nil, err
		}
		room.handle = h
	}

	ctx, cancel := context.WithTimeout(context.Background(), brokerTimeout)
	defer cancel()
	sub, err := s.backend.Broker.Subscribe(ctx, k, func(data []byte) {
		s.handleBrokerFrame(room, data)
	})
	if err != nil {
		s.registry.Release(room.handle)
		return nil, fmt.Errorf("subscribe %s: %w", k, err)
	}
	room.sub = sub

	s.metrics.AddOpenRoom(room.kind)
	s.logger.Infof("room opened: %s", k)
	return room, nil
}

// restore loads the stored snapshot into a replica that was just created.
// A corrupt snapshot is logged and skipped.
func (s *Server) restore(h *registry.Handle) error {
	var empty bool
	h.Read(func(doc *document.Document) {
		empty = doc.IsEmpty()
	})
	if !empty {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	data, err := s.backend.Snapshots.Load(ctx, h.Key())
	if snapshot.IsNotFound(err) {
		s.metrics.AddSnapshotLoad("missing")
		return nil
	}
	if err != nil {
		s.metrics.AddSnapshotLoad("error")
		return fmt.Errorf("load snapshot: %w", err)
	}

	ops, err := decodeSnapshot(h.Key(), data)
	if err != nil {
		s.metrics.AddSnapshotLoad("error")
		s.logger.Errorf("skip snapshot of %s: %v", h.Key(), err)
		return nil
	}
	if _, err := h.ApplyRemote(ops...); err != nil {
		s.logger.Warnf("restore %s: %v", h.Key(), err)
	}
	s.metrics.AddSnapshotLoad("ok")

	// the loaded state is already stored
	return s.registry.MarkSaved(h.Key())
}

func decodeSnapshot(k key.Key, data []byte) ([]operations.Operation, error) {
	snap, err := converter.BytesToSnapshot(data)
	if err != nil {
		return nil, err
	}
	if snap.Key != k {
		return nil, fmt.Errorf("snapshot of %s stored for %s: %w", snap.Key, k, key.ErrInvalidKey)
	}

	return converter.FromOperations(snap.Ops)
}

// leave removes the peer from the room. The awareness clients of the peer
// that did not say goodbye are announced as gone. The last peer closes the
// room and saves its snapshot.
func (s *Server) leave(room *Room, p *peer) {
	s.lockers.Lock(room.key.String())
	defer s.unlock(room.key)

	s.metrics.RemoveConnectedPeer(room.kind)
	for clientID, clock := range p.departed() {
		msg := types.NewAwareness(room.key, awareness.Update{
			ClientID: clientID,
			Clock:    clock + 1,
		})
		s.publishMessage(room, p, msg)
	}

	if !room.remove(p) {
		p.logger.Debugf("left, %d peers", room.Len())
		return
	}

	s.rooms.Delete(room.key, func(value *Room, exists bool) bool {
		return exists && value == room
	})
	if err := room.sub.Close(); err != nil {
		s.logger.Warnf("unsubscribe %s: %v", room.key, err)
	}
	if room.handle != nil {
		s.registry.Release(room.handle)

		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		if err := s.saveSnapshot(ctx, room.key); err != nil {
			s.logger.Errorf("save snapshot of %s: %v", room.key, err)
		}
		cancel()
	}

	s.metrics.RemoveOpenRoom(room.kind)
	s.logger.Infof("room closed: %s", room.key)
}

func (s *Server) unlock(k key.Key) {
	if err := s.lockers.Unlock(k.String()); err != nil {
		s.logger.Errorf("unlock %s: %v", k, err)
	}
}

// handleFrame handles a frame read from a peer.
func (s *Server) handleFrame(room *Room, from *peer, data []byte) {
	s.metrics.AddReceivedBytes(len(data))

	msg, err := converter.BytesToMessage(data)
	if err != nil {
		s.metrics.AddDroppedFrame("malformed")
		from.logger.Warnf("drop frame: %v", err)
		return
	}
	if msg.Key != room.key {
		s.metrics.AddDroppedFrame("wrong_room")
		from.logger.Warnf("drop frame of %s", msg.Key)
		return
	}

	switch msg.Type {
	case types.SyncRequest:
		if room.handle == nil {
			s.relay(room, from, msg.Type, data)
			return
		}
		s.answerSync(room, from, msg)
	case types.SyncResponse:
		if room.handle == nil {
			s.relay(room, from, msg.Type, data)
			return
		}
		s.apply(room, from, msg.Ops)

		// the other peers only need the operations
		msg.Type = types.Update
		msg.ClientID = time.InitialActorID
		msg.StateVector = nil
		s.publishMessage(room, from, msg)
	case types.Update:
		if room.handle != nil {
			s.apply(room, from, msg.Ops)
		}
		s.relay(room, from, msg.Type, data)
	case types.Awareness:
		from.seen(msg.ClientID, msg.Clock, msg.Fields == nil)
		s.relay(room, from, msg.Type, data)
	}
}

// answerSync answers a sync request from the replica. If the peer knows
// operations the replica lacks, the relay asks back.
func (s *Server) answerSync(room *Room, from *peer, msg *types.Message) {
	var ops []operations.Operation
	var vector time.VersionVector
	room.handle.Read(func(doc *document.Document) {
		ops = doc.OpsSince(msg.StateVector)
		vector = doc.VersionVector()
	})

	resp := converter.ToSyncResponse(room.key, ops)
	resp.ClientID = msg.ClientID
	resp.StateVector = vector
	s.sendTo(from, resp)
	s.metrics.AddAnsweredSync()

	if !vector.AfterOrEqual(msg.StateVector) {
		req := types.NewSyncRequest(room.key, vector)
		req.ClientID = s.actorID
		s.sendTo(from, req)
	}
}

// apply integrates the operations of a frame into the replica. Operations
// that cannot be converted are logged and skipped; the frame is still relayed
// so the peers skip the same counters.
func (s *Server) apply(room *Room, from *peer, wireOps []types.Operation) {
	logger := s.logger
	if from != nil {
		logger = from.logger
	}

	ops, err := converter.FromOperations(wireOps)
	if err != nil {
		s.metrics.AddMalformedFrame()
		logger.Warnf("skip operations: %v", err)
	}

	// the registry logs operations it cannot integrate
	_, _ = room.handle.ApplyRemote(ops...)

	if logging.Enabled(zapcore.DebugLevel) {
		room.handle.Read(func(doc *document.Document) {
			logger.Debugf("applied %d ops, %d pending, vector %v", len(ops), doc.Pending(), doc.VersionVector())
		})
	}
}

func (s *Server) sendTo(p *peer, msg *types.Message) {
	data, err := converter.MessageToBytes(msg)
	if err != nil {
		s.logger.Errorf("encode %s: %v", msg.Type, err)
		return
	}
	p.enqueue(data)
}

func (s *Server) publishMessage(room *Room, from *peer, msg *types.Message) {
	data, err := converter.MessageToBytes(msg)
	if err != nil {
		s.logger.Errorf("encode %s: %v", msg.Type, err)
		return
	}
	s.relay(room, from, msg.Type, data)
}

// relay fans the frame out to the other peers of the room and to the other
// nodes.
func (s *Server) relay(room *Room, from *peer, msgType types.MessageType, data []byte) {
	count := room.broadcast(data, from)
	s.metrics.AddRelayedFrames(string(msgType), prometheus.DirectionPeer, count)

	ctx, cancel := context.WithTimeout(context.Background(), brokerTimeout)
	defer cancel()
	if err := s.backend.Broker.Publish(ctx, room.key, data); err != nil {
		s.metrics.AddBrokerFailure()
		s.logger.Warnf("publish %s to %s: %v", msgType, room.key, err)
	}
}

// handleBrokerFrame delivers a frame published by another node to the local
// peers of the room.
func (s *Server) handleBrokerFrame(room *Room, data []byte) {
	msg, err := converter.BytesToMessage(data)
	if err != nil || msg.Key != room.key {
		s.metrics.AddDroppedFrame("malformed")
		s.logger.Warnf("drop broker frame of %s: %v", room.key, err)
		return
	}

	if room.handle != nil && (msg.Type == types.Update || msg.Type == types.SyncResponse) {
		s.apply(room, nil, msg.Ops)
	}

	count := room.broadcast(data, nil)
	s.metrics.AddRelayedFrames(string(msg.Type), prometheus.DirectionBroker, count)
}

// saveSnapshot saves the replica of the document when it has unsaved
// changes.
func (s *Server) saveSnapshot(ctx context.Context, k key.Key) error {
	h, err := s.registry.Lookup(k)
	if errors.Is(err, registry.ErrDocumentNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if !h.Dirty() {
		return nil
	}

	start := gotime.Now()
	var data []byte
	h.Read(func(doc *document.Document) {
		data, err = converter.SnapshotToBytes(converter.ToSnapshot(k, doc.VersionVector(), doc.Ops()))
	})
	if err == nil {
		err = s.backend.Snapshots.Save(ctx, k, data)
	}
	s.metrics.ObserveSnapshotSave(gotime.Since(start).Seconds(), len(data), err)
	if err != nil {
		return err
	}

	if err := s.registry.MarkSaved(k); err != nil && !errors.Is(err, registry.ErrDocumentNotFound) {
		return err
	}
	s.logger.Debugf("snapshot saved: %s, %d bytes", k, len(data))
	return nil
}

// SaveSnapshots saves every replica with unsaved changes, including the
// ones whose room closed before a save succeeded.
func (s *Server) SaveSnapshots(ctx context.Context) error {
	var errs []error
	for _, k := range s.registry.Keys() {
		if err := s.saveSnapshot(ctx, k); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", k, err))
		}
	}
	return errors.Join(errs...)
}
