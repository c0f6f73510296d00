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


// Package mongo implements the snapshot store on MongoDB.
package mongo

import (
	"context"
	"errors"
	"fmt"
	gotime "time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/datacanvas/collab/api/types"
	"github.com/datacanvas/collab/internal/logging"
	"github.com/datacanvas/collab/pkg/document/key"
	"github.com/datacanvas/collab/server/backend/snapshot"
)

// ColSnapshots is the collection that snapshots are stored in.
const ColSnapshots = "snapshots"

type snapshotDoc struct {
	Key       string      `bson:"_id"`
	Data      []byte      `bson:"data"`
	Size      int         `bson:"size"`
	UpdatedAt gotime.Time `bson:"updated_at"`
}

// Store is a snapshot store that keeps one document per snapshot.
type Store struct {
	config *Config
	client *mongo.Client
}

// Dial creates an instance of Store and dials the given MongoDB.
func Dial(conf *Config) (*Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), conf.ParseConnectionTimeout())
	defer cancel()

	client, err := mongo.Connect(options.Client().ApplyURI(conf.ConnectionURI))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}

	ctxPing, cancel := context.WithTimeout(ctx, conf.ParsePingTimeout())
	defer cancel()

	if err := client.Ping(ctxPing, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	logging.DefaultLogger().Infof("MongoDB connected, URI: %s, DB: %s", conf.ConnectionURI, conf.Database)

	return &Store{
		config: conf,
		client: client,
	}, nil
}

func (s *Store) collection() *mongo.Collection {
	return s.client.Database(s.config.Database).Collection(ColSnapshots)
}

// Save replaces the snapshot of the given document.
func (s *Store) Save(ctx context.Context, k key.Key, data []byte) error {
	if _, err := s.collection().ReplaceOne(
		ctx,
		bson.M{"_id": k.String()},
		snapshotDoc{
			Key:       k.String(),
			Data:      data,
			Size:      len(data),
			UpdatedAt: gotime.Now(),
		},
		options.Replace().SetUpsert(true),
	); err != nil {
		return fmt.Errorf("save snapshot of %s: %w", k, err)
	}

	return nil
}

// Load returns the snapshot of the given document.
func (s *Store) Load(ctx context.Context, k key.Key) ([]byte, error) {
	var doc snapshotDoc
	if err := s.collection().FindOne(ctx, bson.M{"_id": k.String()}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", k, snapshot.ErrSnapshotNotFound)
		}
		return nil, fmt.Errorf("load snapshot of %s: %w", k, err)
	}

	return doc.Data, nil
}

// List returns the summaries of the stored snapshots ordered by key.
func (s *Store) List(ctx context.Context) ([]*types.SnapshotInfo, error) {
	cursor, err := s.collection().Find(
		ctx,
		bson.M{},
		options.Find().
			SetSort(bson.D{{Key: "_id", Value: 1}}).
			SetProjection(bson.M{"data": 0}),
	)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}

	var docs []snapshotDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}

	infos := make([]*types.SnapshotInfo, 0, len(docs))
	for _, doc := range docs {
		infos = append(infos, &types.SnapshotInfo{
			Key:       key.Key(doc.Key),
			Size:      doc.Size,
			UpdatedAt: doc.UpdatedAt,
		})
	}
	return infos, nil
}

// Delete removes the snapshot of the given document.
func (s *Store) Delete(ctx context.Context, k key.Key) error {
	result, err := s.collection().DeleteOne(ctx, bson.M{"_id": k.String()})
	if err != nil {
		return fmt.Errorf("delete snapshot of %s: %w", k, err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%s: %w", k, snapshot.ErrSnapshotNotFound)
	}

	return nil
}

// Close all resources of this store.
func (s *Store) Close() error {
	if err := s.client.Disconnect(context.Background()); err != nil {
		return fmt.Errorf("close mongo client: %w", err)
	}

	return nil
}
