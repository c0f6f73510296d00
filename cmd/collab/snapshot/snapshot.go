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


// Package snapshot provides the commands to inspect the stored snapshots.
package snapshot

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/datacanvas/collab/server"
	"github.com/datacanvas/collab/server/backend"
	snapshotstore "github.com/datacanvas/collab/server/backend/snapshot"
	"github.com/datacanvas/collab/server/backend/snapshot/mongo"
)

var (
	// SubCmd represents the snapshot command.
	SubCmd = &cobra.Command{
		Use:     "snapshot",
		Short:   "Manage the snapshots of the documents",
		Aliases: []string{"snapshots", "snap"},
	}
)

// openStore opens the snapshot store selected by the flags, the environment
// or the given relay config file, in the order of priority.
func openStore() (snapshotstore.Store, error) {
	conf := &backend.Config{
		SnapshotStore:     viper.GetString("store"),
		SnapshotPath:      viper.GetString("path"),
		SnapshotCacheSize: server.DefaultSnapshotCacheSize,
	}

	var mongoConf *mongo.Config
	if uri := viper.GetString("mongo-connection-uri"); uri != "" {
		mongoConf = &mongo.Config{
			ConnectionURI:     uri,
			ConnectionTimeout: server.DefaultMongoConnectionTimeout.String(),
			Database:          viper.GetString("mongo-database"),
			PingTimeout:       server.DefaultMongoPingTimeout.String(),
		}
	}

	if path := viper.GetString("config"); path != "" {
		parsed, err := server.NewConfigFromFile(path)
		if err != nil {
			return nil, err
		}
		conf = parsed.Backend
		mongoConf = parsed.Mongo
	}

	if err := conf.Validate(); err != nil {
		return nil, err
	}
	if mongoConf != nil {
		if err := mongoConf.Validate(); err != nil {
			return nil, err
		}
	}

	return backend.OpenStore(conf, mongoConf)
}

func humanDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%d seconds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%d minutes", int(d.Minutes()))
	case d < 48*time.Hour:
		return fmt.Sprintf("%d hours", int(d.Hours()))
	default:
		return fmt.Sprintf("%d days", int(d.Hours()/24))
	}
}

func init() {
	SubCmd.PersistentFlags().StringP(
		"config",
		"c",
		"",
		"Relay config path, its Backend and Mongo sections select the store",
	)
	SubCmd.PersistentFlags().String(
		"store",
		backend.StoreBolt,
		"Snapshot store: bolt, mongo",
	)
	SubCmd.PersistentFlags().String(
		"path",
		server.DefaultSnapshotPath,
		"File of the bolt snapshot store",
	)
	SubCmd.PersistentFlags().String(
		"mongo-connection-uri",
		"",
		"MongoDB's connection URI",
	)
	SubCmd.PersistentFlags().String(
		"mongo-database",
		server.DefaultMongoDatabase,
		"Database name of the snapshot store in MongoDB",
	)
	SubCmd.PersistentFlags().StringP(
		"output",
		"o",
		"",
		"One of 'yaml' or 'json'.",
	)

	viper.SetEnvPrefix("collab")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	_ = viper.BindPFlags(SubCmd.PersistentFlags())
}
