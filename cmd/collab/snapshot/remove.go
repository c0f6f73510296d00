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


package snapshot

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/datacanvas/collab/pkg/document/key"
)

func newRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "rm [document key]",
		Short:   "Remove the stored snapshot of a document",
		Example: "collab snapshot rm notebook-nb1.cell-c1 --path collab.db",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("document key is required")
			}
			k, err := key.Parse(args[0])
			if err != nil {
				return err
			}

			store, err := openStore()
			if err != nil {
				return err
			}
			defer func() {
				_ = store.Close()
			}()

			if err := store.Delete(context.Background(), k); err != nil {
				return err
			}

			cmd.Printf("removed %s\n", k)
			return nil
		},
	}
}

func init() {
	SubCmd.AddCommand(newRemoveCommand())
}
