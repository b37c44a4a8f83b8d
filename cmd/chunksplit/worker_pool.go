package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/enriquebris/goconcurrentqueue"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/arnkore/chunksplit/internal/predicate"
	"github.com/arnkore/chunksplit/internal/splitter"
)

// drain demonstrates the usage the splitter exists to enable: each
// split read independently and in parallel by a pool of workers,
// standing in for the row-reader / enumerator-framework collaborators
// this module doesn't implement. It is not part of the splitter's API.
func drain(ctx context.Context, db *sql.DB, splits []splitter.Split, workers int) error {
	queue := goconcurrentqueue.NewFIFO()
	for i := range splits {
		if err := queue.Enqueue(splits[i]); err != nil {
			return fmt.Errorf("enqueueing split: %w", err)
		}
	}

	// Every split is enqueued up front, so workers drain with plain
	// Dequeue rather than DequeueOrWaitForNextElement: an empty queue
	// means done, not "wait for a future producer".
	group, groupCtx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		group.Go(func() error {
			for {
				item, err := queue.Dequeue()
				if err != nil {
					return nil
				}
				split := item.(splitter.Split)
				if err := readSplit(groupCtx, db, &split); err != nil {
					return fmt.Errorf("reading split %s: %w", split.SplitID, err)
				}
			}
		})
	}
	return group.Wait()
}

func readSplit(ctx context.Context, db *sql.DB, split *splitter.Split) error {
	query, args := predicate.Build(split)
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		count++
	}
	if err := rows.Err(); err != nil {
		return err
	}
	log.WithFields(log.Fields{"split_id": split.SplitID, "rows": count}).Info("read split")
	return nil
}
