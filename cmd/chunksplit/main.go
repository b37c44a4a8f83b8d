// Command chunksplit connects to a MySQL table, runs the dynamic chunk
// splitter against it, and prints the resulting parameterized queries.
// With --execute it also drains the splits through a small demo worker
// pool to exercise the predicate generator end-to-end against a live
// table.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "github.com/go-sql-driver/mysql"
	flags "github.com/jessevdk/go-flags"
	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/arnkore/chunksplit/internal/config"
	"github.com/arnkore/chunksplit/internal/dbadapter"
	"github.com/arnkore/chunksplit/internal/keyvalue"
	"github.com/arnkore/chunksplit/internal/predicate"
	"github.com/arnkore/chunksplit/internal/splitter"
)

type options struct {
	SourceUser     string `long:"source-user" description:"Username for the source database" required:"true"`
	SourcePassword string `long:"source-password" description:"Password for the source database"`
	SourceHost     string `long:"source-host" description:"Host or IP address for the source database" required:"true"`
	SourcePort     int    `long:"source-port" description:"Port for the source database" default:"3306"`
	SourceDB       string `long:"source-db" description:"Database name on the source" required:"true"`

	Table     string `long:"table" description:"Table to split" required:"true"`
	SplitKey  string `long:"split-key" description:"Column to split on" required:"true"`
	BaseQuery string `long:"query" description:"Optional base SELECT to wrap instead of scanning the table directly"`

	ConfigFile string `long:"config" description:"Path to a splitter config YAML file"`

	Execute bool `long:"execute" description:"Drain emitted splits through the demo worker pool instead of only printing them"`
	Workers int  `long:"workers" description:"Worker pool size for --execute" default:"4"`

	LogFile string `long:"log-file" description:"Rotate logs to this file instead of stderr"`
}

func main() {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	setupLogging(opts.LogFile)

	if err := run(opts); err != nil {
		log.WithError(err).Error("chunksplit failed")
		os.Exit(1)
	}
}

func setupLogging(logFile string) {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	if logFile == "" {
		return
	}
	log.SetOutput(&lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     28,
	})
}

func run(opts options) error {
	cfg := config.Default()
	if opts.ConfigFile != "" {
		loaded, err := config.Load(opts.ConfigFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		opts.SourceUser, opts.SourcePassword, opts.SourceHost, opts.SourcePort, opts.SourceDB)
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("opening source connection: %w", err)
	}
	defer db.Close()

	adapter := dbadapter.NewMySQLAdapter(db)
	defer adapter.Close()

	s, err := splitter.New(adapter, cfg)
	if err != nil {
		return fmt.Errorf("constructing splitter: %w", err)
	}

	table := dbadapter.TableID{Database: opts.SourceDB, Table: opts.Table}

	ctx := context.Background()
	splits, err := s.Split(ctx, table, opts.BaseQuery, opts.SplitKey)
	if err != nil {
		return fmt.Errorf("splitting %s: %w", table, err)
	}

	log.WithFields(log.Fields{"table": table.String(), "splits": len(splits)}).Info("chunk splitter finished")
	for _, split := range splits {
		query, args := predicate.Build(&split)
		fmt.Printf("%s\t[%s, %s)\t%s\t%v\n", split.SplitID, endpointString(split.Start, "-inf"), endpointString(split.End, "+inf"), query, args)
	}

	if opts.Execute {
		return drain(ctx, db, splits, opts.Workers)
	}
	return nil
}

func endpointString(v *keyvalue.Value, unbounded string) string {
	if v == nil {
		return unbounded
	}
	return v.String()
}
