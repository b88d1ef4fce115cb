package main

import (
	"github.com/hashicorp/go-multierror"

	"github.com/klyr/dotpath/internal/logging"
	"github.com/klyr/dotpath/internal/store"
)

// openSinks opens a JSONL record log and a sqlite store, either of which may
// be empty. The returned close func is always non-nil.
func openSinks(logPath, dbPath string) (logging.Sink, func() error, error) {
	var sinks logging.MultiSink
	var closers []func() error

	closeAll := func() error {
		var result *multierror.Error
		for _, c := range closers {
			if err := c(); err != nil {
				result = multierror.Append(result, err)
			}
		}
		return result.ErrorOrNil()
	}

	if logPath != "" {
		logger, closer, err := logging.OpenRecordLog(logPath)
		if err != nil {
			return nil, closeAll, err
		}
		sinks = append(sinks, logger)
		closers = append(closers, closer)
	}

	if dbPath != "" {
		db, err := store.Open(dbPath)
		if err != nil {
			return nil, closeAll, err
		}
		sinks = append(sinks, db)
		closers = append(closers, db.Close)
	}

	if len(sinks) == 0 {
		return nil, closeAll, nil
	}
	return sinks, closeAll, nil
}
