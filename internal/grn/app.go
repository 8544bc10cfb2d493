package grn

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// App bundles everything a surface (TUI or CLI command) needs
type App struct {
	Config   *Config
	Logger   *logrus.Logger
	Client   *Client
	Workflow *Workflow
	Tab      SessionStorage
	closers  []io.Closer
}

// Open builds the storage, client and workflow described by config. Alerts go
// to sink.
func Open(ctx context.Context, config *Config, sink NotificationSink) (*App, error) {
	logger, logFile, err := OpenLogFile(config)
	if err != nil {
		return nil, err
	}
	app := &App{Config: config, Logger: logger, closers: []io.Closer{logFile}}

	tab, prefs, err := app.openStorage(ctx)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Tab = tab

	var cue Cue = NoCue{}
	if config.Bell {
		cue = BellCue{Out: os.Stderr, Count: 3, Gap: 150 * time.Millisecond}
	}
	notifier := &Notifier{Sink: sink, Cue: cue, Logger: logger}

	app.Client = NewClient(config, prefs, logger)
	app.Workflow = NewWorkflow(app.Client, NewSessionStore(tab, logger), notifier, logger, config.TransporterMode)

	logger.WithFields(logrus.Fields{
		"module":  "app",
		"storage": config.Storage,
		"tab":     config.TabID,
	}).Debug("app opened")
	return app, nil
}

// openStorage returns the tab-scoped storage and the shared preference storage
func (a *App) openStorage(ctx context.Context) (SessionStorage, SessionStorage, error) {
	switch a.Config.Storage {
	case StorageMemory:
		return NewMemoryStorage(), NewMemoryStorage(), nil
	case StorageRedis:
		rdb, err := NewRedisClient(ctx, a.Config)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, rdb)
		return NewRedisStorage(rdb, "tab:"+a.Config.TabID, a.Config.SessionTTL),
			NewRedisStorage(rdb, "shared", 0), nil
	default:
		tab, err := NewFileStorage(TabDir(a.Config.StateDir, a.Config.TabID))
		if err != nil {
			return nil, nil, err
		}
		prefs, err := NewFileStorage(SharedDir(a.Config.StateDir))
		if err != nil {
			return nil, nil, err
		}
		return tab, prefs, nil
	}
}

// Close releases the log file and any redis connection
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, fmt.Errorf("close: %w", err))
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
