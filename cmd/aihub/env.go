package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/pders01/aihub/internal/api"
	"github.com/pders01/aihub/internal/cache"
	"github.com/pders01/aihub/internal/catalog"
	"github.com/pders01/aihub/internal/content"
	"github.com/pders01/aihub/internal/render"
	"github.com/pders01/aihub/internal/search"
	"github.com/pders01/aihub/internal/storage"
	"github.com/pders01/aihub/internal/validation"
)

var errSignedOut = errors.New("not signed in, run 'aihub login' first")

// hubEnv is the database, backend client and catalog one command works
// against.
type hubEnv struct {
	store  *storage.Store
	client *api.Client
	hub    *catalog.Hub
	index  *search.BleveEngine
}

// openEnv opens the database and builds the client on it. withIndex also
// opens the on-disk search index and feeds it every loaded item.
func openEnv(withIndex bool) (*hubEnv, error) {
	paths := validation.NewPathValidator()
	dbFile, err := paths.File(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("database.path: %w", err)
	}
	store, err := storage.NewStoreWithTimeout(dbFile, cfg.Database.Timeout)
	if err != nil {
		return nil, err
	}
	env := &hubEnv{store: store}

	env.client, err = api.New(api.Options{
		BaseURL:    cfg.API.BaseURL,
		HTTPClient: &http.Client{Timeout: cfg.API.Timeout},
		Sessions:   store.Sessions(),
		UserAgent:  cfg.API.UserAgent,
		Retries:    cfg.API.Retries,
	})
	if err != nil {
		env.Close()
		return nil, err
	}

	opts := cache.Options[[]content.Item]{TTL: cfg.Cache.TTL}
	if cfg.Cache.Persist {
		opts.Persister = catalog.NewSnapshotPersister(store)
	}
	env.hub = catalog.NewHub(env.client, opts)

	if withIndex {
		indexPath, err := paths.Clean(cfg.Database.SearchIndex)
		if err != nil {
			env.Close()
			return nil, fmt.Errorf("database.search_index: %w", err)
		}
		env.index, err = search.NewBleveEngine(indexPath)
		if err != nil {
			env.Close()
			return nil, err
		}
		env.hub.Subscribe(env.index)
	}
	return env, nil
}

func (e *hubEnv) Close() error {
	var errs []error
	if e.index != nil {
		errs = append(errs, e.index.Close())
	}
	errs = append(errs, e.store.Close())
	return errors.Join(errs...)
}

// requireSession fails unless a usable session is stored.
func (e *hubEnv) requireSession() (*content.Session, error) {
	s, err := e.client.Session()
	if err != nil {
		return nil, err
	}
	if !s.Valid() {
		return nil, errSignedOut
	}
	return s, nil
}

// newRenderer builds the detail renderer. An empty style uses
// ui.detail.style.
func newRenderer(style string) *render.Renderer {
	if style == "" {
		style = cfg.UI.Detail.Style
	}
	return render.NewRenderer(cfg.UI.Detail.WordWrapMinWidth, cfg.UI.Detail.WordWrapMaxWidth, style)
}

// terminalWidth is the width of stdout, or fallback when it is not a
// terminal.
func terminalWidth(fallback int) int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return fallback
	}
	w, _, err := term.GetSize(fd)
	if err != nil || w <= 0 {
		return fallback
	}
	return w
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
