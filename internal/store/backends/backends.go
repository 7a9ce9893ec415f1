// Package backends opens the store a database url points at.
package backends

import (
	"context"
	"fmt"
	"strings"

	"github.com/alphabot-ai/bloglist/internal/store"
	"github.com/alphabot-ai/bloglist/internal/store/bolt"
	"github.com/alphabot-ai/bloglist/internal/store/mongo"
	"github.com/alphabot-ai/bloglist/internal/store/sqlite"
)

type Kind string

const (
	SQLite Kind = "sqlite"
	Mongo  Kind = "mongo"
	Bolt   Kind = "bolt"
)

// Resolve maps a database url to a backend and the location handed to it.
//
//	mongodb://host/db, mongodb+srv://...   MongoDB
//	bolt:///var/lib/bloglist.bolt          BoltDB file
//	sqlite://bloglist.db, file:..., path   SQLite
func Resolve(dsn string) (Kind, string, error) {
	switch {
	case dsn == "":
		return "", "", fmt.Errorf("empty database url")
	case strings.HasPrefix(dsn, "mongodb://"), strings.HasPrefix(dsn, "mongodb+srv://"):
		return Mongo, dsn, nil
	case strings.HasPrefix(dsn, "bolt://"):
		path := strings.TrimPrefix(dsn, "bolt://")
		if path == "" {
			return "", "", fmt.Errorf("bolt url %q has no path", dsn)
		}
		return Bolt, path, nil
	case strings.HasPrefix(dsn, "sqlite://"):
		return SQLite, strings.TrimPrefix(dsn, "sqlite://"), nil
	case strings.Contains(dsn, "://"):
		return "", "", fmt.Errorf("unsupported database url %q", dsn)
	default:
		return SQLite, dsn, nil
	}
}

func Open(ctx context.Context, dsn string) (store.Store, error) {
	kind, location, err := Resolve(dsn)
	if err != nil {
		return nil, err
	}
	var st store.Store
	switch kind {
	case Mongo:
		st, err = openMongo(ctx, location)
	case Bolt:
		st, err = openBolt(location)
	default:
		st, err = openSQLite(location)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", kind, err)
	}
	return st, nil
}

// The wrappers keep a failed open from yielding a non-nil interface.

func openMongo(ctx context.Context, uri string) (store.Store, error) {
	st, err := mongo.Open(ctx, uri)
	if err != nil {
		return nil, err
	}
	return st, nil
}

func openBolt(path string) (store.Store, error) {
	st, err := bolt.Open(path)
	if err != nil {
		return nil, err
	}
	return st, nil
}

func openSQLite(path string) (store.Store, error) {
	st, err := sqlite.Open(path)
	if err != nil {
		return nil, err
	}
	return st, nil
}
