// Package storage manages the embedded Badger database that backs the
// credential vault, account health counters, request log and durable
// session tier.
package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/timshannon/badgerhold/v4"

	"liscraper/pkg/config"
	"liscraper/pkg/logger"
)

// Store wraps the badgerhold connection.
type Store struct {
	store *badgerhold.Store
	log   logger.Logger
}

// Open opens (or creates) the embedded database at the configured path.
func Open(cfg config.StorageConfig, log logger.Logger) (*Store, error) {
	if cfg.ResetOnStartup {
		if _, err := os.Stat(cfg.Path); err == nil {
			log.WithField("path", cfg.Path).Debug("Deleting existing database (reset_on_startup=true)")
			if err := os.RemoveAll(cfg.Path); err != nil {
				log.WithError(err).WithField("path", cfg.Path).Warn("Failed to delete database directory")
			}
		}
	}

	dir := filepath.Dir(cfg.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	options := badgerhold.DefaultOptions
	options.Dir = cfg.Path
	options.ValueDir = cfg.Path
	options.Logger = nil // badger's own logger is too chatty; zerolog covers it

	store, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}

	log.WithField("path", cfg.Path).Debug("Badger database opened")

	return &Store{store: store, log: log}, nil
}

// Badger returns the underlying badgerhold store.
func (s *Store) Badger() *badgerhold.Store {
	return s.store
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}
