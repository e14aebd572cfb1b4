// Copyright lowRISC contributors (OpenTitan project).
// Licensed under the Apache License, Version 2.0, see LICENSE for details.
// SPDX-License-Identifier: Apache-2.0

package keystore

import (
	"strings"
	"sync"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// keySchema is the sqlite table backing a SQLiteStore.
type keySchema struct {
	ID        int `gorm:"primarykey"`
	Key       []byte
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SQLiteStore is the reference keystore backend: key blobs held in a local
// sqlite database, adapted from the proxy buffer's filedb connector.
type SQLiteStore struct {
	db *gorm.DB
	mu sync.Mutex
}

// NewSQLiteStore opens (creating if necessary) a sqlite database at path and
// migrates the key table.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, Err(CodeSaveFailed, "open database: %v", err)
	}

	db.Exec("PRAGMA journal_mode=WAL;")
	db.Exec("PRAGMA busy_timeout = 5000;")
	db.Exec("PRAGMA synchronous=NORMAL;")

	if err := db.AutoMigrate(&keySchema{}); err != nil {
		return nil, Err(CodeSaveFailed, "migrate key table: %v", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return Err(CodeSaveFailed, "access db handle: %v", err)
	}
	return sqlDB.Close()
}

func (s *SQLiteStore) SaveKey(id int, key []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := keySchema{ID: id, Key: append([]byte(nil), key...)}
	if r := s.db.Save(&row); r.Error != nil {
		if isDiskFullError(r.Error) {
			return Err(CodeInsufficientStorage, "id %d: %v", id, r.Error)
		}
		return Err(CodeSaveFailed, "id %d: %v", id, r.Error)
	}
	return nil
}

// isDiskFullError reports whether err is sqlite's SQLITE_FULL condition, the
// only keystore failure mode the reference backend maps to
// CodeInsufficientStorage rather than CodeSaveFailed.
func isDiskFullError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database or disk is full") || strings.Contains(msg, "disk full")
}

func (s *SQLiteStore) LoadKey(id int) ([]byte, error) {
	var row keySchema
	if r := s.db.First(&row, id); r.Error != nil {
		return nil, Err(CodeNoKey, "id %d: %v", id, r.Error)
	}
	return row.Key, nil
}

func (s *SQLiteStore) EraseKey(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r := s.db.Delete(&keySchema{}, id); r.Error != nil {
		return Err(CodeEraseFailed, "id %d: %v", id, r.Error)
	}
	return nil
}
