// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package image

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"
	lru "github.com/hashicorp/golang-lru"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
	"golang.org/x/crypto/sha3"

	"github.com/probechain/probe-rexx/lang/ast"
	"github.com/probechain/probe-rexx/lang/parser"
)

// ErrImageNotFound is returned by Get for a key with no stored image.
var ErrImageNotFound = errors.New("program image not found")

var (
	cacheHitMeter  = metrics.NewRegisteredMeter("rexx/image/cache/hit", nil)
	cacheMissMeter = metrics.NewRegisteredMeter("rexx/image/cache/miss", nil)
	compileMeter   = metrics.NewRegisteredMeter("rexx/image/compile", nil)
)

// imagePrefix + key -> image
var imagePrefix = []byte("i")

// Config are the options of a Store.
type Config struct {
	Dir       string // database directory, in memory when empty
	CacheSize int    // number of unflattened programs kept in memory
}

// DefaultConfig contains the default store settings.
var DefaultConfig = Config{
	CacheSize: 64,
}

// Key identifies a compiled program: the Keccak-256 hash of its name and
// source text.
type Key [32]byte

// KeyOf returns the key of the program compiled from src under name.
func KeyOf(name, src string) (k Key) {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(name))
	h.Write([]byte{0})
	h.Write([]byte(src))
	h.Sum(k[:0])
	return k
}

func (k Key) String() string { return fmt.Sprintf("%x", k[:]) }

// Store keeps compiled images in a LevelDB database, with the most used
// programs held unflattened in an ARC cache. Programs returned by a Store
// are shared and must not be modified.
type Store struct {
	db    *leveldb.DB
	cache *lru.ARCCache
	log   log.Logger
}

// Open opens the store described by cfg.
func Open(cfg Config) (*Store, error) {
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = DefaultConfig.CacheSize
	}
	cache, err := lru.NewARC(cfg.CacheSize)
	if err != nil {
		return nil, err
	}
	var db *leveldb.DB
	if cfg.Dir == "" {
		db, err = leveldb.Open(storage.NewMemStorage(), nil)
	} else {
		db, err = leveldb.OpenFile(cfg.Dir, &opt.Options{
			OpenFilesCacheCapacity: 16,
			BlockCacheCapacity:     4 * opt.MiB,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("opening image store: %w", err)
	}
	logger := log.New("imagedir", cfg.Dir)
	logger.Debug("Image store opened", "cache", cfg.CacheSize)
	return &Store{db: db, cache: cache, log: logger}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	s.cache.Purge()
	return s.db.Close()
}

func dbKey(k Key) []byte {
	return append(append([]byte{}, imagePrefix...), k[:]...)
}

// Get returns the program stored under k.
func (s *Store) Get(k Key) (*ast.Program, error) {
	if v, ok := s.cache.Get(k); ok {
		cacheHitMeter.Mark(1)
		return v.(*ast.Program), nil
	}
	cacheMissMeter.Mark(1)
	data, err := s.db.Get(dbKey(k), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ErrImageNotFound
	}
	if err != nil {
		return nil, err
	}
	prog, err := Unflatten(data)
	if err != nil {
		return nil, fmt.Errorf("image %s: %w", k, err)
	}
	s.cache.Add(k, prog)
	return prog, nil
}

// Put stores prog under k.
func (s *Store) Put(k Key, prog *ast.Program) error {
	data, err := Flatten(prog)
	if err != nil {
		return err
	}
	if err := s.db.Put(dbKey(k), data, nil); err != nil {
		return err
	}
	s.cache.Add(k, prog)
	s.log.Trace("Stored program image", "name", prog.Name, "key", k, "size", len(data))
	return nil
}

// Delete removes the image stored under k.
func (s *Store) Delete(k Key) error {
	s.cache.Remove(k)
	return s.db.Delete(dbKey(k), nil)
}

// Compile returns the program for src, parsing it only when no image of the
// same name and source is stored. Syntax errors are not cached.
func (s *Store) Compile(name, src string) (*ast.Program, error) {
	k := KeyOf(name, src)
	prog, err := s.Get(k)
	if err == nil {
		s.log.Debug("Program image reused", "name", name, "key", k)
		return prog, nil
	}
	if !errors.Is(err, ErrImageNotFound) {
		// an unreadable image is replaced
		s.log.Warn("Discarding program image", "name", name, "err", err)
	}
	compileMeter.Mark(1)
	if prog, err = parser.ParseProgram(name, src); err != nil {
		return nil, err
	}
	if err := s.Put(k, prog); err != nil {
		return nil, err
	}
	return prog, nil
}

// Len returns the number of stored images.
func (s *Store) Len() (int, error) {
	it := s.db.NewIterator(util.BytesPrefix(imagePrefix), nil)
	defer it.Release()
	n := 0
	for it.Next() {
		n++
	}
	return n, it.Error()
}
