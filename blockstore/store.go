// Copyright (c) 2024 The Chainhook developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package blockstore is the local block-index collaborator referenced by
// spec §4.5/§4.6/§6 ("an embedded block-index storage" / "the local block
// index (external storage collaborator)"). It is a thin leveldb-backed
// append log keyed by block height, one per chain kind.
package blockstore

import (
	"encoding/binary"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/omahs/chainhook/chainmodel"
)

// ErrNotFound is returned by Get when no block is stored at that height.
var ErrNotFound = errors.New("blockstore: block not found")

// Store is an ordered, height-keyed block log backed by goleveldb, mirroring
// the teacher's tx-stash usage of the same driver
// (cmd/thor/node/tx_stash.go): single underlying *leveldb.DB, keys are a
// fixed-width big-endian encoding so iteration comes out in block order for
// free.
type Store struct {
	db *leveldb.DB
}

// Open opens (creating if absent) a leveldb database at dir.
func Open(dir string) (*Store, error) {
	db, err := leveldb.OpenFile(dir, nil)
	if err != nil {
		return nil, errors.Wrap(err, "blockstore: open")
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func heightKey(height uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], height)
	return b[:]
}

// Put persists block at its own index, overwriting any prior block at that
// height (the caller is responsible for reorg bookkeeping above this layer).
func (s *Store) Put(block chainmodel.Block) error {
	raw, err := json.Marshal(block)
	if err != nil {
		return errors.Wrap(err, "blockstore: marshal block")
	}
	if err := s.db.Put(heightKey(block.Identifier.Index), raw, nil); err != nil {
		return errors.Wrap(err, "blockstore: put")
	}
	return nil
}

// Get returns the block stored at height, or ErrNotFound.
func (s *Store) Get(height uint64) (*chainmodel.Block, error) {
	raw, err := s.db.Get(heightKey(height), nil)
	if err == leveldb.ErrNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "blockstore: get")
	}
	var block chainmodel.Block
	if err := json.Unmarshal(raw, &block); err != nil {
		return nil, errors.Wrap(err, "blockstore: unmarshal block")
	}
	return &block, nil
}

// Tip returns the highest stored block height, or (0, false) if empty.
func (s *Store) Tip() (uint64, bool) {
	it := s.db.NewIterator(util.BytesPrefix(nil), nil)
	defer it.Release()
	if !it.Last() {
		return 0, false
	}
	return binary.BigEndian.Uint64(it.Key()), true
}

// Range iterates stored blocks with index in [low, high], in ascending
// order, calling fn for each. It stops early if fn returns an error.
func (s *Store) Range(low, high uint64, fn func(chainmodel.Block) error) error {
	it := s.db.NewIterator(&util.Range{Start: heightKey(low), Limit: heightKey(high + 1)}, nil)
	defer it.Release()

	for it.Next() {
		var block chainmodel.Block
		if err := json.Unmarshal(it.Value(), &block); err != nil {
			return errors.Wrap(err, "blockstore: unmarshal block")
		}
		if err := fn(block); err != nil {
			return err
		}
	}
	return it.Error()
}
