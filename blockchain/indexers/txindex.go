// Copyright (c) 2016 The btcsuite developers
// Copyright (c) 2023-2025 The Nowp developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package indexers implements optional block chain indexes.  The transaction
// index is required by the proof-of-stake kernel: validating a coinstake
// means locating the transaction that created the staked coin and reading it
// back from the flat block files.
package indexers

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/decred/dcrd/lru"
	"github.com/syndtr/goleveldb/leveldb"

	"github.com/nowputfinance/nowpd/blockchain"
	"github.com/nowputfinance/nowpd/wire"
)

const (
	// diskTxPosSize is the serialized size of a disk transaction position.
	diskTxPosSize = 12

	// defaultCachedTxLimit is the number of recently fetched transactions
	// kept in memory when no override is supplied.
	defaultCachedTxLimit = 512
)

// fetchedTx pairs a transaction with the header of its containing block for
// the fetched-transaction cache.
type fetchedTx struct {
	header *wire.BlockHeader
	tx     *wire.MsgTx
}

// TxIndex implements a transaction by hash index backed by leveldb.  Each
// entry maps a transaction hash to its position within the flat block files.
// Recently fetched transactions are additionally served from a bounded
// in-memory cache together with their containing block header.
type TxIndex struct {
	db    *leveldb.DB
	cache lru.KVCache
}

// Ensure the TxIndex type implements the blockchain.TxIndexer interface.
var _ blockchain.TxIndexer = (*TxIndex)(nil)

// NewTxIndex returns a new transaction index using a leveldb database at
// the passed path.  cachedTxLimit bounds the fetched-transaction cache; zero
// selects the default.
func NewTxIndex(dbPath string, cachedTxLimit uint32) (*TxIndex, error) {
	if cachedTxLimit == 0 {
		cachedTxLimit = defaultCachedTxLimit
	}

	db, err := leveldb.OpenFile(dbPath, nil)
	if err != nil {
		return nil, err
	}

	log.Infof("Transaction index opened at %s", dbPath)
	return &TxIndex{
		db:    db,
		cache: lru.NewKVCache(cachedTxLimit),
	}, nil
}

// Close shuts the underlying database down.
func (idx *TxIndex) Close() error {
	return idx.db.Close()
}

// serializeDiskTxPos returns the serialized form of the passed position.
func serializeDiskTxPos(pos *blockchain.DiskTxPos) []byte {
	var buf [diskTxPosSize]byte
	binary.LittleEndian.PutUint32(buf[0:], pos.FileNum)
	binary.LittleEndian.PutUint32(buf[4:], pos.BlockOffset)
	binary.LittleEndian.PutUint32(buf[8:], pos.TxOffset)
	return buf[:]
}

// deserializeDiskTxPos decodes a position from its serialized form.
func deserializeDiskTxPos(serialized []byte) (blockchain.DiskTxPos, error) {
	if len(serialized) != diskTxPosSize {
		return blockchain.DiskTxPos{}, fmt.Errorf("malformed disk "+
			"transaction position of length %d", len(serialized))
	}
	return blockchain.DiskTxPos{
		FileNum:     binary.LittleEndian.Uint32(serialized[0:]),
		BlockOffset: binary.LittleEndian.Uint32(serialized[4:]),
		TxOffset:    binary.LittleEndian.Uint32(serialized[8:]),
	}, nil
}

// blockTxPositions computes the disk position of every transaction in the
// passed block given the position of the block itself.  Offsets are relative
// to the end of the serialized block header.
func blockTxPositions(block *wire.MsgBlock, fileNum,
	blockOffset uint32) ([]chainhash.Hash, []blockchain.DiskTxPos, error) {

	var buf bytes.Buffer
	if err := block.Serialize(&buf); err != nil {
		return nil, nil, err
	}
	var parsed wire.MsgBlock
	txLocs, err := parsed.DeserializeTxLoc(bytes.NewBuffer(buf.Bytes()))
	if err != nil {
		return nil, nil, err
	}

	var headerBuf bytes.Buffer
	if err := block.Header.Serialize(&headerBuf); err != nil {
		return nil, nil, err
	}
	headerSize := headerBuf.Len()

	hashes := make([]chainhash.Hash, len(block.Transactions))
	positions := make([]blockchain.DiskTxPos, len(block.Transactions))
	for i, tx := range block.Transactions {
		hashes[i] = tx.TxHash()
		positions[i] = blockchain.DiskTxPos{
			FileNum:     fileNum,
			BlockOffset: blockOffset,
			TxOffset:    uint32(txLocs[i].TxStart - headerSize),
		}
	}
	return hashes, positions, nil
}

// ConnectBlock indexes every transaction of the passed block, which is
// stored at the passed file number and offset.
func (idx *TxIndex) ConnectBlock(block *wire.MsgBlock, fileNum,
	blockOffset uint32) error {

	hashes, positions, err := blockTxPositions(block, fileNum, blockOffset)
	if err != nil {
		return err
	}

	batch := new(leveldb.Batch)
	for i := range hashes {
		batch.Put(hashes[i][:], serializeDiskTxPos(&positions[i]))
	}
	return idx.db.Write(batch, nil)
}

// DisconnectBlock removes every transaction of the passed block from the
// index.
func (idx *TxIndex) DisconnectBlock(block *wire.MsgBlock) error {
	batch := new(leveldb.Batch)
	for _, tx := range block.Transactions {
		txHash := tx.TxHash()
		batch.Delete(txHash[:])
	}
	return idx.db.Write(batch, nil)
}

// FindTxPosition returns the disk position of the transaction with the
// given hash, or false when the id is not indexed.
//
// This is part of the blockchain.TxIndexer interface implementation.
func (idx *TxIndex) FindTxPosition(txid *chainhash.Hash) (blockchain.DiskTxPos, bool, error) {
	serialized, err := idx.db.Get(txid[:], nil)
	if err == leveldb.ErrNotFound {
		return blockchain.DiskTxPos{}, false, nil
	}
	if err != nil {
		return blockchain.DiskTxPos{}, false, err
	}

	pos, err := deserializeDiskTxPos(serialized)
	if err != nil {
		return blockchain.DiskTxPos{}, false, err
	}
	return pos, true, nil
}

// FetchCached returns the containing block header and the transaction
// itself when the fetched-transaction cache holds them.
//
// This is part of the blockchain.TxIndexer interface implementation.
func (idx *TxIndex) FetchCached(txid *chainhash.Hash) (*wire.BlockHeader, *wire.MsgTx, bool) {
	value, ok := idx.cache.Lookup(*txid)
	if !ok {
		return nil, nil, false
	}
	cached := value.(fetchedTx)
	return cached.header, cached.tx, true
}

// AddCached adds the passed transaction and its containing block header to
// the fetched-transaction cache.
func (idx *TxIndex) AddCached(txid *chainhash.Hash, header *wire.BlockHeader,
	tx *wire.MsgTx) {

	idx.cache.Add(*txid, fetchedTx{header: header, tx: tx})
}
