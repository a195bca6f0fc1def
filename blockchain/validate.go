// Copyright (c) 2023-2025 The Nowp developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"fmt"
	"io"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/nowputfinance/nowpd/wire"
)

// fetchStakedTx loads the header of the block containing the staked coin
// and the transaction itself, either from the transaction index cache or by
// reading block storage at the indexed position.
func (k *Kernel) fetchStakedTx(txid *chainhash.Hash,
	pos *DiskTxPos) (*wire.BlockHeader, *wire.MsgTx, error) {

	if header, txPrev, ok := k.txIndex.FetchCached(txid); ok {
		return header, txPrev, nil
	}

	stream, err := k.blockFiles.OpenForRead(pos)
	if err != nil {
		str := fmt.Sprintf("unable to open block file for %v: %v",
			txid, err)
		return nil, nil, ruleError(ErrReadTxFailed, str)
	}
	defer stream.Close()

	var header wire.BlockHeader
	if err := header.Deserialize(stream); err != nil {
		str := fmt.Sprintf("unable to deserialize header for %v: %v",
			txid, err)
		return nil, nil, ruleError(ErrReadTxFailed, str)
	}
	// The indexed transaction offset is relative to the end of the
	// serialized header, which was just consumed.
	if _, err := stream.Seek(int64(pos.TxOffset), io.SeekCurrent); err != nil {
		str := fmt.Sprintf("unable to seek to transaction %v: %v",
			txid, err)
		return nil, nil, ruleError(ErrReadTxFailed, str)
	}
	var txPrev wire.MsgTx
	if err := txPrev.Deserialize(stream); err != nil {
		str := fmt.Sprintf("unable to deserialize transaction %v: %v",
			txid, err)
		return nil, nil, ruleError(ErrReadTxFailed, str)
	}
	return &header, &txPrev, nil
}

// CheckProofOfStake checks whether the passed coinstake transaction is
// entitled to mint a block on top of prevNode at the passed timestamp: the
// kernel (input 0) must match the stake hash target per coin age given by
// bits, and the coinstake signature must verify against the staked output.
//
// The computed kernel hash is returned even when the kernel check fails so
// callers can record it for diagnostics.
func (k *Kernel) CheckProofOfStake(prevNode *BlockNode, tx *wire.MsgTx,
	bits uint32, timeTx uint32) (chainhash.Hash, error) {

	var zeroHash chainhash.Hash

	if !tx.IsCoinStake() {
		str := fmt.Sprintf("called on non-coinstake %v", tx.TxHash())
		return zeroHash, ruleError(ErrNotCoinStake, str)
	}

	txIn := tx.TxIn[0]

	// The transaction index is required to get to the block header of
	// the staked coin.
	if k.txIndex == nil || k.blockFiles == nil {
		return zeroHash, ruleError(ErrTxIndexMissing,
			"transaction index not available")
	}

	pos, found, err := k.txIndex.FindTxPosition(&txIn.PreviousOutPoint.Hash)
	if err != nil {
		str := fmt.Sprintf("transaction index lookup failed for %v: %v",
			txIn.PreviousOutPoint.Hash, err)
		return zeroHash, ruleError(ErrReadTxFailed, str)
	}
	if !found {
		str := fmt.Sprintf("staked transaction %v not indexed",
			txIn.PreviousOutPoint.Hash)
		return zeroHash, ruleError(ErrTxPosNotFound, str)
	}

	header, txPrev, err := k.fetchStakedTx(&txIn.PreviousOutPoint.Hash, &pos)
	if err != nil {
		return zeroHash, err
	}

	if txPrev.TxHash() != txIn.PreviousOutPoint.Hash {
		str := fmt.Sprintf("transaction at position of %v hashes to %v",
			txIn.PreviousOutPoint.Hash, txPrev.TxHash())
		return zeroHash, ruleError(ErrTxIDMismatch, str)
	}

	if txIn.PreviousOutPoint.Index >= uint32(len(txPrev.TxOut)) {
		str := fmt.Sprintf("staked output index %d out of range for %v",
			txIn.PreviousOutPoint.Index, txIn.PreviousOutPoint.Hash)
		return zeroHash, ruleError(ErrInvalidPoSScript, str)
	}
	prevOut := txPrev.TxOut[txIn.PreviousOutPoint.Index]

	// Verify the coinstake signature.
	if err := k.scriptVerifier.VerifyCoinstake(tx, 0, prevOut); err != nil {
		str := fmt.Sprintf("script verification failed on coinstake "+
			"%v: %v", tx.TxHash(), err)
		return zeroHash, ruleError(ErrInvalidPoSScript, str)
	}

	hashProofOfStake, err := k.CheckStakeKernelHash(bits, prevNode, header,
		pos.TxOffset+wire.NormalHeaderSize, txPrev,
		&txIn.PreviousOutPoint, timeTx)
	if err != nil {
		// This may occur during initial download or when the node is
		// behind on block chain sync.
		str := fmt.Sprintf("check kernel failed on coinstake %v, "+
			"hashProof=%v: %v", tx.TxHash(), hashProofOfStake, err)
		return hashProofOfStake, ruleError(ErrCheckKernelFailed, str)
	}

	return hashProofOfStake, nil
}
