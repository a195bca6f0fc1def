// Package convert provides utilities for converting between nowpd and
// btcsuite types.  The nowp transaction format carries a ppcoin-style
// timestamp the btcsuite types have no notion of, so conversions toward
// btcsuite are lossy by design and only suitable for script verification,
// where the timestamp takes no part.
package convert

import (
	btcwire "github.com/btcsuite/btcd/wire"

	"github.com/nowputfinance/nowpd/wire"
)

// OutPointToBtc converts a nowpd wire.OutPoint to a btcsuite wire.OutPoint.
func OutPointToBtc(op wire.OutPoint) btcwire.OutPoint {
	return btcwire.OutPoint{
		Hash:  op.Hash,
		Index: op.Index,
	}
}

// TxInToBtc converts a nowpd wire.TxIn to a btcsuite wire.TxIn.
func TxInToBtc(ti *wire.TxIn) *btcwire.TxIn {
	return &btcwire.TxIn{
		PreviousOutPoint: OutPointToBtc(ti.PreviousOutPoint),
		SignatureScript:  ti.SignatureScript,
		Witness:          btcwire.TxWitness(ti.Witness),
		Sequence:         ti.Sequence,
	}
}

// TxOutToBtc converts a nowpd wire.TxOut to a btcsuite wire.TxOut.
func TxOutToBtc(to *wire.TxOut) *btcwire.TxOut {
	return &btcwire.TxOut{
		Value:    to.Value,
		PkScript: to.PkScript,
	}
}

// TxToBtc converts a nowpd wire.MsgTx to a btcsuite wire.MsgTx.  The nowp
// transaction timestamp has no btcsuite counterpart and is dropped.
func TxToBtc(tx *wire.MsgTx) *btcwire.MsgTx {
	btcTx := &btcwire.MsgTx{
		Version:  tx.Version,
		TxIn:     make([]*btcwire.TxIn, 0, len(tx.TxIn)),
		TxOut:    make([]*btcwire.TxOut, 0, len(tx.TxOut)),
		LockTime: tx.LockTime,
	}
	for _, ti := range tx.TxIn {
		btcTx.TxIn = append(btcTx.TxIn, TxInToBtc(ti))
	}
	for _, to := range tx.TxOut {
		btcTx.TxOut = append(btcTx.TxOut, TxOutToBtc(to))
	}
	return btcTx
}
