// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2023-2025 The Nowp developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"github.com/btcsuite/btcd/txscript"

	"github.com/nowputfinance/nowpd/internal/convert"
	"github.com/nowputfinance/nowpd/wire"
)

// coinstakeScriptFlags are the script flags coinstake verification runs
// with.  Only pay-to-script-hash evaluation is enforced; the remaining
// standardness flags do not apply to kernels by protocol.
const coinstakeScriptFlags = txscript.ScriptBip16

// txScriptVerifier implements the ScriptVerifier interface on top of the
// btcsuite script engine.
type txScriptVerifier struct {
	sigCache *txscript.SigCache
}

// Ensure the txScriptVerifier type implements the ScriptVerifier interface.
var _ ScriptVerifier = (*txScriptVerifier)(nil)

// VerifyCoinstake executes the scripts of the input with the passed index
// against the referenced output.
//
// This is part of the ScriptVerifier interface implementation.
func (v *txScriptVerifier) VerifyCoinstake(tx *wire.MsgTx, inIdx int,
	prevOut *wire.TxOut) error {

	btcTx := convert.TxToBtc(tx)
	prevFetcher := txscript.NewCannedPrevOutputFetcher(prevOut.PkScript,
		prevOut.Value)
	sigHashes := txscript.NewTxSigHashes(btcTx, prevFetcher)

	vm, err := txscript.NewEngine(prevOut.PkScript, btcTx, inIdx,
		coinstakeScriptFlags, v.sigCache, sigHashes, prevOut.Value,
		prevFetcher)
	if err != nil {
		return err
	}
	return vm.Execute()
}

// NewScriptVerifier returns a ScriptVerifier backed by the btcsuite script
// engine.  The passed signature cache may be nil to disable signature
// caching.
func NewScriptVerifier(sigCache *txscript.SigCache) ScriptVerifier {
	return &txScriptVerifier{sigCache: sigCache}
}
