// Copyright (c) 2023-2025 The Nowp developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/nowputfinance/nowpd/chaincfg"
	"github.com/nowputfinance/nowpd/powcache"
	"github.com/nowputfinance/nowpd/wire"
)

// solveRegtestBlock returns a proof-of-work block whose pow hash satisfies
// the regression network difficulty.
func solveRegtestBlock(t *testing.T, k *Kernel) *wire.MsgBlock {
	t.Helper()

	params := k.chainParams

	coinbase := wire.NewMsgTx(1)
	coinbase.AddTxIn(wire.NewTxIn(wire.NewOutPoint(&chainhash.Hash{},
		wire.MaxPrevOutIndex), []byte{0x01, 0x02}, nil))
	coinbase.AddTxOut(wire.NewTxOut(1, []byte{0x51}))

	header := testHeader(testBaseTime, params.PowLimitBits)
	header.MerkleRoot = CalcMerkleRoot([]*wire.MsgTx{coinbase})
	for nonce := uint32(0); nonce < 1000; nonce++ {
		header.Nonce = nonce
		powHash := header.PowHash()
		if HashToBig(&powHash).Cmp(params.PowLimit) <= 0 {
			block := wire.NewMsgBlock(header)
			block.AddTransaction(coinbase)
			return block
		}
	}
	t.Fatalf("no nonce satisfies the regression network difficulty")
	return nil
}

// TestCheckPOW verifies proof-of-work validation through the pow cache,
// including recovery from a corrupted cache entry.
func TestCheckPOW(t *testing.T) {
	k := newTestKernel(t, &chaincfg.RegressionNetParams)
	block := solveRegtestBlock(t, k)

	if err := k.CheckPOW(block); err != nil {
		t.Fatalf("CheckPOW: %v", err)
	}

	// Corrupt the cached pow hash; the check must recover by bypassing
	// the cache and overwrite the corrupt entry.
	headerHash := block.Header.BlockHash()
	var corrupt chainhash.Hash
	for i := range corrupt {
		corrupt[i] = 0xff
	}
	k.powCache.Insert(&headerHash, &corrupt)

	if err := k.CheckPOW(block); err != nil {
		t.Fatalf("CheckPOW with corrupt cache: %v", err)
	}
	cached, ok := k.powCache.Get(&headerHash)
	if !ok {
		t.Fatalf("pow hash missing from cache after recovery")
	}
	if want := block.Header.PowHash(); cached != want {
		t.Fatalf("cache not corrected: got %v, want %v", cached, want)
	}
}

// TestCheckPOWProofOfStake ensures proof-of-stake blocks short-circuit the
// proof-of-work check.
func TestCheckPOWProofOfStake(t *testing.T) {
	k := newTestKernel(t, &chaincfg.RegressionNetParams)

	// A header that cannot satisfy any difficulty, carried by a block
	// shaped like proof-of-stake.
	header := testHeader(testBaseTime, 0x01000001)
	block := wire.NewMsgBlock(header)

	coinbase := wire.NewMsgTx(1)
	coinbase.AddTxIn(wire.NewTxIn(wire.NewOutPoint(&chainhash.Hash{},
		wire.MaxPrevOutIndex), nil, nil))
	coinbase.AddTxOut(wire.NewTxOut(0, []byte{0x51}))
	block.AddTransaction(coinbase)

	prevHash := coinbase.TxHash()
	coinstake := wire.NewMsgTx(1)
	coinstake.Time = uint32(testBaseTime)
	coinstake.AddTxIn(wire.NewTxIn(wire.NewOutPoint(&prevHash, 0), nil, nil))
	coinstake.AddTxOut(wire.NewTxOut(0, nil))
	coinstake.AddTxOut(wire.NewTxOut(1, []byte{0x51}))
	block.AddTransaction(coinstake)

	if !block.IsProofOfStake() {
		t.Fatalf("synthetic block not recognized as proof-of-stake")
	}
	if err := k.CheckPOW(block); err != nil {
		t.Fatalf("CheckPOW on proof-of-stake block: %v", err)
	}
}

// TestPowHashValidateMode ensures validation mode recomputes cached entries
// and corrects corrupted ones on every access.
func TestPowHashValidateMode(t *testing.T) {
	k := newTestKernel(t, &chaincfg.RegressionNetParams)

	k.powCache = powcache.New(&powcache.Options{
		MaxElements: 1024,
		Validate:    true,
		DataDir:     t.TempDir(),
	})

	header := testHeader(testBaseTime, k.chainParams.PowLimitBits)
	headerHash := header.BlockHash()

	var corrupt chainhash.Hash
	corrupt[0] = 0xaa
	k.powCache.Insert(&headerHash, &corrupt)

	if got, want := k.PowHash(header, true), header.PowHash(); got != want {
		t.Fatalf("validate mode returned corrupt hash %v, want %v", got,
			want)
	}
	if cached, _ := k.powCache.Get(&headerHash); cached != header.PowHash() {
		t.Fatalf("validate mode did not correct the cache")
	}
}
