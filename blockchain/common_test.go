// Copyright (c) 2023-2025 The Nowp developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/nowputfinance/nowpd/chaincfg"
	"github.com/nowputfinance/nowpd/powcache"
	"github.com/nowputfinance/nowpd/wire"
)

// testBaseTime is the timestamp of the synthetic genesis block used
// throughout the tests.
const testBaseTime int64 = 1345084287

// testRand is a deterministic Rand implementation so tests can exercise the
// pre-sort shuffle with reproducible sequences.
type testRand struct {
	state uint64
}

// Below returns a deterministic pseudo-random value in [0, n).
func (r *testRand) Below(n uint64) uint64 {
	if n == 0 {
		return 0
	}
	r.state = r.state*6364136223846793005 + 1442695040888963407
	return (r.state >> 11) % n
}

// okVerifier is a ScriptVerifier that accepts everything.
type okVerifier struct{}

func (okVerifier) VerifyCoinstake(tx *wire.MsgTx, inIdx int, prevOut *wire.TxOut) error {
	return nil
}

// newTestKernel returns a kernel over the passed parameters with fake
// collaborators suitable for consensus tests.
func newTestKernel(t *testing.T, params *chaincfg.Params) *Kernel {
	t.Helper()

	cache := powcache.New(&powcache.Options{
		MaxElements: 4096,
		DataDir:     t.TempDir(),
	})
	k, err := New(&Config{
		ChainParams:    params,
		PowCache:       cache,
		TimeSource:     NewMedianTime(),
		ScriptVerifier: okVerifier{},
		Rand:           &testRand{state: 1},
	})
	if err != nil {
		t.Fatalf("New: unexpected error: %v", err)
	}
	return k
}

// testBlockHash returns a synthetic, unique block hash for the passed
// height.
func testBlockHash(height int32) chainhash.Hash {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(height))
	return chainhash.HashH(buf[:])
}

// fakeChain incrementally builds a synthetic block index rooted at a
// genesis node, running each extension through the stake modifier engine so
// nodes carry consistent modifier state.
type fakeChain struct {
	t   *testing.T
	k   *Kernel
	tip *BlockNode
}

// newFakeChain creates a fake chain containing only a genesis node.
func newFakeChain(t *testing.T, k *Kernel) *fakeChain {
	t.Helper()

	genesis := &BlockNode{
		Hash:      testBlockHash(0),
		Height:    0,
		Version:   1,
		Bits:      k.chainParams.PowLimitBits,
		Timestamp: testBaseTime,
	}
	genesis.SetStakeEntropyBit(uint32(genesis.Hash[0]) & 1)

	modifier, generated, err := k.ComputeNextStakeModifier(genesis)
	if err != nil {
		t.Fatalf("ComputeNextStakeModifier(genesis): %v", err)
	}
	genesis.SetStakeModifier(modifier, generated)
	genesis.StakeModifierChecksum = StakeModifierChecksum(genesis)

	k.index.AddNode(genesis)
	k.bestChain.SetTip(genesis)
	return &fakeChain{t: t, k: k, tip: genesis}
}

// extend appends a node to the fake chain with the passed attributes and
// returns it.  The node's stake modifier state is computed by the engine.
func (fc *fakeChain) extend(timestamp int64, proofOfStake bool, bits uint32) *BlockNode {
	fc.t.Helper()

	node := &BlockNode{
		Parent:    fc.tip,
		Hash:      testBlockHash(fc.tip.Height + 1),
		Height:    fc.tip.Height + 1,
		Version:   1,
		Bits:      bits,
		Timestamp: timestamp,
	}
	if proofOfStake {
		node.SetProofOfStake()
		// A synthetic kernel hash; only selection ordering consumes
		// it.
		node.HashProofOfStake = chainhash.HashH(node.Hash[:])
	}
	node.SetStakeEntropyBit(uint32(node.Hash[0]) & 1)

	modifier, generated, err := fc.k.ComputeNextStakeModifier(node)
	if err != nil {
		fc.t.Fatalf("ComputeNextStakeModifier(height %d): %v",
			node.Height, err)
	}
	node.SetStakeModifier(modifier, generated)
	node.StakeModifierChecksum = StakeModifierChecksum(node)

	fc.k.index.AddNode(node)
	fc.k.bestChain.SetTip(node)
	fc.tip = node
	return node
}

// extendBy appends count nodes spaced spacing seconds apart, alternating
// proof kinds when alternate is set, and returns the new tip.
func (fc *fakeChain) extendBy(count int, spacing int64, alternate bool,
	bits uint32) *BlockNode {

	for i := 0; i < count; i++ {
		pos := alternate && (fc.tip.Height+1)%2 == 1
		fc.extend(fc.tip.Timestamp+spacing, pos, bits)
	}
	return fc.tip
}

// testHeader returns a header whose block timestamp is the passed unix
// time.
func testHeader(timestamp int64, bits uint32) *wire.BlockHeader {
	return &wire.BlockHeader{
		Version:   1,
		Timestamp: time.Unix(timestamp, 0),
		Bits:      bits,
	}
}
