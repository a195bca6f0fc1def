// Copyright (c) 2023-2025 The Nowp developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/nowputfinance/nowpd/chaincfg"
	"github.com/nowputfinance/nowpd/powcache"
	"github.com/nowputfinance/nowpd/wire"
)

// TestNewRequiredConfig ensures the required collaborators are enforced.
func TestNewRequiredConfig(t *testing.T) {
	base := func() *Config {
		return &Config{
			ChainParams:    &chaincfg.MainNetParams,
			PowCache:       powcache.New(nil),
			TimeSource:     NewMedianTime(),
			ScriptVerifier: okVerifier{},
		}
	}

	if _, err := New(base()); err != nil {
		t.Fatalf("New with full config: %v", err)
	}

	broken := []func(*Config){
		func(c *Config) { c.ChainParams = nil },
		func(c *Config) { c.PowCache = nil },
		func(c *Config) { c.TimeSource = nil },
		func(c *Config) { c.ScriptVerifier = nil },
	}
	for i, mutate := range broken {
		config := base()
		mutate(config)
		if _, err := New(config); err == nil {
			t.Errorf("config mutation %d accepted", i)
		}
	}
}

// TestConnectBlockNode runs real blocks through block index extension: the
// modifier state is computed, the checksum recorded, and the best chain
// extended.
func TestConnectBlockNode(t *testing.T) {
	params := chaincfg.RegressionNetParams
	k := newTestKernel(t, &params)

	genesisNode, err := k.ConnectBlockNode(params.GenesisBlock, nil)
	if err != nil {
		t.Fatalf("ConnectBlockNode(genesis): %v", err)
	}
	if genesisNode.StakeModifier != 0 || !genesisNode.GeneratedStakeModifier() {
		t.Fatalf("genesis modifier state: got (%016x, %v), want (0, true)",
			genesisNode.StakeModifier, genesisNode.GeneratedStakeModifier())
	}
	if k.BestChain().Tip() != genesisNode {
		t.Fatalf("best chain tip not extended to genesis")
	}

	// A child proof-of-work block.
	coinbase := wire.NewMsgTx(1)
	coinbase.AddTxIn(wire.NewTxIn(wire.NewOutPoint(&chainhash.Hash{},
		wire.MaxPrevOutIndex), []byte{0x01}, nil))
	coinbase.AddTxOut(wire.NewTxOut(1, []byte{0x51}))

	header := &wire.BlockHeader{
		Version:    1,
		PrevBlock:  *params.GenesisHash,
		MerkleRoot: CalcMerkleRoot([]*wire.MsgTx{coinbase}),
		Timestamp: time.Unix(
			params.GenesisBlock.Header.Timestamp.Unix()+60, 0),
		Bits: params.PowLimitBits,
	}
	block := wire.NewMsgBlock(header)
	block.AddTransaction(coinbase)

	childNode, err := k.ConnectBlockNode(block, nil)
	if err != nil {
		t.Fatalf("ConnectBlockNode(child): %v", err)
	}
	if childNode.Parent != genesisNode || childNode.Height != 1 {
		t.Fatalf("child node not linked to genesis")
	}
	if k.BestChain().Tip() != childNode {
		t.Fatalf("best chain tip not extended to the child")
	}
	if got := k.index.LookupNode(&childNode.Hash); got != childNode {
		t.Fatalf("child node not registered in the block index")
	}
	if childNode.StakeModifierChecksum != StakeModifierChecksum(childNode) {
		t.Fatalf("recorded checksum does not recompute")
	}

	// An orphan block whose parent is unknown is rejected.
	orphanHeader := *header
	orphanHeader.PrevBlock = chainhash.HashH([]byte("unknown parent"))
	orphan := wire.NewMsgBlock(&orphanHeader)
	orphan.AddTransaction(coinbase)
	if _, err := k.ConnectBlockNode(orphan, nil); err == nil {
		t.Fatalf("orphan block connected")
	}
}

// TestConnectBlockNodeCheckpoint ensures a stake modifier checksum that
// contradicts a hard checkpoint rejects the block.
func TestConnectBlockNodeCheckpoint(t *testing.T) {
	params := chaincfg.RegressionNetParams
	params.StakeModifierCheckpoints = map[int32]uint32{0: 0xdeadbeef}
	k := newTestKernel(t, &params)

	_, err := k.ConnectBlockNode(params.GenesisBlock, nil)
	if !IsRuleErrorCode(err, ErrBadStakeModifierCheckpoint) {
		t.Fatalf("got %v, want ErrBadStakeModifierCheckpoint", err)
	}
}

// TestMedianTime exercises the adjusted time source with a typical sample
// set.
func TestMedianTime(t *testing.T) {
	m := NewMedianTime()

	if m.Offset() != 0 {
		t.Fatalf("fresh time source has nonzero offset %v", m.Offset())
	}

	// Five peers all two minutes ahead.
	for i := 0; i < 5; i++ {
		m.AddTimeSample(string(rune('a'+i)),
			time.Now().Add(2*time.Minute))
	}
	offset := m.Offset()
	if offset < time.Minute || offset > 3*time.Minute {
		t.Fatalf("median offset %v not near two minutes", offset)
	}

	adjusted := m.AdjustedTime()
	skew := adjusted.Sub(time.Now().Add(offset))
	if skew < -5*time.Second || skew > 5*time.Second {
		t.Fatalf("adjusted time deviates from offset by %v", skew)
	}

	// Duplicate sources are ignored.
	m.AddTimeSample("a", time.Now().Add(10*time.Hour))
	if m.Offset() != offset {
		t.Fatalf("duplicate source changed the offset")
	}
}
