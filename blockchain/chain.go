// Copyright (c) 2013-2018 The btcsuite developers
// Copyright (c) 2023-2025 The Nowp developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package blockchain implements the nowp hybrid proof-of-work and
// proof-of-stake consensus kernel.
//
// The kernel decides, for each candidate block, whether a coinstake
// transaction satisfies the staking protocol: whether a holder of unspent
// coins is entitled to mint the block at a given timestamp.  It owns the
// stake modifier construction, the kernel hash predicate, both difficulty
// retarget rules, and the persistent proof-of-work hash cache.  Everything
// else -- wallet staking, peer-to-peer, RPC -- lives outside and talks to
// the kernel through the narrow collaborator interfaces defined here.
package blockchain

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/nowputfinance/nowpd/chaincfg"
	"github.com/nowputfinance/nowpd/powcache"
	"github.com/nowputfinance/nowpd/wire"
)

// DiskTxPos identifies the location of a transaction within the flat block
// files: the file number, the offset of the block within the file, and the
// offset of the transaction relative to the end of the serialized block
// header.
type DiskTxPos struct {
	FileNum     uint32
	BlockOffset uint32
	TxOffset    uint32
}

// TxIndexer is the contract the kernel requires from a transaction index.
// It can locate a transaction by id and may additionally serve recently
// fetched transactions together with their containing block header from a
// cache.
type TxIndexer interface {
	// FindTxPosition returns the disk position of the transaction with
	// the given hash, or false when the id is not indexed.
	FindTxPosition(txid *chainhash.Hash) (DiskTxPos, bool, error)

	// FetchCached returns the containing block header and the
	// transaction itself when the index holds them in its cache.
	FetchCached(txid *chainhash.Hash) (*wire.BlockHeader, *wire.MsgTx, bool)
}

// BlockFileReader opens a positioned read stream into the flat block files.
// The returned stream is positioned at the start of the block identified by
// the passed position.
type BlockFileReader interface {
	OpenForRead(pos *DiskTxPos) (io.ReadSeekCloser, error)
}

// ScriptVerifier checks a transaction input against the output script it
// spends.
type ScriptVerifier interface {
	// VerifyCoinstake executes the scripts of the input with the passed
	// index against the referenced output and returns an error when the
	// scripts do not verify.
	VerifyCoinstake(tx *wire.MsgTx, inIdx int, prevOut *wire.TxOut) error
}

// Rand is a source of uniform random integers.  The stake modifier engine
// uses it for its pre-sort shuffle, which is consensus neutral because the
// subsequent sort is a total order.
type Rand interface {
	// Below returns a uniformly distributed value in [0, n).
	Below(n uint64) uint64
}

// cryptoRand implements Rand on top of the operating system entropy source.
type cryptoRand struct{}

// Below returns a uniformly distributed value in [0, n).
//
// This is part of the Rand interface implementation.
func (cryptoRand) Below(n uint64) uint64 {
	if n == 0 {
		return 0
	}
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// The system entropy source never fails on supported
		// platforms; the shuffle result is consensus neutral anyway.
		return 0
	}
	return binary.LittleEndian.Uint64(buf[:]) % n
}

// NewCryptoRand returns a Rand backed by the operating system entropy
// source.
func NewCryptoRand() Rand {
	return cryptoRand{}
}

// KernelLogging collects the diagnostic logging switches for the stake
// kernel.  The flags have no consensus effect.
type KernelLogging struct {
	// Debug enables diagnostic logging of modifier construction and
	// kernel evaluation.
	Debug bool

	// PrintStakeModifier additionally logs per-round selection detail
	// and the selection map visualization.
	PrintStakeModifier bool
}

// Config is a descriptor which specifies the kernel instance configuration.
type Config struct {
	// ChainParams identifies which chain parameters the kernel is
	// associated with.
	//
	// This field is required.
	ChainParams *chaincfg.Params

	// PowCache caches the expensive proof-of-work hashes.
	//
	// This field is required.
	PowCache *powcache.Cache

	// TimeSource defines the network adjusted time source to use.  It is
	// only consulted by the historical v0.3 kernel stake modifier walk.
	//
	// This field is required.
	TimeSource MedianTimeSource

	// TxIndex locates the transactions staked coins spend.  It may be
	// nil, in which case proof-of-stake validation fails with
	// ErrTxIndexMissing.
	TxIndex TxIndexer

	// BlockFiles reads blocks back from disk at positions produced by
	// the transaction index.  Required when TxIndex is set.
	BlockFiles BlockFileReader

	// ScriptVerifier validates coinstake signature scripts.
	//
	// This field is required.
	ScriptVerifier ScriptVerifier

	// Rand is the entropy source for the modifier pre-sort shuffle.  A
	// nil value selects the operating system entropy source.
	Rand Rand

	// UseV03Kernel selects the historical v0.3 kernel stake modifier
	// walk instead of v0.5.  It exists for validating historical chains
	// and for test parity.
	UseV03Kernel bool

	// Logging configures the diagnostic logging switches.
	Logging KernelLogging
}

// Kernel provides the nowp proof-of-stake consensus kernel.  Its methods
// are pure functions of immutable block index snapshots and the consensus
// parameters, with the proof-of-work hash cache as the only shared mutable
// state, so a single instance is safe for concurrent use.
type Kernel struct {
	chainParams    *chaincfg.Params
	index          *BlockIndex
	bestChain      *ChainView
	powCache       *powcache.Cache
	timeSource     MedianTimeSource
	txIndex        TxIndexer
	blockFiles     BlockFileReader
	scriptVerifier ScriptVerifier
	rand           Rand
	useV03Kernel   bool
	logging        KernelLogging

	// Consensus durations in seconds, converted once from the chain
	// parameters.
	modifierInterval   int64
	stakeTargetSpacing int64
	powTargetSpacing   int64
	targetTimespan     int64
	stakeMinAge        int64
	stakeMaxAge        int64

	// selectionInterval is the total stake modifier selection interval,
	// which only depends on the chain parameters.
	selectionInterval int64
}

// New returns a Kernel instance using the provided configuration.
func New(config *Config) (*Kernel, error) {
	if config.ChainParams == nil {
		return nil, AssertError("blockchain.New chain parameters nil")
	}
	if config.PowCache == nil {
		return nil, AssertError("blockchain.New pow cache nil")
	}
	if config.TimeSource == nil {
		return nil, AssertError("blockchain.New time source nil")
	}
	if config.ScriptVerifier == nil {
		return nil, AssertError("blockchain.New script verifier nil")
	}

	randSource := config.Rand
	if randSource == nil {
		randSource = NewCryptoRand()
	}

	params := config.ChainParams
	k := &Kernel{
		chainParams:        params,
		index:              NewBlockIndex(),
		bestChain:          NewChainView(nil),
		powCache:           config.PowCache,
		timeSource:         config.TimeSource,
		txIndex:            config.TxIndex,
		blockFiles:         config.BlockFiles,
		scriptVerifier:     config.ScriptVerifier,
		rand:               randSource,
		useV03Kernel:       config.UseV03Kernel,
		logging:            config.Logging,
		modifierInterval:   int64(params.ModifierInterval.Seconds()),
		stakeTargetSpacing: int64(params.StakeTargetSpacing.Seconds()),
		powTargetSpacing:   int64(params.PowTargetSpacing.Seconds()),
		targetTimespan:     int64(params.TargetTimespan.Seconds()),
		stakeMinAge:        int64(params.StakeMinAge.Seconds()),
		stakeMaxAge:        int64(params.StakeMaxAge.Seconds()),
	}
	k.selectionInterval = k.stakeModifierSelectionInterval()
	return k, nil
}

// Index returns the block index the kernel operates on.
func (k *Kernel) Index() *BlockIndex {
	return k.index
}

// BestChain returns the active chain view the kernel operates on.
func (k *Kernel) BestChain() *ChainView {
	return k.bestChain
}

// ChainParams returns the chain parameters the kernel was configured with.
func (k *Kernel) ChainParams() *chaincfg.Params {
	return k.chainParams
}

// ConnectBlockNode creates a block node for the passed block, links it into
// the block index, computes its stake modifier state, and extends the best
// chain view when the block builds on the current tip.
//
// For proof-of-stake blocks the kernel hash the block's coinstake satisfied
// must be supplied; it is recorded on the node for stake modifier selection.
func (k *Kernel) ConnectBlockNode(block *wire.MsgBlock,
	hashProofOfStake *chainhash.Hash) (*BlockNode, error) {

	header := &block.Header
	var parent *BlockNode
	if header.PrevBlock != (chainhash.Hash{}) {
		parent = k.index.LookupNode(&header.PrevBlock)
		if parent == nil {
			str := fmt.Sprintf("previous block %v is not known",
				header.PrevBlock)
			return nil, ruleError(ErrNullBlockIndex, str)
		}
	}

	node := NewBlockNode(header, parent)
	node.Flags = 0
	if block.IsProofOfStake() {
		node.SetProofOfStake()
		if hashProofOfStake != nil {
			node.HashProofOfStake = *hashProofOfStake
		}
	}
	node.SetStakeEntropyBit(k.StakeEntropyBit(block))

	modifier, generated, err := k.ComputeNextStakeModifier(node)
	if err != nil {
		return nil, err
	}
	node.SetStakeModifier(modifier, generated)
	node.StakeModifierChecksum = StakeModifierChecksum(node)
	if !k.CheckStakeModifierCheckpoints(node.Height,
		node.StakeModifierChecksum) {

		str := fmt.Sprintf("block %v stake modifier checksum %08x "+
			"fails checkpoint at height %d", node.Hash,
			node.StakeModifierChecksum, node.Height)
		return nil, ruleError(ErrBadStakeModifierCheckpoint, str)
	}

	k.index.AddNode(node)
	if k.bestChain.Tip() == parent {
		k.bestChain.SetTip(node)
	}
	return node, nil
}

// AssertError identifies an error that indicates an internal code consistency
// issue and should be treated as a critical and unrecoverable error.
type AssertError string

// Error returns the assertion error as a human-readable string and satisfies
// the error interface.
func (e AssertError) Error() string {
	return "assertion failed: " + string(e)
}
