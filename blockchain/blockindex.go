// Copyright (c) 2015-2017 The btcsuite developers
// Copyright (c) 2023-2025 The Nowp developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"sync"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/nowputfinance/nowpd/wire"
)

// BlockNode represents a block within the block chain and is primarily used
// to aid in selecting the best chain to be the main chain and to drive the
// stake kernel.  The main chain is stored into the block database.
type BlockNode struct {
	// Parent is the parent block for this node.  It is nil for the
	// genesis block.  Parents are always at a strictly lower height, so
	// the graph is acyclic.
	Parent *BlockNode

	// Hash is the hash of the block this node represents.
	Hash chainhash.Hash

	// Height is the position in the block chain.
	Height int32

	// Some fields from block headers to aid in best chain selection and
	// reconstructing headers from memory.
	Version   int32
	Bits      uint32
	Timestamp int64

	// Flags carries the proof-of-stake bit, the cached entropy bit, and
	// whether this node generated a new stake modifier.  It mirrors the
	// header flags on disk.
	Flags uint32

	// StakeModifier is the stake modifier in effect as of this block.  It
	// must only be read when the BlockFlagStakeModifier flag is set.
	StakeModifier uint64

	// StakeModifierChecksum is the running checksum of the modifier chain
	// ending at this node.
	StakeModifierChecksum uint32

	// HashProofOfStake is the kernel hash this block's coinstake
	// satisfied.  It is the zero hash for proof-of-work blocks.
	HashProofOfStake chainhash.Hash
}

// NewBlockNode returns a new block node for the given block header, linking
// it to the passed parent.  The parent is nil for the genesis block.
func NewBlockNode(header *wire.BlockHeader, parent *BlockNode) *BlockNode {
	node := &BlockNode{
		Parent:    parent,
		Hash:      header.BlockHash(),
		Version:   header.Version,
		Bits:      header.Bits,
		Timestamp: header.Timestamp.Unix(),
		Flags:     header.Flags,
	}
	if parent != nil {
		node.Height = parent.Height + 1
	}
	return node
}

// IsProofOfStake returns whether the node represents a proof-of-stake block.
func (node *BlockNode) IsProofOfStake() bool {
	return node.Flags&wire.BlockFlagProofOfStake != 0
}

// GeneratedStakeModifier returns whether the node generated a new stake
// modifier.  The StakeModifier field must not be read unless this returns
// true.
func (node *BlockNode) GeneratedStakeModifier() bool {
	return node.Flags&wire.BlockFlagStakeModifier != 0
}

// StakeEntropyBit returns the entropy bit cached on the node.
func (node *BlockNode) StakeEntropyBit() uint32 {
	if node.Flags&wire.BlockFlagStakeEntropy != 0 {
		return 1
	}
	return 0
}

// SetStakeModifier records the passed stake modifier on the node and flags
// it as generated when generated is true.
func (node *BlockNode) SetStakeModifier(modifier uint64, generated bool) {
	node.StakeModifier = modifier
	node.Flags &^= wire.BlockFlagStakeModifier
	if generated {
		node.Flags |= wire.BlockFlagStakeModifier
	}
}

// SetStakeEntropyBit caches the passed entropy bit on the node.
func (node *BlockNode) SetStakeEntropyBit(bit uint32) {
	node.Flags &^= wire.BlockFlagStakeEntropy
	if bit != 0 {
		node.Flags |= wire.BlockFlagStakeEntropy
	}
}

// SetProofOfStake flags the node as proof-of-stake.
func (node *BlockNode) SetProofOfStake() {
	node.Flags |= wire.BlockFlagProofOfStake
}

// Ancestor returns the ancestor block node at the provided height by
// following the chain backwards from this node.  The returned block will be
// nil when a height is requested that is after the height of the passed node
// or is less than zero.
func (node *BlockNode) Ancestor(height int32) *BlockNode {
	if height < 0 || height > node.Height {
		return nil
	}

	n := node
	for n != nil && n.Height != height {
		n = n.Parent
	}
	return n
}

// BlockIndex provides facilities for keeping track of an in-memory index of
// the block chain.  It is the arena the kernel walks: nodes reference their
// parents directly and are looked up by hash.
type BlockIndex struct {
	mtx   sync.RWMutex
	index map[chainhash.Hash]*BlockNode
}

// NewBlockIndex returns a new empty instance of a block index.
func NewBlockIndex() *BlockIndex {
	return &BlockIndex{
		index: make(map[chainhash.Hash]*BlockNode),
	}
}

// HaveBlock returns whether or not the block index contains the provided
// hash.
//
// This function is safe for concurrent access.
func (bi *BlockIndex) HaveBlock(hash *chainhash.Hash) bool {
	bi.mtx.RLock()
	_, hasBlock := bi.index[*hash]
	bi.mtx.RUnlock()
	return hasBlock
}

// LookupNode returns the block node identified by the provided hash.  It
// will return nil if there is no entry for the hash.
//
// This function is safe for concurrent access.
func (bi *BlockIndex) LookupNode(hash *chainhash.Hash) *BlockNode {
	bi.mtx.RLock()
	node := bi.index[*hash]
	bi.mtx.RUnlock()
	return node
}

// AddNode adds the provided node to the block index.  Duplicate entries are
// not checked so it is up to the caller to avoid adding them.
//
// This function is safe for concurrent access.
func (bi *BlockIndex) AddNode(node *BlockNode) {
	bi.mtx.Lock()
	bi.index[node.Hash] = node
	bi.mtx.Unlock()
}
