// Copyright (c) 2017 The btcsuite developers
// Copyright (c) 2023-2025 The Nowp developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"sync"
)

// ChainView provides a flat view of a specific branch of the block chain
// from its tip back to the genesis block and provides various convenience
// functions for comparing chains.
type ChainView struct {
	mtx   sync.Mutex
	nodes []*BlockNode
}

// NewChainView returns a new chain view for the given tip block node.
// Passing nil as the tip will result in a chain view that is not initialized
// with any nodes.
func NewChainView(tip *BlockNode) *ChainView {
	var c ChainView
	c.setTip(tip)
	return &c
}

// setTip sets the chain view to use the provided block node as the current
// tip.  This function MUST be called with the view mutex locked (for
// writes), except during construction.
func (c *ChainView) setTip(node *BlockNode) {
	if node == nil {
		c.nodes = nil
		return
	}

	needed := node.Height + 1
	if int32(cap(c.nodes)) < needed {
		c.nodes = make([]*BlockNode, needed)
	} else {
		c.nodes = c.nodes[:needed]
	}

	for node != nil {
		c.nodes[node.Height] = node
		node = node.Parent
	}
}

// SetTip sets the chain view to use the provided block node as the current
// tip and ensures the view is consistent by populating it with the nodes
// obtained by walking backwards all the way to genesis.
//
// This function is safe for concurrent access.
func (c *ChainView) SetTip(node *BlockNode) {
	c.mtx.Lock()
	c.setTip(node)
	c.mtx.Unlock()
}

// Tip returns the current tip block node for the chain view.  It will return
// nil if there is no tip.
//
// This function is safe for concurrent access.
func (c *ChainView) Tip() *BlockNode {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	if len(c.nodes) == 0 {
		return nil
	}
	return c.nodes[len(c.nodes)-1]
}

// Height returns the height of the tip of the chain view.  It will return
// -1 if there is no tip.
//
// This function is safe for concurrent access.
func (c *ChainView) Height() int32 {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return int32(len(c.nodes)) - 1
}

// NodeByHeight returns the block node at the specified height.  Nil will be
// returned if the height does not exist.
//
// This function is safe for concurrent access.
func (c *ChainView) NodeByHeight(height int32) *BlockNode {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	if height < 0 || height >= int32(len(c.nodes)) {
		return nil
	}
	return c.nodes[height]
}

// Contains returns whether or not the chain view contains the passed block
// node.
//
// This function is safe for concurrent access.
func (c *ChainView) Contains(node *BlockNode) bool {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	if node == nil || node.Height >= int32(len(c.nodes)) {
		return false
	}
	return c.nodes[node.Height] == node
}

// Next returns the successor to the provided node for the chain view.  It
// will return nil if there is no successor or the provided node is not part
// of the view.
//
// This function is safe for concurrent access.
func (c *ChainView) Next(node *BlockNode) *BlockNode {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	if node == nil || node.Height >= int32(len(c.nodes)) ||
		c.nodes[node.Height] != node {
		return nil
	}
	if node.Height+1 >= int32(len(c.nodes)) {
		return nil
	}
	return c.nodes[node.Height+1]
}
