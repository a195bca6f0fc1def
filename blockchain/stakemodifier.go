// Copyright (c) 2023-2025 The Nowp developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// ModifierIntervalRatio is the ratio of the selection section length
// between the last section and the first section of the selection interval.
const ModifierIntervalRatio = 3

// stakeModifierSelectionIntervalSection returns the length in seconds of the
// passed selection interval section.  The section must be in [0, 64).
func (k *Kernel) stakeModifierSelectionIntervalSection(section int) int64 {
	return k.modifierInterval * 63 /
		(63 + int64(63-section)*(ModifierIntervalRatio-1))
}

// stakeModifierSelectionInterval returns the total stake modifier selection
// interval in seconds.
func (k *Kernel) stakeModifierSelectionInterval() int64 {
	var selectionInterval int64
	for section := 0; section < 64; section++ {
		selectionInterval += k.stakeModifierSelectionIntervalSection(section)
	}
	return selectionInterval
}

// lastStakeModifier returns the most recent stake modifier generated at or
// before the passed node along with its generation block time.
func lastStakeModifier(node *BlockNode) (uint64, int64, error) {
	if node == nil {
		return 0, 0, ruleError(ErrNullBlockIndex,
			"last stake modifier requested for nil block index")
	}
	for node.Parent != nil && !node.GeneratedStakeModifier() {
		node = node.Parent
	}
	if !node.GeneratedStakeModifier() {
		return 0, 0, ruleError(ErrNoGeneratingAncestor,
			"no stake modifier generated at genesis block")
	}
	return node.StakeModifier, node.Timestamp, nil
}

// candidate pairs a block time with a block hash during stake modifier
// selection.
type candidate struct {
	timestamp int64
	hash      chainhash.Hash
}

// hashNumLess compares two hashes interpreted as 256-bit unsigned integers
// and returns whether a is numerically smaller than b.
func hashNumLess(a, b *chainhash.Hash) bool {
	// Hashes are little endian, so walk from the most significant byte
	// down.
	for i := chainhash.HashSize - 1; i >= 0; i-- {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// sortCandidates orders the candidate set for stake modifier selection.  An
// in-place partial shuffle (positions from the last down to the third, each
// swapped with a lower position) precedes the sort, mirroring the reference
// implementation; the comparator is a strict
// total order over (timestamp, hash as a 256-bit integer), so the final
// ordering is a pure function of the candidate set regardless of the
// shuffle.
func (k *Kernel) sortCandidates(candidates []candidate) {
	for i := len(candidates) - 1; i > 1; i-- {
		j := k.rand.Below(uint64(i))
		candidates[i], candidates[j] = candidates[j], candidates[i]
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].timestamp != candidates[j].timestamp {
			return candidates[i].timestamp < candidates[j].timestamp
		}
		return hashNumLess(&candidates[i].hash, &candidates[j].hash)
	})
}

// selectionHash computes the hash that ranks a candidate block within a
// selection round.  The hash binds the block's proof hash to the previous
// stake modifier, and is shifted right by 32 bits for proof-of-stake blocks
// so they are always favored over proof-of-work blocks.  This preserves the
// energy efficiency property.
func selectionHash(node *BlockNode, prevModifier uint64) *big.Int {
	proofHash := node.Hash
	if node.IsProofOfStake() {
		proofHash = node.HashProofOfStake
	}

	var buf [chainhash.HashSize + 8]byte
	copy(buf[:], proofHash[:])
	binary.LittleEndian.PutUint64(buf[chainhash.HashSize:], prevModifier)
	hash := chainhash.DoubleHashH(buf[:])

	hashSelection := HashToBig(&hash)
	if node.IsProofOfStake() {
		hashSelection.Rsh(hashSelection, 32)
	}
	return hashSelection
}

// selectBlockFromCandidates selects a block from the ordered candidate set,
// excluding blocks already selected in earlier rounds, with timestamps up to
// selectionIntervalStop.  The stop time only ends the scan once a block has
// been selected, so the first unselected candidate always competes even when
// its timestamp is past the stop.
func (k *Kernel) selectBlockFromCandidates(candidates []candidate,
	selectedBlocks map[chainhash.Hash]*BlockNode,
	selectionIntervalStop int64, prevModifier uint64) (*BlockNode, error) {

	var selected *BlockNode
	var hashBest *big.Int
	for i := range candidates {
		node := k.index.LookupNode(&candidates[i].hash)
		if node == nil {
			str := fmt.Sprintf("failed to find block index for "+
				"candidate block %v", candidates[i].hash)
			return nil, ruleError(ErrNullBlockIndex, str)
		}

		if selected != nil && node.Timestamp > selectionIntervalStop {
			break
		}
		if _, ok := selectedBlocks[node.Hash]; ok {
			continue
		}

		hashSelection := selectionHash(node, prevModifier)
		if selected == nil || hashSelection.Cmp(hashBest) < 0 {
			selected = node
			hashBest = hashSelection
		}
	}

	if selected == nil {
		return nil, ruleError(ErrNoCandidateBlocks,
			"no candidate blocks available for selection round")
	}
	if k.logging.Debug && k.logging.PrintStakeModifier {
		log.Debugf("SelectBlockFromCandidates: selection hash=%064x",
			hashBest)
	}
	return selected, nil
}

// ComputeNextStakeModifier computes a new stake modifier when the block
// identified by the passed node crosses into a new modifier interval, and
// reports whether a new modifier was generated.  When the interval is not
// yet complete the previous modifier is returned unchanged with generated
// set to false.
//
// The purpose of the stake modifier is to prevent a txout (coin) owner from
// computing future proof-of-stake generated by this txout at the time of
// transaction confirmation.  To meet kernel protocol, the txout must hash
// with a future stake modifier to generate the proof.  The modifier consists
// of 64 bits, each contributed by the entropy bit of a block selected from a
// given section of the past selection interval.  The selection of each block
// is based on a hash of the block's proof-hash and the previous stake
// modifier, and the modifier is recomputed at a fixed time interval instead
// of every block so it is difficult for an attacker to gain control of
// additional bits, even after generating a chain of blocks.
func (k *Kernel) ComputeNextStakeModifier(cur *BlockNode) (uint64, bool, error) {
	if cur == nil {
		return 0, false, ruleError(ErrNullBlockIndex,
			"stake modifier requested for nil block index")
	}

	prev := cur.Parent
	if prev == nil {
		// Genesis block's modifier is 0.
		return 0, true, nil
	}

	// First find the current stake modifier and its generation block
	// time.  If it is not old enough, return the same stake modifier.
	prevModifier, prevModTime, err := lastStakeModifier(prev)
	if err != nil {
		return 0, false, err
	}
	if k.logging.Debug {
		log.Debugf("ComputeNextStakeModifier: prev modifier=0x%016x "+
			"time=%v", prevModifier, time.Unix(prevModTime, 0).UTC())
	}
	if prevModTime/k.modifierInterval >= prev.Timestamp/k.modifierInterval {
		if k.logging.Debug {
			log.Debugf("ComputeNextStakeModifier: no new interval "+
				"keep current modifier: prev height=%d time=%d",
				prev.Height, prev.Timestamp)
		}
		return prevModifier, false, nil
	}
	if prevModTime/k.modifierInterval >= cur.Timestamp/k.modifierInterval {
		if k.logging.Debug {
			log.Debugf("ComputeNextStakeModifier: no new interval "+
				"keep current modifier: current height=%d time=%d",
				cur.Height, cur.Timestamp)
		}
		return prevModifier, false, nil
	}

	// Gather all blocks within the selection interval ending at the
	// boundary of the interval the previous block falls in.
	selectionIntervalStart := (prev.Timestamp/k.modifierInterval)*
		k.modifierInterval - k.selectionInterval
	candidates := make([]candidate, 0,
		64*k.modifierInterval/k.stakeTargetSpacing)
	node := prev
	for node != nil && node.Timestamp >= selectionIntervalStart {
		candidates = append(candidates, candidate{
			timestamp: node.Timestamp,
			hash:      node.Hash,
		})
		node = node.Parent
	}
	heightFirstCandidate := int32(0)
	if node != nil {
		heightFirstCandidate = node.Height + 1
	}

	k.sortCandidates(candidates)

	// Select 64 blocks from the candidates to generate the new stake
	// modifier.
	rounds := 64
	if len(candidates) < rounds {
		rounds = len(candidates)
	}
	var newModifier uint64
	selectionIntervalStop := selectionIntervalStart
	selectedBlocks := make(map[chainhash.Hash]*BlockNode, rounds)
	for round := 0; round < rounds; round++ {
		// Add an interval section to the current selection round.
		selectionIntervalStop += k.stakeModifierSelectionIntervalSection(round)

		selected, err := k.selectBlockFromCandidates(candidates,
			selectedBlocks, selectionIntervalStop, prevModifier)
		if err != nil {
			log.Debugf("ComputeNextStakeModifier: unable to select "+
				"block at round %d: %v", round, err)
			return 0, false, err
		}

		// Write the entropy bit of the selected block.
		newModifier |= uint64(selected.StakeEntropyBit()) << uint(round)
		selectedBlocks[selected.Hash] = selected

		if k.logging.Debug && k.logging.PrintStakeModifier {
			log.Debugf("ComputeNextStakeModifier: selected round "+
				"%d stop=%v height=%d bit=%d", round,
				time.Unix(selectionIntervalStop, 0).UTC(),
				selected.Height, selected.StakeEntropyBit())
		}
	}

	if k.logging.Debug && k.logging.PrintStakeModifier {
		log.Debugf("ComputeNextStakeModifier: selection height [%d, %d]"+
			" map %s", heightFirstCandidate, prev.Height,
			selectionMap(prev, heightFirstCandidate, selectedBlocks))
	}
	if k.logging.Debug {
		log.Debugf("ComputeNextStakeModifier: new modifier=0x%016x "+
			"time=%v", newModifier, time.Unix(prev.Timestamp, 0).UTC())
	}

	return newModifier, true, nil
}

// selectionMap renders the selected blocks for visualization: '-' marks
// proof-of-work blocks not selected, '=' proof-of-stake blocks not selected,
// 'W' and 'S' their selected counterparts.
func selectionMap(prev *BlockNode, heightFirstCandidate int32,
	selectedBlocks map[chainhash.Hash]*BlockNode) string {

	row := make([]byte, prev.Height-heightFirstCandidate+1)
	for i := range row {
		row[i] = '-'
	}
	for node := prev; node != nil && node.Height >= heightFirstCandidate; node = node.Parent {
		if node.IsProofOfStake() {
			row[node.Height-heightFirstCandidate] = '='
		}
	}
	for _, node := range selectedBlocks {
		if node.Height < heightFirstCandidate {
			continue
		}
		if node.IsProofOfStake() {
			row[node.Height-heightFirstCandidate] = 'S'
		} else {
			row[node.Height-heightFirstCandidate] = 'W'
		}
	}
	return string(row)
}

// StakeModifierChecksum computes the running checksum of the stake modifier
// chain ending at the passed node.  The checksum hashes the parent checksum
// together with the node's flags, kernel proof hash and stake modifier, and
// keeps the top 32 bits.
func StakeModifierChecksum(node *BlockNode) uint32 {
	var buf bytes.Buffer
	if node.Parent != nil {
		var scratch [4]byte
		binary.LittleEndian.PutUint32(scratch[:],
			node.Parent.StakeModifierChecksum)
		buf.Write(scratch[:])
	}
	var scratch [4]byte
	binary.LittleEndian.PutUint32(scratch[:], node.Flags)
	buf.Write(scratch[:])
	buf.Write(node.HashProofOfStake[:])
	var scratch8 [8]byte
	binary.LittleEndian.PutUint64(scratch8[:], node.StakeModifier)
	buf.Write(scratch8[:])

	hash := chainhash.DoubleHashH(buf.Bytes())
	return binary.LittleEndian.Uint32(hash[chainhash.HashSize-4:])
}

// CheckStakeModifierCheckpoints returns whether the passed checksum matches
// the hard checkpoint for the given height.  Heights with no checkpoint
// entry always pass.
func (k *Kernel) CheckStakeModifierCheckpoints(height int32, checksum uint32) bool {
	expected, ok := k.chainParams.StakeModifierCheckpoints[height]
	if !ok {
		return true
	}
	return checksum == expected
}
