// Copyright (c) 2023-2025 The Nowp developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"encoding/binary"
	"fmt"
	"math/big"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/nowputfinance/nowpd/wire"
)

// secondsPerDay is the number of seconds per coin-day of stake weight.
const secondsPerDay = 24 * 60 * 60

// kernelStakeModifierV05 locates the stake modifier to hash for a stake
// kernel under the v0.5 protocol: the most recent modifier that is at least
// (StakeMinAge minus a selection interval) older than the kernel timestamp,
// and thus at least a selection interval later than the coin generating the
// kernel.
func (k *Kernel) kernelStakeModifierV05(prevNode *BlockNode,
	timeTx uint32) (uint64, int32, int64, error) {

	if prevNode == nil {
		return 0, 0, 0, ruleError(ErrNullBlockIndex,
			"kernel stake modifier requested for nil block index")
	}

	node := prevNode
	modifierHeight := node.Height
	modifierTime := node.Timestamp

	if modifierTime+k.stakeMinAge-k.selectionInterval <= int64(timeTx) {
		// The best block is still more than (StakeMinAge minus a
		// selection interval) older than the kernel timestamp, so the
		// modifier the protocol calls for has not been generated yet.
		str := fmt.Sprintf("best block %v at height %d too old for "+
			"stake", node.Hash, node.Height)
		if k.logging.Debug {
			log.Debugf("GetKernelStakeModifier: %s", str)
		}
		return 0, 0, 0, ruleError(ErrStakeModifierUnavailable, str)
	}

	// Walk backwards to the modifier earlier by (StakeMinAge minus a
	// selection interval).
	for modifierTime+k.stakeMinAge-k.selectionInterval > int64(timeTx) {
		if node.Parent == nil {
			// Reached genesis block; should not happen.
			return 0, 0, 0, ruleError(ErrNoGeneratingAncestor,
				"kernel stake modifier walk reached genesis block")
		}
		node = node.Parent
		if node.GeneratedStakeModifier() {
			modifierHeight = node.Height
			modifierTime = node.Timestamp
		}
	}

	modifier, _, err := lastStakeModifier(node)
	if err != nil {
		return 0, 0, 0, err
	}
	return modifier, modifierHeight, modifierTime, nil
}

// kernelStakeModifierV03 locates the stake modifier to hash for a stake
// kernel under the historical v0.3 protocol: the first modifier generated
// after a selection interval has passed since the block containing the
// staked coin.  The forward walk prefers the active chain but honors a
// temporary side-chain path when prevNode is not on the active chain.
func (k *Kernel) kernelStakeModifierV03(prevNode *BlockNode,
	hashBlockFrom *chainhash.Hash) (uint64, int32, int64, error) {

	if prevNode == nil {
		return 0, 0, 0, ruleError(ErrNullBlockIndex,
			"kernel stake modifier requested for nil block index")
	}
	from := k.index.LookupNode(hashBlockFrom)
	if from == nil {
		str := fmt.Sprintf("block %v not indexed", hashBlockFrom)
		return 0, 0, 0, ruleError(ErrNullBlockIndex, str)
	}

	modifierHeight := from.Height
	modifierTime := from.Timestamp

	// The walk cannot rely on the active chain successor alone because
	// prevNode may sit on a side chain.  Construct the temporary chain of
	// side-chain nodes from prevNode down to the fork point and follow it
	// once the walk passes the fork.
	var tmpChain []*BlockNode
	depth := prevNode.Height - (from.Height - 1)
	for it, i := prevNode, int32(1); i <= depth && it != nil &&
		!k.bestChain.Contains(it); i++ {
		tmpChain = append(tmpChain, it)
		it = it.Parent
	}
	for i, j := 0, len(tmpChain)-1; i < j; i, j = i+1, j-1 {
		tmpChain[i], tmpChain[j] = tmpChain[j], tmpChain[i]
	}

	next := 0
	node := from
	for modifierTime < from.Timestamp+k.selectionInterval {
		var successor *BlockNode
		if len(tmpChain) > 0 && node.Height >= tmpChain[0].Height-1 {
			if next < len(tmpChain) {
				successor = tmpChain[next]
				next++
			}
		} else {
			successor = k.bestChain.Next(node)
		}
		if successor == nil {
			// Reached the best block; this may happen if the node
			// is behind on the block chain.
			str := fmt.Sprintf("reached best block %v at height "+
				"%d from block %v", node.Hash, node.Height,
				hashBlockFrom)
			usable := node.Timestamp+k.stakeMinAge-
				k.selectionInterval > k.timeSource.AdjustedTime().Unix()
			if k.logging.Debug || usable {
				log.Debugf("GetKernelStakeModifier: %s", str)
			}
			return 0, 0, 0, ruleError(ErrStakeModifierUnavailable, str)
		}
		node = successor
		if node.GeneratedStakeModifier() {
			modifierHeight = node.Height
			modifierTime = node.Timestamp
		}
	}

	modifier, _, err := lastStakeModifier(node)
	if err != nil {
		return 0, 0, 0, err
	}
	return modifier, modifierHeight, modifierTime, nil
}

// kernelStakeModifier returns the stake modifier specified by the protocol
// to hash for a stake kernel.
func (k *Kernel) kernelStakeModifier(prevNode *BlockNode,
	hashBlockFrom *chainhash.Hash, timeTx uint32) (uint64, int32, int64, error) {

	if k.useV03Kernel {
		return k.kernelStakeModifierV03(prevNode, hashBlockFrom)
	}
	return k.kernelStakeModifierV05(prevNode, timeTx)
}

// CheckStakeKernelHash checks whether a coinstake kernel meets the hash
// target protocol:
//
//	hash(nStakeModifier + txPrev.block.nTime + txPrev.offset +
//	     txPrev.nTime + txPrev.vout.n + nTime) <= bnTarget * nCoinDayWeight
//
// which ensures the chance of minting a proof-of-stake block is proportional
// to the amount of coin age consumed.  The stake modifier scrambles the
// computation so future proofs cannot be precomputed at the time the staked
// coin confirms, while the remaining fields reduce the chance of distinct
// nodes generating an identical kernel at the same time.  Block and
// transaction hashes are deliberately absent: they can be ground in vast
// quantities, which would degrade the system back into proof-of-work.
//
// The computed kernel hash is returned even when the check fails so callers
// can surface it for diagnostics.
func (k *Kernel) CheckStakeKernelHash(bits uint32, prevNode *BlockNode,
	blockFrom *wire.BlockHeader, txPrevOffset uint32, txPrev *wire.MsgTx,
	prevout *wire.OutPoint, timeTx uint32) (chainhash.Hash, error) {

	var zeroHash chainhash.Hash

	timeBlockFrom := uint32(blockFrom.Timestamp.Unix())
	timeTxPrev := txPrev.Time
	if timeTxPrev == 0 {
		timeTxPrev = timeBlockFrom
	}

	if timeTx < timeTxPrev {
		// Transaction timestamp violation.
		return zeroHash, ruleError(ErrNtimeViolation,
			"coinstake timestamp is earlier than its kernel")
	}
	if int64(timeBlockFrom)+k.stakeMinAge > int64(timeTx) {
		// Min age requirement.
		return zeroHash, ruleError(ErrMinAgeViolation,
			"staked coin does not meet minimum age")
	}

	targetPerCoinDay, negative, overflow := compactToTarget(bits)
	if negative || overflow || targetPerCoinDay.Sign() <= 0 {
		str := fmt.Sprintf("stake target difficulty %08x is invalid", bits)
		return zeroHash, ruleError(ErrCompactEncodingInvalid, str)
	}

	if prevout.Index >= uint32(len(txPrev.TxOut)) {
		str := fmt.Sprintf("output index %d of staked transaction out "+
			"of range", prevout.Index)
		return zeroHash, ruleError(ErrCheckKernelFailed, str)
	}
	valueIn := txPrev.TxOut[prevout.Index].Value

	// Kernel hash weight starts from 0 at the minimum age.  This
	// increases the number of active coins participating in the hash and
	// helps secure the network when proof-of-stake difficulty is low.
	// Near the boundary the weight may work out negative, which yields a
	// target no hash can meet.
	timeWeight := int64(timeTx) - int64(timeTxPrev)
	if timeWeight > k.stakeMaxAge {
		timeWeight = k.stakeMaxAge
	}
	timeWeight -= k.stakeMinAge

	coinDayWeight := new(big.Int).Mul(big.NewInt(valueIn),
		big.NewInt(timeWeight))
	coinDayWeight.Quo(coinDayWeight, big.NewInt(btcutil.SatoshiPerBitcoin))
	coinDayWeight.Quo(coinDayWeight, big.NewInt(secondsPerDay))

	hashBlockFrom := blockFrom.BlockHash()
	modifier, modifierHeight, modifierTime, err :=
		k.kernelStakeModifier(prevNode, &hashBlockFrom, timeTx)
	if err != nil {
		return zeroHash, err
	}

	// Calculate the kernel hash.
	var buf [28]byte
	binary.LittleEndian.PutUint64(buf[0:], modifier)
	binary.LittleEndian.PutUint32(buf[8:], timeBlockFrom)
	binary.LittleEndian.PutUint32(buf[12:], txPrevOffset)
	binary.LittleEndian.PutUint32(buf[16:], timeTxPrev)
	binary.LittleEndian.PutUint32(buf[20:], prevout.Index)
	binary.LittleEndian.PutUint32(buf[24:], timeTx)
	hashProofOfStake := chainhash.DoubleHashH(buf[:])

	if k.logging.Debug {
		log.Debugf("CheckStakeKernelHash: using modifier 0x%016x at "+
			"height=%d timestamp=%v for block from timestamp=%v",
			modifier, modifierHeight,
			time.Unix(modifierTime, 0).UTC(),
			blockFrom.Timestamp.UTC())
		log.Debugf("CheckStakeKernelHash: check modifier=0x%016x "+
			"nTimeBlockFrom=%d nTxPrevOffset=%d nTimeTxPrev=%d "+
			"nPrevout=%d nTimeTx=%d hashProof=%v", modifier,
			timeBlockFrom, txPrevOffset, timeTxPrev, prevout.Index,
			timeTx, hashProofOfStake)
	}

	// Now check if the proof-of-stake hash meets the target protocol.
	target := new(big.Int).Mul(coinDayWeight, targetPerCoinDay)
	if HashToBig(&hashProofOfStake).Cmp(target) > 0 {
		return hashProofOfStake, ruleError(ErrCheckKernelFailed,
			"kernel hash does not meet coin day weighted target")
	}

	return hashProofOfStake, nil
}

// CheckCoinStakeTimestamp returns whether a coinstake transaction timestamp
// meets protocol: it must equal the timestamp of its block.
func CheckCoinStakeTimestamp(timeBlock, timeTx int64) bool {
	return timeBlock == timeTx
}

// StakeEntropyBit returns the entropy bit the passed block contributes to a
// stake modifier if selected: the last bit of the block hash.
func (k *Kernel) StakeEntropyBit(block *wire.MsgBlock) uint32 {
	blockHash := block.BlockHash()
	entropyBit := uint32(blockHash[0]) & 1

	if k.logging.PrintStakeModifier {
		log.Debugf("StakeEntropyBit: nTime=%d hashBlock=%v entropybit=%d",
			block.Header.Timestamp.Unix(), blockHash, entropyBit)
	}
	return entropyBit
}

// HowSuperMajority counts the proof-of-stake ancestors of the passed start
// node, up to toCheck of them, whose version is at least minVersion.  The
// count stops early once required is reached.  Proof-of-work ancestors are
// skipped and do not consume window slots.  The walk is bounded so deeply
// proof-of-work-heavy side chains cannot stall validation.
func HowSuperMajority(minVersion int32, start *BlockNode, required,
	toCheck uint32) uint32 {

	// Cap the total ancestors visited, counting skipped blocks.
	maxDepth := toCheck * 4

	var found, checked, depth uint32
	for node := start; checked < toCheck && found < required &&
		node != nil; node = node.Parent {

		depth++
		if depth > maxDepth {
			break
		}
		if !node.IsProofOfStake() {
			continue
		}
		if node.Version >= minVersion {
			found++
		}
		checked++
	}
	return found
}

// IsSuperMajority returns whether at least required of the last toCheck
// proof-of-stake ancestors of the passed start node have a version of at
// least minVersion.
func IsSuperMajority(minVersion int32, start *BlockNode, required,
	toCheck uint32) bool {

	return HowSuperMajority(minVersion, start, required, toCheck) >= required
}

// IsBTC16BIPsEnabled returns whether the BIPs adopted from bitcoin 0.16.x
// are active for a transaction with the passed timestamp.
func (k *Kernel) IsBTC16BIPsEnabled(timeTx uint32) bool {
	return timeTx >= k.chainParams.BTC16BIPsSwitchTime
}
