// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2023-2025 The Nowp developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/nowputfinance/nowpd/wire"
)

// HashToBig converts a chainhash.Hash into a big.Int that can be used to
// perform math comparisons.
func HashToBig(hash *chainhash.Hash) *big.Int {
	// A Hash is in little-endian, but the big package wants the bytes in
	// big-endian, so reverse them.
	buf := *hash
	blen := len(buf)
	for i := 0; i < blen/2; i++ {
		buf[i], buf[blen-1-i] = buf[blen-1-i], buf[i]
	}

	return new(big.Int).SetBytes(buf[:])
}

// CompactToBig converts a compact representation of a whole number N to a
// big integer.  The representation is similar to IEEE754 floating point
// numbers.
//
// Like IEEE754 floating point, there are three basic components: the sign,
// the exponent, and the mantissa.  They are broken out of the 32-bit number
// as follows:
//
//   - the most significant 8 bits represent the unsigned base 256 exponent
//   - bit 23 (the 24th bit) represents the sign bit
//   - the least significant 23 bits represent the mantissa
//
// The formula to calculate N is:
//
//	N = (-1^sign) * mantissa * 256^(exponent-3)
//
// This compact form is only used to encode unsigned 256-bit numbers which
// represent difficulty targets, thus there really is not a sign bit, but it
// is implemented here since it is part of the encoding.
func CompactToBig(compact uint32) *big.Int {
	// Extract the mantissa, sign bit, and exponent.
	mantissa := compact & 0x007fffff
	isNegative := compact&0x00800000 != 0
	exponent := uint(compact >> 24)

	// Since the base for the exponent is 256, the exponent can be treated
	// as the number of bytes to represent the full 256-bit number.  So,
	// treat the exponent as the number of bytes and shift the mantissa
	// right or left accordingly.  This is equivalent to:
	// N = mantissa * 256^(exponent-3)
	var bn *big.Int
	if exponent <= 3 {
		mantissa >>= 8 * (3 - exponent)
		bn = big.NewInt(int64(mantissa))
	} else {
		bn = big.NewInt(int64(mantissa))
		bn.Lsh(bn, 8*(exponent-3))
	}

	// Make it negative if the sign bit is set.
	if isNegative {
		bn = bn.Neg(bn)
	}

	return bn
}

// BigToCompact converts a whole number N to a compact representation using
// an unsigned 32-bit number.  The compact representation only provides 23
// bits of precision, so values larger than (2^23 - 1) only encode the most
// significant digits of the number.  See CompactToBig for details.
func BigToCompact(n *big.Int) uint32 {
	// No need to do any work if it's zero.
	if n.Sign() == 0 {
		return 0
	}

	// Since the base for the exponent is 256, the exponent can be treated
	// as the number of bytes.  So, shift the number right or left
	// accordingly.  This is equivalent to:
	// mantissa = mantissa / 256^(exponent-3)
	var mantissa uint32
	exponent := uint(len(n.Bytes()))
	if exponent <= 3 {
		mantissa = uint32(n.Bits()[0])
		mantissa <<= 8 * (3 - exponent)
	} else {
		// Use a copy to avoid modifying the caller's original number.
		tn := new(big.Int).Set(n)
		mantissa = uint32(tn.Rsh(tn, 8*(exponent-3)).Bits()[0])
	}

	// When the mantissa already has the sign bit set, the number is too
	// large to fit into the available 23-bits, so divide the number by
	// 256 and increment the exponent accordingly.
	if mantissa&0x00800000 != 0 {
		mantissa >>= 8
		exponent++
	}

	// Pack the exponent, sign bit, and mantissa into an unsigned 32-bit
	// int and return it.
	compact := uint32(exponent<<24) | mantissa
	if n.Sign() < 0 {
		compact |= 0x00800000
	}
	return compact
}

// compactToTarget decodes a compact difficulty encoding and additionally
// reports whether the encoding is negative or overflows 256 bits, mirroring
// the reference client semantics.  Either condition makes the target invalid
// for consensus.
func compactToTarget(compact uint32) (target *big.Int, negative bool, overflow bool) {
	mantissa := compact & 0x007fffff
	exponent := compact >> 24

	negative = mantissa != 0 && compact&0x00800000 != 0
	overflow = mantissa != 0 && ((exponent > 34) ||
		(mantissa > 0xff && exponent > 33) ||
		(mantissa > 0xffff && exponent > 32))

	return CompactToBig(compact), negative, overflow
}

// lastBlockIndex returns the most recent ancestor of the passed node,
// inclusive, whose proof kind matches proofOfStake.  When no such ancestor
// exists, the genesis node is returned regardless of its kind.
func lastBlockIndex(node *BlockNode, proofOfStake bool) *BlockNode {
	for node != nil && node.Parent != nil &&
		node.IsProofOfStake() != proofOfStake {

		node = node.Parent
	}
	return node
}

// posDGWEnabled returns whether enough proof-of-stake blocks exist for the
// DarkGravityWave retarget to operate on the proof-of-stake chain.
func (k *Kernel) posDGWEnabled(node *BlockNode) bool {
	needed := k.chainParams.DGWBlocksAvg + 1
	count := int32(0)
	for ; node != nil; node = node.Parent {
		if !node.IsProofOfStake() {
			continue
		}
		count++
		if count >= needed {
			return true
		}
	}
	return false
}

// darkGravityWave calculates the required difficulty as a moving weighted
// average of the targets of the last DGWBlocksAvg blocks of the requested
// kind, scaled by the ratio of the observed to the desired timespan.  The
// averaging runs in 512-bit arithmetic so no precision is lost before the
// final truncation.
func (k *Kernel) darkGravityWave(lastNode *BlockNode, proofOfStake bool) uint32 {
	params := k.chainParams
	pastBlocks := params.DGWBlocksAvg

	// Not enough history; just return the limit.
	if lastNode == nil || lastNode.Height < pastBlocks {
		return BigToCompact(params.PowLimit)
	}

	var pastTargetAvg uint512
	node := lastNode
	for countBlocks := int32(1); countBlocks <= pastBlocks; countBlocks++ {
		var target uint512
		target.setBig(CompactToBig(node.Bits))
		if countBlocks == 1 {
			pastTargetAvg = target
		} else {
			// A running weighted average rather than a true mean,
			// inherited from DarkGravity v3.
			pastTargetAvg.mulScalar(uint64(countBlocks))
			pastTargetAvg.add(&target)
			pastTargetAvg.divScalar(uint64(countBlocks) + 1)
		}

		if countBlocks != pastBlocks {
			prev := node.Parent
			for prev != nil && prev.IsProofOfStake() != proofOfStake {
				prev = prev.Parent
			}
			if prev == nil {
				return BigToCompact(params.PowLimit)
			}
			node = prev
		}
	}

	// The observed timespan spans one gap per averaged block, so the
	// endpoint is one same-kind ancestor past the last averaged block.
	oldest := node
	if prev := node.Parent; prev != nil {
		for prev != nil && prev.IsProofOfStake() != proofOfStake {
			prev = prev.Parent
		}
		if prev != nil {
			oldest = prev
		}
	}

	actualTimespan := lastNode.Timestamp - oldest.Timestamp
	targetTimespan := int64(pastBlocks)
	if proofOfStake {
		targetTimespan *= k.stakeTargetSpacing
	} else {
		targetTimespan *= k.powTargetSpacing
	}
	// Once proof-of-stake is active, per-kind spacing is doubled so the
	// two kinds together keep the overall block rate (with one-minute
	// spacings: 720 PoW and 720 PoS blocks a day).
	if lastNode.Height > params.PoSActivationHeight {
		targetTimespan *= 2
	}

	if actualTimespan < targetTimespan/3 {
		actualTimespan = targetTimespan / 3
	}
	if actualTimespan > targetTimespan*3 {
		actualTimespan = targetTimespan * 3
	}

	// Retarget.
	newTarget := pastTargetAvg
	newTarget.mulScalar(uint64(actualTimespan))
	newTarget.divScalar(uint64(targetTimespan))

	return BigToCompact(newTarget.trim256(params.PowLimit))
}

// CalcNextRequiredDifficulty calculates the required difficulty for the
// block after the passed previous block node for a block of the requested
// proof kind.
//
// Both chains retarget every block with an exponential move toward the
// target spacing until the DarkGravityWave activation point for the kind is
// reached, after which the moving average retarget takes over.
func (k *Kernel) CalcNextRequiredDifficulty(prevNode *BlockNode, proofOfStake bool) uint32 {
	params := k.chainParams

	// Genesis block.
	if prevNode == nil {
		return BigToCompact(params.PowLimit)
	}

	lastNode := lastBlockIndex(prevNode, proofOfStake)
	if lastNode.Parent == nil {
		// First block of the kind.
		return BigToCompact(params.InitialHashTarget)
	}
	priorNode := lastBlockIndex(lastNode.Parent, proofOfStake)
	if priorNode.Parent == nil {
		// Second block of the kind.
		return BigToCompact(params.InitialHashTarget)
	}

	actualSpacing := lastNode.Timestamp - priorNode.Timestamp

	// When no proof-of-work block has arrived for longer than the
	// observed spacing, let the network see that by retargeting against
	// the hypothetical spacing instead (rfc20).
	if !proofOfStake {
		hypotheticalSpacing := prevNode.Timestamp - lastNode.Timestamp
		if hypotheticalSpacing > actualSpacing {
			actualSpacing = hypotheticalSpacing
		}
	}

	// Difficulty is fixed on networks without retargeting, such as
	// regtest.
	if params.PoWNoRetargeting {
		return lastNode.Bits
	}

	// The moving average retarget needs enough same-kind history before
	// it can take over.
	useDGW := false
	if proofOfStake {
		useDGW = k.posDGWEnabled(lastNode)
	} else {
		useDGW = prevNode.Height+1 >= params.PowDGWHeight
	}
	if useDGW {
		return k.darkGravityWave(lastNode, proofOfStake)
	}

	// Retarget every block with an exponential move toward the target
	// spacing.
	var targetSpacing int64
	if proofOfStake {
		targetSpacing = k.stakeTargetSpacing
		if lastNode.Height > params.PoSActivationHeight {
			targetSpacing *= 2
		}
	} else {
		targetSpacing = k.powTargetSpacing
	}
	interval := k.targetTimespan / targetSpacing

	newTarget := CompactToBig(lastNode.Bits)
	newTarget.Mul(newTarget, big.NewInt((interval-1)*targetSpacing+
		2*actualSpacing))
	newTarget.Div(newTarget, big.NewInt((interval+1)*targetSpacing))

	if newTarget.Cmp(params.PowLimit) > 0 {
		newTarget = params.PowLimit
	}

	return BigToCompact(newTarget)
}

// CheckProofOfWork checks whether the passed proof-of-work hash satisfies
// the target difficulty represented by bits in the context of the passed
// proof-of-work limit.  An error is returned when the compact encoding is
// invalid or the hash is higher than the target.
func CheckProofOfWork(powHash *chainhash.Hash, bits uint32, powLimit *big.Int) error {
	target, negative, overflow := compactToTarget(bits)
	if negative || overflow || target.Sign() <= 0 {
		str := fmt.Sprintf("block target difficulty %08x is invalid", bits)
		return ruleError(ErrCompactEncodingInvalid, str)
	}
	if target.Cmp(powLimit) > 0 {
		str := fmt.Sprintf("block target difficulty of %064x is "+
			"higher than max of %064x", target, powLimit)
		return ruleError(ErrUnexpectedDifficulty, str)
	}

	if HashToBig(powHash).Cmp(target) > 0 {
		str := fmt.Sprintf("block hash of %064x is higher than "+
			"expected max of %064x", HashToBig(powHash), target)
		return ruleError(ErrHighHash, str)
	}

	return nil
}

// PowHash returns the proof-of-work hash of the passed header, consulting
// the pow cache when readCache is true.  In validation mode the cached value
// is recomputed and corrected on mismatch; a correction means the cache was
// corrupted.
func (k *Kernel) PowHash(header *wire.BlockHeader, readCache bool) chainhash.Hash {
	headerHash := header.BlockHash()

	var powHash chainhash.Hash
	var found bool
	if readCache {
		powHash, found = k.powCache.Get(&headerHash)
	}

	// The expensive computation happens outside the cache lock.
	if !found || k.powCache.Validate() {
		computed := header.PowHash()
		if found && computed != powHash {
			log.Errorf("PowCache failure: headerHash: %v, from "+
				"cache: %v, computed: %v, correcting", headerHash,
				powHash, computed)
		}
		powHash = computed
		k.powCache.Insert(&headerHash, &computed)
	}
	return powHash
}

// CheckPOW checks that a proof-of-work block carries a valid proof.  It is a
// no-op for proof-of-stake blocks.  When the cached proof-of-work hash does
// not satisfy the claimed difficulty, the check is retried with the cache
// bypassed in case the cache was corrupted.
func (k *Kernel) CheckPOW(block *wire.MsgBlock) error {
	if block.IsProofOfStake() {
		return nil
	}

	powHash := k.PowHash(&block.Header, true)
	err := CheckProofOfWork(&powHash, block.Header.Bits, k.chainParams.PowLimit)
	if err == nil {
		return nil
	}

	log.Infof("CheckPOW: proof of work failed for %v, retesting without "+
		"pow cache", block.BlockHash())

	// Retest without the pow cache in case the cache was corrupted; the
	// recomputation overwrites the corrupt entry.
	powHash = k.PowHash(&block.Header, false)
	return CheckProofOfWork(&powHash, block.Header.Bits, k.chainParams.PowLimit)
}
