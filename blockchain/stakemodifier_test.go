// Copyright (c) 2023-2025 The Nowp developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"sort"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/nowputfinance/nowpd/chaincfg"
)

// TestStakeModifierGenesis ensures the genesis block's modifier is zero and
// reported as generated.
func TestStakeModifierGenesis(t *testing.T) {
	k := newTestKernel(t, &chaincfg.MainNetParams)

	genesis := &BlockNode{
		Hash:      testBlockHash(0),
		Timestamp: testBaseTime,
	}
	modifier, generated, err := k.ComputeNextStakeModifier(genesis)
	if err != nil {
		t.Fatalf("ComputeNextStakeModifier: %v", err)
	}
	if modifier != 0 {
		t.Errorf("genesis modifier: got %016x, want 0", modifier)
	}
	if !generated {
		t.Errorf("genesis modifier not flagged as generated")
	}
}

// TestStakeModifierEpochSkip ensures blocks that do not cross a modifier
// interval boundary keep the previous modifier with generated unset.
func TestStakeModifierEpochSkip(t *testing.T) {
	k := newTestKernel(t, &chaincfg.MainNetParams)
	fc := newFakeChain(t, k)

	// Stay well within the first modifier interval.
	tip := fc.extendBy(10, 30, false, k.chainParams.PowLimitBits)

	cur := &BlockNode{
		Parent:    tip,
		Hash:      testBlockHash(tip.Height + 1),
		Height:    tip.Height + 1,
		Timestamp: tip.Timestamp + 30,
	}
	modifier, generated, err := k.ComputeNextStakeModifier(cur)
	if err != nil {
		t.Fatalf("ComputeNextStakeModifier: %v", err)
	}
	if generated {
		t.Fatalf("modifier generated inside an unfinished interval")
	}
	prevModifier, _, err := lastStakeModifier(tip)
	if err != nil {
		t.Fatalf("lastStakeModifier: %v", err)
	}
	if modifier != prevModifier {
		t.Errorf("epoch skip changed modifier: got %016x, want %016x",
			modifier, prevModifier)
	}
}

// TestStakeModifierDeterminism verifies the selected modifier is a pure
// function of the candidate set: different shuffle entropy must produce the
// identical modifier sequence, and the engine's shuffle-then-sort ordering
// must match a reference ordering that never shuffles.
func TestStakeModifierDeterminism(t *testing.T) {
	const numBlocks = 700
	const spacing = 500

	buildModifiers := func(seed uint64) []uint64 {
		k := newTestKernel(t, &chaincfg.MainNetParams)
		k.rand = &testRand{state: seed}
		fc := newFakeChain(t, k)

		var modifiers []uint64
		for i := 0; i < numBlocks; i++ {
			pos := (fc.tip.Height+1)%2 == 1
			node := fc.extend(fc.tip.Timestamp+spacing, pos,
				k.chainParams.PowLimitBits)
			if node.GeneratedStakeModifier() {
				modifiers = append(modifiers, node.StakeModifier)
			}
		}
		return modifiers
	}

	first := buildModifiers(1)
	second := buildModifiers(0xdeadbeef)
	if len(first) == 0 {
		t.Fatalf("no modifiers generated; synthetic chain too short")
	}
	if len(first) != len(second) {
		t.Fatalf("modifier count differs across shuffle seeds: %d vs %d",
			len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("modifier %d differs across shuffle seeds: "+
				"%016x vs %016x", i, first[i], second[i])
		}
	}
}

// TestSortCandidatesMatchesPureSort verifies the shuffle-then-sort ordering
// is identical to a plain stable sort of the unshuffled candidate set.
func TestSortCandidatesMatchesPureSort(t *testing.T) {
	k := newTestKernel(t, &chaincfg.MainNetParams)

	candidates := make([]candidate, 0, 257)
	for i := int32(0); i < 257; i++ {
		candidates = append(candidates, candidate{
			// Duplicate timestamps exercise the hash tiebreak.
			timestamp: testBaseTime + int64(i/2)*500,
			hash:      testBlockHash(i),
		})
	}

	reference := make([]candidate, len(candidates))
	copy(reference, candidates)
	sort.SliceStable(reference, func(i, j int) bool {
		if reference[i].timestamp != reference[j].timestamp {
			return reference[i].timestamp < reference[j].timestamp
		}
		return hashNumLess(&reference[i].hash, &reference[j].hash)
	})

	k.sortCandidates(candidates)
	for i := range candidates {
		if candidates[i] != reference[i] {
			t.Fatalf("ordering diverges from pure sort at index %d",
				i)
		}
	}
}

// TestSelectionHashPoSBias ensures a proof-of-stake block always beats a
// proof-of-work block with the same raw selection hash.
func TestSelectionHashPoSBias(t *testing.T) {
	proofHash := chainhash.HashH([]byte("proof"))

	powNode := &BlockNode{Hash: proofHash}
	posNode := &BlockNode{Hash: testBlockHash(1)}
	posNode.SetProofOfStake()
	posNode.HashProofOfStake = proofHash

	const modifier = 0x1122334455667788
	powSelection := selectionHash(powNode, modifier)
	posSelection := selectionHash(posNode, modifier)
	if posSelection.Cmp(powSelection) >= 0 {
		t.Fatalf("proof-of-stake selection hash %x not below "+
			"proof-of-work %x", posSelection, powSelection)
	}
}

// TestStakeModifierChecksum verifies the checksum is reproducible and that
// any single field perturbation alters it.
func TestStakeModifierChecksum(t *testing.T) {
	parent := &BlockNode{
		Hash:                  testBlockHash(10),
		StakeModifierChecksum: 0xcafef00d,
	}
	node := &BlockNode{
		Parent:           parent,
		Hash:             testBlockHash(11),
		Flags:            5,
		StakeModifier:    0x0123456789abcdef,
		HashProofOfStake: chainhash.HashH([]byte("pos")),
	}

	checksum := StakeModifierChecksum(node)
	if again := StakeModifierChecksum(node); again != checksum {
		t.Fatalf("checksum not reproducible: %08x vs %08x", checksum,
			again)
	}

	perturbations := []func(n *BlockNode){
		func(n *BlockNode) { n.Flags ^= 1 },
		func(n *BlockNode) { n.StakeModifier ^= 1 },
		func(n *BlockNode) { n.HashProofOfStake[0] ^= 1 },
		func(n *BlockNode) { n.Parent.StakeModifierChecksum ^= 1 },
	}
	for i, perturb := range perturbations {
		parentCopy := *parent
		nodeCopy := *node
		nodeCopy.Parent = &parentCopy
		perturb(&nodeCopy)
		if StakeModifierChecksum(&nodeCopy) == checksum {
			t.Errorf("perturbation %d did not alter checksum", i)
		}
	}
}

// TestStakeModifierCheckpoints exercises the hard checkpoint table.
func TestStakeModifierCheckpoints(t *testing.T) {
	params := chaincfg.MainNetParams
	params.StakeModifierCheckpoints = map[int32]uint32{
		500: 0x11223344,
	}
	k := newTestKernel(t, &params)

	tests := []struct {
		name     string
		height   int32
		checksum uint32
		want     bool
	}{
		{"no entry", 400, 0xffffffff, true},
		{"match", 500, 0x11223344, true},
		{"mismatch", 500, 0x11223345, false},
	}
	for _, test := range tests {
		if got := k.CheckStakeModifierCheckpoints(test.height,
			test.checksum); got != test.want {

			t.Errorf("%s: got %v, want %v", test.name, got,
				test.want)
		}
	}
}

// TestLastStakeModifierCorrupt ensures a chain whose genesis never generated
// a modifier is reported as corrupt.
func TestLastStakeModifierCorrupt(t *testing.T) {
	genesis := &BlockNode{Hash: testBlockHash(0), Timestamp: testBaseTime}
	child := &BlockNode{
		Parent:    genesis,
		Hash:      testBlockHash(1),
		Height:    1,
		Timestamp: testBaseTime + 500,
	}

	_, _, err := lastStakeModifier(child)
	if !IsRuleErrorCode(err, ErrNoGeneratingAncestor) {
		t.Fatalf("got %v, want ErrNoGeneratingAncestor", err)
	}
}

// TestSelectionIntervalGeometry spot checks the selection interval sections
// against hand-computed values and ensures sections widen monotonically.
func TestSelectionIntervalGeometry(t *testing.T) {
	k := newTestKernel(t, &chaincfg.MainNetParams)

	// With a 6 hour modifier interval the first section spans
	// 21600*63/189 = 7200 seconds and the last the full interval.
	if got := k.stakeModifierSelectionIntervalSection(0); got != 7200 {
		t.Errorf("section 0: got %d, want 7200", got)
	}
	if got := k.stakeModifierSelectionIntervalSection(63); got != 21600 {
		t.Errorf("section 63: got %d, want 21600", got)
	}
	for s := 1; s < 64; s++ {
		if k.stakeModifierSelectionIntervalSection(s) <
			k.stakeModifierSelectionIntervalSection(s-1) {

			t.Fatalf("section %d narrower than its predecessor", s)
		}
	}

	var total int64
	for s := 0; s < 64; s++ {
		total += k.stakeModifierSelectionIntervalSection(s)
	}
	if k.selectionInterval != total {
		t.Errorf("selection interval: got %d, want %d",
			k.selectionInterval, total)
	}
}
