// Copyright (c) 2023-2025 The Nowp developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

import (
	"testing"
	"time"
)

// TestGenesisConsistency ensures each network's genesis hash matches its
// genesis block and that networks are mutually distinct.
func TestGenesisConsistency(t *testing.T) {
	nets := []*Params{&MainNetParams, &TestNet3Params, &RegressionNetParams}

	seen := make(map[string]bool)
	for _, params := range nets {
		if got := params.GenesisBlock.BlockHash(); got != *params.GenesisHash {
			t.Errorf("%s: genesis hash %v does not match block %v",
				params.Name, params.GenesisHash, got)
		}
		if got := params.GenesisBlock.Header.MerkleRoot; got != genesisMerkleRoot {
			t.Errorf("%s: unexpected genesis merkle root %v",
				params.Name, got)
		}
		key := params.GenesisHash.String()
		if seen[key] {
			t.Errorf("%s: genesis hash shared with another network",
				params.Name)
		}
		seen[key] = true
	}

	if MainNetParams.Net == TestNet3Params.Net ||
		MainNetParams.Net == RegressionNetParams.Net {

		t.Errorf("network magic values are not distinct")
	}
}

// TestStakeParameterCoherence ensures the v0.5 kernel modifier walk can
// resolve on every network: the minimum stake age must exceed the total
// modifier selection interval.
func TestStakeParameterCoherence(t *testing.T) {
	const modifierIntervalRatio = 3

	for _, params := range []*Params{&MainNetParams, &TestNet3Params,
		&RegressionNetParams} {

		interval := int64(params.ModifierInterval / time.Second)
		var selectionInterval int64
		for section := 0; section < 64; section++ {
			selectionInterval += interval * 63 /
				(63 + int64(63-section)*(modifierIntervalRatio-1))
		}
		if minAge := int64(params.StakeMinAge / time.Second); minAge <= selectionInterval {
			t.Errorf("%s: minimum stake age %d does not exceed the "+
				"selection interval %d", params.Name, minAge,
				selectionInterval)
		}
	}
}

// TestIsTestNet ensures the test network predicate only excludes mainnet.
func TestIsTestNet(t *testing.T) {
	if MainNetParams.IsTestNet() {
		t.Errorf("mainnet reported as a test network")
	}
	if !TestNet3Params.IsTestNet() || !RegressionNetParams.IsTestNet() {
		t.Errorf("test networks not reported as such")
	}
}
