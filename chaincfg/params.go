// Copyright (c) 2014-2016 The btcsuite developers
// Copyright (c) 2023-2025 The Nowp developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

import (
	"math/big"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/nowputfinance/nowpd/wire"
)

// These variables are the chain proof-of-work limit parameters for each
// default network.
var (
	// bigOne is 1 represented as a big.Int.  It is defined here to avoid
	// the overhead of creating it multiple times.
	bigOne = big.NewInt(1)

	// mainPowLimit is the highest proof of work value a nowp block can
	// have for the main network.  It is the value 2^236 - 1.
	mainPowLimit = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 236), bigOne)

	// mainInitialHashTarget is the starting difficulty target for both
	// chains on the main network, used until two blocks of the requested
	// kind exist.  It is the value 2^232 - 1.
	mainInitialHashTarget = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 232), bigOne)

	// regNetPowLimit is the highest proof of work value a nowp block can
	// have for the regression test network.  It is the value 2^255 - 1.
	regNetPowLimit = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 255), bigOne)
)

// Checkpoint identifies a known good point in the block chain.  Using
// checkpoints allows a few optimizations for old blocks during initial
// download and also prevents forks from old blocks.
type Checkpoint struct {
	Height int32
	Hash   *chainhash.Hash
}

// Params defines a nowp network by its parameters.  These parameters may be
// used by nowp applications to differentiate networks as well as addresses
// and keys for one network from those intended for use on another network.
type Params struct {
	// Name defines a human-readable identifier for the network.
	Name string

	// Net defines the magic bytes used to identify the network.
	Net wire.NowpNet

	// DefaultPort defines the default peer-to-peer port for the network.
	DefaultPort string

	// GenesisBlock defines the first block of the chain.
	GenesisBlock *wire.MsgBlock

	// GenesisHash is the starting block hash.
	GenesisHash *chainhash.Hash

	// PowLimit defines the highest allowed proof of work value for a block
	// as a uint256.
	PowLimit *big.Int

	// PowLimitBits defines the highest allowed proof of work value for a
	// block in compact form.
	PowLimitBits uint32

	// InitialHashTarget is the difficulty target used for the first blocks
	// of each chain kind, before enough history exists to retarget.
	InitialHashTarget *big.Int

	// PoWNoRetargeting defines whether the network has difficulty
	// retargeting enabled or not.  This should only be set to true for
	// regtest like networks.
	PoWNoRetargeting bool

	// PowTargetSpacing is the desired amount of time between consecutive
	// proof-of-work blocks.
	PowTargetSpacing time.Duration

	// StakeTargetSpacing is the desired amount of time between consecutive
	// proof-of-stake blocks.
	StakeTargetSpacing time.Duration

	// TargetTimespan is the amount of time over which the per-block
	// exponential retarget smooths difficulty changes.
	TargetTimespan time.Duration

	// ModifierInterval is the amount of time between stake modifier
	// recomputations.
	ModifierInterval time.Duration

	// StakeMinAge is the minimum age a coin must reach before it may serve
	// as a stake kernel.
	StakeMinAge time.Duration

	// StakeMaxAge is the age beyond which a coin accumulates no further
	// stake weight.
	StakeMaxAge time.Duration

	// DGWBlocksAvg is the number of past blocks the DarkGravityWave
	// retarget averages over.
	DGWBlocksAvg int32

	// PowDGWHeight is the height at which the proof-of-work chain switches
	// from the exponential retarget to DarkGravityWave.
	PowDGWHeight int32

	// PoSActivationHeight is the height at which proof-of-stake blocks
	// become acceptable.
	PoSActivationHeight int32

	// BTC16BIPsSwitchTime is the time at which the BIPs adopted from
	// bitcoin 0.16.x activate on this network.
	BTC16BIPsSwitchTime uint32

	// StakeModifierCheckpoints maps block heights to the expected stake
	// modifier checksum at that height.  Heights without an entry are not
	// checked.
	StakeModifierCheckpoints map[int32]uint32

	// Checkpoints ordered from oldest to newest.
	Checkpoints []Checkpoint

	// CoinbaseMaturity is the number of blocks required before newly mined
	// coins (coinbase and coinstake transactions) can be spent.
	CoinbaseMaturity uint16
}

// MainNetParams defines the network parameters for the main nowp network.
var MainNetParams = Params{
	Name:        "mainnet",
	Net:         wire.MainNet,
	DefaultPort: "7722",

	// Chain parameters
	GenesisBlock:      &genesisBlock,
	GenesisHash:       &genesisHash,
	PowLimit:          mainPowLimit,
	PowLimitBits:      0x1e0fffff,
	InitialHashTarget: mainInitialHashTarget,
	PoWNoRetargeting:  false,

	// The block day is 1440 blocks: 720 proof-of-work and 720
	// proof-of-stake once staking activates, which is why the retarget
	// code doubles the per-kind spacing past the activation height.
	PowTargetSpacing:   time.Minute,
	StakeTargetSpacing: time.Minute,
	TargetTimespan:     time.Hour * 24 * 7,

	// Stake parameters.  The minimum stake age must exceed the modifier
	// selection interval (roughly 35 modifier intervals) or the v0.5
	// kernel modifier can never resolve.
	ModifierInterval:    time.Hour * 6,
	StakeMinAge:         time.Hour * 24 * 30,
	StakeMaxAge:         time.Hour * 24 * 90,
	DGWBlocksAvg:        60,
	PowDGWHeight:        1500,
	PoSActivationHeight: 1000,
	BTC16BIPsSwitchTime: 1677525510,

	// Hard checkpoints of stake modifiers to ensure they are
	// deterministic.
	StakeModifierCheckpoints: map[int32]uint32{
		1000000: 0x0e00670b,
	},

	Checkpoints: []Checkpoint{},

	CoinbaseMaturity: 100,
}

// TestNet3Params defines the network parameters for the test nowp network
// (version 3).
var TestNet3Params = Params{
	Name:        "testnet3",
	Net:         wire.TestNet3,
	DefaultPort: "17722",

	// Chain parameters
	GenesisBlock:      &testNet3GenesisBlock,
	GenesisHash:       &testNet3GenesisHash,
	PowLimit:          mainPowLimit,
	PowLimitBits:      0x1e0fffff,
	InitialHashTarget: mainInitialHashTarget,
	PoWNoRetargeting:  false,

	PowTargetSpacing:   time.Minute,
	StakeTargetSpacing: time.Minute,
	TargetTimespan:     time.Hour * 24 * 7,

	// Stake parameters
	ModifierInterval:    time.Minute * 10,
	StakeMinAge:         time.Hour * 24,
	StakeMaxAge:         time.Hour * 24 * 90,
	DGWBlocksAvg:        60,
	PowDGWHeight:        1500,
	PoSActivationHeight: 1000,
	BTC16BIPsSwitchTime: 1677525510,

	StakeModifierCheckpoints: map[int32]uint32{
		1000000: 0x0e00670b,
	},

	Checkpoints: []Checkpoint{},

	CoinbaseMaturity: 100,
}

// RegressionNetParams defines the network parameters for the regression test
// nowp network.  Difficulty never retargets on this network so tests can
// generate blocks at will.
var RegressionNetParams = Params{
	Name:        "regtest",
	Net:         wire.RegNet,
	DefaultPort: "18722",

	// Chain parameters
	GenesisBlock:      &regTestGenesisBlock,
	GenesisHash:       &regTestGenesisHash,
	PowLimit:          regNetPowLimit,
	PowLimitBits:      0x207fffff,
	InitialHashTarget: regNetPowLimit,
	PoWNoRetargeting:  true,

	PowTargetSpacing:   time.Minute,
	StakeTargetSpacing: time.Minute,
	TargetTimespan:     time.Hour * 24 * 7,

	// Stake parameters
	ModifierInterval:    time.Minute,
	StakeMinAge:         time.Hour,
	StakeMaxAge:         time.Hour * 24,
	DGWBlocksAvg:        60,
	PowDGWHeight:        1500,
	PoSActivationHeight: 500,
	BTC16BIPsSwitchTime: 0,

	StakeModifierCheckpoints: nil,

	Checkpoints: nil,

	CoinbaseMaturity: 100,
}

// IsTestNet returns whether or not the network is a test network.
func (p *Params) IsTestNet() bool {
	return p.Net != wire.MainNet
}
