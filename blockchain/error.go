// Copyright (c) 2014-2016 The btcsuite developers
// Copyright (c) 2023-2025 The Nowp developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"fmt"
)

// ErrorCode identifies a kind of error.
type ErrorCode int

// These constants are used to identify a specific RuleError.
const (
	// ErrNullBlockIndex indicates a nil block index node was passed where
	// one is required.  This is a programmer error, not a property of the
	// block being validated.
	ErrNullBlockIndex ErrorCode = iota

	// ErrNoGeneratingAncestor indicates that walking the chain backwards
	// never reached a block that generated a stake modifier.  The block
	// index is corrupt.
	ErrNoGeneratingAncestor

	// ErrNoCandidateBlocks indicates a stake modifier selection round had
	// no remaining candidate blocks to choose from.
	ErrNoCandidateBlocks

	// ErrNtimeViolation indicates a coinstake transaction timestamp is
	// earlier than the timestamp of the coin it spends.
	ErrNtimeViolation

	// ErrMinAgeViolation indicates the staked coin has not yet reached
	// the minimum stake age.
	ErrMinAgeViolation

	// ErrStakeModifierUnavailable indicates the stake modifier required
	// to hash a kernel does not exist yet, typically because the node is
	// behind on the block chain.
	ErrStakeModifierUnavailable

	// ErrCheckKernelFailed indicates the kernel hash did not meet the
	// coin-age-weighted target.
	ErrCheckKernelFailed

	// ErrBadStakeModifierCheckpoint indicates the computed stake modifier
	// checksum does not match the hard checkpoint for its height.
	ErrBadStakeModifierCheckpoint

	// ErrNotCoinStake indicates proof-of-stake validation was requested
	// for a transaction that is not a coinstake.
	ErrNotCoinStake

	// ErrTxIndexMissing indicates no transaction index collaborator is
	// available, so the staked coin cannot be located.
	ErrTxIndexMissing

	// ErrTxPosNotFound indicates the staked coin's transaction is not in
	// the transaction index.
	ErrTxPosNotFound

	// ErrTxIDMismatch indicates the transaction loaded from block storage
	// does not hash to the id the coinstake references.
	ErrTxIDMismatch

	// ErrReadTxFailed indicates a deserialization or I/O error while
	// loading the staked coin's transaction from block storage.
	ErrReadTxFailed

	// ErrInvalidPoSScript indicates the coinstake signature script failed
	// verification against the staked output's script.
	ErrInvalidPoSScript

	// ErrCompactEncodingInvalid indicates a compact difficulty encoding
	// decodes to a negative, zero, or overflowing target.
	ErrCompactEncodingInvalid

	// ErrHighHash indicates a block hash is higher than the target
	// difficulty claimed by the block.
	ErrHighHash

	// ErrUnexpectedDifficulty indicates the claimed difficulty exceeds
	// the network's proof-of-work limit.
	ErrUnexpectedDifficulty
)

// Map of ErrorCode values back to their constant names for pretty printing.
var errorCodeStrings = map[ErrorCode]string{
	ErrNullBlockIndex:             "ErrNullBlockIndex",
	ErrNoGeneratingAncestor:       "ErrNoGeneratingAncestor",
	ErrNoCandidateBlocks:          "ErrNoCandidateBlocks",
	ErrNtimeViolation:             "ErrNtimeViolation",
	ErrMinAgeViolation:            "ErrMinAgeViolation",
	ErrStakeModifierUnavailable:   "ErrStakeModifierUnavailable",
	ErrCheckKernelFailed:          "ErrCheckKernelFailed",
	ErrBadStakeModifierCheckpoint: "ErrBadStakeModifierCheckpoint",
	ErrNotCoinStake:               "ErrNotCoinStake",
	ErrTxIndexMissing:             "ErrTxIndexMissing",
	ErrTxPosNotFound:              "ErrTxPosNotFound",
	ErrTxIDMismatch:               "ErrTxIDMismatch",
	ErrReadTxFailed:               "ErrReadTxFailed",
	ErrInvalidPoSScript:           "ErrInvalidPoSScript",
	ErrCompactEncodingInvalid:     "ErrCompactEncodingInvalid",
	ErrHighHash:                   "ErrHighHash",
	ErrUnexpectedDifficulty:       "ErrUnexpectedDifficulty",
}

// String returns the ErrorCode as a human-readable name.
func (e ErrorCode) String() string {
	if s := errorCodeStrings[e]; s != "" {
		return s
	}
	return fmt.Sprintf("Unknown ErrorCode (%d)", int(e))
}

// RuleError identifies a rule violation.  It is used to indicate that
// processing of a block or transaction failed due to one of the many
// validation rules.  The caller can use type assertions to determine if a
// failure was specifically due to a rule violation and access the ErrorCode
// field to ascertain the specific reason for the rule violation.
type RuleError struct {
	ErrorCode   ErrorCode // Describes the kind of error
	Description string    // Human readable description of the issue
}

// Error satisfies the error interface and prints human-readable errors.
func (e RuleError) Error() string {
	return e.Description
}

// ruleError creates a RuleError given a set of arguments.
func ruleError(c ErrorCode, desc string) RuleError {
	return RuleError{ErrorCode: c, Description: desc}
}

// IsRuleErrorCode returns whether err is a RuleError with the passed code.
func IsRuleErrorCode(err error, c ErrorCode) bool {
	rerr, ok := err.(RuleError)
	return ok && rerr.ErrorCode == c
}
