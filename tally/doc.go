// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package tally records votes and aggregates poll results.

ComputeResults is a pure function of a poll and its votes. Engine.SubmitVote
inserts a vote through the store and returns the recomputed results; the
one-vote-per-participant rule is the store's unique constraint.
*/
package tally
