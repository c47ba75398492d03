// Package types implements the runtime representation of the values the
// compile-time interpreter (lang/interp) manipulates while evaluating
// #pragma-style build scripts.
//
// Much of this package's shape is adapted from the Starlark source code:
// https://github.com/google/starlark-go/tree/ee8ed142361c69d52fe8e9fb5e311d2a0a7c02de
//
// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
package types

// Value is implemented by every runtime value the interpreter manipulates.
// A Value is always one of the concrete kinds in this package: Int, Float,
// Bool, Pointer, String, Undefined, or Struct. Unlike the scripting
// language this package is adapted from, the interpreter's value domain is
// closed: there is no user-extensible Value implementation, no attribute
// dispatch, and no freezing for cross-goroutine publishing, since the
// interpreter is single-threaded and its values never outlive one build
// script evaluation.
type Value interface {
	String() string
	Type() string
	Truth() Bool

	// TaintOf reports the Taint this value carries. Every Value, not only
	// the ones a SizeOf call can directly produce, can carry one: binary
	// operations and struct aggregation both propagate taint from their
	// operands/fields.
	TaintOf() Taint

	// WithTaint returns a copy of this value with t combined into its
	// Taint. It never clears an existing taint: see CombineTaint.
	WithTaint(t Taint) Value
}

// Taint marks a value as derived, directly or transitively, from a
// computation whose exact result depends on something other than the
// eventual compilation target - most importantly, the compilation host's
// own assumptions rather than the target's.
type Taint uint8

const (
	NoTaint Taint = 0

	// TaintByCompilationHostSizeof marks a value that passed through a
	// SizeOf query whose Mode was left unspecified. The interpreter
	// resolves such a SizeOf using the compilation host's own notion of
	// layout, not the eventual Target's, so the numeric value must not
	// leak into a decision that affects program semantics (it may still
	// be used for tracing/diagnostics) until it is re-derived or
	// explicitly accepted.
	TaintByCompilationHostSizeof Taint = 1 << (iota - 1)
)

// CombineTaint implements the monotone "OR" rule a binary operation's
// result taint follows: tainted if any operand is.
func CombineTaint(taints ...Taint) Taint {
	var t Taint
	for _, x := range taints {
		t |= x
	}
	return t
}

// Ordered is implemented by values that support the relational
// comparisons (== != < <= > >=). Unlike the scripting-language Ordered
// interface this is adapted from, there is no separate recursion-depth
// guard: none of this package's concrete kinds are cyclic.
type Ordered interface {
	Value
	// Cmp compares two values of the same concrete kind. It returns
	// negative if x < y, positive if x > y, and zero if equal.
	Cmp(y Value) (int, error)
}
