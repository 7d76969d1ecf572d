// SPDX-License-Identifier: Apache-2.0
/*
 * tar: a streaming tar archive codec with safety checking
 * Copyright (C) 2026 Haskell Works
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *    http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package entries provides the lazy, pull-based sequence abstraction the
// codec produces and consumes, together with the map/fold/unfold combinators
// over it.
//
// A sequence is demand-driven and single-pass: forcing a node may read from
// the underlying archive stream, and re-forcing a node after the sequence has
// advanced is undefined because the byte cursor has already moved. No
// combinator forces more of a sequence than its consumer demands, which is
// what keeps archive processing bounded-memory regardless of archive size.
package entries

import (
	"github.com/haskell-works/tar/entry"
)

// Step is the result of forcing one node of a sequence. Exactly one of three
// shapes is possible:
//
//   - Entry != nil: one more entry, with Rest continuing the sequence.
//   - Entry == nil, Err == nil: successful end of archive.
//   - Err != nil: the sequence failed; Leftover optionally carries
//     unconsumed input for diagnostics.
type Step struct {
	// Entry is the entry produced by this node, nil on termination.
	Entry *entry.Entry

	// Rest continues the sequence. It is non-nil exactly when Entry is.
	Rest Entries

	// Err terminates the sequence with a failure.
	Err error

	// Leftover is the unconsumed input at the failure point, if available.
	Leftover []byte
}

// Done reports whether the step is a successful end of sequence.
func (s Step) Done() bool { return s.Entry == nil && s.Err == nil }

// Failed reports whether the step is a failure.
func (s Step) Failed() bool { return s.Err != nil }

// Entries is a lazy cons-style sequence of archive entries. Calling the
// function forces the next node, performing whatever I/O is needed to decode
// it. Each sequence owns an independent cursor over its own stream, so
// independent sequences may be consumed in parallel, but a single sequence
// must not be shared across goroutines.
type Entries func() Step

// Done is the empty, successfully terminated sequence.
func Done() Entries {
	return func() Step { return Step{} }
}

// Fail is a sequence that immediately fails with err. The leftover bytes, if
// any, are carried for diagnostics.
func Fail(err error, leftover []byte) Entries {
	return func() Step { return Step{Err: err, Leftover: leftover} }
}

// Cons prefixes e onto rest.
func Cons(e *entry.Entry, rest Entries) Entries {
	return func() Step { return Step{Entry: e, Rest: rest} }
}

// Defer suspends the construction of a sequence until it is forced.
func Defer(f func() Entries) Entries {
	return func() Step { return f()() }
}

// Map lazily applies f to every entry of seq. If f fails, the sequence
// short-circuits into a failure at that point; entries past the failure are
// never forced.
func Map(seq Entries, f func(*entry.Entry) (*entry.Entry, error)) Entries {
	return func() Step {
		s := seq()
		if s.Entry == nil {
			return s
		}
		e, err := f(s.Entry)
		if err != nil {
			return Step{Err: err}
		}
		return Step{Entry: e, Rest: Map(s.Rest, f)}
	}
}

// Fold eagerly consumes seq in order, exactly once, threading an accumulator
// through onEntry. A failing node or a failing onEntry stops consumption and
// returns the accumulator as it stood together with the error.
func Fold[A any](seq Entries, seed A, onEntry func(A, *entry.Entry) (A, error)) (A, error) {
	acc := seed
	for {
		s := seq()
		if s.Err != nil {
			return acc, s.Err
		}
		if s.Entry == nil {
			return acc, nil
		}
		var err error
		if acc, err = onEntry(acc, s.Entry); err != nil {
			return acc, err
		}
		seq = s.Rest
	}
}

// Drain is Fold for effectful consumers that accumulate nothing.
func Drain(seq Entries, onEntry func(*entry.Entry) error) error {
	_, err := Fold(seq, struct{}{}, func(a struct{}, e *entry.Entry) (struct{}, error) {
		return a, onEntry(e)
	})
	return err
}

// Unfold builds a lazy sequence from an external generator: step is called
// with the current seed and returns the next entry and seed. A nil entry
// terminates the sequence successfully; a step error terminates it with a
// failure. This is how arbitrary producers (directory walks, in-memory
// generators) are adapted into the sequence type the write path expects.
func Unfold[S any](seed S, step func(S) (*entry.Entry, S, error)) Entries {
	return func() Step {
		e, next, err := step(seed)
		if err != nil {
			return Step{Err: err}
		}
		if e == nil {
			return Step{}
		}
		return Step{Entry: e, Rest: Unfold(next, step)}
	}
}

// FromSlice adapts an in-memory slice into a sequence.
func FromSlice(es []*entry.Entry) Entries {
	return Unfold(0, func(i int) (*entry.Entry, int, error) {
		if i >= len(es) {
			return nil, i, nil
		}
		return es[i], i + 1, nil
	})
}

// ToSlice materializes the whole sequence into memory. This is the explicit,
// opt-in unbounded operation: it defeats the streaming bound by design, so
// only use it when the archive is known to be small. Entries consumed before
// the failure point are returned alongside the error.
func ToSlice(seq Entries) ([]*entry.Entry, error) {
	return Fold(seq, []*entry.Entry(nil), func(acc []*entry.Entry, e *entry.Entry) ([]*entry.Entry, error) {
		return append(acc, e), nil
	})
}
