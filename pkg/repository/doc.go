// SPDX-License-Identifier: MPL-2.0

// Package repository models remote repositories and the rules for combining
// repository lists coming from different sources.
//
// A build descriptor declares repositories ([Declaration]); the caller of a
// build supplies another list (command line, configuration). [Merge] combines
// two lists with a dominant/recessive rule, [MergePolicy] decides which side
// dominates, and [SessionList] accumulates declarations discovered while a
// chain of parent descriptors is walked. [Settings] carries mirror, proxy and
// server (authentication) settings that are injected into raw repositories.
package repository
