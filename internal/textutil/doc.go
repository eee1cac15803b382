// Package textutil ranks setting keys by similarity to a mistyped key.
//
// Keys are fingerprinted as term-frequency vectors over their lowercased
// words plus the character trigrams of each word, so both reordered words
// ("freq_start" vs "start_freq") and small typos ("chanels") still overlap.
// Suggest weights terms by inverse document frequency across the candidate
// set, which keeps common words such as "file" from dominating.
package textutil
