// Package settings implements the hierarchical settings tree that drives a
// simulation run.
//
// A Tree is built once from a schema: every AddSetting call declares a LABEL
// or SETTING node under a separator-delimited key, creating intermediate
// group nodes on demand. Each declaration returns a Builder that attaches
// dependency rules (key op value conditions folded through nested AND/OR
// groups) to the node it declared. Values are type checked against the
// declared type on every write, so a Tree never holds a value its type
// rejects.
//
// Once populated, callers ask DependenciesSatisfied whether a setting is
// active under the current configuration and IsCritical whether a required
// value is still missing. Persistence is delegated to a FileHandler; the tree
// itself never touches the filesystem.
//
// A Tree is not safe for concurrent use. Give each simulation run its own
// tree or serialise access externally.
package settings
