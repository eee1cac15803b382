// Package settingsstore persists settings trees in a SQLite database.
//
// A Store holds any number of named profiles. Each save replaces the
// profile's values inside one transaction and records a revision tagged with
// a random UUID, so `radiosim settings history` can list when a profile
// changed. The Store implements settings.FileHandler; SetFileName selects the
// profile.
package settingsstore
