package testsupport

import (
	"testing"

	"radiosim/internal/config"
	"radiosim/internal/settings"
	"radiosim/internal/settingsstore"
	"radiosim/internal/simschema"
)

// MustOpenStore opens a settingsstore.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *settingsstore.Store {
	t.Helper()

	store, err := settingsstore.Open(cfg.Paths.StorePath, settingsstore.WithProfile(cfg.Settings.Profile))
	if err != nil {
		t.Fatalf("settingsstore.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// NewSchemaTree returns a tree with the interferometer schema declared.
func NewSchemaTree(t testing.TB, opts ...settings.Option) *settings.Tree {
	t.Helper()

	tree := settings.New(opts...)
	if err := simschema.Apply(tree); err != nil {
		t.Fatalf("simschema.Apply: %v", err)
	}
	return tree
}
