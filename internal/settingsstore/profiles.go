package settingsstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"radiosim/internal/logging"
	"radiosim/internal/settings"
)

// savedAtLayout keeps a fixed fraction width so saved_at sorts as text.
const savedAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Revision describes one save of a profile.
type Revision struct {
	ID      string
	Profile string
	SavedAt time.Time
	Count   int
}

// StoredValue is one persisted key of a profile.
type StoredValue struct {
	Key   string
	Value string
}

// SetFileName selects the profile that WriteAll and ReadAll use. An empty
// name selects DefaultProfile.
func (s *Store) SetFileName(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultProfile
	}
	s.profile = name
}

// WriteAll replaces the selected profile with every set value of t.
func (s *Store) WriteAll(t *settings.Tree) error {
	_, err := s.Save(context.Background(), s.profile, collect(t))
	return err
}

// ReadAll applies the selected profile to t. Values the tree rejects are
// returned as Invalid. An unknown profile reads as empty.
func (s *Store) ReadAll(t *settings.Tree) ([]settings.Invalid, error) {
	values, err := s.Values(context.Background(), s.profile)
	if err != nil {
		return nil, err
	}
	var invalid []settings.Invalid
	for _, v := range values {
		if err := t.SetValue(v.Key, v.Value, false); err != nil {
			invalid = append(invalid, settings.Invalid{Key: v.Key, Value: v.Value, Reason: err.Error()})
		}
	}
	s.logger.Debug("profile read",
		logging.String("profile", s.profile),
		logging.Int("count", len(values)),
		logging.Int("rejected", len(invalid)),
	)
	return invalid, nil
}

// Save replaces profile's values in one transaction and records a revision.
func (s *Store) Save(ctx context.Context, profile string, values []StoredValue) (Revision, error) {
	ctx = ensureContext(ctx)
	rev := Revision{
		ID:      uuid.NewString(),
		Profile: profile,
		SavedAt: s.now().UTC(),
		Count:   len(values),
	}
	start := time.Now()
	err := retryOnBusy(ctx, func() error {
		return s.save(ctx, rev, values)
	})
	if err != nil {
		return Revision{}, fmt.Errorf("save profile %q: %w", profile, err)
	}
	s.logger.Debug("profile saved",
		logging.String("profile", profile),
		logging.String("revision", rev.ID),
		logging.Int("count", rev.Count),
		logging.Duration("elapsed", time.Since(start)),
	)
	return rev, nil
}

func (s *Store) save(ctx context.Context, rev Revision, values []StoredValue) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO revisions (id, profile, saved_at, value_count) VALUES (?, ?, ?, ?)",
		rev.ID, rev.Profile, rev.SavedAt.Format(savedAtLayout), rev.Count,
	); err != nil {
		return fmt.Errorf("insert revision: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM setting_values WHERE profile = ?", rev.Profile); err != nil {
		return fmt.Errorf("clear profile: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO setting_values (profile, key, value, position, revision_id) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()
	for i, v := range values {
		if _, err := stmt.ExecContext(ctx, rev.Profile, v.Key, v.Value, i, rev.ID); err != nil {
			return fmt.Errorf("insert %q: %w", v.Key, err)
		}
	}
	return tx.Commit()
}

// Values returns profile's stored values in the order they were saved.
func (s *Store) Values(ctx context.Context, profile string) ([]StoredValue, error) {
	ctx = ensureContext(ctx)
	var out []StoredValue
	err := retryOnBusy(ctx, func() error {
		out = out[:0]
		rows, err := s.db.QueryContext(ctx,
			"SELECT key, value FROM setting_values WHERE profile = ? ORDER BY position", profile)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var v StoredValue
			if err := rows.Scan(&v.Key, &v.Value); err != nil {
				return err
			}
			out = append(out, v)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("read profile %q: %w", profile, err)
	}
	return out, nil
}

// Revisions lists profile's saves, newest first.
func (s *Store) Revisions(ctx context.Context, profile string) ([]Revision, error) {
	ctx = ensureContext(ctx)
	var out []Revision
	err := retryOnBusy(ctx, func() error {
		out = out[:0]
		rows, err := s.db.QueryContext(ctx,
			"SELECT id, profile, saved_at, value_count FROM revisions WHERE profile = ? ORDER BY saved_at DESC, rowid DESC",
			profile)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			rev, err := scanRevision(rows)
			if err != nil {
				return err
			}
			out = append(out, rev)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list revisions: %w", err)
	}
	return out, nil
}

func scanRevision(rows *sql.Rows) (Revision, error) {
	var (
		rev     Revision
		savedAt string
	)
	if err := rows.Scan(&rev.ID, &rev.Profile, &savedAt, &rev.Count); err != nil {
		return Revision{}, err
	}
	ts, err := time.Parse(time.RFC3339Nano, savedAt)
	if err != nil {
		return Revision{}, fmt.Errorf("parse saved_at %q: %w", savedAt, err)
	}
	rev.SavedAt = ts
	return rev, nil
}

// Profiles lists every profile that has been saved at least once.
func (s *Store) Profiles(ctx context.Context) ([]string, error) {
	ctx = ensureContext(ctx)
	var out []string
	err := retryOnBusy(ctx, func() error {
		out = out[:0]
		rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT profile FROM revisions ORDER BY profile")
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				return err
			}
			out = append(out, name)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return out, nil
}

// DeleteProfile removes a profile's values and history.
func (s *Store) DeleteProfile(ctx context.Context, profile string) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()
		if _, err := tx.ExecContext(ctx, "DELETE FROM setting_values WHERE profile = ?", profile); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM revisions WHERE profile = ?", profile); err != nil {
			return err
		}
		return tx.Commit()
	})
}

// collect gathers set values in tree order.
func collect(t *settings.Tree) []StoredValue {
	var out []StoredValue
	t.Walk(func(n *settings.Node, _ int) {
		if n.ItemType() != settings.ItemSetting || !n.Value().IsSet() {
			return
		}
		out = append(out, StoredValue{Key: n.Key().String(), Value: n.Value().ToString()})
	})
	return out
}
