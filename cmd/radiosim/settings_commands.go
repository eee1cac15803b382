package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"radiosim/internal/logging"
	"radiosim/internal/settings"
	"radiosim/internal/simschema"
	"radiosim/internal/textutil"
)

func newSettingsCommand(ctx *commandContext) *cobra.Command {
	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "Inspect and edit simulation settings",
	}

	settingsCmd.AddCommand(newSettingsShowCommand(ctx))
	settingsCmd.AddCommand(newSettingsGetCommand(ctx))
	settingsCmd.AddCommand(newSettingsSetCommand(ctx))
	settingsCmd.AddCommand(newSettingsResetCommand(ctx))
	settingsCmd.AddCommand(newSettingsCheckCommand(ctx))
	settingsCmd.AddCommand(newSettingsResolveCommand(ctx))
	settingsCmd.AddCommand(newSettingsHistoryCommand(ctx))
	settingsCmd.AddCommand(newSettingsProfilesCommand(ctx))

	return settingsCmd
}

// settingView is the JSON and table shape of one setting.
type settingView struct {
	Key      string `json:"key"`
	Label    string `json:"label,omitempty"`
	Type     string `json:"type"`
	Value    string `json:"value"`
	Default  string `json:"default"`
	Required bool   `json:"required"`
	State    string `json:"state"`
}

const (
	stateInactive = "inactive"
	stateMissing  = "missing"
	stateSet      = "set"
	stateDefault  = "default"
)

func settingState(tree *settings.Tree, n *settings.Node) string {
	key := n.Key().String()
	switch {
	case !tree.DependenciesSatisfied(key):
		return stateInactive
	case n.Required() && !n.Value().IsSet():
		return stateMissing
	case n.Value().IsSet():
		return stateSet
	default:
		return stateDefault
	}
}

// collectViews lists settings under group in tree order. Inactive settings
// are skipped unless all is set.
func collectViews(tree *settings.Tree, group string, all bool) ([]settingView, error) {
	var prefix settings.Key
	if group = strings.TrimSpace(group); group != "" {
		if !tree.Contains(group) {
			return nil, fmt.Errorf("%w: %s", settings.ErrNotFound, group)
		}
		prefix = settings.NewKey(group, tree.Separator())
	}
	var views []settingView
	tree.Walk(func(n *settings.Node, _ int) {
		if n.ItemType() != settings.ItemSetting {
			return
		}
		if prefix.Depth() > 0 && !n.Key().HasPrefix(prefix) {
			return
		}
		state := settingState(tree, n)
		if state == stateInactive && !all {
			return
		}
		views = append(views, settingView{
			Key:      n.Key().String(),
			Label:    n.Label(),
			Type:     n.Value().TypeName(),
			Value:    n.Value().ToString(),
			Default:  n.Value().Default(),
			Required: n.Required(),
			State:    state,
		})
	})
	return views, nil
}

func newSettingsShowCommand(ctx *commandContext) *cobra.Command {
	var group string
	var all bool
	var asTree bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show settings and their current values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(func(s *session) error {
				out := cmd.OutOrStdout()
				if asTree {
					return s.tree.Print(out)
				}
				views, err := collectViews(s.tree, group, all)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, views)
				}
				if len(views) == 0 {
					fmt.Fprintln(out, "No settings to show")
					return nil
				}
				rows := make([][]string, 0, len(views))
				for _, v := range views {
					rows = append(rows, []string{v.Key, v.Type, v.Value, v.State})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Key", "Type", "Value", "State"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&group, "group", "g", "", "Only show settings below this key")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include settings whose dependencies are not met")
	cmd.Flags().BoolVar(&asTree, "tree", false, "Print every node of the tree, labels included")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func lookupSetting(tree *settings.Tree, key string) (*settings.Node, error) {
	if !tree.Contains(key) {
		return nil, keyNotFound(tree, key)
	}
	n, _ := tree.Item(key)
	if n.ItemType() != settings.ItemSetting {
		return nil, fmt.Errorf("%w: %s", settings.ErrNotSetting, key)
	}
	return n, nil
}

// keyNotFound wraps settings.ErrNotFound with the closest setting keys.
func keyNotFound(tree *settings.Tree, key string) error {
	var keys []string
	tree.Walk(func(n *settings.Node, _ int) {
		if n.ItemType() == settings.ItemSetting {
			keys = append(keys, n.Key().String())
		}
	})
	suggestions := textutil.Suggest(key, keys, 3, 0.3)
	if len(suggestions) == 0 {
		return fmt.Errorf("%w: %s", settings.ErrNotFound, key)
	}
	return fmt.Errorf("%w: %s (did you mean %s?)", settings.ErrNotFound, key, strings.Join(suggestions, ", "))
}

func newSettingsGetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print the current value of a setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(func(s *session) error {
				n, err := lookupSetting(s.tree, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), n.Value().ToString())
				return nil
			})
		},
	}
}

func newSettingsSetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change a setting and save it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(func(s *session) error {
				key, value := args[0], args[1]
				if !s.tree.Contains(key) {
					return keyNotFound(s.tree, key)
				}
				if err := s.tree.SetValue(key, value, s.cfg.Settings.WriteThrough); err != nil {
					return err
				}
				if err := s.save(); err != nil {
					return err
				}
				n, err := lookupSetting(s.tree, key)
				if err != nil {
					return err
				}
				active := s.tree.DependenciesSatisfied(key)
				s.logger.Info("setting changed",
					logging.String(logging.FieldEventType, "setting_changed"),
					logging.String("key", n.Key().String()),
					logging.String("value", n.Value().ToString()),
					logging.Bool("active", active),
				)
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s = %s\n", n.Key(), n.Value().ToString())
				if !active {
					fmt.Fprintln(out, "Note: this setting is inactive until its dependencies are met")
				}
				return nil
			})
		},
	}
}

func newSettingsResetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset <key>",
		Short: "Restore a setting to its default and save",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(func(s *session) error {
				if !s.tree.Contains(args[0]) {
					return keyNotFound(s.tree, args[0])
				}
				if err := s.tree.SetDefault(args[0], s.cfg.Settings.WriteThrough); err != nil {
					return err
				}
				if err := s.save(); err != nil {
					return err
				}
				n, err := lookupSetting(s.tree, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s reset to %q\n", n.Key(), n.Value().Default())
				return nil
			})
		},
	}
}

func newSettingsCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report rejected stored values and missing required settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(func(s *session) error {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)

				fmt.Fprintf(out, "Settings: %s\n", s.target())
				if len(s.invalid) > 0 {
					rows := make([][]string, 0, len(s.invalid))
					for _, inv := range s.invalid {
						rows = append(rows, []string{inv.Key, inv.Value, inv.Reason})
					}
					fmt.Fprintf(out, "Rejected %d stored value(s):\n", len(s.invalid))
					fmt.Fprintln(out, renderTable([]string{"Key", "Value", "Reason"}, rows, nil))
				}

				critical := s.tree.CriticalKeys()
				if len(critical) == 0 {
					fmt.Fprintln(out, renderStatusLine("required settings", statusOK, "all set", colorize))
					if _, err := simschema.Load(s.tree); err != nil {
						fmt.Fprintln(out, renderStatusLine("typed sections", statusError, err.Error(), colorize))
						return err
					}
					fmt.Fprintln(out, renderStatusLine("typed sections", statusOK, "resolved", colorize))
				}
				for _, key := range critical {
					n, _ := s.tree.Item(key)
					fmt.Fprintln(out, renderStatusLine(key, statusError, n.Label(), colorize))
				}
				if warnings := s.tree.DependencyWarnings(); warnings > 0 {
					fmt.Fprintln(out, renderStatusLine("dependencies", statusWarn,
						fmt.Sprintf("%d rule(s) reference unknown keys or bad literals", warnings), colorize))
				}

				if len(critical) > 0 {
					logging.WarnWithContext(s.logger, "required settings missing", "settings_check",
						logging.Int("count", len(critical)),
						logging.String(logging.FieldErrorHint, "run `radiosim settings set <key> <value>` for each missing key"),
						logging.String(logging.FieldImpact, "simulation cannot start"),
					)
					return fmt.Errorf("%d required setting(s) missing", len(critical))
				}
				return nil
			})
		},
	}
}

func newSettingsResolveCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve the settings into typed simulation parameters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(func(s *session) error {
				run, err := simschema.Load(s.tree)
				if err != nil {
					return err
				}
				s.logger.Debug("settings resolved",
					logging.String(logging.FieldEventType, "settings_resolved"),
					logging.Int("channels", run.Observation.NumChannels),
					logging.Float64("time_inc_sec", run.Observation.TimeIncSec),
					logging.Bool("noise", run.Noise.Enable),
				)
				if asJSON {
					return writeJSON(cmd, run)
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Parameter", "Value"},
					resolveRows(run),
					nil,
				))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func resolveRows(run *simschema.Run) [][]string {
	obs := run.Observation
	precision := "single"
	if run.Simulator.DoublePrecision {
		precision = "double"
	}
	devices := make([]string, len(run.Simulator.CUDADeviceIDs))
	for i, id := range run.Simulator.CUDADeviceIDs {
		devices[i] = strconv.Itoa(id)
	}
	rows := [][]string{
		{"Precision", precision},
		{"CUDA devices", strings.Join(devices, ",")},
		{"Sky model files", strconv.Itoa(len(run.Sky.OSKARModelFiles) + len(run.Sky.FITSImageFiles))},
		{"Phase centre", fmt.Sprintf("RA %g deg, Dec %g deg", obs.PhaseCentreRADeg, obs.PhaseCentreDecDeg)},
		{"Channels", fmt.Sprintf("%d from %g Hz, step %g Hz", obs.NumChannels, obs.StartFrequencyHz, obs.FrequencyIncHz)},
		{"Start (MJD UTC)", strconv.FormatFloat(obs.StartMJDUTC, 'f', 6, 64)},
		{"Time steps", fmt.Sprintf("%d x %g s", obs.NumTimeSteps, obs.TimeIncSec)},
	}
	noise := run.Noise
	if !noise.Enable {
		return append(rows, []string{"Noise", "off"})
	}
	seed := strconv.Itoa(noise.Seed)
	if noise.SeedFromClock {
		seed = "clock"
	}
	return append(rows,
		[]string{"Noise seed", seed},
		[]string{"Noise frequencies", noise.Freq.Spec.String()},
		[]string{"Noise RMS", noise.RMS.Spec.String()},
	)
}

var errHistoryNeedsStore = errors.New("history is only recorded by the sqlite backend (set settings.backend = \"sqlite\")")

func newSettingsHistoryCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List saved revisions of the current profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(func(s *session) error {
				if s.store == nil {
					return errHistoryNeedsStore
				}
				revs, err := s.store.Revisions(cmd.Context(), s.store.Profile())
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, revs)
				}
				out := cmd.OutOrStdout()
				if len(revs) == 0 {
					fmt.Fprintf(out, "Profile %s has not been saved yet\n", s.store.Profile())
					return nil
				}
				rows := make([][]string, 0, len(revs))
				for _, rev := range revs {
					rows = append(rows, []string{
						rev.ID,
						rev.SavedAt.Local().Format(time.DateTime),
						strconv.Itoa(rev.Count),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Revision", "Saved", "Values"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight},
				))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newSettingsProfilesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List saved profiles in the sqlite store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(func(s *session) error {
				if s.store == nil {
					return errHistoryNeedsStore
				}
				profiles, err := s.store.Profiles(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, name := range profiles {
					marker := " "
					if name == s.store.Profile() {
						marker = "*"
					}
					fmt.Fprintf(out, "%s %s\n", marker, name)
				}
				return nil
			})
		},
	}
}
