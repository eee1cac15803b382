package settings_test

import (
	"errors"
	"reflect"
	"testing"

	"radiosim/internal/settings"
)

func TestParseLogic(t *testing.T) {
	tests := map[string]settings.Logic{
		"":   settings.LogicEQ,
		"eq": settings.LogicEQ,
		"NE": settings.LogicNE,
		">":  settings.LogicGT,
		"ge": settings.LogicGE,
		"<":  settings.LogicLT,
		"<=": settings.LogicLE,
	}
	for raw, want := range tests {
		got, err := settings.ParseLogic(raw)
		if err != nil || got != want {
			t.Fatalf("ParseLogic(%q): got %v %v want %v", raw, got, err, want)
		}
	}
	if _, err := settings.ParseLogic("LIKE"); !errors.Is(err, settings.ErrInvalidLogic) {
		t.Fatalf("expected ErrInvalidLogic, got %v", err)
	}
	if _, err := settings.ParseGroupLogic("XOR"); !errors.Is(err, settings.ErrInvalidLogic) {
		t.Fatalf("expected ErrInvalidLogic, got %v", err)
	}
	if g, _ := settings.ParseGroupLogic("or"); g != settings.GroupOr {
		t.Fatalf("ParseGroupLogic(or): got %v", g)
	}
}

func TestDependencyGroupStructure(t *testing.T) {
	root := settings.NewDependencyGroup(settings.GroupAnd)
	dep, err := settings.NewDependency("noise/enable", "true", "EQ")
	if err != nil {
		t.Fatal(err)
	}
	root.AddDependency(dep)
	child := root.AddChild(settings.GroupOr)
	a, _ := settings.NewDependency("noise/rms", "Data file", "")
	b, _ := settings.NewDependency("noise/freq", "Data file", "")
	child.AddDependency(a)
	child.AddDependency(b)

	if root.Count() != 3 || root.NumDependencies() != 1 || root.NumChildren() != 1 {
		t.Fatalf("unexpected shape: count=%d deps=%d children=%d", root.Count(), root.NumDependencies(), root.NumChildren())
	}
	if child.Parent() != root || root.Child(0) != child {
		t.Fatal("parent link broken")
	}
	if root.Dependency(0).Logic() != settings.LogicEQ {
		t.Fatal("dependency logic lost")
	}
	want := `(noise/rms EQ "Data file" OR noise/freq EQ "Data file") AND noise/enable EQ "true"`
	if root.String() != want {
		t.Fatalf("String:\n got %s\nwant %s", root.String(), want)
	}
	var nilGroup *settings.DependencyGroup
	if nilGroup.Count() != 0 {
		t.Fatal("nil group counts zero")
	}
	if _, err := settings.NewDependency(" ", "x", "EQ"); !errors.Is(err, settings.ErrInvalidDefinition) {
		t.Fatalf("empty key should be rejected, got %v", err)
	}
}

func TestSimpleDependency(t *testing.T) {
	tree := settings.New()
	mustAdd(t, tree, settings.Definition{Key: "obs/num_channels", Type: "IntPositive", Default: "1"})
	b := mustAdd(t, tree, settings.Definition{Key: "obs/frequency_inc_hz", Type: "Double", Default: "0"})
	if err := b.AddDependency("obs/num_channels", "1", "GT"); err != nil {
		t.Fatal(err)
	}

	if tree.DependenciesSatisfied("obs/frequency_inc_hz") {
		t.Fatal("1 > 1 should not hold")
	}
	_ = tree.SetValue("obs/num_channels", "4", false)
	if !tree.DependenciesSatisfied("obs/frequency_inc_hz") {
		t.Fatal("4 > 1 should hold")
	}
	if !tree.DependenciesSatisfied("obs/num_channels") {
		t.Fatal("node without dependencies is satisfied")
	}
	if tree.DependenciesSatisfied("obs/missing") {
		t.Fatal("unknown key is not satisfied")
	}
	item, _ := tree.Item("obs/frequency_inc_hz")
	if item.NumDependencies() != 1 {
		t.Fatalf("NumDependencies: got %d", item.NumDependencies())
	}
}

func TestComparisonOperators(t *testing.T) {
	tests := []struct {
		logic string
		value string
		want  bool
	}{
		{"EQ", "5", true},
		{"NE", "5", false},
		{"GT", "4", true},
		{"GE", "5", true},
		{"LT", "5", false},
		{"LE", "6", true},
	}
	for _, tt := range tests {
		t.Run(tt.logic, func(t *testing.T) {
			tree := settings.New()
			mustAdd(t, tree, settings.Definition{Key: "n", Type: "Int", Default: "5"})
			b := mustAdd(t, tree, settings.Definition{Key: "d", Type: "Int"})
			if err := b.AddDependency("n", tt.value, tt.logic); err != nil {
				t.Fatal(err)
			}
			if got := tree.DependenciesSatisfied("d"); got != tt.want {
				t.Fatalf("n %s %s: got %v want %v", tt.logic, tt.value, got, tt.want)
			}
		})
	}
}

func TestDependencyComparesTypedValues(t *testing.T) {
	tree := settings.New()
	mustAdd(t, tree, settings.Definition{Key: "noise/enable", Type: "Bool", Default: "false"})
	mustAdd(t, tree, settings.Definition{Key: "noise/freq", Type: "OptionList", Default: "Range", Params: "Telescope model,Data file,Range"})
	onBool := mustAdd(t, tree, settings.Definition{Key: "a", Type: "Int"})
	_ = onBool.AddDependency("noise/enable", "YES", "EQ")
	onOption := mustAdd(t, tree, settings.Definition{Key: "b", Type: "Int"})
	_ = onOption.AddDependency("noise/freq", "data file", "EQ")

	if tree.DependenciesSatisfied("a") || tree.DependenciesSatisfied("b") {
		t.Fatal("dependencies should not hold at defaults")
	}
	_ = tree.SetValue("noise/enable", "on", false)
	_ = tree.SetValue("noise/freq", "Data", false)
	if !tree.DependenciesSatisfied("a") {
		t.Fatal("bool literal should compare by value")
	}
	if !tree.DependenciesSatisfied("b") {
		t.Fatal("option literal should compare case-insensitively")
	}
}

func TestUnparsableLiteralIsUnsatisfied(t *testing.T) {
	tree := settings.New()
	mustAdd(t, tree, settings.Definition{Key: "n", Type: "Int", Default: "0"})
	b := mustAdd(t, tree, settings.Definition{Key: "d", Type: "Int"})
	_ = b.AddDependency("n", "zero", "EQ")

	if tree.DependenciesSatisfied("d") {
		t.Fatal("literal that does not parse as Int should not hold")
	}
	if tree.DependencyWarnings() != 1 {
		t.Fatalf("DependencyWarnings: got %d want 1", tree.DependencyWarnings())
	}
}

func TestMissingDependencyKeyFailsOpen(t *testing.T) {
	tree := settings.New()
	b := mustAdd(t, tree, settings.Definition{Key: "d", Type: "Double", Required: true})
	_ = b.AddDependency("not/declared", "1", "EQ")

	if !tree.DependenciesSatisfied("d") {
		t.Fatal("missing dependency key should be treated as satisfied")
	}
	if tree.DependencyWarnings() != 1 {
		t.Fatalf("DependencyWarnings: got %d want 1", tree.DependencyWarnings())
	}
	if !tree.IsCritical("d") {
		t.Fatal("required setting with a fail-open dependency is critical")
	}
}

func TestDependenciesPropagateFromAncestors(t *testing.T) {
	tree := settings.New()
	mustAdd(t, tree, settings.Definition{Key: "noise/enable", Type: "Bool", Default: "false"})
	group := mustAdd(t, tree, settings.Definition{Key: "noise/freq", Type: "OptionList", Default: "Range", Params: "Data file,Range"})
	_ = group.AddDependency("noise/enable", "true", "EQ")
	mustAdd(t, tree, settings.Definition{Key: "noise/freq/number", Type: "IntPositive", Default: "1"})

	if tree.DependenciesSatisfied("noise/freq/number") {
		t.Fatal("child should inherit the parent's unmet dependency")
	}
	_ = tree.SetValue("noise/enable", "true", false)
	if !tree.DependenciesSatisfied("noise/freq/number") {
		t.Fatal("child should be active once the parent is")
	}
}

func TestNestedGroups(t *testing.T) {
	tree := settings.New()
	mustAdd(t, tree, settings.Definition{Key: "noise/enable", Type: "Bool", Default: "true"})
	mustAdd(t, tree, settings.Definition{Key: "noise/freq", Type: "OptionList", Default: "Range", Params: "Data file,Range"})
	mustAdd(t, tree, settings.Definition{Key: "noise/rms", Type: "OptionList", Default: "RMS", Params: "Data file,RMS"})
	b := mustAdd(t, tree, settings.Definition{Key: "noise/rms/file", Type: "InputFile", Required: true})

	// enable AND (freq == Data file OR rms == Data file)
	if err := b.BeginDependencyGroup("AND"); err != nil {
		t.Fatal(err)
	}
	_ = b.AddDependency("noise/enable", "true", "EQ")
	if err := b.BeginDependencyGroup("OR"); err != nil {
		t.Fatal(err)
	}
	_ = b.AddDependency("noise/freq", "Data file", "EQ")
	_ = b.AddDependency("noise/rms", "Data file", "EQ")
	b.EndDependencyGroup()
	b.EndDependencyGroup()

	root := b.Node().DependencyTree()
	if root.Logic() != settings.GroupAnd || root.NumChildren() != 1 || root.Count() != 3 {
		t.Fatalf("unexpected dependency tree %s", root)
	}

	cases := []struct {
		enable, freq, rms string
		want              bool
	}{
		{"true", "Range", "RMS", false},
		{"true", "Data file", "RMS", true},
		{"true", "Range", "Data file", true},
		{"false", "Data file", "Data file", false},
	}
	for _, c := range cases {
		_ = tree.SetValue("noise/enable", c.enable, false)
		_ = tree.SetValue("noise/freq", c.freq, false)
		_ = tree.SetValue("noise/rms", c.rms, false)
		if got := tree.DependenciesSatisfied("noise/rms/file"); got != c.want {
			t.Fatalf("enable=%s freq=%s rms=%s: got %v want %v", c.enable, c.freq, c.rms, got, c.want)
		}
		if got := tree.IsCritical("noise/rms/file"); got != c.want {
			t.Fatalf("IsCritical enable=%s freq=%s rms=%s: got %v want %v", c.enable, c.freq, c.rms, got, c.want)
		}
	}
}

func TestInvalidGroupLogicRejected(t *testing.T) {
	tree := settings.New()
	b := mustAdd(t, tree, settings.Definition{Key: "x", Type: "Int"})
	if err := b.BeginDependencyGroup("NAND"); !errors.Is(err, settings.ErrInvalidLogic) {
		t.Fatalf("expected ErrInvalidLogic, got %v", err)
	}
	if err := b.AddDependency("y", "1", "~"); !errors.Is(err, settings.ErrInvalidLogic) {
		t.Fatalf("expected ErrInvalidLogic, got %v", err)
	}
	if b.Node().DependencyTree() != nil {
		t.Fatal("rejected logic must not create a group")
	}
}

func TestCriticality(t *testing.T) {
	tree := settings.New()
	mustAdd(t, tree, settings.Definition{Key: "obs/start_frequency_hz", Type: "Double", Required: true})
	mustAdd(t, tree, settings.Definition{Key: "noise/enable", Type: "Bool", Default: "false"})
	b := mustAdd(t, tree, settings.Definition{Key: "noise/freq/file", Type: "InputFile", Required: true})
	_ = b.AddDependency("noise/enable", "true", "EQ")

	if !tree.IsCritical("obs/start_frequency_hz") || !tree.IsCritical("obs") {
		t.Fatal("unset required setting makes itself and its parent critical")
	}
	if tree.IsCritical("noise") {
		t.Fatal("inactive required setting is not critical")
	}
	if got := tree.CriticalKeys(); !reflect.DeepEqual(got, []string{"obs/start_frequency_hz"}) {
		t.Fatalf("CriticalKeys: got %v", got)
	}

	_ = tree.SetValue("noise/enable", "true", false)
	if !tree.IsCritical("noise") {
		t.Fatal("required setting becomes critical once active")
	}
	_ = tree.SetValue("obs/start_frequency_hz", "1e8", false)
	_ = tree.SetValue("noise/freq/file", "noise.txt", false)
	if tree.AnyCritical() {
		t.Fatalf("no critical settings expected, got %v", tree.CriticalKeys())
	}
	if tree.IsCritical("nowhere") {
		t.Fatal("unknown key is not critical")
	}
}

func TestDependencyKeysAreAbsoluteInsideGroups(t *testing.T) {
	tree := settings.New()
	tree.BeginGroup("interferometer")
	mustAdd(t, tree, settings.Definition{Key: "noise/enable", Type: "Bool", Default: "true"})
	b := mustAdd(t, tree, settings.Definition{Key: "noise/seed", Type: "RandomSeed", Default: "1"})
	_ = b.AddDependency("interferometer/noise/enable", "true", "EQ")
	if !tree.DependenciesSatisfied("noise/seed") {
		t.Fatal("expected satisfied dependency through group prefix")
	}
	tree.EndGroup()
	if tree.DependencyWarnings() != 0 {
		t.Fatalf("absolute dependency key should resolve, warnings=%d", tree.DependencyWarnings())
	}
}
