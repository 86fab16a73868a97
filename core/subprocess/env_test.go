package subprocess

import (
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func ExampleCurrentEnv() {
	env := envListToMap([]string{"A=B", "C=D", "E", "F=G=H"})

	fmt.Printf("A: %q\n", env["A"])
	fmt.Printf("E: %q\n", env["E"])
	fmt.Printf("F: %q\n", env["F"])

	// Output: A: "B"
	// E: ""
	// F: "G=H"
}

func planWithSnapshot(snapshot map[string]string) *envPlan {
	return &envPlan{snapshot: snapshot}
}

func TestEnvPlanInherit(t *testing.T) {
	plan := planWithSnapshot(map[string]string{"HOME": "/home/u"})

	assert.True(t, plan.empty())
	// nil materialization means the child inherits the live environment.
	assert.Nil(t, plan.materialize())
}

func TestEnvPlanSetReplacesWholeEnvironment(t *testing.T) {
	plan := planWithSnapshot(map[string]string{"HOME": "/home/u", "PATH": "/bin"})
	plan.Set(map[string]string{"ONLY": "visible"})

	assert.Equal(t, []string{"ONLY=visible"}, plan.materialize())
}

func TestEnvPlanMergeSeedsFromSnapshot(t *testing.T) {
	plan := planWithSnapshot(map[string]string{"HOME": "/home/u", "LANG": "C"})
	plan.Merge(map[string]string{"LANG": "en_US.UTF-8", "EXTRA": "1"})

	assert.Equal(t,
		[]string{"EXTRA=1", "HOME=/home/u", "LANG=en_US.UTF-8"},
		plan.materialize())
}

func TestEnvPlanAppendKey(t *testing.T) {
	sep := string(os.PathListSeparator)

	cases := []struct {
		name     string
		snapshot map[string]string
		mutate   func(*envPlan)
		expected []string
	}{
		{
			name:     "append joins after existing value",
			snapshot: map[string]string{"PATH": "/bin"},
			mutate:   func(p *envPlan) { p.AppendKey("PATH", "/opt/bin") },
			expected: []string{"PATH=/bin" + sep + "/opt/bin"},
		},
		{
			name:     "prepend joins before existing value",
			snapshot: map[string]string{"PATH": "/bin"},
			mutate:   func(p *envPlan) { p.PrependKey("PATH", "/opt/bin") },
			expected: []string{"PATH=/opt/bin" + sep + "/bin"},
		},
		{
			name:     "append to unset key sets it plain",
			snapshot: map[string]string{},
			mutate:   func(p *envPlan) { p.AppendKey("NEW", "x") },
			expected: []string{"NEW=x"},
		},
		{
			name:     "append to empty value sets it plain",
			snapshot: map[string]string{"NEW": ""},
			mutate:   func(p *envPlan) { p.AppendKey("NEW", "x") },
			expected: []string{"NEW=x"},
		},
		{
			name:     "append layers on an explicit set, not the snapshot",
			snapshot: map[string]string{"PATH": "/snapshot"},
			mutate: func(p *envPlan) {
				p.Set(map[string]string{"PATH": "/set"})
				p.AppendKey("PATH", "/extra")
			},
			expected: []string{"PATH=/set" + sep + "/extra"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			plan := planWithSnapshot(tc.snapshot)
			tc.mutate(plan)

			assert.Equal(t, tc.expected, plan.materialize())
		})
	}
}

func TestEnvPlanSnapshotTakenAtConstruction(t *testing.T) {
	t.Setenv("SUBPROC_SNAP_TEST", "before")
	plan := newEnvPlan()
	t.Setenv("SUBPROC_SNAP_TEST", "after")
	plan.Merge(map[string]string{"OTHER": "1"})

	// Append operations read the snapshot captured at construction, not the
	// live environment.
	got := plan.materialize()
	assert.Contains(t, got, "SUBPROC_SNAP_TEST=before")
	assert.Contains(t, got, "OTHER=1")
}

func TestEnvMapLookupFolding(t *testing.T) {
	m := newEnvMap(map[string]string{"Path": "/bin"})

	v, ok := m.lookup("Path")
	assert.True(t, ok)
	assert.Equal(t, "/bin", v)

	v, ok = m.lookup("PATH")
	if envKeysFold {
		assert.True(t, ok)
		assert.Equal(t, "/bin", v)
	} else {
		assert.False(t, ok)
		assert.Equal(t, "", v)
	}
}

func TestEnvMapStoreFolding(t *testing.T) {
	m := newEnvMap(map[string]string{"Path": "/bin"})
	m.store("PATH", "/other")

	if envKeysFold {
		// One spelling of the variable, not two.
		assert.Equal(t, map[string]string{"Path": "/other"}, m.entries)
	} else {
		assert.Equal(t, map[string]string{"Path": "/bin", "PATH": "/other"}, m.entries)
	}
}

func TestEnvPlanPathValue(t *testing.T) {
	plan := planWithSnapshot(map[string]string{"PATH": "/snapshot-bin"})
	assert.Equal(t, "/snapshot-bin", plan.pathValue())

	plan.Set(map[string]string{"PATH": "/set-bin"})
	assert.Equal(t, "/set-bin", plan.pathValue())
}

func TestEnvPlanExtValue(t *testing.T) {
	plan := planWithSnapshot(map[string]string{"PATHEXT": ".COM;.EXE"})
	assert.Equal(t, ".COM;.EXE", plan.extValue())

	// A wholesale Set without PATHEXT removes it for lookup too.
	plan.Set(map[string]string{"PATH": "/set-bin"})
	assert.Equal(t, "", plan.extValue())
}
