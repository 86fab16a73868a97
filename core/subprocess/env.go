package subprocess

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

// CurrentEnv returns the process environment as a map. Entries without an
// "=" are kept with an empty value; for duplicate keys the last one wins.
func CurrentEnv() map[string]string {
	return envListToMap(os.Environ())
}

func envListToMap(environ []string) map[string]string {
	out := make(map[string]string, len(environ))
	for _, e := range environ {
		split := strings.SplitN(e, "=", 2)
		key, value := split[0], ""
		if len(split) > 1 {
			value = split[1]
		}
		out[key] = value
	}
	return out
}

type envOpKind int

const (
	envSet envOpKind = iota
	envMerge
	envAppendKey
	envPrependKey
)

type envOp struct {
	kind  envOpKind
	env   map[string]string // set, merge
	key   string            // appendKey, prependKey
	value string
}

// envPlan accumulates environment operations for one invocation and
// materializes them into the child's environment.
//
// The process environment is snapshotted once, when the invocation is
// constructed; append operations that run without an explicit Set read from
// that snapshot, not from the live environment.
type envPlan struct {
	snapshot map[string]string
	ops      []envOp
}

func newEnvPlan() *envPlan {
	return &envPlan{snapshot: CurrentEnv()}
}

// Set replaces the child's environment wholesale: only the supplied keys
// are visible to the child.
func (p *envPlan) Set(env map[string]string) {
	p.ops = append(p.ops, envOp{kind: envSet, env: env})
}

// Merge unions the supplied entries into the child's environment; supplied
// keys win on conflict. Without a prior Set the base is the snapshot of the
// parent's environment.
func (p *envPlan) Merge(env map[string]string) {
	p.ops = append(p.ops, envOp{kind: envMerge, env: env})
}

// AppendKey extends one variable with value, joined after the existing
// content by the platform list separator. An unset variable just becomes
// value.
func (p *envPlan) AppendKey(key, value string) {
	p.ops = append(p.ops, envOp{kind: envAppendKey, key: key, value: value})
}

// PrependKey is AppendKey with value placed before the existing content.
func (p *envPlan) PrependKey(key, value string) {
	p.ops = append(p.ops, envOp{kind: envPrependKey, key: key, value: value})
}

// empty reports whether the child should inherit the parent environment
// untouched.
func (p *envPlan) empty() bool { return len(p.ops) == 0 }

// materialize applies the recorded operations and returns the child
// environment as a "key=value" list, or nil when the parent environment is
// inherited as-is.
func (p *envPlan) materialize() []string {
	if p.empty() {
		return nil
	}
	base := p.apply()
	list := make([]string, 0, len(base.entries))
	for k, v := range base.entries {
		list = append(list, fmt.Sprintf("%s=%s", k, v))
	}
	sort.Strings(list)
	return list
}

func (p *envPlan) apply() *envMap {
	// nil base means "seed from the snapshot on first non-Set op".
	var base *envMap
	seed := func() {
		if base == nil {
			base = newEnvMap(p.snapshot)
		}
	}

	for _, op := range p.ops {
		switch op.kind {
		case envSet:
			base = newEnvMap(op.env)
		case envMerge:
			seed()
			for k, v := range op.env {
				base.store(k, v)
			}
		case envAppendKey:
			seed()
			old, ok := base.lookup(op.key)
			if !ok || old == "" {
				base.store(op.key, op.value)
			} else {
				base.store(op.key, old+string(os.PathListSeparator)+op.value)
			}
		case envPrependKey:
			seed()
			old, ok := base.lookup(op.key)
			if !ok || old == "" {
				base.store(op.key, op.value)
			} else {
				base.store(op.key, op.value+string(os.PathListSeparator)+old)
			}
		}
	}
	return base
}

// pathValue resolves PATH for executable lookup, honoring a pending Set.
func (p *envPlan) pathValue() string { return p.resolve("PATH") }

// extValue resolves PATHEXT the same way; empty on platforms without it.
func (p *envPlan) extValue() string { return p.resolve("PATHEXT") }

func (p *envPlan) resolve(key string) string {
	var v string
	if p.empty() {
		v, _ = newEnvMap(p.snapshot).lookup(key)
	} else {
		v, _ = p.apply().lookup(key)
	}
	return v
}

// envMap stores child environment entries under the platform's key
// equivalence. On Windows a folded index maps each upper-cased key to the
// stored spelling, keeping lookups constant-time and keeping one spelling
// per variable.
type envMap struct {
	entries map[string]string
	folded  map[string]string // ToUpper(key) -> stored spelling
}

func newEnvMap(src map[string]string) *envMap {
	m := &envMap{entries: make(map[string]string, len(src))}
	if envKeysFold {
		m.folded = make(map[string]string, len(src))
	}
	for k, v := range src {
		m.store(k, v)
	}
	return m
}

func (m *envMap) lookup(key string) (string, bool) {
	if v, ok := m.entries[key]; ok {
		return v, true
	}
	if m.folded == nil {
		return "", false
	}
	spelling, ok := m.folded[strings.ToUpper(key)]
	if !ok {
		return "", false
	}
	return m.entries[spelling], true
}

func (m *envMap) store(key, value string) {
	if m.folded != nil {
		fold := strings.ToUpper(key)
		if spelling, ok := m.folded[fold]; ok {
			m.entries[spelling] = value
			return
		}
		m.folded[fold] = key
	}
	m.entries[key] = value
}
