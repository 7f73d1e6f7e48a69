package depgraph

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/matzehuels/keygraph/pkg/keychain"
)

type testObj struct {
	kc       keychain.KeyChain
	discover func(s *Sink) error
	calls    int
}

func (o *testObj) KeyChain() keychain.KeyChain {
	if o == nil {
		return keychain.KeyChain{}
	}
	return o.kc
}

func (o *testObj) Discover(s *Sink) error {
	o.calls++
	if o.discover == nil {
		return nil
	}
	return o.discover(s)
}

type fixture struct {
	root keychain.KeyChain
	objs map[string]*testObj
}

func newFixture(names ...string) *fixture {
	f := &fixture{
		root: keychain.NewRoot("Test", "t", keychain.SingletonKey{Type: "Root"}),
		objs: make(map[string]*testObj),
	}
	for _, name := range names {
		f.objs[name] = &testObj{kc: f.root.Child(keychain.NamedKey{Type: "Obj", Name: name})}
	}
	return f
}

func (f *fixture) get(name string) *testObj { return f.objs[name] }

func names(e *Engine) []string {
	var out []string
	for n := range e.Ordered() {
		out = append(out, n.KeyChain().Key().(keychain.NamedKey).Name)
	}
	return out
}

// assertTopological checks that every node appears once and after all of
// its ancestors.
func assertTopological(t *testing.T, e *Engine) {
	t.Helper()
	pos := make(map[*Node]int)
	for n := range e.Ordered() {
		if _, dup := pos[n]; dup {
			t.Fatalf("node %s yielded twice", n.KeyChain())
		}
		pos[n] = len(pos)
	}
	if len(pos) != e.Len() {
		t.Fatalf("yielded %d nodes, want %d", len(pos), e.Len())
	}
	for n, i := range pos {
		for _, a := range n.AncestorEdges() {
			if pos[a.Node] >= i {
				t.Errorf("%s yielded before its ancestor %s", n.KeyChain(), a.Node.KeyChain())
			}
		}
	}
}

func TestListOrderSimple(t *testing.T) {
	f := newFixture("server", "login", "db", "user")
	e := New(IntentSerialize)
	e.Link(f.get("server"), f.get("db"), ContainedChild)
	e.Link(f.get("server"), f.get("login"), ContainedChild)
	e.Link(f.get("db"), f.get("user"), ContainedChild)
	e.Link(f.get("login"), f.get("user"), StrongReference)

	got := names(e)
	want := []string{"server", "db", "login", "user"}
	if !slices.Equal(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
	assertTopological(t, e)
}

func TestListOrderSharedDescendant(t *testing.T) {
	// X must not be yielded before A even though D, reachable through a
	// second start node, is shared.
	f := newFixture("S", "A", "A1", "C1", "D", "X")
	e := New(IntentCreate)
	e.Link(f.get("S"), f.get("A"), ContainedChild)
	e.Link(f.get("A1"), f.get("A"), ContainedChild)
	e.Link(f.get("A1"), f.get("C1"), ContainedChild)
	e.Link(f.get("C1"), f.get("D"), ContainedChild)
	e.Link(f.get("A"), f.get("X"), ContainedChild)
	e.Link(f.get("X"), f.get("D"), ContainedChild)

	assertTopological(t, e)
}

func TestListOrderRandomDAG(t *testing.T) {
	for seed := uint64(1); seed <= 20; seed++ {
		t.Run(fmt.Sprintf("seed=%d", seed), func(t *testing.T) {
			r := rand.New(rand.NewPCG(seed, 7))
			const n = 40
			labels := make([]string, n)
			for i := range labels {
				labels[i] = fmt.Sprintf("n%02d", i)
			}
			f := newFixture(labels...)

			type pair struct{ from, to int }
			var edges []pair
			for i := 0; i < n; i++ {
				for j := i + 1; j < n; j++ {
					if r.IntN(8) == 0 {
						edges = append(edges, pair{i, j})
					}
				}
			}
			r.Shuffle(len(edges), func(i, j int) { edges[i], edges[j] = edges[j], edges[i] })

			e := New(IntentCreate)
			perm := r.Perm(n)
			for _, i := range perm {
				e.Add(f.get(labels[i]))
			}
			for _, p := range edges {
				rel := ContainedChild
				if r.IntN(2) == 0 {
					rel = StrongReference
				}
				e.Link(f.get(labels[p.from]), f.get(labels[p.to]), rel)
			}
			assertTopological(t, e)
		})
	}
}

func TestReferenceCycleTerminates(t *testing.T) {
	f := newFixture("A", "B")
	a, b := f.get("A"), f.get("B")
	a.discover = func(s *Sink) error {
		s.Add(Inbound, b, StrongReference, false)
		return nil
	}
	b.discover = func(s *Sink) error {
		s.Add(Inbound, a, StrongReference, false)
		return nil
	}

	e := New(IntentSerialize)
	e.AddRoot(a)
	if err := e.Discover(context.Background()); err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	for _, o := range []*testObj{a, b} {
		n, ok := e.Lookup(o)
		if !ok || !n.Discovered {
			t.Errorf("%s Discovered = false", o.kc)
		}
		if o.calls != 1 {
			t.Errorf("%s discovered %d times, want 1", o.kc, o.calls)
		}
	}
	got := names(e)
	slices.Sort(got)
	if !slices.Equal(got, []string{"A", "B"}) {
		t.Errorf("order = %v, want each of A and B once", got)
	}
}

func TestSelfLoop(t *testing.T) {
	f := newFixture("A", "B")
	e := New(IntentSerialize)
	e.Link(f.get("A"), f.get("A"), StrongReference)
	e.Link(f.get("A"), f.get("B"), ContainedChild)

	got := names(e)
	if !slices.Equal(got, []string{"A", "B"}) {
		t.Errorf("order = %v, want [A B]", got)
	}
}

func TestWeakReferenceStoresNoEdge(t *testing.T) {
	f := newFixture("A", "B")
	e := New(IntentDrop)
	e.Link(f.get("A"), f.get("B"), WeakReference)
	e.Link(f.get("B"), f.get("A"), WeakReference)

	if e.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", e.Len())
	}
	for _, n := range e.Nodes() {
		if len(n.AncestorEdges()) != 0 || len(n.ChildEdges()) != 0 {
			t.Errorf("%s has edges, want none", n.KeyChain())
		}
	}
}

func TestLinkIgnoresAbsentEndpoints(t *testing.T) {
	f := newFixture("A")
	e := New(IntentCreate)

	var missing *testObj
	e.Link(nil, f.get("A"), ContainedChild)
	e.Link(f.get("A"), missing, StrongReference)
	e.Link(f.get("A"), &testObj{}, StrongReference)

	if e.Len() != 0 {
		t.Errorf("Len() = %d, want 0", e.Len())
	}
	if n := e.Add(nil); n != nil {
		t.Errorf("Add(nil) = %v, want nil", n)
	}
}

func TestDuplicateEdgesMerge(t *testing.T) {
	f := newFixture("A", "B")
	e := New(IntentCreate)
	e.Link(f.get("A"), f.get("B"), StrongReference)
	e.Link(f.get("A"), f.get("B"), ContainedChild)

	n, _ := e.Lookup(f.get("B"))
	edges := n.AncestorEdges()
	if len(edges) != 1 || !edges[0].Physical {
		t.Errorf("AncestorEdges() = %+v, want one physical edge", edges)
	}
}

func TestDiscoverErrorPropagates(t *testing.T) {
	boom := errors.New("connection lost")
	f := newFixture("A", "B")
	f.get("A").discover = func(s *Sink) error {
		s.Add(Inbound, f.get("B"), ContainedChild, false)
		return nil
	}
	f.get("B").discover = func(*Sink) error { return boom }

	e := New(IntentSerialize)
	e.AddRoot(f.get("A"))
	if err := e.Discover(context.Background()); err != boom {
		t.Errorf("Discover() error = %v, want the callback error unchanged", err)
	}
}

func TestDiscoverReentrancy(t *testing.T) {
	f := newFixture("A", "B")
	a := f.get("A")
	a.discover = func(s *Sink) error {
		s.Add(None, a, WeakReference, false)
		s.Add(Inbound, f.get("B"), ContainedChild, false)
		return nil
	}

	e := New(IntentSerialize)
	e.AddRoot(a)
	if err := e.Discover(context.Background()); err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if a.calls != 1 {
		t.Errorf("A discovered %d times, want 1", a.calls)
	}
	if f.get("B").calls != 1 {
		t.Errorf("B discovered %d times, want 1", f.get("B").calls)
	}
}

func TestSinkDirections(t *testing.T) {
	f := newFixture("self", "child", "parent", "known")
	self := f.get("self")
	var gotIntent Intent
	var gotMode Mode
	self.discover = func(s *Sink) error {
		gotIntent, gotMode = s.Intent(), s.Mode()
		s.Add(Inbound, f.get("child"), ContainedChild, false)
		s.Add(Outbound, f.get("parent"), StrongReference, false)
		s.AddAll(Inbound, RequiredChild, true, f.get("known"))
		return nil
	}

	e := New(IntentAlter, WithMode(ModeUses))
	e.AddRoot(self)
	if err := e.Discover(context.Background()); err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if gotIntent != IntentAlter || gotMode != ModeUses {
		t.Errorf("sink intent/mode = %v/%v, want alter/uses", gotIntent, gotMode)
	}

	n, _ := e.Lookup(self)
	var children, ancestors []string
	for _, ed := range n.ChildEdges() {
		children = append(children, ed.Node.KeyChain().Key().(keychain.NamedKey).Name)
	}
	for _, ed := range n.AncestorEdges() {
		ancestors = append(ancestors, ed.Node.KeyChain().Key().(keychain.NamedKey).Name)
	}
	if !slices.Equal(children, []string{"child", "known"}) {
		t.Errorf("children = %v", children)
	}
	if !slices.Equal(ancestors, []string{"parent"}) {
		t.Errorf("ancestors = %v", ancestors)
	}
	if f.get("known").calls != 0 {
		t.Error("target reported as discovered must not be discovered again")
	}
	if f.get("child").calls != 1 {
		t.Error("new target must be discovered")
	}
}

func TestTreeEnumeration(t *testing.T) {
	f := newFixture("server", "login", "db", "user")
	e := New(IntentSerialize)
	e.Link(f.get("server"), f.get("db"), ContainedChild)
	e.Link(f.get("server"), f.get("login"), ContainedChild)
	e.Link(f.get("db"), f.get("user"), RequiredChild)
	e.Link(f.get("login"), f.get("user"), StrongReference)

	var roots []*Node
	for n := range e.Roots() {
		roots = append(roots, n)
	}
	if len(roots) != 1 || roots[0].Object() != f.get("server") {
		t.Fatalf("Roots() = %v, want [server]", roots)
	}

	login, _ := e.Lookup(f.get("login"))
	for range login.Children() {
		t.Error("reference edge must not appear as a physical child")
	}
	user, _ := e.Lookup(f.get("user"))
	var anc []Object
	for a := range user.Ancestors() {
		anc = append(anc, a.Object())
	}
	if len(anc) != 1 || anc[0] != f.get("db") {
		t.Errorf("user physical ancestors = %v, want [db]", anc)
	}
}

func TestInvalidateAfterRename(t *testing.T) {
	f := newFixture("A")
	e := New(IntentRename)
	e.Add(f.get("A"))

	if err := f.get("A").kc.SetLeafKey(keychain.NamedKey{Type: "Obj", Name: "renamed"}); err != nil {
		t.Fatal(err)
	}
	e.Invalidate()
	if _, ok := e.Lookup(f.get("A")); !ok {
		t.Error("Lookup() after Invalidate() should find the renamed object")
	}
	if e.Add(f.get("A")); e.Len() != 1 {
		t.Errorf("Len() = %d, want 1", e.Len())
	}
}

func TestIteratorReset(t *testing.T) {
	f := newFixture("A", "B")
	e := New(IntentCreate)
	e.Link(f.get("A"), f.get("B"), ContainedChild)

	it := e.List()
	count := 0
	for it.Next() {
		count++
	}
	if it.Next() || it.Node() != nil {
		t.Error("exhausted iterator should stay exhausted")
	}
	it.Reset()
	for it.Next() {
		count++
	}
	if count != 4 {
		t.Errorf("visited %d nodes across two passes, want 4", count)
	}
}

func TestStrings(t *testing.T) {
	if ContainedChild.String() != "ContainedChild" || WeakReference.String() != "WeakReference" {
		t.Error("Relation.String() mismatch")
	}
	if i, ok := ParseIntent("serialize"); !ok || i != IntentSerialize {
		t.Errorf("ParseIntent() = %v, %v", i, ok)
	}
	if _, ok := ParseIntent("bogus"); ok {
		t.Error("ParseIntent(bogus) ok = true")
	}
	if ModeUsedBy.String() != "usedby" {
		t.Error("Mode.String() mismatch")
	}
	if m, ok := ParseMode("uses"); !ok || m != ModeUses {
		t.Errorf("ParseMode() = %v, %v", m, ok)
	}
	if _, ok := ParseMode("most"); ok {
		t.Error("ParseMode(most) ok = true")
	}
}

func TestBuild(t *testing.T) {
	f := newFixture("server", "db")
	f.get("server").discover = func(s *Sink) error {
		s.Add(Inbound, f.get("db"), ContainedChild, false)
		return nil
	}
	e, err := Build(context.Background(), IntentCreate, []Object{f.get("server")}, WithMode(ModeChildren))
	if err != nil {
		t.Fatal(err)
	}
	if e.Len() != 2 || e.Mode() != ModeChildren {
		t.Errorf("Build() = %d nodes, mode %s", e.Len(), e.Mode())
	}

	boom := errors.New("boom")
	f.get("db").discover = func(*Sink) error { return boom }
	if _, err := Build(context.Background(), IntentCreate, []Object{f.get("db")}); !errors.Is(err, boom) {
		t.Errorf("Build() error = %v, want boom", err)
	}
}
