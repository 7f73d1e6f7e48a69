package keychain

import (
	"errors"
	"testing"
)

func server(name string) KeyChain {
	return NewRoot("Catalog", name, NamedKey{Type: "Server", Name: name})
}

func TestChildAndKeys(t *testing.T) {
	root := server("prod")
	db := root.Child(NamedKey{Type: "Database", Name: "sales"})
	tbl := db.Child(SchemaNamedKey{Type: "Table", Schema: "dbo", Name: "Orders"})

	if got := tbl.Depth(); got != 3 {
		t.Errorf("Depth() = %d, want 3", got)
	}
	if !root.IsRoot() || tbl.IsRoot() {
		t.Error("IsRoot() mismatch")
	}
	parent, ok := tbl.Parent()
	if !ok || parent != db {
		t.Errorf("Parent() = %v, %v, want %v", parent, ok, db)
	}
	if _, ok := root.Parent(); ok {
		t.Error("root Parent() ok = true, want false")
	}

	want := "Server[@Name='prod']/Database[@Name='sales']/Table[@Name='Orders' and @Schema='dbo']"
	if got := tbl.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestAncestor(t *testing.T) {
	root := server("prod")
	k := root.Child(NamedKey{Type: "Database", Name: "sales"})
	kx := k.Child(NamedKey{Type: "User", Name: "bob"})
	other := root.Child(NamedKey{Type: "Database", Name: "hr"})

	tests := []struct {
		name string
		a, b KeyChain
		want bool
	}{
		{"parent of child", k, kx, true},
		{"root of grandchild", root, kx, true},
		{"child of parent", kx, k, false},
		{"equal depth distinct", k, other, false},
		{"equal depth distinct reversed", other, k, false},
		{"same handle", k, k, true},
		{"unrelated branch", other, kx, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.IsClientAncestorOf(tt.b); got != tt.want {
				t.Errorf("IsClientAncestorOf() = %v, want %v", got, tt.want)
			}
			if got := tt.a.IsServerAncestorOf(tt.b); got != tt.want {
				t.Errorf("IsServerAncestorOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAncestorReflexiveOnlyByIdentity(t *testing.T) {
	root := server("prod")
	a := root.Child(NamedKey{Type: "Login", Name: "sa"})
	b := root.Child(NamedKey{Type: "Login", Name: "sa"})

	if !a.ClientEquals(b) {
		t.Fatal("ClientEquals() = false, want true")
	}
	if a.IsClientAncestorOf(b) || b.IsClientAncestorOf(a) {
		t.Error("value-equal chains must not be ancestors of each other")
	}
}

func TestClientAndServerEquals(t *testing.T) {
	t1 := server("prod").Child(NamedKey{Type: "Login", Name: "sa"})
	t2 := server("prod").Child(NamedKey{Type: "Login", Name: "sa"})
	t3 := server("test").Child(NamedKey{Type: "Login", Name: "sa"})

	if t1.ClientEquals(t2) {
		t.Error("ClientEquals() across trees = true, want false")
	}
	if !t1.ServerEquals(t2) {
		t.Error("ServerEquals() with same names = false, want true")
	}
	if t1.ServerEquals(t3) {
		t.Error("ServerEquals() with different instance = true, want false")
	}
	if t1.Hash() != t2.Hash() {
		t.Error("Hash() differs for server-equal chains")
	}
	if !t1.IsServerAncestorOf(t2.Child(NamedKey{Type: "Role", Name: "r"})) {
		t.Error("IsServerAncestorOf() across trees = false, want true")
	}
	if t1.IsClientAncestorOf(t2.Child(NamedKey{Type: "Role", Name: "r"})) {
		t.Error("IsClientAncestorOf() across trees = true, want false")
	}
}

func TestHashSkipsRoot(t *testing.T) {
	prod := server("prod").Child(NamedKey{Type: "Login", Name: "sa"})
	test := server("test").Child(NamedKey{Type: "Login", Name: "sa"})
	if prod.Hash() != test.Hash() {
		t.Error("Hash() depends on the root level")
	}
	if got := server("prod").Hash(); got != 0 {
		t.Errorf("root Hash() = %d, want 0", got)
	}
	other := server("prod").Child(NamedKey{Type: "Login", Name: "app"})
	if prod.Hash() == other.Hash() {
		t.Error("Hash() equal for different keys")
	}
}

func TestEqualsIgnoresDepthMismatch(t *testing.T) {
	root := server("prod")
	a := root.Child(NamedKey{Type: "Database", Name: "x"})
	b := a.Child(NamedKey{Type: "Database", Name: "x"})
	if a.ClientEquals(b) {
		t.Error("ClientEquals() with different depth = true, want false")
	}
}

func TestZeroChain(t *testing.T) {
	var z KeyChain
	if !z.IsZero() {
		t.Fatal("IsZero() = false")
	}
	if z.ClientEquals(z) || z.ServerEquals(z) || z.IsClientAncestorOf(z) {
		t.Error("zero chain must not compare equal")
	}
	if z.Depth() != 0 || z.Hash() != 0 || z.String() != "" {
		t.Error("zero chain accessors must return zero values")
	}
	if err := z.SetLeafKey(NamedKey{Type: "X"}); !errors.Is(err, ErrZeroChain) {
		t.Errorf("SetLeafKey() = %v, want ErrZeroChain", err)
	}
}

func TestSetLeafKeyRadiates(t *testing.T) {
	root := server("prod")
	db := root.Child(NamedKey{Type: "Database", Name: "old"})
	tbl := db.Child(SchemaNamedKey{Type: "Table", Schema: "dbo", Name: "T"})
	alias := db

	if err := db.SetLeafKey(NamedKey{Type: "Database", Name: "new"}); err != nil {
		t.Fatalf("SetLeafKey() error = %v", err)
	}
	if got := alias.Key().(NamedKey).Name; got != "new" {
		t.Errorf("alias key = %q, want new", got)
	}
	want := "Server[@Name='prod']/Database[@Name='new']/Table[@Name='T' and @Schema='dbo']"
	if got := tbl.String(); got != want {
		t.Errorf("descendant String() = %q, want %q", got, want)
	}
	if err := db.SetLeafKey(NamedKey{Type: "Login", Name: "x"}); !errors.Is(err, ErrKeyType) {
		t.Errorf("SetLeafKey() with other type = %v, want ErrKeyType", err)
	}
}

func TestSetParent(t *testing.T) {
	root := server("prod")
	a := root.Child(NamedKey{Type: "Database", Name: "a"})
	b := root.Child(NamedKey{Type: "Database", Name: "b"})
	u := a.Child(NamedKey{Type: "User", Name: "u"})
	uu := u.Child(NamedKey{Type: "Grant", Name: "g"})

	if err := u.SetParent(b); err != nil {
		t.Fatalf("SetParent() error = %v", err)
	}
	if !b.IsClientAncestorOf(uu) {
		t.Error("moved subtree not under new parent")
	}
	if a.IsClientAncestorOf(uu) {
		t.Error("moved subtree still under old parent")
	}

	tests := []struct {
		name   string
		child  KeyChain
		parent KeyChain
		want   error
	}{
		{"cycle", u, uu, ErrCycle},
		{"self", u, u, ErrCycle},
		{"root", root, a, ErrMoveRoot},
		{"foreign", u, server("prod"), ErrForeignTree},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.child.SetParent(tt.parent); !errors.Is(err, tt.want) {
				t.Errorf("SetParent() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestKeyEquality(t *testing.T) {
	tests := []struct {
		name string
		a, b Key
		want bool
	}{
		{"named equal", NamedKey{"Login", "a"}, NamedKey{"Login", "a"}, true},
		{"named differ", NamedKey{"Login", "a"}, NamedKey{"Login", "b"}, false},
		{"named other type", NamedKey{"Login", "a"}, NamedKey{"User", "a"}, false},
		{"schema equal", SchemaNamedKey{"Table", "t", "dbo"}, SchemaNamedKey{"Table", "t", "dbo"}, true},
		{"schema differ", SchemaNamedKey{"Table", "t", "dbo"}, SchemaNamedKey{"Table", "t", "sys"}, false},
		{"shape differs", NamedKey{"Table", "t"}, SchemaNamedKey{"Table", "t", ""}, false},
		{"singleton", SingletonKey{"Settings"}, SingletonKey{"Settings"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
			if tt.want && tt.a.Hash() != tt.b.Hash() {
				t.Error("equal keys must hash equally")
			}
		})
	}
}

func TestFragmentQuoting(t *testing.T) {
	k := NamedKey{Type: "Login", Name: "o'brien"}
	if got, want := k.Fragment(), "Login[@Name='o''brien']"; got != want {
		t.Errorf("Fragment() = %q, want %q", got, want)
	}
}
