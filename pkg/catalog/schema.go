package catalog

import (
	"fmt"
	"sync"
	"time"

	"github.com/matzehuels/keygraph/pkg/metadata"
)

// Domain identity.
const (
	DomainName = "Catalog"
	Qualifier  = "cat"

	// Version is the current logical schema version. Version 1 documents
	// mapped users to logins by a LoginName property instead of a
	// reference.
	Version = 2

	namespace = "keygraph.catalog"
)

var registry = sync.OnceValue(func() *metadata.Registry {
	r := metadata.NewRegistry()
	r.MustRegister(serverSchema(), loginSchema(), databaseSchema(), tableSchema(), userSchema(), settingsSchema())
	return r
})

// Registry returns the schemas of all catalog types.
func Registry() *metadata.Registry { return registry() }

// Domain describes the catalog domain at its current version.
func Domain() *metadata.Domain {
	return &metadata.Domain{
		Name:      DomainName,
		Qualifier: Qualifier,
		Version:   Version,
		Registry:  Registry(),
	}
}

func errPropertyNotAvailable(name string) error {
	return fmt.Errorf("%s: %w", name, metadata.ErrPropertyNotAvailable)
}

func property[T, V any](name string, flags metadata.Flag, get func(*T) V, set func(*T, V) error) *metadata.Relation {
	var zero V
	r := &metadata.Relation{
		Name:     name,
		Kind:     metadata.Property,
		Flags:    flags,
		WireType: metadata.WireTypeOf(zero),
		Get:      func(obj any) any { return get(obj.(*T)) },
	}
	if set != nil {
		r.Set = func(obj, v any) error {
			x, ok := v.(V)
			if !ok {
				return fmt.Errorf("%s: value is %T, want %T", name, v, zero)
			}
			return set(obj.(*T), x)
		}
	}
	return r
}

func field[T, V any](name string, ptr func(*T) *V) *metadata.Relation {
	return property(name, metadata.Data,
		func(t *T) V { return *ptr(t) },
		func(t *T, v V) error { *ptr(t) = v; return nil })
}

func reference[T, R any](name, elem string, ptr func(*T) **R) *metadata.Relation {
	return &metadata.Relation{
		Name:        name,
		Kind:        metadata.Reference,
		ElementType: elem,
		Get: func(obj any) any {
			if p := *ptr(obj.(*T)); p != nil {
				return p
			}
			return nil
		},
		Set: func(obj, v any) error {
			target, ok := v.(*R)
			if !ok {
				return fmt.Errorf("%s: target is %T", name, v)
			}
			*ptr(obj.(*T)) = target
			return nil
		},
	}
}

func collection[T, M any](name, elem string, list func(*T) *[]*M) *metadata.Relation {
	return &metadata.Relation{
		Name:        name,
		Kind:        metadata.ChildContainer,
		ElementType: elem,
		Members: func(obj any) []any {
			members := *list(obj.(*T))
			out := make([]any, len(members))
			for i, m := range members {
				out[i] = m
			}
			return out
		},
		AddMember: func(obj, member any) error {
			m, ok := member.(*M)
			if !ok {
				return fmt.Errorf("%s: member is %T", name, member)
			}
			*list(obj.(*T)) = append(*list(obj.(*T)), m)
			return nil
		},
	}
}

func parentSetter[T, P any](link func(*T, *P) error) func(obj, parent any) error {
	return func(obj, parent any) error {
		p, ok := parent.(*P)
		if !ok {
			var want *P
			return fmt.Errorf("parent of %T is %T, want %T", obj, parent, want)
		}
		return link(obj.(*T), p)
	}
}

var parentRelation = &metadata.Relation{Name: "Parent", Kind: metadata.Parent}

func serverSchema() *metadata.Schema {
	return &metadata.Schema{
		Name:     "Server",
		FullName: namespace + ".Server",
		Keys:     []string{"Name"},
		New:      func() any { return &Server{} },
		Relations: []*metadata.Relation{
			collection("Logins", "Login", func(s *Server) *[]*Login { return &s.logins }),
			collection("Databases", "Database", func(s *Server) *[]*Database { return &s.databases }),
			{
				Name:        "Settings",
				Kind:        metadata.ChildObject,
				ElementType: "Settings",
				Get:         func(obj any) any { return obj.(*Server).settings },
				Set: func(obj, v any) error {
					st, ok := v.(*Settings)
					if !ok {
						return fmt.Errorf("Settings: value is %T", v)
					}
					obj.(*Server).settings = st
					return nil
				},
			},
			property("Name", metadata.Data|metadata.Identity,
				func(s *Server) string { return s.name }, (*Server).SetName),
			field("Edition", func(s *Server) *string { return &s.Edition }),
			field("Version", func(s *Server) *string { return &s.Version }),
			field("Collation", func(s *Server) *string { return &s.Collation }),
		},
	}
}

func loginSchema() *metadata.Schema {
	return &metadata.Schema{
		Name:      "Login",
		FullName:  namespace + ".Login",
		Keys:      []string{"Name"},
		New:       func() any { return &Login{} },
		SetParent: parentSetter((*Login).setParent),
		IsSystem:  func(obj any) bool { return obj.(*Login).System },
		Relations: []*metadata.Relation{
			parentRelation,
			property("Name", metadata.Data|metadata.Identity,
				func(l *Login) string { return l.name }, (*Login).SetName),
			field("DefaultDatabase", func(l *Login) *string { return &l.DefaultDatabase }),
			field("Disabled", func(l *Login) *bool { return &l.Disabled }),
			field("Created", func(l *Login) *time.Time { return &l.Created }),
			property[Login, bool]("IsSystemObject", metadata.Data|metadata.Computed,
				func(l *Login) bool { return l.System }, nil),
		},
	}
}

func databaseSchema() *metadata.Schema {
	return &metadata.Schema{
		Name:        "Database",
		FullName:    namespace + ".Database",
		Keys:        []string{"Name"},
		New:         func() any { return &Database{} },
		SetParent:   parentSetter((*Database).setParent),
		ParentFirst: true,
		Relations: []*metadata.Relation{
			parentRelation,
			collection("Tables", "Table", func(d *Database) *[]*Table { return &d.tables }),
			collection("Users", "User", func(d *Database) *[]*User { return &d.users }),
			reference("Owner", "Login", func(d *Database) **Login { return &d.Owner }),
			property("Name", metadata.Data|metadata.Identity,
				func(d *Database) string { return d.name }, (*Database).SetName),
			field("Collation", func(d *Database) *string { return &d.Collation }),
			field("RecoveryModel", func(d *Database) *string { return &d.RecoveryModel }),
			property[Database, int64]("SizeMB", metadata.Data|metadata.Computed,
				func(d *Database) int64 { return d.SizeMB }, nil),
		},
	}
}

func tableSchema() *metadata.Schema {
	return &metadata.Schema{
		Name:        "Table",
		FullName:    namespace + ".Table",
		Keys:        []string{"Schema", "Name"},
		New:         func() any { return &Table{} },
		SetParent:   parentSetter((*Table).setParent),
		ParentFirst: true,
		Relations: []*metadata.Relation{
			parentRelation,
			property("Schema", metadata.Data|metadata.Identity,
				func(t *Table) string { return t.schema }, (*Table).SetSchema),
			property("Name", metadata.Data|metadata.Identity,
				func(t *Table) string { return t.name }, (*Table).SetName),
			field("FileGroup", func(t *Table) *string { return &t.FileGroup }),
			property("Ledger", metadata.Data,
				func(t *Table) bool { return t.ledger }, (*Table).SetLedger),
		},
	}
}

func userSchema() *metadata.Schema {
	return &metadata.Schema{
		Name:      "User",
		FullName:  namespace + ".User",
		Keys:      []string{"Name"},
		New:       func() any { return &User{} },
		SetParent: parentSetter((*User).setParent),
		Relations: []*metadata.Relation{
			parentRelation,
			reference("Login", "Login", func(u *User) **Login { return &u.Login }),
			property("Name", metadata.Data|metadata.Identity,
				func(u *User) string { return u.name }, (*User).SetName),
			field("DefaultSchema", func(u *User) *string { return &u.DefaultSchema }),
		},
	}
}

func settingsSchema() *metadata.Schema {
	return &metadata.Schema{
		Name:      "Settings",
		FullName:  namespace + ".Settings",
		New:       func() any { return &Settings{} },
		SetParent: parentSetter((*Settings).setParent),
		Relations: []*metadata.Relation{
			parentRelation,
			field("LoginMode", func(st *Settings) *string { return &st.LoginMode }),
			field("AuditLevel", func(st *Settings) *int { return &st.AuditLevel }),
		},
		Dropped: []string{"AuditFile"},
	}
}
