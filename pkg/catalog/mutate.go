package catalog

import (
	"slices"

	"github.com/matzehuels/keygraph/pkg/depgraph"
	kerrors "github.com/matzehuels/keygraph/pkg/errors"
)

// Rename gives obj a new name in place. The chains of all descendants
// reflect the change at once. Chain lookups held by eng go stale and are
// rebuilt before Rename returns; eng may be nil.
func Rename(obj Object, name string, eng *depgraph.Engine) error {
	var err error
	switch o := obj.(type) {
	case *Server:
		err = o.SetName(name)
	case *Login:
		if other, ok := o.parent.Login(name); ok && other != o {
			return kerrors.New(kerrors.ErrCodeInvalidIdentity, "login %q already exists", name)
		}
		err = o.SetName(name)
	case *Database:
		if other, ok := o.parent.Database(name); ok && other != o {
			return kerrors.New(kerrors.ErrCodeInvalidIdentity, "database %q already exists", name)
		}
		err = o.SetName(name)
	case *Table:
		if other, ok := o.parent.Table(o.schema, name); ok && other != o {
			return kerrors.New(kerrors.ErrCodeInvalidIdentity, "table %s.%s already exists", o.schema, name)
		}
		err = o.SetName(name)
	case *User:
		if other, ok := o.parent.User(name); ok && other != o {
			return kerrors.New(kerrors.ErrCodeInvalidIdentity, "user %q already exists", name)
		}
		err = o.SetName(name)
	default:
		return kerrors.New(kerrors.ErrCodeInvalidInput, "%s cannot be renamed", obj.TypeName())
	}
	if err != nil {
		return err
	}
	if eng != nil {
		eng.Invalidate()
	}
	return nil
}

// Move places a table or user under another database of the same server.
// Chain lookups held by eng are rebuilt as for [Rename].
func Move(obj Object, to *Database, eng *depgraph.Engine) error {
	switch o := obj.(type) {
	case *Table:
		if _, ok := to.Table(o.schema, o.name); ok {
			return kerrors.New(kerrors.ErrCodeInvalidIdentity, "table %s.%s already exists in %s", o.schema, o.name, to.name)
		}
		from := o.parent
		if err := o.setParent(to); err != nil {
			return err
		}
		if from != nil {
			from.tables = slices.DeleteFunc(from.tables, func(t *Table) bool { return t == o })
		}
		to.tables = append(to.tables, o)
	case *User:
		if _, ok := to.User(o.name); ok {
			return kerrors.New(kerrors.ErrCodeInvalidIdentity, "user %q already exists in %s", o.name, to.name)
		}
		from := o.parent
		if err := o.setParent(to); err != nil {
			return err
		}
		if from != nil {
			from.users = slices.DeleteFunc(from.users, func(u *User) bool { return u == o })
		}
		to.users = append(to.users, o)
	default:
		return kerrors.New(kerrors.ErrCodeInvalidInput, "%s cannot be moved", obj.TypeName())
	}
	if eng != nil {
		eng.Invalidate()
	}
	return nil
}
