package catalog

import (
	"slices"
	"strconv"
	"strings"
	"time"

	kerrors "github.com/matzehuels/keygraph/pkg/errors"
	"github.com/matzehuels/keygraph/pkg/keychain"
)

// Object is implemented by every catalog type.
type Object interface {
	KeyChain() keychain.KeyChain
	TypeName() string
}

// Server is the domain root.
type Server struct {
	name  string
	chain keychain.KeyChain

	Edition   string
	Version   string
	Collation string

	logins    []*Login
	databases []*Database
	settings  *Settings
}

// Login is a server-level principal.
type Login struct {
	name   string
	chain  keychain.KeyChain
	parent *Server

	DefaultDatabase string
	Disabled        bool
	Created         time.Time

	// System marks built-in logins. They are never written to documents.
	System bool
}

// Database holds tables and users.
type Database struct {
	name   string
	chain  keychain.KeyChain
	parent *Server

	Collation     string
	RecoveryModel string
	SizeMB        int64
	Owner         *Login

	tables []*Table
	users  []*User
}

// Table is identified by schema and name within its database.
type Table struct {
	schema string
	name   string
	chain  keychain.KeyChain
	parent *Database

	FileGroup string
	ledger    bool
}

// User maps a login into a database.
type User struct {
	name   string
	chain  keychain.KeyChain
	parent *Database

	DefaultSchema string
	Login         *Login
}

// Settings is the singleton configuration object of a server.
type Settings struct {
	chain  keychain.KeyChain
	parent *Server

	LoginMode  string
	AuditLevel int
}

// link places cur below parent. An unlinked chain is created; a linked one
// is moved if its parent differs.
func link(cur *keychain.KeyChain, parent keychain.KeyChain, key keychain.Key) error {
	if parent.IsZero() {
		return kerrors.New(kerrors.ErrCodeInvalidIdentity, "parent of %s has no identity", key.Fragment())
	}
	if cur.IsZero() {
		*cur = parent.Child(key)
		return nil
	}
	if p, ok := cur.Parent(); ok && p == parent {
		return nil
	}
	if err := cur.SetParent(parent); err != nil {
		return kerrors.Wrap(kerrors.ErrCodeInvalidIdentity, err, "move %s", cur.String())
	}
	return nil
}

// rekey replaces the leaf key of a linked chain.
func rekey(cur keychain.KeyChain, key keychain.Key) error {
	if cur.IsZero() {
		return nil
	}
	if err := cur.SetLeafKey(key); err != nil {
		return kerrors.Wrap(kerrors.ErrCodeInvalidIdentity, err, "rename %s", cur.String())
	}
	return nil
}

// ============================================================================
// Server
// ============================================================================

// NewServer creates a server root named name.
func NewServer(name string) *Server {
	s := &Server{name: name}
	s.chain = keychain.NewRoot(DomainName, name, s.key())
	return s
}

func (s *Server) key() keychain.Key { return keychain.NamedKey{Type: "Server", Name: s.name} }

// KeyChain returns the identity of s.
func (s *Server) KeyChain() keychain.KeyChain {
	if s == nil {
		return keychain.KeyChain{}
	}
	return s.chain
}

func (s *Server) TypeName() string { return "Server" }
func (s *Server) Name() string     { return s.name }

// SetName renames the server. A server read from a document receives its
// identity here.
func (s *Server) SetName(name string) error {
	s.name = name
	if s.chain.IsZero() {
		s.chain = keychain.NewRoot(DomainName, name, s.key())
		return nil
	}
	return rekey(s.chain, s.key())
}

func (s *Server) Logins() []*Login       { return slices.Clone(s.logins) }
func (s *Server) Databases() []*Database { return slices.Clone(s.databases) }
func (s *Server) Settings() *Settings    { return s.settings }

// Login returns the login named name.
func (s *Server) Login(name string) (*Login, bool) {
	if s == nil {
		return nil, false
	}
	for _, l := range s.logins {
		if l.name == name {
			return l, true
		}
	}
	return nil, false
}

// Database returns the database named name.
func (s *Server) Database(name string) (*Database, bool) {
	if s == nil {
		return nil, false
	}
	for _, d := range s.databases {
		if d.name == name {
			return d, true
		}
	}
	return nil, false
}

// AddLogin creates a login under s.
func (s *Server) AddLogin(name string) (*Login, error) {
	if _, ok := s.Login(name); ok {
		return nil, kerrors.New(kerrors.ErrCodeInvalidIdentity, "login %q already exists on %s", name, s.name)
	}
	l := &Login{name: name}
	if err := l.setParent(s); err != nil {
		return nil, err
	}
	s.logins = append(s.logins, l)
	return l, nil
}

// AddDatabase creates a database under s.
func (s *Server) AddDatabase(name string) (*Database, error) {
	if _, ok := s.Database(name); ok {
		return nil, kerrors.New(kerrors.ErrCodeInvalidIdentity, "database %q already exists on %s", name, s.name)
	}
	d := &Database{name: name}
	if err := d.setParent(s); err != nil {
		return nil, err
	}
	s.databases = append(s.databases, d)
	return d, nil
}

// EnsureSettings returns the settings of s, creating them if needed.
func (s *Server) EnsureSettings() *Settings {
	if s.settings == nil {
		st := &Settings{}
		_ = st.setParent(s)
		s.settings = st
	}
	return s.settings
}

// majorVersion returns the leading number of Version, or 0.
func (s *Server) majorVersion() int {
	major, _, _ := strings.Cut(s.Version, ".")
	n, _ := strconv.Atoi(major)
	return n
}

// ============================================================================
// Login
// ============================================================================

func (l *Login) key() keychain.Key { return keychain.NamedKey{Type: "Login", Name: l.name} }

func (l *Login) KeyChain() keychain.KeyChain {
	if l == nil {
		return keychain.KeyChain{}
	}
	return l.chain
}

func (l *Login) TypeName() string { return "Login" }
func (l *Login) Name() string     { return l.name }
func (l *Login) Parent() *Server  { return l.parent }

func (l *Login) SetName(name string) error {
	l.name = name
	return rekey(l.chain, l.key())
}

func (l *Login) setParent(s *Server) error {
	if err := link(&l.chain, s.KeyChain(), l.key()); err != nil {
		return err
	}
	l.parent = s
	return nil
}

// ============================================================================
// Database
// ============================================================================

func (d *Database) key() keychain.Key { return keychain.NamedKey{Type: "Database", Name: d.name} }

func (d *Database) KeyChain() keychain.KeyChain {
	if d == nil {
		return keychain.KeyChain{}
	}
	return d.chain
}

func (d *Database) TypeName() string  { return "Database" }
func (d *Database) Name() string      { return d.name }
func (d *Database) Parent() *Server   { return d.parent }
func (d *Database) Tables() []*Table  { return slices.Clone(d.tables) }
func (d *Database) Users() []*User    { return slices.Clone(d.users) }

func (d *Database) SetName(name string) error {
	d.name = name
	return rekey(d.chain, d.key())
}

func (d *Database) setParent(s *Server) error {
	if err := link(&d.chain, s.KeyChain(), d.key()); err != nil {
		return err
	}
	d.parent = s
	return nil
}

// Table returns the table schema.name.
func (d *Database) Table(schema, name string) (*Table, bool) {
	if d == nil {
		return nil, false
	}
	for _, t := range d.tables {
		if t.schema == schema && t.name == name {
			return t, true
		}
	}
	return nil, false
}

// User returns the user named name.
func (d *Database) User(name string) (*User, bool) {
	if d == nil {
		return nil, false
	}
	for _, u := range d.users {
		if u.name == name {
			return u, true
		}
	}
	return nil, false
}

// AddTable creates the table schema.name under d.
func (d *Database) AddTable(schema, name string) (*Table, error) {
	if _, ok := d.Table(schema, name); ok {
		return nil, kerrors.New(kerrors.ErrCodeInvalidIdentity, "table %s.%s already exists in %s", schema, name, d.name)
	}
	t := &Table{schema: schema, name: name}
	if err := t.setParent(d); err != nil {
		return nil, err
	}
	d.tables = append(d.tables, t)
	return t, nil
}

// AddUser creates a user under d mapped to login, which may be nil.
func (d *Database) AddUser(name string, login *Login) (*User, error) {
	if _, ok := d.User(name); ok {
		return nil, kerrors.New(kerrors.ErrCodeInvalidIdentity, "user %q already exists in %s", name, d.name)
	}
	u := &User{name: name, Login: login}
	if err := u.setParent(d); err != nil {
		return nil, err
	}
	d.users = append(d.users, u)
	return u, nil
}

// ============================================================================
// Table
// ============================================================================

// ledgerMajorVersion is the first server version supporting ledger tables.
const ledgerMajorVersion = 16

func (t *Table) key() keychain.Key {
	return keychain.SchemaNamedKey{Type: "Table", Name: t.name, Schema: t.schema}
}

func (t *Table) KeyChain() keychain.KeyChain {
	if t == nil {
		return keychain.KeyChain{}
	}
	return t.chain
}

func (t *Table) TypeName() string    { return "Table" }
func (t *Table) Name() string        { return t.name }
func (t *Table) Schema() string      { return t.schema }
func (t *Table) Parent() *Database   { return t.parent }
func (t *Table) Ledger() bool        { return t.ledger }

func (t *Table) SetName(name string) error {
	t.name = name
	return rekey(t.chain, t.key())
}

func (t *Table) SetSchema(schema string) error {
	t.schema = schema
	return rekey(t.chain, t.key())
}

// SetLedger marks t as a ledger table. Servers older than version 16
// report the property as not available.
func (t *Table) SetLedger(v bool) error {
	if v && (t.parent == nil || t.parent.parent == nil || t.parent.parent.majorVersion() < ledgerMajorVersion) {
		return errPropertyNotAvailable("Ledger")
	}
	t.ledger = v
	return nil
}

func (t *Table) setParent(d *Database) error {
	if err := link(&t.chain, d.KeyChain(), t.key()); err != nil {
		return err
	}
	t.parent = d
	return nil
}

// ============================================================================
// User
// ============================================================================

func (u *User) key() keychain.Key { return keychain.NamedKey{Type: "User", Name: u.name} }

func (u *User) KeyChain() keychain.KeyChain {
	if u == nil {
		return keychain.KeyChain{}
	}
	return u.chain
}

func (u *User) TypeName() string  { return "User" }
func (u *User) Name() string      { return u.name }
func (u *User) Parent() *Database { return u.parent }

func (u *User) SetName(name string) error {
	u.name = name
	return rekey(u.chain, u.key())
}

func (u *User) setParent(d *Database) error {
	if err := link(&u.chain, d.KeyChain(), u.key()); err != nil {
		return err
	}
	u.parent = d
	return nil
}

// ============================================================================
// Settings
// ============================================================================

func (st *Settings) KeyChain() keychain.KeyChain {
	if st == nil {
		return keychain.KeyChain{}
	}
	return st.chain
}

func (st *Settings) TypeName() string { return "Settings" }
func (st *Settings) Parent() *Server  { return st.parent }

func (st *Settings) setParent(s *Server) error {
	if err := link(&st.chain, s.KeyChain(), keychain.SingletonKey{Type: "Settings"}); err != nil {
		return err
	}
	st.parent = s
	return nil
}
