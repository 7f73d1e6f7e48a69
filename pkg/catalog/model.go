package catalog

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	kerrors "github.com/matzehuels/keygraph/pkg/errors"
)

// Model is the TOML description of a server.
type Model struct {
	Name      string          `toml:"name"`
	Edition   string          `toml:"edition"`
	Version   string          `toml:"version"`
	Collation string          `toml:"collation"`
	Settings  *SettingsModel  `toml:"settings"`
	Logins    []LoginModel    `toml:"logins"`
	Databases []DatabaseModel `toml:"databases"`
}

type SettingsModel struct {
	LoginMode  string `toml:"login_mode"`
	AuditLevel int    `toml:"audit_level"`
}

type LoginModel struct {
	Name            string    `toml:"name"`
	DefaultDatabase string    `toml:"default_database"`
	Disabled        bool      `toml:"disabled"`
	Created         time.Time `toml:"created"`
	System          bool      `toml:"system"`
}

type DatabaseModel struct {
	Name          string       `toml:"name"`
	Owner         string       `toml:"owner"`
	Collation     string       `toml:"collation"`
	RecoveryModel string       `toml:"recovery_model"`
	Tables        []TableModel `toml:"tables"`
	Users         []UserModel  `toml:"users"`
}

type TableModel struct {
	Schema    string `toml:"schema"`
	Name      string `toml:"name"`
	FileGroup string `toml:"file_group"`
	Ledger    bool   `toml:"ledger"`
}

type UserModel struct {
	Name          string `toml:"name"`
	Login         string `toml:"login"`
	DefaultSchema string `toml:"default_schema"`
}

// LoadModel reads a TOML model file and builds its server.
func LoadModel(path string) (*Server, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseModel(data)
}

// ParseModel builds the server described by TOML data.
func ParseModel(data []byte) (*Server, error) {
	var m Model
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, kerrors.Wrap(kerrors.ErrCodeInvalidInput, err, "parse model")
	}
	return m.Build()
}

// Build creates the server and all of its objects. Owners and user logins
// must name logins declared in the model.
func (m *Model) Build() (*Server, error) {
	if m.Name == "" {
		return nil, kerrors.New(kerrors.ErrCodeInvalidInput, "model has no server name")
	}
	s := NewServer(m.Name)
	s.Edition = m.Edition
	s.Version = m.Version
	s.Collation = m.Collation

	if m.Settings != nil {
		st := s.EnsureSettings()
		st.LoginMode = m.Settings.LoginMode
		st.AuditLevel = m.Settings.AuditLevel
	}

	for _, lm := range m.Logins {
		l, err := s.AddLogin(lm.Name)
		if err != nil {
			return nil, err
		}
		l.DefaultDatabase = lm.DefaultDatabase
		l.Disabled = lm.Disabled
		l.Created = lm.Created
		l.System = lm.System
	}

	login := func(name, what string) (*Login, error) {
		if name == "" {
			return nil, nil
		}
		l, ok := s.Login(name)
		if !ok {
			return nil, kerrors.New(kerrors.ErrCodeInvalidInput, "%s refers to unknown login %q", what, name)
		}
		return l, nil
	}

	for _, dm := range m.Databases {
		d, err := s.AddDatabase(dm.Name)
		if err != nil {
			return nil, err
		}
		d.Collation = dm.Collation
		d.RecoveryModel = dm.RecoveryModel
		if d.Owner, err = login(dm.Owner, "database "+dm.Name); err != nil {
			return nil, err
		}
		for _, tm := range dm.Tables {
			t, err := d.AddTable(tm.Schema, tm.Name)
			if err != nil {
				return nil, err
			}
			t.FileGroup = tm.FileGroup
			if err := t.SetLedger(tm.Ledger); err != nil {
				return nil, fmt.Errorf("table %s.%s: %w", tm.Schema, tm.Name, err)
			}
		}
		for _, um := range dm.Users {
			l, err := login(um.Login, "user "+um.Name)
			if err != nil {
				return nil, err
			}
			u, err := d.AddUser(um.Name, l)
			if err != nil {
				return nil, err
			}
			u.DefaultSchema = um.DefaultSchema
		}
	}
	return s, nil
}
