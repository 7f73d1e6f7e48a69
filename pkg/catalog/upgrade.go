package catalog

import (
	"errors"
	"strings"

	"github.com/matzehuels/keygraph/pkg/keychain"
	"github.com/matzehuels/keygraph/pkg/metadata"
	"github.com/matzehuels/keygraph/pkg/serial"
)

// NewSerializer returns a serializer for the catalog domain that upgrades
// documents from earlier versions.
func NewSerializer(opts ...serial.Option) *serial.Serializer {
	opts = append([]serial.Option{serial.WithUpgradeSession(NewUpgradeSession)}, opts...)
	return serial.New(Domain(), opts...)
}

// upgradeSession migrates version 1 documents. Version 1 users carried
// their login as a LoginName property; it becomes the Login reference
// once every login has been read.
type upgradeSession struct {
	pending []pendingLogin
}

type pendingLogin struct {
	user  *User
	path  string
	login string
}

// NewUpgradeSession starts a migration of one document.
func NewUpgradeSession() serial.UpgradeSession { return &upgradeSession{} }

func (u *upgradeSession) IsUpgradeRequired(typeName string, fileVersion int) bool {
	return typeName == "User" && fileVersion < 2
}

func (u *upgradeSession) UpgradeInstance(typeName string, records []serial.Record, fileVersion int, path string, _ serial.Table) ([]serial.Instance, error) {
	sc, ok := Registry().ByName(typeName)
	if !ok {
		return nil, errors.New("unknown type " + typeName)
	}
	user := &User{}
	for _, rec := range records {
		if rec.Kind != serial.RecordProperty {
			continue
		}
		if rec.Name == "LoginName" {
			u.pending = append(u.pending, pendingLogin{user: user, path: path, login: rec.Value})
			continue
		}
		rel, ok := sc.Relation(rec.Name)
		if !ok || !rel.Writable() {
			continue
		}
		v, err := metadata.DecodeValue(rec.WireType, rec.Value)
		if err != nil {
			return nil, err
		}
		if err := rel.Set(user, v); err != nil {
			return nil, err
		}
	}
	return []serial.Instance{{Path: path, Object: user}}, nil
}

func (u *upgradeSession) PostProcess(table serial.Table, fileVersion int) error {
	for _, p := range u.pending {
		if p.login == "" {
			continue
		}
		server, err := serverPath(p.path)
		if err != nil {
			return err
		}
		loginPath := server + "/Login/" + keychain.EscapeRestricted(keychain.EscapePathValue(p.login))
		if obj, ok := table.Get(loginPath); ok {
			if l, ok := obj.(*Login); ok {
				p.user.Login = l
			}
		}
	}
	return nil
}

// serverPath returns the first level of path, the server root.
func serverPath(path string) (string, error) {
	frags, err := keychain.SplitPath(strings.TrimPrefix(path, "/"), false)
	if err != nil {
		return "", err
	}
	if len(frags) < 2 {
		return "", errors.New("path " + path + " is not below a server")
	}
	return "/" + frags[0] + "/" + frags[1], nil
}
