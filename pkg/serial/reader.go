package serial

import (
	"context"
	"encoding/xml"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/matzehuels/keygraph/pkg/depgraph"
	kerrors "github.com/matzehuels/keygraph/pkg/errors"
	"github.com/matzehuels/keygraph/pkg/hierarchy"
	"github.com/matzehuels/keygraph/pkg/keychain"
	"github.com/matzehuels/keygraph/pkg/metadata"
	"github.com/matzehuels/keygraph/pkg/observability"
)

// Result is the outcome of a successful [Serializer.Read].
type Result struct {
	// Root is the object of the first document, linked to all of its
	// descendants.
	Root     any
	RootPath string

	// Unparented holds the top objects of paths that do not lie below
	// the root.
	Unparented []any

	// Objects is the number of objects in the final table.
	Objects int

	// Identity is the document name from the identity block.
	Identity string

	FileVersion int
	Upgraded    bool
}

// Roots returns the root object followed by the unparented objects
// that can be tracked by a dependency engine.
func (r *Result) Roots() []depgraph.Object {
	var out []depgraph.Object
	if o, ok := r.Root.(depgraph.Object); ok {
		out = append(out, o)
	}
	for _, u := range r.Unparented {
		if o, ok := u.(depgraph.Object); ok {
			out = append(out, o)
		}
	}
	return out
}

type envelope struct {
	XMLName     xml.Name   `xml:"model"`
	Name        string     `xml:"identity>name"`
	Definitions docBlock   `xml:"bufferSchema>definitions>document"`
	Instances   []docBlock `xml:"bufferData>instances>document"`
}

type docBlock struct {
	Alias   string   `xml:"docinfo>aliases>alias"`
	Version *version `xml:"docinfo>version"`
	Data    *struct {
		Nodes []node `xml:",any"`
	} `xml:"data"`
}

type version struct {
	DomainVersion string `xml:"DomainVersion,attr"`
}

type node struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Nodes   []node     `xml:",any"`
	Text    string     `xml:",chardata"`
}

func (n *node) attr(local string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name.Local == local {
			return a.Value, true
		}
	}
	return "", false
}

func (n *node) child(local string) (*node, bool) {
	for i := range n.Nodes {
		if n.Nodes[i].XMLName.Local == local {
			return &n.Nodes[i], true
		}
	}
	return nil, false
}

// uris collects the text of every Uri element below n.
func (n *node) uris() []string {
	var out []string
	for i := range n.Nodes {
		c := &n.Nodes[i]
		if c.XMLName.Local == "Uri" {
			out = append(out, c.Text)
			continue
		}
		out = append(out, c.uris()...)
	}
	return out
}

type pendingRef struct {
	obj    any
	schema *metadata.Schema
	path   string
	rec    Record
}

// Read parses a document and rebuilds the object tree it describes.
//
// A document written by a newer domain version fails with
// UNSUPPORTED_VERSION. One written by an older version needs an upgrade
// session; without one the read fails with UNSUPPORTED_UPGRADE.
func (s *Serializer) Read(ctx context.Context, r io.Reader) (res *Result, err error) {
	start := time.Now()
	hooks := observability.Serializer()
	ctx = hooks.OnReadStart(ctx)
	var objects, fileVersion int
	var upgraded bool
	defer func() {
		hooks.OnReadComplete(ctx, objects, fileVersion, upgraded, time.Since(start), err)
	}()

	var env envelope
	if err := xml.NewDecoder(r).Decode(&env); err != nil {
		return nil, kerrors.Wrap(kerrors.ErrCodeSerialization, err, "parse document")
	}
	if fileVersion, err = s.checkDefinitions(&env.Definitions); err != nil {
		return nil, err
	}

	var session UpgradeSession
	switch {
	case fileVersion > s.domain.Version:
		return nil, kerrors.New(kerrors.ErrCodeUnsupportedVersion,
			"document version %d is newer than domain %s version %d", fileVersion, s.domain.Name, s.domain.Version)
	case fileVersion < s.domain.Version:
		if s.upgrade == nil {
			return nil, kerrors.New(kerrors.ErrCodeUnsupportedUpgrade,
				"domain %s cannot upgrade documents from version %d", s.domain.Name, fileVersion)
		}
		if session = s.upgrade(); session == nil {
			return nil, kerrors.New(kerrors.ErrCodeUnsupportedUpgrade,
				"domain %s has no upgrade session for version %d", s.domain.Name, fileVersion)
		}
		upgraded = true
	}

	cache := hierarchy.New(s.domain.Registry, hierarchy.WithLogger(s.logger))
	var (
		root     any
		rootPath string
		refs     []pendingRef
	)
	for i := range env.Instances {
		doc := &env.Instances[i]
		path := doc.Alias
		if err := kerrors.ValidatePath(path); err != nil {
			return nil, err
		}
		el, err := instanceElement(doc, path)
		if err != nil {
			return nil, err
		}
		typeName := el.XMLName.Local
		records := parseRecords(el)

		if session != nil && session.IsUpgradeRequired(typeName, fileVersion) {
			migrated, err := session.UpgradeInstance(typeName, records, fileVersion, path, cache)
			if err != nil {
				return nil, kerrors.Wrap(kerrors.ErrCodeSerialization, err, "upgrade %s", path)
			}
			for _, in := range migrated {
				if err := cache.Add(in.Path, in.Object); err != nil {
					return nil, err
				}
				if root == nil {
					root, rootPath = in.Object, in.Path
				}
			}
			s.logger.Debug("instance upgraded", "path", path, "from", fileVersion, "objects", len(migrated))
			continue
		}

		obj, sc, err := s.build(typeName, el.XMLName.Space, path, records, cache)
		if err != nil {
			return nil, err
		}
		if err := cache.Add(path, obj); err != nil {
			return nil, err
		}
		if root == nil {
			root, rootPath = obj, path
		}
		for _, rec := range records {
			if rec.Kind == RecordReference {
				refs = append(refs, pendingRef{obj: obj, schema: sc, path: path, rec: rec})
			}
		}
	}

	if session != nil {
		if err := session.PostProcess(cache, fileVersion); err != nil {
			return nil, kerrors.Wrap(kerrors.ErrCodeSerialization, err, "post-process upgrade from version %d", fileVersion)
		}
	}
	if root == nil {
		return nil, kerrors.New(kerrors.ErrCodeSerialization, "document has no instances")
	}

	if err := s.resolve(refs, cache); err != nil {
		return nil, err
	}
	unparented, err := cache.CreateHierarchy(root, rootPath)
	if err != nil {
		return nil, err
	}
	objects = cache.Len()
	s.logger.Debug("document read", "root", rootPath, "objects", objects, "version", fileVersion, "unparented", len(unparented))

	return &Result{
		Root:        root,
		RootPath:    rootPath,
		Unparented:  unparented,
		Objects:     objects,
		Identity:    env.Name,
		FileVersion: fileVersion,
		Upgraded:    upgraded,
	}, nil
}

// checkDefinitions verifies the schema block names this domain and
// returns the document version.
func (s *Serializer) checkDefinitions(def *docBlock) (int, error) {
	qualifier, ok := strings.CutPrefix(def.Alias, schemaAliasPrefix)
	if !ok {
		return 0, kerrors.New(kerrors.ErrCodeSerialization, "missing schema definitions")
	}
	if qualifier != s.domain.Qualifier {
		return 0, kerrors.New(kerrors.ErrCodeSerialization,
			"document belongs to domain %q, not %q", qualifier, s.domain.Qualifier)
	}
	if def.Version == nil {
		return 0, kerrors.New(kerrors.ErrCodeSerialization, "missing version marker")
	}
	v, err := strconv.Atoi(def.Version.DomainVersion)
	if err != nil {
		return 0, kerrors.Wrap(kerrors.ErrCodeSerialization, err, "invalid version marker %q", def.Version.DomainVersion)
	}
	return v, nil
}

func instanceElement(doc *docBlock, path string) (*node, error) {
	if doc.Data == nil {
		return nil, kerrors.New(kerrors.ErrCodeSerialization, "document %s has no data block", path)
	}
	if len(doc.Data.Nodes) != 1 {
		return nil, kerrors.New(kerrors.ErrCodeSerialization,
			"document %s holds %d elements, want 1", path, len(doc.Data.Nodes))
	}
	return &doc.Data.Nodes[0], nil
}

// parseRecords turns the children of an instance element into records.
func parseRecords(el *node) []Record {
	typeName := el.XMLName.Local
	records := make([]Record, 0, len(el.Nodes))
	for i := range el.Nodes {
		c := &el.Nodes[i]
		name := c.XMLName.Local
		wire, isProperty := c.attr("type")
		switch {
		case isProperty:
			records = append(records, Record{
				Kind:     RecordProperty,
				Name:     name,
				WireType: wire,
				Value:    keychain.UnescapeRestricted(c.Text),
			})
		case name == "Parent":
			records = append(records, Record{Kind: RecordParent, Name: name, URIs: c.uris()})
		default:
			if _, ok := c.child("Collection"); ok {
				records = append(records, Record{Kind: RecordCollection, Name: name, URIs: c.uris()})
				continue
			}
			if _, ok := c.child("Reference"); ok {
				records = append(records, Record{
					Kind: RecordReference,
					Name: strings.TrimPrefix(name, typeName),
					URIs: c.uris(),
				})
				continue
			}
			records = append(records, Record{Kind: RecordProperty, Name: name, Value: keychain.UnescapeRestricted(c.Text)})
		}
	}
	return records
}

// build constructs one object from its records.
func (s *Serializer) build(typeName, space, path string, records []Record, cache *hierarchy.Cache) (any, *metadata.Schema, error) {
	if space != "" && space != DomainNamespace(s.domain.Qualifier) {
		return nil, nil, kerrors.New(kerrors.ErrCodeNonSerializableType, "%s at %s is not in domain %s", typeName, path, s.domain.Name)
	}
	sc, ok := s.domain.Registry.ByName(typeName)
	if !ok {
		return nil, nil, kerrors.New(kerrors.ErrCodeNonSerializableType, "unknown type %s at %s", typeName, path)
	}
	obj, err := s.domain.Registry.New(sc.FullName)
	if err != nil {
		return nil, nil, err
	}

	if sc.ParentFirst && sc.SetParent != nil {
		if err := s.linkParent(sc, obj, path, cache); err != nil {
			return nil, nil, err
		}
	}

	for _, rec := range records {
		if rec.Kind != RecordProperty {
			continue
		}
		if err := s.assign(sc, obj, path, rec); err != nil {
			return nil, nil, err
		}
	}
	return obj, sc, nil
}

func (s *Serializer) assign(sc *metadata.Schema, obj any, path string, rec Record) error {
	rel, ok := sc.Relation(rec.Name)
	if !ok || rel.Kind != metadata.Property {
		if sc.IsDropped(rec.Name) {
			s.logger.Debug("dropped property ignored", "path", path, "property", rec.Name)
			return nil
		}
		return kerrors.New(kerrors.ErrCodeNonSerializableProperty, "%s has no property %s (at %s)", sc.Name, rec.Name, path)
	}
	if !rel.Writable() {
		return kerrors.New(kerrors.ErrCodeNonSerializableProperty, "property %s.%s is read-only", sc.Name, rec.Name)
	}

	var v any
	var err error
	if rel.Codec != nil {
		v, err = rel.Codec.Decode(rec.Value)
	} else {
		v, err = metadata.DecodeValue(rec.WireType, rec.Value)
	}
	if err != nil {
		return kerrors.Wrap(kerrors.ErrCodeNonSerializableProperty, err, "decode %s.%s at %s", sc.Name, rec.Name, path)
	}
	if err := rel.Set(obj, v); err != nil {
		if errors.Is(err, metadata.ErrPropertyNotAvailable) {
			s.logger.Debug("property not available", "path", path, "property", rec.Name)
			return nil
		}
		return kerrors.Wrap(kerrors.ErrCodeNonSerializableProperty, err, "set %s.%s at %s", sc.Name, rec.Name, path)
	}
	return nil
}

// linkParent sets the parent of obj from its path before any property is
// assigned. The parent must already have been read.
func (s *Serializer) linkParent(sc *metadata.Schema, obj any, path string, cache *hierarchy.Cache) error {
	parentPath, err := ParentPath(path, sc.HasKeys())
	if err != nil || parentPath == "" {
		return err
	}
	parent, ok := cache.Get(parentPath)
	if !ok {
		return kerrors.New(kerrors.ErrCodeMissingParent, "parent %s of %s has not been read", parentPath, path)
	}
	if err := sc.SetParent(obj, parent); err != nil {
		return kerrors.Wrap(kerrors.ErrCodeSerialization, err, "link %s to %s", path, parentPath)
	}
	return nil
}

// ParentPath derives the parent path of path. The last level spans a type
// and a key fragment when keyed is set, and only the type fragment for
// singletons. The root has no parent and yields "".
func ParentPath(path string, keyed bool) (string, error) {
	frags, err := keychain.SplitPath(strings.TrimPrefix(path, "/"), false)
	if err != nil {
		return "", err
	}
	drop := 1
	if keyed {
		drop = 2
	}
	if len(frags) <= drop {
		return "", nil
	}
	return "/" + strings.Join(frags[:len(frags)-drop], "/"), nil
}

// resolve assigns soft references once every object is in the table.
func (s *Serializer) resolve(refs []pendingRef, cache *hierarchy.Cache) error {
	for _, p := range refs {
		rel, ok := p.schema.Relation(p.rec.Name)
		if !ok || rel.Kind != metadata.Reference {
			if p.schema.IsDropped(p.rec.Name) {
				continue
			}
			return kerrors.New(kerrors.ErrCodeNonSerializableProperty, "%s has no reference %s (at %s)", p.schema.Name, p.rec.Name, p.path)
		}
		if !rel.Writable() {
			continue
		}
		target, ok := cache.Get(p.rec.URI())
		if !ok {
			s.logger.Debug("unresolved reference", "path", p.path, "reference", p.rec.Name, "target", p.rec.URI())
			continue
		}
		if err := rel.Set(p.obj, target); err != nil && !errors.Is(err, metadata.ErrPropertyNotAvailable) {
			return kerrors.Wrap(kerrors.ErrCodeNonSerializableProperty, err, "set reference %s at %s", p.rec.Name, p.path)
		}
	}
	return nil
}
