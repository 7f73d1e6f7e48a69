package serial

import (
	"context"
	"io"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/keygraph/pkg/depgraph"
	kerrors "github.com/matzehuels/keygraph/pkg/errors"
	"github.com/matzehuels/keygraph/pkg/keychain"
	"github.com/matzehuels/keygraph/pkg/metadata"
	"github.com/matzehuels/keygraph/pkg/observability"
)

// Write discovers the graph below root for serialization and writes one
// document per object in dependency order, root first.
//
// On error the bytes already written do not form a valid document and
// must be discarded.
func (s *Serializer) Write(ctx context.Context, w io.Writer, root depgraph.Object) (err error) {
	if root == nil || root.KeyChain().IsZero() {
		return kerrors.New(kerrors.ErrCodeSerialization, "nothing to write: root has no identity")
	}
	rootPath := keychain.Path(root.KeyChain())

	start := time.Now()
	hooks := observability.Serializer()
	ctx = hooks.OnWriteStart(ctx, rootPath)
	var objects []depgraph.Object
	defer func() {
		hooks.OnWriteComplete(ctx, rootPath, len(objects), time.Since(start), err)
	}()

	if objects, err = s.discover(ctx, root); err != nil {
		return err
	}
	schemas, err := s.schemasOf(objects)
	if err != nil {
		return err
	}

	x := newXMLWriter(w)
	ns := DomainNamespace(s.domain.Qualifier)
	q := s.domain.Qualifier

	x.header()
	x.start("model", "xmlns", NamespaceModel)
	x.start("identity")
	x.leaf("name", "urn:uuid:"+uuid.NewString())
	x.leaf("baseURI", BaseURI)
	x.end()

	x.start("xs:bufferSchema", "xmlns:xs", NamespaceXS)
	x.start("definitions", "xmlns", NamespaceModel, "xmlns:sfc", NamespaceSFC)
	x.start("document")
	s.writeDocInfo(x, schemaAliasPrefix+q)
	x.start("data")
	x.start("xs:schema",
		"targetNamespace", ns,
		"xmlns:sfc", NamespaceSFC,
		"xmlns:sml", NamespaceSML,
		"xmlns:xs", NamespaceXS,
		"elementFormDefault", "qualified")
	for _, sc := range schemas {
		writeSchemaStub(x, sc.Name, ns)
	}
	x.end() // xs:schema
	x.end() // data
	x.end() // document
	x.end() // definitions
	x.end() // xs:bufferSchema

	x.start(q+":bufferData", "xmlns:"+q, ns)
	x.start("instances", "xmlns", NamespaceModel, "xmlns:sfc", NamespaceSFC)
	for _, obj := range objects {
		if err := s.writeInstance(x, obj); err != nil {
			return err
		}
		if x.err != nil {
			break
		}
	}
	x.end() // instances
	x.end() // bufferData
	x.end() // model

	if err := x.flush(); err != nil {
		return kerrors.Wrap(kerrors.ErrCodeSerialization, err, "write %s", rootPath)
	}
	s.logger.Debug("document written", "root", rootPath, "objects", len(objects), "types", len(schemas))
	return nil
}

// discover returns root followed by every other discovered object in
// dependency order. System objects are left out; references to them are
// still written.
func (s *Serializer) discover(ctx context.Context, root depgraph.Object) ([]depgraph.Object, error) {
	engine := depgraph.New(depgraph.IntentSerialize, depgraph.WithLogger(s.logger))
	rootNode := engine.AddRoot(root)
	if err := engine.Discover(ctx); err != nil {
		return nil, err
	}
	objects := []depgraph.Object{root}
	for n := range engine.Ordered() {
		if n == rootNode {
			continue
		}
		obj := n.Object()
		if sc, ok := s.domain.Registry.Of(obj); ok && sc.System(obj) {
			s.logger.Debug("system object skipped", "path", keychain.Path(n.KeyChain()))
			continue
		}
		objects = append(objects, obj)
	}
	return objects, nil
}

// schemasOf returns the distinct schemas of objects in first-seen order.
func (s *Serializer) schemasOf(objects []depgraph.Object) ([]*metadata.Schema, error) {
	var out []*metadata.Schema
	seen := make(map[*metadata.Schema]bool)
	for _, obj := range objects {
		sc, err := s.domain.Registry.MustOf(obj)
		if err != nil {
			return nil, err
		}
		if !seen[sc] {
			seen[sc] = true
			out = append(out, sc)
		}
	}
	return out, nil
}

func (s *Serializer) writeDocInfo(x *xmlWriter, alias string) {
	x.start("docinfo")
	x.start("aliases")
	x.leaf("alias", alias)
	x.end()
	x.start("sfc:version", "DomainVersion", strconv.Itoa(s.domain.Version))
	x.end()
	x.end()
}

func writeSchemaStub(x *xmlWriter, name, ns string) {
	x.start("xs:element", "name", name)
	x.start("xs:complexType")
	x.start("xs:sequence")
	x.start("xs:any",
		"namespace", ns,
		"processContents", "skip",
		"minOccurs", "0",
		"maxOccurs", "unbounded")
	x.end()
	x.end()
	x.end()
	x.end()
}

func writeReference(x *xmlWriter, path string) {
	x.start("sfc:Reference", "sml:ref", "true")
	x.leaf("sml:Uri", path)
	x.end()
}

func (s *Serializer) writeInstance(x *xmlWriter, obj depgraph.Object) error {
	sc, err := s.domain.Registry.MustOf(obj)
	if err != nil {
		return err
	}
	chain := obj.KeyChain()
	path := keychain.Path(chain)
	q := s.domain.Qualifier

	x.start("document")
	s.writeDocInfo(x, path)
	x.start("data")
	x.start(q+":"+sc.Name,
		"xmlns:"+q, DomainNamespace(q),
		"xmlns:sfc", NamespaceSFC,
		"xmlns:sml", NamespaceSML,
		"xmlns:xs", NamespaceXS)

	for _, rel := range sc.Relations {
		switch {
		case rel.Kind == metadata.Parent:
			parent, ok := chain.Parent()
			if !ok {
				continue
			}
			x.start(q + ":Parent")
			writeReference(x, keychain.Path(parent))
			x.end()
		case rel.IsContainer():
			if err := s.writeContainer(x, q, rel, obj); err != nil {
				return err
			}
		}
	}

	for _, rel := range sc.References() {
		if rel.Has(metadata.NonSerializable) || rel.Get == nil {
			continue
		}
		target, ok := rel.Get(obj).(depgraph.Object)
		if !ok || target == nil || target.KeyChain().IsZero() {
			continue
		}
		x.start(q + ":" + sc.Name + rel.Name)
		writeReference(x, keychain.Path(target.KeyChain()))
		x.end()
	}

	for _, rel := range sc.Properties() {
		if err := s.writeProperty(x, q, sc, rel, obj, path); err != nil {
			return err
		}
	}

	x.end() // object
	x.end() // data
	x.end() // document
	return nil
}

func (s *Serializer) writeContainer(x *xmlWriter, q string, rel *metadata.Relation, obj any) error {
	if rel.Has(metadata.NonSerializable) || rel.Members == nil {
		return nil
	}
	var paths []string
	for _, m := range rel.Members(obj) {
		if ms, ok := s.domain.Registry.Of(m); ok && ms.System(m) {
			continue
		}
		member, ok := m.(depgraph.Object)
		if !ok || member == nil {
			return kerrors.New(kerrors.ErrCodeNonSerializableType, "member %T of %s has no identity", m, rel.Name)
		}
		paths = append(paths, keychain.Path(member.KeyChain()))
	}
	if len(paths) == 0 {
		return nil
	}
	x.start(q + ":" + rel.Name)
	x.start("sfc:Collection")
	for _, p := range paths {
		writeReference(x, p)
	}
	x.end()
	x.end()
	return nil
}

func (s *Serializer) writeProperty(x *xmlWriter, q string, sc *metadata.Schema, rel *metadata.Relation, obj any, path string) error {
	if !rel.Persisted() || rel.Get == nil {
		return nil
	}
	val := rel.Get(obj)
	if s.filter != nil {
		v, keep, err := s.filter(Property{Type: sc.Name, Name: rel.Name, Path: path, Value: val})
		if err != nil {
			return kerrors.Wrap(kerrors.ErrCodeSerialization, err, "filter %s on %s", rel.Name, path)
		}
		if !keep {
			return nil
		}
		val = v
	}
	if val == nil {
		return nil
	}

	var text string
	var err error
	if rel.Codec != nil {
		text, err = rel.Codec.Encode(val)
	} else {
		text, err = metadata.EncodeValue(val)
	}
	if err != nil {
		return kerrors.Wrap(kerrors.ErrCodeNonSerializableProperty, err, "encode %s on %s", rel.Name, path)
	}
	wire := rel.WireType
	if wire == "" {
		wire = metadata.WireTypeOf(val)
	}
	x.leaf(q+":"+rel.Name, keychain.EscapeRestricted(text), "type", wire)
	return nil
}
