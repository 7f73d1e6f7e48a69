package hierarchy

import (
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	kerrors "github.com/matzehuels/keygraph/pkg/errors"
	"github.com/matzehuels/keygraph/pkg/keychain"
	"github.com/matzehuels/keygraph/pkg/metadata"
)

// Cache is the path table filled while a document is read.
//
// Objects are added flat, in document order, keyed by their path. Once the
// table is complete, [Cache.CreateHierarchy] links every object under its
// parent and fills the parents' collections.
type Cache struct {
	registry  *metadata.Registry
	logger    *log.Logger
	instances map[string]any
	order     []string
	keyed     map[string]bool

	placed  map[string]*Container
	islands []*Container
}

// Option configures a [Cache].
type Option func(*Cache)

// WithLogger sets the logger used for placement diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates an empty cache resolving types through reg.
func New(reg *metadata.Registry, opts ...Option) *Cache {
	c := &Cache{
		registry:  reg,
		logger:    log.New(io.Discard),
		instances: make(map[string]any),
		keyed:     make(map[string]bool),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Add records obj at path. Adding a path twice is an error.
func (c *Cache) Add(path string, obj any) error {
	if _, ok := c.instances[path]; ok {
		return kerrors.New(kerrors.ErrCodeDuplicatePath, "duplicate path %s", path)
	}
	return c.Set(path, obj)
}

// Set records obj at path, replacing any object already there.
func (c *Cache) Set(path string, obj any) error {
	if err := kerrors.ValidatePath(path); err != nil {
		return err
	}
	if _, err := keychain.SplitPath(path, false); err != nil {
		return err
	}
	s, err := c.registry.MustOf(obj)
	if err != nil {
		return err
	}
	if s.HasKeys() {
		c.keyed[s.Name] = true
	}
	if _, ok := c.instances[path]; !ok {
		c.order = append(c.order, path)
	}
	c.instances[path] = obj
	return nil
}

// Delete removes path from the table.
func (c *Cache) Delete(path string) {
	if _, ok := c.instances[path]; !ok {
		return
	}
	delete(c.instances, path)
	c.order = slices.DeleteFunc(c.order, func(p string) bool { return p == path })
}

// Get returns the object recorded at path.
func (c *Cache) Get(path string) (any, bool) {
	obj, ok := c.instances[path]
	return obj, ok
}

// Len returns the number of recorded paths.
func (c *Cache) Len() int { return len(c.order) }

// Paths returns the recorded paths in insertion order.
func (c *Cache) Paths() []string { return slices.Clone(c.order) }

// CreateHierarchy links every recorded object under root, whose path is
// rootPath, and populates each parent's collections and singletons.
//
// Objects whose paths are not below rootPath are grouped into islands by
// path ancestry. The top object of each island is returned as unparented,
// in the order the islands were formed.
//
// A recorded path whose intermediate parent path is absent from the table
// fails with MISSING_PARENT. A keyed level whose parent type declares no
// collection for it fails with NON_SERIALIZABLE_TYPE.
func (c *Cache) CreateHierarchy(root any, rootPath string) ([]any, error) {
	top := newContainer(root, rootPath)
	c.placed = map[string]*Container{rootPath: top}
	c.islands = nil

	for _, p := range c.order {
		if p == rootPath {
			continue
		}
		var err error
		if isAncestorPath(rootPath, p) {
			_, err = c.placeUnder(top, p)
		} else {
			_, err = c.placeOutside(p)
		}
		if err != nil {
			return nil, err
		}
	}

	if err := c.populate(top); err != nil {
		return nil, err
	}
	unparented := make([]any, 0, len(c.islands))
	for _, is := range c.islands {
		if err := c.populate(is); err != nil {
			return nil, err
		}
		unparented = append(unparented, is.Object)
	}
	return unparented, nil
}

// Container returns the container built for path by the last
// [Cache.CreateHierarchy] call.
func (c *Cache) Container(path string) (*Container, bool) {
	ct, ok := c.placed[path]
	return ct, ok
}

// level is one step of a path relative to some ancestor.
type level struct {
	typ   string
	name  string
	keyed bool
	width int
}

// placeUnder places p below top, placing missing intermediate parents
// from the table first.
func (c *Cache) placeUnder(top *Container, p string) (*Container, error) {
	if ct, ok := c.placed[p]; ok {
		return ct, nil
	}
	parentPath, lvl, err := c.split(top.Path, p)
	if err != nil {
		return nil, err
	}

	parent := top
	if parentPath != top.Path {
		if _, ok := c.instances[parentPath]; !ok {
			return nil, kerrors.New(kerrors.ErrCodeMissingParent, "no object at %s for %s", parentPath, p)
		}
		if parent, err = c.placeUnder(top, parentPath); err != nil {
			return nil, err
		}
	}

	child := newContainer(c.instances[p], p)
	if err := c.attach(parent, child, lvl); err != nil {
		return nil, err
	}
	c.placed[p] = child
	return child, nil
}

// placeOutside places a path that does not lie under the root. It joins an
// existing island, or starts a new one and adopts every island below it.
func (c *Cache) placeOutside(p string) (*Container, error) {
	for _, is := range c.islands {
		if isAncestorPath(is.Path, p) {
			return c.placeUnder(is, p)
		}
	}

	ct := newContainer(c.instances[p], p)
	c.placed[p] = ct
	var kept []*Container
	for _, is := range c.islands {
		if !isAncestorPath(p, is.Path) {
			kept = append(kept, is)
			continue
		}
		if err := c.adopt(ct, is); err != nil {
			return nil, err
		}
		c.logger.Debug("island adopted", "top", p, "island", is.Path)
	}
	c.islands = append(kept, ct)
	c.logger.Debug("island started", "path", p)
	return ct, nil
}

// adopt links the former island top is below top.
func (c *Cache) adopt(top, is *Container) error {
	parentPath, lvl, err := c.split(top.Path, is.Path)
	if err != nil {
		return err
	}
	parent := top
	if parentPath != top.Path {
		if _, ok := c.instances[parentPath]; !ok {
			return kerrors.New(kerrors.ErrCodeMissingParent, "no object at %s for %s", parentPath, is.Path)
		}
		if parent, err = c.placeUnder(top, parentPath); err != nil {
			return err
		}
	}
	return c.attach(parent, is, lvl)
}

// split returns the parent path of p and the last level of p, reading p
// relative to its ancestor base.
func (c *Cache) split(base, p string) (string, level, error) {
	rest := strings.TrimPrefix(p[len(base):], "/")
	frags, err := keychain.SplitPath(rest, false)
	if err != nil {
		return "", level{}, err
	}
	levels := c.levels(frags)
	if len(levels) == 0 {
		return "", level{}, kerrors.New(kerrors.ErrCodeInvalidIdentity, "path %s has no levels below %s", p, base)
	}
	last := levels[len(levels)-1]
	n := len(frags) - last.width

	var b strings.Builder
	b.WriteString(base)
	for _, f := range frags[:n] {
		b.WriteByte('/')
		b.WriteString(f)
	}
	return b.String(), last, nil
}

// levels groups fragments into levels. A fragment naming a keyed type
// consumes the following fragment as its instance name, unless it is the
// last fragment.
func (c *Cache) levels(frags []string) []level {
	var out []level
	for i := 0; i < len(frags); {
		typ := keychain.UnescapeRestricted(frags[i])
		if c.keyed[typ] && i+1 < len(frags) {
			out = append(out, level{typ: typ, name: frags[i+1], keyed: true, width: 2})
			i += 2
			continue
		}
		out = append(out, level{typ: typ, width: 1})
		i++
	}
	return out
}

func (c *Cache) attach(parent, child *Container, lvl level) error {
	ps, err := c.registry.MustOf(parent.Object)
	if err != nil {
		return err
	}
	cs, err := c.registry.MustOf(child.Object)
	if err != nil {
		return err
	}

	if lvl.keyed {
		rel, ok := ps.ContainerFor(lvl.typ)
		if !ok {
			return kerrors.New(kerrors.ErrCodeNonSerializableType,
				"%s declares no collection of %s for %s", ps.Name, lvl.typ, child.Path)
		}
		parent.addMember(rel, lvl.name, child)
	} else {
		member := lvl.typ
		rel, ok := ps.SingletonFor(lvl.typ)
		if ok {
			member = rel.Name
		}
		parent.addSingleton(member, rel, child)
	}

	if cs.SetParent != nil {
		if err := cs.SetParent(child.Object, parent.Object); err != nil {
			return kerrors.Wrap(kerrors.ErrCodeInvalidIdentity, err, "link %s", child.Path)
		}
	}
	return nil
}

// populate fills collections and singletons breadth-first from top.
func (c *Cache) populate(top *Container) error {
	queue := []*Container{top}
	for len(queue) > 0 {
		ct := queue[0]
		queue = queue[1:]
		for _, s := range ct.slots {
			switch {
			case s.keyed:
				if s.rel.AddMember == nil {
					return kerrors.New(kerrors.ErrCodeNonSerializableProperty,
						"collection %s cannot be appended to", s.member)
				}
				if err := s.rel.AddMember(ct.Object, s.child.Object); err != nil {
					return kerrors.Wrap(kerrors.ErrCodeNonSerializableProperty, err, "add %s to %s", s.child.Path, s.member)
				}
			case s.rel != nil && s.rel.Writable():
				if err := s.rel.Set(ct.Object, s.child.Object); err != nil {
					return kerrors.Wrap(kerrors.ErrCodeNonSerializableProperty, err, "set %s on %s", s.member, ct.Path)
				}
			}
			queue = append(queue, s.child)
		}
	}
	return nil
}

// isAncestorPath reports whether a is a strict fragment-wise prefix of b.
func isAncestorPath(a, b string) bool {
	fa, err := keychain.SplitPath(a, false)
	if err != nil {
		return false
	}
	fb, err := keychain.SplitPath(b, false)
	if err != nil {
		return false
	}
	return len(fa) < len(fb) && slices.Equal(fa, fb[:len(fa)])
}
