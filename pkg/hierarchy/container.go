package hierarchy

import "github.com/matzehuels/keygraph/pkg/metadata"

// Container holds one object while the tree is being assembled.
type Container struct {
	Object any
	Path   string

	// Collections maps a container member name to its children by
	// instance name.
	Collections map[string]map[string]*Container

	// Singletons maps a singleton member name to its child.
	Singletons map[string]*Container

	slots []slot
}

type slot struct {
	member string
	rel    *metadata.Relation
	child  *Container
	keyed  bool
}

func newContainer(obj any, path string) *Container {
	return &Container{
		Object:      obj,
		Path:        path,
		Collections: make(map[string]map[string]*Container),
		Singletons:  make(map[string]*Container),
	}
}

func (c *Container) addMember(rel *metadata.Relation, name string, child *Container) {
	members := c.Collections[rel.Name]
	if members == nil {
		members = make(map[string]*Container)
		c.Collections[rel.Name] = members
	}
	if _, ok := members[name]; ok {
		return
	}
	members[name] = child
	c.slots = append(c.slots, slot{member: rel.Name, rel: rel, child: child, keyed: true})
}

// addSingleton records child under member. rel may be nil when the parent
// declares no matching singleton; the child is then kept in the tree but
// never assigned.
func (c *Container) addSingleton(member string, rel *metadata.Relation, child *Container) {
	if _, ok := c.Singletons[member]; ok {
		return
	}
	c.Singletons[member] = child
	c.slots = append(c.slots, slot{member: member, rel: rel, child: child})
}
