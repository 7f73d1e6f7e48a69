package catalog

import "github.com/matzehuels/keygraph/pkg/depgraph"

// Discover reports the logins, databases and settings of s. System logins
// are left out of serialization.
func (s *Server) Discover(sink *depgraph.Sink) error {
	for _, l := range s.logins {
		if l.System && sink.Intent() == depgraph.IntentSerialize {
			continue
		}
		sink.Add(depgraph.Inbound, l, depgraph.ContainedChild, true)
	}
	for _, d := range s.databases {
		sink.Add(depgraph.Inbound, d, depgraph.ContainedChild, false)
	}
	if s.settings != nil {
		sink.Add(depgraph.Inbound, s.settings, depgraph.RequiredChild, true)
	}
	return nil
}

// Discover reports the tables and users of d and, unless only children
// are wanted, the owning login.
func (d *Database) Discover(sink *depgraph.Sink) error {
	for _, t := range d.tables {
		sink.Add(depgraph.Inbound, t, depgraph.ContainedChild, true)
	}
	for _, u := range d.users {
		sink.Add(depgraph.Inbound, u, depgraph.ContainedChild, false)
	}
	if d.Owner != nil && sink.Mode() != depgraph.ModeChildren {
		sink.Add(referenceDirection(sink), d.Owner, depgraph.StrongReference, true)
	}
	return nil
}

// Discover reports the login u is mapped to.
func (u *User) Discover(sink *depgraph.Sink) error {
	if u.Login != nil && sink.Mode() != depgraph.ModeChildren {
		sink.Add(referenceDirection(sink), u.Login, depgraph.StrongReference, true)
	}
	return nil
}

// referenceDirection orders a referenced login before its dependents,
// except when dropping, where dependents go first.
func referenceDirection(sink *depgraph.Sink) depgraph.Direction {
	if sink.Intent() == depgraph.IntentDrop {
		return depgraph.Inbound
	}
	return depgraph.Outbound
}
