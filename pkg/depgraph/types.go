package depgraph

// Relation classifies an edge reported during discovery.
type Relation int

const (
	// ContainedChild is an owned child held in a parent's collection.
	ContainedChild Relation = iota
	// RequiredChild is an owned child that must exist with its parent.
	RequiredChild
	// StrongReference orders the target before the referrer without
	// implying containment.
	StrongReference
	// WeakReference makes the target known to the engine without any
	// ordering edge.
	WeakReference
)

var relationNames = [...]string{"ContainedChild", "RequiredChild", "StrongReference", "WeakReference"}

func (r Relation) String() string {
	if r < 0 || int(r) >= len(relationNames) {
		return "Relation(?)"
	}
	return relationNames[r]
}

// IsPhysical reports whether the relation is true containment.
func (r Relation) IsPhysical() bool {
	return r == ContainedChild || r == RequiredChild
}

// Intent is the operation a discovery pass is performed for. Objects may
// report different relations depending on the intent.
type Intent int

const (
	IntentUnknown Intent = iota
	IntentSerialize
	IntentCreate
	IntentDrop
	IntentAlter
	IntentRename
	IntentMove
	IntentMerge
	IntentDiff
	IntentCopy
)

var intentNames = [...]string{"unknown", "serialize", "create", "drop", "alter", "rename", "move", "merge", "diff", "copy"}

func (i Intent) String() string {
	if i < 0 || int(i) >= len(intentNames) {
		return "unknown"
	}
	return intentNames[i]
}

// ParseIntent maps a lower-case intent name back to its value.
func ParseIntent(s string) (Intent, bool) {
	for i, name := range intentNames {
		if name == s {
			return Intent(i), true
		}
	}
	return IntentUnknown, false
}

// Direction tells [Sink.Add] which side of the edge the reporting object is.
type Direction int

const (
	// None registers the target without an edge.
	None Direction = iota
	// Inbound: the reporting object is the parent, the target the child.
	Inbound
	// Outbound: the reporting object is the child, the target the parent.
	Outbound
)

// Mode narrows which relations a discovery pass asks objects to report.
type Mode int

const (
	// ModeChildren reports contained children only.
	ModeChildren Mode = iota
	// ModeFull reports every relation.
	ModeFull
	// ModePropagate reports the relations an operation propagates along.
	ModePropagate
	// ModeUsedBy reports objects that depend on the reporter.
	ModeUsedBy
	// ModeUses reports objects the reporter depends on.
	ModeUses
)

var modeNames = [...]string{"children", "full", "propagate", "usedby", "uses"}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return "unknown"
	}
	return modeNames[m]
}

// ParseMode maps a mode name back to its value.
func ParseMode(s string) (Mode, bool) {
	for i, name := range modeNames {
		if name == s {
			return Mode(i), true
		}
	}
	return ModeFull, false
}
