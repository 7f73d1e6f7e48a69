package serial

// Table is the flat path to object table filled during a read.
type Table interface {
	Get(path string) (any, bool)
	Set(path string, obj any) error
	Delete(path string)
	Paths() []string
}

// Instance is an object together with its path.
type Instance struct {
	Path   string
	Object any
}

// UpgradeSession migrates documents written by an older version of a
// domain. A new session is started for every read that needs one.
type UpgradeSession interface {
	// IsUpgradeRequired reports whether instances of typeName written at
	// fileVersion must be migrated instead of read directly.
	IsUpgradeRequired(typeName string, fileVersion int) bool

	// UpgradeInstance migrates one instance. It may return several
	// instances, or none to drop the instance. The table holds the
	// instances read so far.
	UpgradeInstance(typeName string, records []Record, fileVersion int, path string, table Table) ([]Instance, error)

	// PostProcess runs once after every instance was read and may rewrite
	// the table.
	PostProcess(table Table, fileVersion int) error
}
