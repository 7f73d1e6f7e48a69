package serial

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/keygraph/pkg/metadata"
)

// Namespaces used by documents.
const (
	NamespaceModel = "http://schemas.serviceml.org/smlif/2007/02"
	NamespaceSML   = "http://schemas.serviceml.org/sml/2007/02"
	NamespaceSFC   = "http://schemas.microsoft.com/sqlserver/sfc/serialization/2007/08"
	NamespaceXS    = "http://www.w3.org/2001/XMLSchema"

	// BaseURI is the document collection base written in the identity
	// block.
	BaseURI = "http://documentcollection/"

	schemaAliasPrefix = "/system/schema/"
)

// DomainNamespace returns the namespace of a domain qualifier.
func DomainNamespace(qualifier string) string {
	return fmt.Sprintf("http://schemas.microsoft.com/sqlserver/%s/2007/08", qualifier)
}

// Serializer writes object graphs of one domain to documents and reads
// them back. A Serializer holds no per-document state; every Write and
// Read allocates its own engine and cache.
type Serializer struct {
	domain  *metadata.Domain
	logger  *log.Logger
	filter  PropertyFilter
	upgrade func() UpgradeSession
}

// Option configures a [Serializer].
type Option func(*Serializer)

// WithLogger sets the logger for debug output.
func WithLogger(l *log.Logger) Option {
	return func(s *Serializer) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithFilter installs a property filter consulted for every property
// written.
func WithFilter(f PropertyFilter) Option {
	return func(s *Serializer) { s.filter = f }
}

// WithUpgradeSession lets the serializer read documents written by older
// versions of the domain. start is called once per such read; a nil
// session rejects the read with UNSUPPORTED_UPGRADE.
func WithUpgradeSession(start func() UpgradeSession) Option {
	return func(s *Serializer) { s.upgrade = start }
}

// New creates a serializer for domain.
func New(domain *metadata.Domain, opts ...Option) *Serializer {
	s := &Serializer{
		domain: domain,
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Domain returns the domain the serializer was created for.
func (s *Serializer) Domain() *metadata.Domain { return s.domain }
