// Package serial writes object graphs to versioned XML documents and reads
// them back.
//
// # Document Layout
//
// A document is a model envelope with three blocks:
//
//   - identity: a fresh urn:uuid name and the collection base URI
//   - bufferSchema: the domain alias (/system/schema/<qualifier>), the
//     domain version marker and one schema stub per type written
//   - bufferData: one document per object in dependency order, root first
//
// Each object document carries its path as alias and a single instance
// element. Its children appear in a fixed order: the Parent reference,
// then one collection per non-empty container, then outbound references,
// then persisted properties with their wire type:
//
//	<cat:Database>
//	  <cat:Parent>
//	    <sfc:Reference sml:ref="true">
//	      <sml:Uri>/Server/prod</sml:Uri>
//	    </sfc:Reference>
//	  </cat:Parent>
//	  <cat:Name type="string">sales</cat:Name>
//	</cat:Database>
//
// Property text passes through [keychain.EscapeRestricted], so characters
// XML cannot carry survive a round trip.
//
// # Reading
//
// [Serializer.Read] checks the domain alias and version first. Documents
// from newer versions are rejected; documents from older versions are
// passed instance by instance to an [UpgradeSession]. Objects are placed in
// a [hierarchy.Cache] keyed by path, references are resolved once every
// object is known and the tree is linked by
// [hierarchy.Cache.CreateHierarchy].
//
// [keychain.EscapeRestricted]: github.com/matzehuels/keygraph/pkg/keychain
// [hierarchy.Cache]: github.com/matzehuels/keygraph/pkg/hierarchy
// [hierarchy.Cache.CreateHierarchy]: github.com/matzehuels/keygraph/pkg/hierarchy
package serial
