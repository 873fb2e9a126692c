package cache

import (
	"fmt"
	"strings"
)

// KeyBuilder builds namespaced cache keys.
type KeyBuilder struct {
	prefix string
	sep    string
}

// NewKeyBuilder creates a builder with the given prefix.
func NewKeyBuilder(prefix string) *KeyBuilder {
	return &KeyBuilder{
		prefix: prefix,
		sep:    ":",
	}
}

// WithSeparator overrides the separator.
func (kb *KeyBuilder) WithSeparator(sep string) *KeyBuilder {
	kb.sep = sep
	return kb
}

// Build joins the parts under the prefix.
func (kb *KeyBuilder) Build(parts ...string) string {
	if len(parts) == 0 {
		return kb.prefix
	}
	return kb.prefix + kb.sep + strings.Join(parts, kb.sep)
}

// BuildID builds a key from a single ID.
func (kb *KeyBuilder) BuildID(id interface{}) string {
	return fmt.Sprintf("%s%s%v", kb.prefix, kb.sep, id)
}

// Predefined builders.
var (
	// ShareInfo caches public share metadata per identifier.
	ShareInfo = NewKeyBuilder("share_info")

	// ShareLink caches resolved share link rows per public identifier.
	ShareLink = NewKeyBuilder("share_link")
)
