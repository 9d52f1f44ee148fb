package typekey

import (
	"fmt"

	"github.com/diwire/core/oracle"
)

// ContextualTypeKey pairs a Key with the wrapper shape a particular
// parameter, accessor, or constructor saw RawType caches the
// user-written type for re-emission and is explicitly excluded from
// equality/hashing.
type ContextualTypeKey struct {
	Key Key
	Wrapped *WrappedType
	HasDefault bool
	RawType oracle.Type // excluded from equality; re-emission only
}

// NewContextual decomposes t via the oracle and builds the owning
// ContextualTypeKey, qualifier included.
func NewContextual(ts oracle.TypeSystemOracle, t oracle.Type, qualifier oracle.Annotation, hasDefault bool) ContextualTypeKey {
	w := Build(ts, t)
	return ContextualTypeKey{
		Key: Of(w, qualifier),
		Wrapped: w,
		HasDefault: hasDefault,
		RawType: t,
	}
}

// IsWrappedInProvider reports Provider<_> at the outermost layer.
func (c ContextualTypeKey) IsWrappedInProvider() bool { return c.Wrapped.IsProvider() }

// IsWrappedInLazy reports Lazy<_> at the outermost layer.
func (c ContextualTypeKey) IsWrappedInLazy() bool { return c.Wrapped.IsLazy() }

// IsLazyWrappedInProvider reports Provider<Lazy<_>>.
func (c ContextualTypeKey) IsLazyWrappedInProvider() bool { return c.Wrapped.IsLazyWrappedInProvider() }

// IsDeferrable reports whether any layer is Provider or Lazy.
func (c ContextualTypeKey) IsDeferrable() bool { return c.Wrapped.IsDeferrable() }

// RequiresProviderInstance is an alias for IsDeferrable.
func (c ContextualTypeKey) RequiresProviderInstance() bool { return c.IsDeferrable() }

// Equal compares Key and Wrapped structurally; RawType is excluded, as
// specified.
func (c ContextualTypeKey) Equal(o ContextualTypeKey) bool {
	return c.Key.Equal(o.Key) && c.Wrapped.Equal(o.Wrapped) && c.HasDefault == o.HasDefault
}

// Render renders the contextual key with optional qualifier prefix and a
// "=..." default suffix
func (c ContextualTypeKey) Render() string {
	s := c.Wrapped.Render()
	if c.Key.IsQualified() {
		s = fmt.Sprintf("@%s %s", c.Key.Qualifier.String(), s)
	}
	if c.HasDefault {
		s += " =..."
	}
	return s
}

// String implements fmt.Stringer.
func (c ContextualTypeKey) String() string { return c.Render() }
