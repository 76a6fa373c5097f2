package fault

import (
	"fmt"
	"sync"
)

// Category partitions kinds into the two top-level failure classes.
type Category string

const (
	// Recoverable marks failures a caller is expected to handle with a
	// matching handler somewhere on the call chain.
	Recoverable Category = "recoverable"
	// Programming marks contract violations. They are not meant to be
	// handled at individual call sites and normally run all the way to
	// the top-level reporter.
	Programming Category = "programming"
)

// Kind identifies a failure category. Kinds are obtained from Register
// or RegisterTransient; the zero Kind is invalid and rejected by the
// record constructors. Every kind belongs to exactly one category,
// fixed at registration time.
type Kind struct {
	name      string
	category  Category
	transient bool
}

// RegistryEntry describes a registered kind.
type RegistryEntry struct {
	Name      string
	Category  Category
	Transient bool
}

var (
	registryMu      sync.RWMutex
	registryEntries []RegistryEntry
	registryMap     = map[string]Kind{}
)

// Register defines a new kind under the given category and returns it.
// Registration is meant to happen at package initialization; registering
// an empty name, an unknown category, or a name that is already taken
// is a contract violation and panics.
func Register(name string, category Category) Kind {
	return register(name, category, false)
}

// RegisterTransient defines a new Recoverable kind whose failures are
// expected to clear on retry. Transience only applies to recoverable
// kinds; registering a transient Programming kind panics.
func RegisterTransient(name string, category Category) Kind {
	if category != Recoverable {
		panic(fmt.Sprintf("fault: transient kind %q must be recoverable", name))
	}
	return register(name, category, true)
}

func register(name string, category Category, transient bool) Kind {
	if name == "" {
		panic("fault: kind registered with empty name")
	}
	if category != Recoverable && category != Programming {
		panic(fmt.Sprintf("fault: kind %q registered with unknown category %q", name, category))
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registryMap[name]; exists {
		panic(fmt.Sprintf("fault: kind %q registered twice", name))
	}
	kind := Kind{name: name, category: category, transient: transient}
	registryMap[name] = kind
	registryEntries = append(registryEntries, RegistryEntry{Name: name, Category: category, Transient: transient})
	return kind
}

// Builtin kinds. MalformedInput through Unknown are recoverable;
// PreconditionViolated and Internal signal programming errors.
var (
	KindMalformedInput      = Register("MalformedInput", Recoverable)
	KindResourceUnavailable = RegisterTransient("ResourceUnavailable", Recoverable)
	KindConflict            = RegisterTransient("Conflict", Recoverable)
	KindTimeout             = RegisterTransient("Timeout", Recoverable)
	KindCancelled           = Register("Cancelled", Recoverable)
	KindIO                  = Register("IO", Recoverable)
	KindUnknown             = Register("Unknown", Recoverable)

	KindPreconditionViolated = Register("PreconditionViolated", Programming)
	KindInternal             = Register("Internal", Programming)
)

// Name returns the kind's registered name.
func (k Kind) Name() string {
	return k.name
}

// Category returns the category fixed at registration.
func (k Kind) Category() Category {
	return k.category
}

// Transient reports whether failures of this kind are expected to clear
// on retry.
func (k Kind) Transient() bool {
	return k.transient
}

// IsZero reports whether k is the invalid zero Kind.
func (k Kind) IsZero() bool {
	return k.name == ""
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	if k.name == "" {
		return "<invalid>"
	}
	return k.name
}

// Kinds returns the kind registry in registration order.
func Kinds() []RegistryEntry {
	registryMu.RLock()
	defer registryMu.RUnlock()
	entries := make([]RegistryEntry, len(registryEntries))
	copy(entries, registryEntries)
	return entries
}

// LookupKind returns the kind registered under name.
func LookupKind(name string) (Kind, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	kind, ok := registryMap[name]
	return kind, ok
}

// IsValidKind checks if the given kind name is registered.
func IsValidKind(name string) bool {
	_, ok := LookupKind(name)
	return ok
}
