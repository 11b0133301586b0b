package schema

import (
	"reflect"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/syssam/reposql"
)

// Registry holds entity definitions and the descriptors built from them.
// A descriptor is built on first lookup and cached for the lifetime of the
// registry. Concurrent first lookups of the same key share one build, and
// only fully built descriptors are ever published.
type Registry struct {
	defs  sync.Map // key → func(*Registry) (*Descriptor, error)
	built sync.Map // key → *Descriptor
	group singleflight.Group
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry { return &Registry{} }

// Default is the registry used by Register and Of.
var Default = NewRegistry()

// KeyOf returns the registry key of the Go type T.
func KeyOf[T any]() string {
	t := reflect.TypeFor[T]()
	return t.PkgPath() + "." + t.Name()
}

// RecordKey returns the registry key of a record entity stored in table.
func RecordKey(table string) string { return "record:" + table }

// Register declares the mapping of T in the default registry. define runs
// when the descriptor is first requested, not at registration.
//
//	func init() {
//		schema.Register(func(b *schema.Builder[User]) {
//			b.Table("users").Fields(
//				schema.Field("id", func(u *User) *int64 { return &u.ID }).PrimaryKey(),
//				schema.Field("name", func(u *User) *string { return &u.Name }),
//			)
//		})
//	}
func Register[T any](define func(*Builder[T])) {
	RegisterIn(Default, define)
}

// RegisterIn declares the mapping of T in r. A later registration of the
// same type replaces the definition but not an already built descriptor.
func RegisterIn[T any](r *Registry, define func(*Builder[T])) {
	r.defs.Store(KeyOf[T](), func(r *Registry) (*Descriptor, error) {
		b := &Builder[T]{}
		define(b)
		return b.build(r)
	})
}

// Of returns the descriptor of T from the default registry.
func Of[T any]() (*Descriptor, error) {
	return Default.Lookup(KeyOf[T]())
}

// OfIn returns the descriptor of T from r.
func OfIn[T any](r *Registry) (*Descriptor, error) {
	return r.Lookup(KeyOf[T]())
}

// Lookup returns the descriptor registered under key, building it on first
// use. Build failures are returned to every waiting caller and are not
// cached.
func (r *Registry) Lookup(key string) (*Descriptor, error) {
	if d, ok := r.built.Load(key); ok {
		return d.(*Descriptor), nil
	}
	v, err, _ := r.group.Do(key, func() (any, error) {
		if d, ok := r.built.Load(key); ok {
			return d, nil
		}
		def, ok := r.defs.Load(key)
		if !ok {
			return nil, reposql.NewConfigError(key, "entity type is not registered")
		}
		d, err := def.(func(*Registry) (*Descriptor, error))(r)
		if err != nil {
			return nil, err
		}
		actual, _ := r.built.LoadOrStore(key, d)
		return actual, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Descriptor), nil
}

// Add builds a record descriptor from spec and publishes it under
// RecordKey(spec.Table).
func (r *Registry) Add(spec RecordSpec) (*Descriptor, error) {
	d, err := newRecordDescriptor(r, spec)
	if err != nil {
		return nil, err
	}
	actual, _ := r.built.LoadOrStore(RecordKey(spec.Table), d)
	return actual.(*Descriptor), nil
}

// Keys returns the keys of all registered and added entities.
func (r *Registry) Keys() []string {
	seen := make(map[string]bool)
	var keys []string
	collect := func(k, _ any) bool {
		if s := k.(string); !seen[s] {
			seen[s] = true
			keys = append(keys, s)
		}
		return true
	}
	r.defs.Range(collect)
	r.built.Range(collect)
	return keys
}
