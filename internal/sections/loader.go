package sections

import "context"

// Loader fetches one independent slice of a section's data into the read models.
type Loader interface {
	Name() string
	Load(ctx context.Context) error
}

type loaderFunc struct {
	name string
	fn   func(ctx context.Context) error
}

// LoaderFunc adapts a function into a named Loader.
func LoaderFunc(name string, fn func(ctx context.Context) error) Loader {
	return loaderFunc{name: name, fn: fn}
}

func (l loaderFunc) Name() string { return l.name }

func (l loaderFunc) Load(ctx context.Context) error {
	if l.fn == nil {
		return nil
	}
	return l.fn(ctx)
}
