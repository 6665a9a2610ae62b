package storage

import "context"

// PrefixedBackend scopes every key of an underlying backend under a prefix
type PrefixedBackend struct {
	backend Backend
	prefix  string
}

// NewPrefixedBackend returns a view of backend whose keys start with prefix
func NewPrefixedBackend(backend Backend, prefix string) *PrefixedBackend {
	return &PrefixedBackend{backend: backend, prefix: prefix}
}

func (p *PrefixedBackend) Get(ctx context.Context, key string) ([]byte, error) {
	return p.backend.Get(ctx, p.prefix+key)
}

func (p *PrefixedBackend) Set(ctx context.Context, key string, value []byte) error {
	return p.backend.Set(ctx, p.prefix+key, value)
}

func (p *PrefixedBackend) Delete(ctx context.Context, key string) error {
	return p.backend.Delete(ctx, p.prefix+key)
}

func (p *PrefixedBackend) Name() string { return p.backend.Name() }
