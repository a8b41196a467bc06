// Package source turns opaque feed source references into locally playable
// paths. Caching and downloading are its concern, not the scheduler's.
package source

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrNotFound          = errors.New("source: not found")
	ErrUnsupportedScheme = errors.New("source: unsupported scheme")
)

// Resolver maps a source reference to a locally playable URL or path.
// Implementations may block (downloads) and must honour ctx.
type Resolver interface {
	Resolve(ctx context.Context, ref string) (string, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context, ref string) (string, error)

func (f ResolverFunc) Resolve(ctx context.Context, ref string) (string, error) {
	return f(ctx, ref)
}

// LocalResolver resolves plain paths and file:// references. Relative paths
// are taken relative to Root.
type LocalResolver struct {
	Root string
}

func (l LocalResolver) Resolve(ctx context.Context, ref string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p := strings.TrimPrefix(ref, "file://")
	if !filepath.IsAbs(p) && l.Root != "" {
		p = filepath.Join(l.Root, p)
	}
	info, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, p)
		}
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", ErrNotFound, p)
	}
	return p, nil
}

// Mux dispatches on the reference scheme. References without a scheme go to
// the "" entry.
type Mux map[string]Resolver

func (m Mux) Resolve(ctx context.Context, ref string) (string, error) {
	scheme := ""
	if u, err := url.Parse(ref); err == nil && len(u.Scheme) > 1 {
		// single-letter schemes are Windows drive letters
		scheme = u.Scheme
	}
	r, ok := m[scheme]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedScheme, scheme)
	}
	return r.Resolve(ctx, ref)
}
