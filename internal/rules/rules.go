// SPDX-License-Identifier: MPL-2.0

// Package rules routes CLI requests to language handlers through an
// explicit registry. Handlers are registered at startup, keyed by request
// kind and language; the commands only ever talk to the registry, so a
// second language can be added without touching them.
package rules

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/bryanwweber/tomltool/internal/config"
	"github.com/bryanwweber/tomltool/internal/execute"
	"github.com/bryanwweber/tomltool/internal/tailor"
	"github.com/bryanwweber/tomltool/internal/workspace"
)

const (
	// KindTailor proposes targets for unowned files.
	KindTailor Kind = "tailor"
	// KindFmt formats files in place.
	KindFmt Kind = "fmt"
	// KindLint reports files that would change without writing.
	KindLint Kind = "lint"
)

var (
	// ErrDuplicateHandler is returned when a kind/language pair is registered twice.
	ErrDuplicateHandler = errors.New("handler already registered")
	// ErrNoHandler is returned when no handler matches a kind/language pair.
	ErrNoHandler = errors.New("no handler registered")
)

type (
	// Kind names a request category.
	Kind string

	// Request is the immutable input handed to a handler.
	Request struct {
		// Config is the loaded application configuration.
		Config *config.Config
		// Snapshot is the scanned workspace.
		Snapshot *workspace.Snapshot
		// Root is the absolute workspace root.
		Root string
	}

	// Response is what a handler produced.
	Response struct {
		// Proposals is set by tailor handlers.
		Proposals []tailor.Proposal
		// Results is set by fmt/lint handlers, one entry per batch.
		Results []*execute.Result
	}

	// Handler processes one request.
	Handler func(ctx context.Context, req Request) (*Response, error)

	// Registry maps kind/language pairs to handlers.
	Registry struct {
		mu       sync.RWMutex
		handlers map[key]Handler
	}

	key struct {
		kind     Kind
		language string
	}
)

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[key]Handler)}
}

// Register installs a handler for a kind/language pair. Registering the
// same pair twice is an error.
func (r *Registry) Register(kind Kind, language string, h Handler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key{kind: kind, language: language}
	if _, exists := r.handlers[k]; exists {
		return fmt.Errorf("%w: %s/%s", ErrDuplicateHandler, kind, language)
	}
	r.handlers[k] = h
	return nil
}

// Dispatch invokes the handler for a kind/language pair.
func (r *Registry) Dispatch(ctx context.Context, kind Kind, language string, req Request) (*Response, error) {
	r.mu.RLock()
	h, ok := r.handlers[key{kind: kind, language: language}]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrNoHandler, kind, language)
	}
	return h(ctx, req)
}

// Languages returns the languages registered for a kind, sorted.
func (r *Registry) Languages(kind Kind) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var langs []string
	for k := range r.handlers {
		if k.kind == kind {
			langs = append(langs, k.language)
		}
	}
	sort.Strings(langs)
	return langs
}
