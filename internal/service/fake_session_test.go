package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vanshika/graphload/internal/domain"
)

type fakeEdge struct {
	Relationship string
	From, To     domain.VertexHandle
}

// fakeSession is an in-memory graph. With matchProperty set, FindVertex
// looks up vertices by that property; otherwise by handle.
type fakeSession struct {
	mu            sync.Mutex
	matchProperty string
	vertices      map[domain.VertexHandle]map[string]string
	labels        map[domain.VertexHandle]string
	edges         map[domain.EdgeHandle]fakeEdge
	nextID        int

	createVertexErr func(call int, props map[string]string) error
	findErr         func(call int, key string) error
	createEdgeErr   func(call int) error
	closeErr        error

	createVertexCalls int
	findCalls         int
	createEdgeCalls   int
	closed            bool
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		vertices: make(map[domain.VertexHandle]map[string]string),
		labels:   make(map[domain.VertexHandle]string),
		edges:    make(map[domain.EdgeHandle]fakeEdge),
	}
}

func (f *fakeSession) CreateVertex(ctx context.Context, label string, properties map[string]string) (domain.VertexHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createVertexCalls++
	if f.createVertexErr != nil {
		if err := f.createVertexErr(f.createVertexCalls, properties); err != nil {
			return "", err
		}
	}
	f.nextID++
	handle := domain.VertexHandle(fmt.Sprintf("v%d", f.nextID))
	props := make(map[string]string, len(properties))
	for k, v := range properties {
		props[k] = v
	}
	f.vertices[handle] = props
	f.labels[handle] = label
	return handle, nil
}

func (f *fakeSession) FindVertex(ctx context.Context, key string) (domain.VertexHandle, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.findCalls++
	if f.findErr != nil {
		if err := f.findErr(f.findCalls, key); err != nil {
			return "", false, err
		}
	}
	if f.matchProperty == "" {
		_, ok := f.vertices[domain.VertexHandle(key)]
		if !ok {
			return "", false, nil
		}
		return domain.VertexHandle(key), true, nil
	}
	for handle, props := range f.vertices {
		if props[f.matchProperty] == key {
			return handle, true, nil
		}
	}
	return "", false, nil
}

func (f *fakeSession) CreateEdge(ctx context.Context, relationship string, from, to domain.VertexHandle) (domain.EdgeHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createEdgeCalls++
	if f.createEdgeErr != nil {
		if err := f.createEdgeErr(f.createEdgeCalls); err != nil {
			return "", err
		}
	}
	f.nextID++
	handle := domain.EdgeHandle(fmt.Sprintf("e%d", f.nextID))
	f.edges[handle] = fakeEdge{Relationship: relationship, From: from, To: to}
	return handle, nil
}

func (f *fakeSession) Close(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return f.closeErr
}

func (f *fakeSession) vertexCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.vertices)
}

func (f *fakeSession) edgeList() []fakeEdge {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]fakeEdge, 0, len(f.edges))
	for _, e := range f.edges {
		out = append(out, e)
	}
	return out
}

func (f *fakeSession) handleOf(property, value string) domain.VertexHandle {
	f.mu.Lock()
	defer f.mu.Unlock()
	for handle, props := range f.vertices {
		if props[property] == value {
			return handle
		}
	}
	return ""
}

func (f *fakeSession) opener() Opener {
	return func(ctx context.Context) (GraphSession, error) {
		return f, nil
	}
}

func noSleep(context.Context, time.Duration) error { return nil }
