package portfolio

import (
	"context"
	"net/url"
)

// API is the subset of *apiclient.Client the resources need.
type API interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, in, out any) error
	Put(ctx context.Context, path string, in, out any) error
	Delete(ctx context.Context, path string) error
	PublicGet(ctx context.Context, path string, out any) error
}

// Resource is a backend collection at /api/<name>/.
type Resource[T any] struct {
	api  API
	name string
}

func NewResource[T any](api API, name string) *Resource[T] {
	return &Resource[T]{api: api, name: name}
}

func (r *Resource[T]) Name() string { return r.name }

// Path is the collection path, with the backend's trailing slash.
func (r *Resource[T]) Path() string { return "/api/" + r.name + "/" }

func (r *Resource[T]) itemPath(id string) string {
	return r.Path() + url.PathEscape(id) + "/"
}

// List reads the collection with credentials.
func (r *Resource[T]) List(ctx context.Context) ([]T, error) {
	var items []T
	if err := r.api.Get(ctx, r.Path(), &items); err != nil {
		return nil, err
	}
	return items, nil
}

// ListPublic reads the collection as an anonymous visitor would.
func (r *Resource[T]) ListPublic(ctx context.Context) ([]T, error) {
	var items []T
	if err := r.api.PublicGet(ctx, r.Path(), &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *Resource[T]) Get(ctx context.Context, id string) (T, error) {
	var item T
	err := r.api.Get(ctx, r.itemPath(id), &item)
	return item, err
}

// Create posts item and returns the stored copy, with its ID.
func (r *Resource[T]) Create(ctx context.Context, item T) (T, error) {
	var created T
	err := r.api.Post(ctx, r.Path(), item, &created)
	return created, err
}

func (r *Resource[T]) Update(ctx context.Context, id string, item T) (T, error) {
	var updated T
	err := r.api.Put(ctx, r.itemPath(id), item, &updated)
	return updated, err
}

func (r *Resource[T]) Delete(ctx context.Context, id string) error {
	return r.api.Delete(ctx, r.itemPath(id))
}

// Singleton is a backend object with no collection, such as the profile.
type Singleton[T any] struct {
	api  API
	path string
}

func NewSingleton[T any](api API, name string) *Singleton[T] {
	return &Singleton[T]{api: api, path: "/api/" + name + "/"}
}

func (s *Singleton[T]) Get(ctx context.Context) (T, error) {
	var v T
	err := s.api.Get(ctx, s.path, &v)
	return v, err
}

func (s *Singleton[T]) GetPublic(ctx context.Context) (T, error) {
	var v T
	err := s.api.PublicGet(ctx, s.path, &v)
	return v, err
}

func (s *Singleton[T]) Update(ctx context.Context, v T) (T, error) {
	var updated T
	err := s.api.Put(ctx, s.path, v, &updated)
	return updated, err
}
