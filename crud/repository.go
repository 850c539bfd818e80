// Package crud provides generic repository and service building blocks for
// entity persistence.
//
// A Repository is a thin adapter over a storage backend, generic over the
// entity type E and a caller-defined filter type F. A Service layers
// declarative validation, identifier checks, a search-term compiler and
// error normalization on top of a Repository, so entity-specific services
// can be declared with almost no boilerplate.
package crud

import "context"

// Repository defines the generic persistence surface consumed by Service.
// Implementations translate filters and identifiers into backend queries and
// pass backend errors through without classifying them; error shaping is the
// Service's responsibility.
type Repository[E any, F any] interface {
	// GetAll returns every entity of the type.
	GetAll(ctx context.Context) ([]E, error)
	// FindManyByFilter returns all entities matching the provided filters.
	FindManyByFilter(ctx context.Context, filters F) ([]E, error)
	// FindManyByFilterPaged returns a page of entities matching the filters.
	FindManyByFilterPaged(ctx context.Context, filters F, limit, offset int) ([]E, error)
	// CountByFilter returns the number of entities matching the filters.
	CountByFilter(ctx context.Context, filters F) (int, error)
	// FindOneByID retrieves a single entity by its numeric identifier.
	// An absent row surfaces as the backend's no-rows error.
	FindOneByID(ctx context.Context, id int64) (*E, error)
	// FindOneByFilter retrieves a single entity matching the filters.
	FindOneByFilter(ctx context.Context, filters F) (*E, error)
	// FindOneWithQueryBuilder retrieves the first entity matching the
	// compiled predicate, or nil (with a nil error) if none matches.
	FindOneWithQueryBuilder(ctx context.Context, opts QueryBuilderOptions) (*E, error)
	// FindManyWithQueryBuilder returns all entities matching the compiled predicate.
	FindManyWithQueryBuilder(ctx context.Context, opts QueryBuilderOptions) ([]E, error)

	// Save inserts a new entity and returns it with backend-assigned fields populated.
	Save(ctx context.Context, entity *E) (*E, error)
	// SaveAll inserts multiple entities in a single batch operation.
	SaveAll(ctx context.Context, entities []E) ([]E, error)
	// UpdateOneByID modifies the entity with the given identifier.
	UpdateOneByID(ctx context.Context, id int64, entity *E) (*E, error)
	// Delete removes an entity from the backend.
	Delete(ctx context.Context, entity *E) error
}
