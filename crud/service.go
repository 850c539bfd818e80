package crud

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/code19m/errx"

	"github.com/nicolaspearson/grpc.typeorm.infrastructure/logger"
	"github.com/nicolaspearson/grpc.typeorm.infrastructure/pagination"
	"github.com/nicolaspearson/grpc.typeorm.infrastructure/val"
)

// ValidID reports whether id is a usable entity identifier (strictly positive).
func ValidID(id int64) bool {
	return id > 0
}

// Service is the public request-handling surface for an entity type. It
// validates input, delegates to the injected Repository and guarantees that
// every error crossing its boundary is an errx error: validation failures
// and bad identifiers surface as T_Validation, absent query-builder results
// as T_NotFound, and anything untyped is wrapped as T_Internal. Errors that
// are already typed pass through unchanged.
type Service[E any, F any] struct {
	repo Repository[E, F]
	log  logger.Logger

	entityName   string
	notFoundCode string
}

// NewService creates a Service on top of the given repository.
func NewService[E any, F any](repo Repository[E, F]) *Service[E, F] {
	return &Service[E, F]{
		repo:         repo,
		log:          logger.Named("crud_service"),
		entityName:   nameOf(new(E)),
		notFoundCode: CodeObjectNotFound,
	}
}

// WithLogger replaces the logger used for reporting failed operations.
func (s *Service[E, F]) WithLogger(log logger.Logger) *Service[E, F] {
	s.log = log
	return s
}

// WithNotFoundCode sets the error code used when a single-result
// query-builder lookup matches nothing.
func (s *Service[E, F]) WithNotFoundCode(code string) *Service[E, F] {
	s.notFoundCode = code
	return s
}

// FindAll returns every entity.
func (s *Service[E, F]) FindAll(ctx context.Context) ([]E, error) {
	entities, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, s.fail(ctx, "find_all", err)
	}
	if err := runAfterResultAll(ctx, entities); err != nil {
		return nil, s.fail(ctx, "find_all", err)
	}
	return entities, nil
}

// FindAllByFilter returns all entities matching the filters.
func (s *Service[E, F]) FindAllByFilter(ctx context.Context, filters F) ([]E, error) {
	entities, err := s.repo.FindManyByFilter(ctx, filters)
	if err != nil {
		return nil, s.fail(ctx, "find_all_by_filter", err)
	}
	if err := runAfterResultAll(ctx, entities); err != nil {
		return nil, s.fail(ctx, "find_all_by_filter", err)
	}
	return entities, nil
}

// FindPageByFilter returns one page of entities matching the filters along
// with pagination metadata.
func (s *Service[E, F]) FindPageByFilter(
	ctx context.Context,
	filters F,
	req pagination.Request,
) (pagination.Response[E], error) {
	req.Normalize()

	total, err := s.repo.CountByFilter(ctx, filters)
	if err != nil {
		return pagination.Response[E]{}, s.fail(ctx, "find_page_by_filter", err)
	}

	entities, err := s.repo.FindManyByFilterPaged(ctx, filters, req.Limit(), req.Offset())
	if err != nil {
		return pagination.Response[E]{}, s.fail(ctx, "find_page_by_filter", err)
	}
	if err := runAfterResultAll(ctx, entities); err != nil {
		return pagination.Response[E]{}, s.fail(ctx, "find_page_by_filter", err)
	}

	return pagination.NewResponse(entities, int64(total), req), nil
}

// FindOneByID retrieves a single entity by its identifier.
func (s *Service[E, F]) FindOneByID(ctx context.Context, id int64) (*E, error) {
	if err := s.checkID(id); err != nil {
		return nil, s.fail(ctx, "find_one_by_id", err)
	}

	entity, err := s.repo.FindOneByID(ctx, id)
	if err != nil {
		return nil, s.fail(ctx, "find_one_by_id", err)
	}
	if err := runAfterResult(ctx, entity); err != nil {
		return nil, s.fail(ctx, "find_one_by_id", err)
	}
	return entity, nil
}

// FindOneByFilter retrieves a single entity matching the filters.
func (s *Service[E, F]) FindOneByFilter(ctx context.Context, filters F) (*E, error) {
	entity, err := s.repo.FindOneByFilter(ctx, filters)
	if err != nil {
		return nil, s.fail(ctx, "find_one_by_filter", err)
	}
	if err := runAfterResult(ctx, entity); err != nil {
		return nil, s.fail(ctx, "find_one_by_filter", err)
	}
	return entity, nil
}

// FindOneWithQueryBuilder retrieves the first entity matching the compiled
// predicate. An absent result is reported as a typed not-found error; this
// is the only read path that distinguishes "not found" from "no error".
func (s *Service[E, F]) FindOneWithQueryBuilder(
	ctx context.Context,
	opts QueryBuilderOptions,
) (*E, error) {
	entity, err := s.repo.FindOneWithQueryBuilder(ctx, opts)
	if err != nil {
		return nil, s.fail(ctx, "find_one_with_query_builder", err)
	}

	if entity == nil {
		return nil, s.fail(ctx, "find_one_with_query_builder", errx.New(
			fmt.Sprintf("no %s found", s.entityName),
			errx.WithCode(s.notFoundCode),
			errx.WithType(errx.T_NotFound),
		))
	}

	if err := runAfterResult(ctx, entity); err != nil {
		return nil, s.fail(ctx, "find_one_with_query_builder", err)
	}
	return entity, nil
}

// FindManyWithQueryBuilder returns all entities matching the compiled predicate.
func (s *Service[E, F]) FindManyWithQueryBuilder(
	ctx context.Context,
	opts QueryBuilderOptions,
) ([]E, error) {
	entities, err := s.repo.FindManyWithQueryBuilder(ctx, opts)
	if err != nil {
		return nil, s.fail(ctx, "find_many_with_query_builder", err)
	}
	if err := runAfterResultAll(ctx, entities); err != nil {
		return nil, s.fail(ctx, "find_many_with_query_builder", err)
	}
	return entities, nil
}

// Search compiles the supplied terms into a query predicate and returns all
// matching entities.
func (s *Service[E, F]) Search(ctx context.Context, limit int, terms []SearchTerm) ([]E, error) {
	opts, err := BuildSearchFilter(limit, terms)
	if err != nil {
		return nil, s.fail(ctx, "search", err)
	}
	return s.FindManyWithQueryBuilder(ctx, opts)
}

// Save validates and persists a new entity.
func (s *Service[E, F]) Save(ctx context.Context, entity *E) (*E, error) {
	if err := val.Validate(entity); err != nil {
		return nil, s.fail(ctx, "save", err)
	}
	if err := runBeforeSave(ctx, entity); err != nil {
		return nil, s.fail(ctx, "save", err)
	}

	saved, err := s.repo.Save(ctx, entity)
	if err != nil {
		return nil, s.fail(ctx, "save", err)
	}
	if err := runAfterResult(ctx, saved); err != nil {
		return nil, s.fail(ctx, "save", err)
	}
	return saved, nil
}

// SaveAll validates every entity before persisting any of them, then
// persists the batch with a single repository call. The persist step itself
// carries no transactional guarantee; a backend failure mid-batch is not
// rolled back by this layer.
func (s *Service[E, F]) SaveAll(ctx context.Context, entities []E) ([]E, error) {
	for i := range entities {
		if err := val.Validate(&entities[i]); err != nil {
			return nil, s.fail(ctx, "save_all", err)
		}
	}
	for i := range entities {
		if err := runBeforeSave(ctx, &entities[i]); err != nil {
			return nil, s.fail(ctx, "save_all", err)
		}
	}

	saved, err := s.repo.SaveAll(ctx, entities)
	if err != nil {
		return nil, s.fail(ctx, "save_all", err)
	}
	if err := runAfterResultAll(ctx, saved); err != nil {
		return nil, s.fail(ctx, "save_all", err)
	}
	return saved, nil
}

// Update validates the entity and the identifier, then applies the update.
func (s *Service[E, F]) Update(ctx context.Context, entity *E, id int64) (*E, error) {
	if err := s.checkID(id); err != nil {
		return nil, s.fail(ctx, "update", err)
	}
	if err := val.Validate(entity); err != nil {
		return nil, s.fail(ctx, "update", err)
	}
	if err := runBeforeUpdate(ctx, entity); err != nil {
		return nil, s.fail(ctx, "update", err)
	}

	updated, err := s.repo.UpdateOneByID(ctx, id, entity)
	if err != nil {
		return nil, s.fail(ctx, "update", err)
	}
	if err := runAfterResult(ctx, updated); err != nil {
		return nil, s.fail(ctx, "update", err)
	}
	return updated, nil
}

// Delete validates the identifier, fetches the entity, deletes it and
// returns the pre-deletion snapshot.
func (s *Service[E, F]) Delete(ctx context.Context, id int64) (*E, error) {
	if err := s.checkID(id); err != nil {
		return nil, s.fail(ctx, "delete", err)
	}

	entity, err := s.repo.FindOneByID(ctx, id)
	if err != nil {
		return nil, s.fail(ctx, "delete", err)
	}
	if err := runBeforeDelete(ctx, entity); err != nil {
		return nil, s.fail(ctx, "delete", err)
	}

	if err := s.repo.Delete(ctx, entity); err != nil {
		return nil, s.fail(ctx, "delete", err)
	}

	if err := runAfterResult(ctx, entity); err != nil {
		return nil, s.fail(ctx, "delete", err)
	}
	return entity, nil
}

// checkID rejects identifiers that are zero or negative.
func (s *Service[E, F]) checkID(id int64) error {
	if ValidID(id) {
		return nil
	}
	return errx.New(
		fmt.Sprintf("invalid %s id: %d", s.entityName, id),
		errx.WithCode(CodeInvalidID),
		errx.WithType(errx.T_Validation),
	)
}

// fail normalizes err at the service boundary and logs it. Errors that are
// already errx-typed propagate unchanged; anything else is wrapped and
// surfaces as T_Internal.
func (s *Service[E, F]) fail(ctx context.Context, op string, err error) error {
	var e errx.ErrorX
	if !errors.As(err, &e) {
		err = errx.Wrap(err)
	}

	log := s.log.WithContext(ctx).With("operation", op, "entity", s.entityName)
	if errx.GetType(err) == errx.T_Internal {
		log.Errorx(err)
	} else {
		log.Warnx(err)
	}
	return err
}

// nameOf returns the name of the type of the given value.
// If the value is a pointer, it returns the name of the pointed-to type.
func nameOf(v any) string {
	t := reflect.TypeOf(v)
	if t.Kind() == reflect.Pointer {
		return t.Elem().Name()
	}
	return t.Name()
}
