package crud

import (
	"context"
	"fmt"

	"github.com/code19m/errx"
	"github.com/uptrace/bun"

	"github.com/nicolaspearson/grpc.typeorm.infrastructure/pg"
)

// FilterFunc applies a caller-defined filter type F to a select query.
type FilterFunc[F any] func(q *bun.SelectQuery, filters F) *bun.SelectQuery

// PgRepository is the bun-backed Repository implementation for PostgreSQL.
//
// Backend errors are passed through with query diagnostics attached but
// without kind classification; in particular an absent row on the single-row
// read paths surfaces as the driver's no-rows error, checkable with
// pg.IsNotFound. FindOneWithQueryBuilder is the exception and returns
// nil, nil when nothing matches.
type PgRepository[E any, F any] struct {
	idb        bun.IDB
	schemaName string

	filterFunc FilterFunc[F]
}

// NewPgRepository creates a PostgreSQL repository over the given connection
// or transaction. A nil filterFunc means filters of type F are ignored.
func NewPgRepository[E any, F any](idb bun.IDB, filterFunc FilterFunc[F]) *PgRepository[E, F] {
	if filterFunc == nil {
		filterFunc = func(q *bun.SelectQuery, _ F) *bun.SelectQuery { return q }
	}
	return &PgRepository[E, F]{
		idb:        idb,
		schemaName: "public",
		filterFunc: filterFunc,
	}
}

// WithSchemaName sets the PostgreSQL schema the entity table lives in.
func (r *PgRepository[E, F]) WithSchemaName(name string) *PgRepository[E, F] {
	r.schemaName = name
	return r
}

func (r *PgRepository[E, F]) GetAll(ctx context.Context) ([]E, error) {
	var entities = make([]E, 0)
	q := r.idb.NewSelect().Model(&entities)
	q = r.applyModelTableExpr(q)

	if err := q.Scan(ctx); err != nil {
		return nil, wrapQueryError(err, q)
	}
	return entities, nil
}

func (r *PgRepository[E, F]) FindManyByFilter(ctx context.Context, filters F) ([]E, error) {
	var entities = make([]E, 0)
	q := r.idb.NewSelect().Model(&entities)
	q = r.applyModelTableExpr(q)
	q = r.filterFunc(q, filters)

	if err := q.Scan(ctx); err != nil {
		return nil, wrapQueryError(err, q)
	}
	return entities, nil
}

func (r *PgRepository[E, F]) FindManyByFilterPaged(
	ctx context.Context,
	filters F,
	limit, offset int,
) ([]E, error) {
	var entities = make([]E, 0)
	q := r.idb.NewSelect().Model(&entities)
	q = r.applyModelTableExpr(q)
	q = r.filterFunc(q, filters)
	q = q.Limit(limit).Offset(offset)

	if err := q.Scan(ctx); err != nil {
		return nil, wrapQueryError(err, q)
	}
	return entities, nil
}

func (r *PgRepository[E, F]) CountByFilter(ctx context.Context, filters F) (int, error) {
	q := r.idb.NewSelect().Model((*E)(nil))
	q = r.applyModelTableExpr(q)
	q = r.filterFunc(q, filters)
	q = q.Offset(0).Limit(0)

	count, err := q.Count(ctx)
	if err != nil {
		return 0, wrapQueryError(err, q)
	}
	return count, nil
}

func (r *PgRepository[E, F]) FindOneByID(ctx context.Context, id int64) (*E, error) {
	entity := new(E)
	q := r.idb.NewSelect().Model(entity)
	q = r.applyModelTableExpr(q)
	q = q.Where("?TableAlias.id = ?", id)

	if err := q.Scan(ctx); err != nil {
		return nil, wrapQueryError(err, q)
	}
	return entity, nil
}

func (r *PgRepository[E, F]) FindOneByFilter(ctx context.Context, filters F) (*E, error) {
	entity := new(E)
	q := r.idb.NewSelect().Model(entity).Limit(1)
	q = r.applyModelTableExpr(q)
	q = r.filterFunc(q, filters)

	if err := q.Scan(ctx); err != nil {
		return nil, wrapQueryError(err, q)
	}
	return entity, nil
}

func (r *PgRepository[E, F]) FindOneWithQueryBuilder(
	ctx context.Context,
	opts QueryBuilderOptions,
) (*E, error) {
	var entities = make([]E, 0)
	q := r.idb.NewSelect().Model(&entities).Limit(1)
	q = r.applyModelTableExpr(q)
	q = applyQueryBuilder(q, opts)

	if err := q.Scan(ctx); err != nil {
		return nil, wrapQueryError(err, q)
	}

	if len(entities) == 0 {
		return nil, nil //nolint:nilnil // absence is not an error on this path
	}
	return &entities[0], nil
}

func (r *PgRepository[E, F]) FindManyWithQueryBuilder(
	ctx context.Context,
	opts QueryBuilderOptions,
) ([]E, error) {
	var entities = make([]E, 0)
	q := r.idb.NewSelect().Model(&entities)
	q = r.applyModelTableExpr(q)
	q = applyQueryBuilder(q, opts)

	if err := q.Scan(ctx); err != nil {
		return nil, wrapQueryError(err, q)
	}
	return entities, nil
}

func (r *PgRepository[E, F]) Save(ctx context.Context, entity *E) (*E, error) {
	q := r.idb.NewInsert().Model(entity).Returning("*")
	q = r.applyInsertModelTableExpr(q)

	if _, err := q.Exec(ctx); err != nil {
		return nil, wrapQueryError(err, q)
	}
	return entity, nil
}

func (r *PgRepository[E, F]) SaveAll(ctx context.Context, entities []E) ([]E, error) {
	if len(entities) == 0 {
		return entities, nil
	}

	q := r.idb.NewInsert().Model(&entities).Returning("*")
	q = r.applyInsertModelTableExpr(q)

	if _, err := q.Exec(ctx); err != nil {
		return nil, wrapQueryError(err, q)
	}
	return entities, nil
}

func (r *PgRepository[E, F]) UpdateOneByID(ctx context.Context, id int64, entity *E) (*E, error) {
	q := r.idb.NewUpdate().Model(entity).Returning("*")
	q = r.applyUpdateModelTableExpr(q)
	q = q.Where("?TableAlias.id = ?", id)

	if _, err := q.Exec(ctx); err != nil {
		return nil, wrapQueryError(err, q)
	}
	return entity, nil
}

func (r *PgRepository[E, F]) Delete(ctx context.Context, entity *E) error {
	q := r.idb.NewDelete().Model(entity).WherePK()
	q = r.applyDeleteModelTableExpr(q)

	if _, err := q.Exec(ctx); err != nil {
		return wrapQueryError(err, q)
	}
	return nil
}

// applyQueryBuilder translates compiled predicate options into bun query
// clauses. Where and every AndWhere entry join conjunctively; a zero limit
// means unbounded.
func applyQueryBuilder(q *bun.SelectQuery, opts QueryBuilderOptions) *bun.SelectQuery {
	if opts.Where != "" {
		q = q.Where(opts.Where)
	}
	for _, clause := range opts.AndWhere {
		q = q.Where(clause)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	for _, o := range opts.Order {
		q = q.OrderExpr("? ?", bun.Ident(o.Field), bun.Safe(o.Direction))
	}
	return q
}

func (r *PgRepository[E, F]) applyModelTableExpr(q *bun.SelectQuery) *bun.SelectQuery {
	table := q.GetModel().(bun.TableModel).Table() //nolint:errcheck // table name is always available
	return q.ModelTableExpr("?.? AS ?", bun.Ident(r.schemaName), bun.Ident(table.Name), bun.Ident(table.Alias))
}

func (r *PgRepository[E, F]) applyInsertModelTableExpr(q *bun.InsertQuery) *bun.InsertQuery {
	table := q.GetModel().(bun.TableModel).Table() //nolint:errcheck // table name is always available
	return q.ModelTableExpr("?.? AS ?", bun.Ident(r.schemaName), bun.Ident(table.Name), bun.Ident(table.Alias))
}

func (r *PgRepository[E, F]) applyUpdateModelTableExpr(q *bun.UpdateQuery) *bun.UpdateQuery {
	table := q.GetModel().(bun.TableModel).Table() //nolint:errcheck // table name is always available
	return q.ModelTableExpr("?.? AS ?", bun.Ident(r.schemaName), bun.Ident(table.Name), bun.Ident(table.Alias))
}

func (r *PgRepository[E, F]) applyDeleteModelTableExpr(q *bun.DeleteQuery) *bun.DeleteQuery {
	table := q.GetModel().(bun.TableModel).Table() //nolint:errcheck // table name is always available
	return q.ModelTableExpr("?.? AS ?", bun.Ident(r.schemaName), bun.Ident(table.Name), bun.Ident(table.Alias))
}

// wrapQueryError attaches query diagnostics to backend errors. No-rows
// errors pass through untouched so callers can check them with pg.IsNotFound.
func wrapQueryError(err error, query fmt.Stringer) error {
	if pg.IsNotFound(err) {
		return err
	}
	return errx.Wrap(err, errx.WithDetails(pg.ErrorDetails(err, query)))
}
