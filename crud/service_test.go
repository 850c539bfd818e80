package crud

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/code19m/errx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nicolaspearson/grpc.typeorm.infrastructure/pagination"
)

type testUser struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name" validate:"required"`
	Email     string `json:"email"      validate:"required,email"`

	beforeSaveCalled  bool
	afterResultCalled bool
}

func (u *testUser) BeforeSave(_ context.Context) error {
	u.beforeSaveCalled = true
	return nil
}

func (u *testUser) AfterResult(_ context.Context) error {
	u.afterResultCalled = true
	return nil
}

type testFilter struct {
	Email string
}

// fakeRepo is a hand-written Repository double with per-method overrides.
type fakeRepo struct {
	getAll            func(ctx context.Context) ([]testUser, error)
	findManyByFilter  func(ctx context.Context, f testFilter) ([]testUser, error)
	findManyPaged     func(ctx context.Context, f testFilter, limit, offset int) ([]testUser, error)
	countByFilter     func(ctx context.Context, f testFilter) (int, error)
	findOneByID       func(ctx context.Context, id int64) (*testUser, error)
	findOneByFilter   func(ctx context.Context, f testFilter) (*testUser, error)
	findOneWithQB     func(ctx context.Context, opts QueryBuilderOptions) (*testUser, error)
	findManyWithQB    func(ctx context.Context, opts QueryBuilderOptions) ([]testUser, error)
	save              func(ctx context.Context, e *testUser) (*testUser, error)
	saveAll           func(ctx context.Context, es []testUser) ([]testUser, error)
	updateOneByID     func(ctx context.Context, id int64, e *testUser) (*testUser, error)
	deleteFn          func(ctx context.Context, e *testUser) error
	saveAllCallCount  int
}

func (r *fakeRepo) GetAll(ctx context.Context) ([]testUser, error) {
	return r.getAll(ctx)
}

func (r *fakeRepo) FindManyByFilter(ctx context.Context, f testFilter) ([]testUser, error) {
	return r.findManyByFilter(ctx, f)
}

func (r *fakeRepo) FindManyByFilterPaged(
	ctx context.Context, f testFilter, limit, offset int,
) ([]testUser, error) {
	return r.findManyPaged(ctx, f, limit, offset)
}

func (r *fakeRepo) CountByFilter(ctx context.Context, f testFilter) (int, error) {
	return r.countByFilter(ctx, f)
}

func (r *fakeRepo) FindOneByID(ctx context.Context, id int64) (*testUser, error) {
	return r.findOneByID(ctx, id)
}

func (r *fakeRepo) FindOneByFilter(ctx context.Context, f testFilter) (*testUser, error) {
	return r.findOneByFilter(ctx, f)
}

func (r *fakeRepo) FindOneWithQueryBuilder(
	ctx context.Context, opts QueryBuilderOptions,
) (*testUser, error) {
	return r.findOneWithQB(ctx, opts)
}

func (r *fakeRepo) FindManyWithQueryBuilder(
	ctx context.Context, opts QueryBuilderOptions,
) ([]testUser, error) {
	return r.findManyWithQB(ctx, opts)
}

func (r *fakeRepo) Save(ctx context.Context, e *testUser) (*testUser, error) {
	return r.save(ctx, e)
}

func (r *fakeRepo) SaveAll(ctx context.Context, es []testUser) ([]testUser, error) {
	r.saveAllCallCount++
	return r.saveAll(ctx, es)
}

func (r *fakeRepo) UpdateOneByID(ctx context.Context, id int64, e *testUser) (*testUser, error) {
	return r.updateOneByID(ctx, id, e)
}

func (r *fakeRepo) Delete(ctx context.Context, e *testUser) error {
	return r.deleteFn(ctx, e)
}

func newTestService(repo *fakeRepo) *Service[testUser, testFilter] {
	return NewService[testUser, testFilter](repo)
}

func TestValidID(t *testing.T) {
	t.Parallel()

	assert.True(t, ValidID(1))
	assert.True(t, ValidID(42))
	assert.False(t, ValidID(0))
	assert.False(t, ValidID(-7))
}

func TestServiceFindOneByID(t *testing.T) {
	t.Parallel()

	t.Run("rejects non positive id", func(t *testing.T) {
		t.Parallel()

		svc := newTestService(&fakeRepo{})
		_, err := svc.FindOneByID(context.Background(), 0)

		require.Error(t, err)
		e := errx.AsErrorX(err)
		assert.Equal(t, CodeInvalidID, e.Code())
		assert.Equal(t, errx.T_Validation, e.Type())
	})

	t.Run("returns entity and runs after hook", func(t *testing.T) {
		t.Parallel()

		repo := &fakeRepo{
			findOneByID: func(_ context.Context, id int64) (*testUser, error) {
				return &testUser{ID: id, FirstName: "Bob", Email: "bob@example.com"}, nil
			},
		}
		svc := newTestService(repo)

		got, err := svc.FindOneByID(context.Background(), 7)
		require.NoError(t, err)
		assert.EqualValues(t, 7, got.ID)
		assert.True(t, got.afterResultCalled)
	})

	t.Run("wraps untyped backend errors as internal", func(t *testing.T) {
		t.Parallel()

		repo := &fakeRepo{
			findOneByID: func(_ context.Context, _ int64) (*testUser, error) {
				return nil, sql.ErrNoRows
			},
		}
		svc := newTestService(repo)

		_, err := svc.FindOneByID(context.Background(), 7)
		require.Error(t, err)
		assert.Equal(t, errx.T_Internal, errx.GetType(err))
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})

	t.Run("typed errors pass through unchanged", func(t *testing.T) {
		t.Parallel()

		typed := errx.New("gone", errx.WithCode("GONE"), errx.WithType(errx.T_NotFound))
		repo := &fakeRepo{
			findOneByID: func(_ context.Context, _ int64) (*testUser, error) {
				return nil, typed
			},
		}
		svc := newTestService(repo)

		_, err := svc.FindOneByID(context.Background(), 7)
		require.Error(t, err)
		e := errx.AsErrorX(err)
		assert.Equal(t, "GONE", e.Code())
		assert.Equal(t, errx.T_NotFound, e.Type())
	})
}

func TestServiceFindOneWithQueryBuilder(t *testing.T) {
	t.Parallel()

	t.Run("absent result becomes typed not found", func(t *testing.T) {
		t.Parallel()

		repo := &fakeRepo{
			findOneWithQB: func(_ context.Context, _ QueryBuilderOptions) (*testUser, error) {
				return nil, nil
			},
		}
		svc := newTestService(repo)

		_, err := svc.FindOneWithQueryBuilder(context.Background(), QueryBuilderOptions{Where: "id = '1'"})
		require.Error(t, err)
		e := errx.AsErrorX(err)
		assert.Equal(t, CodeObjectNotFound, e.Code())
		assert.Equal(t, errx.T_NotFound, e.Type())
		assert.Contains(t, e.Error(), "testUser")
	})

	t.Run("custom not found code", func(t *testing.T) {
		t.Parallel()

		repo := &fakeRepo{
			findOneWithQB: func(_ context.Context, _ QueryBuilderOptions) (*testUser, error) {
				return nil, nil
			},
		}
		svc := newTestService(repo).WithNotFoundCode("USER_NOT_FOUND")

		_, err := svc.FindOneWithQueryBuilder(context.Background(), QueryBuilderOptions{Where: "id = '1'"})
		require.Error(t, err)
		assert.Equal(t, "USER_NOT_FOUND", errx.AsErrorX(err).Code())
	})

	t.Run("present result returned as is", func(t *testing.T) {
		t.Parallel()

		repo := &fakeRepo{
			findOneWithQB: func(_ context.Context, _ QueryBuilderOptions) (*testUser, error) {
				return &testUser{ID: 1, FirstName: "Ann", Email: "ann@example.com"}, nil
			},
		}
		svc := newTestService(repo)

		got, err := svc.FindOneWithQueryBuilder(context.Background(), QueryBuilderOptions{Where: "id = '1'"})
		require.NoError(t, err)
		assert.EqualValues(t, 1, got.ID)
	})
}

func TestServiceSearch(t *testing.T) {
	t.Parallel()

	t.Run("compiles terms and delegates", func(t *testing.T) {
		t.Parallel()

		var gotOpts QueryBuilderOptions
		repo := &fakeRepo{
			findManyWithQB: func(_ context.Context, opts QueryBuilderOptions) ([]testUser, error) {
				gotOpts = opts
				return []testUser{{ID: 1}}, nil
			},
		}
		svc := newTestService(repo)

		terms := []SearchTerm{
			{Field: "age", Operator: ">", Value: "18"},
			{Field: "name", Value: "bob"},
		}
		got, err := svc.Search(context.Background(), 10, terms)
		require.NoError(t, err)
		assert.Len(t, got, 1)
		assert.Equal(t, "age > '18'", gotOpts.Where)
		assert.Equal(t, []string{"name = 'bob'"}, gotOpts.AndWhere)
		assert.Equal(t, 10, gotOpts.Limit)
	})

	t.Run("invalid input never reaches the repository", func(t *testing.T) {
		t.Parallel()

		svc := newTestService(&fakeRepo{})

		_, err := svc.Search(context.Background(), -1, []SearchTerm{{Field: "age", Value: "18"}})
		require.Error(t, err)
		assert.Equal(t, CodeInvalidSearchFilter, errx.AsErrorX(err).Code())
	})
}

func TestServiceSave(t *testing.T) {
	t.Parallel()

	t.Run("rejects invalid entity before persisting", func(t *testing.T) {
		t.Parallel()

		svc := newTestService(&fakeRepo{})

		_, err := svc.Save(context.Background(), &testUser{Email: "not-an-email"})
		require.Error(t, err)
		e := errx.AsErrorX(err)
		assert.Equal(t, errx.T_Validation, e.Type())
		assert.Len(t, e.Fields(), 2)
	})

	t.Run("runs hooks around persistence", func(t *testing.T) {
		t.Parallel()

		repo := &fakeRepo{
			save: func(_ context.Context, e *testUser) (*testUser, error) {
				e.ID = 11
				return e, nil
			},
		}
		svc := newTestService(repo)

		entity := &testUser{FirstName: "Bob", Email: "bob@example.com"}
		got, err := svc.Save(context.Background(), entity)
		require.NoError(t, err)
		assert.EqualValues(t, 11, got.ID)
		assert.True(t, got.beforeSaveCalled)
		assert.True(t, got.afterResultCalled)
	})
}

func TestServiceSaveAll(t *testing.T) {
	t.Parallel()

	t.Run("one invalid entity blocks the whole batch", func(t *testing.T) {
		t.Parallel()

		repo := &fakeRepo{
			saveAll: func(_ context.Context, es []testUser) ([]testUser, error) {
				return es, nil
			},
		}
		svc := newTestService(repo)

		batch := []testUser{
			{FirstName: "Ann", Email: "ann@example.com"},
			{FirstName: "", Email: "broken"},
		}
		_, err := svc.SaveAll(context.Background(), batch)
		require.Error(t, err)
		assert.Equal(t, errx.T_Validation, errx.GetType(err))
		assert.Zero(t, repo.saveAllCallCount)
	})

	t.Run("valid batch persisted in one call", func(t *testing.T) {
		t.Parallel()

		repo := &fakeRepo{
			saveAll: func(_ context.Context, es []testUser) ([]testUser, error) {
				for i := range es {
					es[i].ID = int64(i + 1)
				}
				return es, nil
			},
		}
		svc := newTestService(repo)

		batch := []testUser{
			{FirstName: "Ann", Email: "ann@example.com"},
			{FirstName: "Bob", Email: "bob@example.com"},
		}
		got, err := svc.SaveAll(context.Background(), batch)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.EqualValues(t, 2, got[1].ID)
		assert.Equal(t, 1, repo.saveAllCallCount)
		assert.True(t, got[0].beforeSaveCalled)
		assert.True(t, got[1].afterResultCalled)
	})
}

func TestServiceUpdate(t *testing.T) {
	t.Parallel()

	t.Run("rejects invalid id", func(t *testing.T) {
		t.Parallel()

		svc := newTestService(&fakeRepo{})

		_, err := svc.Update(context.Background(), &testUser{FirstName: "Bob", Email: "bob@example.com"}, -1)
		require.Error(t, err)
		assert.Equal(t, CodeInvalidID, errx.AsErrorX(err).Code())
	})

	t.Run("applies update by id", func(t *testing.T) {
		t.Parallel()

		repo := &fakeRepo{
			updateOneByID: func(_ context.Context, id int64, e *testUser) (*testUser, error) {
				e.ID = id
				return e, nil
			},
		}
		svc := newTestService(repo)

		got, err := svc.Update(context.Background(), &testUser{FirstName: "Bob", Email: "bob@example.com"}, 5)
		require.NoError(t, err)
		assert.EqualValues(t, 5, got.ID)
	})
}

func TestServiceDelete(t *testing.T) {
	t.Parallel()

	t.Run("returns the pre-deletion snapshot", func(t *testing.T) {
		t.Parallel()

		deleted := false
		repo := &fakeRepo{
			findOneByID: func(_ context.Context, id int64) (*testUser, error) {
				return &testUser{ID: id, FirstName: "Bob", Email: "bob@example.com"}, nil
			},
			deleteFn: func(_ context.Context, e *testUser) error {
				deleted = true
				return nil
			},
		}
		svc := newTestService(repo)

		got, err := svc.Delete(context.Background(), 3)
		require.NoError(t, err)
		assert.True(t, deleted)
		assert.EqualValues(t, 3, got.ID)
		assert.Equal(t, "Bob", got.FirstName)
	})

	t.Run("lookup failure aborts deletion", func(t *testing.T) {
		t.Parallel()

		repo := &fakeRepo{
			findOneByID: func(_ context.Context, _ int64) (*testUser, error) {
				return nil, errors.New("connection reset")
			},
			deleteFn: func(_ context.Context, _ *testUser) error {
				t.Fatal("delete must not be called")
				return nil
			},
		}
		svc := newTestService(repo)

		_, err := svc.Delete(context.Background(), 3)
		require.Error(t, err)
		assert.Equal(t, errx.T_Internal, errx.GetType(err))
	})
}

func TestServiceFindPageByFilter(t *testing.T) {
	t.Parallel()

	var gotLimit, gotOffset int
	repo := &fakeRepo{
		countByFilter: func(_ context.Context, _ testFilter) (int, error) {
			return 42, nil
		},
		findManyPaged: func(_ context.Context, _ testFilter, limit, offset int) ([]testUser, error) {
			gotLimit, gotOffset = limit, offset
			return []testUser{{ID: 21}, {ID: 22}}, nil
		},
	}
	svc := newTestService(repo)

	page, err := svc.FindPageByFilter(context.Background(), testFilter{}, pagination.Request{
		PageNumber: 3,
		PageSize:   10,
	})
	require.NoError(t, err)
	assert.Equal(t, 10, gotLimit)
	assert.Equal(t, 20, gotOffset)
	assert.EqualValues(t, 42, page.TotalCount)
	assert.Equal(t, 5, page.PageCount)
	assert.Len(t, page.PageContent, 2)
}
