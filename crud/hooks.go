package crud

import "context"

// Lifecycle hooks are optional extension interfaces implemented by the
// entity pointer type. The Service checks for them with type assertions, the
// same way bun model hooks work, so entities opt in per hook.

// BeforeSaveHook runs before an entity is persisted by Save or SaveAll.
type BeforeSaveHook interface {
	BeforeSave(ctx context.Context) error
}

// BeforeUpdateHook runs before an entity is updated.
type BeforeUpdateHook interface {
	BeforeUpdate(ctx context.Context) error
}

// BeforeDeleteHook runs before an entity is deleted.
type BeforeDeleteHook interface {
	BeforeDelete(ctx context.Context) error
}

// AfterResultHook runs on every entity the Service is about to return,
// including the pre-deletion snapshot returned by Delete.
type AfterResultHook interface {
	AfterResult(ctx context.Context) error
}

func runBeforeSave[E any](ctx context.Context, entity *E) error {
	if h, ok := any(entity).(BeforeSaveHook); ok {
		return h.BeforeSave(ctx)
	}
	return nil
}

func runBeforeUpdate[E any](ctx context.Context, entity *E) error {
	if h, ok := any(entity).(BeforeUpdateHook); ok {
		return h.BeforeUpdate(ctx)
	}
	return nil
}

func runBeforeDelete[E any](ctx context.Context, entity *E) error {
	if h, ok := any(entity).(BeforeDeleteHook); ok {
		return h.BeforeDelete(ctx)
	}
	return nil
}

func runAfterResult[E any](ctx context.Context, entity *E) error {
	if h, ok := any(entity).(AfterResultHook); ok {
		return h.AfterResult(ctx)
	}
	return nil
}

func runAfterResultAll[E any](ctx context.Context, entities []E) error {
	for i := range entities {
		if err := runAfterResult(ctx, &entities[i]); err != nil {
			return err
		}
	}
	return nil
}
