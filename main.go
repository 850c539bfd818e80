package main

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"github.com/nicolaspearson/grpc.typeorm.infrastructure/cfgloader"
	"github.com/nicolaspearson/grpc.typeorm.infrastructure/crud"
	"github.com/nicolaspearson/grpc.typeorm.infrastructure/logger"
	"github.com/nicolaspearson/grpc.typeorm.infrastructure/pg"
)

// Config is the demo application configuration.
type Config struct {
	Logger logger.Config `yaml:"logger"`
	PG     pg.Config     `yaml:"pg"`
}

// User is a sample entity backed by the users table.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID        int64     `json:"id"         bun:"id,pk,autoincrement"`
	Email     string    `json:"email"      bun:"email,notnull"      validate:"required,email"`
	FirstName string    `json:"first_name" bun:"first_name,notnull" validate:"required"`
	LastName  string    `json:"last_name"  bun:"last_name,notnull"  validate:"required"`
	CreatedAt time.Time `json:"created_at" bun:"created_at,nullzero"`
	UpdatedAt time.Time `json:"updated_at" bun:"updated_at,nullzero"`
}

// UserFilter narrows user queries.
type UserFilter struct {
	Email string
}

func userFilterFunc(q *bun.SelectQuery, f UserFilter) *bun.SelectQuery {
	if f.Email != "" {
		q = q.Where("?TableAlias.email = ?", f.Email)
	}
	return q
}

func main() {
	cfg := cfgloader.MustLoad[Config]()

	logger.SetGlobal(cfg.Logger)
	log := logger.Named("main")

	db, err := pg.NewBunDB(cfg.PG)
	if err != nil {
		log.Fatalx(err)
	}

	repo := crud.NewPgRepository[User](db, userFilterFunc)
	users := crud.NewService[User, UserFilter](repo)

	ctx := context.Background()

	saved, err := users.Save(ctx, &User{
		Email:     "ada@example.com",
		FirstName: "Ada",
		LastName:  "Lovelace",
	})
	if err != nil {
		log.Fatalx(err)
	}
	log.With("user", saved).Info("saved user")

	found, err := users.Search(ctx, 10, []crud.SearchTerm{
		{Field: "last_name", Value: "Lovelace"},
	})
	if err != nil {
		log.Fatalx(err)
	}
	log.With("count", len(found)).Info("search results")

	if _, err := users.Delete(ctx, saved.ID); err != nil {
		log.Fatalx(err)
	}
	log.Info("deleted user")
}
