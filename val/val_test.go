package val_test

import (
	"testing"

	"github.com/code19m/errx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nicolaspearson/grpc.typeorm.infrastructure/val"
)

type testUser struct {
	FirstName string `json:"first_name" validate:"required,max=50"`
	LastName  string `json:"last_name"  validate:"required,max=50"`
	Email     string `json:"email"      validate:"required,email"`
	Age       int    `json:"age"        validate:"gte=0,lte=150"`
}

func TestValidate(t *testing.T) {
	t.Run("valid struct returns nil", func(t *testing.T) {
		u := testUser{
			FirstName: "Jane",
			LastName:  "Doe",
			Email:     "jane.doe@example.com",
			Age:       30,
		}

		assert.NoError(t, val.Validate(u))
	})

	t.Run("one message per failing field", func(t *testing.T) {
		u := testUser{
			FirstName: "",
			LastName:  "Doe",
			Email:     "not-an-email",
			Age:       200,
		}

		err := val.Validate(u)
		require.Error(t, err)

		e := errx.AsErrorX(err)
		assert.Equal(t, val.CodeValidationFailed, e.Code())
		assert.Equal(t, errx.T_Validation, e.Type())

		fields := e.Fields()
		assert.Len(t, fields, 3)
		assert.Equal(t, "This field is required", fields["first_name"])
		assert.Equal(t, "Invalid email format", fields["email"])
		assert.Equal(t, "Must be less than or equal to 150", fields["age"])
	})

	t.Run("field names come from json tags", func(t *testing.T) {
		type schema struct {
			DisplayName string `json:"display_name" validate:"required"`
		}

		err := val.Validate(schema{})
		require.Error(t, err)

		fields := errx.AsErrorX(err).Fields()
		assert.Contains(t, fields, "display_name")
	})

	t.Run("non-struct input becomes a generic validation error", func(t *testing.T) {
		err := val.Validate("not a struct")
		require.Error(t, err)

		e := errx.AsErrorX(err)
		assert.Equal(t, val.CodeValidationFailed, e.Code())
		assert.Equal(t, errx.T_Validation, e.Type())
		assert.Empty(t, e.Fields())
	})
}
