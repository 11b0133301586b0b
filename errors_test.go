package reposql_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/reposql"
)

func TestNotFoundError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		assert.Equal(t, "reposql: users not found", reposql.NewNotFoundError("users").Error())
		assert.Equal(t, "reposql: users not found (id=7)", reposql.NewNotFoundErrorWithID("users", 7).Error())
	})

	t.Run("IsNotFound", func(t *testing.T) {
		err := reposql.NewNotFoundErrorWithID("orders", 1)
		assert.True(t, errors.Is(err, reposql.ErrNotFound))
		assert.True(t, reposql.IsNotFound(fmt.Errorf("wrapper: %w", err)))
		assert.True(t, reposql.IsNotFound(reposql.ErrNotFound))
		assert.Equal(t, "orders", err.Label())
		assert.Equal(t, 1, err.ID())

		assert.False(t, reposql.IsNotFound(errors.New("other error")))
		assert.False(t, reposql.IsNotFound(nil))
	})
}

func TestNotSingularError(t *testing.T) {
	err := reposql.NewNotSingularErrorWithCount("users", 3)
	assert.Equal(t, "reposql: users not singular (got 3 results, expected 1)", err.Error())
	assert.Equal(t, 3, err.Count())
	assert.True(t, errors.Is(err, reposql.ErrNotSingular))
	assert.True(t, reposql.IsNotSingular(fmt.Errorf("wrapper: %w", err)))
	assert.False(t, reposql.IsNotSingular(reposql.ErrNotFound))
	assert.False(t, reposql.IsNotSingular(nil))
}

func TestConfigError(t *testing.T) {
	err := reposql.NewConfigError("orders", "no primary key")
	assert.Equal(t, "reposql: configuration error on orders: no primary key", err.Error())
	assert.Equal(t, "reposql: configuration error: bad", reposql.NewConfigError("", "bad").Error())
	assert.True(t, reposql.IsConfigError(fmt.Errorf("wrapper: %w", err)))

	unsupported := reposql.NewUnsupportedOperationError("orders", "frobnicate")
	assert.True(t, reposql.IsConfigError(unsupported))
	assert.True(t, errors.Is(unsupported, reposql.ErrUnsupportedOperation))
	assert.Contains(t, unsupported.Error(), `"frobnicate"`)

	assert.False(t, reposql.IsConfigError(errors.New("other error")))
	assert.False(t, reposql.IsConfigError(nil))
}

func TestBindingError(t *testing.T) {
	err := reposql.NewBindingError("findByName", "expected %d argument(s), got %d", 1, 2)
	assert.Equal(t, `reposql: binding "findByName": expected 1 argument(s), got 2`, err.Error())
	assert.True(t, reposql.IsBindingError(err))
	assert.False(t, errors.Is(err, reposql.ErrMissingParameter))

	missing := reposql.NewMissingParameterError("id")
	assert.True(t, errors.Is(fmt.Errorf("wrapper: %w", missing), reposql.ErrMissingParameter))
	assert.True(t, reposql.IsBindingError(missing))
	assert.False(t, reposql.IsBindingError(nil))
}

func TestDecodeError(t *testing.T) {
	cause := errors.New("invalid syntax")
	err := reposql.NewDecodeError("age", "abc", cause)
	assert.Equal(t, `reposql: decoding column "age" (value abc): invalid syntax`, err.Error())
	assert.True(t, errors.Is(err, cause))
	assert.True(t, reposql.IsDecodeError(fmt.Errorf("wrapper: %w", err)))
	assert.False(t, reposql.IsDecodeError(cause))
}

func TestExecutionError(t *testing.T) {
	cause := errors.New("connection refused")
	err := reposql.NewExecutionError("query", "SELECT 1", cause)
	assert.Equal(t, `reposql: query "SELECT 1": connection refused`, err.Error())
	assert.Same(t, cause, errors.Unwrap(err))
	assert.True(t, reposql.IsExecutionError(err))
	assert.False(t, reposql.IsExecutionError(nil))
}

func TestConstraintError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := reposql.NewConstraintError("UNIQUE constraint failed", nil)
		assert.Equal(t, "reposql: constraint failed: UNIQUE constraint failed", err.Error())
	})

	t.Run("IsConstraintError", func(t *testing.T) {
		underlying := errors.New("db error")
		err := reposql.NewConstraintError("check failed", underlying)
		assert.True(t, errors.Is(err, underlying))
		assert.True(t, reposql.IsConstraintError(fmt.Errorf("wrapper: %w", err)))
		assert.False(t, reposql.IsConstraintError(errors.New("other error")))
		assert.False(t, reposql.IsConstraintError(nil))
	})
}

func TestAggregateError(t *testing.T) {
	t.Run("NoErrors", func(t *testing.T) {
		assert.Nil(t, reposql.NewAggregateError())
		assert.Nil(t, reposql.NewAggregateError(nil, nil))
	})

	t.Run("SingleError", func(t *testing.T) {
		single := errors.New("single error")
		assert.Equal(t, single, reposql.NewAggregateError(nil, single, nil))
	})

	t.Run("MultipleErrors", func(t *testing.T) {
		err1 := errors.New("error 1")
		err2 := reposql.NewNotFoundError("users")
		err := reposql.NewAggregateError(err1, err2)

		require.NotNil(t, err)
		assert.Contains(t, err.Error(), "multiple errors")
		assert.Contains(t, err.Error(), "[1] error 1")
		assert.Contains(t, err.Error(), "[2] reposql: users not found")
		assert.True(t, errors.Is(err, err1))
		assert.True(t, reposql.IsNotFound(err))
	})
}

func BenchmarkErrors(b *testing.B) {
	b.Run("NewNotFoundError", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_ = reposql.NewNotFoundError("users")
		}
	})

	b.Run("IsNotFound", func(b *testing.B) {
		err := fmt.Errorf("wrap: %w", reposql.NewNotFoundError("users"))
		for i := 0; i < b.N; i++ {
			_ = reposql.IsNotFound(err)
		}
	})

	b.Run("NewAggregateError_multiple", func(b *testing.B) {
		err1 := errors.New("err1")
		err2 := errors.New("err2")
		for i := 0; i < b.N; i++ {
			_ = reposql.NewAggregateError(err1, err2)
		}
	})
}
