package result_test

import (
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/integrations/pkg/result"
)

func TestOkAndErr(t *testing.T) {
	ok := result.Ok(42)
	assert.True(t, ok.IsOk())
	assert.Equal(t, 42, ok.Value())
	assert.NoError(t, ok.Error())

	boom := errors.New("boom")
	failed := result.Err[int](boom)
	assert.False(t, failed.IsOk())
	assert.Zero(t, failed.Value())
	assert.Same(t, boom, failed.Error())

	assert.Panics(t, func() { result.Err[int](nil) })
}

func TestFrom(t *testing.T) {
	v, err := result.From(strconv.Atoi("7")).Get()
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	r := result.From(strconv.Atoi("seven"))
	assert.False(t, r.IsOk())
}

func TestMapAndThenForwardErrorUnchanged(t *testing.T) {
	boom := errors.New("boom")
	failed := result.Err[int](boom)

	mapped := result.Map(failed, strconv.Itoa)
	assert.Same(t, boom, mapped.Error())

	chained := result.Then(failed, func(i int) result.Result[string] {
		t.Fatal("must not be called on error")
		return result.Ok("")
	})
	assert.Same(t, boom, chained.Error())

	forwarded := result.Forward[string](failed)
	assert.Same(t, boom, forwarded.Error())

	ok := result.Then(result.Ok(2), func(i int) result.Result[string] {
		return result.Ok(strconv.Itoa(i * 2))
	})
	assert.Equal(t, "4", ok.Value())
}

func TestFold(t *testing.T) {
	t.Run("all ok", func(t *testing.T) {
		r := result.Fold([]result.Result[int]{result.Ok(1), result.Ok(2)})
		require.True(t, r.IsOk())
		assert.Equal(t, []int{1, 2}, r.Value())
	})

	t.Run("first failure wins", func(t *testing.T) {
		first := errors.New("B missing")
		second := errors.New("C missing")
		r := result.Fold([]result.Result[int]{result.Ok(1), result.Err[int](first), result.Err[int](second)})
		assert.Same(t, first, r.Error())
	})

	t.Run("empty", func(t *testing.T) {
		r := result.Fold[int](nil)
		require.True(t, r.IsOk())
		assert.Empty(t, r.Value())
	})
}
