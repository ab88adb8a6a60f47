package result

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors(t *testing.T) {
	t.Run("Ok wraps a payload", func(t *testing.T) {
		r := Ok(42)
		assert.True(t, r.IsOk())
		assert.False(t, r.IsErr())
		assert.Equal(t, 42, r.Value())
		assert.NoError(t, r.Error())
	})

	t.Run("Err wraps an error", func(t *testing.T) {
		boom := errors.New("boom")
		r := Err[int](boom)
		assert.False(t, r.IsOk())
		assert.True(t, r.IsErr())
		assert.Equal(t, 0, r.Value())
		assert.Same(t, boom, r.Error())
	})

	t.Run("Of prefers the error", func(t *testing.T) {
		boom := errors.New("boom")
		assert.True(t, Of(1, nil).IsOk())
		assert.True(t, Of(1, boom).IsErr())
		assert.Equal(t, 0, Of(1, boom).Value())
	})

	t.Run("zero value is a failure", func(t *testing.T) {
		var r Result[string]
		assert.True(t, r.IsErr())
	})
}

func TestAccessors(t *testing.T) {
	t.Run("Get returns payload and discriminant", func(t *testing.T) {
		v, ok := Ok("x").Get()
		assert.True(t, ok)
		assert.Equal(t, "x", v)

		_, ok = Err[string](errors.New("nope")).Get()
		assert.False(t, ok)
	})

	t.Run("Unpack round-trips through Of", func(t *testing.T) {
		boom := errors.New("boom")
		v, err := Of(7, boom).Unpack()
		assert.Equal(t, 0, v)
		assert.Same(t, boom, err)

		v, err = Of(7, nil).Unpack()
		require.NoError(t, err)
		assert.Equal(t, 7, v)
	})
}

func TestMap(t *testing.T) {
	double := func(n int) int { return n * 2 }

	t.Run("applies to a success", func(t *testing.T) {
		r := Map(Ok(21), double)
		require.True(t, r.IsOk())
		assert.Equal(t, 42, r.Value())
	})

	t.Run("changes payload type", func(t *testing.T) {
		r := Map(Ok(42), func(n int) string {
			if n > 0 {
				return "positive"
			}
			return "non-positive"
		})
		assert.Equal(t, "positive", r.Value())
	})

	t.Run("no-op on a failure", func(t *testing.T) {
		boom := errors.New("boom")
		r := Map(Err[int](boom), double)
		require.True(t, r.IsErr())
		assert.Same(t, boom, r.Error())
	})
}

func TestMapErr(t *testing.T) {
	wrap := func(err error) error { return errors.New("wrapped: " + err.Error()) }

	t.Run("transforms the error on a failure", func(t *testing.T) {
		r := Err[int](errors.New("boom")).MapErr(wrap)
		require.True(t, r.IsErr())
		assert.EqualError(t, r.Error(), "wrapped: boom")
	})

	t.Run("no-op on a success", func(t *testing.T) {
		r := Ok(1).MapErr(wrap)
		require.True(t, r.IsOk())
		assert.Equal(t, 1, r.Value())
	})
}

func TestFlatMap(t *testing.T) {
	boom := errors.New("boom")
	half := func(n int) Result[int] {
		if n%2 != 0 {
			return Err[int](boom)
		}
		return Ok(n / 2)
	}

	t.Run("sequences successes without double wrapping", func(t *testing.T) {
		r := FlatMap(Ok(42), half)
		require.True(t, r.IsOk())
		assert.Equal(t, 21, r.Value())
	})

	t.Run("returns the inner failure", func(t *testing.T) {
		r := FlatMap(Ok(21), half)
		require.True(t, r.IsErr())
		assert.Same(t, boom, r.Error())
	})

	t.Run("propagates an outer failure", func(t *testing.T) {
		outer := errors.New("outer")
		r := FlatMap(Err[int](outer), half)
		require.True(t, r.IsErr())
		assert.Same(t, outer, r.Error())
	})
}

func TestAll(t *testing.T) {
	t.Run("collects payloads when everything succeeds", func(t *testing.T) {
		r := All([]Result[int]{Ok(1), Ok(2), Ok(3)})
		require.True(t, r.IsOk())
		assert.Equal(t, []int{1, 2, 3}, r.Value())
	})

	t.Run("returns the first failure in order", func(t *testing.T) {
		first := errors.New("first")
		second := errors.New("second")
		r := All([]Result[int]{Ok(1), Err[int](first), Err[int](second)})
		require.True(t, r.IsErr())
		assert.Same(t, first, r.Error())
	})

	t.Run("empty input is a success", func(t *testing.T) {
		r := All[int](nil)
		require.True(t, r.IsOk())
		assert.Empty(t, r.Value())
	})
}

func TestUnit(t *testing.T) {
	r := OkUnit()
	assert.True(t, r.IsOk())
	assert.Equal(t, Unit{}, r.Value())
}
