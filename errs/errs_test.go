package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Is(t *testing.T) {
	tests := map[string]struct {
		err  error
		kind error
	}{
		"configuration": {err: Configuration("grid.SetDataSource", "unsupported type"), kind: ErrConfiguration},
		"lifecycle":     {err: Lifecycle("grid.LoadData", "init not called"), kind: ErrLifecycle},
		"datasource":    {err: DataSource("sql.Execute", errors.New("boom")), kind: ErrDataSource},
		"cache write":   {err: CacheWrite("grid.LoadData", "abc", errors.New("disk full")), kind: ErrCacheWrite},
		"state":         {err: State("renderer.Replay", "no cached view"), kind: ErrState},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, tc.err, tc.kind)
			wrapped := fmt.Errorf("outer: %w", tc.err)
			assert.ErrorIs(t, wrapped, tc.kind)

			for _, other := range []error{ErrConfiguration, ErrLifecycle, ErrDataSource, ErrCacheWrite, ErrState} {
				if other != tc.kind {
					assert.NotErrorIs(t, tc.err, other)
				}
			}
		})
	}
}

func TestError_Message(t *testing.T) {
	cause := errors.New("permission denied")
	err := CacheWrite("grid.LoadData", "deadbeef", cause)

	assert.Equal(t, `grid.LoadData: could not save view state "deadbeef": permission denied`, err.Error())
	assert.ErrorIs(t, err, cause)

	var e *Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, "grid.LoadData", e.Op)
}

func TestError_EmptyFallsBackToKind(t *testing.T) {
	err := &Error{Kind: ErrState}
	assert.Equal(t, "state error", err.Error())
}
