package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapPattern(t *testing.T) {
	base := stderrors.New("boom")
	err := Wrap(base, "Store", "ApplyBatch", "commit")
	require.Error(t, err)
	assert.Equal(t, "Store.ApplyBatch: commit failed: boom", err.Error())
	assert.ErrorIs(t, err, base)

	assert.NoError(t, Wrap(nil, "Store", "ApplyBatch", "commit"))
}

func TestClassifiedWrappers(t *testing.T) {
	base := stderrors.New("boom")

	tests := []struct {
		name  string
		wrap  func(error, string, string, string) error
		check func(error) bool
		class ErrorClass
	}{
		{name: "invalid", wrap: WrapInvalid, check: IsInvalid, class: ErrorInvalid},
		{name: "transient", wrap: WrapTransient, check: IsTransient, class: ErrorTransient},
		{name: "fatal", wrap: WrapFatal, check: IsFatal, class: ErrorFatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.wrap(base, "Loader", "UpdateLoop", "poll")
			require.Error(t, err)
			assert.True(t, tt.check(err))
			assert.Equal(t, tt.class, Classify(err))
			assert.ErrorIs(t, err, base)

			var ce *ClassifiedError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, "Loader", ce.Component)

			assert.NoError(t, tt.wrap(nil, "Loader", "UpdateLoop", "poll"))
		})
	}
}

func TestClassificationSurvivesWrapping(t *testing.T) {
	inner := Invalid(ErrMultipleQueries)
	outer := fmt.Errorf("extract: %w", inner)
	assert.True(t, IsInvalid(outer))
	assert.False(t, IsFatal(outer))
	assert.Equal(t, ErrorInvalid, Classify(outer))
}

func TestStandardVariableClassification(t *testing.T) {
	assert.True(t, IsInvalid(ErrMissingQuery))
	assert.True(t, IsInvalid(ErrNoContentType))
	assert.True(t, IsTransient(ErrUpstreamGone))
	assert.True(t, IsFatal(ErrStoreCorrupted))
	assert.True(t, IsFatal(ErrInitialLoadFailed))

	// Unknown errors default to transient.
	assert.Equal(t, ErrorTransient, Classify(stderrors.New("mystery")))
}

func TestInvalidf(t *testing.T) {
	err := Invalidf("bad value %d", 7)
	assert.True(t, IsInvalid(err))
	assert.Equal(t, "bad value 7", err.Error())
}

func TestClassString(t *testing.T) {
	assert.Equal(t, "transient", ErrorTransient.String())
	assert.Equal(t, "invalid", ErrorInvalid.String())
	assert.Equal(t, "fatal", ErrorFatal.String())
	assert.Equal(t, "unknown", ErrorClass(42).String())
}
