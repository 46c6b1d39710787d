package trace

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_Disabled(t *testing.T) {
	shutdown, err := Init(context.Background(), false, "test")
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestStartSpan_RecordError(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "test.span")
	defer span.End()

	assert.NotNil(t, ctx)
	assert.NotPanics(t, func() {
		RecordError(span, nil)
		RecordError(span, errors.New("boom"))
	})
}
