package index

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	sierrors "github.com/Aman-CERP/siteindex/internal/errors"
)

func TestResultOf(t *testing.T) {
	ok := resultOf(func() error { return nil })
	assert.True(t, ok.Success)
	assert.NoError(t, ok.Err)
	assert.Equal(t, "success", ok.String())

	boom := errors.New("boom")
	failed := resultOf(func() error { return boom })
	assert.False(t, failed.Success)
	assert.ErrorIs(t, failed.Err, boom)
	assert.Equal(t, "failure: boom", failed.String())

	panicked := resultOf(func() error { panic("nil map") })
	assert.False(t, panicked.Success)
	assert.Equal(t, sierrors.ErrCodeInternal, sierrors.GetCode(panicked.Err))
	assert.Contains(t, panicked.Err.Error(), "nil map")
}

func TestCreationStatus_String(t *testing.T) {
	assert.Equal(t, "success", CreationSuccess.String())
	assert.Equal(t, "already_exists", CreationAlreadyExists.String())
	assert.Equal(t, "failure", CreationFailure.String())
}
