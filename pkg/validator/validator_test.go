package validator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pinStruct struct {
	Pin string `validate:"pin"`
}

type themeStruct struct {
	Theme string `validate:"theme"`
}

type requiredStruct struct {
	Name string `validate:"required"`
}

func TestPinValidation(t *testing.T) {
	ctx := context.Background()

	require.NoError(t, Validate(ctx, pinStruct{Pin: "1234"}))
	require.NoError(t, Validate(ctx, pinStruct{Pin: "12345678"}))

	assert.Error(t, Validate(ctx, pinStruct{Pin: "123"}))
	assert.Error(t, Validate(ctx, pinStruct{Pin: "123456789"}))
	assert.Error(t, Validate(ctx, pinStruct{Pin: "12ab"}))
}

func TestThemeValidation(t *testing.T) {
	ctx := context.Background()

	require.NoError(t, Validate(ctx, themeStruct{Theme: "default"}))
	require.NoError(t, Validate(ctx, themeStruct{Theme: "lunar"}))

	assert.Error(t, Validate(ctx, themeStruct{Theme: "solar"}))
}

func TestRequiredValidation(t *testing.T) {
	ctx := context.Background()

	require.NoError(t, Validate(ctx, requiredStruct{Name: "Ada"}))

	err := Validate(ctx, requiredStruct{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrFieldRequired)
}
