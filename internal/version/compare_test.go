package version

import (
	"testing"

	"github.com/rxtech-lab/barsim/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckCompatibility(t *testing.T) {
	tests := []struct {
		name            string
		engineVersion   string
		requiredVersion string
		expectCode      errors.ErrorCode
		errorContains   string
	}{
		{name: "exact match", engineVersion: "1.2.0", requiredVersion: "1.2.0"},
		{name: "with v prefix", engineVersion: "v1.2.0", requiredVersion: "v1.2.3"},
		{name: "engine minor newer", engineVersion: "1.3.1", requiredVersion: "1.2.0"},
		{name: "no requirement", engineVersion: "1.0.0", requiredVersion: ""},
		{name: "engine is main", engineVersion: "main", requiredVersion: "9.0.0"},
		{name: "required is main", engineVersion: "1.0.0", requiredVersion: "main"},
		{
			name:            "engine minor older",
			engineVersion:   "1.1.0",
			requiredVersion: "1.2.0",
			expectCode:      errors.ErrCodeVersionMismatch,
			errorContains:   "older than required",
		},
		{
			name:            "major differs",
			engineVersion:   "2.0.0",
			requiredVersion: "1.2.0",
			expectCode:      errors.ErrCodeVersionMismatch,
			errorContains:   "major version mismatch",
		},
		{
			name:            "invalid engine version",
			engineVersion:   "abc",
			requiredVersion: "1.0.0",
			expectCode:      errors.ErrCodeInvalidVersion,
			errorContains:   "invalid engine version",
		},
		{
			name:            "invalid required version",
			engineVersion:   "1.0.0",
			requiredVersion: "x.y",
			expectCode:      errors.ErrCodeInvalidVersion,
			errorContains:   "invalid required version",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckCompatibility(tt.engineVersion, tt.requiredVersion)

			if tt.expectCode == 0 {
				require.NoError(t, err)

				return
			}

			require.Error(t, err)
			assert.True(t, errors.HasCode(err, tt.expectCode))
			assert.Contains(t, err.Error(), tt.errorContains)
		})
	}
}

func TestGetVersion(t *testing.T) {
	assert.Equal(t, Version, GetVersion())
}
