package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetCurrentVersion(t *testing.T) {
	assert.Equal(t, Version+"-dev", GetCurrentVersion("dev"))
	assert.Equal(t, Version+"-demo", GetCurrentVersion("demo"))
	assert.Equal(t, Version, GetCurrentVersion("prod"))
}

func TestIsVersionGreaterOrEqualThan(t *testing.T) {
	assert.True(t, IsVersionGreaterOrEqualThan("1.2.0", "1.1.9"))
	assert.True(t, IsVersionGreaterOrEqualThan("v1.2.0", "1.2.0"))
	assert.False(t, IsVersionGreaterOrEqualThan("0.9.0", "1.0.0"))
}
