package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersion_DefaultValues(t *testing.T) {
	assert.Equal(t, "dev", Version)
	assert.Equal(t, "dev", Commit)
	assert.Equal(t, "unknown", BuildTime)
}

func TestString(t *testing.T) {
	orig := Version
	t.Cleanup(func() { Version = orig })

	Version = "v1.2.0"
	assert.Equal(t, "v1.2.0 (commit dev, built unknown)", String())
}
