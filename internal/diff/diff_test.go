package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaxDiffSize(t *testing.T) {
	assert.Equal(t, 64*1024, MaxDiffSize)
}
