package tokens

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCounter_Count(t *testing.T) {
	c := New()

	assert.Equal(t, 0, c.Count(""))
	assert.Equal(t, 2, c.Count("hello world"))

	short := c.Count("def add(a, b):\n    return a + b\n")
	long := c.Count(strings.Repeat("def add(a, b):\n    return a + b\n", 100))
	assert.Greater(t, short, 0)
	assert.Greater(t, long, 50*short)
}
