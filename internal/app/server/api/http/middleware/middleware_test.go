package middleware

import (
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/stretchr/testify/assert"
)

func TestContainer_GetAllAndClear(t *testing.T) {
	c := NewContainer()
	noop := func(ctx huma.Context, next func(huma.Context)) { next(ctx) }

	c.Add(noop, noop)
	assert.Len(t, c.GetAllAndClear(), 2)

	empty := c.GetAllAndClear()
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}
