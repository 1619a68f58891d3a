package selftest

import (
	"context"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
)

func TestRunDetectsAllCategories(t *testing.T) {
	err := Run(context.Background(), hclog.NewNullLogger())
	assert.NoError(t, err)
}
