package storage

import (
	"context"
	"testing"
	"time"
)

// testContext returns a context that expires before the test harness
// would time the test out.
func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	t.Cleanup(cancel)
	return ctx
}
