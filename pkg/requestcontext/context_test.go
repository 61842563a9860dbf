package requestcontext

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAccessors(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, RequestID(ctx))
	assert.Empty(t, Subject(ctx))
	assert.Empty(t, ClientIP(ctx))
	assert.WithinDuration(t, time.Now(), Now(ctx), time.Second)

	fixed := time.Date(2022, 4, 17, 0, 0, 0, 0, time.UTC)
	ctx = WithRequestID(ctx, "req-1")
	ctx = WithSubject(ctx, "svc-a")
	ctx = WithClientIP(ctx, "10.0.0.1")
	ctx = WithTime(ctx, fixed)

	assert.Equal(t, "req-1", RequestID(ctx))
	assert.Equal(t, "svc-a", Subject(ctx))
	assert.Equal(t, "10.0.0.1", ClientIP(ctx))
	assert.Equal(t, fixed, Now(ctx))
}
