package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"eventcheckin/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryTransient(t *testing.T) {
	transient := &domain.InfrastructureError{Op: "lock event", Err: errors.New("lock timeout"), Transient: true}
	permanent := &domain.InfrastructureError{Op: "insert participant", Err: errors.New("bad column")}

	tests := []struct {
		name      string
		attempts  int
		results   []error
		wantCalls int
		wantErr   error
	}{
		{name: "success first time", attempts: 3, results: []error{nil}, wantCalls: 1},
		{name: "success after transient", attempts: 3, results: []error{transient, transient, nil}, wantCalls: 3},
		{name: "exhausted", attempts: 3, results: []error{transient, transient, transient, nil}, wantCalls: 3, wantErr: transient},
		{name: "permanent stops", attempts: 3, results: []error{permanent, nil}, wantCalls: 1, wantErr: permanent},
		{name: "business stops", attempts: 3, results: []error{domain.ErrEventFull, nil}, wantCalls: 1, wantErr: domain.ErrEventFull},
		{name: "zero attempts runs once", attempts: 0, results: []error{transient, nil}, wantCalls: 1, wantErr: transient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := retryTransient(context.Background(), retryPolicy{attempts: tt.attempts}, func(ctx context.Context) error {
				res := tt.results[calls]
				calls++
				return res
			})
			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRetryTransient_StopsWhenContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	transient := &domain.InfrastructureError{Op: "lock event", Err: errors.New("lock timeout"), Transient: true}

	calls := 0
	err := retryTransient(ctx, retryPolicy{attempts: 5, baseDelay: time.Hour}, func(ctx context.Context) error {
		calls++
		cancel()
		return transient
	})

	require.ErrorIs(t, err, context.Canceled)
	require.ErrorIs(t, err, transient)
	assert.True(t, domain.IsRetryable(err))
	assert.Equal(t, 1, calls)
}
