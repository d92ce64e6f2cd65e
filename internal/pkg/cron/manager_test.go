package cron

import (
	"Murmur/internal/job"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_RegisterJobs(t *testing.T) {
	tests := []struct {
		name    string
		spec    string
		wantErr bool
	}{
		{"six field spec", "0 30 3 * * *", false},
		{"empty spec falls back to daily", "", false},
		{"five field spec rejected", "30 3 * * *", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mgr := NewCronManager(tt.spec, job.NewNotificationPurgeJob(nil, 30))
			err := mgr.RegisterJobs()
			if tt.wantErr {
				require.Error(t, err)
				assert.Zero(t, mgr.Entries())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 1, mgr.Entries())
		})
	}
}
