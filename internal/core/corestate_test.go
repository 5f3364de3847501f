// SPDX-License-Identifier: BSD-3-Clause

package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starlingx/hwmond/internal/bmcmodel"
	"github.com/starlingx/hwmond/internal/registry"
)

// TestDeleteHostDrivesRegistryFSMToCompletion guards against DeleteHost
// regressing into a disguised no-op: it must actually drive Registry's
// delete FSM (Start -> Wait -> Done) through Tick until the host is gone,
// not merely flag it delete-pending and return (spec.md §4.7).
func TestDeleteHostDrivesRegistryFSMToCompletion(t *testing.T) {
	kills := 0
	cs := &CoreState{
		Registry:           registry.New(func(string) { kills++ }),
		DeleteTickInterval: time.Millisecond,
	}
	h := bmcmodel.NewHost("compute-0", "uuid-1", bmcmodel.DeploymentDuplex)
	require.NoError(t, cs.Registry.Add(h))

	require.NoError(t, cs.DeleteHost(context.Background(), "compute-0"))

	require.Eventually(t, func() bool {
		_, err := cs.Registry.Lookup("compute-0")
		return err != nil
	}, 2*time.Second, 5*time.Millisecond, "host must be removed once the delete FSM reaches Done")

	assert.Equal(t, registry.MaxDeleteKillRetries, kills)
}

// TestDeleteHostRejectsSecondDeleteWhileInProgress confirms DeleteHost
// still surfaces ErrDeleteInProgress rather than silently queuing a
// duplicate FSM goroutine.
func TestDeleteHostRejectsSecondDeleteWhileInProgress(t *testing.T) {
	cs := &CoreState{
		Registry:           registry.New(func(string) {}),
		DeleteTickInterval: time.Hour,
	}
	h := bmcmodel.NewHost("compute-0", "uuid-1", bmcmodel.DeploymentDuplex)
	require.NoError(t, cs.Registry.Add(h))

	require.NoError(t, cs.DeleteHost(context.Background(), "compute-0"))
	err := cs.DeleteHost(context.Background(), "compute-0")
	assert.ErrorIs(t, err, registry.ErrDeleteInProgress)
}
