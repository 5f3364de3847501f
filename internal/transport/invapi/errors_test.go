// SPDX-License-Identifier: BSD-3-Clause

package invapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyStatusMapsKnownCodes(t *testing.T) {
	assert.NoError(t, ClassifyStatus(200))
	assert.ErrorIs(t, ClassifyStatus(401), ErrUnauthorized)
	assert.ErrorIs(t, ClassifyStatus(404), ErrNotFound)
	assert.ErrorIs(t, ClassifyStatus(409), ErrConflict)
	assert.ErrorIs(t, ClassifyStatus(411), ErrLengthRequired)
	assert.ErrorIs(t, ClassifyStatus(0), ErrConnectionLoss)
	assert.ErrorIs(t, ClassifyStatus(500), ErrUnexpectedStatus)
}
