// SPDX-License-Identifier: BSD-3-Clause

// Package model implements the Model Lifecycle (C4): loading a host's
// sensor/group model from inventory, creating one from live BMC samples
// when none exists, and relearning on operator request. All three
// operations mutate a *bmcmodel.Host in place; none of them perform the
// inventory HTTP calls themselves, that's invapi's job, so this package
// is unit-testable against a fake inventory client.
package model
