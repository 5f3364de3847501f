// SPDX-License-Identifier: BSD-3-Clause

// Package invapi is the outbound inventory/orchestration HTTP client
// (spec.md §6): isensors/isensorgroups load, create, patch, and delete,
// implementing model.Inventory so the model lifecycle never talks HTTP
// directly.
package invapi
