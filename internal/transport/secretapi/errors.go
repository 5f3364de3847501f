// SPDX-License-Identifier: BSD-3-Clause

package secretapi

import "errors"

var (
	ErrSecretNotFound   = errors.New("secretapi: no secret reference for host")
	ErrReferenceExpired = errors.New("secretapi: secret reference no longer resolves")
)
