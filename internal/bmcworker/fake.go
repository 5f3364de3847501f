// SPDX-License-Identifier: BSD-3-Clause

package bmcworker

import "context"

// FakeClient is a scripted Client for tests that never want to shell out
// to a real ipmitool binary.
type FakeClient struct {
	Results []Result
	Errs    []error
	calls   int
}

var _ Client = (*FakeClient)(nil)

// Run returns the next scripted result/error pair, repeating the last
// entry once the script is exhausted.
func (f *FakeClient) Run(_ context.Context, _ Command, _ Credentials, _ string) (Result, error) {
	i := f.calls
	if i >= len(f.Results) {
		i = len(f.Results) - 1
	}
	f.calls++
	if i < 0 {
		return Result{}, nil
	}
	var err error
	if i < len(f.Errs) {
		err = f.Errs[i]
	}
	return f.Results[i], err
}

// Calls reports how many times Run was invoked.
func (f *FakeClient) Calls() int {
	return f.calls
}
