// Package pkgroutine runs bounded background work such as the insight
// warmup workers. Tasks are named so failures can be traced in logs and in
// the error returned by Manager.Wait at shutdown.
package pkgroutine
