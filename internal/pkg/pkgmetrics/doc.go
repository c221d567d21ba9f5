// Package pkgmetrics defines the metrics surface used by the modules.
//
// Business code depends only on Backend. The default is Noop; the datadog
// subpackage buffers samples and ships them to Datadog on a ticker.
package pkgmetrics
