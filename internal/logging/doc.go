// Package logging configures structured JSON logging for siteindex.
//
// Logs go to stderr and, when a file is configured, to a size-rotated log
// file under ~/.siteindex/logs/ that `siteindex logs` can tail.
package logging
