// Package logger records every replayed invocation so test suites can verify
// which stubbed commands were called and how they were answered.
package logger
