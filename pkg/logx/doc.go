// Package logx is ticktock's structured logger, a thin layer over zerolog.
//
// Console output stays human readable (short timestamp, file:line caller);
// file output is one JSON object per line. Loggers derived from a Service
// follow its configuration when Service.Apply swaps sinks or levels.
package logx
