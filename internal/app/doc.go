// Package app wires the HCL frontend and the synthesis engine into the
// operations the CLI exposes: synthesizing stack documents to an output
// directory and diffing a fresh synthesis against a previous run. It owns
// the process-level concerns the engine stays free of, namely
// configuration, logger construction, file IO, and concurrency limits.
package app
