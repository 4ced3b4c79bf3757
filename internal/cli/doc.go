// Package cli builds the strata command tree. It translates flags,
// STRATA_* environment variables, and the optional config file into the
// application's configuration, and maps command outcomes to process exit
// codes via ExitError.
package cli
