// Package config loads and validates the snapkeep configuration file.
//
// The file supplies the defaults a command falls back to when its flags are
// absent: the snapshot root directory, the default set of source subvolumes
// (a base directory plus a name list), and the default cleanup retention.
// Explicit command-line flags always take precedence over file values, and
// SNAPKEEP_* environment variables sit between the two.
//
// The file format follows its extension; both TOML and YAML are accepted.
// A missing configuration file is not an error by itself: it only becomes one
// when a command needs a value that neither its flags nor the file supplied.
package config
