// Package glue exposes schema options as command line flags.
//
// Every option gets a --section_option flag (a bare --option for __main__
// options) and an optional one-letter shorthand. After the files are read,
// values are resolved with this precedence: command line flag, then the
// CONFIGGLUE_SECTION_OPTION environment variable, then the configuration
// files, then the schema default.
package glue
