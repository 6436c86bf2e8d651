// Package schema declares the typed options a configuration may contain.
//
// A Schema is a set of named sections, each holding options of one of six
// kinds: bool, int, string, tuple, list and dict. Options declared at the
// top level live in the implicit __main__ section, which also carries the
// includes option used to chain configuration files.
//
// Schemas are assembled with a Builder:
//
//	s, err := schema.NewBuilder("app").
//		Option(schema.NewBool("debug", schema.Short("d"))).
//		Section("db",
//			schema.NewString("host", schema.Default("localhost")),
//			schema.NewInt("port", schema.Default(5432)),
//		).
//		Build()
//
// A builder can Extend other schemas, and independent schemas can be
// combined with Merge, which fails when two schemas declare the same
// option differently. Schemas can also be described in YAML and loaded
// with LoadFile.
//
// Errors are *ConfigError values classified by ErrorClass. Use the
// predicates (IsNoOption, IsValueError, ...) or errors.Is with the
// exported sentinels to inspect them.
package schema
