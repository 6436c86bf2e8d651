// Package parser reads layered INI configuration and resolves it against a
// schema.
//
// Files are read in order with later files overriding earlier ones. A file
// may list other files in the includes option of its __main__ section;
// included files are read first and the including file's own values win.
// The parser remembers which file last defined each option so changed
// values can be saved back to their origin.
//
// Values support two kinds of interpolation. References of the form
// %(name)s resolve within the option's section, then __main__, then
// __noschema__. Environment references $NAME, ${NAME} and
// ${NAME:-default} are expanded afterwards; an unset variable without a
// default makes the option fall back to its schema default.
//
// Example:
//
//	p, err := parser.New(s, parser.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//	if _, err := p.Read("/etc/app.cfg", "local.cfg"); err != nil {
//		return err
//	}
//	if err := p.Validate(); err != nil {
//		return err
//	}
//	port, err := p.Get("server", "port")
package parser
