// Package source tracks positions inside UTF-8 documents and provides the immutable cursor
// the value and directive parsers are built on.
//
// A Cursor never mutates: every consuming operation returns a new Cursor and leaves the
// receiver untouched, so a parser can try an alternative and simply keep the old cursor when
// it fails.
//
//	c := source.NewCursor("@include notes\n")
//	c, ok := c.ConsumeMatchingChar('@')
//	name, c := c.ConsumeManyIf(unicode.IsLetter)
//
// Errors produced while parsing are *SyntaxError values carrying the Position at which the
// problem was detected. They all match ErrSyntax with errors.Is.
package source
