// Package textutil provides text processing utilities for filename
// sanitization and length-bounded truncation.
//
// Video titles arrive with arbitrary punctuation and length; the helpers
// here turn them into names that are safe on every filesystem the output
// directory may live on.
package textutil
