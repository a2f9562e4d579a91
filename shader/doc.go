// Package shader rewrites guest-authored shader source between GLSL
// dialects.
//
// Guests author against GLSL ES 1.00. When the host graphics context
// requires GLSL ES 3.00, Transpile rewrites the legacy storage qualifiers,
// sampling functions, fragment output and version pragma textually. The
// rewrite is pure and idempotent; it never fails. Worst case it emits
// invalid source whose compile error surfaces later through the normal
// shader diagnostics path.
package shader
