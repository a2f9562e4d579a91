package shader

import (
	"regexp"
	"strings"
)

// Stage identifies which pipeline stage a shader source targets. The stage
// decides the direction varyings rewrite to.
type Stage uint8

const (
	StageVertex Stage = iota
	StageFragment
)

// Dialect is a shader language version the host context may require.
type Dialect uint8

const (
	// Dialect100 is GLSL ES 1.00, the dialect guests author against.
	Dialect100 Dialect = iota
	// Dialect300 is GLSL ES 3.00, required by newer host contexts.
	Dialect300
)

// fragOut is the explicit output variable substituted for the legacy
// implicit fragment color.
const fragOut = "fragColor"

var (
	// Extension pragmas folded into core by the newer dialect.
	extensionRe = regexp.MustCompile(`(?m)^[ \t]*#extension[ \t]+GL_(OES_standard_derivatives|EXT_shader_texture_lod|EXT_draw_buffers|EXT_frag_depth|OES_texture_3D)[ \t]*:[ \t]*enable[ \t]*\r?\n?`)

	fragColorRe = regexp.MustCompile(`\bgl_FragColor\b`)
	attributeRe = regexp.MustCompile(`\battribute\b`)
	varyingRe   = regexp.MustCompile(`\bvarying\b`)

	// texture2D / texture3D / textureCube families, with optional Proj,
	// Lod/Grad and EXT-suffixed forms, unify on the overloaded names.
	textureRe = regexp.MustCompile(`\btexture(2D|3D|Cube)(Proj)?(Lod|Grad)?(EXT)?\b`)

	version100Re = regexp.MustCompile(`(?m)^[ \t]*#version[ \t]+100[ \t]*$`)
	versionAnyRe = regexp.MustCompile(`(?m)^[ \t]*#version[^\n]*$`)
)

// Transpile rewrites src for the target dialect. It is a pure function:
// idempotent, never raising, and a no-op when the target matches the
// authored dialect.
func Transpile(src string, stage Stage, target Dialect) string {
	if target != Dialect300 {
		return src
	}

	src = extensionRe.ReplaceAllString(src, "")
	src = rewriteVersion(src)

	if stage == StageFragment && fragColorRe.MatchString(src) {
		src = fragColorRe.ReplaceAllString(src, fragOut)
		src = declareFragOut(src)
	}

	if stage == StageVertex {
		src = attributeRe.ReplaceAllString(src, "in")
		src = varyingRe.ReplaceAllString(src, "out")
	} else {
		src = varyingRe.ReplaceAllString(src, "in")
	}

	src = textureRe.ReplaceAllStringFunc(src, func(m string) string {
		g := textureRe.FindStringSubmatch(m)
		return "texture" + g[2] + g[3]
	})

	return src
}

// rewriteVersion replaces the authored version pragma with the new
// dialect's, prepending one if the source carried none.
func rewriteVersion(src string) string {
	if version100Re.MatchString(src) {
		return version100Re.ReplaceAllString(src, "#version 300 es")
	}
	if versionAnyRe.MatchString(src) {
		// Already carries some newer pragma; leave it alone.
		return src
	}
	return "#version 300 es\n" + src
}

// declareFragOut inserts the explicit fragment output declaration
// immediately after the version pragma, once.
func declareFragOut(src string) string {
	decl := "out vec4 " + fragOut + ";"
	if strings.Contains(src, decl) {
		return src
	}
	loc := versionAnyRe.FindStringIndex(src)
	if loc == nil {
		return decl + "\n" + src
	}
	return src[:loc[1]] + "\n" + decl + src[loc[1]:]
}
