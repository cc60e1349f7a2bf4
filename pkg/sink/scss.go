package sink

import (
	"bytes"
	"fmt"

	"github.com/matzehuels/spritepack/pkg/sprite/metadata"
)

// SCSS renders a Sass stylesheet: a map of sprite geometry plus the CSS rules
// nested under the base class.
//
//	$sprite-image: 'icons.png?0123456789abcdef0123';
//	$sprite-sprites: (
//		'home': (-2px, -2px, 10px, 10px),
//	);
//
//	.sprite {
//		background-image: url($sprite-image);
//		...
//		&-home {
//			background-position: -2px -2px;
//			...
//		}
//	}
type SCSS struct{}

func (SCSS) Name() string { return FormatSCSS }
func (SCSS) Ext() string  { return "scss" }

func (SCSS) Render(m metadata.Metadata, opts RenderOptions) ([]byte, error) {
	class := cssIdent(opts.class())
	variable := sassVariable(opts.class())
	var b bytes.Buffer

	fmt.Fprintf(&b, "$%s-image: '%s';\n", variable, cssString(opts.ImageURL))
	fmt.Fprintf(&b, "$%s-width: %s;\n", variable, px(m.Canvas.Width))
	fmt.Fprintf(&b, "$%s-height: %s;\n", variable, px(m.Canvas.Height))
	fmt.Fprintf(&b, "$%s-sprites: (\n", variable)
	for _, s := range m.Sprites {
		fmt.Fprintf(&b, "\t'%s': (%s, %s, %s, %s),\n", cssString(s.ID), offset(s.X), offset(s.Y), px(s.Width), px(s.Height))
	}
	b.WriteString(");\n\n")

	fmt.Fprintf(&b, ".%s {\n", class)
	fmt.Fprintf(&b, "\tbackground-image: url($%s-image);\n", variable)
	b.WriteString("\tbackground-repeat: no-repeat;\n")
	b.WriteString("\tdisplay: inline-block;\n")
	for _, s := range m.Sprites {
		fmt.Fprintf(&b, "\n\t&-%s {\n", cssIdent(s.ID))
		fmt.Fprintf(&b, "\t\tbackground-position: %s %s;\n", offset(s.X), offset(s.Y))
		fmt.Fprintf(&b, "\t\twidth: %s;\n", px(s.Width))
		fmt.Fprintf(&b, "\t\theight: %s;\n", px(s.Height))
		b.WriteString("\t}\n")
	}
	b.WriteString("}\n")
	return b.Bytes(), nil
}

// sassVariable keeps the characters valid in a Sass variable name.
func sassVariable(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_' || r == '-' {
			out = append(out, r)
		} else {
			out = append(out, '_')
		}
	}
	if len(out) == 0 {
		return DefaultClass
	}
	return string(out)
}
