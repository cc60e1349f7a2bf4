package sink

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/matzehuels/spritepack/pkg/sprite/metadata"
)

// CSS renders plain stylesheet rules.
//
//	.sprite {
//		background-image: url('icons.png?0123456789abcdef0123');
//		background-repeat: no-repeat;
//		display: inline-block;
//	}
//
//	.sprite-home {
//		background-position: -2px -2px;
//		width: 10px;
//		height: 10px;
//	}
type CSS struct{}

func (CSS) Name() string { return FormatCSS }
func (CSS) Ext() string  { return "css" }

func (CSS) Render(m metadata.Metadata, opts RenderOptions) ([]byte, error) {
	class := cssIdent(opts.class())
	var b bytes.Buffer

	fmt.Fprintf(&b, ".%s {\n", class)
	fmt.Fprintf(&b, "\tbackground-image: url('%s');\n", cssString(opts.ImageURL))
	b.WriteString("\tbackground-repeat: no-repeat;\n")
	b.WriteString("\tdisplay: inline-block;\n")
	b.WriteString("}\n")

	for _, s := range m.Sprites {
		fmt.Fprintf(&b, "\n.%s-%s {\n", class, cssIdent(s.ID))
		fmt.Fprintf(&b, "\tbackground-position: %s %s;\n", offset(s.X), offset(s.Y))
		fmt.Fprintf(&b, "\twidth: %s;\n", px(s.Width))
		fmt.Fprintf(&b, "\theight: %s;\n", px(s.Height))
		b.WriteString("}\n")
	}
	return b.Bytes(), nil
}

// offset formats a background-position component, which is the negated
// placement coordinate.
func offset(v int) string {
	return px(-v)
}

func px(v int) string {
	if v == 0 {
		return "0"
	}
	return fmt.Sprintf("%dpx", v)
}

// cssIdent escapes s for use inside a class selector.
func cssIdent(s string) string {
	var b strings.Builder
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_', r == '-', r >= 0x80:
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				fmt.Fprintf(&b, "\\%x ", r)
			} else {
				b.WriteRune(r)
			}
		default:
			b.WriteByte('\\')
			b.WriteRune(r)
		}
	}
	return b.String()
}

// cssString escapes s for a single-quoted CSS string.
func cssString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\a `)
	return r.Replace(s)
}
