package sink

import (
	"encoding/json"

	"github.com/matzehuels/spritepack/pkg/sprite/metadata"
)

// JSONHash renders a document with frames keyed by sprite id.
type JSONHash struct{}

func (JSONHash) Name() string { return FormatJSON }
func (JSONHash) Ext() string  { return "json" }

type jsonRect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

type jsonSize struct {
	W int `json:"w"`
	H int `json:"h"`
}

type jsonFrame struct {
	Frame      jsonRect `json:"frame"`
	SourceSize jsonSize `json:"sourceSize"`
	Class      string   `json:"class"`
}

type jsonMeta struct {
	Image       string   `json:"image"`
	Size        jsonSize `json:"size"`
	Class       string   `json:"class"`
	Fingerprint string   `json:"fingerprint"`
	Order       []string `json:"order"`
}

type jsonHashOutput struct {
	Frames map[string]jsonFrame `json:"frames"`
	Meta   jsonMeta             `json:"meta"`
}

func (JSONHash) Render(m metadata.Metadata, opts RenderOptions) ([]byte, error) {
	class := opts.class()
	out := jsonHashOutput{
		Frames: make(map[string]jsonFrame, len(m.Sprites)),
		Meta: jsonMeta{
			Image:       opts.ImageURL,
			Size:        jsonSize{W: m.Canvas.Width, H: m.Canvas.Height},
			Class:       class,
			Fingerprint: m.Fingerprint,
			Order:       make([]string, len(m.Sprites)),
		},
	}
	for i, s := range m.Sprites {
		out.Frames[s.ID] = jsonFrame{
			Frame:      jsonRect{X: s.X, Y: s.Y, W: s.Width, H: s.Height},
			SourceSize: jsonSize{W: s.Width, H: s.Height},
			Class:      class + "-" + s.ID,
		}
		out.Meta.Order[i] = s.ID
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
