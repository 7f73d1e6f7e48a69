package serial

import (
	"encoding/xml"
	"io"
)

// xmlWriter emits prefixed element names verbatim. encoding/xml would
// otherwise invent its own prefixes for namespaced names. The first
// failure sticks and ends all further output.
type xmlWriter struct {
	enc   *xml.Encoder
	stack []string
	err   error
}

func newXMLWriter(w io.Writer) *xmlWriter {
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	return &xmlWriter{enc: enc}
}

func (w *xmlWriter) token(t xml.Token) {
	if w.err != nil {
		return
	}
	w.err = w.enc.EncodeToken(t)
}

func (w *xmlWriter) header() {
	w.token(xml.ProcInst{Target: "xml", Inst: []byte(`version="1.0" encoding="utf-8"`)})
}

// start opens name. attrs alternate attribute names and values.
func (w *xmlWriter) start(name string, attrs ...string) {
	el := xml.StartElement{Name: xml.Name{Local: name}}
	for i := 0; i+1 < len(attrs); i += 2 {
		el.Attr = append(el.Attr, xml.Attr{Name: xml.Name{Local: attrs[i]}, Value: attrs[i+1]})
	}
	w.stack = append(w.stack, name)
	w.token(el)
}

func (w *xmlWriter) end() {
	name := w.stack[len(w.stack)-1]
	w.stack = w.stack[:len(w.stack)-1]
	w.token(xml.EndElement{Name: xml.Name{Local: name}})
}

func (w *xmlWriter) text(s string) {
	w.token(xml.CharData(s))
}

func (w *xmlWriter) leaf(name, text string, attrs ...string) {
	w.start(name, attrs...)
	w.text(text)
	w.end()
}

func (w *xmlWriter) flush() error {
	if w.err != nil {
		return w.err
	}
	return w.enc.Flush()
}
