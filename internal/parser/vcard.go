package parser

import "strings"

var lineBreaks = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// splitLines splits on \r\n, \r or \n and drops the terminators
func splitLines(text string) []string {
	return strings.Split(lineBreaks.Replace(text), "\n")
}

// rawCapture is the capturing state of the block parser. It remembers the
// block that was on top of the stack when BEGIN:VBODY was read; captured
// lines always go there, whatever happens to the stack afterwards.
type rawCapture struct {
	target *Object
	buf    strings.Builder
}

// blockParser holds the state of one Parse call. capture is nil while
// parsing structured lines.
type blockParser struct {
	container string
	roots     []*Object
	stack     []*Object
	capture   *rawCapture
}

// Parse decodes vCard-family text into one Object per top-level
// BEGIN:<container> block, in source order. An empty container means
// VCARD. Malformed input never fails: missing END lines leave blocks
// open and unusable lines are dropped.
func Parse(text, container string) []*Object {
	if container == "" {
		container = ContainerVCard
	}
	p := &blockParser{container: container}
	for _, line := range splitLines(text) {
		p.line(line)
	}
	p.endCapture()
	return p.roots
}

func (p *blockParser) top() *Object {
	if len(p.stack) == 0 {
		return nil
	}
	return p.stack[len(p.stack)-1]
}

func (p *blockParser) line(line string) {
	key, value, hasColon := strings.Cut(line, ":")
	if p.capture == nil && (key == "" || value == "") {
		return
	}

	if hasColon {
		switch key {
		case "BEGIN":
			p.begin(value)
			return
		case "END":
			p.end(value)
			return
		}
	}

	if p.capture != nil {
		p.capture.buf.WriteString(line)
		p.capture.buf.WriteByte('\n')
		return
	}

	top := p.top()
	if top == nil {
		return
	}
	name, prop := parseProperty(key, value)
	top.set(name, Value{Kind: KindProperty, Property: prop})
}

func (p *blockParser) begin(name string) {
	if name == p.container {
		obj := NewObject()
		p.roots = append(p.roots, obj)
		p.stack = append(p.stack, obj)
		return
	}

	top := p.top()
	if top == nil {
		return
	}
	if name == RawKey {
		p.endCapture()
		top.set(RawKey, Value{Kind: KindRaw})
		p.capture = &rawCapture{target: top}
		return
	}
	obj := NewObject()
	top.set(name, Value{Kind: KindObject, Object: obj})
	p.stack = append(p.stack, obj)
}

func (p *blockParser) end(name string) {
	if name == RawKey {
		p.endCapture()
		return
	}
	// END names are not checked against the open block
	if len(p.stack) > 0 {
		p.stack = p.stack[:len(p.stack)-1]
	}
}

// endCapture stores the captured text on its target and leaves raw mode
func (p *blockParser) endCapture() {
	if p.capture == nil {
		return
	}
	p.capture.target.set(RawKey, Value{Kind: KindRaw, Raw: p.capture.buf.String()})
	p.capture = nil
}

// parseProperty splits NAME;P1=V1;FLAG and a;b;c into a Property
func parseProperty(key, value string) (string, *Property) {
	segments := strings.Split(key, ";")
	prop := &Property{}

	if len(segments) > 1 {
		prop.Meta = make(map[string]Param, len(segments)-1)
		for _, seg := range segments[1:] {
			name, val, _ := strings.Cut(seg, "=")
			// X=a=b keeps only a
			val, _, _ = strings.Cut(val, "=")
			if val == "" {
				prop.Meta[name] = Param{Flag: true}
			} else {
				prop.Meta[name] = Param{Value: val}
			}
		}
	}

	if parts := strings.Split(value, ";"); len(parts) > 1 {
		prop.Values = parts
	} else {
		prop.Value = value
	}
	return segments[0], prop
}
