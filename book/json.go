package book

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// The JSON encoding below is an interchange contract: Block and Inline
// serialize as {"type": <snake_case tag>, "value": <payload>} objects,
// ResourceData carries a "storage" tag, and inline resource bytes travel as
// base64 strings. Changing any tag or payload shape breaks downstream
// consumers.

type typedNode struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value,omitempty"`
}

type headerJSON struct {
	Level   int             `json:"level"`
	Content json.RawMessage `json:"content"`
	Anchor  string          `json:"anchor,omitempty"`
}

type listJSON struct {
	Items   []json.RawMessage `json:"items"`
	Ordered bool              `json:"ordered"`
}

type imageJSON struct {
	ResourceKey string `json:"resource_key"`
	Caption     string `json:"caption,omitempty"`
	Alt         string `json:"alt"`
}

type codeBlockJSON struct {
	Lang string `json:"lang,omitempty"`
	Code string `json:"code"`
}

type tableJSON struct {
	Headers []TableCell   `json:"headers"`
	Rows    [][]TableCell `json:"rows"`
}

type footnoteJSON struct {
	ID      string          `json:"id"`
	Content json.RawMessage `json:"content"`
}

type linkJSON struct {
	Children json.RawMessage `json:"children"`
	URL      string          `json:"url"`
}

type footnoteRefJSON struct {
	ID string `json:"id"`
}

type rubyJSON struct {
	Base       string `json:"base"`
	Annotation string `json:"annotation"`
}

type tableCellJSON struct {
	Content json.RawMessage `json:"content"`
	Colspan int             `json:"colspan"`
	Rowspan int             `json:"rowspan"`
}

func marshalBlocks(blocks []Block) (json.RawMessage, error) {
	out := make([]json.RawMessage, 0, len(blocks))
	for _, b := range blocks {
		raw, err := json.Marshal(b)
		if err != nil {
			return nil, err
		}
		out = append(out, raw)
	}
	return json.Marshal(out)
}

func marshalInlines(inlines []Inline) (json.RawMessage, error) {
	out := make([]json.RawMessage, 0, len(inlines))
	for _, in := range inlines {
		raw, err := json.Marshal(in)
		if err != nil {
			return nil, err
		}
		out = append(out, raw)
	}
	return json.Marshal(out)
}

func unmarshalBlocks(data json.RawMessage) ([]Block, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, err
	}
	out := make([]Block, 0, len(raws))
	for _, raw := range raws {
		b, err := UnmarshalBlock(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func unmarshalInlines(data json.RawMessage) ([]Inline, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, err
	}
	out := make([]Inline, 0, len(raws))
	for _, raw := range raws {
		in, err := UnmarshalInline(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, nil
}

func envelope(tag string, value any) ([]byte, error) {
	if value == nil {
		return json.Marshal(typedNode{Type: tag})
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return json.Marshal(typedNode{Type: tag, Value: raw})
}

// MarshalJSON implements json.Marshaler.
func (h *Header) MarshalJSON() ([]byte, error) {
	content, err := marshalInlines(h.Content)
	if err != nil {
		return nil, err
	}
	return envelope("header", headerJSON{Level: h.Level, Content: content, Anchor: h.Anchor})
}

// MarshalJSON implements json.Marshaler.
func (p *Paragraph) MarshalJSON() ([]byte, error) {
	content, err := marshalInlines(p.Content)
	if err != nil {
		return nil, err
	}
	return envelope("paragraph", content)
}

// MarshalJSON implements json.Marshaler.
func (l *List) MarshalJSON() ([]byte, error) {
	items := make([]json.RawMessage, 0, len(l.Items))
	for _, item := range l.Items {
		raw, err := marshalBlocks(item)
		if err != nil {
			return nil, err
		}
		items = append(items, raw)
	}
	return envelope("list", listJSON{Items: items, Ordered: l.Ordered})
}

// MarshalJSON implements json.Marshaler.
func (i *Image) MarshalJSON() ([]byte, error) {
	return envelope("image", imageJSON{ResourceKey: i.ResourceKey, Caption: i.Caption, Alt: i.Alt})
}

// MarshalJSON implements json.Marshaler.
func (c *CodeBlock) MarshalJSON() ([]byte, error) {
	return envelope("code_block", codeBlockJSON{Lang: c.Lang, Code: c.Code})
}

// MarshalJSON implements json.Marshaler.
func (b *Blockquote) MarshalJSON() ([]byte, error) {
	content, err := marshalBlocks(b.Content)
	if err != nil {
		return nil, err
	}
	return envelope("blockquote", content)
}

// MarshalJSON implements json.Marshaler.
func (*ThematicBreak) MarshalJSON() ([]byte, error) {
	return envelope("thematic_break", nil)
}

// MarshalJSON implements json.Marshaler.
func (t *Table) MarshalJSON() ([]byte, error) {
	headers := t.Headers
	if headers == nil {
		headers = []TableCell{}
	}
	rows := t.Rows
	if rows == nil {
		rows = [][]TableCell{}
	}
	return envelope("table", tableJSON{Headers: headers, Rows: rows})
}

// MarshalJSON implements json.Marshaler.
func (f *Footnote) MarshalJSON() ([]byte, error) {
	content, err := marshalBlocks(f.Content)
	if err != nil {
		return nil, err
	}
	return envelope("footnote", footnoteJSON{ID: f.ID, Content: content})
}

// MarshalJSON implements json.Marshaler.
func (c TableCell) MarshalJSON() ([]byte, error) {
	content, err := marshalInlines(c.Content)
	if err != nil {
		return nil, err
	}
	return json.Marshal(tableCellJSON{Content: content, Colspan: c.Colspan, Rowspan: c.Rowspan})
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *TableCell) UnmarshalJSON(data []byte) error {
	var wire tableCellJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	content, err := unmarshalInlines(wire.Content)
	if err != nil {
		return err
	}
	c.Content = content
	c.Colspan = wire.Colspan
	c.Rowspan = wire.Rowspan
	if c.Colspan == 0 {
		c.Colspan = 1
	}
	if c.Rowspan == 0 {
		c.Rowspan = 1
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (t *Text) MarshalJSON() ([]byte, error) {
	return envelope("text", t.Value)
}

// MarshalJSON implements json.Marshaler.
func (b *Bold) MarshalJSON() ([]byte, error) {
	children, err := marshalInlines(b.Children)
	if err != nil {
		return nil, err
	}
	return envelope("bold", children)
}

// MarshalJSON implements json.Marshaler.
func (i *Italic) MarshalJSON() ([]byte, error) {
	children, err := marshalInlines(i.Children)
	if err != nil {
		return nil, err
	}
	return envelope("italic", children)
}

// MarshalJSON implements json.Marshaler.
func (c *Code) MarshalJSON() ([]byte, error) {
	return envelope("code", c.Value)
}

// MarshalJSON implements json.Marshaler.
func (l *Link) MarshalJSON() ([]byte, error) {
	children, err := marshalInlines(l.Children)
	if err != nil {
		return nil, err
	}
	return envelope("link", linkJSON{Children: children, URL: l.URL})
}

// MarshalJSON implements json.Marshaler.
func (s *Superscript) MarshalJSON() ([]byte, error) {
	children, err := marshalInlines(s.Children)
	if err != nil {
		return nil, err
	}
	return envelope("superscript", children)
}

// MarshalJSON implements json.Marshaler.
func (s *Subscript) MarshalJSON() ([]byte, error) {
	children, err := marshalInlines(s.Children)
	if err != nil {
		return nil, err
	}
	return envelope("subscript", children)
}

// MarshalJSON implements json.Marshaler.
func (s *Strikethrough) MarshalJSON() ([]byte, error) {
	children, err := marshalInlines(s.Children)
	if err != nil {
		return nil, err
	}
	return envelope("strikethrough", children)
}

// MarshalJSON implements json.Marshaler.
func (f *FootnoteRef) MarshalJSON() ([]byte, error) {
	return envelope("footnote_ref", footnoteRefJSON{ID: f.ID})
}

// MarshalJSON implements json.Marshaler.
func (r *Ruby) MarshalJSON() ([]byte, error) {
	return envelope("ruby", rubyJSON{Base: r.Base, Annotation: r.Annotation})
}

// MarshalJSON implements json.Marshaler.
func (*Break) MarshalJSON() ([]byte, error) {
	return envelope("break", nil)
}

// UnmarshalBlock decodes a single tagged block object.
func UnmarshalBlock(data []byte) (Block, error) {
	var node typedNode
	if err := json.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	switch node.Type {
	case "header":
		var wire headerJSON
		if err := json.Unmarshal(node.Value, &wire); err != nil {
			return nil, err
		}
		content, err := unmarshalInlines(wire.Content)
		if err != nil {
			return nil, err
		}
		return &Header{Level: wire.Level, Content: content, Anchor: wire.Anchor}, nil
	case "paragraph":
		content, err := unmarshalInlines(node.Value)
		if err != nil {
			return nil, err
		}
		return &Paragraph{Content: content}, nil
	case "list":
		var wire listJSON
		if err := json.Unmarshal(node.Value, &wire); err != nil {
			return nil, err
		}
		items := make([][]Block, 0, len(wire.Items))
		for _, raw := range wire.Items {
			blocks, err := unmarshalBlocks(raw)
			if err != nil {
				return nil, err
			}
			items = append(items, blocks)
		}
		return &List{Items: items, Ordered: wire.Ordered}, nil
	case "image":
		var wire imageJSON
		if err := json.Unmarshal(node.Value, &wire); err != nil {
			return nil, err
		}
		return &Image{ResourceKey: wire.ResourceKey, Caption: wire.Caption, Alt: wire.Alt}, nil
	case "code_block":
		var wire codeBlockJSON
		if err := json.Unmarshal(node.Value, &wire); err != nil {
			return nil, err
		}
		return &CodeBlock{Lang: wire.Lang, Code: wire.Code}, nil
	case "blockquote":
		content, err := unmarshalBlocks(node.Value)
		if err != nil {
			return nil, err
		}
		return &Blockquote{Content: content}, nil
	case "thematic_break":
		return &ThematicBreak{}, nil
	case "table":
		var wire tableJSON
		if err := json.Unmarshal(node.Value, &wire); err != nil {
			return nil, err
		}
		return &Table{Headers: wire.Headers, Rows: wire.Rows}, nil
	case "footnote":
		var wire footnoteJSON
		if err := json.Unmarshal(node.Value, &wire); err != nil {
			return nil, err
		}
		content, err := unmarshalBlocks(wire.Content)
		if err != nil {
			return nil, err
		}
		return &Footnote{ID: wire.ID, Content: content}, nil
	default:
		return nil, fmt.Errorf("unknown block type %q", node.Type)
	}
}

// UnmarshalInline decodes a single tagged inline object.
func UnmarshalInline(data []byte) (Inline, error) {
	var node typedNode
	if err := json.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	switch node.Type {
	case "text":
		var value string
		if err := json.Unmarshal(node.Value, &value); err != nil {
			return nil, err
		}
		return &Text{Value: value}, nil
	case "bold":
		children, err := unmarshalInlines(node.Value)
		if err != nil {
			return nil, err
		}
		return &Bold{Children: children}, nil
	case "italic":
		children, err := unmarshalInlines(node.Value)
		if err != nil {
			return nil, err
		}
		return &Italic{Children: children}, nil
	case "code":
		var value string
		if err := json.Unmarshal(node.Value, &value); err != nil {
			return nil, err
		}
		return &Code{Value: value}, nil
	case "link":
		var wire linkJSON
		if err := json.Unmarshal(node.Value, &wire); err != nil {
			return nil, err
		}
		children, err := unmarshalInlines(wire.Children)
		if err != nil {
			return nil, err
		}
		return &Link{Children: children, URL: wire.URL}, nil
	case "superscript":
		children, err := unmarshalInlines(node.Value)
		if err != nil {
			return nil, err
		}
		return &Superscript{Children: children}, nil
	case "subscript":
		children, err := unmarshalInlines(node.Value)
		if err != nil {
			return nil, err
		}
		return &Subscript{Children: children}, nil
	case "strikethrough":
		children, err := unmarshalInlines(node.Value)
		if err != nil {
			return nil, err
		}
		return &Strikethrough{Children: children}, nil
	case "footnote_ref":
		var wire footnoteRefJSON
		if err := json.Unmarshal(node.Value, &wire); err != nil {
			return nil, err
		}
		return &FootnoteRef{ID: wire.ID}, nil
	case "ruby":
		var wire rubyJSON
		if err := json.Unmarshal(node.Value, &wire); err != nil {
			return nil, err
		}
		return &Ruby{Base: wire.Base, Annotation: wire.Annotation}, nil
	case "break":
		return &Break{}, nil
	default:
		return nil, fmt.Errorf("unknown inline type %q", node.Type)
	}
}

type resourceDataJSON struct {
	Storage string `json:"storage"`
	Data    []byte `json:"data,omitempty"`
	Backend string `json:"backend,omitempty"`
	Path    string `json:"path,omitempty"`
}

func marshalResourceData(d ResourceData) (json.RawMessage, error) {
	switch v := d.(type) {
	case *InlineData:
		return json.Marshal(resourceDataJSON{Storage: "inline", Data: v.Data})
	case *TempFileData:
		return json.Marshal(resourceDataJSON{Storage: "temp_file", Path: v.Path})
	case *ExternalData:
		return json.Marshal(resourceDataJSON{Storage: "external", Backend: v.Backend, Path: v.Path})
	default:
		return nil, fmt.Errorf("unknown resource data %T", d)
	}
}

func unmarshalResourceData(data json.RawMessage) (ResourceData, error) {
	var wire resourceDataJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, err
	}
	switch wire.Storage {
	case "inline":
		return &InlineData{Data: wire.Data}, nil
	case "temp_file":
		return &TempFileData{Path: wire.Path}, nil
	case "external":
		return &ExternalData{Backend: wire.Backend, Path: wire.Path}, nil
	default:
		return nil, fmt.Errorf("unknown resource storage %q", wire.Storage)
	}
}

type resourceJSON struct {
	Key              string          `json:"key"`
	Data             json.RawMessage `json:"data"`
	MIMEType         string          `json:"mime_type"`
	OriginalFilename string          `json:"original_filename,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (r *Resource) MarshalJSON() ([]byte, error) {
	data, err := marshalResourceData(r.Data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(resourceJSON{
		Key:              r.Key,
		Data:             data,
		MIMEType:         r.MIMEType,
		OriginalFilename: r.OriginalFilename,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Resource) UnmarshalJSON(data []byte) error {
	var wire resourceJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	rd, err := unmarshalResourceData(wire.Data)
	if err != nil {
		return err
	}
	r.Key = wire.Key
	r.Data = rd
	r.MIMEType = wire.MIMEType
	r.OriginalFilename = wire.OriginalFilename
	return nil
}

// MarshalJSON implements json.Marshaler. The store serializes as a key to
// resource object map.
func (s *ResourceStore) MarshalJSON() ([]byte, error) {
	out := make(map[string]*Resource, len(s.resources))
	for k, v := range s.resources {
		out[k] = v
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler. Insertion order is not part of
// the wire format; keys are restored sorted.
func (s *ResourceStore) UnmarshalJSON(data []byte) error {
	var wire map[string]*Resource
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	s.resources = make(map[string]*Resource, len(wire))
	s.order = s.order[:0]
	for k, v := range wire {
		s.resources[k] = v
		s.order = append(s.order, k)
	}
	sort.Strings(s.order)
	return nil
}

type chapterJSON struct {
	ID      string          `json:"id"`
	Title   string          `json:"title"`
	Content json.RawMessage `json:"content"`
}

// MarshalJSON implements json.Marshaler.
func (c Chapter) MarshalJSON() ([]byte, error) {
	content, err := marshalBlocks(c.Content)
	if err != nil {
		return nil, err
	}
	return json.Marshal(chapterJSON{ID: c.ID, Title: c.Title, Content: content})
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Chapter) UnmarshalJSON(data []byte) error {
	var wire chapterJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	content, err := unmarshalBlocks(wire.Content)
	if err != nil {
		return err
	}
	c.ID = wire.ID
	c.Title = wire.Title
	c.Content = content
	return nil
}

type seriesJSON struct {
	Name     string  `json:"name"`
	Position float64 `json:"position"`
}

type metadataJSON struct {
	Title            string      `json:"title"`
	Authors          []string    `json:"authors,omitempty"`
	Language         string      `json:"language"`
	Identifier       string      `json:"identifier"`
	Publisher        string      `json:"publisher,omitempty"`
	Description      string      `json:"description,omitempty"`
	Subjects         []string    `json:"subjects,omitempty"`
	PublishedDate    string      `json:"published_date,omitempty"`
	Rights           string      `json:"rights,omitempty"`
	Series           *seriesJSON `json:"series,omitempty"`
	Direction        string      `json:"direction"`
	CoverResourceKey string      `json:"cover_resource_key,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (m Metadata) MarshalJSON() ([]byte, error) {
	wire := metadataJSON{
		Title:            m.Title,
		Authors:          m.Authors,
		Language:         m.Language,
		Identifier:       m.Identifier,
		Publisher:        m.Publisher,
		Description:      m.Description,
		Subjects:         m.Subjects,
		PublishedDate:    m.PublishedDate,
		Rights:           m.Rights,
		Direction:        string(m.Direction),
		CoverResourceKey: m.CoverResourceKey,
	}
	if wire.Direction == "" {
		wire.Direction = string(LeftToRight)
	}
	if m.Series != nil {
		wire.Series = &seriesJSON{Name: m.Series.Name, Position: m.Series.Index}
	}
	return json.Marshal(wire)
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	var wire metadataJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*m = Metadata{
		Title:            wire.Title,
		Authors:          wire.Authors,
		Language:         wire.Language,
		Identifier:       wire.Identifier,
		Publisher:        wire.Publisher,
		Description:      wire.Description,
		Subjects:         wire.Subjects,
		PublishedDate:    wire.PublishedDate,
		Rights:           wire.Rights,
		Direction:        ReadingDirection(wire.Direction),
		CoverResourceKey: wire.CoverResourceKey,
	}
	if m.Direction == "" {
		m.Direction = LeftToRight
	}
	if wire.Series != nil {
		m.Series = &SeriesInfo{Name: wire.Series.Name, Index: wire.Series.Position}
	}
	return nil
}

type tocEntryJSON struct {
	Title    string     `json:"title"`
	Target   string     `json:"target"`
	Level    int        `json:"level"`
	Children []TocEntry `json:"children,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (t TocEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal(tocEntryJSON{Title: t.Title, Target: t.Target, Level: t.Level, Children: t.Children})
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *TocEntry) UnmarshalJSON(data []byte) error {
	var wire tocEntryJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	t.Title = wire.Title
	t.Target = wire.Target
	t.Level = wire.Level
	t.Children = wire.Children
	return nil
}

type bookJSON struct {
	ID        string          `json:"id"`
	Metadata  Metadata        `json:"metadata"`
	Chapters  []Chapter       `json:"chapters"`
	Toc       []TocEntry      `json:"toc,omitempty"`
	Resources json.RawMessage `json:"resources,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (b *Book) MarshalJSON() ([]byte, error) {
	wire := bookJSON{ID: b.ID, Metadata: b.Metadata, Chapters: b.Chapters, Toc: b.Toc}
	if wire.ID == "" {
		wire.ID = uuid.NewString()
	}
	if wire.Chapters == nil {
		wire.Chapters = []Chapter{}
	}
	if b.Resources != nil {
		raw, err := b.Resources.MarshalJSON()
		if err != nil {
			return nil, err
		}
		wire.Resources = raw
	}
	return json.Marshal(wire)
}

// UnmarshalJSON implements json.Unmarshaler.
func (b *Book) UnmarshalJSON(data []byte) error {
	var wire bookJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	b.ID = wire.ID
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	b.Metadata = wire.Metadata
	b.Chapters = wire.Chapters
	b.Toc = wire.Toc
	b.Resources = NewResourceStore()
	if len(wire.Resources) > 0 {
		if err := b.Resources.UnmarshalJSON(wire.Resources); err != nil {
			return err
		}
	}
	return nil
}
