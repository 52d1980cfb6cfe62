package survey

// Definition node types that are not question types.
const (
	TypeSurvey  = "survey"
	TypeGroup   = "group"
	TypeRepeat  = "repeat"
	TypeLoop    = "loop"
	TypeInclude = "include"
	TypeEntity  = "entity"
)

// Fields are the serialisable attributes shared by every element.
type Fields struct {
	Type              string            `json:"type"`
	Name              string            `json:"name"`
	Label             Text              `json:"label,omitempty"`
	Hint              Text              `json:"hint,omitempty"`
	GuidanceHint      Text              `json:"guidance_hint,omitempty"`
	Media             Media             `json:"media,omitempty"`
	ConstraintMessage Text              `json:"constraint_message,omitempty"`
	RequiredMessage   Text              `json:"required_message,omitempty"`
	Bind              map[string]string `json:"bind,omitempty"`
	Control           map[string]string `json:"control,omitempty"`
	Instance          map[string]string `json:"instance,omitempty"`
	Parameters        map[string]string `json:"parameters,omitempty"`
	Default           string            `json:"default,omitempty"`
	Trigger           string            `json:"trigger,omitempty"`
	ChoiceFilter      string            `json:"choice_filter,omitempty"`
	ListName          string            `json:"list_name,omitempty"`
	Itemset           string            `json:"itemset,omitempty"`
	OrOther           bool              `json:"or_other,omitempty"`
	Bodyless          bool              `json:"bodyless,omitempty"`
	Row               int               `json:"row,omitempty"`
}

// Clone returns a deep copy of f.
func (f Fields) Clone() Fields {
	c := f
	c.Label = f.Label.Clone()
	c.Hint = f.Hint.Clone()
	c.GuidanceHint = f.GuidanceHint.Clone()
	c.ConstraintMessage = f.ConstraintMessage.Clone()
	c.RequiredMessage = f.RequiredMessage.Clone()
	c.Media = cloneMedia(f.Media)
	c.Bind = cloneStrings(f.Bind)
	c.Control = cloneStrings(f.Control)
	c.Instance = cloneStrings(f.Instance)
	c.Parameters = cloneStrings(f.Parameters)
	return c
}

// Option is one choice of a choice list, an osm tag or a loop column.
type Option struct {
	Name  string            `json:"name"`
	Label Text              `json:"label,omitempty"`
	Media Media             `json:"media,omitempty"`
	Extra map[string]string `json:"extra,omitempty"`
}

// Tag is an osm tag with its own options.
type Tag struct {
	Name    string   `json:"name"`
	Label   Text     `json:"label,omitempty"`
	Options []Option `json:"options,omitempty"`
}

// Def is the serialisable form of an element subtree. The root Def also
// carries the survey level fields.
type Def struct {
	Fields
	Children []*Def  `json:"children,omitempty"`
	Columns  []Option `json:"columns,omitempty"`
	Tags     []Tag    `json:"tags,omitempty"`

	IDString        string              `json:"id_string,omitempty"`
	Title           string              `json:"title,omitempty"`
	DefaultLanguage string              `json:"default_language,omitempty"`
	Version         string              `json:"version,omitempty"`
	Settings        map[string]string   `json:"settings,omitempty"`
	Choices         map[string][]Option `json:"choices,omitempty"`
}

// Clone returns a deep copy of d.
func (d *Def) Clone() *Def {
	if d == nil {
		return nil
	}
	c := *d
	c.Fields = d.Fields.Clone()
	c.Children = make([]*Def, len(d.Children))
	for i, child := range d.Children {
		c.Children[i] = child.Clone()
	}
	if d.Children == nil {
		c.Children = nil
	}
	c.Columns = cloneOptions(d.Columns)
	if d.Tags != nil {
		c.Tags = make([]Tag, len(d.Tags))
		for i, tag := range d.Tags {
			c.Tags[i] = Tag{Name: tag.Name, Label: tag.Label.Clone(), Options: cloneOptions(tag.Options)}
		}
	}
	c.Settings = cloneStrings(d.Settings)
	if d.Choices != nil {
		c.Choices = make(map[string][]Option, len(d.Choices))
		for name, opts := range d.Choices {
			c.Choices[name] = cloneOptions(opts)
		}
	}
	return &c
}

func cloneOptions(opts []Option) []Option {
	if opts == nil {
		return nil
	}
	out := make([]Option, len(opts))
	for i, o := range opts {
		out[i] = Option{Name: o.Name, Label: o.Label.Clone(), Media: cloneMedia(o.Media), Extra: cloneStrings(o.Extra)}
	}
	return out
}

func cloneStrings(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	c := make(map[string]string, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

func cloneMedia(m map[string]Text) map[string]Text {
	if m == nil {
		return nil
	}
	c := make(map[string]Text, len(m))
	for k, v := range m {
		c[k] = v.Clone()
	}
	return c
}
