package survey

import (
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// ToDef converts the tree back to its definition form. Building the result
// again yields the same tree.
func (s *Survey) ToDef() *Def {
	d := sectionDef(&s.Section)
	d.Type = TypeSurvey
	d.IDString = s.IDString
	d.Title = s.Title
	d.DefaultLanguage = s.DefaultLanguage
	d.Version = s.Version
	d.Settings = cloneStrings(s.Settings)
	if len(s.Choices) > 0 {
		d.Choices = make(map[string][]Option, len(s.Choices))
		for name, list := range s.Choices {
			d.Choices[name] = cloneOptions(list.Options)
		}
	}
	return d
}

// MarshalJSON encodes the survey definition.
func (s *Survey) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.ToDef())
}

// ParseDef decodes a survey definition.
func ParseDef(data []byte) (*Def, error) {
	var d Def
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, errors.Wrap(err, "decode survey definition")
	}
	return &d, nil
}

func sectionDef(s *Section) *Def {
	d := &Def{Fields: s.Fields.Clone()}
	switch s.Kind {
	case KindGroup:
		d.Type = TypeGroup
	case KindRepeat:
		d.Type = TypeRepeat
	}
	for _, child := range s.Children {
		d.Children = append(d.Children, ElementDef(child))
	}
	return d
}

// ElementDef converts one element and its subtree.
func ElementDef(e Element) *Def {
	switch e := e.(type) {
	case *Survey:
		return e.ToDef()
	case *Section:
		return sectionDef(e)
	case *Question:
		d := &Def{Fields: e.Fields.Clone()}
		for _, tag := range e.Tags {
			d.Tags = append(d.Tags, Tag{Name: tag.Name, Label: tag.Label.Clone(), Options: cloneOptions(tag.Options)})
		}
		return d
	case *ExternalInstance:
		return &Def{Fields: e.Fields.Clone()}
	case *EntityDeclaration:
		d := &Def{Fields: e.Fields.Clone()}
		d.Type = TypeEntity
		params := map[string]string{"dataset": e.Dataset}
		for key, value := range map[string]string{
			"entity_id": e.EntityID,
			"create_if": e.CreateIf,
			"update_if": e.UpdateIf,
			"label":     e.Label,
			"repeat":    e.Repeat,
		} {
			if value != "" {
				params[key] = value
			}
		}
		d.Parameters = params
		return d
	}
	return nil
}
