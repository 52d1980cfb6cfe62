package builder

import (
	"strings"

	"github.com/mbolis/quick-xform/aliases"
	"github.com/mbolis/quick-xform/survey"
	"github.com/mbolis/quick-xform/validate"
)

// choiceLists holds the choices sheet grouped by list name.
type choiceLists struct {
	lists      map[string][]survey.Option
	translated bool
}

func readChoices(wb Workbook, doubleColons bool, settings map[string]string, w *validate.Warnings) (*choiceLists, error) {
	cl := &choiceLists{lists: map[string][]survey.Option{}}
	warned := map[string]bool{}
	var order []string
	for _, rec := range groupSheet(wb[aliases.SheetChoices], aliases.Choices, doubleColons, replaceSmartQuotes) {
		list := rec.get("list_name")
		if list == "" {
			continue
		}
		if _, ok := cl.lists[list]; !ok {
			order = append(order, list)
		}
		info := "[list_name : " + list + "]"
		opt := survey.Option{Name: rec.get("name"), Label: rec.text("label")}
		if opt.Name == "" {
			return nil, &validate.Error{
				Code:    validate.ErrChoices,
				Sheet:   aliases.SheetChoices,
				Row:     rec.num,
				Message: "On the choices sheet there is a option with no name. " + info,
			}
		}
		if opt.Label == nil {
			w.Add("On the choices sheet there is a option with no label. %s", info)
		}
		for _, e := range rec.entries {
			switch e.path[0] {
			case "name", "label", "list_name":
				continue
			case "media":
				if len(e.path) < 2 {
					continue
				}
				if opt.Media == nil {
					opt.Media = map[string]survey.Text{}
				}
				opt.Media[e.path[1]] = rec.text("media", e.path[1])
				continue
			}
			key := joinPath(e.path)
			switch {
			case key == "":
				w.Add("On the choices sheet there is a value in a column with no header.")
			case strings.Contains(key, " "):
				if !warned[key] {
					warned[key] = true
					w.Add(`On the choices sheet there is a column ("%s") with an illegal header. Headers cannot include spaces.`, key)
				}
			default:
				if opt.Extra == nil {
					opt.Extra = map[string]string{}
				}
				opt.Extra[key] = e.value
			}
		}
		if opt.Label.Translated() {
			cl.translated = true
		}
		for _, m := range opt.Media {
			if m.Translated() {
				cl.translated = true
			}
		}
		cl.lists[list] = append(cl.lists[list], opt)
	}

	allow := yes(settings, "allow_choice_duplicates")
	for _, list := range order {
		names := make([]string, len(cl.lists[list]))
		for i, o := range cl.lists[list] {
			names[i] = o.Name
		}
		if msg := validate.DuplicateChoices(list, names, allow); msg != "" {
			w.Add("%s", msg)
		}
	}
	return cl, nil
}

// readOsm returns the osm sheet tags grouped by list name. A tag whose name is
// itself a list gets that list as its options.
func readOsm(wb Workbook) map[string][]survey.Tag {
	byList := map[string][]survey.Option{}
	for _, rec := range groupSheet(wb[aliases.SheetOsm], aliases.Choices, true, replaceSmartQuotes) {
		list := rec.get("list_name")
		if list == "" {
			continue
		}
		byList[list] = append(byList[list], survey.Option{Name: rec.get("name"), Label: rec.text("label")})
	}
	tags := make(map[string][]survey.Tag, len(byList))
	for list, opts := range byList {
		for _, o := range opts {
			tag := survey.Tag{Name: o.Name, Label: o.Label}
			if sub, ok := byList[o.Name]; ok {
				tag.Options = sub
			}
			tags[list] = append(tags[list], tag)
		}
	}
	return tags
}
