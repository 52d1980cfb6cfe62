package resolve

import (
	"sort"

	"github.com/mbolis/quick-xform/aliases"
	"github.com/mbolis/quick-xform/survey"
)

// choiceLabels resolves option labels with references. They are shown from
// the itemset, outside any instance node, so paths are absolute.
func (r *resolver) choiceLabels() {
	names := make([]string, 0, len(r.s.Choices))
	for name := range r.s.Choices {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		list := r.s.Choices[name]
		var labels []survey.Text
		for i, o := range list.Options {
			m := r.markup(o.Label, nil, site{aliases.SheetChoices, "label", 0})
			if m == nil {
				continue
			}
			if labels == nil {
				labels = make([]survey.Text, len(list.Options))
			}
			labels[i] = m
		}
		if labels == nil {
			continue
		}
		if r.s.ChoiceLabels == nil {
			r.s.ChoiceLabels = map[string][]survey.Text{}
		}
		r.s.ChoiceLabels[name] = labels
	}
}
