package survey

import (
	"sort"

	"github.com/goccy/go-json"
)

// DefaultLanguageKey is the JSON key holding a Text's untranslated value.
const DefaultLanguageKey = "default"

// Text is an author supplied string, optionally translated. The untranslated
// value is kept under the empty key.
type Text map[string]string

// PlainText returns a Text holding only s, or nil when s is empty.
func PlainText(s string) Text {
	if s == "" {
		return nil
	}
	return Text{"": s}
}

// Plain returns the untranslated value.
func (t Text) Plain() string {
	return t[""]
}

// Translated reports whether t carries any language specific value.
func (t Text) Translated() bool {
	for lang := range t {
		if lang != "" {
			return true
		}
	}
	return false
}

// Languages returns the explicit languages of t, sorted.
func (t Text) Languages() []string {
	var langs []string
	for lang := range t {
		if lang != "" {
			langs = append(langs, lang)
		}
	}
	sort.Strings(langs)
	return langs
}

// Value returns the text for lang. An explicit value wins; the untranslated
// value stands for defaultLang.
func (t Text) Value(lang, defaultLang string) (string, bool) {
	if v, ok := t[lang]; ok && lang != "" {
		return v, true
	}
	if lang == defaultLang {
		v, ok := t[""]
		return v, ok
	}
	return "", false
}

// Any returns some value of t, preferring the untranslated one.
func (t Text) Any() string {
	if v, ok := t[""]; ok {
		return v
	}
	if langs := t.Languages(); len(langs) > 0 {
		return t[langs[0]]
	}
	return ""
}

// Clone returns a copy of t.
func (t Text) Clone() Text {
	if t == nil {
		return nil
	}
	c := make(Text, len(t))
	for k, v := range t {
		c[k] = v
	}
	return c
}

// Map returns a copy of t with fn applied to every value.
func (t Text) Map(fn func(lang, value string) string) Text {
	if t == nil {
		return nil
	}
	c := make(Text, len(t))
	for k, v := range t {
		c[k] = fn(k, v)
	}
	return c
}

func (t Text) MarshalJSON() ([]byte, error) {
	if len(t) == 1 {
		if v, ok := t[""]; ok {
			return json.Marshal(v)
		}
	}
	m := make(map[string]string, len(t))
	for k, v := range t {
		if k == "" {
			k = DefaultLanguageKey
		}
		m[k] = v
	}
	return json.Marshal(m)
}

func (t *Text) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = PlainText(s)
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	out := make(Text, len(m))
	for k, v := range m {
		if k == DefaultLanguageKey {
			k = ""
		}
		out[k] = v
	}
	*t = out
	return nil
}

// Media holds an element's media texts by kind (image, audio, video, ...).
type Media map[string]Text

// MarshalJSON encodes each Text the way Text.MarshalJSON does, going
// through plain values: goccy/go-json fails on maps whose values are maps
// with their own marshaller.
func (m Media) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(m))
	for kind, t := range m {
		if v, ok := t[""]; ok && len(t) == 1 {
			out[kind] = v
			continue
		}
		langs := make(map[string]string, len(t))
		for k, v := range t {
			if k == "" {
				k = DefaultLanguageKey
			}
			langs[k] = v
		}
		out[kind] = langs
	}
	return json.Marshal(out)
}

func (m *Media) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Media, len(raw))
	for kind, data := range raw {
		var t Text
		if err := t.UnmarshalJSON(data); err != nil {
			return err
		}
		out[kind] = t
	}
	*m = out
	return nil
}
