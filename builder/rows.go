package builder

import (
	"fmt"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/mbolis/quick-xform/aliases"
	"github.com/mbolis/quick-xform/expression"
	"github.com/mbolis/quick-xform/survey"
	"github.com/mbolis/quick-xform/validate"
)

// frame is one open control on the begin/end stack.
type frame struct {
	kind string
	name string
	def  *survey.Def
	row  int

	tableList     bool
	tableListName string
}

var (
	controlWords = strings.Join(sortedKeys(aliases.Control), "|")
	endRe        = regexp.MustCompile(`^end[\s_](` + controlWords + `)$`)
	beginRe      = regexp.MustCompile(`^begin[\s_](` + controlWords + `)( (over )?(\S+))?$`)
	selectRe     = regexp.MustCompile(`^(` + strings.Join(selectCommands(), "|") + `) (\S+)( (or specify other|or_other|or other))?$`)
	osmRe        = regexp.MustCompile(`^osm (\S+)$`)
	referenceRe  = regexp.MustCompile(`\$\{[^}]*\}`)
)

var fileExtensions = []string{".csv", ".geojson", ".xml"}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, regexp.QuoteMeta(k))
	}
	// longest first so that alternation prefers the most specific spelling
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}

func selectCommands() []string {
	all := map[string]string{}
	for k, v := range aliases.Select {
		all[k] = v
	}
	for k, v := range aliases.SelectFromFile {
		all[k] = v
	}
	return sortedKeys(all)
}

// rowsStage walks the workbook sheets and builds the definition tree.
type rowsStage struct {
	opts     Options
	w        *validate.Warnings
	wb       Workbook
	settings map[string]string
	choices  *choiceLists
	osm      map[string][]survey.Tag
	entity   *survey.Def

	root       *survey.Def
	stack      []*frame
	meta       []*survey.Def
	translated bool
	orOther    bool
	repeatSeen bool
}

func readRows(wb Workbook, opts Options, w *validate.Warnings) (*survey.Def, error) {
	wb = wb.lower()
	rows, ok := wb[aliases.SheetSurvey]
	if !ok {
		msg := fmt.Sprintf("You must have a sheet named '%s'. ", aliases.SheetSurvey)
		msg += validate.SheetMisspellings(aliases.SheetSurvey, wb.sheetNames(), aliases.SupportedSheets)
		return nil, validate.StructuralError(0, "%s", msg)
	}
	if !hasTypeColumn(rows) {
		return nil, validate.StructuralError(0, "The survey sheet is either empty or missing important column headers.")
	}

	double := wb.hasDoubleColon()
	r := &rowsStage{opts: opts, w: w, wb: wb}
	r.settings = readSettings(wb, double, w)
	r.root = r.rootDef()

	var err error
	if r.choices, err = readChoices(wb, double, r.settings, w); err != nil {
		return nil, err
	}
	if err := checkSheetReferences(aliases.SheetChoices, wb[aliases.SheetChoices], aliases.Choices, double, "list_name", "name"); err != nil {
		return nil, err
	}
	r.translated = r.choices.translated
	r.osm = readOsm(wb)
	if r.entity, err = readEntity(wb, r.w); err != nil {
		return nil, err
	}
	if r.entity != nil {
		if err := checkSheetReferences(aliases.SheetEntities, wb[aliases.SheetEntities], aliases.Entities, false, "dataset"); err != nil {
			return nil, err
		}
	}

	clean := cleaner(replaceSmartQuotes)
	if v, ok := aliases.YesNo(r.settings["clean_text_values"]); !ok || v {
		clean = cleanText
	}
	r.stack = []*frame{{def: r.root}}
	for _, rec := range groupSheet(rows, aliases.Survey, double, clean) {
		if err := r.row(rec); err != nil {
			return nil, err
		}
	}
	return r.finish()
}

func hasTypeColumn(rows []Row) bool {
	for _, row := range rows {
		for header := range row {
			if strings.ToLower(strings.TrimSpace(header)) == "type" {
				return true
			}
		}
	}
	return false
}

func (r *rowsStage) rootDef() *survey.Def {
	name := r.settings["name"]
	if name == "" {
		name = r.opts.FormName
	}
	if name == "" {
		name = defaultFormName
	}
	id := r.settings["id_string"]
	if id == "" {
		id = r.opts.FormID
	}
	if id == "" {
		id = defaultFormName
	}
	title := r.settings["title"]
	if title == "" {
		title = id
	}
	lang := r.settings["default_language"]
	if lang == "" {
		lang = r.opts.DefaultLanguage
	}
	settings := make(map[string]string, len(r.settings))
	for k, v := range r.settings {
		settings[k] = v
	}
	return &survey.Def{
		Fields:          survey.Fields{Type: survey.TypeSurvey, Name: name},
		IDString:        id,
		Title:           title,
		DefaultLanguage: lang,
		Version:         r.settings["version"],
		Settings:        settings,
	}
}

func (r *rowsStage) top() *frame {
	return r.stack[len(r.stack)-1]
}

func (r *rowsStage) add(d *survey.Def) {
	top := r.top().def
	top.Children = append(top.Children, d)
}

func atRow(err error, row int) error {
	var verr *validate.Error
	if errors.As(err, &verr) && verr.Row == 0 {
		verr.Row = row
		verr.Sheet = aliases.SheetSurvey
	}
	return err
}

// row handles one survey sheet row.
func (r *rowsStage) row(rec *record) error {
	if rec.has("disabled") {
		r.w.AddRow(rec.num, "The 'disabled' column header is not part of the current XLSForm standard. "+
			"We recommend using relevant instead.")
		if disabled, _ := aliases.YesNo(rec.remove("disabled")); disabled {
			return nil
		}
	}
	if len(rec.entries) == 0 {
		return nil
	}

	typ := aliases.DealiasType(rec.get("type"))
	if typ == "" {
		if !rec.has("name") && !rec.has("label") {
			r.w.AddRow(rec.num, "Row without name, text, or label is being skipped:\n%s", rec)
			return nil
		}
		return validate.StructuralError(rec.num, "Question with no type.\n%s", rec)
	}
	if err := checkReferences(aliases.SheetSurvey, rec, "type", "name"); err != nil {
		return err
	}
	p, err := parseParams(rec.get("parameters"))
	if err != nil {
		return atRow(err, rec.num)
	}

	if typ == "audit" {
		return r.audit(rec, p)
	}
	if typ == "calculate" {
		def := rec.get("default")
		if rec.get("bind", "calculate") == "" && !expression.IsDynamic(def, "string") {
			return validate.StructuralError(rec.num, "Missing calculation.")
		}
	}
	if aliases.DeprecatedMetadata[typ] {
		r.w.AddRow(rec.num, "%s is no longer supported on most devices. "+
			"Only old versions of Collect on Android versions older than 11 still support it.", typ)
	}
	if setting, ok := aliases.Settings[typ]; ok {
		r.settingRow(setting[0], rec.get("name"))
		return nil
	}

	if m := endRe.FindStringSubmatch(typ); m != nil {
		return r.end(rec, aliases.Control[m[1]])
	}

	name := rec.get("name")
	if name == "" {
		if typ != "note" {
			return validate.StructuralError(rec.num, "Question or group with no name.")
		}
		name = "generated_note_name_" + strconv.Itoa(rec.num)
		rec.set(name, "name")
	}
	if err := validate.Name(name, rec.num); err != nil {
		return err
	}

	begin := beginRe.FindStringSubmatch(typ)
	kind := ""
	if begin != nil {
		kind = aliases.Control[begin[1]]
	}
	if err := checkSaveTo(rec, kind, r.stack, r.entity); err != nil {
		return err
	}
	if target := r.entityRepeat(); target != "" && name == target {
		if err := checkEntityRepeat(target, kind, r.stack); err != nil {
			return err
		}
		r.repeatSeen = true
	}

	if begin != nil {
		return r.begin(rec, kind, begin[4])
	}
	if m := selectRe.FindStringSubmatch(typ); m != nil {
		return r.selectRow(rec, p, m[1], m[2], m[4] != "")
	}
	if m := osmRe.FindStringSubmatch(typ); m != nil {
		d := r.def(rec, "osm")
		d.Tags = r.osm[m[1]]
		r.add(d)
		return nil
	}

	d := r.def(rec, typ)
	if len(p) > 0 {
		d.Parameters = p
	}
	switch typ {
	case "range":
		decimal, err := rangeParams(p)
		if err != nil {
			return atRow(err, rec.num)
		}
		d.Parameters = p
		if decimal {
			d.Bind = setKey(d.Bind, "type", "decimal")
		}
	case "text":
		if err := p.allow("rows"); err != nil {
			return atRow(err, rec.num)
		}
		if p.has("rows") {
			if !p.isInt("rows") {
				return validate.StructuralError(rec.num, "Parameter rows must have an integer value.")
			}
			d.Control = setKey(d.Control, "rows", p["rows"])
		}
	case "photo":
		if err := r.photo(rec, d, p); err != nil {
			return err
		}
	case "audio":
		if err := p.allow("quality"); err != nil {
			return atRow(err, rec.num)
		}
		if p.has("quality") {
			if !contains([]string{"voice-only", "low", "normal", "external"}, p["quality"]) {
				return validate.StructuralError(rec.num, "Invalid value for quality.")
			}
			d.Bind = setKey(d.Bind, "odk:quality", p["quality"])
		}
	case "geopoint", "geoshape", "geotrace":
		if err := geoParams(d, p, typ); err != nil {
			return atRow(err, rec.num)
		}
	case "include":
		d.Type = survey.TypeInclude
	}
	r.add(d)
	return nil
}

func (r *rowsStage) entityRepeat() string {
	if r.entity == nil {
		return ""
	}
	return r.entity.Parameters["repeat"]
}

func (r *rowsStage) settingRow(key, value string) {
	switch key {
	case "title":
		r.root.Title = value
	case "id_string":
		r.root.IDString = value
	}
	r.root.Settings[key] = value
}

// def converts a record into a definition node of type typ.
func (r *rowsStage) def(rec *record, typ string) *survey.Def {
	f := survey.Fields{
		Type:              typ,
		Name:              rec.get("name"),
		Label:             rec.text("label"),
		Hint:              rec.text("hint"),
		GuidanceHint:      rec.text("guidance_hint"),
		ConstraintMessage: rec.text("constraint_message"),
		RequiredMessage:   rec.text("required_message"),
		Bind:              rec.group("bind"),
		Control:           rec.group("control"),
		Instance:          rec.group("instance"),
		Default:           rec.get("default"),
		Trigger:           rec.get("trigger"),
		ChoiceFilter:      rec.get("choice_filter"),
		ListName:          rec.get("list_name"),
		Row:               rec.num,
	}
	for _, kind := range aliases.MediaKinds {
		if t := rec.text("media", kind); t != nil {
			if f.Media == nil {
				f.Media = map[string]survey.Text{}
			}
			f.Media[kind] = t
		}
	}
	for _, t := range []survey.Text{f.Label, f.Hint, f.GuidanceHint, f.ConstraintMessage, f.RequiredMessage} {
		if t.Translated() {
			r.translated = true
		}
	}
	for _, t := range f.Media {
		if t.Translated() {
			r.translated = true
		}
	}

	top := map[string]any{}
	for _, e := range rec.entries {
		top[e.path[0]] = nil
	}
	unknown := validate.UnknownHeaders(top, aliases.SurveyColumns)
	sort.Strings(unknown)
	for _, key := range unknown {
		r.w.AddOnce("The survey sheet column '%s' is not recognised and was ignored.", key)
	}
	return &survey.Def{Fields: f}
}

func setKey(m map[string]string, key, value string) map[string]string {
	if m == nil {
		m = map[string]string{}
	}
	m[key] = value
	return m
}

func (r *rowsStage) audit(rec *record, p params) error {
	if name := rec.get("name"); name != "" && name != "audit" {
		return validate.StructuralError(rec.num, "Audits must always be named 'audit.' The name column should be left blank.")
	}
	rec.set("audit", "name")
	bind, err := auditBinds(p)
	if err != nil {
		return atRow(err, rec.num)
	}
	d := r.def(rec, "audit")
	for k, v := range bind {
		d.Bind = setKey(d.Bind, k, v)
	}
	r.meta = append(r.meta, d)
	return nil
}

func (r *rowsStage) end(rec *record, kind string) error {
	top := r.top()
	if len(r.stack) == 1 || top.kind != kind {
		prev := top.kind
		if prev == "" {
			prev = "None"
		}
		name := rec.get("name")
		if name == "" {
			name = "None"
		}
		return validate.StructuralError(rec.num, "Unmatched end statement. Previous control type: %s, "+
			"Control type: %s, Control name: %s", prev, kind, name)
	}
	r.stack = r.stack[:len(r.stack)-1]
	if top.kind == aliases.Repeat && top.name == r.entityRepeat() {
		top.def.Children = append(top.def.Children, metaGroup(r.entity))
	}
	return nil
}

func metaGroup(children ...*survey.Def) *survey.Def {
	return &survey.Def{
		Fields:   survey.Fields{Type: survey.TypeGroup, Name: "meta", Bodyless: true},
		Children: children,
	}
}

func (r *rowsStage) begin(rec *record, kind, list string) error {
	typ := rec.get("type")
	if !rec.has("label") && !rec.has("media") && !aliases.LabelOptional[typ] &&
		rec.get("bind", "calculate") == "" && !expression.IsDynamic(rec.get("default"), "string") &&
		!(kind == aliases.Group && rec.get("control", "appearance") == "field-list") {
		r.w.AddRow(rec.num, "%s has no label: {'name': '%s', 'type': '%s'}",
			strings.ToUpper(kind[:1])+kind[1:], rec.get("name"), typ)
	}

	d := r.def(rec, kind)
	d.Type = kind
	parent := r.top()
	if kind == aliases.Loop {
		if list == "" {
			return validate.StructuralError(rec.num, "Repeat loop without list name.")
		}
		opts, ok := r.choices.lists[list]
		if !ok {
			return validate.StructuralError(rec.num, "List name not in columns sheet: %s", list)
		}
		d.Columns = opts
	}

	if count := d.Control["jr:count"]; count != "" && !expression.IsSingleReference(count) {
		node := d.Name + "_count"
		parent.def.Children = append(parent.def.Children, &survey.Def{Fields: survey.Fields{
			Type: "calculate",
			Name: node,
			Bind: map[string]string{"readonly": "true()", "calculate": count},
			Row:  rec.num,
		}})
		d.Control["jr:count"] = "${" + node + "}"
	}

	f := &frame{kind: kind, name: d.Name, def: d, row: rec.num}
	if appearance := d.Control["appearance"]; appearance != "" {
		words := strings.Fields(appearance)
		if contains(words, "table-list") {
			f.tableList = true
			mods := []string{"field-list"}
			for _, w := range words {
				if w != "table-list" {
					mods = append(mods, w)
				}
			}
			d.Control["appearance"] = strings.Join(mods, " ")
			if d.Label != nil || d.Hint != nil {
				d.Children = append(d.Children, &survey.Def{Fields: survey.Fields{
					Type:  "note",
					Name:  "generated_table_list_label_" + strconv.Itoa(rec.num),
					Label: d.Label,
					Hint:  d.Hint,
					Row:   rec.num,
				}})
				d.Label, d.Hint = nil, nil
			}
		}
	}
	parent.def.Children = append(parent.def.Children, d)
	r.stack = append(r.stack, f)
	return nil
}

func (r *rowsStage) selectRow(rec *record, p params, command, list string, orOther bool) error {
	typ, fromFile := aliases.SelectFromFile[command]
	if !fromFile {
		typ = aliases.Select[command]
	}
	ext := path.Ext(list)
	if fromFile && (!contains(fileExtensions, ext) || strings.Count(path.Base(list), ".") != 1) {
		return validate.StructuralError(rec.num, "File name for '%s %s' should end with one of the "+
			"supported file extensions: %s", command, list, quoted(fileExtensions))
	}
	external := contains(fileExtensions, ext)
	previous := referenceRe.MatchString(list)
	options, known := r.choices.lists[list]
	if !known && !external && !previous {
		if len(r.choices.lists) == 0 {
			msg := "There should be a choices sheet in this xlsform."
			if similar := validate.SheetMisspellings(aliases.SheetChoices, r.wb.sheetNames(), aliases.SupportedSheets); similar != "" {
				msg += " " + similar
			}
			return validate.StructuralError(0, "%s Please ensure that the choices sheet has the mandatory columns "+
				"'list_name', 'name', and 'label'.", msg)
		}
		return validate.StructuralError(rec.num, "List name not in choices sheet: %s", list)
	}
	if typ == aliases.SelectMultiple && !external {
		for _, o := range options {
			if strings.Contains(o.Name, " ") {
				return &validate.Error{Code: validate.ErrChoices, Sheet: aliases.SheetChoices, Message: fmt.Sprintf(
					"Choice names with spaces cannot be added to multiple choice selects. See [%s] in [%s]", o.Name, list)}
			}
		}
	}

	filter := rec.get("choice_filter")
	if orOther {
		r.orOther = true
		if filter != "" {
			return validate.StructuralError(rec.num, "Choice filter not supported with or_other.")
		}
	}

	allowed := []string{"randomize", "seed"}
	if fromFile {
		allowed = append(allowed, "value", "label")
	}
	if err := p.allow(allowed...); err != nil {
		return atRow(err, rec.num)
	}
	if p.has("randomize") {
		if err := p.boolean("randomize", ""); err != nil {
			return atRow(err, rec.num)
		}
		if seed, ok := p["seed"]; ok && !strings.HasPrefix(seed, "${") && !p.isNumber("seed") {
			return validate.StructuralError(rec.num, "seed value must be a number or a reference to another field.")
		}
	} else if p.has("seed") {
		return validate.StructuralError(rec.num, "Parameters must include randomize=true to use a seed.")
	}
	for _, key := range []string{"value", "label"} {
		if v, ok := p[key]; ok && !expression.IsNCName(v) {
			return &validate.Error{Code: validate.ErrInvalidName, Sheet: aliases.SheetSurvey, Row: rec.num,
				Column: "parameters (" + key + ")",
				Message: fmt.Sprintf("On the 'survey' sheet, the 'parameters (%s)' value is invalid. Names %s",
					key, validate.IdentifierRule())}
		}
	}

	d := r.def(rec, typ)
	d.Itemset = list
	if known {
		d.ListName = list
	}
	if len(p) > 0 {
		d.Parameters = p
	}
	d.OrOther = orOther
	if typ == aliases.SelectMultiple && yes(r.settings, "add_none_option") &&
		!strings.Contains(d.Bind["constraint"], noneConstraint) {
		c := noneConstraint
		if prev := d.Bind["constraint"]; prev != "" {
			c = prev + " and " + noneConstraint
		}
		d.Bind = setKey(d.Bind, "constraint", c)
	}

	top := r.top()
	if top.tableList {
		if top.tableListName == "" {
			top.tableListName = list
			if filter != "" {
				return validate.StructuralError(rec.num, "Choice filter not supported for table-list appearance.")
			}
			r.add(&survey.Def{Fields: survey.Fields{
				Type:     typ,
				Name:     "reserved_name_for_field_list_labels_" + strconv.Itoa(rec.num),
				Control:  map[string]string{"appearance": "label"},
				Itemset:  list,
				ListName: list,
				Row:      rec.num,
			}})
		}
		if top.tableListName != list {
			return validate.StructuralError(rec.num, "Badly formatted table list, list names don't match: %s vs. %s",
				top.tableListName, list)
		}
		d.Control = setKey(d.Control, "appearance", "list-nolabel")
	}
	r.add(d)

	if orOther {
		r.add(&survey.Def{Fields: survey.Fields{
			Type:  "text",
			Name:  d.Name + "_other",
			Label: survey.PlainText("Specify other."),
			Bind:  map[string]string{"relevant": fmt.Sprintf("selected(${%s}, 'other')", d.Name)},
			Row:   rec.num,
		}})
	}
	return nil
}

const noneConstraint = "(.='none' or not(selected(., 'none')))"

func (r *rowsStage) photo(rec *record, d *survey.Def, p params) error {
	if d.Default != "" && !strings.Contains(d.Default, "jr://images/") {
		d.Default = "jr://images/" + d.Default
	}
	if err := p.allow("max-pixels", "app"); err != nil {
		return atRow(err, rec.num)
	}
	if p.has("max-pixels") {
		if !p.isInt("max-pixels") {
			return validate.StructuralError(rec.num, "Parameter max-pixels must have an integer value.")
		}
		d.Bind = setKey(d.Bind, "orx:max-pixels", p["max-pixels"])
	} else {
		r.w.AddRow(rec.num, "Use the max-pixels parameter to speed up submission sending and save storage space. "+
			"Learn more: https://xlsform.org/#image")
	}
	if app, ok := p["app"]; ok {
		if appearance := d.Control["appearance"]; appearance == "" || appearance == "annotate" {
			if msg := androidPackage(app); msg != "" {
				return validate.StructuralError(rec.num, "%s", msg)
			}
			d.Control = setKey(d.Control, "intent", app)
		}
	}
	return nil
}

func geoParams(d *survey.Def, p params, typ string) error {
	allowed := []string{"allow-mock-accuracy"}
	if typ == "geopoint" {
		allowed = append(allowed, "capture-accuracy", "warning-accuracy")
	}
	if err := p.allow(allowed...); err != nil {
		return err
	}
	if v, ok := p["allow-mock-accuracy"]; ok {
		if v != "true" && v != "false" {
			return validate.Errorf(validate.ErrStructure, "Invalid value for allow-mock-accuracy.")
		}
		d.Bind = setKey(d.Bind, "odk:allow-mock-accuracy", v)
	}
	for param, attr := range map[string]string{
		"capture-accuracy": "accuracyThreshold",
		"warning-accuracy": "unacceptableAccuracyThreshold",
	} {
		if !p.has(param) {
			continue
		}
		if !p.isNumber(param) {
			return validate.Errorf(validate.ErrStructure, "Parameter %s must have a numeric value", param)
		}
		d.Control = setKey(d.Control, attr, p[param])
	}
	return nil
}

// finish closes the survey: unmatched controls, entity checks, the meta group
// and the choice lists used by selects.
func (r *rowsStage) finish() (*survey.Def, error) {
	if len(r.stack) != 1 {
		top := r.top()
		return nil, validate.StructuralError(0, "Unmatched begin statement: %s (%s)", top.kind, top.name)
	}
	if target := r.entityRepeat(); target != "" && !r.repeatSeen {
		return nil, entityRepeatError(target, "The entity repeat target was not found in the 'survey' sheet.")
	}
	if r.orOther && r.translated {
		r.w.Add(validate.OrOtherWarning)
	}

	meta := append([]*survey.Def(nil), r.meta...)
	if omit, _ := aliases.YesNo(r.settings["omit_instanceID"]); omit {
		if r.settings["public_key"] != "" {
			return nil, validate.StructuralError(0, "Cannot omit instanceID, it is required for encryption.")
		}
	} else {
		preload := r.settings["instance_id"]
		if preload == "" {
			preload = "uid"
		}
		meta = append(meta, &survey.Def{Fields: survey.Fields{
			Type: "calculate",
			Name: "instanceID",
			Bind: map[string]string{"readonly": "true()", "jr:preload": preload},
		}})
	}
	if name := r.settings["instance_name"]; name != "" {
		meta = append(meta, &survey.Def{Fields: survey.Fields{
			Type: "calculate",
			Name: "instanceName",
			Bind: map[string]string{"calculate": name},
		}})
	}
	if r.entity != nil && r.entityRepeat() == "" {
		meta = append(meta, r.entity)
	}
	if len(meta) > 0 {
		r.root.Children = append(r.root.Children, metaGroup(meta...))
	}

	r.root.Choices = map[string][]survey.Option{}
	var collect func(d *survey.Def)
	collect = func(d *survey.Def) {
		if d.ListName != "" {
			r.root.Choices[d.ListName] = r.choices.lists[d.ListName]
		}
		for _, c := range d.Children {
			collect(c)
		}
	}
	collect(r.root)
	if len(r.root.Choices) == 0 {
		r.root.Choices = nil
	}
	return r.root, nil
}

// checkReferences fails on a malformed ${...} in any column but the exempt ones.
func checkReferences(sheet string, rec *record, exempt ...string) error {
	for _, e := range rec.entries {
		if contains(exempt, e.path[0]) || !expression.HasReference(e.value) {
			continue
		}
		if _, err := expression.References(e.value); err != nil {
			return validate.ReferenceSyntaxError(sheet, e.header, rec.num)
		}
	}
	return nil
}

func checkSheetReferences(sheet string, rows []Row, table map[string][]string, double bool, exempt ...string) error {
	for _, rec := range groupSheet(rows, table, double, nil) {
		if err := checkReferences(sheet, rec, exempt...); err != nil {
			return err
		}
	}
	return nil
}
