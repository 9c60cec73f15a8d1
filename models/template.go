package models

import "fmt"

// Tournament kinds supported by the remote host.
const (
	KindArena = "arena"
	KindSwiss = "swiss"
)

// DefaultTournamentSet is the namespace tag for a user's templates and
// tournaments. Only "default" is used for now.
const DefaultTournamentSet = "default"

// TemplateDoc is the raw persisted representation of a tournament template.
// Templates are schemaless on purpose: the allow-list of the template's kind
// decides which keys survive a write, everything else is dropped silently.
type TemplateDoc map[string]any

// Recurrence is the structured weekly schedule of a template. Weekday counts
// days after Monday (0 = Monday, 6 = Sunday) so that adding it to a week's
// Monday yields the occurrence day. WallTime is local "HH:MM" in Timezone.
type Recurrence struct {
	Weekday  int    `json:"weekday"`
	WallTime string `json:"wall_time"`
	Timezone string `json:"timezone"`
}

func (d TemplateDoc) ID() string       { return d.String("id") }
func (d TemplateDoc) Kind() string     { return d.String("type") }
func (d TemplateDoc) Name() string     { return d.String("name") }
func (d TemplateDoc) User() string     { return d.String("user") }
func (d TemplateDoc) Password() string { return d.String("password") }

// String returns the value under key if it is a string, else "".
func (d TemplateDoc) String(key string) string {
	s, _ := d[key].(string)
	return s
}

// Int returns the value under key as an int. JSON decoding produces float64
// for every number, so both representations are accepted.
func (d TemplateDoc) Int(key string) (int, bool) {
	switch v := d[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}

// Recurrence extracts the structured recurrence object, if present. The value
// arrives either as a decoded JSON object or as an already-typed struct.
func (d TemplateDoc) Recurrence() (Recurrence, bool) {
	switch v := d["recurrence"].(type) {
	case Recurrence:
		return v, true
	case *Recurrence:
		return *v, true
	case map[string]any:
		doc := TemplateDoc(v)
		wd, ok := doc.Int("weekday")
		if !ok {
			return Recurrence{}, false
		}
		return Recurrence{
			Weekday:  wd,
			WallTime: doc.String("wall_time"),
			Timezone: doc.String("timezone"),
		}, true
	}
	return Recurrence{}, false
}

// Clone returns a shallow copy of the document.
func (d TemplateDoc) Clone() TemplateDoc {
	out := make(TemplateDoc, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

func (r Recurrence) String() string {
	return fmt.Sprintf("weekday=%d %s %s", r.Weekday, r.WallTime, r.Timezone)
}
