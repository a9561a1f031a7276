// Package dispatch executes the interactions a rendered page can emit:
// button clicks, field blur lookups, and table row selection. It is the
// only writer of binding state besides direct user edits, which keeps the
// mutation paths auditable from one place.
package dispatch

import (
	"fmt"
	"log"
	"net/http"
	"regexp"
	"sort"
	"strings"

	"github.com/matthewbaird/pageforge/internal/apiclient"
	"github.com/matthewbaird/pageforge/internal/event"
	"github.com/matthewbaird/pageforge/internal/eventbus"
	"github.com/matthewbaird/pageforge/internal/idgen"
	"github.com/matthewbaird/pageforge/internal/notify"
	"github.com/matthewbaird/pageforge/internal/permission"
	"github.com/matthewbaird/pageforge/internal/render"
	"github.com/matthewbaird/pageforge/internal/schema"
)

// Dispatcher routes page interactions to their effects.
type Dispatcher struct {
	client   apiclient.Caller
	notifier notify.Notifier
	bus      *eventbus.Bus
	ids      *idgen.Generator
}

// New creates a dispatcher. The bus may be nil when no consumer cares
// about interaction events.
func New(client apiclient.Caller, notifier notify.Notifier, bus *eventbus.Bus, ids *idgen.Generator) *Dispatcher {
	return &Dispatcher{client: client, notifier: notifier, bus: bus, ids: ids}
}

func (d *Dispatcher) publish(s *render.Session, evt event.PageEvent) {
	if d.bus != nil {
		d.bus.Publish(s.Context(), evt)
	}
}

// ButtonAction executes the named button's click behavior. Unknown buttons
// are an error; everything user-visible goes through the notifier instead.
func (d *Dispatcher) ButtonAction(s *render.Session, buttonName string) error {
	c := s.Doc.FindComponent(buttonName)
	if c == nil || c.Type != schema.TypeButton {
		return fmt.Errorf("button %q not found", buttonName)
	}
	sec := sectionOf(s.Doc, buttonName)

	switch c.OnClick {
	case schema.ClickReset:
		d.resetSection(s, c, sec)
		return nil
	case schema.ClickCustom:
		// reserved extension point, external collaborators attach behavior
		log.Printf("dispatch: button %q is custom, no built-in behavior", c.Name)
		return nil
	default:
		// submit, also the legacy default when onClick is unset
		return d.submit(s, c, sec)
	}
}

// resetSection clears every field and select binding in the button's
// section. A button placed outside any section clears nothing.
func (d *Dispatcher) resetSection(s *render.Session, c *schema.Component, sec *schema.Section) {
	if sec == nil {
		return
	}
	names := sec.SectionFieldNames()
	s.Store().Clear(names...)
	s.Touch()
	d.notifier.Notify(notify.LevelInfo, "Form cleared")
	d.publish(s, event.NewFieldsCleared(s.Doc.PageKey, c.Name, names))
}

// submit performs the button's outbound call. Every required field in the
// section is checked first and the whole submission is refused on any
// failure, reported as one aggregate error.
func (d *Dispatcher) submit(s *render.Session, c *schema.Component, sec *schema.Section) error {
	if c.API == nil || c.API.URL == "" {
		d.notifier.Notify(notify.LevelWarning, fmt.Sprintf("Button %s has no API configured", displayName(c)))
		return nil
	}

	if sec != nil {
		if errs := d.validateSection(s, sec); len(errs) > 0 {
			msg := "Validation failed: " + strings.Join(errs, "; ")
			d.notifier.Notify(notify.LevelError, msg)
			d.publish(s, event.NewActionFailed(s.Doc.PageKey, c.Name, msg))
			return nil
		}
	}

	env := apiclient.Envelope{Attributes: sectionAttributes(s, sec)}
	if c.APICommon != nil {
		env.SubChannelID = c.APICommon.SubChannelID
		env.SubServiceID = c.APICommon.SubServiceID
		env.TraceNo = c.APICommon.TraceNo
	}
	if env.TraceNo == "" && d.ids != nil {
		env.TraceNo = d.ids.TraceNo()
	}

	method := strings.ToUpper(c.API.Method)
	if method == "" {
		method = http.MethodPost
	}

	_, err := d.client.Call(s.Context(), method, c.API.URL, env)
	if err != nil {
		log.Printf("dispatch: button %q call failed: %v", c.Name, err)
		msg := c.API.ErrorMessage
		if msg == "" {
			msg = "Operation failed"
		}
		d.notifier.Notify(notify.LevelError, msg)
		d.publish(s, event.NewActionFailed(s.Doc.PageKey, c.Name, err.Error()))
		return nil
	}

	msg := c.API.SuccessMessage
	if msg == "" {
		msg = "Operation completed"
	}
	d.notifier.Notify(notify.LevelSuccess, msg)
	d.publish(s, event.NewActionSubmitted(s.Doc.PageKey, c.Name, len(env.Attributes)))

	if c.API.ResetFormOnSuccess && sec != nil {
		s.Store().Clear(sec.SectionFieldNames()...)
	}

	// Signal every table, document-wide, that names this button as its
	// trigger. The actual refetch is the host loop's job.
	for _, table := range s.Doc.TablesTriggeredBy(c.Name) {
		token := s.BumpRefresh(table.Name)
		d.publish(s, event.NewTableRefreshTriggered(s.Doc.PageKey, c.Name, table.Name, token))
	}

	s.Touch()
	return nil
}

// validateSection checks every visible required field and the declared
// validation rules. All failures are collected; nothing is submitted
// partially.
func (d *Dispatcher) validateSection(s *render.Session, sec *schema.Section) []string {
	var errs []string
	for i := range sec.Components {
		c := &sec.Components[i]
		if c.Type != schema.TypeField && c.Type != schema.TypeSelect {
			continue
		}
		if !permission.Evaluate(c.PermissionString).Visible {
			continue
		}
		v, ok := s.Value(c.Name)
		empty := !ok || v == nil || v == ""
		if c.Required && empty {
			errs = append(errs, fmt.Sprintf("%s is required", displayName(c)))
			continue
		}
		if empty || c.Validation == nil {
			continue
		}
		if msg := checkRules(c, v); msg != "" {
			errs = append(errs, msg)
		}
	}
	return errs
}

// checkRules applies a field's declared pattern and length bounds to its
// current value. Non-string values are only checked against the bounds
// when they stringify.
func checkRules(c *schema.Component, v any) string {
	rules := c.Validation
	str := fmt.Sprintf("%v", v)
	if rules.Min != nil && len(str) < *rules.Min {
		return ruleMessage(c, fmt.Sprintf("%s must be at least %d characters", displayName(c), *rules.Min))
	}
	if rules.Max != nil && len(str) > *rules.Max {
		return ruleMessage(c, fmt.Sprintf("%s must be at most %d characters", displayName(c), *rules.Max))
	}
	if rules.Pattern != "" {
		re, err := regexp.Compile(rules.Pattern)
		if err != nil {
			log.Printf("dispatch: field %q has invalid validation pattern %q: %v", c.Name, rules.Pattern, err)
			return ""
		}
		if !re.MatchString(str) {
			return ruleMessage(c, fmt.Sprintf("%s has an invalid format", displayName(c)))
		}
	}
	return ""
}

func ruleMessage(c *schema.Component, fallback string) string {
	if c.Validation.Message != "" {
		return c.Validation.Message
	}
	return fallback
}

// sectionAttributes snapshots the section's current field bindings for an
// outbound call. Unset bindings are omitted, not sent as nulls.
func sectionAttributes(s *render.Session, sec *schema.Section) map[string]any {
	attrs := map[string]any{}
	if sec == nil {
		return attrs
	}
	for _, name := range sec.SectionFieldNames() {
		if v, ok := s.Value(name); ok {
			attrs[name] = v
		}
	}
	return attrs
}

// FieldBlur records the edited value, then resolves the field's lookup if
// one is configured. The lookup is fenced per field: only the newest blur's
// response may write, and all mapped targets are written in one atomic set.
func (d *Dispatcher) FieldBlur(s *render.Session, fieldName string, value any) error {
	c := s.Doc.FindComponent(fieldName)
	if c == nil || c.Type != schema.TypeField {
		return fmt.Errorf("field %q not found", fieldName)
	}
	s.SetValue(fieldName, value)

	lookup := c.OnBlurAPI
	if lookup == nil || !lookup.Enabled || lookup.URL == "" || len(lookup.FieldMappings) == 0 {
		return nil
	}
	if value == nil || value == "" {
		return nil
	}

	fenceKey := "blur:" + fieldName
	fence := s.NextFence(fenceKey)

	env := apiclient.Envelope{
		SubChannelID: lookup.APICommon.SubChannelID,
		SubServiceID: lookup.APICommon.SubServiceID,
		TraceNo:      lookup.APICommon.TraceNo,
		Attributes:   map[string]any{fieldName: value},
	}
	if env.TraceNo == "" && d.ids != nil {
		env.TraceNo = d.ids.TraceNo()
	}

	method := strings.ToUpper(lookup.Method)
	if method == "" {
		method = http.MethodPost
	}

	resp, err := d.client.Call(s.Context(), method, lookup.URL, env)
	if err != nil {
		log.Printf("dispatch: blur lookup for %q failed: %v", fieldName, err)
		d.notifier.Notify(notify.LevelError, fmt.Sprintf("Lookup failed for %s", displayName(c)))
		return nil
	}
	if !s.FenceCurrent(fenceKey, fence) {
		log.Printf("dispatch: blur lookup for %q superseded, dropping response", fieldName)
		return nil
	}

	updates := map[string]any{}
	for _, m := range lookup.FieldMappings {
		if m.APIResponseField == "" || m.TargetFieldName == "" {
			continue
		}
		v, ok := resp.FindField(m.APIResponseField)
		if !ok {
			continue
		}
		if target := s.Doc.FindComponent(m.TargetFieldName); target == nil ||
			(target.Type != schema.TypeField && target.Type != schema.TypeSelect) {
			continue
		}
		updates[m.TargetFieldName] = v
	}

	total := len(lookup.FieldMappings)
	if len(updates) == 0 {
		d.notifier.Notify(notify.LevelWarning, fmt.Sprintf("Lookup for %s returned no matching fields", displayName(c)))
		d.publish(s, event.NewLookupResolved(s.Doc.PageKey, fieldName, 0, total))
		return nil
	}

	s.Store().SetAll(updates)
	s.Touch()
	d.notifier.Notify(notify.LevelInfo, fmt.Sprintf("Populated %d of %d fields", len(updates), total))
	d.publish(s, event.NewLookupResolved(s.Doc.PageKey, fieldName, len(updates), total))
	return nil
}

// RowAction populates form fields from a selected table row. Each column
// carrying a name links record[dataIndex] to the field of that name; the
// whole mapping applies atomically.
func (d *Dispatcher) RowAction(s *render.Session, tableName string, record map[string]any) error {
	c := s.Doc.FindComponent(tableName)
	if c == nil || c.Type != schema.TypeTable {
		return fmt.Errorf("table %q not found", tableName)
	}

	updates := map[string]any{}
	linked := false
	for _, col := range c.Columns {
		if col.Name == "" {
			continue
		}
		linked = true
		v, ok := record[col.DataIndex]
		if !ok {
			continue
		}
		updates[col.Name] = v
	}

	if !linked {
		d.notifier.Notify(notify.LevelWarning, fmt.Sprintf("No columns of %s are linked to form fields", displayName(c)))
		return nil
	}
	if len(updates) == 0 {
		return nil
	}

	s.Store().SetAll(updates)
	s.Touch()

	fields := make([]string, 0, len(updates))
	for name := range updates {
		fields = append(fields, name)
	}
	sort.Strings(fields)
	d.publish(s, event.NewRowSelected(s.Doc.PageKey, tableName, fields))
	return nil
}

func displayName(c *schema.Component) string {
	if c.Label != "" {
		return c.Label
	}
	return c.Name
}

// sectionOf finds the section containing the named component.
func sectionOf(doc *schema.PageDocument, name string) *schema.Section {
	for i := range doc.Tabs {
		for j := range doc.Tabs[i].Sections {
			sec := &doc.Tabs[i].Sections[j]
			for k := range sec.Components {
				if sec.Components[k].Name == name {
					return sec
				}
			}
		}
	}
	return nil
}
