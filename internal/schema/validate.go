package schema

import "fmt"

// ValidationResult reports per-field builder errors for one component.
// Save is all-or-nothing: on any violation nothing is committed and the
// error set is returned for inline display.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors map[string]string `json:"errors,omitempty"`
}

func newResult() ValidationResult {
	return ValidationResult{Valid: true, Errors: map[string]string{}}
}

func (r *ValidationResult) add(field, message string) {
	r.Valid = false
	r.Errors[field] = message
}

// First returns one error message for contexts that report a single line.
// Map order is not stable; callers wanting all errors read Errors directly.
func (r ValidationResult) First() string {
	for _, msg := range r.Errors {
		return msg
	}
	return ""
}

// ValidateComponent checks the type-specific required-field set a component
// must satisfy before the builder commits it into its section.
func ValidateComponent(c Component) ValidationResult {
	res := newResult()

	if !c.Type.Valid() {
		res.add("type", fmt.Sprintf("unknown component type %q", c.Type))
		return res
	}

	switch c.Type {
	case TypeField:
		if c.Name == "" {
			res.add("name", "Field Name is required for data mapping")
		}
		if c.Label == "" {
			res.add("label", "Display Label is required")
		}

	case TypeSelect:
		if c.Name == "" {
			res.add("name", "Field Name is required for data mapping")
		}
		if c.Label == "" {
			res.add("label", "Display Label is required")
		}
		if c.DataSource == SourceAPI && c.DataURL == "" {
			res.add("dataUrl", "Data API URL is required")
		}

	case TypeButton:
		if c.Label == "" {
			res.add("label", "Button text is required")
		}
		// Reset buttons need no API wiring.
		if c.OnClick != ClickReset {
			if c.API == nil || c.API.URL == "" {
				res.add("apiUrl", "API Endpoint URL is required")
			}
			if c.APICommon == nil || c.APICommon.SubChannelID == "" {
				res.add("subChannelId", "Sub Channel ID is required")
			}
			if c.APICommon == nil || c.APICommon.SubServiceID == "" {
				res.add("subServiceId", "Sub Service ID is required")
			}
			if c.APICommon == nil || c.APICommon.TraceNo == "" {
				res.add("traceNo", "Trace No is required")
			}
		}

	case TypeTable:
		if c.Label == "" {
			res.add("label", "Table Label is required")
		}
		if c.DataURL == "" {
			res.add("dataUrl", "Data API URL is required")
		}
		if len(c.Columns) == 0 {
			res.add("columns", "At least one column is required")
		}
		if c.TableAPICommon == nil || c.TableAPICommon.SubChannelID == "" {
			res.add("subChannelId", "Sub Channel ID is required")
		}
		if c.TableAPICommon == nil || c.TableAPICommon.SubServiceID == "" {
			res.add("subServiceId", "Sub Service ID is required")
		}
		if c.TableAPICommon == nil || c.TableAPICommon.TraceNo == "" {
			res.add("traceNo", "Trace No is required")
		}
	}

	return res
}

// DocumentIssue is one document-level validation finding.
type DocumentIssue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ValidateDocument checks whole-document invariants: non-empty pageKey and
// title, unique tab/section ids, and unique names among components that
// participate in bindings. Dangling cross-component references
// (triggerButtonName, onBlurApi targets, table column names) are NOT errors
// here: they can legitimately be added out of order and are reported as
// configuration warnings at interaction time instead.
func ValidateDocument(doc *PageDocument) []DocumentIssue {
	var issues []DocumentIssue
	if doc.PageKey == "" {
		issues = append(issues, DocumentIssue{Path: "pageKey", Message: "pageKey is required"})
	}
	if doc.Title == "" {
		issues = append(issues, DocumentIssue{Path: "title", Message: "title is required"})
	}

	tabIDs := map[int64]bool{}
	sectionIDs := map[int64]bool{}
	names := map[string]string{}

	for ti := range doc.Tabs {
		tab := &doc.Tabs[ti]
		path := fmt.Sprintf("tabs[%d]", ti)
		if tabIDs[tab.ID] {
			issues = append(issues, DocumentIssue{Path: path, Message: fmt.Sprintf("duplicate tab id %d", tab.ID)})
		}
		tabIDs[tab.ID] = true

		for si := range tab.Sections {
			sec := &tab.Sections[si]
			spath := fmt.Sprintf("%s.sections[%d]", path, si)
			if sectionIDs[sec.ID] {
				issues = append(issues, DocumentIssue{Path: spath, Message: fmt.Sprintf("duplicate section id %d", sec.ID)})
			}
			sectionIDs[sec.ID] = true
			if sec.Layout.Columns < 1 {
				issues = append(issues, DocumentIssue{Path: spath + ".layout.columns", Message: "columns must be at least 1"})
			}

			for ci, c := range sec.Components {
				cpath := fmt.Sprintf("%s.components[%d]", spath, ci)
				if !c.Type.Valid() {
					issues = append(issues, DocumentIssue{Path: cpath, Message: fmt.Sprintf("unknown component type %q", c.Type)})
					continue
				}
				if c.Type.Interactive() && c.Name != "" {
					if prev, dup := names[c.Name]; dup {
						issues = append(issues, DocumentIssue{
							Path:    cpath,
							Message: fmt.Sprintf("component name %q already used at %s", c.Name, prev),
						})
					} else {
						names[c.Name] = cpath
					}
				}
			}
		}
	}
	return issues
}
