package core

import (
	"strconv"

	"clonetrack/internal/tabular"
	"clonetrack/pkg/domain"
)

// ConstructTemplateOptions configure the construct input form.
type ConstructTemplateOptions struct {
	// Properties names the property columns. When empty the keys already used
	// by the project are reused, falling back to property_1..property_3.
	Properties []string
}

// ConstructTemplate builds the construct input form with one row per existing
// construct. It is the only template that may be empty.
func ConstructTemplate(p *Project, opts ConstructTemplateOptions) *tabular.Table {
	keys := opts.Properties
	if len(keys) == 0 {
		keys = propertyKeys(p)
	}
	if len(keys) == 0 {
		for i := 1; i <= 3; i++ {
			keys = append(keys, defaultPropertyKeyPrefix+strconv.Itoa(i))
		}
	}
	t := tabular.New(append([]string{ColIdentifier}, keys...)...)
	for _, c := range p.Constructs() {
		row := tabular.Row{ColIdentifier: domain.StringValue(c.ID)}
		for _, k := range keys {
			if v, ok := c.Properties.Get(k); ok {
				row[k] = v
			}
		}
		t.Append(row)
	}
	return t
}

// IngestConstructs appends unseen constructs; every other column of the sheet
// becomes a property. Identifiers already present are counted as duplicates.
func IngestConstructs(p *Project, t *tabular.Table) (IngestSummary, error) {
	var summary IngestSummary
	if err := requireColumns(t, ColIdentifier); err != nil {
		return summary, err
	}
	var propCols []string
	for _, c := range t.Columns() {
		if c != ColIdentifier {
			propCols = append(propCols, c)
		}
	}
	for i, row := range t.Rows() {
		id, err := requiredText(row, i, ColIdentifier)
		if err != nil {
			return summary, err
		}
		var props domain.Properties
		for _, c := range propCols {
			props.Set(c, row.Get(c))
		}
		if _, added := p.AddConstruct(id, props); !added {
			summary.Duplicates++
			continue
		}
		summary.Created++
	}
	return summary, nil
}

// propertyKeys returns the union of property keys in first-seen order.
func propertyKeys(p *Project) []string {
	seen := make(map[string]struct{})
	var keys []string
	for _, c := range p.Constructs() {
		for _, k := range c.Properties.Keys() {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	return keys
}
