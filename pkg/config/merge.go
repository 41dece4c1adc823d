package config

import "dario.cat/mergo"

// MergeTemplate merges an override document over the named template's
// defaults. Non-zero fields in override win, matching the
// "reusable template" semantics of the ReleaseConfig entity (spec.md §3):
// a release that doesn't set a field falls back to whatever its template
// declares.
func MergeTemplate(template ReleaseTemplate, override ReleaseTemplate) (ReleaseTemplate, error) {
	merged := template
	if err := mergo.Merge(&merged, override, mergo.WithOverride); err != nil {
		return ReleaseTemplate{}, err
	}
	return merged, nil
}

// ResolveTemplate looks up a named template and merges an override onto it.
func (d *Document) ResolveTemplate(name string, override ReleaseTemplate) (ReleaseTemplate, error) {
	template, ok := d.ReleaseConfig[name]
	if !ok {
		return ReleaseTemplate{}, ErrTemplateNotFound
	}
	return MergeTemplate(template, override)
}
