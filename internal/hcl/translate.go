// This file contains the logic for translating decoded HCL blocks into the
// format-agnostic configuration model.

package hcl

import (
	"fmt"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/pzscripts/internal/config"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

func translate(root *fileRoot, m *config.Model) hcl.Diagnostics {
	var diags hcl.Diagnostics

	set(&m.MinVersion, root.MinVersion)
	set(&m.LogLevel, root.LogLevel)
	set(&m.LogFormat, root.LogFormat)

	if s := root.Schema; s != nil {
		set(&m.Schema.Path, s.Path)
		set(&m.Schema.URL, s.URL)
		set(&m.Schema.CacheDir, s.CacheDir)
		ttl, ok, d := durationValue(s.TTL)
		diags = append(diags, d...)
		if ok {
			m.Schema.TTL = ttl
		}
	}

	if l := root.Lint; l != nil {
		set(&m.Lint.Extensions, l.Extensions)
		set(&m.Lint.Hints, l.Hints)
		set(&m.Lint.Ignore, l.Ignore)
		set(&m.Lint.Workers, l.Workers)
		set(&m.Lint.Format, l.Format)
	}

	if s := root.Serve; s != nil {
		set(&m.Serve.Address, s.Address)
		set(&m.Serve.Watch, s.Watch)
	}
	return diags
}

// set overwrites dst when the attribute was present in the file.
func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// durationValue evaluates expr as a Go duration string such as "12h". It
// reports ok=false when the attribute was omitted or invalid.
func durationValue(expr hcl.Expression) (time.Duration, bool, hcl.Diagnostics) {
	if expr == nil {
		return 0, false, nil
	}
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return 0, false, diags
	}
	if val.IsNull() {
		return 0, false, nil
	}

	str, err := convert.Convert(val, cty.String)
	if err != nil {
		return 0, false, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid duration",
			Detail:   fmt.Sprintf("A duration string is required, such as \"24h\": %s.", err),
			Subject:  expr.Range().Ptr(),
		}}
	}
	d, err := time.ParseDuration(str.AsString())
	if err != nil {
		return 0, false, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid duration",
			Detail:   fmt.Sprintf("Cannot parse %q as a duration: %s.", str.AsString(), err),
			Subject:  expr.Range().Ptr(),
		}}
	}
	return d, true, nil
}
