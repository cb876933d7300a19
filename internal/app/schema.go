package app

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/specialistvlad/pzscripts/internal/ctxlog"
	"github.com/specialistvlad/pzscripts/internal/schema"
)

// SchemaCombine merges the per-block files of dir into one schema document
// and writes it to the output.
func (a *App) SchemaCombine(ctx context.Context, dir string) error {
	ctx = a.context(ctx, "schema combine")
	ctxlog.FromContext(ctx).Debug("Combining schema directory.", "dir", dir)

	data, err := schema.Combine(os.DirFS(dir))
	if err != nil {
		return fmt.Errorf("failed to combine %s: %w", dir, err)
	}
	// The combined document must itself decode.
	if _, err := schema.Decode(data, dir); err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.outW, string(data))
	return err
}

// SchemaFind prints the block kinds and parameters that fuzzy-match term.
func (a *App) SchemaFind(ctx context.Context, term string) error {
	ctx = a.context(ctx, "schema find")
	snap, err := a.provider.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load schema: %w", err)
	}

	matches := snap.Find(term)
	ctxlog.FromContext(ctx).Debug("Schema search finished.", "term", term, "matches", len(matches))
	if len(matches) == 0 {
		_, err := fmt.Fprintf(a.outW, "No match for %q.\n", term)
		return err
	}

	tw := tabwriter.NewWriter(a.outW, 0, 4, 2, ' ', 0)
	for _, m := range matches {
		if m.Parameter == "" {
			fmt.Fprintf(tw, "%s\tblock\t\n", m.Kind)
			continue
		}
		def, _ := snap.Parameter(m.Kind, m.Parameter)
		fmt.Fprintf(tw, "%s.%s\t%s\t%s\n", m.Kind, m.Parameter, def.TypeName, firstLine(def.Description))
	}
	return tw.Flush()
}

// SchemaShow prints where the schema came from and, for kind, the block
// definition; without kind it lists every block kind.
func (a *App) SchemaShow(ctx context.Context, kind string) error {
	ctx = a.context(ctx, "schema show")
	snap, err := a.provider.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load schema: %w", err)
	}

	fmt.Fprintf(a.outW, "Source:  %s\nVersion: %s\n", snap.Source(), snap.Version())
	if kind == "" {
		fmt.Fprintf(a.outW, "Blocks:  %d\n\n", snap.Len())
		tw := tabwriter.NewWriter(a.outW, 0, 4, 2, ' ', 0)
		for _, k := range snap.Kinds() {
			def := snap.MustLookup(k)
			fmt.Fprintf(tw, "%s\t%d parameter(s)\t%s\n", k, len(def.Parameters), firstLine(def.Description))
		}
		return tw.Flush()
	}

	def, ok := snap.Lookup(kind)
	if !ok {
		msg := fmt.Sprintf("unknown block kind %q", kind)
		if s := snap.SuggestKind(kind); s != "" {
			msg += fmt.Sprintf(", did you mean %q?", s)
		}
		return errors.New(msg)
	}
	return a.writeBlock(snap, def)
}

func (a *App) writeBlock(snap *schema.Snapshot, def *schema.BlockDefinition) error {
	fmt.Fprintf(a.outW, "\n%s\n", def.Name)
	if def.Description != "" {
		fmt.Fprintf(a.outW, "  %s\n", firstLine(def.Description))
	}
	if len(def.ValidParents) > 0 {
		fmt.Fprintf(a.outW, "  parents:  %s\n", strings.Join(def.ValidParents, ", "))
	}
	if children := snap.RequiredChildren(def.Name); len(children) > 0 {
		fmt.Fprintf(a.outW, "  requires: %s\n", strings.Join(children, ", "))
	}
	if def.ID != nil {
		fmt.Fprintf(a.outW, "  id:       yes\n")
	}

	tw := tabwriter.NewWriter(a.outW, 0, 4, 2, ' ', 0)
	for _, key := range slices.Sorted(maps.Keys(def.Parameters)) {
		p := def.Parameters[key]
		var flags []string
		if p.Required {
			flags = append(flags, "required")
		}
		if p.Deprecated {
			flags = append(flags, "deprecated")
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", p.Name, p.TypeName, strings.Join(flags, ","))
	}
	return tw.Flush()
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
