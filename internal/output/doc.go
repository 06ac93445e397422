// Package output renders tir results for people and for other tools.
//
// Every command result implements Renderable and is written by Render in one
// of six formats:
//
//   - list:  one path per line, the form test runners accept as arguments
//   - tsv:   a header row followed by one tab-separated row per item
//   - json:  indented JSON in struct field order
//   - yaml:  YAML via gopkg.in/yaml.v3
//   - toml:  TOML via go-toml/v2
//   - human: a titled summary for terminals
//
// # Determinism
//
// Identical inputs produce byte-identical output in every format. Results are
// already ordered by the analysis; this package never reorders them. JSON is
// written with HTML escaping disabled, and slices that are empty are encoded as
// [] rather than null so that consumers can rely on the shape.
//
// # Usage Example
//
//	report := output.NewImpactReport(result, diags, limits.Notes)
//	if err := output.Render(os.Stdout, output.FormatJSON, report); err != nil {
//	    return err
//	}
package output
