// Package output renders Redis replies for redis-cli.
//
// Formatters:
//
//   - text: redis-cli style, e.g. (integer) 1 or numbered lists
//   - table: KEY/VALUE and index tables via text/tabwriter
//   - json: indented JSON
//   - yaml: YAML documents
//
// Reply values are first converted with Normalize so that scan pages and
// cluster redirects encode the same way in every format.
package output
