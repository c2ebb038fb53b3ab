// Package publish gets table definitions into a catalog: either by printing
// them in a form the aws CLI accepts or by calling the Glue and Athena APIs.
package publish

import (
	"fmt"
	"io"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"

	pqcatalog "github.com/fraugster/parquet-catalog"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Format is an output format for table definitions.
type Format string

// Supported output formats.
const (
	// FormatCommand prints an "aws glue create-table" invocation.
	FormatCommand Format = "command"
	// FormatJSON prints the table input as indented JSON.
	FormatJSON Format = "json"
	// FormatYAML prints the table input as YAML.
	FormatYAML Format = "yaml"
)

// ParseFormat parses an output format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCommand, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("invalid output format %q, expected one of command, json, yaml", s)
	}
}

// Target names the catalog database a table is written to.
type Target struct {
	Database string
	Region   string
}

// Write prints table to w in the given format.
func Write(w io.Writer, format Format, target Target, table *pqcatalog.TableDefinition) error {
	switch format {
	case FormatCommand:
		cmd, err := CreateTableCommand(target, table)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, cmd)
		return err
	case FormatJSON:
		data, err := json.MarshalIndent(table, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding table input failed: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(table); err != nil {
			return fmt.Errorf("encoding table input failed: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("invalid output format %q", format)
	}
}
