package output

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"tir/internal/errors"
)

// Format is an output format name
type Format string

const (
	FormatList  Format = "list"
	FormatTSV   Format = "tsv"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatTOML  Format = "toml"
	FormatHuman Format = "human"
)

// Formats lists every supported format in help order
var Formats = []Format{FormatList, FormatTSV, FormatJSON, FormatYAML, FormatTOML, FormatHuman}

// ParseFormat validates a format name. The empty string selects def.
func ParseFormat(name string, def Format) (Format, error) {
	if name == "" {
		return def, nil
	}
	f := Format(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", errors.Errorf(errors.ConfigInvalid, "unknown output format %q (want one of %s)", name, formatNames())
}

// DefaultFormat is human for terminals and list otherwise
func DefaultFormat(terminal bool) Format {
	if terminal {
		return FormatHuman
	}
	return FormatList
}

func formatNames() string {
	names := make([]string, len(Formats))
	for i, f := range Formats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

// Render writes r to w in format f
func Render(w io.Writer, f Format, r Renderable) error {
	switch f {
	case FormatList:
		return writeLines(w, r.Lines())
	case FormatTSV:
		header, rows := r.Table()
		return writeTSV(w, header, rows)
	case FormatJSON:
		data, err := DeterministicEncodeIndented(r, "  ")
		if err != nil {
			return fmt.Errorf("json encoding failed: %w", err)
		}
		_, err = w.Write(data)
		return err
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("yaml encoding failed: %w", err)
		}
		return enc.Close()
	case FormatTOML:
		enc := toml.NewEncoder(w)
		enc.SetIndentTables(true)
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("toml encoding failed: %w", err)
		}
		return nil
	case FormatHuman:
		return r.Human(w)
	default:
		return errors.Errorf(errors.ConfigInvalid, "unknown output format %q", string(f))
	}
}

func writeLines(w io.Writer, lines []string) error {
	bw := bufio.NewWriter(w)
	for _, line := range lines {
		if _, err := bw.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

var tsvEscaper = strings.NewReplacer(`\`, `\\`, "\t", `\t`, "\n", `\n`, "\r", `\r`)

func writeTSV(w io.Writer, header []string, rows [][]string) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(strings.Join(header, "\t") + "\n"); err != nil {
		return err
	}
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, c := range row {
			cells[i] = tsvEscaper.Replace(c)
		}
		if _, err := bw.WriteString(strings.Join(cells, "\t") + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}
