package main

import (
	"encoding/json"
	"fmt"
	"io"
)

// emit prints v as indented JSON when --json is set and calls text
// otherwise.
func (c *cli) emit(w io.Writer, v any, text func(io.Writer)) error {
	if c.jsonOut {
		return printJSON(w, v)
	}
	text(w)
	return nil
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
