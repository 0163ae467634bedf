package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/bytedance/sonic"
)

// field is one line of text output.
type field struct {
	key   string
	value interface{}
}

// render writes v as indented JSON, or fields as an aligned table.
func render(w io.Writer, v interface{}, fields []field) error {
	if cfg.Output == "json" {
		b, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, f := range fields {
		fmt.Fprintf(tw, "%s\t%v\n", f.key, f.value)
	}
	return tw.Flush()
}

func emit(v interface{}, fields ...field) error {
	return render(os.Stdout, v, fields)
}
