package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/brojonat/solpipe/service/transfer"
	"github.com/itchyny/gojq"
	"github.com/urfave/cli/v2"
)

// output decides how command results are rendered.
type output struct {
	w    io.Writer
	json bool
	jq   *gojq.Code
}

func newOutput(c *cli.Context) (*output, error) {
	out := &output{w: c.App.Writer, json: c.Bool("json")}
	if filter := c.String("jq"); filter != "" {
		code, err := compileJQ(filter)
		if err != nil {
			return nil, err
		}
		out.jq = code
	}
	return out, nil
}

func compileJQ(filter string) (*gojq.Code, error) {
	query, err := gojq.Parse(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to parse jq filter %q: %w", filter, err)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("failed to compile jq filter %q: %w", filter, err)
	}
	return code, nil
}

// print writes v as JSON when --json or --jq is set, and calls human otherwise.
func (o *output) print(v interface{}, human func(w io.Writer)) error {
	if o.jq != nil {
		return o.applyJQ(v)
	}
	if o.json {
		enc := json.NewEncoder(o.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	human(o.w)
	return nil
}

// applyJQ runs the compiled filter over v. gojq only understands plain
// JSON values, so v takes a round trip through encoding/json first.
func (o *output) applyJQ(v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("failed to unmarshal output: %w", err)
	}

	iter := o.jq.Run(doc)
	for {
		value, ok := iter.Next()
		if !ok {
			return nil
		}
		if err, isErr := value.(error); isErr {
			return fmt.Errorf("jq filter failed: %w", err)
		}
		if s, isString := value.(string); isString {
			fmt.Fprintln(o.w, s)
			continue
		}
		line, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to marshal jq result: %w", err)
		}
		fmt.Fprintln(o.w, string(line))
	}
}

// printResult renders one operation outcome. A failed outcome is returned as
// an error after it is printed so the process exits non-zero.
func (o *output) printResult(res transfer.Result) error {
	err := o.print(res, func(w io.Writer) {
		if res.Confirmed() {
			fmt.Fprintf(w, "✓ %s\n", res.Message)
			if link := res.ShortExplorerURL(); link != "" {
				fmt.Fprintf(w, "   %s\n", link)
			}
			return
		}
		fmt.Fprintf(w, "✗ %s\n", res.Message)
		if res.Reason != "" {
			fmt.Fprintf(w, "   %s\n", res.Reason)
		}
	})
	if err != nil {
		return err
	}
	if !res.Confirmed() {
		return fmt.Errorf("%s failed (%s)", res.Operation, res.Category)
	}
	return nil
}
