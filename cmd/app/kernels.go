package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"image-tree/internal/kernels"
)

// listKernels prints every kernel by category with its knobs and defaults.
func listKernels(w io.Writer) error {
	cats := kernels.Categories()
	groups := make([]string, 0, len(cats))
	for group := range cats {
		groups = append(groups, group)
	}
	sort.Strings(groups)

	for _, group := range groups {
		if _, err := fmt.Fprintf(w, "%s:\n", group); err != nil {
			return err
		}
		for _, name := range cats[group] {
			k, err := kernels.Get(name)
			if err != nil {
				return err
			}
			knobs := make([]string, 0, len(k.Params()))
			for _, p := range k.Params() {
				knobs = append(knobs, fmt.Sprintf("%s=%d [%d..%d]", p.Name, p.Initial, p.Min, p.Max))
			}
			if _, err := fmt.Fprintf(w, "  %-14s %s\n  %14s %s\n", name, k.Description(), "", strings.Join(knobs, " ")); err != nil {
				return err
			}
		}
	}
	return nil
}
