// extract-listings converts a folder of saved flight search-result HTML pages
// into one envelope JSON file consumable by the loader.
package main

import (
	"flag"
	"fmt"
	"os"

	"flightetl/internal/extract"
)

func main() {
	var (
		mappingsPath string
		inDir        string
		outPath      string
		listKey      string
	)

	flag.StringVar(&mappingsPath, "mappings", "mappings.json", "JSON mapping file (record_selector + mappings)")
	flag.StringVar(&inDir, "in", ".", "directory of saved HTML pages")
	flag.StringVar(&outPath, "out", "", "output JSON file (default stdout)")
	flag.StringVar(&listKey, "list-key", "", "envelope key for the record array (default from mappings file)")
	flag.Parse()

	mf, err := extract.LoadMappingFile(mappingsPath)
	if err != nil {
		fatalf("load mappings: %v", err)
	}

	out := os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			fatalf("create output: %v", err)
		}
		defer f.Close()
		out = f
	}

	if err := extract.StreamFromDir(out, inDir, mf, listKey); err != nil {
		fatalf("extract: %v", err)
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
