// pagerender renders a page document to its static node tree without a
// server: read the document JSON, validate it, evaluate it against an
// optional bindings file, and write the tree as JSON.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/matthewbaird/pageforge/internal/render"
	"github.com/matthewbaird/pageforge/internal/schema"
)

func main() {
	var (
		inPath       = flag.String("in", "", "page document JSON file (required)")
		outPath      = flag.String("out", "", "output file (default stdout)")
		bindingsPath = flag.String("bindings", "", "optional JSON file of initial binding values")
		validateOnly = flag.Bool("validate", false, "validate the document and exit")
	)
	flag.Parse()

	if *inPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	data, err := os.ReadFile(*inPath)
	if err != nil {
		log.Fatalf("reading %s: %v", *inPath, err)
	}
	doc, err := schema.ParseDocument(data)
	if err != nil {
		log.Fatalf("parsing %s: %v", *inPath, err)
	}

	if issues := schema.ValidateDocument(&doc); len(issues) > 0 {
		for _, issue := range issues {
			fmt.Fprintf(os.Stderr, "%s: %s\n", issue.Path, issue.Message)
		}
		os.Exit(1)
	}
	if err := schema.ValidateDocumentCUE(&doc); err != nil {
		log.Fatalf("schema validation: %v", err)
	}
	if *validateOnly {
		fmt.Fprintf(os.Stderr, "%s: ok\n", doc.PageKey)
		return
	}

	var bindings map[string]any
	if *bindingsPath != "" {
		raw, err := os.ReadFile(*bindingsPath)
		if err != nil {
			log.Fatalf("reading %s: %v", *bindingsPath, err)
		}
		if err := json.Unmarshal(raw, &bindings); err != nil {
			log.Fatalf("parsing %s: %v", *bindingsPath, err)
		}
	}

	sess := render.NewSession(&doc, bindings)
	defer sess.Close()
	page := render.Render(sess)

	out, err := json.MarshalIndent(page, "", "  ")
	if err != nil {
		log.Fatalf("encoding output: %v", err)
	}
	out = append(out, '\n')

	if *outPath == "" {
		os.Stdout.Write(out)
		return
	}
	if err := os.WriteFile(*outPath, out, 0o644); err != nil {
		log.Fatalf("writing %s: %v", *outPath, err)
	}
}
