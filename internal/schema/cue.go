package schema

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cuejson "cuelang.org/go/encoding/json"
)

//go:embed page.cue
var pageCUE string

var (
	cueOnce   sync.Once
	cueSchema cue.Value
	cueErr    error
)

func loadCUESchema() (cue.Value, error) {
	cueOnce.Do(func() {
		ctx := cuecontext.New()
		root := ctx.CompileString(pageCUE, cue.Filename("page.cue"))
		if err := root.Err(); err != nil {
			cueErr = fmt.Errorf("compiling page.cue: %w", err)
			return
		}
		cueSchema = root.LookupPath(cue.ParsePath("#PageDocument"))
		if err := cueSchema.Err(); err != nil {
			cueErr = fmt.Errorf("resolving #PageDocument: %w", err)
		}
	})
	return cueSchema, cueErr
}

// ValidateDocumentCUE unifies the document with the embedded CUE schema and
// returns the first structural violation, if any. The schema is compiled
// once per process.
func ValidateDocumentCUE(doc *PageDocument) error {
	sch, err := loadCUESchema()
	if err != nil {
		return err
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}
	expr, err := cuejson.Extract(doc.PageKey+".json", data)
	if err != nil {
		return fmt.Errorf("extracting document JSON: %w", err)
	}

	val := sch.Context().BuildExpr(expr)
	if err := val.Err(); err != nil {
		return fmt.Errorf("building document value: %w", err)
	}

	unified := sch.Unify(val)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("document does not satisfy page schema: %w", err)
	}
	return nil
}
