package api

import (
	"github.com/Veraticus/holdscan/internal/model"
	"github.com/Veraticus/holdscan/internal/pipeline"
)

func newResultWith(records ...model.Record) *pipeline.Result {
	r := pipeline.NewResult(fixedNow)
	r.Add("test", records)
	return r
}
