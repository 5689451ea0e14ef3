package main

import (
	"time"

	"github.com/nao1215/fircount/internal/model"
)

var testTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func testRange() model.BucketRange {
	return model.BucketRange{StartYear: 2019, EndYear: 2020}
}
