package model

import "strings"

// TaxonomyPath is a three-level category assignment (level1, level2, level3).
type TaxonomyPath [3]string

// FallbackPath is returned when no rule matches a malformed table.
var FallbackPath = TaxonomyPath{"其他", "其他", "其他"}

// Level1 returns the top category.
func (p TaxonomyPath) Level1() string { return p[0] }

// Level2 returns the middle category.
func (p TaxonomyPath) Level2() string { return p[1] }

// Level3 returns the leaf category.
func (p TaxonomyPath) Level3() string { return p[2] }

// String joins the levels with "/".
func (p TaxonomyPath) String() string {
	return strings.Join(p[:], "/")
}

// ClassifiedRecord pairs a record with its taxonomy path.
type ClassifiedRecord struct {
	Record
	Taxonomy TaxonomyPath `json:"taxonomy"`
}
