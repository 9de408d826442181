package parser

import (
	"errors"
	"fmt"
)

var errTruncatedBlock = errors.New("block truncated by end of input")

func errNotNumeric(line string) error {
	return fmt.Errorf("line %q is not numeric", line)
}
