package crud

import (
	"fmt"

	"github.com/wesleywu/hello-antd-pro/internal/schema"
)

// ModifyNotAllowedError is returned by Update when the table forbids
// modification. Nothing is sent.
type ModifyNotAllowedError struct {
	Type schema.RecordType
}

func (e *ModifyNotAllowedError) Error() string {
	return fmt.Sprintf("crud: record type %q does not allow modification", e.Type)
}

// DeleteNotAllowedError is returned by Delete and DeleteMulti when the
// table forbids deletion. Nothing is sent.
type DeleteNotAllowedError struct {
	Type schema.RecordType
}

func (e *DeleteNotAllowedError) Error() string {
	return fmt.Sprintf("crud: record type %q does not allow deletion", e.Type)
}
