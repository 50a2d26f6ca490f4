package review

import (
	"encoding/json"
	"fmt"
)

// FetchError reports a message that could not be retrieved. The message is
// left out of the batch and no label is applied to it.
type FetchError struct {
	ID  string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch message %s: %v", e.ID, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// MarshalJSON renders the failure as {"id": ..., "error": ...}.
func (e *FetchError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID    string `json:"id"`
		Error string `json:"error"`
	}{e.ID, e.Err.Error()})
}

// ApplyError reports a decision that could not be applied.
type ApplyError struct {
	ID     string
	Action string
	Err    error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("apply %q to message %s: %v", e.Action, e.ID, e.Err)
}

func (e *ApplyError) Unwrap() error {
	return e.Err
}
