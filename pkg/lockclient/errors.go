package lockclient

import "fmt"

// InvalidInputError is the server's rejection of a request value
// (bad interval bounds, blank resource id, negative time).
type InvalidInputError struct {
	Method  string
	Path    string
	Message string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s %s -> %s", e.Method, e.Path, e.Message)
}

type UnexpectedStatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("unexpected status: %s %s -> %d body=%q", e.Method, e.Path, e.Code, e.Body)
}
