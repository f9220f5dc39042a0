// Package param resolves secrets such as the default API key.
package param

import "context"

type Fetcher interface {
	Fetch(context.Context, string) (string, error)
}

// StaticFetcher returns Value for any name. It stands in for the parameter
// store when the key comes from the environment.
type StaticFetcher struct {
	Value string
}

func (f StaticFetcher) Fetch(context.Context, string) (string, error) {
	return f.Value, nil
}
