package store

import "context"

// FaultyStore is a test double whose reads and writes fail with the given
// error, for exercising fail-open routing and storage error surfacing.
type FaultyStore struct {
	Err error
}

func (f FaultyStore) Get(context.Context, string) (string, error) { return "", f.Err }

func (f FaultyStore) Set(context.Context, string, string) error { return f.Err }

func (f FaultyStore) Delete(context.Context, string) error { return f.Err }
