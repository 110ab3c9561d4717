package env

import (
	"context"
	"errors"
)

// ErrNoSurface is returned by Null mutators; readers return zero values.
var ErrNoSurface = errors.New("env: no browser surface")

// Null is the environment for non-browser execution contexts. Readers
// report nothing, mutators fail quietly with ErrNoSurface.
type Null struct{}

func (Null) Available() bool { return false }
func (Null) UserAgent(context.Context) string { return "" }
func (Null) CurrentURL(context.Context) string { return "" }
func (Null) Languages(context.Context) []string { return nil }
func (Null) OpenWindow(context.Context, string) error { return ErrNoSurface }
func (Null) Navigate(context.Context, string) error { return ErrNoSurface }
func (Null) ShowDialog(context.Context, UI) error { return ErrNoSurface }
