package field

import (
	"context"

	"github.com/jpclipffel/m42pl-core/pkg/event"
)

// None represents an absent optional argument: a command parameter that
// was never supplied. Read always reports absent, so the wrapping
// Descriptor substitutes its Default; Write and Delete are no-ops rather
// than errors, since assigning through an unset argument is simply ignored.
type None struct{}

func (None) Read(context.Context, *event.Event, Env) (any, error) { return absent{}, nil }
func (None) Write(*event.Event, any) error                        { return nil }
func (None) Delete(*event.Event) error                            { return nil }
