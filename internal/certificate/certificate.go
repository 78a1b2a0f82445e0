// Package certificate defines the port to the decorative certificate
// renderer. Rendering is cosmetic; failures never fail a mint.
package certificate

import "context"

// Details describe one rendered attendance certificate.
type Details struct {
	AttendeeName string
	EventName    string
	EventDate    string
	Location     string
	TxID         string
}

// Renderer produces a certificate image and returns a URL to it.
type Renderer interface {
	Render(ctx context.Context, d Details) (string, error)
}

// Noop is the Renderer used when no renderer is configured.
type Noop struct{}

// Render implements Renderer.
func (Noop) Render(context.Context, Details) (string, error) {
	return "", nil
}
