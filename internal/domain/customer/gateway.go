package customer

import "context"

// Gateway is the remote CRM. Call timeouts are the implementation's responsibility.
type Gateway interface {
	// Lookup returns the cards registered for the phone; an empty slice means not found.
	Lookup(ctx context.Context, phone Phone) ([]Record, error)
	// Register submits a new customer. Failures are returned as *CrmError.
	Register(ctx context.Context, draft Draft) (*RegistrationAck, error)
}
