package domain

import "context"

// Repositories groups the repositories bound to one unit of work
type Repositories struct {
	Rooms       RoomRepository
	Memberships MembershipRepository
	Messages    MessageRepository
}

// TxRunner runs fn inside a single transaction. The transaction is
// committed when fn returns nil and rolled back otherwise.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(repos Repositories) error) error
}
