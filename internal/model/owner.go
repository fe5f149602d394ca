package model

import "fmt"

type OwnerKind string

const (
	OwnerKindUser  OwnerKind = "user"
	OwnerKindGuest OwnerKind = "guest"
)

// SessionOwner identifies who a session row belongs to. Exactly one of the
// two kinds applies at any time; the two nullable DB columns are folded into
// this variant at the repository boundary so callers never see both set.
type SessionOwner struct {
	Kind OwnerKind
	ID   string
}

func UserOwner(id string) SessionOwner {
	return SessionOwner{Kind: OwnerKindUser, ID: id}
}

func GuestOwner(id string) SessionOwner {
	return SessionOwner{Kind: OwnerKindGuest, ID: id}
}

func (o SessionOwner) IsUser() bool {
	return o.Kind == OwnerKindUser
}

func (o SessionOwner) IsGuest() bool {
	return o.Kind == OwnerKindGuest
}

func (o SessionOwner) IsZero() bool {
	return o.Kind == "" || o.ID == ""
}

// Columns splits the owner back into the nullable column pair.
func (o SessionOwner) Columns() (userID, guestID *string) {
	switch o.Kind {
	case OwnerKindUser:
		return &o.ID, nil
	case OwnerKindGuest:
		return nil, &o.ID
	}
	return nil, nil
}

func (o SessionOwner) String() string {
	return fmt.Sprintf("%s:%s", o.Kind, o.ID)
}
