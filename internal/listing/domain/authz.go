package domain

// CanMutate reports whether identity may update or delete listing.
// Only the owner may; an empty identity or a nil listing never can.
func CanMutate(identity string, listing *Listing) bool {
	if identity == "" || listing == nil {
		return false
	}
	return listing.Owner == identity
}
