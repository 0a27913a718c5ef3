package generic

// Void is a zero-size placeholder type, e.g. for set membership.
type Void struct{}

func NewVoid() Void {
	return Void{}
}
