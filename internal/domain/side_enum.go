package domain

type SideEnum int

const (
	Ask SideEnum = iota
	Bid
)

func (e SideEnum) String() string {
	return []string{"Ask", "Bid"}[e]
}
