package repositories

// Collection is one page of a larger result set
type Collection[T any] struct {
	Data       []T
	Count      uint64
	Offset     uint64
	Limit      uint64
	TotalCount uint64
}

const (
	DefaultLimit uint64 = 100
	MaxLimit     uint64 = 1000
)

// Page normalises a requested offset and limit
func Page(offset, limit uint64) (uint64, uint64) {
	if limit == 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return offset, limit
}
