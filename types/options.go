package types

type SortStrategy string

const (
	// SortRecommended orders by declared rank, it is also the zero value.
	SortRecommended  SortStrategy = "recommended"
	SortAlphabetical SortStrategy = "alphabetical"
	// SortOrder orders by the position of each id in Sort.Order.
	SortOrder SortStrategy = "order"
)

type Sort struct {
	Strategy SortStrategy `json:"strategy,omitempty"`
	Order    []string     `json:"order,omitempty"`
}

// DiscoveryOptions narrows and orders the result of a wallet query.
// Include takes precedence over Exclude when both are set.
type DiscoveryOptions struct {
	Sort    Sort     `json:"sort"`
	Include []string `json:"include,omitempty"`
	Exclude []string `json:"exclude,omitempty"`
}

const (
	StarknetV4 = "v4"
	StarknetV5 = "v5"
)

type EnableOptions struct {
	StarknetVersion string `json:"starknetVersion,omitempty"`
}

type DisconnectOptions struct {
	ClearLastWallet bool `json:"clearLastWallet"`
}
