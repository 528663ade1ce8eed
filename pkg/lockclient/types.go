package lockclient

// Lock mirrors one accepted interval on the wire.
type Lock struct {
	ResourceID string `json:"resource_id"`
	Start      int64  `json:"start"`
	End        int64  `json:"end"`
}

// Pair is two overlapping intervals of one resource.
type Pair struct {
	A Range `json:"a"`
	B Range `json:"b"`
}

// Range is a half-open [Start, End) as returned by the server.
type Range struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// Record is one element of the bulk load format.
type Record struct {
	ResourceID string
	Start      int64
	End        int64
}

// LoadReport summarizes a bulk load: how many records the server
// applied and how many it skipped as malformed.
type LoadReport struct {
	Loaded  int `json:"loaded"`
	Skipped int `json:"skipped"`
}
