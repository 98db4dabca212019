package balance

// Dedup returns addrs without repeats, keeping the first occurrence order
func Dedup(addrs []string) []string {
	seen := make(map[string]struct{}, len(addrs))
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}

// Partition splits addrs into consecutive batches of at most size entries.
// A size below one falls back to DefaultBatchSize.
func Partition(addrs []string, size int) [][]string {
	if size < 1 {
		size = DefaultBatchSize
	}

	batches := make([][]string, 0, (len(addrs)+size-1)/size)
	for start := 0; start < len(addrs); start += size {
		end := start + size
		if end > len(addrs) {
			end = len(addrs)
		}
		batches = append(batches, addrs[start:end:end])
	}
	return batches
}
