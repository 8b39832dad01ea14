package store

// ChunkRange invokes fn over [start, end) slices of size at most chunk,
// stopping at the first error.
func ChunkRange(total int, chunk int, fn func(start, end int) error) error {
	if chunk <= 0 {
		chunk = total
	}
	for start := 0; start < total; start += chunk {
		end := start + chunk
		if end > total {
			end = total
		}
		if err := fn(start, end); err != nil {
			return err
		}
	}
	return nil
}
