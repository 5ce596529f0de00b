package scans

// Shard maps a target to a worker-pool slot in [0, poolSize). djb2 over
// the UTF-8 bytes, reduced modulo the pool size: the same target always
// lands on the same slot for a given pool size, and distinct targets
// spread close to uniformly. Total over all strings.
func Shard(target string, poolSize int) int {
	if poolSize <= 0 {
		return 0
	}
	var h uint32 = 5381
	for _, b := range []byte(target) {
		h = h<<5 + h + uint32(b)
	}
	return int(h % uint32(poolSize))
}
