package mask

// RemoveSmallClusters clears 8-connected foreground islands smaller than
// minRatio of the total foreground and returns the number of pixels cleared.
// A mask with a single island is left untouched.
func (m *Mask) RemoveSmallClusters(minRatio float64) int {
	w, h := m.Width, m.Height
	total := m.Count()
	if total == 0 || minRatio <= 0 {
		return 0
	}

	labels := make([]int, w*h)
	for i := range labels {
		labels[i] = -1
	}
	var sizes []int

	dx := [8]int{-1, 0, 1, -1, 1, -1, 0, 1}
	dy := [8]int{-1, -1, -1, 0, 0, 1, 1, 1}
	queue := make([]int, 0, 1024)

	for start, on := range m.Bits {
		if !on || labels[start] >= 0 {
			continue
		}
		id := len(sizes)
		queue = append(queue[:0], start)
		labels[start] = id
		size := 0

		for len(queue) > 0 {
			curr := queue[0]
			queue = queue[1:]
			size++

			cx, cy := curr%w, curr/w
			for d := 0; d < 8; d++ {
				nx, ny := cx+dx[d], cy+dy[d]
				if nx < 0 || nx >= w || ny < 0 || ny >= h {
					continue
				}
				ni := ny*w + nx
				if m.Bits[ni] && labels[ni] < 0 {
					labels[ni] = id
					queue = append(queue, ni)
				}
			}
		}
		sizes = append(sizes, size)
	}

	if len(sizes) <= 1 {
		return 0
	}

	minSize := int(float64(total) * minRatio)
	cleared := 0
	for i, l := range labels {
		if l >= 0 && sizes[l] < minSize {
			m.Bits[i] = false
			cleared++
		}
	}
	return cleared
}
