package levels

import "fmt"

// MemoryStats is a byte breakdown of resident payloads.
type MemoryStats struct {
	Total    int
	Images   int
	GridData int
	Entities int
}

// Add sums two breakdowns.
func (m MemoryStats) Add(o MemoryStats) MemoryStats {
	return MemoryStats{
		Total:    m.Total + o.Total,
		Images:   m.Images + o.Images,
		GridData: m.GridData + o.GridData,
		Entities: m.Entities + o.Entities,
	}
}

func (m MemoryStats) String() string {
	return fmt.Sprintf("total=%d images=%d grids=%d entities=%d", m.Total, m.Images, m.GridData, m.Entities)
}

func (m *MemoryStats) addImages(n int) {
	m.Images += n
	m.Total += n
}

func (m *MemoryStats) addGrids(n int) {
	m.GridData += n
	m.Total += n
}

func (m *MemoryStats) addEntities(n int) {
	m.Entities += n
	m.Total += n
}
