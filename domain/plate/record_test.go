package plate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func rec(id PlateID, spots ...int) Record {
	r := Record{ID: id}
	for _, s := range spots {
		r.Spots[s-1] = true
	}
	return r
}

func TestMergeRecords_ORsDuplicatePlates(t *testing.T) {
	table := MergeRecords([]Record{
		rec("p1", 1, 2),
		rec("p1", 2, 3),
		rec("p2", 13),
	})

	assert.Len(t, table, 2)
	assert.Equal(t, []int{1, 2, 3}, table["p1"].PositiveSpots())
	assert.Equal(t, []int{13}, table["p2"].PositiveSpots())
}

func TestMatchedPlates_InnerJoin(t *testing.T) {
	a := MergeRecords([]Record{rec("p1", 1), rec("p2", 2), rec("p3", 3)})
	b := MergeRecords([]Record{rec("p2", 5), rec("p3", 6), rec("p4", 7)})

	assert.Equal(t, []PlateID{"p2", "p3"}, MatchedPlates(a, b))
}

func TestPositiveCount(t *testing.T) {
	assert.Equal(t, 0, Record{}.PositiveCount())
	assert.Equal(t, 3, rec("p", 1, 13, 25).PositiveCount())
}
