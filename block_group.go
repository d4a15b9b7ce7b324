package uniswap_v3_hedge

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
)

type BlockGroup struct {
	BlockNumber uint64
	Events      []NormalizedEvent
}

// BlockGroups holds events bucketed by block, blocks ascending.
type BlockGroups struct {
	Groups []BlockGroup
}

func (g *BlockGroups) Len() int {
	return len(g.Groups)
}

func (g *BlockGroups) Get(block uint64) ([]NormalizedEvent, bool) {
	i := sort.Search(len(g.Groups), func(i int) bool { return g.Groups[i].BlockNumber >= block })
	if i < len(g.Groups) && g.Groups[i].BlockNumber == block {
		return g.Groups[i].Events, true
	}
	return nil, false
}

// GroupByBlock normalizes the swaps and buckets them by block.
func GroupByBlock(events []SwapEvent) (*BlockGroups, error) {
	normalized, err := NormalizeEvents(events)
	if err != nil {
		return nil, fmt.Errorf("group by block: %w", err)
	}
	return GroupNormalized(normalized), nil
}

// GroupNormalized buckets events by block. Events keep their input order inside a block.
func GroupNormalized(events []NormalizedEvent) *BlockGroups {
	index := make(map[uint64]int, len(events))
	groups := &BlockGroups{}
	for _, e := range events {
		i, ok := index[e.BlockNumber]
		if !ok {
			i = len(groups.Groups)
			index[e.BlockNumber] = i
			groups.Groups = append(groups.Groups, BlockGroup{BlockNumber: e.BlockNumber})
		}
		groups.Groups[i].Events = append(groups.Groups[i].Events, e)
	}
	sort.SliceStable(groups.Groups, func(a, b int) bool {
		return groups.Groups[a].BlockNumber < groups.Groups[b].BlockNumber
	})
	return groups
}

// DiscardManyInGroup flattens the groups into one slot per block. A block holding
// more than one swap is a nil slot: the order of swaps inside a block is unknown,
// so none of them can be used for a price delta.
func DiscardManyInGroup(groups *BlockGroups) []*NormalizedEvent {
	if groups == nil {
		return nil
	}
	slots := make([]*NormalizedEvent, len(groups.Groups))
	for i, g := range groups.Groups {
		if len(g.Events) != 1 {
			logrus.Debugf("discard block %d with %d swaps", g.BlockNumber, len(g.Events))
			continue
		}
		e := g.Events[0]
		slots[i] = &e
	}
	return slots
}

// PresentEvents drops the gaps of a slot sequence.
func PresentEvents(slots []*NormalizedEvent) []NormalizedEvent {
	events := make([]NormalizedEvent, 0, len(slots))
	for _, s := range slots {
		if s != nil {
			events = append(events, *s)
		}
	}
	return events
}
