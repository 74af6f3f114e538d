package world

const (
	EventStructurePlaced  = "STRUCTURE_PLACED"
	EventStructureRemoved = "STRUCTURE_REMOVED"
	EventItemProduced     = "ITEM_PRODUCED"
	EventOreHarvested     = "ORE_HARVESTED"
	EventResourceDepleted = "RESOURCE_DEPLETED"
	EventBacklogDropped   = "BACKLOG_DROPPED"
)

// Event is something the host may want to react to, such as refreshing the
// player inventory view after ORE_HARVESTED.
type Event struct {
	Tick        uint64 `json:"tick"`
	Type        string `json:"type"`
	StructureID uint64 `json:"structure_id,omitempty"`
	Pos         Vec2i  `json:"pos"`
	Item        string `json:"item,omitempty"`
	Count       int    `json:"count,omitempty"`
}

func (w *World) emit(e Event) {
	e.Tick = w.tick
	w.events = append(w.events, e)
}

// DrainEvents returns and clears events raised since the last Simulate or DrainEvents.
func (w *World) DrainEvents() []Event {
	out := w.events
	w.events = nil
	return out
}
