package inventory

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var (
	ErrInsufficientItems = errors.New("insufficient items")
	ErrIncompatibleKind  = errors.New("incompatible item kind")
	ErrCapacityExceeded  = errors.New("capacity exceeded")
)

type Stack struct {
	Item  string `json:"item"`
	Count int    `json:"count"`
}

// Inventory maps item ids to counts. Zero limits mean unbounded.
type Inventory struct {
	Items      map[string]int
	MaxTotal   int
	MaxPerItem int
	// Filter restricts which items may be added. Empty accepts anything.
	Filter []string
}

func New(maxTotal, maxPerItem int, filter ...string) *Inventory {
	return &Inventory{
		Items:      map[string]int{},
		MaxTotal:   maxTotal,
		MaxPerItem: maxPerItem,
		Filter:     filter,
	}
}

func (inv *Inventory) Count(item string) int {
	if inv == nil {
		return 0
	}
	return inv.Items[item]
}

func (inv *Inventory) Total() int {
	if inv == nil {
		return 0
	}
	n := 0
	for _, c := range inv.Items {
		n += c
	}
	return n
}

func (inv *Inventory) Empty() bool { return inv.Total() == 0 }

func (inv *Inventory) Accepts(item string) bool {
	if inv == nil || item == "" {
		return false
	}
	if len(inv.Filter) == 0 {
		return true
	}
	for _, f := range inv.Filter {
		if f == item {
			return true
		}
	}
	return false
}

// Space is how many more of item fit, ignoring the filter.
func (inv *Inventory) Space(item string) int {
	if inv == nil {
		return 0
	}
	space := math.MaxInt
	if inv.MaxTotal > 0 {
		space = inv.MaxTotal - inv.Total()
	}
	if inv.MaxPerItem > 0 {
		if s := inv.MaxPerItem - inv.Items[item]; s < space {
			space = s
		}
	}
	if space < 0 {
		return 0
	}
	return space
}

func (inv *Inventory) CanAdd(item string, n int) bool {
	return inv.Accepts(item) && n >= 0 && inv.Space(item) >= n
}

func (inv *Inventory) Add(item string, n int) error {
	if n <= 0 {
		return nil
	}
	if !inv.Accepts(item) {
		return fmt.Errorf("add %s: %w", item, ErrIncompatibleKind)
	}
	if inv.Space(item) < n {
		return fmt.Errorf("add %d %s: %w", n, item, ErrCapacityExceeded)
	}
	if inv.Items == nil {
		inv.Items = map[string]int{}
	}
	inv.Items[item] += n
	return nil
}

func (inv *Inventory) Remove(item string, n int) error {
	if n <= 0 {
		return nil
	}
	if inv.Count(item) < n {
		return fmt.Errorf("remove %d %s: %w", n, item, ErrInsufficientItems)
	}
	inv.Items[item] -= n
	if inv.Items[item] == 0 {
		delete(inv.Items, item)
	}
	return nil
}

func (inv *Inventory) HasAll(stacks []Stack) bool {
	need := map[string]int{}
	for _, s := range stacks {
		need[s.Item] += s.Count
	}
	for item, n := range need {
		if inv.Count(item) < n {
			return false
		}
	}
	return true
}

// CanAddAll reports whether every stack fits at once.
func (inv *Inventory) CanAddAll(stacks []Stack) bool {
	if inv == nil {
		return len(stacks) == 0
	}
	probe := inv.Clone()
	for _, s := range stacks {
		if probe.Add(s.Item, s.Count) != nil {
			return false
		}
	}
	return true
}

// RemoveAll removes every stack or nothing.
func (inv *Inventory) RemoveAll(stacks []Stack) error {
	if !inv.HasAll(stacks) {
		return fmt.Errorf("remove all: %w", ErrInsufficientItems)
	}
	for _, s := range stacks {
		_ = inv.Remove(s.Item, s.Count)
	}
	return nil
}

// AddAll adds every stack or nothing.
func (inv *Inventory) AddAll(stacks []Stack) error {
	probe := inv.Clone()
	for _, s := range stacks {
		if err := probe.Add(s.Item, s.Count); err != nil {
			return err
		}
	}
	inv.Items = probe.Items
	return nil
}

// Drain empties the inventory and returns what it held.
func (inv *Inventory) Drain() []Stack {
	out := inv.Stacks()
	if inv != nil {
		inv.Items = map[string]int{}
	}
	return out
}

// Stacks returns the contents sorted by item id.
func (inv *Inventory) Stacks() []Stack {
	if inv == nil {
		return nil
	}
	out := make([]Stack, 0, len(inv.Items))
	for item, c := range inv.Items {
		if c > 0 {
			out = append(out, Stack{Item: item, Count: c})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Item < out[j].Item })
	return out
}

// FirstOf returns the lowest-sorted item present that matches keep.
func (inv *Inventory) FirstOf(keep func(item string) bool) (string, bool) {
	for _, s := range inv.Stacks() {
		if keep == nil || keep(s.Item) {
			return s.Item, true
		}
	}
	return "", false
}

func (inv *Inventory) Clone() *Inventory {
	if inv == nil {
		return nil
	}
	c := &Inventory{
		Items:      make(map[string]int, len(inv.Items)),
		MaxTotal:   inv.MaxTotal,
		MaxPerItem: inv.MaxPerItem,
	}
	if len(inv.Filter) > 0 {
		c.Filter = append([]string(nil), inv.Filter...)
	}
	for k, v := range inv.Items {
		c.Items[k] = v
	}
	return c
}

// Transfer moves up to n of item from src to dst and returns the moved count.
func Transfer(src, dst *Inventory, item string, n int) (int, error) {
	have := src.Count(item)
	if have == 0 || n <= 0 {
		return 0, fmt.Errorf("transfer %s: %w", item, ErrInsufficientItems)
	}
	if !dst.Accepts(item) {
		return 0, fmt.Errorf("transfer %s: %w", item, ErrIncompatibleKind)
	}
	if n > have {
		n = have
	}
	if space := dst.Space(item); space < n {
		n = space
	}
	if n == 0 {
		return 0, fmt.Errorf("transfer %s: %w", item, ErrCapacityExceeded)
	}
	_ = src.Remove(item, n)
	_ = dst.Add(item, n)
	return n, nil
}
