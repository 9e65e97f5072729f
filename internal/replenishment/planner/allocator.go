package planner

import (
	"sort"

	"github.com/fekuna/omnipos-replenishment-service/internal/model"
)

// Allocate rations available units across requests. When the total request
// fits, every request is filled. Otherwise requests are served greedily by
// priority descending, ties keeping input order. The result is aligned with
// requests.
func Allocate(requested []int64, priority []float64, available int64) []int64 {
	allocated := make([]int64, len(requested))
	if available < 0 {
		available = 0
	}

	var total int64
	for _, r := range requested {
		total += r
	}
	if total <= available {
		copy(allocated, requested)
		return allocated
	}

	order := make([]int, len(requested))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return priority[order[a]] > priority[order[b]]
	})

	remaining := available
	for _, idx := range order {
		if remaining <= 0 {
			break
		}
		qty := requested[idx]
		if qty > remaining {
			qty = remaining
		}
		allocated[idx] = qty
		remaining -= qty
	}
	return allocated
}

// AllocateWarehouse fills AllocatedShipQty on every plan, grouping plans by
// product in order of first appearance and ranking by RankScore. Products
// missing from warehouse have no stock. It returns the number of products
// whose requests exceeded warehouse stock.
func AllocateWarehouse(plans []model.ShipmentPlan, warehouse map[string]int64) int {
	groups := make(map[string][]int)
	var products []string
	for i := range plans {
		pid := plans[i].ProductID
		if _, ok := groups[pid]; !ok {
			products = append(products, pid)
		}
		groups[pid] = append(groups[pid], i)
	}

	contended := 0
	for _, pid := range products {
		idxs := groups[pid]
		requested := make([]int64, len(idxs))
		priority := make([]float64, len(idxs))
		var total int64
		for j, i := range idxs {
			requested[j] = plans[i].RequestedShipQty
			priority[j] = plans[i].RankScore
			total += requested[j]
		}

		available := warehouse[pid]
		if total > available {
			contended++
		}

		for j, qty := range Allocate(requested, priority, available) {
			plans[idxs[j]].AllocatedShipQty = qty
		}
	}
	return contended
}
