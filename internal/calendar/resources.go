package calendar

import "prodcal/internal/domain"

// Resources derives the timeline rows for the current grouping mode.
//
// Workstation grouping yields one row per selected workstation in list
// order, plus a synthetic "unassigned" row when some task carries no
// workstation. Order grouping yields one row per distinct order id in
// first-seen task order, titled by the order number when known, plus a
// synthetic "no order" row when some task (or every task) lacks an order.
func Resources(workstations []domain.Workstation, selected map[string]bool, tasks []domain.Task, groupBy domain.GroupMode) []domain.Resource {
	if groupBy == domain.GroupByOrder {
		return orderResources(tasks)
	}
	return workstationResources(workstations, selected, tasks)
}

func workstationResources(workstations []domain.Workstation, selected map[string]bool, tasks []domain.Task) []domain.Resource {
	var out []domain.Resource
	for _, ws := range workstations {
		if selected[ws.ID] {
			out = append(out, domain.Resource{ID: ws.ID, Title: ws.Name})
		}
	}
	for _, t := range tasks {
		if t.WorkstationID == "" {
			out = append(out, domain.Resource{ID: domain.ResourceUnassigned, Title: "Unassigned"})
			break
		}
	}
	return out
}

func orderResources(tasks []domain.Task) []domain.Resource {
	var out []domain.Resource
	seen := make(map[string]bool)
	withoutOrder := false
	for _, t := range tasks {
		if t.OrderID == "" {
			withoutOrder = true
			continue
		}
		if seen[t.OrderID] {
			continue
		}
		seen[t.OrderID] = true
		title := t.OrderNumber
		if title == "" {
			title = t.OrderID
		}
		out = append(out, domain.Resource{ID: t.OrderID, Title: title})
	}
	if withoutOrder || len(out) == 0 {
		out = append(out, domain.Resource{ID: domain.ResourceNoOrder, Title: "No order"})
	}
	return out
}
