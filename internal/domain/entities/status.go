package entities

import "fmt"

// StatusInfo is a point-in-time snapshot of one repository's pull request state.
// Only used to diff consecutive polling iterations.
type StatusInfo struct {
	CloneURL    string
	Pending     bool
	Description string
}

func (s StatusInfo) String() string {
	state := "done"
	if s.Pending {
		state = "pending"
	}
	return fmt.Sprintf("%s: %s %s", s.CloneURL, state, s.Description)
}

// StatusMap indexes snapshots by clone URL, keeping the insertion order for logging.
type StatusMap struct {
	order    []string
	statuses map[string]StatusInfo
}

// NewStatusMap builds a map from snapshots; a later entry for the same clone URL wins.
func NewStatusMap(infos []StatusInfo) StatusMap {
	m := StatusMap{statuses: make(map[string]StatusInfo, len(infos))}
	for _, info := range infos {
		if _, ok := m.statuses[info.CloneURL]; !ok {
			m.order = append(m.order, info.CloneURL)
		}
		m.statuses[info.CloneURL] = info
	}
	return m
}

// Get returns the snapshot of a repository.
func (m StatusMap) Get(cloneURL string) (StatusInfo, bool) {
	info, ok := m.statuses[cloneURL]
	return info, ok
}

// Values returns the snapshots in insertion order.
func (m StatusMap) Values() []StatusInfo {
	values := make([]StatusInfo, 0, len(m.order))
	for _, url := range m.order {
		values = append(values, m.statuses[url])
	}
	return values
}

// Len returns the number of repositories.
func (m StatusMap) Len() int {
	return len(m.order)
}

// IsPending reports whether any repository is still pending.
func (m StatusMap) IsPending() bool {
	for _, info := range m.statuses {
		if info.Pending {
			return true
		}
	}
	return false
}

// PendingValues returns the pending snapshots in insertion order.
func (m StatusMap) PendingValues() []StatusInfo {
	var pending []StatusInfo
	for _, info := range m.Values() {
		if info.Pending {
			pending = append(pending, info)
		}
	}
	return pending
}

// ChangedStatuses returns the entries of current that are new or whose pending flag
// or description differ from previous.
func ChangedStatuses(previous, current StatusMap) []StatusInfo {
	var changed []StatusInfo
	for _, info := range current.Values() {
		old, ok := previous.Get(info.CloneURL)
		if !ok || old != info {
			changed = append(changed, info)
		}
	}
	return changed
}
