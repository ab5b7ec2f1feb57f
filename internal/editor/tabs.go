package editor

// Tab is one open file. Its id never changes, even across a rename.
type Tab struct {
	ID    string
	Name  string
	Saved bool
}

// Store tracks open tabs in insertion order and which one is active.
// It is pure data management with no I/O; the session issues the remote
// calls that accompany each change.
type Store struct {
	tabs   []Tab
	active string // id of the active tab, or "" if none
}

// NewStore creates a Store with no open tabs.
func NewStore() *Store {
	return &Store{}
}

// Len returns the number of open tabs.
func (s *Store) Len() int {
	return len(s.tabs)
}

// Tabs returns a copy of the open tabs in order.
func (s *Store) Tabs() []Tab {
	return append([]Tab(nil), s.tabs...)
}

// Active returns the id of the active tab, or "" if there is none.
func (s *Store) Active() string {
	return s.active
}

// ActiveTab returns the active tab.
func (s *Store) ActiveTab() (Tab, bool) {
	return s.Get(s.active)
}

// Get returns the tab with the given id.
func (s *Store) Get(id string) (Tab, bool) {
	if i := s.Index(id); i >= 0 {
		return s.tabs[i], true
	}
	return Tab{}, false
}

// Index returns the position of the tab with the given id, or -1.
func (s *Store) Index(id string) int {
	if id == "" {
		return -1
	}
	for i, t := range s.tabs {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// Open activates the tab with the given id, appending a new saved tab if
// none is open. It reports whether a tab was added.
func (s *Store) Open(id, name string) bool {
	if s.Index(id) >= 0 {
		s.active = id
		return false
	}
	s.tabs = append(s.tabs, Tab{ID: id, Name: name, Saved: true})
	s.active = id
	return true
}

// SetActive switches the active tab. An unknown id is a no-op; "" clears
// the selection.
func (s *Store) SetActive(id string) bool {
	if id != "" && s.Index(id) < 0 {
		return false
	}
	s.active = id
	return true
}

// NextActive returns the id that should be active once the tab with the
// given id is closed:
//   - closing a tab that is not active keeps the current selection
//   - closing the only tab leaves nothing active
//   - closing the active tab selects the following tab, or the preceding
//     one when it was last
func (s *Store) NextActive(id string) string {
	i := s.Index(id)
	if i < 0 || id != s.active {
		return s.active
	}
	switch {
	case len(s.tabs) == 1:
		return ""
	case i < len(s.tabs)-1:
		return s.tabs[i+1].ID
	default:
		return s.tabs[i-1].ID
	}
}

// Remove deletes the tab with the given id. Removing the active tab leaves
// nothing active; callers select the successor first.
func (s *Store) Remove(id string) bool {
	i := s.Index(id)
	if i < 0 {
		return false
	}
	s.tabs = append(s.tabs[:i], s.tabs[i+1:]...)
	if s.active == id {
		s.active = ""
	}
	return true
}

// Rename sets the display name of a tab.
func (s *Store) Rename(id, name string) bool {
	i := s.Index(id)
	if i < 0 {
		return false
	}
	s.tabs[i].Name = name
	return true
}

// SetSaved sets the saved flag of a tab and reports whether it changed.
func (s *Store) SetSaved(id string, saved bool) bool {
	i := s.Index(id)
	if i < 0 || s.tabs[i].Saved == saved {
		return false
	}
	s.tabs[i].Saved = saved
	return true
}

// Clear closes every tab.
func (s *Store) Clear() {
	s.tabs = nil
	s.active = ""
}
