package nativeui

import "time"

// Backing stores: the data a widget renders from. Each store is owned
// exclusively by its composite widget and mutated only on the UI thread;
// adapters read it on the same thread, so no locking is required here.

// Item is a leaf row of a hierarchical list. Its identity is the pair
// (section id, item id); item ids need only be unique within a section.
type Item struct {
	ID     string
	Label  string
	Icon   string
	Badge  string
	Active bool
}

// Section is a top-level group of a hierarchical list.
type Section struct {
	ID     string
	Header string
	Items  []Item
}

// FileEntry is one row of a tabular list. Size is -1 when unknown and a
// zero Modified means unknown; both render empty.
type FileEntry struct {
	ID       string
	Name     string
	Icon     string
	Modified time.Time
	Size     int64
	Kind     string
}

// SidebarStore holds a hierarchical list's sections in insertion order.
type SidebarStore struct {
	sections []Section
}

// AddSection appends a section. Section ids are not deduplicated; lookups
// resolve to the first match.
func (s *SidebarStore) AddSection(sec Section) {
	s.sections = append(s.sections, sec)
}

// AddItem appends an item to the named section. Returns false if no such
// section exists.
func (s *SidebarStore) AddItem(sectionID string, item Item) bool {
	for i := range s.sections {
		if s.sections[i].ID == sectionID {
			s.sections[i].Items = append(s.sections[i].Items, item)
			return true
		}
	}
	return false
}

// SectionCount returns the number of sections.
func (s *SidebarStore) SectionCount() int { return len(s.sections) }

// SectionAt returns the section at index i, or nil when out of range.
func (s *SidebarStore) SectionAt(i int) *Section {
	if i < 0 || i >= len(s.sections) {
		return nil
	}
	return &s.sections[i]
}

// FindSection returns the first section with the given id.
func (s *SidebarStore) FindSection(id string) *Section {
	for i := range s.sections {
		if s.sections[i].ID == id {
			return &s.sections[i]
		}
	}
	return nil
}

// FindItem resolves an item id across all sections, returning its node
// reference. Item ids are section-scoped, so the first match wins.
func (s *SidebarStore) FindItem(itemID string) (nodeRef, bool) {
	for i := range s.sections {
		for j := range s.sections[i].Items {
			if s.sections[i].Items[j].ID == itemID {
				return nodeRef{SectionID: s.sections[i].ID, ItemID: itemID}, true
			}
		}
	}
	return nodeRef{}, false
}

// Item resolves a node reference to its item.
func (s *SidebarStore) Item(ref nodeRef) *Item {
	sec := s.FindSection(ref.SectionID)
	if sec == nil {
		return nil
	}
	for i := range sec.Items {
		if sec.Items[i].ID == ref.ItemID {
			return &sec.Items[i]
		}
	}
	return nil
}

// FileStore holds a tabular list's rows in insertion order. Row index is
// positional; deletions are not supported by the current feature set.
type FileStore struct {
	files []FileEntry
}

// Append adds entries in order.
func (f *FileStore) Append(entries ...FileEntry) {
	f.files = append(f.files, entries...)
}

// Len returns the number of rows.
func (f *FileStore) Len() int { return len(f.files) }

// At returns the entry at row i, or nil when out of range. Out-of-range
// reads are expected during refresh races and must fail soft.
func (f *FileStore) At(i int) *FileEntry {
	if i < 0 || i >= len(f.files) {
		return nil
	}
	return &f.files[i]
}

// Find returns the row index of the entry with the given id, or -1.
func (f *FileStore) Find(id string) int {
	for i := range f.files {
		if f.files[i].ID == id {
			return i
		}
	}
	return -1
}
