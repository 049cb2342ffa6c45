package store

import "github.com/aretw0/promptflow/pkg/domain"

// SelectNode focuses a node in the side panel. The empty id clears the focus.
// The id is not checked against the graph.
func (s *Store) SelectNode(id string) {
	s.ui.SelectedNodeID = id
	s.ui.SidebarOpen = id != ""
	s.publish(domain.ChangeUI, "select_node", s.graph)
}

// CloseSidebar clears the focused node and hides the side panel.
func (s *Store) CloseSidebar() {
	s.clearSelection()
	s.publish(domain.ChangeUI, "close_sidebar", s.graph)
}

// ToggleJSONPanel flips the visibility of the document preview.
func (s *Store) ToggleJSONPanel() {
	s.ui.JSONPanelOpen = !s.ui.JSONPanelOpen
	s.publish(domain.ChangeUI, "toggle_json_panel", s.graph)
}

func (s *Store) clearSelection() {
	s.ui.SelectedNodeID = ""
	s.ui.SidebarOpen = false
}

// clearSelectionOf clears the focused node if it is among ids.
func (s *Store) clearSelectionOf(ids map[string]bool) {
	if s.ui.SelectedNodeID != "" && ids[s.ui.SelectedNodeID] {
		s.clearSelection()
	}
}
