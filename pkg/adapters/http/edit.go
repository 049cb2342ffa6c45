package http

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aretw0/promptflow/pkg/domain"
	"github.com/aretw0/promptflow/pkg/store"
)

type targetRequest struct {
	Target string `json:"target"`
}

type startRequest struct {
	NodeID string `json:"node_id"`
}

func nodeNotFound(id string) error {
	return fmt.Errorf("%w: node %q", errNotFound, id)
}

func edgeNotFound(id string) error {
	return fmt.Errorf("%w: edge %q", errNotFound, id)
}

// addNode creates a node and applies the optional patch as a second edit.
func (s *Server) addNode(w http.ResponseWriter, r *http.Request) {
	var patch domain.NodePatch
	if err := decodeJSON(r, &patch, true); err != nil {
		s.writeError(w, err)
		return
	}

	s.update(w, r, http.StatusCreated, func(st *store.Store) (any, error) {
		node := st.AddNode()
		if !patch.IsEmpty() {
			st.UpdateNodeData(node.ID, patch)
			node, _ = st.Graph().Node(node.ID)
		}
		return node, nil
	})
}

func (s *Server) updateNode(w http.ResponseWriter, r *http.Request) {
	var patch domain.NodePatch
	if err := decodeJSON(r, &patch, false); err != nil {
		s.writeError(w, err)
		return
	}
	id := chi.URLParam(r, "id")

	s.update(w, r, http.StatusOK, func(st *store.Store) (any, error) {
		if !st.Graph().HasNode(id) {
			return nil, nodeNotFound(id)
		}
		st.UpdateNodeData(id, patch)
		node, _ := st.Graph().Node(id)
		return node, nil
	})
}

func (s *Server) deleteNode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.update(w, r, http.StatusOK, func(st *store.Store) (any, error) {
		if !st.Graph().HasNode(id) {
			return nil, nodeNotFound(id)
		}
		removed := st.DeleteNode(id)
		return map[string]int{"removed_edges": removed}, nil
	})
}

func (s *Server) addEdge(w http.ResponseWriter, r *http.Request) {
	var conn domain.Connection
	if err := decodeJSON(r, &conn, false); err != nil {
		s.writeError(w, err)
		return
	}

	s.update(w, r, http.StatusCreated, func(st *store.Store) (any, error) {
		g := st.Graph()
		if !g.HasNode(conn.Source) {
			return nil, nodeNotFound(conn.Source)
		}
		if !g.HasNode(conn.Target) {
			return nil, nodeNotFound(conn.Target)
		}
		if !st.IsValidConnection(conn) {
			return nil, fmt.Errorf("%w: %s -> %s", errInvalidConnection, conn.Source, conn.Target)
		}
		edge, _ := st.AddEdge(conn)
		return edge, nil
	})
}

func (s *Server) updateEdge(w http.ResponseWriter, r *http.Request) {
	var patch domain.EdgePatch
	if err := decodeJSON(r, &patch, false); err != nil {
		s.writeError(w, err)
		return
	}
	id := chi.URLParam(r, "id")

	s.update(w, r, http.StatusOK, func(st *store.Store) (any, error) {
		if !st.Graph().HasEdge(id) {
			return nil, edgeNotFound(id)
		}
		st.UpdateEdgeData(id, patch)
		edge, _ := st.Graph().Edge(id)
		return edge, nil
	})
}

func (s *Server) deleteEdge(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.update(w, r, http.StatusNoContent, func(st *store.Store) (any, error) {
		if !st.Graph().HasEdge(id) {
			return nil, edgeNotFound(id)
		}
		st.DeleteEdge(id)
		return nil, nil
	})
}

func (s *Server) updateEdgeTarget(w http.ResponseWriter, r *http.Request) {
	var req targetRequest
	if err := decodeJSON(r, &req, false); err != nil {
		s.writeError(w, err)
		return
	}
	id := chi.URLParam(r, "id")

	s.update(w, r, http.StatusOK, func(st *store.Store) (any, error) {
		g := st.Graph()
		if !g.HasEdge(id) {
			return nil, edgeNotFound(id)
		}
		if !g.HasNode(req.Target) {
			return nil, nodeNotFound(req.Target)
		}
		st.UpdateEdgeTarget(id, req.Target)
		edge, _ := st.Graph().Edge(id)
		return edge, nil
	})
}

func (s *Server) setStartNode(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := decodeJSON(r, &req, false); err != nil {
		s.writeError(w, err)
		return
	}

	s.update(w, r, http.StatusOK, func(st *store.Store) (any, error) {
		if req.NodeID != "" && !st.Graph().HasNode(req.NodeID) {
			return nil, nodeNotFound(req.NodeID)
		}
		st.SetStartNode(req.NodeID)
		return map[string]string{"start_node_id": st.Graph().StartNodeID}, nil
	})
}

func (s *Server) undo(w http.ResponseWriter, r *http.Request) {
	s.update(w, r, http.StatusOK, func(st *store.Store) (any, error) {
		st.Undo()
		return st.Snapshot(), nil
	})
}

func (s *Server) redo(w http.ResponseWriter, r *http.Request) {
	s.update(w, r, http.StatusOK, func(st *store.Store) (any, error) {
		st.Redo()
		return st.Snapshot(), nil
	})
}
