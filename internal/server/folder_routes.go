package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/teymia/habitkit/internal/logger"
	"github.com/teymia/habitkit/internal/storage"
	"github.com/teymia/habitkit/pkg/habit"
)

type folderRequest struct {
	Name         string   `json:"name"`
	DisplayOrder int      `json:"display_order"`
	HabitIDs     []string `json:"habit_ids"`
}

func (s *Server) createFolder(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(s.cfg.AuthEnabled, r)
	if userID == "" {
		http.Error(w, `{"error":"user id is required"}`, http.StatusBadRequest)
		return
	}

	var req folderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, `{"error":"folder name is required"}`, http.StatusBadRequest)
		return
	}

	f := habit.NewFolder(req.Name)
	f.DisplayOrder = req.DisplayOrder
	f.HabitIDs = req.HabitIDs

	if err := s.store.PutFolder(userID, f); err != nil {
		logger.Error("Failed to store folder", "user_id", userID, "folder_id", f.ID, "error", err)
		http.Error(w, `{"error":"database write failed"}`, http.StatusInternalServerError)
		return
	}
	if err := writeJSON(w, http.StatusCreated, f); err != nil {
		logger.Error("Failed to serialize folder", "folder_id", f.ID, "error", err)
	}
}

func (s *Server) listFolders(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(s.cfg.AuthEnabled, r)
	if userID == "" {
		http.Error(w, `{"error":"user id is required"}`, http.StatusBadRequest)
		return
	}

	folders, err := s.store.ListFolders(userID)
	if err != nil {
		logger.Error("Failed to list folders", "user_id", userID, "error", err)
		http.Error(w, `{"error":"storage error"}`, http.StatusInternalServerError)
		return
	}
	if folders == nil {
		folders = []*habit.Folder{}
	}
	if err := writeJSON(w, http.StatusOK, FolderListResponse{Folders: folders}); err != nil {
		logger.Error("Failed to serialize folder list", "user_id", userID, "error", err)
	}
}

func (s *Server) updateFolder(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(s.cfg.AuthEnabled, r)
	folderID := chi.URLParam(r, "folder_id")
	if userID == "" || folderID == "" {
		http.Error(w, `{"error":"user id and folder id are required"}`, http.StatusBadRequest)
		return
	}

	f, err := s.store.GetFolder(userID, folderID)
	if errors.Is(err, storage.ErrNotFound) {
		http.Error(w, `{"error":"folder not found"}`, http.StatusNotFound)
		return
	}
	if err != nil {
		logger.Error("Failed to load folder", "folder_id", folderID, "error", err)
		http.Error(w, `{"error":"storage error"}`, http.StatusInternalServerError)
		return
	}

	var req folderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	if req.Name != "" {
		f.Name = req.Name
	}
	f.DisplayOrder = req.DisplayOrder
	f.HabitIDs = req.HabitIDs

	if err := s.store.PutFolder(userID, f); err != nil {
		logger.Error("Failed to update folder", "folder_id", folderID, "error", err)
		http.Error(w, `{"error":"database write failed"}`, http.StatusInternalServerError)
		return
	}
	if err := writeJSON(w, http.StatusOK, f); err != nil {
		logger.Error("Failed to serialize folder", "folder_id", folderID, "error", err)
	}
}

// deleteFolder removes the grouping only; the habits inside stay.
func (s *Server) deleteFolder(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(s.cfg.AuthEnabled, r)
	folderID := chi.URLParam(r, "folder_id")
	if userID == "" || folderID == "" {
		http.Error(w, `{"error":"user id and folder id are required"}`, http.StatusBadRequest)
		return
	}

	err := s.store.DeleteFolder(userID, folderID)
	if errors.Is(err, storage.ErrNotFound) {
		http.Error(w, `{"error":"folder not found"}`, http.StatusNotFound)
		return
	}
	if err != nil {
		logger.Error("Failed to delete folder", "folder_id", folderID, "error", err)
		http.Error(w, `{"error":"storage error"}`, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
