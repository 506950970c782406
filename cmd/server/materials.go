package main

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/doferlabs/printcost/internal/store"
)

func (s *server) handleMaterialsList(w http.ResponseWriter, r *http.Request) {
	materials, err := s.store.ListMaterials(r.Context(), r.URL.Query().Get("all") != "1")
	if err != nil {
		s.log.Error().Err(err).Msg("list materials")
		writeError(w, http.StatusInternalServerError, "no se pudieron cargar los materiales")
		return
	}
	writeJSON(w, http.StatusOK, materials)
}

func (s *server) handleMaterialCreate(w http.ResponseWriter, r *http.Request) {
	m := store.Material{Active: true}
	if err := decodeJSON(w, r, &m); err != nil {
		writeError(w, http.StatusBadRequest, "JSON inválido")
		return
	}
	m.ID = 0

	if !s.nameAvailable(w, r, m) {
		return
	}

	created, err := s.store.CreateMaterial(r.Context(), m)
	if err != nil {
		s.writeMaterialError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// handleMaterialUpdate decodes the body over the stored material, so
// omitted fields keep their current value.
func (s *server) handleMaterialUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "id de material inválido")
		return
	}

	m, err := s.store.Material(r.Context(), id)
	if err != nil {
		s.writeMaterialError(w, err)
		return
	}
	if err := decodeJSON(w, r, &m); err != nil {
		writeError(w, http.StatusBadRequest, "JSON inválido")
		return
	}
	m.ID = id

	if !s.nameAvailable(w, r, m) {
		return
	}

	if err := s.store.UpdateMaterial(r.Context(), m); err != nil {
		s.writeMaterialError(w, err)
		return
	}
	updated, err := s.store.Material(r.Context(), id)
	if err != nil {
		s.writeMaterialError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// nameAvailable writes 409 when another material already uses m.Name.
func (s *server) nameAvailable(w http.ResponseWriter, r *http.Request, m store.Material) bool {
	if strings.TrimSpace(m.Name) == "" {
		return true
	}
	existing, err := s.store.MaterialByName(r.Context(), m.Name)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return true
	case err != nil:
		s.writeMaterialError(w, err)
		return false
	case existing.ID != m.ID:
		writeError(w, http.StatusConflict, "ya existe un material con ese nombre")
		return false
	}
	return true
}

func (s *server) writeMaterialError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrInvalid):
		writeError(w, http.StatusUnprocessableEntity, strings.TrimPrefix(err.Error(), store.ErrInvalid.Error()+": "))
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "material no encontrado")
	default:
		s.log.Error().Err(err).Msg("save material")
		writeError(w, http.StatusInternalServerError, "no se pudo guardar el material")
	}
}
