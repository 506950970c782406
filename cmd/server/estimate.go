package main

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/doferlabs/printcost/internal/estimate"
	"github.com/doferlabs/printcost/internal/pricing"
	"github.com/doferlabs/printcost/internal/store"
	"github.com/doferlabs/printcost/internal/unpack"
)

const (
	// sessionHeader identifies a client whose newer uploads supersede older ones.
	sessionHeader     = "X-Session-ID"
	maxUploadOverhead = 1 << 20
)

type estimateResponse struct {
	Facts      *estimate.Facts         `json:"facts"`
	Missing    []string                `json:"missing"`
	Incomplete bool                    `json:"incomplete"`
	Params     pricing.PrintParameters `json:"params"`
	Material   *store.Material         `json:"material,omitempty"`
	Thumbnail  []byte                  `json:"thumbnail,omitempty"`
}

// supportedKinds renders the accepted extensions for error messages.
func supportedKinds() string {
	exts := make([]string, 0, len(unpack.Kinds()))
	for _, k := range unpack.Kinds() {
		exts = append(exts, "."+string(k))
	}
	if len(exts) < 2 {
		return strings.Join(exts, "")
	}
	return strings.Join(exts[:len(exts)-1], ", ") + " o " + exts[len(exts)-1]
}

func (s *server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, unpack.SizeLimit(unpack.KindSTL)+maxUploadOverhead)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, "archivo demasiado grande")
			return
		}
		writeError(w, http.StatusBadRequest, "el campo file es requerido")
		return
	}
	defer file.Close()

	// An explicit kind wins over the extension.
	var kind unpack.Kind
	if raw := r.FormValue("kind"); raw != "" {
		kind, err = unpack.ParseKind(raw)
	} else {
		kind, err = unpack.KindFromFileName(header.Filename)
	}
	if err != nil {
		writeError(w, http.StatusUnsupportedMediaType, "formato no soportado: usa "+supportedKinds())
		return
	}

	data, err := unpack.Read(file, kind, unpack.SizeLimit(kind))
	if err != nil {
		var tooLarge *unpack.TooLargeError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, tooLarge.Error())
			return
		}
		s.log.Error().Err(err).Str("file", header.Filename).Msg("read upload")
		writeError(w, http.StatusBadRequest, "no se pudo leer el archivo")
		return
	}

	asset := estimate.Asset{Data: data, Kind: kind, FileName: header.Filename}
	if raw := r.FormValue("infill"); raw != "" {
		infill, err := strconv.ParseFloat(raw, 64)
		if err != nil || infill < 0 || infill > 100 {
			writeError(w, http.StatusBadRequest, "infill debe estar entre 0 y 100")
			return
		}
		asset.InfillPercent = &infill
	}

	params := s.profile.Parameters
	var material *store.Material
	if name := r.FormValue("material"); name != "" {
		m, err := s.store.MaterialByName(r.Context(), name)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusBadRequest, "material desconocido: "+name)
				return
			}
			s.log.Error().Err(err).Str("material", name).Msg("load material")
			writeError(w, http.StatusInternalServerError, "no se pudo cargar el material")
			return
		}
		material = &m
		asset.DensityGPerCm3 = &m.Density
		params.PricePerKg = m.PricePerKg
	}

	runner, release := s.sessions.acquire(r.Header.Get(sessionHeader), s.newRunner)
	facts, err := runner.Submit(r.Context(), asset)
	release()
	if err != nil {
		var perr *unpack.ContainerParseError
		switch {
		case errors.As(err, &perr):
			s.log.Info().Err(err).Str("file", header.Filename).Msg("unreadable upload")
			writeError(w, http.StatusUnprocessableEntity, "no se pudo interpretar el archivo: "+perr.Error())
		case errors.Is(err, estimate.ErrSuperseded):
			writeError(w, http.StatusConflict, "reemplazado por una carga más reciente")
		case errors.Is(err, estimate.ErrTimeout):
			writeError(w, http.StatusGatewayTimeout, "el análisis tardó demasiado")
		case errors.Is(err, context.Canceled):
			s.log.Debug().Str("file", header.Filename).Msg("client went away")
		default:
			s.log.Error().Err(err).Str("file", header.Filename).Msg("estimate")
			writeError(w, http.StatusInternalServerError, "error al analizar el archivo")
		}
		return
	}

	missing := facts.Missing()
	writeJSON(w, http.StatusOK, estimateResponse{
		Facts:      facts,
		Missing:    nonNil(missing),
		Incomplete: len(missing) > 0,
		Params:     params.With(estimate.Overrides(facts)),
		Material:   material,
		Thumbnail:  facts.Thumbnail,
	})
}

func (s *server) newRunner() *estimate.Runner {
	return estimate.NewRunner(s.pipeline, s.timeout)
}

// sessionRunners shares one runner between the concurrent requests of a
// session. A runner is dropped as soon as its last request finishes, so the
// map only holds sessions with an upload in flight.
type sessionRunners struct {
	mu      sync.Mutex
	runners map[string]*sessionRunner
}

type sessionRunner struct {
	runner *estimate.Runner
	refs   int
}

// acquire returns the session's runner and a release func that must be
// called once the request is done with it. Requests without a session get a
// private runner that only enforces the timeout.
func (sr *sessionRunners) acquire(session string, newRunner func() *estimate.Runner) (*estimate.Runner, func()) {
	if session == "" {
		return newRunner(), func() {}
	}

	sr.mu.Lock()
	defer sr.mu.Unlock()
	if sr.runners == nil {
		sr.runners = make(map[string]*sessionRunner)
	}
	e, ok := sr.runners[session]
	if !ok {
		e = &sessionRunner{runner: newRunner()}
		sr.runners[session] = e
	}
	e.refs++

	var once sync.Once
	return e.runner, func() {
		once.Do(func() {
			sr.mu.Lock()
			defer sr.mu.Unlock()
			e.refs--
			if e.refs == 0 && sr.runners[session] == e {
				delete(sr.runners, session)
			}
		})
	}
}

func (sr *sessionRunners) active() int {
	sr.mu.Lock()
	defer sr.mu.Unlock()
	return len(sr.runners)
}
