package web

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/hauke96/sigolo/v2"
	"github.com/pkg/errors"
	"osmgrid/aggregate"
	ownIo "osmgrid/io"
	"osmgrid/storage"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func NewErrorResponse(message string) ErrorResponse {
	return ErrorResponse{
		Error: message,
	}
}

type RunResponse struct {
	RunID           string  `json:"run_id"`
	CRS             string  `json:"crs"`
	CellSize        float64 `json:"cell_size"`
	CellCount       int     `json:"cell_count"`
	SkippedFeatures *int    `json:"skipped_features"`
	CreatedAt       string  `json:"created_at"`
}

type OneHotResponse struct {
	Columns []string `json:"columns"`
	CellIDs []string `json:"cell_ids"`
	Rows    [][]int  `json:"rows"`
}

func StartServer(port string, store *storage.Store) {
	r := initRouter(store)
	sigolo.Infof("Start server without TLS support on port %s", port)
	err := http.ListenAndServe(":"+port, r)
	sigolo.FatalCheck(err)
}

func StartServerTls(port string, certFile string, keyFile string, store *storage.Store) {
	r := initRouter(store)
	sigolo.Infof("Start server with TLS support on port %s", port)
	err := http.ListenAndServeTLS(":"+port, certFile, keyFile, r)
	sigolo.FatalCheck(err)
}

func initRouter(store *storage.Store) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/runs", func(writer http.ResponseWriter, request *http.Request) {
		runs, err := store.ListRuns(request.Context())
		if err != nil {
			writeError(writer, "Error listing runs", err)
			return
		}

		response := make([]RunResponse, len(runs))
		for i, run := range runs {
			response[i] = RunResponse{
				RunID:           run.RunID,
				CRS:             string(run.CRS),
				CellSize:        run.CellSize,
				CellCount:       run.CellCount,
				SkippedFeatures: run.SkippedFeatures,
				CreatedAt:       run.CreatedAt.UTC().Format(time.RFC3339),
			}
		}
		writeJson(writer, http.StatusOK, response)
	}).Methods(http.MethodGet)

	r.HandleFunc("/runs/{run}/grid", func(writer http.ResponseWriter, request *http.Request) {
		runId, ok := resolveRunId(writer, request, store)
		if !ok {
			return
		}

		g, err := store.LoadGrid(request.Context(), runId)
		if err != nil {
			writeError(writer, "Error loading grid", err)
			return
		}

		writer.Header().Set("Content-Type", "application/geo+json")
		err = ownIo.WriteGridAsGeoJson(g, writer)
		if err != nil {
			sigolo.Errorf("Error writing grid %s: %+v", runId, err)
		}
	}).Methods(http.MethodGet)

	r.HandleFunc("/runs/{run}/summaries", func(writer http.ResponseWriter, request *http.Request) {
		runId, ok := resolveRunId(writer, request, store)
		if !ok {
			return
		}

		g, err := store.LoadGrid(request.Context(), runId)
		if err != nil {
			writeError(writer, "Error loading grid", err)
			return
		}

		result, err := store.LoadSummaries(request.Context(), runId)
		if err != nil {
			writeError(writer, "Error loading summaries", err)
			return
		}

		writer.Header().Set("Content-Type", "application/geo+json")
		err = ownIo.WriteSummariesAsGeoJson(g, result.Summaries, writer)
		if err != nil {
			sigolo.Errorf("Error writing summaries of run %s: %+v", runId, err)
		}
	}).Methods(http.MethodGet)

	r.HandleFunc("/runs/{run}/onehot", func(writer http.ResponseWriter, request *http.Request) {
		runId, ok := resolveRunId(writer, request, store)
		if !ok {
			return
		}

		result, err := store.LoadSummaries(request.Context(), runId)
		if err != nil {
			writeError(writer, "Error loading summaries", err)
			return
		}

		encoding := aggregate.EncodeDominantBuildingTypes(result.Summaries)
		writeJson(writer, http.StatusOK, OneHotResponse{
			Columns: encoding.ColumnNames(),
			CellIDs: encoding.CellIDs,
			Rows:    encoding.Rows,
		})
	}).Methods(http.MethodGet)

	r.HandleFunc("/runs/{run}", func(writer http.ResponseWriter, request *http.Request) {
		runId, ok := resolveRunId(writer, request, store)
		if !ok {
			return
		}

		err := store.DeleteRun(request.Context(), runId)
		if err != nil {
			writeError(writer, "Error deleting run", err)
			return
		}

		sigolo.Infof("Deleted run %s", runId)
		writer.WriteHeader(http.StatusNoContent)
	}).Methods(http.MethodDelete)

	r.HandleFunc("/runs/{run}/cells/{cell}", func(writer http.ResponseWriter, request *http.Request) {
		runId, ok := resolveRunId(writer, request, store)
		if !ok {
			return
		}

		result, err := store.LoadSummaries(request.Context(), runId)
		if err != nil {
			writeError(writer, "Error loading summaries", err)
			return
		}

		cellId := mux.Vars(request)["cell"]
		summary, ok := result.Get(cellId)
		if !ok {
			writeJson(writer, http.StatusNotFound, NewErrorResponse("Cell "+cellId+" does not exist in run "+runId))
			return
		}

		writeJson(writer, http.StatusOK, summary)
	}).Methods(http.MethodGet)

	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			sigolo.Debugf("%s %s", request.Method, request.URL.Path)
			writer.Header().Set("Access-Control-Allow-Origin", "*")
			next.ServeHTTP(writer, request)
		})
	})

	return r
}

// resolveRunId returns the run ID of the request path. The ID "latest" is resolved to the most recent run. When false
// is returned, the error response has already been written.
func resolveRunId(writer http.ResponseWriter, request *http.Request, store *storage.Store) (string, bool) {
	runId, err := store.ResolveRunID(request.Context(), mux.Vars(request)["run"])
	if err != nil {
		writeError(writer, "Error resolving run", err)
		return "", false
	}
	return runId, true
}

func writeError(writer http.ResponseWriter, message string, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, storage.ErrRunNotFound) || errors.Is(err, storage.ErrSummariesNotFound) {
		status = http.StatusNotFound
	} else {
		sigolo.Errorf("%s: %+v", message, err)
	}

	writeJson(writer, status, NewErrorResponse(message+": "+err.Error()))
}

func writeJson(writer http.ResponseWriter, status int, value interface{}) {
	responseBytes, err := json.Marshal(value)
	if err != nil {
		sigolo.Errorf("Error marshalling response object: %+v", err)
		writer.WriteHeader(http.StatusInternalServerError)
		return
	}

	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	_, err = writer.Write(responseBytes)
	if err != nil {
		sigolo.Errorf("Error writing response: %+v", err)
	}
}
