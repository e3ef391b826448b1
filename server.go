package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go-docverify-gateway/docs"
	"go-docverify-gateway/models"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const ErrorInternal = "Internal server error."
const ERR_MARSHAL = "failed to marshal response message"
const ERR_REPORT_STORE = "failed to store report"
const ERR_REPORT_RETRIEVAL = "failed to retrieve report"
const ERR_JWT_CREATION = "failed to create jwt"

const ReportIDHeader = "X-Report-Id"

type ServerConfig struct {
	Host                string `json:"host" yaml:"host"`
	Port                int    `json:"port" yaml:"port"`
	UseTls              bool   `json:"use_tls,omitempty" yaml:"use_tls"`
	TlsPrivKeyPath      string `json:"tls_priv_key_path,omitempty" yaml:"tls_priv_key_path"`
	TlsCertPath         string `json:"tls_cert_path,omitempty" yaml:"tls_cert_path"`
	ReadTimeoutSeconds  int    `json:"read_timeout_seconds,omitempty" yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `json:"write_timeout_seconds,omitempty" yaml:"write_timeout_seconds"`
	MaxUploadBytes      int64  `json:"max_upload_bytes,omitempty" yaml:"max_upload_bytes"`
}

type ServerState struct {
	faceClient         FaceClient
	docReader          DocumentReader
	docReaderConfig    DocReaderConfig
	faceMatchThreshold float64
	reportStorage      ReportStorage
	jwtCreator         JwtCreator
	irmaServerURL      string
	staticPath         string
}

type SpaHandler struct {
	staticPath string
	indexPath  string
}

type Server struct {
	server *http.Server
	config ServerConfig
}

func (s *Server) ListenAndServe() error {
	if s.config.UseTls {
		slog.Info("Starting server with TLS", "host", s.config.Host, "port", s.config.Port, "cert", s.config.TlsCertPath, "key", s.config.TlsPrivKeyPath)
		return s.server.ListenAndServeTLS(s.config.TlsCertPath, s.config.TlsPrivKeyPath)
	}
	slog.Info("Starting server without TLS", "host", s.config.Host, "port", s.config.Port)
	return s.server.ListenAndServe()
}

func (s *Server) Stop() error {
	slog.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := s.server.Shutdown(ctx)
	if err != nil {
		slog.Error("Error during server shutdown", "error", err)
	} else {
		slog.Info("Server shut down successfully")
	}
	return err
}

// ServeHTTP serves the file at the request path from the static dir, or the
// index file when there is none, so client side routes load the SPA.
func (h SpaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Join calls path.Clean, which keeps the lookup inside staticPath
	path := filepath.Join(h.staticPath, r.URL.Path)
	fi, err := os.Stat(path)
	if os.IsNotExist(err) || (err == nil && fi.IsDir()) {
		slog.Debug("Serving index for path", "path", r.URL.Path)
		http.ServeFile(w, r, filepath.Join(h.staticPath, h.indexPath))
		return
	}
	if err != nil {
		slog.Error("Error stating file", "path", path, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	slog.Debug("Serving static file", "path", path)
	http.FileServer(http.Dir(h.staticPath)).ServeHTTP(w, r)
}

// NewRouter registers every route on a gorilla/mux router.
func NewRouter(state *ServerState, config ServerConfig) *mux.Router {
	router := mux.NewRouter()
	router.Use(requestMiddleware(config.MaxUploadBytes))

	router.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		handleHealth(state, w, r)
	}).Methods(http.MethodGet)

	router.HandleFunc("/api/documents/process", func(w http.ResponseWriter, r *http.Request) {
		handleProcessDocument(state, w, r)
	})
	router.HandleFunc("/api/documents/fraud-detection", func(w http.ResponseWriter, r *http.Request) {
		handleProcessDocument(state, w, r)
	})
	router.HandleFunc("/api/document-fraud/detect", func(w http.ResponseWriter, r *http.Request) {
		handleDetectDocumentFraud(state, w, r)
	})
	router.HandleFunc("/api/documents/verify-identity", func(w http.ResponseWriter, r *http.Request) {
		handleVerifyIdentity(state, w, r)
	})
	// compare-passports is the original name of compare-documents
	router.HandleFunc("/api/documents/compare-passports", func(w http.ResponseWriter, r *http.Request) {
		handleCompareDocuments(state, w, r)
	})
	router.HandleFunc("/api/documents/compare-documents", func(w http.ResponseWriter, r *http.Request) {
		handleCompareDocuments(state, w, r)
	})

	router.HandleFunc("/api/detect-face", func(w http.ResponseWriter, r *http.Request) {
		handleDetectFace(state, w, r)
	})
	router.HandleFunc("/api/icao-detect", func(w http.ResponseWriter, r *http.Request) {
		handleICAODetect(state, w, r)
	})
	router.HandleFunc("/api/face-match", func(w http.ResponseWriter, r *http.Request) {
		handleFaceMatch(state, w, r)
	})
	router.HandleFunc("/api/liveness-detection", func(w http.ResponseWriter, r *http.Request) {
		handleLiveness(state, w, r)
	})

	if state.reportStorage != nil {
		router.HandleFunc("/api/reports/{id}", func(w http.ResponseWriter, r *http.Request) {
			handleGetReport(state, w, r)
		}).Methods(http.MethodGet)
	}

	router.HandleFunc("/swagger/doc.json", handleSwaggerDoc).Methods(http.MethodGet)

	slog.Debug("Registered all API routes", "reports", state.reportStorage != nil)

	if state.staticPath != "" {
		spa := SpaHandler{staticPath: state.staticPath, indexPath: "index.html"}
		router.PathPrefix("/").Handler(spa)
	}
	return router
}

func NewServer(state *ServerState, config ServerConfig) (*Server, error) {
	slog.Info("Creating new server", "host", config.Host, "port", config.Port, "tls", config.UseTls)
	if state.faceClient == nil || state.docReader == nil {
		return nil, fmt.Errorf("face client and document reader are required")
	}

	addr := fmt.Sprintf("%v:%v", config.Host, config.Port)
	srv := &http.Server{
		Handler: NewRouter(state, config),
		Addr:    addr,
		// The compare endpoint makes two document reader calls and a match
		WriteTimeout: time.Duration(config.WriteTimeoutSeconds) * time.Second,
		ReadTimeout:  time.Duration(config.ReadTimeoutSeconds) * time.Second,
	}

	slog.Info("Server created successfully", "address", addr)
	return &Server{
		server: srv,
		config: config,
	}, nil
}

type HealthResponse struct {
	Ok      bool   `json:"ok"`
	FaceAPI string `json:"faceApi,omitempty"`
}

func handleHealth(state *ServerState, w http.ResponseWriter, r *http.Request) {
	slog.Debug("Health check request received")
	deep, _ := strconv.ParseBool(r.URL.Query().Get("deep"))
	if !deep {
		if err := writeJSON(w, http.StatusOK, HealthResponse{Ok: true}); err != nil {
			slog.Error("failed to write body to http response", "error", err)
		}
		return
	}

	status, response := http.StatusOK, HealthResponse{Ok: true, FaceAPI: "ok"}
	if err := state.faceClient.HealthCheck(r.Context()); err != nil {
		slog.Warn("Face API health check failed", "error", err)
		status, response = http.StatusServiceUnavailable, HealthResponse{Ok: false, FaceAPI: err.Error()}
	}
	if err := writeJSON(w, status, response); err != nil {
		slog.Error("failed to write body to http response", "error", err)
	}
}

func handleGetReport(state *ServerState, w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	slog.Debug("Report requested", "report_id", id)

	report, err := state.reportStorage.RetrieveReport(r.Context(), id)
	if errors.Is(err, ErrReportNotFound) {
		respondWithErr(w, http.StatusNotFound, "Report not found.", ERR_REPORT_RETRIEVAL, err)
		return
	}
	if err != nil {
		respondWithErr(w, http.StatusInternalServerError, ErrorInternal, ERR_REPORT_RETRIEVAL, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(report); err != nil {
		slog.Error("failed to write body to http response", "error", err)
	}
}

func handleSwaggerDoc(w http.ResponseWriter, r *http.Request) {
	doc, err := docs.ReadDoc()
	if err != nil {
		respondWithErr(w, http.StatusInternalServerError, ErrorInternal, "failed to read OpenAPI document", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write([]byte(doc)); err != nil {
		slog.Error("failed to write body to http response", "error", err)
	}
}

// storeReport saves v under a new id and announces the id in a response
// header. It must run before the response is written. Storage failures are
// logged and otherwise ignored.
func storeReport(state *ServerState, w http.ResponseWriter, r *http.Request, v any) {
	if state.reportStorage == nil {
		return
	}
	payload, err := json.Marshal(v)
	if err != nil {
		slog.Warn(ERR_REPORT_STORE, "error", err)
		return
	}
	id := uuid.New().String()
	if err := state.reportStorage.StoreReport(r.Context(), id, payload); err != nil {
		slog.Warn(ERR_REPORT_STORE, "error", err, "request_id", requestIDFromContext(r.Context()))
		return
	}
	w.Header().Set(ReportIDHeader, id)
	slog.Debug("Report stored", "report_id", id, "size", len(payload))
}

// middleware ------------

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// requestMiddleware assigns a request id (the caller's X-Request-ID when
// present), caps the body size and logs every request.
func requestMiddleware(maxBodyBytes int64) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := r.Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = uuid.New().String()
			}
			w.Header().Set(RequestIDHeader, requestID)

			if maxBodyBytes > 0 && r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
			}

			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(recorder, r.WithContext(withRequestID(r.Context(), requestID)))

			slog.Info("Request handled",
				"method", r.Method,
				"path", r.URL.Path,
				"status_code", recorder.status,
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", requestID)
		})
	}
}

// helpers ------------

func respondWithErr(w http.ResponseWriter, code int, message string, logMsg string, e error) {
	slog.Error(logMsg, "error", e, "status_code", code, "response_body", message)
	if err := writeJSON(w, code, models.ErrorResponse{Error: message}); err != nil {
		slog.Error("failed to write body to http response", "error", err)
	}
}

// respondWithVendorErr answers with the vendor's status and body for a
// *VendorError, and with a 500 for anything else.
func respondWithVendorErr(w http.ResponseWriter, logMsg string, err error) {
	var vendorErr *VendorError
	if !errors.As(err, &vendorErr) {
		respondWithErr(w, http.StatusInternalServerError, ErrorInternal, logMsg, err)
		return
	}

	slog.Error(logMsg, "error", err, "status_code", vendorErr.ResponseStatus())
	response := models.ErrorResponse{Error: vendorErr.Message(), Details: vendorErr.Details()}
	if err := writeJSON(w, vendorErr.ResponseStatus(), response); err != nil {
		slog.Error("failed to write body to http response", "error", err)
	}
}

func closeRequestBody(r *http.Request) {
	if err := r.Body.Close(); err != nil {
		slog.Error("failed to close request body", "error", err)
	}
}

func requirePOST(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		slog.Debug("Non-POST request rejected", "method", r.Method, "path", r.URL.Path)
		w.Header().Set("Allow", http.MethodPost)
		respondWithErr(w, http.StatusMethodNotAllowed, "Method not allowed.", "invalid method", nil)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	slog.Debug("Writing JSON response", "status_code", status)
	payload, err := json.Marshal(v)
	if err != nil {
		slog.Error("Failed to marshal JSON payload", "error", err)
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(payload)
	if err != nil {
		slog.Error("failed to write body to http response", "error", err)
	} else {
		slog.Debug("JSON response written successfully", "status_code", status, "payload_size", len(payload))
	}
	return nil
}

// rawMessage passes a vendor body through as JSON. Bodies that are not JSON
// are embedded as a string.
func rawMessage(body []byte) json.RawMessage {
	if json.Valid(body) {
		return json.RawMessage(body)
	}
	quoted, err := json.Marshal(string(body))
	if err != nil {
		return json.RawMessage("null")
	}
	return quoted
}
