package main

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"log"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"clip-triage/analyses"
	"clip-triage/db"
	"clip-triage/models"
	"clip-triage/scene"
	"clip-triage/utils"

	socketio "github.com/googollee/go-socket.io"
	"github.com/googollee/go-socket.io/engineio"
	"github.com/googollee/go-socket.io/engineio/transport"
	"github.com/googollee/go-socket.io/engineio/transport/polling"
	"github.com/googollee/go-socket.io/engineio/transport/websocket"
	"github.com/mdobak/go-xerrors"
)

type apiError struct {
	Message string `json:"message"`
}

type analysisResponse struct {
	Result    scene.ClassificationResult `json:"result"`
	Features  scene.VideoFeatures        `json:"features"`
	Summary   string                     `json:"summary"`
	LatencyMs float64                    `json:"latencyMs"`
	Source    string                     `json:"source"`
}

type trainResponse struct {
	Label string           `json:"label"`
	Stats scene.StoreStats `json:"stats"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		w.Header().Set("Access-Control-Allow-Origin", "*")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("failed to encode JSON response: %v", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, apiError{Message: message})
}

// runClassification is the shared HTTP/socket path: aggregate the submitted
// frame measurements, classify against the current prototype store, summarize
// and optionally persist the run.
func runClassification(store *scene.PrototypeStore, dbClient db.AnalysisDB, payload models.MeasurementPayload, persist bool) (analysisResponse, error) {
	started := time.Now()

	opts := []scene.ClassifierOption{scene.WithPrototypes(store.Samples())}
	if payload.UseFilenameHints {
		opts = append(opts, scene.WithFilenameHints())
	}
	classifier := scene.NewClassifier(opts...)

	features := scene.Aggregate(payload.Frames, payload.Metadata)
	result, err := classifier.Classify(features, payload.Source)
	if err != nil {
		return analysisResponse{}, err
	}

	summary := scene.Summarizer{}.Summarize(result.Label, features, payload.Frames)
	latency := time.Since(started).Seconds() * 1000

	if persist {
		record := buildAnalysisRecord(payload.Source, result, features, latency)
		if dbClient != nil {
			if err := dbClient.SaveAnalysis(record); err != nil {
				log.Printf("failed to persist analysis: %v", err)
			}
		} else if err := analyses.SaveAnalysis(record); err != nil {
			log.Printf("failed to persist analysis: %v", err)
		}
	}

	return analysisResponse{
		Result:    result,
		Features:  features,
		Summary:   summary,
		LatencyMs: latency,
		Source:    payload.Source,
	}, nil
}

func newClipClassificationHandler(store *scene.PrototypeStore, dbClient db.AnalysisDB, persistAnalyses bool) http.HandlerFunc {
	logger := utils.GetLogger()
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := context.Background()

		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Credentials", "true")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		if r.Method != http.MethodPost {
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		var payload models.MeasurementPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			logger.ErrorContext(ctx, "failed to parse request body", slog.Any("error", err))
			writeJSONError(w, http.StatusBadRequest, "invalid measurement payload")
			return
		}

		log.Printf("[HTTP] Classification request: source=%s, frames=%d, fps=%.1f\n",
			payload.Source, len(payload.Frames), payload.Metadata.FPS)

		response, err := runClassification(store, dbClient, payload, persistAnalyses)
		if err != nil {
			err := xerrors.New(err)
			logger.ErrorContext(ctx, "classification failed", slog.Any("error", err))
			writeJSONError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}

		log.Printf("[HTTP] Classification complete: label=%s, latency=%.2fms\n",
			response.Result.Label, response.LatencyMs)
		writeJSON(w, http.StatusOK, response)
	}
}

func newTrainHandler(store *scene.PrototypeStore) http.HandlerFunc {
	logger := utils.GetLogger()
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := context.Background()

		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Credentials", "true")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		if r.Method != http.MethodPost {
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		var payload models.MeasurementPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			logger.ErrorContext(ctx, "failed to parse request body", slog.Any("error", err))
			writeJSONError(w, http.StatusBadRequest, "invalid measurement payload")
			return
		}

		label := strings.TrimSpace(payload.TrainLabel)
		if label == "" {
			writeJSONError(w, http.StatusBadRequest, "trainLabel is required")
			return
		}
		if !containsLabel(scene.DefaultClasses(), label) {
			writeJSONError(w, http.StatusBadRequest, "unknown label: "+label)
			return
		}

		features := scene.Aggregate(payload.Frames, payload.Metadata)
		if features.FrameSamples == 0 {
			writeJSONError(w, http.StatusUnprocessableEntity, "no frame measurements in payload")
			return
		}

		if err := store.AddSample(label, features, payload.Source); err != nil {
			err := xerrors.New(err)
			logger.ErrorContext(ctx, "failed to store prototype", slog.Any("error", err))
			writeJSONError(w, http.StatusInternalServerError, "failed to store prototype")
			return
		}

		logger.InfoContext(ctx, "stored prototype",
			slog.String("label", label),
			slog.String("source", payload.Source),
			slog.Int("storeSize", store.Len()),
		)
		writeJSON(w, http.StatusOK, trainResponse{Label: label, Stats: store.Stats()})
	}
}

func newAnalysesHandler(dbClient db.AnalysisDB) http.HandlerFunc {
	logger := utils.GetLogger()
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := context.Background()

		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Credentials", "true")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		if r.Method != http.MethodGet {
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		limit := 50
		if raw := r.URL.Query().Get("limit"); raw != "" {
			if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
				limit = parsed
			}
		}

		var records []models.Analysis
		var err error
		if dbClient != nil {
			records, err = dbClient.RecentAnalyses(limit)
		} else {
			records, err = analyses.LoadAnalyses()
		}
		if err != nil {
			logger.ErrorContext(ctx, "failed to load analyses", slog.Any("error", err))
			writeJSONError(w, http.StatusInternalServerError, "failed to load analyses")
			return
		}

		writeJSON(w, http.StatusOK, records)
	}
}

func serve(protocol, port string) {
	protocol = strings.ToLower(protocol)
	var allowOriginFunc = func(r *http.Request) bool {
		return true
	}

	storePath := defaultStorePath()
	store := scene.NewPrototypeStore(storePath)
	stats := store.Stats()
	log.Printf("Loaded prototype store %s (%d samples, %d labels)", storePath, stats.SampleCount, len(stats.Labels))

	persistAnalyses := strings.EqualFold(utils.GetEnv("TRIAGE_PERSIST_ANALYSES", "false"), "true")

	var dbClient db.AnalysisDB
	if persistAnalyses {
		client, err := db.NewDBClient()
		if err != nil {
			log.Printf("database unavailable (%v), analyses will be appended to the local JSON file", err)
		} else {
			dbClient = client
			defer dbClient.Close()
		}
	}

	controller := newSocketController(store, dbClient, persistAnalyses)

	server := socketio.NewServer(&engineio.Options{
		PingTimeout:  60 * time.Second,
		PingInterval: 25 * time.Second,
		Transports: []transport.Transport{
			&websocket.Transport{
				CheckOrigin: allowOriginFunc,
			},
			&polling.Transport{
				CheckOrigin: allowOriginFunc,
			},
		},
	})

	server.OnConnect("/", func(socket socketio.Conn) error {
		socket.SetContext("")
		connURL := socket.URL()
		log.Printf("CONNECTED: %s, transport: %s, remote addr: %s\n", socket.ID(), connURL.String(), socket.RemoteAddr())
		controller.emitStoreInfo(socket)
		return nil
	})

	server.OnEvent("/", "requestStoreInfo", func(socket socketio.Conn) {
		log.Printf("requestStoreInfo received from %s\n", socket.ID())
		controller.handleRequestStoreInfo(socket)
	})

	server.OnEvent("/", "newMeasurements", func(socket socketio.Conn, msg string) {
		log.Printf("newMeasurements event received from %s, data length: %d\n", socket.ID(), len(msg))
		// Run handler in goroutine to prevent blocking, with panic recovery
		go func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("panic in handleNewMeasurements for socket %s: %v\n", socket.ID(), r)
					socket.Emit("analysisError", map[string]string{"message": "internal server error during processing"})
				}
			}()
			controller.handleNewMeasurements(socket, msg)
		}()
	})

	server.OnEvent("/", "trainSample", func(socket socketio.Conn, msg string) {
		log.Printf("trainSample event received from %s, data length: %d\n", socket.ID(), len(msg))
		controller.handleTrainSample(socket, msg)
	})

	server.OnError("/", func(s socketio.Conn, e error) {
		log.Println("meet error:", e)
	})

	server.OnDisconnect("/", func(s socketio.Conn, reason string) {
		log.Printf("Socket disconnected - ID: %s, Reason: %s\n", s.ID(), reason)
	})

	go func() {
		if err := server.Serve(); err != nil {
			log.Fatalf("socketio listen error: %s\n", err)
		}
	}()
	defer server.Close()

	serveHTTPS := protocol == "https"

	classificationHandler := newClipClassificationHandler(store, dbClient, persistAnalyses)
	trainHandler := newTrainHandler(store)
	analysesHandler := newAnalysesHandler(dbClient)
	mux := http.NewServeMux()
	mux.Handle("/socket.io/", server)
	mux.HandleFunc("/api/clips/classify", classificationHandler)
	mux.HandleFunc("/api/prototypes/train", trainHandler)
	mux.HandleFunc("/api/analyses", analysesHandler)
	mux.Handle("/", http.FileServer(http.Dir("static")))

	serveHTTP(server, serveHTTPS, port, mux)
}

func serveHTTP(socketServer *socketio.Server, serveHTTPS bool, port string, handler http.Handler) {
	if handler == nil {
		handler = socketServer
	}
	if serveHTTPS {
		httpsAddr := ":" + port
		httpsServer := &http.Server{
			Addr: httpsAddr,
			TLSConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
			Handler: handler,
		}

		certKey := utils.GetEnv("CERT_KEY", "")
		certFile := utils.GetEnv("CERT_FILE", "")
		if certKey == "" || certFile == "" {
			log.Fatal("Missing cert")
		}

		log.Printf("Starting HTTPS server on %s\n", httpsAddr)
		if err := httpsServer.ListenAndServeTLS(certFile, certKey); err != nil {
			log.Fatalf("HTTPS server ListenAndServeTLS: %v", err)
		}
	}

	log.Printf("Starting HTTP server on port %v", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatalf("HTTP server ListenAndServe: %v", err)
	}
}
