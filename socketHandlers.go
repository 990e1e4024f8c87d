package main

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"
	"strings"

	"clip-triage/db"
	"clip-triage/models"
	"clip-triage/scene"
	"clip-triage/utils"

	socketio "github.com/googollee/go-socket.io"
	"github.com/mdobak/go-xerrors"
)

type socketController struct {
	store           *scene.PrototypeStore
	dbClient        db.AnalysisDB
	persistAnalyses bool
}

func newSocketController(store *scene.PrototypeStore, dbClient db.AnalysisDB, persist bool) *socketController {
	return &socketController{store: store, dbClient: dbClient, persistAnalyses: persist}
}

func (c *socketController) emitStoreInfo(socket socketio.Conn) {
	socket.Emit("storeInfo", c.store.Stats())
}

func (c *socketController) handleRequestStoreInfo(socket socketio.Conn) {
	c.emitStoreInfo(socket)
}

func (c *socketController) handleNewMeasurements(socket socketio.Conn, measurementData string) {
	logger := utils.GetLogger()
	ctx := context.Background()

	if measurementData == "" {
		logger.ErrorContext(ctx, "no data received in newMeasurements event")
		socket.Emit("analysisError", map[string]string{"message": "no frame measurements received"})
		return
	}

	var payload models.MeasurementPayload
	if err := json.Unmarshal([]byte(measurementData), &payload); err != nil {
		err := xerrors.New(err)
		logger.ErrorContext(ctx, "failed to parse measurement payload", slog.Any("error", err))
		socket.Emit("analysisError", map[string]string{"message": "invalid measurement payload"})
		return
	}

	logger.InfoContext(ctx, "received measurements",
		slog.String("socketID", socket.ID()),
		slog.String("source", payload.Source),
		slog.Int("frameCount", len(payload.Frames)),
		slog.Float64("fps", payload.Metadata.FPS),
		slog.Float64("duration", payload.Metadata.DurationSeconds),
	)

	response, err := runClassification(c.store, c.dbClient, payload, c.persistAnalyses)
	if err != nil {
		err := xerrors.New(err)
		logger.ErrorContext(ctx, "classification failed", slog.Any("error", err))
		socket.Emit("analysisError", map[string]string{"message": err.Error()})
		return
	}

	logger.InfoContext(ctx, "classification complete",
		slog.String("socketID", socket.ID()),
		slog.String("label", response.Result.Label),
		slog.Float64("latency_ms", response.LatencyMs),
		slog.Int("frameSamples", response.Features.FrameSamples),
	)

	socket.Emit("clipAnalysis", response)
	log.Printf("[handleNewMeasurements] Emitted clipAnalysis for socket %s\n", socket.ID())
}

func (c *socketController) handleTrainSample(socket socketio.Conn, measurementData string) {
	logger := utils.GetLogger()
	ctx := context.Background()

	var payload models.MeasurementPayload
	if err := json.Unmarshal([]byte(measurementData), &payload); err != nil {
		err := xerrors.New(err)
		logger.ErrorContext(ctx, "failed to parse train payload", slog.Any("error", err))
		socket.Emit("analysisError", map[string]string{"message": "invalid measurement payload"})
		return
	}

	label := strings.TrimSpace(payload.TrainLabel)
	if label == "" {
		socket.Emit("analysisError", map[string]string{"message": "trainLabel is required"})
		return
	}
	if !containsLabel(scene.DefaultClasses(), label) {
		socket.Emit("analysisError", map[string]string{"message": "unknown label: " + label})
		return
	}

	features := scene.Aggregate(payload.Frames, payload.Metadata)
	if features.FrameSamples == 0 {
		socket.Emit("analysisError", map[string]string{"message": "no frame measurements in payload"})
		return
	}

	if err := c.store.AddSample(label, features, payload.Source); err != nil {
		err := xerrors.New(err)
		logger.ErrorContext(ctx, "failed to store prototype", slog.Any("error", err))
		socket.Emit("analysisError", map[string]string{"message": "failed to store prototype"})
		return
	}

	logger.InfoContext(ctx, "stored prototype",
		slog.String("socketID", socket.ID()),
		slog.String("label", label),
		slog.String("source", payload.Source),
		slog.Int("storeSize", c.store.Len()),
	)
	c.emitStoreInfo(socket)
}
